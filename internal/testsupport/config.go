package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/beano38/retro-manager/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// External archive tools are disabled unless WithStubbedBinaries or a
// ConfigOption turns them back on.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.RomDir = filepath.Join(base, "roms")
	cfgVal.Paths.StagingDir = filepath.Join(base, "staging")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Paths.ReviewDir = filepath.Join(base, "review")
	cfgVal.Paths.SystemsDir = filepath.Join(base, "systems")
	cfgVal.Paths.ManifestDir = filepath.Join(base, "databases")
	cfgVal.Tools.SevenZip = ""
	cfgVal.Tools.Unrar = ""

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	for _, dir := range []string{cfgVal.Paths.SystemsDir, cfgVal.Paths.ManifestDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			t.Fatalf("mkdir %s: %v", dir, err)
		}
	}
	return builder.cfg
}

// WithSource points a master set root at a directory under the test base and
// creates it.
func WithSource(set, relDir string) ConfigOption {
	return func(b *configBuilder) {
		dir := filepath.Join(b.baseDir, relDir)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			b.t.Fatalf("mkdir source %s: %v", dir, err)
		}
		switch set {
		case "NoIntro":
			b.cfg.Sources.NoIntro = dir
		case "GoodSet":
			b.cfg.Sources.GoodSet = dir
		case "NoGoodSet":
			b.cfg.Sources.NoGoodSet = dir
		case "TOSEC":
			b.cfg.Sources.TOSEC = dir
		case "SoftwareLists":
			b.cfg.Sources.SoftwareLists = dir
		case "Redump":
			b.cfg.Sources.Redump = dir
		default:
			b.t.Fatalf("unknown master set %q", set)
		}
	}
}

// WithStubbedBinaries writes stub executables for the provided names and
// prepends them to PATH. If names is empty, 7z and unrar are stubbed.
func WithStubbedBinaries(names ...string) ConfigOption {
	return func(b *configBuilder) {
		if len(names) == 0 {
			names = []string{"7z", "unrar"}
		}
		binDir := filepath.Join(b.baseDir, "bin")
		if err := os.MkdirAll(binDir, 0o755); err != nil {
			b.t.Fatalf("mkdir bin dir: %v", err)
		}
		script := []byte("#!/bin/sh\nexit 0\n")
		for _, name := range names {
			target := filepath.Join(binDir, name)
			if err := os.WriteFile(target, script, 0o755); err != nil {
				b.t.Fatalf("write stub %s: %v", name, err)
			}
		}
		b.cfg.Tools.SevenZip = "7z"
		b.cfg.Tools.Unrar = "unrar"

		oldPath := os.Getenv("PATH")
		if err := os.Setenv("PATH", binDir+string(os.PathListSeparator)+oldPath); err != nil {
			b.t.Fatalf("set PATH: %v", err)
		}
		b.t.Cleanup(func() {
			_ = os.Setenv("PATH", oldPath)
		})
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.StagingDir)
}
