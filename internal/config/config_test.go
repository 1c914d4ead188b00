package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/beano38/retro-manager/internal/config"
)

func TestLoadDefaultConfigExpandsPaths(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Chdir(tempHome)

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	wantStaging := filepath.Join(tempHome, ".local", "share", "romset", "staging")
	if cfg.Paths.StagingDir != wantStaging {
		t.Fatalf("unexpected staging dir: got %q want %q", cfg.Paths.StagingDir, wantStaging)
	}
	if cfg.Paths.RomDir != filepath.Join(tempHome, "arcade", "roms") {
		t.Fatalf("unexpected rom dir: %q", cfg.Paths.RomDir)
	}
	if cfg.Archive.Format != "zip" || !cfg.Archive.Compress {
		t.Fatalf("unexpected archive defaults: %+v", cfg.Archive)
	}
	if cfg.Reconcile.FuzzyThreshold != config.Default().Reconcile.FuzzyThreshold {
		t.Fatalf("unexpected fuzzy threshold: %v", cfg.Reconcile.FuzzyThreshold)
	}
	if cfg.Reconcile.Overwrite {
		t.Fatal("expected overwrite disabled by default")
	}
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories failed: %v", err)
	}
	for _, dir := range []string{cfg.Paths.StagingDir, cfg.Paths.LogDir, cfg.Paths.ReviewDir, cfg.Paths.RomDir} {
		info, err := os.Stat(dir)
		if err != nil {
			t.Fatalf("expected directory %q to exist: %v", dir, err)
		}
		if !info.IsDir() {
			t.Fatalf("expected %q to be directory", dir)
		}
	}
}

func TestLoadCustomPath(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "romset.toml")
	content := `
[paths]
rom_dir = "` + filepath.ToSlash(filepath.Join(tempDir, "roms")) + `"

[sources]
no_intro = "` + filepath.ToSlash(filepath.Join(tempDir, "nointro")) + `"

[archive]
format = ".7Z"

[reconcile]
fuzzy_threshold = 0.6
overwrite = true

[logging]
format = "JSON"
level = "Debug"
`
	if err := os.WriteFile(configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists || resolved != configPath {
		t.Fatalf("expected config at %q, got %q (exists=%v)", configPath, resolved, exists)
	}
	if cfg.Archive.Format != "7z" {
		t.Fatalf("expected normalized archive format 7z, got %q", cfg.Archive.Format)
	}
	if cfg.Reconcile.FuzzyThreshold != 0.6 || !cfg.Reconcile.Overwrite {
		t.Fatalf("unexpected reconcile section: %+v", cfg.Reconcile)
	}
	if cfg.Logging.Format != "json" || cfg.Logging.Level != "debug" {
		t.Fatalf("unexpected logging section: %+v", cfg.Logging)
	}
	roots := cfg.SourceRoots()
	if len(roots) != 1 || roots["NoIntro"] != filepath.Join(tempDir, "nointro") {
		t.Fatalf("unexpected source roots: %v", roots)
	}
	if got := cfg.SystemRomDir("Nintendo Entertainment System"); got != filepath.Join(tempDir, "roms", "Nintendo Entertainment System") {
		t.Fatalf("unexpected system rom dir: %q", got)
	}
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "romset.toml")
	if err := os.WriteFile(configPath, []byte("[paths]\nlibrary_dir = \"/tmp\"\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, _, _, err := config.Load(configPath); err == nil {
		t.Fatal("expected unknown key to fail parsing")
	}
}

func TestToolEnvironmentOverrides(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("ROMSET_7Z", " /opt/7zz ")
	t.Setenv("ROMSET_UNRAR", "")
	t.Setenv("ROMSET_ARCHIVE_PASSWORD", "secret")

	cfg, _, _, err := config.Load(filepath.Join(t.TempDir(), "missing.toml"))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Tools.SevenZip != "/opt/7zz" {
		t.Fatalf("expected 7z override, got %q", cfg.Tools.SevenZip)
	}
	if cfg.Tools.Unrar != "" {
		t.Fatalf("expected unrar disabled, got %q", cfg.Tools.Unrar)
	}
	if cfg.Archive.Password != "secret" {
		t.Fatalf("expected password from env, got %q", cfg.Archive.Password)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*config.Config)
		wantErr string
	}{
		{name: "defaults", mutate: func(*config.Config) {}},
		{name: "zero threshold", mutate: func(c *config.Config) { c.Reconcile.FuzzyThreshold = 0 }, wantErr: "fuzzy_threshold"},
		{name: "threshold above one", mutate: func(c *config.Config) { c.Reconcile.FuzzyThreshold = 1.2 }, wantErr: "fuzzy_threshold"},
		{name: "rar output", mutate: func(c *config.Config) { c.Archive.Format = "rar" }, wantErr: "archive.format"},
		{name: "7z without tool", mutate: func(c *config.Config) {
			c.Archive.Format = "7z"
			c.Tools.SevenZip = ""
		}, wantErr: "tools.seven_zip"},
		{name: "media without dirs", mutate: func(c *config.Config) { c.Media.Enabled = true }, wantErr: "media.source_dir"},
		{name: "bad log level", mutate: func(c *config.Config) { c.Logging.Level = "trace" }, wantErr: "logging.level"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestCreateSampleRoundTrips(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample: %v", err)
	}
	cfg, _, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("sample config should load: %v", err)
	}
	if !exists {
		t.Fatal("expected sample config to exist")
	}
	if cfg.Archive.Format != "zip" {
		t.Fatalf("unexpected sample archive format %q", cfg.Archive.Format)
	}
}
