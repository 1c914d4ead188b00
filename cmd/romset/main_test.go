package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"github.com/beano38/retro-manager/internal/config"
	"github.com/beano38/retro-manager/internal/testsupport"
	"github.com/beano38/retro-manager/internal/workflow"
)

type cliTestEnv struct {
	cfg        *config.Config
	configPath string
	source     string
}

func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()

	cfg := testsupport.NewConfig(t, testsupport.WithSource("NoIntro", "masters/no-intro"))
	cfg.Logging.Level = "error"
	cfg.Reconcile.FuzzyThreshold = 0.7
	source := filepath.Join(cfg.Sources.NoIntro, "Nintendo - NES")

	descriptor := `{"extensions": ["nes"], "romSets": {"NoIntro": "Nintendo - NES"}}`
	if err := os.WriteFile(filepath.Join(cfg.Paths.SystemsDir, "NES.json"), []byte(descriptor), 0o644); err != nil {
		t.Fatalf("write descriptor: %v", err)
	}
	fp := testsupport.WriteZip(t, filepath.Join(source, "Zelda II (U).zip"),
		testsupport.Member{Name: "Zelda II (U).nes", Content: []byte("zelda-two")},
	)[0]
	testsupport.WriteROM(t, filepath.Join(source, "Contra (U).nes"), []byte("contra"))

	manifest := `<?xml version="1.0"?>
<menu>
	<game name="Zelda II"><crc>` + fp.String() + `</crc></game>
	<game name="Contra"><crc></crc></game>
</menu>`
	if err := os.WriteFile(cfg.ManifestPath("NES"), []byte(manifest), 0o644); err != nil {
		t.Fatalf("write manifest: %v", err)
	}

	data, err := toml.Marshal(cfg)
	if err != nil {
		t.Fatalf("marshal config: %v", err)
	}
	configPath := filepath.Join(testsupport.BaseDir(cfg), "romset.toml")
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return &cliTestEnv{cfg: cfg, configPath: configPath, source: source}
}

func (env *cliTestEnv) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--config", env.configPath}, args...))
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestRunCommandJSON(t *testing.T) {
	env := setupCLITestEnv(t)

	out, err := env.run(t, "run", "--json")
	if err != nil {
		t.Fatalf("run: %v\n%s", err, out)
	}
	var reports []workflow.SystemReport
	if err := json.Unmarshal([]byte(out), &reports); err != nil {
		t.Fatalf("decode output: %v\n%s", err, out)
	}
	if len(reports) != 1 || reports[0].System != "NES" {
		t.Fatalf("unexpected reports %+v", reports)
	}
	if reports[0].Exact != 1 || reports[0].Materialized != 1 {
		t.Fatalf("unexpected counters %+v", reports[0])
	}
	if _, err := os.Stat(filepath.Join(env.cfg.SystemRomDir("NES"), "Zelda II.zip")); err != nil {
		t.Fatalf("Zelda II not materialized: %v", err)
	}
}

func TestRunCommandTableAndReview(t *testing.T) {
	env := setupCLITestEnv(t)

	out, err := env.run(t, "run", "NES")
	if err != nil {
		t.Fatalf("run: %v\n%s", err, out)
	}
	if !strings.Contains(out, "NES") || !strings.Contains(out, "Total") {
		t.Fatalf("expected summary table, got:\n%s", out)
	}
	if !strings.Contains(out, "to review") {
		t.Fatalf("expected review hint, got:\n%s", out)
	}

	out, err = env.run(t, "review", "list", "NES")
	if err != nil {
		t.Fatalf("review list: %v", err)
	}
	if !strings.Contains(out, "Contra (U)") || !strings.Contains(out, "0 accepted of 1") {
		t.Fatalf("unexpected review list:\n%s", out)
	}

	out, err = env.run(t, "review", "apply", "NES")
	if err != nil {
		t.Fatalf("review apply: %v", err)
	}
	if !strings.Contains(out, "No accepted pairings") {
		t.Fatalf("unexpected apply output:\n%s", out)
	}
}

func TestRunCommandUnknownSystemFails(t *testing.T) {
	env := setupCLITestEnv(t)

	_, err := env.run(t, "run", "Nope")
	if !errors.Is(err, errSystemsFailed) {
		t.Fatalf("expected errSystemsFailed, got %v", err)
	}
}

func TestInspectCommand(t *testing.T) {
	env := setupCLITestEnv(t)

	out, err := env.run(t, "inspect", "--json", env.source)
	if err != nil {
		t.Fatalf("inspect: %v", err)
	}
	var entries []inspectedEntry
	if err := json.Unmarshal([]byte(out), &entries); err != nil {
		t.Fatalf("decode: %v\n%s", err, out)
	}
	members := map[string]bool{}
	for _, e := range entries {
		members[e.Member] = true
		if len(e.Fingerprint) != 8 {
			t.Fatalf("unexpected fingerprint %+v", e)
		}
	}
	if len(entries) != 2 || !members["Zelda II (U).nes"] || !members["Contra (U).nes"] {
		t.Fatalf("unexpected entries %+v", entries)
	}
}

func TestHistoryCommands(t *testing.T) {
	env := setupCLITestEnv(t)
	if out, err := env.run(t, "run", "--dry-run"); err != nil {
		t.Fatalf("run: %v\n%s", err, out)
	}

	out, err := env.run(t, "history")
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if !strings.Contains(out, "dry run") {
		t.Fatalf("unexpected history:\n%s", out)
	}

	out, err = env.run(t, "history", "--json")
	if err != nil {
		t.Fatalf("history --json: %v", err)
	}
	var runs []struct {
		ID string `json:"ID"`
	}
	if err := json.Unmarshal([]byte(out), &runs); err != nil || len(runs) != 1 {
		t.Fatalf("decode history: %v\n%s", err, out)
	}

	out, err = env.run(t, "history", "show", runs[0].ID[:8])
	if err != nil {
		t.Fatalf("history show: %v", err)
	}
	if !strings.Contains(out, "Zelda II") || !strings.Contains(out, "dry_run") {
		t.Fatalf("unexpected outcomes:\n%s", out)
	}
}

func TestDoctorCommand(t *testing.T) {
	env := setupCLITestEnv(t)

	out, err := env.run(t, "doctor")
	if err != nil {
		t.Fatalf("doctor: %v\n%s", err, out)
	}
	for _, want := range []string{"Directories", "Archive tools", "Run history", "NES"} {
		if !strings.Contains(out, want) {
			t.Fatalf("doctor output missing %q:\n%s", want, out)
		}
	}
}

func TestStagingCommands(t *testing.T) {
	env := setupCLITestEnv(t)
	work := filepath.Join(env.cfg.Paths.StagingDir, "work-leftover")
	testsupport.WriteROM(t, filepath.Join(work, "partial.nes"), []byte("x"))

	out, err := env.run(t, "staging", "list")
	if err != nil || !strings.Contains(out, "work-leftover") {
		t.Fatalf("staging list: %v\n%s", err, out)
	}
	out, err = env.run(t, "staging", "clean", "--all")
	if err != nil || !strings.Contains(out, "Removed 1") {
		t.Fatalf("staging clean: %v\n%s", err, out)
	}
	if _, err := os.Stat(work); !os.IsNotExist(err) {
		t.Fatalf("work dir should be removed, stat err %v", err)
	}
}

func TestConfigInitAndValidate(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "romset.toml")

	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"config", "init", "--path", target})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("config init: %v", err)
	}
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("sample config not written: %v", err)
	}

	cmd = newRootCommand()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"config", "init", "--path", target})
	if err := cmd.Execute(); err == nil || !strings.Contains(err.Error(), "already exists") {
		t.Fatalf("expected already exists error, got %v", err)
	}

	env := setupCLITestEnv(t)
	text, err := env.run(t, "config", "validate")
	if err != nil || !strings.Contains(text, "Configuration valid") || !strings.Contains(text, "Master sets configured: 1") {
		t.Fatalf("config validate: %v\n%s", err, text)
	}
	if !strings.Contains(text, "Systems described: 1") || strings.Contains(text, "Without a manifest") {
		t.Fatalf("unexpected system summary:\n%s", text)
	}

	text, err = env.run(t, "config", "show")
	if err != nil {
		t.Fatalf("config show: %v", err)
	}
	var shown config.Config
	if err := toml.Unmarshal([]byte(text), &shown); err != nil {
		t.Fatalf("decode shown config: %v\n%s", err, text)
	}
	if shown.Reconcile.FuzzyThreshold != 0.7 || shown.Paths.RomDir != env.cfg.Paths.RomDir {
		t.Fatalf("unexpected effective config %+v", shown.Reconcile)
	}
}

func TestVersionSkipsConfig(t *testing.T) {
	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"--config", filepath.Join(t.TempDir(), "missing", "bad.toml"), "version"})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("version: %v", err)
	}
	if !strings.HasPrefix(out.String(), "romset ") {
		t.Fatalf("unexpected version output %q", out.String())
	}
}
