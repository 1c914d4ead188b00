package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	RomDir      string `toml:"rom_dir"`
	StagingDir  string `toml:"staging_dir"`
	LogDir      string `toml:"log_dir"`
	ReviewDir   string `toml:"review_dir"`
	SystemsDir  string `toml:"systems_dir"`
	ManifestDir string `toml:"manifest_dir"`
}

// Sources contains the master ROM set roots that system descriptors refer to.
type Sources struct {
	NoIntro       string `toml:"no_intro"`
	GoodSet       string `toml:"goodset"`
	NoGoodSet     string `toml:"nogoodset"`
	TOSEC         string `toml:"tosec"`
	SoftwareLists string `toml:"software_lists"`
	Redump        string `toml:"redump"`
}

// Tools contains external archive executables. Empty values disable the tool.
type Tools struct {
	SevenZip string `toml:"seven_zip"`
	Unrar    string `toml:"unrar"`
}

// Archive controls how materialized ROMs are packaged.
type Archive struct {
	Format   string `toml:"format"`
	Compress bool   `toml:"compress"`
	Password string `toml:"password"`
}

// Reconcile controls matching and materialization behaviour.
type Reconcile struct {
	FuzzyEnabled       bool    `toml:"fuzzy_enabled"`
	FuzzyThreshold     float64 `toml:"fuzzy_threshold"`
	Overwrite          bool    `toml:"overwrite"`
	BackupOnOverwrite  bool    `toml:"backup_on_overwrite"`
	StagingMaxAgeHours int     `toml:"staging_max_age_hours"`
}

// Media contains configuration for the optional media sync that runs next to
// the ROM set build.
type Media struct {
	Enabled    bool     `toml:"enabled"`
	SourceDir  string   `toml:"source_dir"`
	TargetDir  string   `toml:"target_dir"`
	Extensions []string `toml:"extensions"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for romset.
//
// Configuration sections by subsystem:
//   - Paths: target collection, staging, logs, review files, descriptors and manifests
//   - Sources: master ROM set roots
//   - Tools: 7-Zip and unrar executables
//   - Archive: canonical archive format and credentials
//   - Reconcile: fuzzy matching and overwrite policy
//   - Media: optional media sync
//   - Logging: log format and level
type Config struct {
	Paths     Paths     `toml:"paths"`
	Sources   Sources   `toml:"sources"`
	Tools     Tools     `toml:"tools"`
	Archive   Archive   `toml:"archive"`
	Reconcile Reconcile `toml:"reconcile"`
	Media     Media     `toml:"media"`
	Logging   Logging   `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/romset/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("romset.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the directories a run writes into. RomDir is
// created on a best-effort basis so read-only commands keep working when the
// cabinet storage is offline.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.StagingDir, c.Paths.LogDir, c.Paths.ReviewDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	if strings.TrimSpace(c.Paths.RomDir) != "" {
		_ = os.MkdirAll(c.Paths.RomDir, 0o755)
	}
	return nil
}

// SystemRomDir returns the target collection directory for one system.
func (c *Config) SystemRomDir(system string) string {
	return filepath.Join(c.Paths.RomDir, system)
}

// ManifestPath returns the wanted manifest location for one system.
func (c *Config) ManifestPath(system string) string {
	return filepath.Join(c.Paths.ManifestDir, system+".xml")
}

// ReviewPath returns the review file location for one system.
func (c *Config) ReviewPath(system string) string {
	return filepath.Join(c.Paths.ReviewDir, system+".yaml")
}

// HistoryPath returns the run history database location.
func (c *Config) HistoryPath() string {
	return filepath.Join(c.Paths.LogDir, "history.db")
}

// SourceRoots maps master set names used by system descriptors to their
// configured roots. Unset roots are omitted.
func (c *Config) SourceRoots() map[string]string {
	roots := map[string]string{
		"NoIntro":       c.Sources.NoIntro,
		"GoodSet":       c.Sources.GoodSet,
		"NoGoodSet":     c.Sources.NoGoodSet,
		"TOSEC":         c.Sources.TOSEC,
		"SoftwareLists": c.Sources.SoftwareLists,
		"Redump":        c.Sources.Redump,
	}
	for key, value := range roots {
		if strings.TrimSpace(value) == "" {
			delete(roots, key)
		}
	}
	return roots
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
