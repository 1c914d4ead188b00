package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateArchive(); err != nil {
		return err
	}
	if err := c.validateReconcile(); err != nil {
		return err
	}
	if err := c.validateMedia(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validatePaths() error {
	if strings.TrimSpace(c.Paths.RomDir) == "" {
		return errors.New("paths.rom_dir must be set")
	}
	if strings.TrimSpace(c.Paths.StagingDir) == "" {
		return errors.New("paths.staging_dir must be set")
	}
	if strings.TrimSpace(c.Paths.SystemsDir) == "" {
		return errors.New("paths.systems_dir must be set")
	}
	if strings.TrimSpace(c.Paths.ManifestDir) == "" {
		return errors.New("paths.manifest_dir must be set")
	}
	return nil
}

func (c *Config) validateArchive() error {
	switch c.Archive.Format {
	case "zip":
		return nil
	case "7z":
		if c.Tools.SevenZip == "" {
			return errors.New("archive.format 7z requires tools.seven_zip")
		}
		return nil
	default:
		return fmt.Errorf("archive.format: unsupported value %q (expected zip or 7z)", c.Archive.Format)
	}
}

func (c *Config) validateReconcile() error {
	if c.Reconcile.FuzzyThreshold <= 0 || c.Reconcile.FuzzyThreshold > 1 {
		return errors.New("reconcile.fuzzy_threshold must be greater than 0 and at most 1")
	}
	if c.Reconcile.StagingMaxAgeHours < 0 {
		return errors.New("reconcile.staging_max_age_hours must be non-negative")
	}
	return nil
}

func (c *Config) validateMedia() error {
	if !c.Media.Enabled {
		return nil
	}
	if c.Media.SourceDir == "" {
		return errors.New("media.source_dir must be set when media.enabled is true")
	}
	if c.Media.TargetDir == "" {
		return errors.New("media.target_dir must be set when media.enabled is true")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	return nil
}
