package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	if err := c.normalizeSources(); err != nil {
		return err
	}
	c.normalizeTools()
	c.normalizeArchive()
	if err := c.normalizeMedia(); err != nil {
		return err
	}
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	fields := []struct {
		key   string
		value *string
	}{
		{"paths.rom_dir", &c.Paths.RomDir},
		{"paths.staging_dir", &c.Paths.StagingDir},
		{"paths.log_dir", &c.Paths.LogDir},
		{"paths.review_dir", &c.Paths.ReviewDir},
		{"paths.systems_dir", &c.Paths.SystemsDir},
		{"paths.manifest_dir", &c.Paths.ManifestDir},
	}
	for _, field := range fields {
		expanded, err := expandPath(strings.TrimSpace(*field.value))
		if err != nil {
			return fmt.Errorf("%s: %w", field.key, err)
		}
		*field.value = expanded
	}
	return nil
}

func (c *Config) normalizeSources() error {
	fields := []struct {
		key   string
		value *string
	}{
		{"sources.no_intro", &c.Sources.NoIntro},
		{"sources.goodset", &c.Sources.GoodSet},
		{"sources.nogoodset", &c.Sources.NoGoodSet},
		{"sources.tosec", &c.Sources.TOSEC},
		{"sources.software_lists", &c.Sources.SoftwareLists},
		{"sources.redump", &c.Sources.Redump},
	}
	for _, field := range fields {
		expanded, err := expandPath(strings.TrimSpace(*field.value))
		if err != nil {
			return fmt.Errorf("%s: %w", field.key, err)
		}
		*field.value = expanded
	}
	return nil
}

func (c *Config) normalizeTools() {
	if value, ok := os.LookupEnv("ROMSET_7Z"); ok {
		c.Tools.SevenZip = value
	}
	if value, ok := os.LookupEnv("ROMSET_UNRAR"); ok {
		c.Tools.Unrar = value
	}
	c.Tools.SevenZip = strings.TrimSpace(c.Tools.SevenZip)
	c.Tools.Unrar = strings.TrimSpace(c.Tools.Unrar)
}

func (c *Config) normalizeArchive() {
	c.Archive.Format = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(c.Archive.Format), "."))
	if c.Archive.Format == "" {
		c.Archive.Format = defaultArchiveFormat
	}
	if c.Archive.Password == "" {
		if value, ok := os.LookupEnv("ROMSET_ARCHIVE_PASSWORD"); ok {
			c.Archive.Password = value
		}
	}
}

func (c *Config) normalizeMedia() error {
	var err error
	if c.Media.SourceDir, err = expandPath(strings.TrimSpace(c.Media.SourceDir)); err != nil {
		return fmt.Errorf("media.source_dir: %w", err)
	}
	if c.Media.TargetDir, err = expandPath(strings.TrimSpace(c.Media.TargetDir)); err != nil {
		return fmt.Errorf("media.target_dir: %w", err)
	}
	exts := make([]string, 0, len(c.Media.Extensions))
	for _, ext := range c.Media.Extensions {
		ext = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(ext), "."))
		if ext != "" {
			exts = append(exts, ext)
		}
	}
	if len(exts) == 0 {
		exts = append(exts, defaultMediaExtensions...)
	}
	c.Media.Extensions = exts
	return nil
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
