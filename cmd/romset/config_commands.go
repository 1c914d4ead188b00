package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"

	"github.com/beano38/retro-manager/internal/config"
	"github.com/beano38/retro-manager/internal/system"
)

func newConfigCommand(ctx *commandContext) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration utilities",
	}
	configCmd.AddCommand(newConfigInitCommand())
	configCmd.AddCommand(newConfigValidateCommand(ctx))
	configCmd.AddCommand(newConfigShowCommand(ctx))
	return configCmd
}

func newConfigInitCommand() *cobra.Command {
	var targetPath string
	var overwrite bool

	cmd := &cobra.Command{
		Use:         "init",
		Short:       "Write a sample configuration file",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			target, err := initTarget(targetPath, overwrite)
			if err != nil {
				return err
			}
			if err := config.CreateSample(target); err != nil {
				return fmt.Errorf("create sample config: %w", err)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Wrote sample configuration to %s\n", target)
			fmt.Fprintln(out, "Set paths.rom_dir and the [sources] roots, then run `romset doctor`.")
			return nil
		},
	}

	cmd.Flags().StringVarP(&targetPath, "path", "p", "", "Destination for the configuration file")
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "Replace an existing file")
	return cmd
}

// initTarget resolves where config init writes and refuses to clobber an
// existing file unless asked to.
func initTarget(flagPath string, overwrite bool) (string, error) {
	target := strings.TrimSpace(flagPath)
	var err error
	if target == "" {
		target, err = config.DefaultConfigPath()
	} else {
		target, err = config.ExpandPath(target)
	}
	if err != nil {
		return "", fmt.Errorf("resolve config path: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return "", fmt.Errorf("create config directory: %w", err)
	}
	if overwrite {
		return target, nil
	}
	_, err = os.Stat(target)
	switch {
	case err == nil:
		return "", fmt.Errorf("config file already exists at %s (use --overwrite to replace it)", target)
	case !errors.Is(err, os.ErrNotExist):
		return "", fmt.Errorf("check config path: %w", err)
	}
	return target, nil
}

type configSummary struct {
	Path        string            `json:"path"`
	FileExists  bool              `json:"file_exists"`
	Sources     map[string]string `json:"sources"`
	Systems     []string          `json:"systems"`
	NoManifest  []string          `json:"systems_without_manifest,omitempty"`
	ArchiveMode string            `json:"archive_format"`
}

func newConfigValidateCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Validate the configuration and list configured systems",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			summary := summarizeConfig(cfg, ctx.configPath, ctx.configSeen)
			if ctx.JSONMode() {
				return writeJSON(cmd, summary)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Config path: %s\n", summary.Path)
			if !summary.FileExists {
				fmt.Fprintln(out, "Config file did not exist; defaults were used")
			}
			fmt.Fprintf(out, "Master sets configured: %d\n", len(summary.Sources))
			fmt.Fprintf(out, "Systems described: %d\n", len(summary.Systems))
			if len(summary.NoManifest) > 0 {
				fmt.Fprintf(out, "Without a manifest: %s\n", strings.Join(summary.NoManifest, ", "))
			}
			fmt.Fprintln(out, "Configuration valid")
			return nil
		},
	}
}

func summarizeConfig(cfg *config.Config, path string, exists bool) configSummary {
	summary := configSummary{
		Path:        path,
		FileExists:  exists,
		Sources:     cfg.SourceRoots(),
		ArchiveMode: cfg.Archive.Format,
	}
	names, _ := system.List(cfg.Paths.SystemsDir)
	sort.Strings(names)
	summary.Systems = names
	for _, name := range names {
		if _, err := os.Stat(cfg.ManifestPath(name)); err != nil {
			summary.NoManifest = append(summary.NoManifest, name)
		}
	}
	return summary
}

func newConfigShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			shown := *cfg
			if shown.Archive.Password != "" {
				shown.Archive.Password = "********"
			}
			if ctx.JSONMode() {
				return writeJSON(cmd, shown)
			}
			data, err := toml.Marshal(shown)
			if err != nil {
				return fmt.Errorf("encode config: %w", err)
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}
}
