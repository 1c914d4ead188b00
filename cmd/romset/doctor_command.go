package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/beano38/retro-manager/internal/config"
	"github.com/beano38/retro-manager/internal/preflight"
	"github.com/beano38/retro-manager/internal/staging"
	"github.com/beano38/retro-manager/internal/system"
)

type doctorLine struct {
	Section string `json:"section"`
	Label   string `json:"label"`
	Passed  bool   `json:"passed"`
	Blocks  bool   `json:"blocks"`
	Detail  string `json:"detail,omitempty"`
}

func newDoctorCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check directories, archive tools, run history and systems",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if err := cfg.EnsureDirectories(); err != nil {
				return err
			}

			lines := doctorDirectories(cmd, cfg)
			lines = append(lines, doctorTools(cfg)...)
			lines = append(lines, doctorHistory(cmd, ctx))
			lines = append(lines, doctorStaging(cfg))
			lines = append(lines, doctorSystems(cfg)...)

			blocking := 0
			for _, l := range lines {
				if l.Blocks && !l.Passed {
					blocking++
				}
			}

			if ctx.JSONMode() {
				if err := writeJSON(cmd, map[string]any{"config": ctx.configPath, "checks": lines}); err != nil {
					return err
				}
			} else {
				printDoctor(cmd, ctx.configPath, lines)
			}
			if blocking > 0 {
				return fmt.Errorf("doctor found %d blocking problem(s)", blocking)
			}
			return nil
		},
	}
}

func printDoctor(cmd *cobra.Command, configPath string, lines []doctorLine) {
	stdout := cmd.OutOrStdout()
	colorize := shouldColorize(stdout)
	fmt.Fprintln(stdout, renderStatusLine("Config", statusInfo, configPath, colorize))

	section := ""
	for _, l := range lines {
		if l.Section != section {
			section = l.Section
			fmt.Fprintln(stdout)
			for _, h := range renderSectionHeader(section, colorize) {
				fmt.Fprintln(stdout, h)
			}
		}
		fmt.Fprintln(stdout, renderStatusLine(l.Label, checkKind(l.Passed, l.Blocks), l.Detail, colorize))
	}
}

func doctorDirectories(cmd *cobra.Command, cfg *config.Config) []doctorLine {
	results := preflight.RunAll(cmd.Context(), cfg)
	lines := make([]doctorLine, 0, len(results))
	for _, r := range results {
		lines = append(lines, doctorLine{Section: "Directories", Label: r.Name, Passed: r.Passed, Blocks: r.Required, Detail: r.Detail})
	}
	return lines
}

func doctorTools(cfg *config.Config) []doctorLine {
	statuses := preflight.CheckSystemDeps(cfg)
	lines := make([]doctorLine, 0, len(statuses))
	for _, s := range statuses {
		detail := s.Detail
		if s.Available && detail == "" {
			detail = s.Path
		}
		if !s.Available && s.Purpose != "" {
			detail = strings.TrimSpace(detail + "; " + s.Purpose)
		}
		lines = append(lines, doctorLine{Section: "Archive tools", Label: s.Name, Passed: s.Available, Blocks: !s.Optional, Detail: detail})
	}
	return lines
}

func doctorHistory(cmd *cobra.Command, ctx *commandContext) doctorLine {
	line := doctorLine{Section: "Run history", Label: "Database"}
	store, err := ctx.historyStore()
	if err != nil {
		line.Detail = err.Error()
		return line
	}
	health, err := store.CheckHealth(cmd.Context())
	switch {
	case err != nil:
		line.Detail = err.Error()
	case !health.IntegrityCheck:
		line.Detail = "integrity check failed: " + health.DBPath
	default:
		line.Passed = true
		line.Detail = fmt.Sprintf("%d run(s) in %s", health.TotalRuns, health.DBPath)
	}
	return line
}

func doctorStaging(cfg *config.Config) doctorLine {
	line := doctorLine{Section: "Staging", Label: "Work directories"}
	dirs, err := staging.ListDirectories(cfg.Paths.StagingDir)
	if err != nil {
		line.Detail = err.Error()
		return line
	}
	var size int64
	for _, d := range dirs {
		size += d.Size
	}
	line.Passed = len(dirs) == 0
	if line.Passed {
		line.Detail = "clean"
	} else {
		line.Detail = fmt.Sprintf("%d left behind (%s); run `romset staging clean`", len(dirs), formatBytes(size))
	}
	return line
}

func doctorSystems(cfg *config.Config) []doctorLine {
	names, err := system.List(cfg.Paths.SystemsDir)
	if err != nil {
		return []doctorLine{{Section: "Systems", Label: "Descriptors", Detail: err.Error()}}
	}
	if len(names) == 0 {
		return []doctorLine{{Section: "Systems", Label: "Descriptors", Detail: "none in " + cfg.Paths.SystemsDir}}
	}
	lines := make([]doctorLine, 0, len(names))
	for _, name := range names {
		line := doctorLine{Section: "Systems", Label: name}
		desc, err := system.Load(cfg.Paths.SystemsDir, name)
		switch {
		case err != nil:
			line.Detail = err.Error()
		default:
			if _, statErr := os.Stat(cfg.ManifestPath(name)); statErr != nil {
				if errors.Is(statErr, os.ErrNotExist) {
					line.Detail = "no manifest at " + cfg.ManifestPath(name)
				} else {
					line.Detail = statErr.Error()
				}
				break
			}
			roots := desc.SourceRoots(cfg.SourceRoots())
			line.Passed = true
			line.Detail = fmt.Sprintf(".%s, %d source dir(s)", desc.CanonicalExtension(), len(roots))
		}
		lines = append(lines, line)
	}
	return lines
}
