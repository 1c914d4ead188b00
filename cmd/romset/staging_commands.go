package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/beano38/retro-manager/internal/staging"
)

func newStagingCommand(ctx *commandContext) *cobra.Command {
	stagingCmd := &cobra.Command{
		Use:   "staging",
		Short: "Manage staging work directories",
	}

	stagingCmd.AddCommand(newStagingListCommand(ctx))
	stagingCmd.AddCommand(newStagingCleanCommand(ctx))

	return stagingCmd
}

func newStagingListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List staging work directories",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			stagingDir := strings.TrimSpace(cfg.Paths.StagingDir)
			dirs, err := staging.ListDirectories(stagingDir)
			if err != nil {
				return fmt.Errorf("list staging directories: %w", err)
			}
			var totalSize int64
			for _, dir := range dirs {
				totalSize += dir.Size
			}

			if ctx.JSONMode() {
				if dirs == nil {
					dirs = []staging.DirInfo{}
				}
				return writeJSON(cmd, map[string]any{
					"staging_dir":      stagingDir,
					"directories":      dirs,
					"total_size_bytes": totalSize,
				})
			}

			out := cmd.OutOrStdout()
			if len(dirs) == 0 {
				fmt.Fprintln(out, "No staging directories found")
				return nil
			}
			fmt.Fprintf(out, "Staging directory: %s\n\n", stagingDir)
			rows := make([][]string, 0, len(dirs))
			for _, dir := range dirs {
				rows = append(rows, []string{dir.Name, formatDuration(time.Since(dir.ModTime).Truncate(time.Minute)), formatBytes(dir.Size)})
			}
			fmt.Fprint(out, renderTable(
				[]column{{"Directory", alignLeft}, {"Age", alignRight}, {"Size", alignRight}},
				rows,
				[]string{fmt.Sprintf("%d directories", len(dirs)), "", formatBytes(totalSize)},
			))
			return nil
		},
	}
}

func newStagingCleanCommand(ctx *commandContext) *cobra.Command {
	var cleanAll bool

	cmd := &cobra.Command{
		Use:   "clean",
		Short: "Remove work directories left by interrupted runs",
		Long: `Remove staging work directories older than reconcile.staging_max_age_hours.

Use --all to remove every work directory regardless of age. Do not use --all
while a run is in progress.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.logger()
			if err != nil {
				return err
			}
			maxAge := time.Duration(cfg.Reconcile.StagingMaxAgeHours) * time.Hour
			label := "stale"
			if cleanAll {
				maxAge = 0
				label = "staging"
			}
			result := staging.CleanStale(cmd.Context(), cfg.Paths.StagingDir, maxAge, logger)

			if ctx.JSONMode() {
				errs := make([]string, 0, len(result.Errors))
				for _, e := range result.Errors {
					errs = append(errs, fmt.Sprintf("%s: %v", e.Path, e.Error))
				}
				return writeJSON(cmd, map[string]any{"removed": len(result.Removed), "errors": errs})
			}
			out := cmd.OutOrStdout()
			switch {
			case len(result.Removed) == 0 && len(result.Errors) == 0:
				fmt.Fprintf(out, "No %s directories to clean\n", label)
			case len(result.Errors) > 0:
				fmt.Fprintf(out, "Removed %d %s directories, %d errors\n", len(result.Removed), label, len(result.Errors))
				for _, e := range result.Errors {
					fmt.Fprintf(out, "  Error: %s: %v\n", e.Path, e.Error)
				}
			default:
				fmt.Fprintf(out, "Removed %d %s directories\n", len(result.Removed), label)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&cleanAll, "all", false, "Remove all work directories regardless of age")
	return cmd
}
