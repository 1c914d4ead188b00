package main

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/beano38/retro-manager/internal/workflow"
)

func newRunCommand(ctx *commandContext) *cobra.Command {
	var opts workflow.RunOptions

	cmd := &cobra.Command{
		Use:   "run [system...]",
		Short: "Reconcile systems against their wanted lists",
		Long: `Reconcile one or more systems. With no arguments every system that has a
descriptor in paths.systems_dir is processed, in name order.

Titles whose fingerprint matches a candidate are materialized directly. Titles
without a fingerprint match are paired by name; certain pairings are
materialized and the rest are written to the system's review file.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			runner, err := ctx.runner()
			if err != nil {
				return err
			}
			reports, err := runner.RunBatch(cmd.Context(), args, opts)
			if ctx.JSONMode() {
				if reports == nil {
					reports = []*workflow.SystemReport{}
				}
				if jsonErr := writeJSON(cmd, reports); jsonErr != nil {
					return jsonErr
				}
			} else if len(reports) > 0 {
				printRunReports(cmd.OutOrStdout(), reports)
			}
			if err != nil {
				return err
			}
			if failed := workflow.FailedSystems(reports); len(failed) > 0 {
				return fmt.Errorf("%w: %s", errSystemsFailed, strings.Join(failed, ", "))
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&opts.DryRun, "dry-run", "n", false, "Plan the run without writing to the collection")
	cmd.Flags().BoolVar(&opts.NoFuzzy, "no-fuzzy", false, "Skip name matching; only fingerprint matches are made")
	cmd.Flags().BoolVar(&opts.Overwrite, "overwrite", false, "Replace destination files that already exist")
	return cmd
}

func printRunReports(out io.Writer, reports []*workflow.SystemReport) {
	columns := []column{
		{"System", alignLeft},
		{"Wanted", alignRight},
		{"Held", alignRight},
		{"Exact", alignRight},
		{"Fuzzy", alignRight},
		{"Review", alignRight},
		{"Unmatched", alignRight},
		{"Written", alignRight},
		{"Failed", alignRight},
		{"Time", alignRight},
		{"Status", alignLeft},
	}
	rows := make([][]string, 0, len(reports))
	var totals [8]int
	for _, r := range reports {
		counts := [8]int{r.Wanted, r.Held, r.Exact, r.Fuzzy, r.Review, r.Unmatched, r.Materialized, r.Failed}
		row := []string{r.System}
		for i, n := range counts {
			totals[i] += n
			row = append(row, strconv.Itoa(n))
		}
		row = append(row, formatDuration(r.Duration), reportStatus(r))
		rows = append(rows, row)
	}
	footer := []string{"Total"}
	for _, n := range totals {
		footer = append(footer, strconv.Itoa(n))
	}

	fmt.Fprint(out, renderTable(columns, rows, footer))
	for _, r := range reports {
		if r.ReviewFile != "" {
			fmt.Fprintf(out, "%s: %d pairing(s) to review in %s\n", r.System, r.Review, r.ReviewFile)
		}
	}
}

func reportStatus(r *workflow.SystemReport) string {
	switch {
	case r.Err() != nil:
		if errors.Is(r.Err(), workflow.ErrTargetLocked) {
			return "locked"
		}
		return "error: " + r.Error
	case r.DryRun:
		return "dry run"
	case r.Failed > 0:
		return "partial"
	default:
		return "ok"
	}
}
