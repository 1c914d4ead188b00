package main

import (
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/beano38/retro-manager/internal/history"
	"github.com/beano38/retro-manager/internal/workflow"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int

	historyCmd := &cobra.Command{
		Use:   "history",
		Short: "List recent runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.historyStore()
			if err != nil {
				return err
			}
			runs, err := store.RecentRuns(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if ctx.JSONMode() {
				if runs == nil {
					runs = []*history.Run{}
				}
				return writeJSON(cmd, runs)
			}
			out := cmd.OutOrStdout()
			if len(runs) == 0 {
				fmt.Fprintln(out, "No runs recorded")
				return nil
			}
			rows := make([][]string, 0, len(runs))
			for _, run := range runs {
				status := "ok"
				switch {
				case !run.Finished():
					status = "unfinished"
				case run.ErrorMessage != "":
					status = "error"
				case run.DryRun:
					status = "dry run"
				}
				rows = append(rows, []string{
					run.ID[:8],
					run.System,
					formatTime(run.StartedAt),
					strconv.Itoa(run.Exact),
					strconv.Itoa(run.Fuzzy),
					strconv.Itoa(run.Review),
					strconv.Itoa(run.Materialized),
					strconv.Itoa(run.Failed),
					status,
				})
			}
			fmt.Fprint(out, renderTable([]column{
				{"Run", alignLeft},
				{"System", alignLeft},
				{"Started", alignLeft},
				{"Exact", alignRight},
				{"Fuzzy", alignRight},
				{"Review", alignRight},
				{"Written", alignRight},
				{"Failed", alignRight},
				{"Status", alignLeft},
			}, rows, nil))
			return nil
		},
	}
	historyCmd.Flags().IntVarP(&limit, "limit", "l", 20, "Number of runs to show (0 for all)")

	historyCmd.AddCommand(newHistoryShowCommand(ctx))
	historyCmd.AddCommand(newHistoryPruneCommand(ctx))
	return historyCmd
}

func newHistoryShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show <run-id>",
		Short: "Show the outcomes of one run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.historyStore()
			if err != nil {
				return err
			}
			run, err := findRun(cmd, store, args[0])
			if err != nil {
				return err
			}
			outcomes, err := store.Outcomes(cmd.Context(), run.ID)
			if err != nil {
				return err
			}
			if ctx.JSONMode() {
				if outcomes == nil {
					outcomes = []history.Outcome{}
				}
				return writeJSON(cmd, map[string]any{"run": run, "outcomes": outcomes})
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Run %s (%s) started %s\n", run.ID, run.System, formatTime(run.StartedAt))
			if run.ErrorMessage != "" {
				fmt.Fprintf(out, "Error: %s\n", run.ErrorMessage)
			}
			if len(outcomes) == 0 {
				fmt.Fprintln(out, "No outcomes recorded")
				return nil
			}
			converted := make([]workflow.Outcome, 0, len(outcomes))
			for _, o := range outcomes {
				converted = append(converted, workflow.Outcome{
					Wanted:      o.Wanted,
					Kind:        o.Kind,
					Confidence:  o.Confidence,
					Fingerprint: o.Fingerprint,
					Source:      o.SourcePath,
					Member:      o.SourceMember,
					Destination: o.Destination,
					Status:      o.Status,
					Error:       o.ErrorMessage,
				})
			}
			printOutcomes(out, converted)
			return nil
		},
	}
}

// findRun accepts a full run id or a unique prefix as shown by `history`.
func findRun(cmd *cobra.Command, store *history.Store, id string) (*history.Run, error) {
	if run, err := store.GetRun(cmd.Context(), id); err == nil {
		return run, nil
	}
	runs, err := store.RecentRuns(cmd.Context(), 0)
	if err != nil {
		return nil, err
	}
	var found *history.Run
	for _, run := range runs {
		if len(id) >= 4 && len(run.ID) >= len(id) && run.ID[:len(id)] == id {
			if found != nil {
				return nil, fmt.Errorf("run id prefix %q is ambiguous", id)
			}
			found = run
		}
	}
	if found == nil {
		return nil, fmt.Errorf("%w: %s", history.ErrRunNotFound, id)
	}
	return found, nil
}

func newHistoryPruneCommand(ctx *commandContext) *cobra.Command {
	var olderThan time.Duration

	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Delete runs older than a given age",
		RunE: func(cmd *cobra.Command, args []string) error {
			if olderThan <= 0 {
				return fmt.Errorf("--older-than must be positive")
			}
			store, err := ctx.historyStore()
			if err != nil {
				return err
			}
			removed, err := store.Prune(cmd.Context(), time.Now().Add(-olderThan))
			if err != nil {
				return err
			}
			if ctx.JSONMode() {
				return writeJSON(cmd, map[string]any{"removed": removed})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %d run(s)\n", removed)
			return nil
		},
	}
	cmd.Flags().DurationVar(&olderThan, "older-than", 30*24*time.Hour, "Age beyond which runs are deleted")
	return cmd
}

func printOutcomes(out io.Writer, outcomes []workflow.Outcome) {
	rows := make([][]string, 0, len(outcomes))
	for _, o := range outcomes {
		source := o.Source
		if o.Member != "" && o.Member != filepath.Base(o.Source) {
			source += " :: " + o.Member
		}
		detail := o.Destination
		if o.Error != "" {
			detail = o.Error
		}
		rows = append(rows, []string{o.Wanted, o.Kind, formatConfidence(o.Confidence), string(o.Status), source, detail})
	}
	fmt.Fprint(out, renderTable([]column{
		{"Wanted", alignLeft},
		{"Kind", alignLeft},
		{"Confidence", alignRight},
		{"Status", alignLeft},
		{"Source", alignLeft},
		{"Destination", alignLeft},
	}, rows, nil))
}
