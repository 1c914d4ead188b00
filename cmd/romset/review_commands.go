package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/beano38/retro-manager/internal/review"
	"github.com/beano38/retro-manager/internal/workflow"
)

func newReviewCommand(ctx *commandContext) *cobra.Command {
	reviewCmd := &cobra.Command{
		Use:   "review",
		Short: "Inspect and apply fuzzy match review queues",
	}

	reviewCmd.AddCommand(newReviewListCommand(ctx))
	reviewCmd.AddCommand(newReviewApplyCommand(ctx))

	return reviewCmd
}

func newReviewListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list <system>",
		Short: "Show the queued pairings for a system",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			path := cfg.ReviewPath(args[0])
			doc, err := review.Load(path)
			if err != nil {
				return err
			}
			if ctx.JSONMode() {
				items := []review.Item{}
				if doc != nil {
					items = append(items, doc.Items...)
				}
				return writeJSON(cmd, map[string]any{"path": path, "items": items})
			}

			out := cmd.OutOrStdout()
			if doc == nil || len(doc.Items) == 0 {
				fmt.Fprintf(out, "No pairings awaiting review for %s\n", args[0])
				return nil
			}
			rows := make([][]string, 0, len(doc.Items))
			accepted := 0
			for i, it := range doc.Items {
				if it.Accept {
					accepted++
				}
				rows = append(rows, []string{
					strconv.Itoa(i + 1),
					it.Wanted,
					it.Candidate,
					formatConfidence(it.Confidence),
					yesNo(it.Accept),
				})
			}
			fmt.Fprint(out, renderTable([]column{
				{"#", alignRight},
				{"Wanted", alignLeft},
				{"Candidate", alignLeft},
				{"Confidence", alignRight},
				{"Accept", alignLeft},
			}, rows, nil))
			fmt.Fprintf(out, "%d accepted of %d; edit %s and run `romset review apply %s`\n", accepted, len(doc.Items), path, args[0])
			return nil
		},
	}
}

func newReviewApplyCommand(ctx *commandContext) *cobra.Command {
	var opts workflow.RunOptions

	cmd := &cobra.Command{
		Use:   "apply <system>",
		Short: "Materialize the accepted pairings of a system",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			runner, err := ctx.runner()
			if err != nil {
				return err
			}
			report, err := runner.ApplyReview(cmd.Context(), args[0], opts)
			if ctx.JSONMode() {
				if jsonErr := writeJSON(cmd, report); jsonErr != nil {
					return jsonErr
				}
				return err
			}
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(report.Outcomes) == 0 {
				fmt.Fprintf(out, "No accepted pairings for %s\n", args[0])
				return nil
			}
			printOutcomes(out, report.Outcomes)
			fmt.Fprintf(out, "%d written, %d already present, %d failed; %d left in review\n",
				report.Materialized, report.Existing, report.Failed, report.Review)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&opts.DryRun, "dry-run", "n", false, "Show what would be written")
	cmd.Flags().BoolVar(&opts.Overwrite, "overwrite", false, "Replace destination files that already exist")
	return cmd
}
