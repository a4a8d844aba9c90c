package main

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"dropsync/internal/batch"
)

// errAllRunsFailed makes the process exit non-zero when no run succeeded.
var errAllRunsFailed = errors.New("every run failed")

func newRunCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "run [label...]",
		Short: "Process every sensor log, or only the given run labels",
		Long: "Segment each sensor log into drops, match image timestamps from the event index,\n" +
			"assign matched images to drops, and write per-run tables and drop folders.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.logger("cli-run")
			if err != nil {
				return err
			}

			summary, err := batch.Execute(cmd.Context(), cfg, batch.Options{Labels: args, Logger: logger})
			if err != nil {
				return err
			}
			if ctx.jsonOutput() {
				if err := writeJSON(cmd, summary); err != nil {
					return err
				}
			} else {
				printRunSummary(cmd, summary)
			}
			if summary.AllFailed() {
				return fmt.Errorf("%w (%d runs)", errAllRunsFailed, len(summary.Runs))
			}
			return nil
		},
	}
}

func printRunSummary(cmd *cobra.Command, summary batch.Summary) {
	out := cmd.OutOrStdout()
	headers := []string{"Run", "Status", "Samples", "Drops", "Events", "Matched", "Unmatched", "Assigned", "Unassigned", "Message"}
	aligns := []columnAlignment{alignLeft, alignLeft, alignRight, alignRight, alignRight, alignRight, alignRight, alignRight, alignRight, alignLeft}
	rows := make([][]string, 0, len(summary.Runs))
	for _, r := range summary.Runs {
		rows = append(rows, []string{
			r.Label,
			string(r.Status),
			strconv.Itoa(r.Samples),
			strconv.Itoa(r.Intervals),
			strconv.Itoa(r.EventsTotal),
			strconv.Itoa(r.Matched),
			strconv.Itoa(r.Unmatched),
			strconv.Itoa(r.Assigned),
			strconv.Itoa(r.Unassigned),
			r.Message,
		})
	}
	fmt.Fprintln(out, renderTable(out, headers, rows, aligns))
	fmt.Fprintf(out, "Batch %s: %d ok, %d skipped, %d failed (%d events in index, %d dropped)\n",
		summary.BatchID,
		summary.Count(batch.StatusOK),
		summary.Count(batch.StatusSkipped),
		summary.Count(batch.StatusFailed),
		summary.EventsTotal,
		summary.EventsDropped,
	)
}
