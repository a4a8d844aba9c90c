package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"dropsync/internal/batch"
	"dropsync/internal/config"
	"dropsync/internal/report"
)

func newDetectCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "detect <sensor-log>",
		Short: "Detect drops in a single sensor log",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.logger("cli-detect")
			if err != nil {
				return err
			}
			path, err := config.ExpandPath(args[0])
			if err != nil {
				return err
			}

			res, err := batch.Detect(cmd.Context(), cfg, logger, path)
			if err != nil {
				return err
			}
			if ctx.jsonOutput() {
				return writeJSON(cmd, struct {
					Run       string              `json:"run"`
					Samples   int                 `json:"samples"`
					Dropped   int                 `json:"samples_dropped"`
					Intervals []map[string]string `json:"intervals"`
					Output    string              `json:"output"`
				}{
					Run:       res.Summary.Label,
					Samples:   res.Summary.Samples,
					Dropped:   res.Summary.SamplesDropped,
					Intervals: tableRecords(report.Intervals(res.Intervals)),
					Output:    res.Output,
				})
			}

			out := cmd.OutOrStdout()
			t := report.Intervals(res.Intervals)
			aligns := make([]columnAlignment, len(t.Header))
			for i := 3; i < len(aligns); i++ {
				aligns[i] = alignRight
			}
			fmt.Fprintln(out, renderTable(out, t.Header, t.Rows, aligns))
			fmt.Fprintf(out, "Run %s: %d drops from %d samples (%d rows dropped)\n",
				res.Summary.Label, len(res.Intervals), res.Summary.Samples, res.Summary.SamplesDropped)
			fmt.Fprintf(out, "Wrote %s\n", res.Output)
			return nil
		},
	}
}

// tableRecords converts a table into header-keyed records for JSON output.
func tableRecords(t report.Table) []map[string]string {
	records := make([]map[string]string, 0, len(t.Rows))
	for _, row := range t.Rows {
		rec := make(map[string]string, len(t.Header))
		for i, name := range t.Header {
			if i < len(row) {
				rec[name] = row[i]
			}
		}
		records = append(records, rec)
	}
	return records
}
