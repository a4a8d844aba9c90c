package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"dropsync/internal/batch"
	"dropsync/internal/config"
)

func newAlignCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "align <sensor-log>",
		Short: "Match event index timestamps against a single sensor log",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.logger("cli-align")
			if err != nil {
				return err
			}
			path, err := config.ExpandPath(args[0])
			if err != nil {
				return err
			}

			res, err := batch.Align(cmd.Context(), cfg, logger, path)
			if err != nil {
				return err
			}
			if ctx.jsonOutput() {
				return writeJSON(cmd, res)
			}

			s := res.Summary
			out := cmd.OutOrStdout()
			rows := [][]string{
				{"Events in window", fmt.Sprint(s.EventsTotal)},
				{"Matched", fmt.Sprint(s.Matched)},
				{"Unmatched", fmt.Sprint(s.Unmatched)},
				{"Assigned", fmt.Sprint(s.Assigned)},
				{"Unassigned", fmt.Sprint(s.Unassigned)},
				{"Drops", fmt.Sprint(s.Intervals)},
				{"Index rows dropped", fmt.Sprint(res.EventsDropped)},
			}
			fmt.Fprintln(out, renderTable(out, []string{"Run " + s.Label, "Count"}, rows, []columnAlignment{alignLeft, alignRight}))
			fmt.Fprintf(out, "Wrote %s\n", res.Output)
			return nil
		},
	}
}
