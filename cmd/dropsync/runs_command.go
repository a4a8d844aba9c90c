package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"dropsync/internal/catalog"
)

func newRunsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "runs",
		Short: "List runs recorded in the result catalog",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			path := cfg.CatalogPath()
			if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
				return fmt.Errorf("no catalog at %s (enable output.catalog and run a batch first)", path)
			}
			store, err := catalog.Open(path)
			if err != nil {
				return err
			}
			defer store.Close()

			records, err := store.Runs(cmd.Context())
			if err != nil {
				return err
			}
			if ctx.jsonOutput() {
				return writeJSON(cmd, records)
			}

			out := cmd.OutOrStdout()
			if len(records) == 0 {
				fmt.Fprintln(out, "Catalog is empty")
				return nil
			}
			headers := []string{"Run", "Status", "Drops", "Matched", "Assigned", "Batch", "Processed"}
			aligns := []columnAlignment{alignLeft, alignLeft, alignRight, alignRight, alignRight, alignLeft, alignLeft}
			rows := make([][]string, 0, len(records))
			for _, rec := range records {
				rows = append(rows, []string{
					rec.Label,
					rec.Status,
					strconv.Itoa(rec.Intervals),
					strconv.Itoa(rec.Matched),
					strconv.Itoa(rec.Assigned),
					rec.BatchID,
					rec.ProcessedAt.Local().Format("2006-01-02 15:04:05"),
				})
			}
			fmt.Fprintln(out, renderTable(out, headers, rows, aligns))
			return nil
		},
	}
}
