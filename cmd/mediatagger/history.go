package main

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

func newHistoryCmd(opts *options) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent tag and extract operations from the journal",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !opts.cfg.Store.JournalEnabled {
				return fmt.Errorf("the journal is disabled; set store.journal_enabled in the config")
			}
			e, err := openEnv(opts.cfg)
			if err != nil {
				return err
			}
			defer e.Close()

			entries, err := e.journal.Recent(limit)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, entry := range entries {
				line := fmt.Sprintf("%-14s %-17s %s", humanize.Time(entry.Timestamp), entry.OperationType, entry.Path)
				if entry.Destination != "" {
					line += " -> " + entry.Destination
				}
				if entry.FileCount > 1 || entry.FailedCount > 0 {
					line += fmt.Sprintf(" (%d copied, %d failed)", entry.FileCount, entry.FailedCount)
				}
				if !entry.Success {
					line = errorText(line)
				}
				fmt.Fprintln(out, line)
			}
			if len(entries) == 0 {
				fmt.Fprintln(out, infoText("No operations recorded"))
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "number of entries to show, 0 for all")
	return cmd
}
