package main

import (
	"bufio"
	"fmt"
	"path/filepath"
	"strings"

	"mediatagger/internal/journal"
	"mediatagger/pkg/types"

	"github.com/spf13/cobra"
)

func newExtractCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "extract [DIR]",
		Short: "Copy the tagged files under DIR into DIR<suffix>",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv(opts.cfg)
			if err != nil {
				return err
			}
			defer e.Close()

			dir, err := opts.targetDir(args)
			if err != nil {
				return err
			}

			report, err := e.extractor.Extract(dir)
			if err != nil {
				return err
			}
			failed := report.Failed()
			e.record(&journal.Entry{
				OperationType: types.ExtractOperation,
				Path:          report.ScopeDir,
				Destination:   report.Destination,
				FileCount:     report.Copied(),
				FailedCount:   len(failed),
				Success:       len(failed) == 0,
			})

			out := cmd.OutOrStdout()
			for _, res := range failed {
				fmt.Fprintf(out, "%s %s: %v\n", errorText("failed"), res.SourcePath, res.Error)
			}
			fmt.Fprintln(out, successText(fmt.Sprintf("Extracted %d files to %s", report.Copied(), report.Destination)))
			if len(failed) > 0 {
				return fmt.Errorf("%d files could not be copied", len(failed))
			}
			return nil
		},
	}
}

func newRemoveExtractedCmd(opts *options) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "remove-extracted [DIR]",
		Short: "Delete the DIR<suffix> directory made by extract",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv(opts.cfg)
			if err != nil {
				return err
			}
			defer e.Close()

			dir, err := opts.targetDir(args)
			if err != nil {
				return err
			}
			dest, err := e.extractor.Destination(dir)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if !yes {
				fmt.Fprintf(out, "Remove %s and everything in it? [y/N] ", dest)
				if !confirmed(cmd) {
					fmt.Fprintln(out, infoText("Cancelled"))
					return nil
				}
			}

			removed, err := e.extractor.RemoveExtracted(dir)
			if err != nil {
				return err
			}
			if !removed {
				fmt.Fprintln(out, infoText("Nothing to remove"))
				return nil
			}
			e.record(&journal.Entry{
				OperationType: types.RemoveExtractedOperation,
				Path:          filepath.Clean(dir),
				Destination:   dest,
				Success:       true,
			})
			fmt.Fprintln(out, successText("Removed "+dest))
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "do not ask for confirmation")
	return cmd
}

func confirmed(cmd *cobra.Command) bool {
	line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	if err != nil && line == "" {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes"
}
