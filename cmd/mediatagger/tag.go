package main

import (
	"fmt"
	"os"

	"mediatagger/internal/errors"
	"mediatagger/internal/journal"
	"mediatagger/internal/media"
	"mediatagger/internal/tags"
	"mediatagger/pkg/types"

	"github.com/gabriel-vasile/mimetype"
	"github.com/spf13/cobra"
)

// newTagCmd creates the tag command, or the untag command when best is false
func newTagCmd(opts *options, best bool) *cobra.Command {
	use, short := "tag PATH...", "Tag files as best"
	if !best {
		use, short = "untag PATH...", "Clear the best tag"
	}

	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv(opts.cfg)
			if err != nil {
				return err
			}
			defer e.Close()

			out := cmd.OutOrStdout()
			for _, arg := range args {
				path := tags.Normalize(arg)
				if best {
					if _, err := e.tags.SetBest(path); err != nil {
						return err
					}
					e.record(&journal.Entry{OperationType: types.TagOperation, Path: path, FileCount: 1, Success: true})
					fmt.Fprintln(out, successText("tagged  ")+path)
					continue
				}

				if _, err := e.tags.ClearBest(path); err != nil {
					if errors.IsNotTagged(err) {
						fmt.Fprintln(out, infoText("skipped ")+path+" (not tagged)")
						continue
					}
					return err
				}
				e.record(&journal.Entry{OperationType: types.UntagOperation, Path: path, FileCount: 1, Success: true})
				fmt.Fprintln(out, successText("cleared ")+path)
			}
			return nil
		},
	}
}

func newStatusCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "status [PATH...]",
		Short: "Show tagged files, or whether the given files are tagged",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv(opts.cfg)
			if err != nil {
				return err
			}
			defer e.Close()

			out := cmd.OutOrStdout()
			if len(args) == 0 {
				paths := e.tags.Paths()
				for _, p := range paths {
					rec, _ := e.tags.Get(p)
					fmt.Fprintf(out, "%s  %s\n", rec.DateSaved, p)
				}
				fmt.Fprintln(out, infoText(fmt.Sprintf("%d tagged", len(paths))))
				return nil
			}

			for _, arg := range args {
				path := tags.Normalize(arg)
				if rec, ok := e.tags.Get(path); ok {
					fmt.Fprintf(out, "%s %s  %s\n", markText("[x]"), path, rec.DateSaved)
				} else {
					fmt.Fprintf(out, "[ ] %s\n", path)
				}
			}
			return nil
		},
	}
}

func newClassifyCmd(opts *options) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "classify PATH...",
		Short: "Show how files are classified and whether they are tagged",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv(opts.cfg)
			if err != nil {
				return err
			}
			defer e.Close()

			out := cmd.OutOrStdout()
			for _, arg := range args {
				info, err := describeFile(e.tags, arg)
				if err != nil {
					return err
				}
				if asJSON {
					fmt.Fprintln(out, info.ToJSON())
				} else {
					fmt.Fprintln(out, info.String())
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print one JSON object per file")
	return cmd
}

func describeFile(store *tags.Store, arg string) (*types.FileInfo, error) {
	path := tags.Normalize(arg)
	stat, err := os.Stat(path)
	if err != nil {
		return nil, errors.NewFileError("cannot classify file", path, errors.FileNotFound, err)
	}

	info := &types.FileInfo{
		Path: path,
		Kind: media.Classify(path).String(),
		Size: stat.Size(),
	}
	if mime, err := mimetype.DetectFile(path); err == nil {
		info.ContentType = mime.String()
	}
	if rec, ok := store.Get(path); ok {
		info.Tagged = true
		info.DateSaved = rec.DateSaved
	}
	return info, nil
}
