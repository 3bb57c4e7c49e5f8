package main

import (
	"fmt"
	"os"

	"mediatagger/internal/browse"
	"mediatagger/internal/config"
	"mediatagger/internal/settings"
	"mediatagger/internal/tags"

	"github.com/spf13/cobra"
)

func newListCmd(opts *options) *cobra.Command {
	var showAll bool

	cmd := &cobra.Command{
		Use:   "list [DIR]",
		Short: "List a directory the way the browser shows it",
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

			b, err := browse.New(opts.cfg.Browser.NameFilters,
				browse.WithBasenameMarks(opts.cfg.Browser.CheckMarks == config.CheckMarksBasename),
				browse.WithShowAll(showAll || opts.cfg.Browser.ShowAll),
			)
			if err != nil {
				return err
			}
			b.UpdateMarks(tags.Rebuild(e.tags.Records()))
			if err := b.SetRoot(dir); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, infoText(b.Root()))
			for _, entry := range b.Entries() {
				mark := "[ ]"
				if entry.Checked {
					mark = markText("[x]")
				}
				name := entry.Name
				if entry.IsDir {
					name += "/"
				}
				fmt.Fprintf(out, "%s %-40s %10s  %s\n", mark, name, entry.HumanSize(), entry.Age())
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&showAll, "all", "a", false, "list every file, not just media")
	return cmd
}

// targetDir returns the directory argument, else the last directory the
// browser showed, else the working directory.
func (o *options) targetDir(args []string) (string, error) {
	if len(args) > 0 {
		return tags.Normalize(args[0]), nil
	}
	if rec, err := settings.NewStore(o.cfg.Store.Settings, nil).Load(); err == nil {
		if info, err := os.Stat(rec.LastDir); err == nil && info.IsDir() {
			return tags.Normalize(rec.LastDir), nil
		}
	}
	return os.Getwd()
}
