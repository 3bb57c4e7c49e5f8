//go:build !nogui

package main

import (
	"mediatagger/internal/gui"

	"github.com/spf13/cobra"
)

func newGUICmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "gui [DIR]",
		Short: "Browse and tag in a desktop window",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			display := gui.NewDisplay()
			it, err := openInteractive(opts.cfg, display)
			if err != nil {
				return err
			}
			defer it.Close()
			if len(args) > 0 {
				if err := it.session.Navigate(args[0]); err != nil {
					it.session.Close()
					return err
				}
			}

			app, err := gui.NewApp(nil, it.session, it.browser, display)
			if err != nil {
				it.session.Close()
				return err
			}
			if err := it.watchTags(app.TagsChanged); err != nil {
				it.logger.WithError(err).Warn("Not watching the tag store")
			}
			// The window's close handler saves and closes the session.
			app.Run()
			return nil
		},
	}
}
