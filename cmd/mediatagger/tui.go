package main

import (
	"mediatagger/internal/tui"
	"mediatagger/internal/tui/components"

	"github.com/spf13/cobra"
)

func newTUICmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "tui [DIR]",
		Short: "Browse and tag in the terminal",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pane := components.NewViewerPane()
			it, err := openInteractive(opts.cfg, pane)
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

			model, err := tui.New(it.session, it.browser, pane)
			if err != nil {
				it.session.Close()
				return err
			}

			runErr := tui.Run(model, func(send func()) {
				if err := it.watchTags(send); err != nil {
					it.logger.WithError(err).Warn("Not watching the tag store")
				}
			})
			if err := it.session.Close(); err != nil && runErr == nil {
				runErr = err
			}
			return runErr
		},
	}
}
