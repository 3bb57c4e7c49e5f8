//go:build nogui

package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newGUICmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "gui [DIR]",
		Short: "Browse and tag in a desktop window (not in this build)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return fmt.Errorf("this build has no desktop interface; use 'mediatagger tui'")
		},
	}
}
