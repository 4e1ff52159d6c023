package main

import (
	"github.com/spf13/cobra"

	"github.com/dshills/gocalc-mcp/internal/tui"
)

func newTUICmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Open the interactive calculator",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd, opts)
			if err != nil {
				return err
			}
			defer a.Close()

			return tui.Run(cmd.Context(), a.service)
		},
	}
}
