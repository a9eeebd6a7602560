package main

import (
	"github.com/spf13/cobra"

	"stylist/internal/tui"
)

func newTUICommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Open the interactive wardrobe and outfit screens",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTUI(ctx)
		},
	}
}

func runTUI(ctx *commandContext) error {
	svc, err := ctx.stylistService(true)
	if err != nil {
		return err
	}
	return tui.Run(svc)
}
