package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"stylist/internal/domain"
	"stylist/internal/matching"
)

func newOutfitCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "outfit <description>",
		Short: "Pick the best outfit from the wardrobe for an occasion",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := ctx.stylistService(false)
			if err != nil {
				return err
			}
			errOut := cmd.ErrOrStderr()
			unsubscribe := svc.SubscribeMatch(func(u matching.Update) {
				if label := u.Phase.Label(); label != "" {
					fmt.Fprintln(errOut, label)
				}
			})
			defer unsubscribe()

			res, err := svc.FindOutfit(cmd.Context(), strings.Join(args, " "))
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), renderOutfit(res))
			return nil
		},
	}
}

func renderOutfit(res domain.MatchResult) string {
	sel := res.Selection
	rows := make([][]string, 0, len(domain.Roles))
	for _, role := range domain.Roles {
		it := sel.Item(role)
		if it == nil {
			continue
		}
		rows = append(rows, []string{role, it.ImageFilename(), it.Color(), it.Category(), it.Style()})
	}
	var b strings.Builder
	b.WriteString(renderTable([]string{"Role", "Image", "Color", "Category", "Style"}, rows, nil))
	b.WriteString("\n")
	fmt.Fprintf(&b, "Score: %.1f (%d combinations evaluated)\n", sel.Score, res.Combinations)
	if sel.Reason != "" {
		fmt.Fprintf(&b, "Why: %s\n", sel.Reason)
	}
	return b.String()
}
