package main

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"stylist/internal/domain"
	"stylist/internal/wardrobe"
)

func newWardrobeCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "wardrobe",
		Short: "List wardrobe items",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := ctx.stylistService(false)
			if err != nil {
				return err
			}
			items, err := svc.RefreshWardrobe(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(items) == 0 {
				fmt.Fprintln(out, "Your wardrobe is empty. Add images with `stylist upload`.")
				return nil
			}
			fmt.Fprintln(out, renderTable([]string{"Group", "ID", "Image", "Color", "Category", "Style"}, wardrobeRows(items), nil))
			fmt.Fprintf(out, "%s items\n", humanize.Comma(int64(len(items))))
			return nil
		},
	}
	cmd.AddCommand(newWardrobeItemCommand(ctx))
	return cmd
}

func newWardrobeItemCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "item <id>",
		Short: "Show one wardrobe item with all of its attributes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := ctx.stylistService(false)
			if err != nil {
				return err
			}
			item, err := svc.Item(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			rows := [][]string{{"id", item.ID}, {"image", item.ImagePath}}
			for _, key := range sortedKeys(item.Attributes) {
				rows = append(rows, []string{key, item.Attr(key)})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"Attribute", "Value"}, rows, nil))
			return nil
		},
	}
}

func wardrobeRows(items []domain.ClothingItem) [][]string {
	groups := wardrobe.Group(items)
	rows := make([][]string, 0, len(items))
	add := func(name string, list []domain.ClothingItem) {
		for _, it := range list {
			rows = append(rows, []string{name, it.ID, it.ImageFilename(), it.Color(), it.Category(), it.Style()})
		}
	}
	add("upper", groups.Upper)
	add("lower", groups.Lower)
	add("other", groups.Other)
	return rows
}
