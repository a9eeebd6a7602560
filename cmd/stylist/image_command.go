package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"stylist/internal/domain"
)

func newImageCommand(ctx *commandContext) *cobra.Command {
	var outputPath string
	var urlOnly bool

	cmd := &cobra.Command{
		Use:   "image <filename>",
		Short: "Download a stored wardrobe image",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := ctx.stylistService(false)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if urlOnly {
				fmt.Fprintln(out, svc.ImageURL(args[0]))
				return nil
			}
			data, err := svc.Image(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			target := strings.TrimSpace(outputPath)
			if target == "" {
				if !isTerminal(out) {
					_, err := out.Write(data)
					return err
				}
				target = domain.ImageFilename(args[0])
			}
			if dir := filepath.Dir(target); dir != "." {
				if err := os.MkdirAll(dir, 0o755); err != nil {
					return fmt.Errorf("create output directory: %w", err)
				}
			}
			if err := os.WriteFile(target, data, 0o644); err != nil {
				return fmt.Errorf("write image: %w", err)
			}
			fmt.Fprintf(out, "Saved %s (%s)\n", target, humanize.Bytes(uint64(len(data))))
			return nil
		},
	}

	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "Write the image to this file")
	cmd.Flags().BoolVar(&urlOnly, "url", false, "Print the image URL instead of downloading")
	return cmd
}
