package main

import (
	"errors"
	"fmt"
	"sync"

	"github.com/spf13/cobra"

	"stylist/internal/domain"
	"stylist/internal/ingest"
)

func newUploadCommand(ctx *commandContext) *cobra.Command {
	var quiet bool

	cmd := &cobra.Command{
		Use:   "upload <path|glob>...",
		Short: "Add clothing images to the wardrobe",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := ctx.stylistService(false)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			var (
				mu  sync.Mutex
				ids = map[int]string{}
			)
			unsubscribe := svc.SubscribeBatch(func(u ingest.Update) {
				switch u.Kind {
				case ingest.UpdateEntry:
					if !quiet {
						fmt.Fprintf(out, "%s: %s\n", u.Entry.Name, u.Entry.Status())
					}
				case ingest.UpdateItemAdded:
					mu.Lock()
					ids[u.Index] = u.Item.ID
					mu.Unlock()
				}
			})
			defer unsubscribe()

			summary, skipped, err := svc.IngestFiles(cmd.Context(), args)
			for _, p := range skipped {
				fmt.Fprintf(cmd.ErrOrStderr(), "skipped %s (not a supported image)\n", p)
			}
			if err != nil {
				return err
			}

			snap := svc.BatchSnapshot()
			rows := make([][]string, 0, len(snap.Entries))
			mu.Lock()
			for i, e := range snap.Entries {
				rows = append(rows, []string{e.Name, e.Status(), ids[i]})
			}
			mu.Unlock()
			fmt.Fprintln(out, renderTable([]string{"File", "Status", "Item ID"}, rows, nil))
			fmt.Fprintln(out, summary.Message())

			if summary.Outcome() == domain.BatchAllFailed {
				return errors.New("no items were added")
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "Only print the final results")
	return cmd
}
