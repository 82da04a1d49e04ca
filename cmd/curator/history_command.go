package main

import (
	"fmt"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"curator/internal/config"
	"curator/internal/ledger"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent moves, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withReadOnlyLedger(func(_ *config.Config, store *ledger.Store) error {
				moves, err := store.RecentMoves(cmd.Context(), limit)
				if err != nil {
					return err
				}
				if len(moves) == 0 {
					fmt.Println("No moves recorded.")
					return nil
				}

				rows := make([][]string, 0, len(moves))
				for _, rec := range moves {
					rows = append(rows, []string{
						strconv.FormatInt(rec.ID, 10),
						humanize.Time(rec.MovedAt),
						rec.Filename,
						rec.Category,
						humanize.Bytes(uint64(rec.SizeBytes)),
						rec.DestinationPath,
					})
				}
				fmt.Println(renderTable(
					[]string{"ID", "When", "File", "Category", "Size", "Destination"},
					rows,
					[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignRight, alignLeft},
				))
				return nil
			})
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum number of moves to show (0 for all)")
	return cmd
}
