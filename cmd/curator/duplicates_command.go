package main

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"curator/internal/config"
	"curator/internal/ledger"
)

func newDuplicatesCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "duplicates",
		Short: "List known groups of identical files",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withReadOnlyLedger(func(_ *config.Config, store *ledger.Store) error {
				groups, err := store.DuplicateGroups(cmd.Context())
				if err != nil {
					return err
				}
				if len(groups) == 0 {
					fmt.Println("No duplicates known.")
					return nil
				}

				rows := make([][]string, 0, len(groups))
				for _, group := range groups {
					rows = append(rows, []string{
						shortHash(group.Hash),
						humanize.Bytes(uint64(group.SizeBytes)),
						strings.Join(group.Paths, "\n"),
					})
				}
				fmt.Println(renderTable(
					[]string{"Hash", "Size", "Paths"},
					rows,
					[]columnAlignment{alignLeft, alignRight, alignLeft},
				))
				return nil
			})
		},
	}
}

func shortHash(hash string) string {
	if len(hash) > 12 {
		return hash[:12]
	}
	return hash
}
