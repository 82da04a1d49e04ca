package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"curator/internal/config"
	"curator/internal/engine"
	"curator/internal/ledger"
)

func newCleanupCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "cleanup",
		Short: "Prune hash ledger entries for files that no longer exist",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withEngine(func(_ *config.Config, eng *engine.Engine, _ *ledger.Store) error {
				stats, err := eng.Cleanup(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Printf("Removed %d stale paths, deleted %d empty hash entries.\n",
					stats.PathsRemoved, stats.EntriesDeleted)
				return nil
			})
		},
	}
}
