package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"curator/internal/config"
	"curator/internal/engine"
	"curator/internal/ledger"
)

func newUndoCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "undo <move-id>",
		Short: "Restore a moved file to its original location",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			moveID, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid move id %q", args[0])
			}

			return ctx.withEngine(func(_ *config.Config, eng *engine.Engine, _ *ledger.Store) error {
				undone, err := eng.Undo(cmd.Context(), moveID)
				if err != nil {
					return err
				}
				fmt.Printf("Restored %s to %s.\n", undone.Filename, undone.DestinationPath)
				return nil
			})
		},
	}
}
