package main

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"curator/internal/config"
	"curator/internal/engine"
	"curator/internal/ledger"
)

func newOrganizeCommand(ctx *commandContext) *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "organize [folder]",
		Short: "Organize a folder right now, or all watched folders when omitted",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			folder := ""
			if len(args) == 1 {
				folder = args[0]
			}
			return ctx.withEngine(func(cfg *config.Config, eng *engine.Engine, _ *ledger.Store) error {
				result, err := eng.OrganizeNow(cmd.Context(), folder, dryRun)
				if err != nil {
					return err
				}

				if dryRun {
					if len(result.Planned) == 0 {
						fmt.Println("Nothing to organize.")
						return nil
					}
					rows := make([][]string, 0, len(result.Planned))
					for _, decision := range result.Planned {
						rows = append(rows, []string{
							filepath.Base(decision.SourcePath),
							decision.Category,
							humanize.Bytes(uint64(decision.SizeBytes)),
							decision.DestinationPath,
						})
					}
					fmt.Println(renderTable(
						[]string{"File", "Category", "Size", "Destination"},
						rows,
						[]columnAlignment{alignLeft, alignLeft, alignRight, alignLeft},
					))
					fmt.Printf("%d files would be organized (%d errors).\n", len(result.Planned), result.Errors)
					return nil
				}

				if result.Processed > 0 {
					moves, err := eng.History(cmd.Context(), result.Processed)
					if err != nil {
						return err
					}
					rows := make([][]string, 0, len(moves))
					for _, rec := range moves {
						rows = append(rows, []string{
							rec.Filename,
							rec.Category,
							humanize.Bytes(uint64(rec.SizeBytes)),
							rec.DestinationPath,
						})
					}
					fmt.Println(renderTable(
						[]string{"File", "Category", "Size", "Destination"},
						rows,
						[]columnAlignment{alignLeft, alignLeft, alignRight, alignLeft},
					))
				}
				fmt.Printf("Organized %d files (%d errors) in %s.\n",
					result.Processed, result.Errors, result.Duration.Round(time.Millisecond))
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Report planned moves without touching any files")
	return cmd
}
