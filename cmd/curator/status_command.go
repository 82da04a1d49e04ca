package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	"github.com/gofrs/flock"
	"github.com/spf13/cobra"

	"curator/internal/config"
	"curator/internal/ledger"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show daemon and ledger status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			rows := [][]string{
				{"Daemon", daemonState(cfg)},
				{"Config", ctx.configPath},
				{"Ledger", cfg.DatabasePath()},
				{"Organize root", cfg.Paths.OrganizeRoot},
				{"Watched folders", strconv.Itoa(len(cfg.EnabledFolders()))},
			}

			store, err := ledger.OpenReadOnly(cfg)
			switch {
			case err == nil:
				defer store.Close() //nolint:errcheck
				if count, err := store.MoveCount(cmd.Context()); err == nil {
					rows = append(rows, []string{"Moves retained", strconv.Itoa(count)})
				}
				if groups, err := store.DuplicateGroups(cmd.Context()); err == nil {
					rows = append(rows, []string{"Duplicate groups", strconv.Itoa(len(groups))})
				}
			case errors.Is(err, fs.ErrNotExist):
				rows = append(rows, []string{"Moves retained", "no ledger yet"})
			default:
				return err
			}

			fmt.Println(renderTable(
				[]string{"Field", "Value"},
				rows,
				[]columnAlignment{alignLeft, alignLeft},
			))
			return nil
		},
	}
}

// daemonState probes the daemon lock file. A lock that cannot be acquired
// means a curatord instance holds it.
func daemonState(cfg *config.Config) string {
	lockPath := cfg.LockPath()
	if _, err := os.Stat(lockPath); errors.Is(err, fs.ErrNotExist) {
		return "not running"
	}

	lock := flock.New(lockPath)
	locked, err := lock.TryLock()
	if err != nil {
		return "unknown"
	}
	if !locked {
		return "running"
	}
	_ = lock.Unlock()
	return "not running"
}
