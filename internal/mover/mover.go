package mover

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"
	"syscall"

	"golang.org/x/sys/unix"

	"curator/internal/faults"
	"curator/internal/fileutil"
	"curator/internal/hashstore"
	"curator/internal/ledger"
	"curator/internal/logging"
	"curator/internal/notifications"
	"curator/internal/routing"
)

// Ledger is the persistence surface the mover needs beyond hashing.
type Ledger interface {
	RecordMove(ctx context.Context, rec ledger.MoveRecord) (*ledger.MoveRecord, error)
	ReplaceHashPath(ctx context.Context, hash, oldPath, newPath string) error
}

// Decision describes what Process would do with a file.
type Decision struct {
	SourcePath      string
	DestinationPath string
	Category        string
	SizeBytes       int64
}

// Mover relocates settled files into their category folders.
type Mover struct {
	hashes   *hashstore.Store
	ledger   Ledger
	notifier notifications.Service
	logger   *slog.Logger

	table atomic.Pointer[routing.Table]
}

// New constructs a mover over the given collaborators.
func New(table *routing.Table, hashes *hashstore.Store, led Ledger, notifier notifications.Service, logger *slog.Logger) *Mover {
	m := &Mover{
		hashes:   hashes,
		ledger:   led,
		notifier: notifier,
		logger:   logging.NewComponentLogger(logger, "mover"),
	}
	m.table.Store(table)
	return m
}

// UpdateTable swaps the routing table; in-flight moves keep the table they
// started with.
func (m *Mover) UpdateTable(table *routing.Table) {
	m.table.Store(table)
}

// Plan computes the destination a file would be moved to without touching the
// filesystem beyond read-only checks. Used for dry runs.
func (m *Mover) Plan(path string) (Decision, error) {
	info, err := os.Stat(path)
	if err != nil {
		return Decision{}, faults.Wrap(faults.ErrRead, "mover", "stat", path, err)
	}
	route := m.table.Load().Classify(path)
	dest, err := fileutil.UniquePath(route.Dir, filepath.Base(path))
	if err != nil {
		return Decision{}, faults.Wrap(faults.ErrRead, "mover", "resolve destination", path, err)
	}
	return Decision{
		SourcePath:      path,
		DestinationPath: dest,
		Category:        route.Category,
		SizeBytes:       info.Size(),
	}, nil
}

// Process hashes, classifies, and relocates one settled file, recording the
// move on success. Errors carry fault markers: retryable faults should be
// handed to the retry queue, everything else logged and dropped.
func (m *Mover) Process(ctx context.Context, path string) (*ledger.MoveRecord, error) {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			// Vanished between settle and processing; the watcher re-fires
			// if it reappears.
			return nil, faults.Wrap(faults.ErrRead, "mover", "stat", path, err)
		}
		return nil, classify("stat", path, err)
	}
	size := info.Size()

	hash, err := m.hashes.Hash(path)
	if err != nil {
		return nil, err
	}

	check, err := m.hashes.RecordAndCheckDuplicate(ctx, hash, path, size)
	if err != nil {
		return nil, classify("record hash", path, err)
	}
	if check.IsDuplicate {
		m.logger.Info("duplicate content detected",
			logging.String("path", path),
			logging.String("hash", hash),
			logging.Any("existing_paths", check.ExistingPaths),
		)
		if err := m.notifier.NotifyDuplicateDetected(ctx, filepath.Base(path), check.ExistingPaths); err != nil {
			m.logger.Warn("duplicate notification failed", logging.Error(err))
		}
	}

	table := m.table.Load()
	route := table.Classify(path)
	if err := table.EnsureDir(route); err != nil {
		return nil, classify("create destination", route.Dir, err)
	}

	dest, err := fileutil.UniquePath(route.Dir, filepath.Base(path))
	if err != nil {
		return nil, classify("resolve destination", path, err)
	}

	if err := m.preflightSpace(path, route.Dir, size); err != nil {
		return nil, err
	}

	if err := fileutil.MoveFile(path, dest); err != nil {
		return nil, classify("move", path, err)
	}

	if err := m.ledger.ReplaceHashPath(ctx, hash, path, dest); err != nil {
		m.logger.Warn("failed to update hash ledger path after move",
			logging.String("hash", hash),
			logging.Error(err),
		)
	}

	rec, err := m.ledger.RecordMove(ctx, ledger.MoveRecord{
		SourcePath:      path,
		DestinationPath: dest,
		Category:        route.Category,
		Filename:        filepath.Base(dest),
		ContentHash:     hash,
		SizeBytes:       size,
	})
	if err != nil {
		// The file is already in place; losing the history entry is
		// recoverable, reversing the move is not.
		m.logger.Error("move succeeded but history write failed",
			logging.String("destination", dest),
			logging.Error(err),
		)
		return nil, nil
	}

	m.logger.Info("file organized",
		logging.String("source", path),
		logging.String("destination", dest),
		logging.String("category", route.Category),
		logging.Int64("size_bytes", size),
	)
	if err := m.notifier.NotifyFileMoved(ctx, rec.Filename, rec.Category, rec.DestinationPath); err != nil {
		m.logger.Warn("move notification failed", logging.Error(err))
	}
	return rec, nil
}

// preflightSpace rejects cross-device moves that cannot fit before any bytes
// are written. Same-device renames need no free space.
func (m *Mover) preflightSpace(src, destDir string, size int64) error {
	srcDev, err := deviceOf(src)
	if err != nil {
		return nil
	}
	destDev, err := deviceOf(destDir)
	if err != nil || srcDev == destDev {
		return nil
	}
	free, err := fileutil.FreeSpace(destDir)
	if err != nil {
		return nil
	}
	if free < uint64(size) {
		return faults.Wrap(faults.ErrDiskFull, "mover", "preflight", destDir, nil)
	}
	return nil
}

func deviceOf(path string) (uint64, error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, err
	}
	stat, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return 0, errors.New("no stat_t available")
	}
	return uint64(stat.Dev), nil
}

// classify maps raw filesystem errors onto the fault taxonomy. Errors that
// already carry a marker pass through unchanged.
func classify(operation, path string, err error) error {
	switch {
	case hasMarker(err):
		return err
	case errors.Is(err, fs.ErrPermission):
		return faults.Wrap(faults.ErrPermission, "mover", operation, path, err)
	case errors.Is(err, unix.ENOSPC):
		return faults.Wrap(faults.ErrDiskFull, "mover", operation, path, err)
	case errors.Is(err, unix.EBUSY), errors.Is(err, unix.ETXTBSY):
		return faults.Wrap(faults.ErrLocked, "mover", operation, path, err)
	case errors.Is(err, unix.EIO), errors.Is(err, unix.ENETUNREACH), errors.Is(err, unix.EHOSTUNREACH), errors.Is(err, unix.ESTALE):
		return faults.Wrap(faults.ErrUnreachable, "mover", operation, path, err)
	case errors.Is(err, fs.ErrNotExist):
		return faults.Wrap(faults.ErrRead, "mover", operation, path, err)
	default:
		// Untagged errors are treated as permanent; retrying an unknown
		// failure forever is worse than leaving the file in place.
		return fmt.Errorf("mover: %s: %s: %w", operation, path, err)
	}
}

func hasMarker(err error) bool {
	for _, marker := range []error{
		faults.ErrLocked, faults.ErrRead, faults.ErrUnreachable,
		faults.ErrPermission, faults.ErrDiskFull, faults.ErrConflict,
		faults.ErrConfiguration, faults.ErrNotFound,
	} {
		if errors.Is(err, marker) {
			return true
		}
	}
	return false
}
