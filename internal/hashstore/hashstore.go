package hashstore

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io"
	"io/fs"
	"log/slog"
	"os"

	"curator/internal/faults"
	"curator/internal/ledger"
	"curator/internal/logging"
)

// chunkSize bounds per-file read buffers; large files are never loaded whole.
const chunkSize = 256 * 1024

// Ledger is the persistence surface the hash store needs. *ledger.Store
// satisfies it; tests may substitute an in-memory fake.
type Ledger interface {
	AddHashPath(ctx context.Context, hash, path string, sizeBytes int64) error
	PathsForHash(ctx context.Context, hash string) ([]string, error)
	RemoveHashPath(ctx context.Context, hash, path string) error
	AllHashPaths(ctx context.Context) ([]ledger.HashPath, error)
	PruneEmptyHashEntries(ctx context.Context) (int64, error)
}

// DuplicateCheck reports the outcome of recording a hash sighting.
type DuplicateCheck struct {
	IsDuplicate   bool
	ExistingPaths []string
}

// CleanupStats summarizes one cleanup pass.
type CleanupStats struct {
	PathsRemoved   int
	EntriesDeleted int64
}

// Store computes and persists content hashes for duplicate detection.
type Store struct {
	ledger Ledger
	logger *slog.Logger
}

// New constructs a hash store over the provided ledger.
func New(led Ledger, logger *slog.Logger) *Store {
	return &Store{
		ledger: led,
		logger: logging.NewComponentLogger(logger, "hashstore"),
	}
}

// Hash streams the file at path and returns its SHA-256 as lowercase hex.
// A file that disappears or fails mid-read yields a retryable read fault;
// the watcher will re-fire if the file reappears.
func (s *Store) Hash(path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrPermission) {
			return "", faults.Wrap(faults.ErrPermission, "hashstore", "open", path, err)
		}
		return "", faults.Wrap(faults.ErrRead, "hashstore", "open", path, err)
	}
	defer file.Close()

	hasher := sha256.New()
	buf := make([]byte, chunkSize)
	if _, err := io.CopyBuffer(hasher, file, buf); err != nil {
		return "", faults.Wrap(faults.ErrRead, "hashstore", "read", path, err)
	}

	return hex.EncodeToString(hasher.Sum(nil)), nil
}

// RecordAndCheckDuplicate looks up the hash, reports whether any previously
// known path still exists on disk, and records the new sighting regardless of
// duplicate status. What to do about duplicates is the caller's decision.
func (s *Store) RecordAndCheckDuplicate(ctx context.Context, hash, path string, sizeBytes int64) (DuplicateCheck, error) {
	known, err := s.ledger.PathsForHash(ctx, hash)
	if err != nil {
		return DuplicateCheck{}, err
	}

	var surviving []string
	for _, existing := range known {
		if existing == path {
			continue
		}
		if _, err := os.Stat(existing); err == nil {
			surviving = append(surviving, existing)
		}
	}

	if err := s.ledger.AddHashPath(ctx, hash, path, sizeBytes); err != nil {
		return DuplicateCheck{}, err
	}

	return DuplicateCheck{
		IsDuplicate:   len(surviving) > 0,
		ExistingPaths: surviving,
	}, nil
}

// Cleanup removes ledger paths whose files no longer exist and deletes hash
// entries left with an empty path set. It is idempotent; interrupting and
// rerunning it is safe.
func (s *Store) Cleanup(ctx context.Context) (CleanupStats, error) {
	var stats CleanupStats

	entries, err := s.ledger.AllHashPaths(ctx)
	if err != nil {
		return stats, err
	}

	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		if _, err := os.Stat(entry.Path); err == nil || !errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err := s.ledger.RemoveHashPath(ctx, entry.Hash, entry.Path); err != nil {
			return stats, err
		}
		stats.PathsRemoved++
	}

	deleted, err := s.ledger.PruneEmptyHashEntries(ctx)
	if err != nil {
		return stats, err
	}
	stats.EntriesDeleted = deleted

	if stats.PathsRemoved > 0 || stats.EntriesDeleted > 0 {
		s.logger.Info("hash ledger cleanup",
			logging.Int("paths_removed", stats.PathsRemoved),
			logging.Int64("entries_deleted", stats.EntriesDeleted),
		)
	}
	return stats, nil
}
