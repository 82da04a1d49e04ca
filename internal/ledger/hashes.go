package ledger

import (
	"context"
	"fmt"
	"time"
)

// AddHashPath records that path currently holds content with the given hash,
// creating or refreshing the hash entry as needed.
func (s *Store) AddHashPath(ctx context.Context, hash, path string, sizeBytes int64) error {
	now := time.Now().UTC().Format(time.RFC3339Nano)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin hash tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(
		ctx,
		`INSERT INTO hash_entries (hash, size_bytes, last_seen) VALUES (?, ?, ?)
            ON CONFLICT(hash) DO UPDATE SET last_seen = excluded.last_seen`,
		hash, sizeBytes, now,
	); err != nil {
		return fmt.Errorf("upsert hash entry: %w", err)
	}

	if _, err := tx.ExecContext(
		ctx,
		`INSERT INTO hash_paths (hash, path) VALUES (?, ?)
            ON CONFLICT(hash, path) DO NOTHING`,
		hash, path,
	); err != nil {
		return fmt.Errorf("insert hash path: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit hash path: %w", err)
	}
	return nil
}

// PathsForHash returns every path currently associated with the hash.
func (s *Store) PathsForHash(ctx context.Context, hash string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT path FROM hash_paths WHERE hash = ? ORDER BY path", hash)
	if err != nil {
		return nil, fmt.Errorf("query hash paths: %w", err)
	}
	defer rows.Close()

	var paths []string
	for rows.Next() {
		var path string
		if err := rows.Scan(&path); err != nil {
			return nil, fmt.Errorf("scan hash path: %w", err)
		}
		paths = append(paths, path)
	}
	return paths, rows.Err()
}

// RemoveHashPath drops one path from a hash entry.
func (s *Store) RemoveHashPath(ctx context.Context, hash, path string) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM hash_paths WHERE hash = ? AND path = ?", hash, path); err != nil {
		return fmt.Errorf("remove hash path: %w", err)
	}
	return nil
}

// ReplaceHashPath atomically swaps a hash's known path, keeping the ledger in
// step when a file is relocated.
func (s *Store) ReplaceHashPath(ctx context.Context, hash, oldPath, newPath string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin replace tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, "DELETE FROM hash_paths WHERE hash = ? AND path = ?", hash, oldPath); err != nil {
		return fmt.Errorf("drop old hash path: %w", err)
	}
	if _, err := tx.ExecContext(
		ctx,
		`INSERT INTO hash_paths (hash, path) VALUES (?, ?)
            ON CONFLICT(hash, path) DO NOTHING`,
		hash, newPath,
	); err != nil {
		return fmt.Errorf("insert new hash path: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit replace: %w", err)
	}
	return nil
}

// AllHashPaths returns every hash/path association for cleanup scans.
func (s *Store) AllHashPaths(ctx context.Context) ([]HashPath, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT hash, path FROM hash_paths ORDER BY hash, path")
	if err != nil {
		return nil, fmt.Errorf("query all hash paths: %w", err)
	}
	defer rows.Close()

	var entries []HashPath
	for rows.Next() {
		var entry HashPath
		if err := rows.Scan(&entry.Hash, &entry.Path); err != nil {
			return nil, fmt.Errorf("scan hash path: %w", err)
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// PruneEmptyHashEntries deletes hash entries that no longer have any paths
// and returns the number removed.
func (s *Store) PruneEmptyHashEntries(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(
		ctx,
		`DELETE FROM hash_entries WHERE hash NOT IN (SELECT DISTINCT hash FROM hash_paths)`,
	)
	if err != nil {
		return 0, fmt.Errorf("prune hash entries: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return affected, nil
}

// DuplicateGroups returns hashes that currently have more than one known
// path, newest activity first.
func (s *Store) DuplicateGroups(ctx context.Context) ([]DuplicateGroup, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT e.hash, e.size_bytes, p.path
            FROM hash_entries e
            JOIN hash_paths p ON p.hash = e.hash
            WHERE e.hash IN (
                SELECT hash FROM hash_paths GROUP BY hash HAVING COUNT(1) > 1
            )
            ORDER BY e.last_seen DESC, e.hash, p.path`,
	)
	if err != nil {
		return nil, fmt.Errorf("query duplicate groups: %w", err)
	}
	defer rows.Close()

	var groups []DuplicateGroup
	index := make(map[string]int)
	for rows.Next() {
		var hash, path string
		var size int64
		if err := rows.Scan(&hash, &size, &path); err != nil {
			return nil, fmt.Errorf("scan duplicate group: %w", err)
		}
		i, ok := index[hash]
		if !ok {
			i = len(groups)
			index[hash] = i
			groups = append(groups, DuplicateGroup{Hash: hash, SizeBytes: size})
		}
		groups[i].Paths = append(groups[i].Paths, path)
	}
	return groups, rows.Err()
}
