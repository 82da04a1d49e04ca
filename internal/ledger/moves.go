package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// ErrMoveNotFound indicates the requested move record does not exist.
var ErrMoveNotFound = errors.New("move record not found")

// RecordMove appends a move record and evicts the oldest entries beyond the
// configured history capacity in the same transaction.
func (s *Store) RecordMove(ctx context.Context, rec MoveRecord) (*MoveRecord, error) {
	if rec.MovedAt.IsZero() {
		rec.MovedAt = time.Now().UTC()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin move tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(
		ctx,
		`INSERT INTO move_records (
            moved_at, source_path, destination_path, category, filename, content_hash, size_bytes
        ) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rec.MovedAt.UTC().Format(time.RFC3339Nano),
		rec.SourcePath,
		rec.DestinationPath,
		rec.Category,
		rec.Filename,
		rec.ContentHash,
		rec.SizeBytes,
	)
	if err != nil {
		return nil, fmt.Errorf("insert move record: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}

	if s.historyCapacity > 0 {
		if _, err := tx.ExecContext(
			ctx,
			`DELETE FROM move_records WHERE id NOT IN (
                SELECT id FROM move_records ORDER BY id DESC LIMIT ?
            )`,
			s.historyCapacity,
		); err != nil {
			return nil, fmt.Errorf("evict move history: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit move record: %w", err)
	}

	rec.ID = id
	return &rec, nil
}

// RecentMoves returns move records newest first. A non-positive limit returns
// the full retained history.
func (s *Store) RecentMoves(ctx context.Context, limit int) ([]MoveRecord, error) {
	query := `SELECT id, moved_at, source_path, destination_path, category, filename, content_hash, size_bytes
        FROM move_records ORDER BY id DESC`
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query recent moves: %w", err)
	}
	defer rows.Close()

	var records []MoveRecord
	for rows.Next() {
		rec, err := scanMoveRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// GetMove fetches a single move record by ID.
func (s *Store) GetMove(ctx context.Context, id int64) (*MoveRecord, error) {
	row := s.db.QueryRowContext(
		ctx,
		`SELECT id, moved_at, source_path, destination_path, category, filename, content_hash, size_bytes
            FROM move_records WHERE id = ?`,
		id,
	)
	rec, err := scanMoveRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrMoveNotFound
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// DeleteMove removes a move record, typically after a successful undo.
func (s *Store) DeleteMove(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM move_records WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete move record: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return ErrMoveNotFound
	}
	return nil
}

// MoveCount returns the number of retained move records.
func (s *Store) MoveCount(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(1) FROM move_records").Scan(&count); err != nil {
		return 0, fmt.Errorf("count move records: %w", err)
	}
	return count, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMoveRecord(row rowScanner) (MoveRecord, error) {
	var rec MoveRecord
	var movedAt string
	if err := row.Scan(
		&rec.ID,
		&movedAt,
		&rec.SourcePath,
		&rec.DestinationPath,
		&rec.Category,
		&rec.Filename,
		&rec.ContentHash,
		&rec.SizeBytes,
	); err != nil {
		return MoveRecord{}, err
	}
	parsed, err := time.Parse(time.RFC3339Nano, movedAt)
	if err != nil {
		return MoveRecord{}, fmt.Errorf("parse moved_at %q: %w", movedAt, err)
	}
	rec.MovedAt = parsed
	return rec, nil
}
