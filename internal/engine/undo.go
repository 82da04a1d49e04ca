package engine

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"curator/internal/faults"
	"curator/internal/fileutil"
	"curator/internal/ledger"
	"curator/internal/logging"
)

// Undo reverses a recorded move, restoring the file to its original location.
// The file must still be at the recorded destination with unchanged content;
// a modified or missing file is never silently restored.
func (e *Engine) Undo(ctx context.Context, moveID int64) (*ledger.MoveRecord, error) {
	rec, err := e.store.GetMove(ctx, moveID)
	if err != nil {
		if errors.Is(err, ledger.ErrMoveNotFound) {
			return nil, faults.Wrap(faults.ErrNotFound, "engine", "undo", "no such move record", err)
		}
		return nil, err
	}

	if _, err := os.Stat(rec.DestinationPath); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, faults.Wrap(faults.ErrDestinationMissing, "engine", "undo",
				rec.DestinationPath, err)
		}
		return nil, faults.Wrap(faults.ErrRead, "engine", "undo", rec.DestinationPath, err)
	}

	hash, err := e.hashes.Hash(rec.DestinationPath)
	if err != nil {
		return nil, err
	}
	if hash != rec.ContentHash {
		return nil, faults.Wrap(faults.ErrConflict, "engine", "undo",
			"content changed since the move, refusing to restore "+rec.DestinationPath, nil)
	}

	sourceDir := filepath.Dir(rec.SourcePath)
	if err := os.MkdirAll(sourceDir, 0o755); err != nil {
		return nil, faults.Wrap(faults.ErrPermission, "engine", "undo", sourceDir, err)
	}
	restored, err := fileutil.UniquePath(sourceDir, filepath.Base(rec.SourcePath))
	if err != nil {
		return nil, faults.Wrap(faults.ErrRead, "engine", "undo", rec.SourcePath, err)
	}

	if err := fileutil.MoveFile(rec.DestinationPath, restored); err != nil {
		return nil, faults.Wrap(faults.ErrRead, "engine", "undo", rec.DestinationPath, err)
	}

	if err := e.store.ReplaceHashPath(ctx, rec.ContentHash, rec.DestinationPath, restored); err != nil {
		e.logger.Warn("failed to update hash ledger path after undo",
			logging.String("hash", rec.ContentHash),
			logging.Error(err),
		)
	}
	if err := e.store.DeleteMove(ctx, moveID); err != nil {
		e.logger.Warn("failed to delete undone move record",
			logging.Int64("move_id", moveID),
			logging.Error(err),
		)
	}

	e.logger.Info("move undone",
		logging.Int64("move_id", moveID),
		logging.String("restored", restored),
		logging.String("category", rec.Category),
	)

	undone := *rec
	undone.SourcePath = rec.DestinationPath
	undone.DestinationPath = restored
	return &undone, nil
}
