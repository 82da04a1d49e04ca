package engine

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"curator/internal/faults"
	"curator/internal/logging"
	"curator/internal/mover"
	"curator/internal/watcher"
)

// BatchResult summarizes one on-demand organization pass.
type BatchResult struct {
	BatchID   string
	Folder    string
	DryRun    bool
	Planned   []mover.Decision
	Processed int
	Errors    int
	Duration  time.Duration
}

// OrganizeNow synchronously organizes every eligible file, bypassing
// settlement. An empty folderPath batches across all enabled watched folders;
// a specific path organizes that folder alone. With dryRun set, it only
// reports what each move would do.
func (e *Engine) OrganizeNow(ctx context.Context, folderPath string, dryRun bool) (*BatchResult, error) {
	result := &BatchResult{
		BatchID: uuid.NewString(),
		DryRun:  dryRun,
	}
	started := time.Now()
	logger := e.logger.With(logging.String(logging.FieldBatchID, result.BatchID))

	allFolders := strings.TrimSpace(folderPath) == ""
	var folders []string
	if allFolders {
		e.mu.Lock()
		for _, folder := range e.cfg.EnabledFolders() {
			folders = append(folders, folder.Path)
		}
		e.mu.Unlock()
		if len(folders) == 0 {
			return nil, faults.Wrap(faults.ErrConfiguration, "engine", "batch",
				"no folder given and no watched folders enabled", nil)
		}
		result.Folder = "all watched folders"
	} else {
		resolved, err := filepath.Abs(folderPath)
		if err != nil {
			return nil, faults.Wrap(faults.ErrConfiguration, "engine", "resolve folder", folderPath, err)
		}
		folders = []string{resolved}
		result.Folder = resolved
	}

	for _, folder := range folders {
		err := e.organizeFolder(ctx, result, folder, dryRun, logger)
		if err == nil {
			continue
		}
		if ctx.Err() != nil {
			return nil, err
		}
		// A degraded folder must not abort the rest of an all-folders batch.
		if allFolders {
			result.Errors++
			logger.Warn("skipping unreachable folder in batch",
				logging.String(logging.FieldFolder, folder), logging.Error(err))
			continue
		}
		return nil, err
	}
	result.Duration = time.Since(started)

	logger.Info("batch organization complete",
		logging.String(logging.FieldFolder, result.Folder),
		logging.Bool("dry_run", dryRun),
		logging.Int("processed", result.Processed),
		logging.Int("errors", result.Errors),
		logging.Duration("duration", result.Duration),
	)
	if !dryRun {
		if err := e.notifier.NotifyBatchCompleted(ctx, result.Processed, result.Errors, result.Duration); err != nil {
			logger.Warn("batch notification failed", logging.Error(err))
		}
	}
	return result, nil
}

// organizeFolder runs one folder's files through the mover, accumulating
// counts into the shared result.
func (e *Engine) organizeFolder(ctx context.Context, result *BatchResult, folderPath string, dryRun bool, logger *slog.Logger) error {
	if info, err := os.Stat(folderPath); err != nil {
		return faults.Wrap(faults.ErrRead, "engine", "stat folder", folderPath, err)
	} else if !info.IsDir() {
		return faults.Wrap(faults.ErrConfiguration, "engine", "stat folder", folderPath+" is not a directory", nil)
	}

	files, err := e.collectFiles(folderPath)
	if err != nil {
		return err
	}

	for _, path := range files {
		if err := ctx.Err(); err != nil {
			return err
		}
		if dryRun {
			decision, err := e.mover.Plan(path)
			if err != nil {
				result.Errors++
				logger.Warn("dry-run planning failed",
					logging.String("path", path), logging.Error(err))
				continue
			}
			result.Planned = append(result.Planned, decision)
			continue
		}
		if _, err := e.mover.Process(ctx, path); err != nil {
			result.Errors++
			logger.Warn("batch move failed",
				logging.String("path", path), logging.Error(err))
			continue
		}
		result.Processed++
	}
	return nil
}

// collectFiles lists the organizable files under folderPath. Recursion
// follows the folder's configured setting; folders outside the config are
// scanned one level deep.
func (e *Engine) collectFiles(folderPath string) ([]string, error) {
	recursive := false
	e.mu.Lock()
	for _, folder := range e.cfg.WatchedFolders {
		if folder.Path == folderPath {
			recursive = folder.Recursive
			break
		}
	}
	e.mu.Unlock()

	var files []string
	err := filepath.WalkDir(folderPath, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return faults.Wrap(faults.ErrRead, "engine", "scan folder", path, err)
		}
		if entry.IsDir() {
			if path == folderPath {
				return nil
			}
			if !recursive || strings.HasPrefix(entry.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if !watcher.SkipFile(path) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}
