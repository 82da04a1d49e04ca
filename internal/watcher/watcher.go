package watcher

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"

	"curator/internal/config"
	"curator/internal/logging"
)

// ignoredSuffixes are in-progress download artifacts that settle under a
// different name once complete.
var ignoredSuffixes = []string{".tmp", ".part", ".partial", ".crdownload", ".download"}

// Tuning holds the per-watcher timing knobs derived from config.
type Tuning struct {
	Debounce      time.Duration
	SettleChecks  int
	ProbeInterval time.Duration
}

// TuningFromConfig extracts watcher timing from application config.
func TuningFromConfig(cfg *config.Config) Tuning {
	return Tuning{
		Debounce:      time.Duration(cfg.Watcher.DebounceMs) * time.Millisecond,
		SettleChecks:  cfg.Watcher.SettleChecks,
		ProbeInterval: time.Duration(cfg.Watcher.ProbeIntervalSeconds) * time.Second,
	}
}

// SettledFunc receives a file that stopped changing and is ready to process.
// It may block; that is the watcher's backpressure.
type SettledFunc func(path string)

// UnreachableFunc is invoked once per transition when a folder stops
// responding, so the engine can schedule a reconnect.
type UnreachableFunc func(folder config.WatchedFolder, err error)

// FolderWatcher monitors one watched folder.
type FolderWatcher struct {
	folder        config.WatchedFolder
	tuning        Tuning
	onSettled     SettledFunc
	onUnreachable UnreachableFunc
	logger        *slog.Logger

	fsw     *fsnotify.Watcher
	settler *settler

	suspended atomic.Bool

	mu     sync.Mutex
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New constructs a watcher for one folder. Start must be called before any
// events are emitted.
func New(folder config.WatchedFolder, tuning Tuning, onSettled SettledFunc, onUnreachable UnreachableFunc, logger *slog.Logger) *FolderWatcher {
	w := &FolderWatcher{
		folder:        folder,
		tuning:        tuning,
		onSettled:     onSettled,
		onUnreachable: onUnreachable,
		logger: logging.NewComponentLogger(logger, "watcher").
			With(logging.String(logging.FieldFolder, folder.Path)),
	}
	w.settler = newSettler(tuning.Debounce, tuning.SettleChecks, w.emit)
	return w
}

// Folder returns the watched folder this watcher serves.
func (w *FolderWatcher) Folder() config.WatchedFolder {
	return w.folder
}

// Suspended reports whether the watcher is currently degraded.
func (w *FolderWatcher) Suspended() bool {
	return w.suspended.Load()
}

// Start begins monitoring. An unreachable or missing folder does not fail
// Start; the watcher degrades and waits for a successful reconnect.
func (w *FolderWatcher) Start(ctx context.Context) error {
	runCtx, cancel := context.WithCancel(ctx)
	w.mu.Lock()
	w.cancel = cancel
	w.mu.Unlock()

	if err := w.attach(); err != nil {
		w.degrade(err)
	}

	if w.folder.Kind == config.FolderUNC {
		w.wg.Add(1)
		go w.probeLoop(runCtx)
	}
	return nil
}

// Stop halts monitoring and cancels pending settlement timers. In-flight
// emissions finish; nothing new starts.
func (w *FolderWatcher) Stop() {
	w.mu.Lock()
	if w.cancel != nil {
		w.cancel()
		w.cancel = nil
	}
	w.mu.Unlock()

	w.settler.close()
	w.detach()
	w.wg.Wait()
}

// Resume re-probes the folder and restores monitoring. Used by the retry
// queue's reconnect handler; returns an error while the folder is still
// unreachable.
func (w *FolderWatcher) Resume() error {
	if _, err := os.Stat(w.folder.Path); err != nil {
		return fmt.Errorf("probe %s: %w", w.folder.Path, err)
	}
	if !w.suspended.Load() {
		return nil
	}

	if err := w.attach(); err != nil {
		return err
	}
	w.suspended.Store(false)
	w.logger.Info("folder watching resumed")

	// Pick up files that landed while the folder was unreachable.
	w.rescan()
	return nil
}

// attach creates the fsnotify watcher and registers directories.
func (w *FolderWatcher) attach() error {
	if _, err := os.Stat(w.folder.Path); err != nil {
		return fmt.Errorf("stat watch root: %w", err)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create fsnotify watcher: %w", err)
	}
	if err := fsw.Add(w.folder.Path); err != nil {
		_ = fsw.Close()
		return fmt.Errorf("watch %s: %w", w.folder.Path, err)
	}
	if w.folder.Recursive {
		if err := w.addSubdirs(fsw, w.folder.Path); err != nil {
			_ = fsw.Close()
			return err
		}
	}

	w.detach()
	w.mu.Lock()
	w.fsw = fsw
	w.mu.Unlock()

	w.wg.Add(1)
	go w.eventLoop(fsw)
	return nil
}

func (w *FolderWatcher) detach() {
	w.mu.Lock()
	fsw := w.fsw
	w.fsw = nil
	w.mu.Unlock()
	if fsw != nil {
		_ = fsw.Close()
	}
}

func (w *FolderWatcher) addSubdirs(fsw *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !entry.IsDir() || path == root {
			return nil
		}
		if strings.HasPrefix(entry.Name(), ".") {
			return filepath.SkipDir
		}
		if err := fsw.Add(path); err != nil {
			return fmt.Errorf("watch %s: %w", path, err)
		}
		return nil
	})
}

func (w *FolderWatcher) eventLoop(fsw *fsnotify.Watcher) {
	defer w.wg.Done()

	for {
		select {
		case event, ok := <-fsw.Events:
			if !ok {
				return
			}
			w.handleEvent(fsw, event)
		case err, ok := <-fsw.Errors:
			if !ok {
				return
			}
			w.logger.Warn("filesystem event error", logging.Error(err))
		}
	}
}

func (w *FolderWatcher) handleEvent(fsw *fsnotify.Watcher, event fsnotify.Event) {
	if w.suspended.Load() {
		return
	}
	if !event.Op.Has(fsnotify.Create) && !event.Op.Has(fsnotify.Write) && !event.Op.Has(fsnotify.Rename) {
		return
	}
	if SkipFile(event.Name) {
		return
	}

	if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
		if w.folder.Recursive && event.Op.Has(fsnotify.Create) {
			if err := fsw.Add(event.Name); err != nil {
				w.logger.Warn("failed to watch new subdirectory",
					logging.String("path", event.Name), logging.Error(err))
			}
		}
		return
	}

	w.settler.touch(event.Name)
}

func (w *FolderWatcher) emit(path string) {
	if w.suspended.Load() {
		return
	}
	w.onSettled(path)
}

// probeLoop periodically checks that a UNC root is still reachable; change
// notifications alone cannot be trusted over network shares.
func (w *FolderWatcher) probeLoop(ctx context.Context) {
	defer w.wg.Done()

	ticker := time.NewTicker(w.tuning.ProbeInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if w.suspended.Load() {
				continue
			}
			if _, err := os.Stat(w.folder.Path); err != nil {
				w.degrade(fmt.Errorf("reachability probe: %w", err))
			}
		}
	}
}

// degrade suspends emission and reports the transition exactly once.
func (w *FolderWatcher) degrade(err error) {
	if w.suspended.Swap(true) {
		return
	}
	w.logger.Warn("folder unreachable, watching suspended", logging.Error(err))
	w.detach()
	if w.onUnreachable != nil {
		w.onUnreachable(w.folder, err)
	}
}

// rescan feeds existing files through settlement after a reconnect.
func (w *FolderWatcher) rescan() {
	root := w.folder.Path
	_ = filepath.WalkDir(root, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if entry.IsDir() {
			if path != root && (!w.folder.Recursive || strings.HasPrefix(entry.Name(), ".")) {
				return filepath.SkipDir
			}
			return nil
		}
		if !SkipFile(path) {
			w.settler.touch(path)
		}
		return nil
	})
}

// SkipFile reports whether a path is a dotfile or an in-progress download
// artifact that should never be organized.
func SkipFile(path string) bool {
	base := filepath.Base(path)
	if strings.HasPrefix(base, ".") {
		return true
	}
	lower := strings.ToLower(base)
	for _, suffix := range ignoredSuffixes {
		if strings.HasSuffix(lower, suffix) {
			return true
		}
	}
	return false
}
