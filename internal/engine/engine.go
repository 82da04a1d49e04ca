package engine

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"curator/internal/config"
	"curator/internal/creds"
	"curator/internal/faults"
	"curator/internal/hashstore"
	"curator/internal/ledger"
	"curator/internal/logging"
	"curator/internal/mover"
	"curator/internal/notifications"
	"curator/internal/retry"
	"curator/internal/routing"
	"curator/internal/watcher"
)

// Engine runs the file organization pipeline.
type Engine struct {
	store      *ledger.Store
	notifier   notifications.Service
	logger     *slog.Logger
	baseLogger *slog.Logger
	creds      creds.Store
	hashes     *hashstore.Store
	mover      *mover.Mover
	queue      *retry.Queue
	cron       *cron.Cron

	mu       sync.Mutex
	cfg      *config.Config
	watchers map[string]*watcher.FolderWatcher
	settled  chan string
	runCtx   context.Context
	cancel   context.CancelFunc
	wg       sync.WaitGroup
	started  bool
}

// New assembles an engine over an open ledger. Start must be called to begin
// watching; the batch, undo, and reload operations work without Start.
func New(cfg *config.Config, store *ledger.Store, notifier notifications.Service, logger *slog.Logger) *Engine {
	e := &Engine{
		store:      store,
		notifier:   notifier,
		logger:     logging.NewComponentLogger(logger, "engine"),
		baseLogger: logger,
		creds:      creds.NewFileStore(cfg.Paths.CredentialsFile),
		cfg:        cfg,
		watchers:   make(map[string]*watcher.FolderWatcher),
	}
	e.hashes = hashstore.New(store, logger)
	e.mover = mover.New(routing.NewTable(cfg), e.hashes, store, notifier, logger)
	e.queue = retry.NewQueue(cfg, logger)

	e.queue.RegisterHandler(retry.KindFileMove, e.retryFileMove)
	e.queue.RegisterHandler(retry.KindFolderReconnect, e.retryFolderReconnect)
	e.queue.OnPermanentFailure(e.reportPermanentFailure)
	return e
}

// Start launches watchers, the worker pool, the retry queue, and the cleanup
// schedule. It returns once everything is running.
func (e *Engine) Start(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.started {
		return fmt.Errorf("engine already started")
	}

	e.runCtx, e.cancel = context.WithCancel(ctx)

	workers := e.cfg.Workers.Count
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	e.settled = make(chan string, workers*4)

	for i := 0; i < workers; i++ {
		e.wg.Add(1)
		go e.worker(e.runCtx)
	}

	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		e.queue.Run(e.runCtx)
	}()

	for _, folder := range e.cfg.EnabledFolders() {
		e.startWatcherLocked(folder)
	}

	e.cron = cron.New()
	interval := e.cfg.Cleanup.IntervalMinutes
	if interval > 0 {
		if _, err := e.cron.AddFunc(fmt.Sprintf("@every %dm", interval), e.runCleanup); err != nil {
			return fmt.Errorf("schedule hash cleanup: %w", err)
		}
	}
	e.cron.Start()

	e.started = true
	e.logger.Info("engine started",
		logging.Int("workers", workers),
		logging.Int("watched_folders", len(e.watchers)),
	)
	return nil
}

// Stop halts watching and waits for in-flight work to drain.
func (e *Engine) Stop() {
	e.mu.Lock()
	if !e.started {
		e.mu.Unlock()
		return
	}
	e.started = false
	cancel := e.cancel
	watchers := e.watchers
	e.watchers = make(map[string]*watcher.FolderWatcher)
	cronRunner := e.cron
	e.mu.Unlock()

	for _, w := range watchers {
		w.Stop()
	}
	if cronRunner != nil {
		<-cronRunner.Stop().Done()
	}
	cancel()
	e.wg.Wait()
	e.logger.Info("engine stopped")
}

// startWatcherLocked resolves credentials for network folders and launches a
// watcher. Callers hold e.mu.
func (e *Engine) startWatcherLocked(folder config.WatchedFolder) {
	if folder.Kind == config.FolderUNC && folder.CredentialRef != "" {
		if _, err := e.creds.Resolve(folder.CredentialRef); err != nil {
			e.logger.Warn("credential lookup failed, folder may be unreachable",
				logging.String(logging.FieldFolder, folder.Path),
				logging.String("credential_ref", folder.CredentialRef),
				logging.Error(err),
			)
		}
	}

	w := watcher.New(folder, watcher.TuningFromConfig(e.cfg), e.onSettled, e.onUnreachable, e.baseLogger)
	if err := w.Start(e.runCtx); err != nil {
		e.logger.Error("failed to start folder watcher",
			logging.String(logging.FieldFolder, folder.Path),
			logging.Error(err),
		)
		return
	}
	e.watchers[folder.Path] = w
}

// onSettled hands a settled file to the worker pool. Blocks when all workers
// are busy; the watcher's settler tolerates that.
func (e *Engine) onSettled(path string) {
	select {
	case e.settled <- path:
	case <-e.runCtx.Done():
	}
}

func (e *Engine) onUnreachable(folder config.WatchedFolder, cause error) {
	ctx, cancelNotify := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelNotify()
	if err := e.notifier.NotifyFolderDegraded(ctx, folder.Path, cause); err != nil {
		e.logger.Warn("degraded-folder notification failed", logging.Error(err))
	}
	e.queue.Enqueue(retry.KindFolderReconnect, folder.Path, cause)
}

func (e *Engine) worker(ctx context.Context) {
	defer e.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case path := <-e.settled:
			e.processPath(ctx, path)
		}
	}
}

// processPath runs one move; retryable failures are deferred, everything else
// is logged and the file stays where it is.
func (e *Engine) processPath(ctx context.Context, path string) {
	if _, err := e.mover.Process(ctx, path); err != nil {
		if faults.Retryable(err) {
			e.queue.Enqueue(retry.KindFileMove, path, err)
			return
		}
		e.logger.Error("file left in place after unrecoverable failure",
			logging.String("path", path),
			logging.Error(err),
		)
	}
}

// retryFileMove re-attempts a deferred move. Non-retryable outcomes complete
// the task so the queue does not spin on a hopeless file.
func (e *Engine) retryFileMove(ctx context.Context, task *retry.Task) error {
	_, err := e.mover.Process(ctx, task.Payload)
	if err == nil {
		return nil
	}
	if faults.Retryable(err) {
		return err
	}
	e.logger.Error("deferred move abandoned after unrecoverable failure",
		logging.String("path", task.Payload),
		logging.Error(err),
	)
	return nil
}

// retryFolderReconnect probes a degraded folder and resumes its watcher.
func (e *Engine) retryFolderReconnect(ctx context.Context, task *retry.Task) error {
	e.mu.Lock()
	w := e.watchers[task.Payload]
	e.mu.Unlock()
	if w == nil {
		// Folder was removed from config while degraded.
		return nil
	}

	if err := w.Resume(); err != nil {
		return faults.Wrap(faults.ErrUnreachable, "engine", "reconnect", task.Payload, err)
	}
	if err := e.notifier.NotifyFolderRecovered(ctx, task.Payload); err != nil {
		e.logger.Warn("recovery notification failed", logging.Error(err))
	}
	return nil
}

func (e *Engine) reportPermanentFailure(task *retry.Task) {
	ctx, cancelNotify := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelNotify()
	if err := e.notifier.NotifyPermanentFailure(ctx, task.Payload, task.Attempt, task.LastError); err != nil {
		e.logger.Warn("permanent-failure notification failed", logging.Error(err))
	}
}

func (e *Engine) runCleanup() {
	ctx, cancelCleanup := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancelCleanup()
	if _, err := e.hashes.Cleanup(ctx); err != nil {
		e.logger.Warn("hash ledger cleanup failed", logging.Error(err))
	}
}

// Cleanup runs one hash ledger maintenance pass immediately.
func (e *Engine) Cleanup(ctx context.Context) (hashstore.CleanupStats, error) {
	return e.hashes.Cleanup(ctx)
}

// Pending reports the number of deferred operations awaiting retry.
func (e *Engine) Pending() int {
	return e.queue.Pending()
}

// History returns recent move records, newest first. A non-positive limit
// returns the full retained history.
func (e *Engine) History(ctx context.Context, limit int) ([]ledger.MoveRecord, error) {
	return e.store.RecentMoves(ctx, limit)
}

// Duplicates returns the known groups of identical files.
func (e *Engine) Duplicates(ctx context.Context) ([]ledger.DuplicateGroup, error) {
	return e.store.DuplicateGroups(ctx)
}
