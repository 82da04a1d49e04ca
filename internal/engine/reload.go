package engine

import (
	"curator/internal/config"
	"curator/internal/logging"
	"curator/internal/routing"
)

// Reload applies a validated configuration to the running engine. Routes,
// tag rules, and the watched folder set take effect immediately; retry and
// worker tuning require a restart.
func (e *Engine) Reload(cfg *config.Config) {
	e.mover.UpdateTable(routing.NewTable(cfg))

	e.mu.Lock()
	defer e.mu.Unlock()

	previous := e.cfg
	e.cfg = cfg
	if !e.started {
		return
	}

	wanted := make(map[string]config.WatchedFolder)
	for _, folder := range cfg.EnabledFolders() {
		wanted[folder.Path] = folder
	}

	for path, w := range e.watchers {
		folder, keep := wanted[path]
		if keep && folder == w.Folder() {
			delete(wanted, path)
			continue
		}
		w.Stop()
		delete(e.watchers, path)
		e.logger.Info("stopped watching folder", logging.String(logging.FieldFolder, path))
	}
	for _, folder := range wanted {
		e.startWatcherLocked(folder)
		e.logger.Info("started watching folder", logging.String(logging.FieldFolder, folder.Path))
	}

	if previous.Retry != cfg.Retry || previous.Workers != cfg.Workers {
		e.logger.Warn("retry and worker tuning changes take effect on restart")
	}
	e.logger.Info("configuration reloaded",
		logging.Int("watched_folders", len(e.watchers)),
		logging.Int("routes", len(cfg.Routes)),
	)
}
