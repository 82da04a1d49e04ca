package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofrs/flock"

	"curator/internal/config"
	"curator/internal/engine"
	"curator/internal/ledger"
	"curator/internal/logging"
	"curator/internal/notifications"
)

func main() {
	configPath := flag.String("config", "", "path to the configuration file")
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, resolvedPath, _, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		log.Fatalf("prepare directories: %v", err)
	}

	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}

	lock := flock.New(cfg.LockPath())
	locked, err := lock.TryLock()
	if err != nil {
		logger.Error("acquire daemon lock", logging.Error(err))
		os.Exit(1)
	}
	if !locked {
		logger.Error("another curatord instance is already running",
			logging.String("lock", cfg.LockPath()))
		os.Exit(1)
	}
	defer lock.Unlock() //nolint:errcheck

	store, err := ledger.Open(cfg)
	if err != nil {
		logger.Error("open ledger", logging.Error(err))
		os.Exit(1)
	}
	defer store.Close() //nolint:errcheck

	notifier := notifications.NewService(cfg)
	eng := engine.New(cfg, store, notifier, logger)
	if err := eng.Start(ctx); err != nil {
		logger.Error("start engine", logging.Error(err))
		os.Exit(1)
	}
	defer eng.Stop()

	logger.Info("curatord running",
		logging.String("config", resolvedPath),
		logging.String("ledger", store.Path()),
	)

	reload := make(chan os.Signal, 1)
	signal.Notify(reload, syscall.SIGHUP)
	defer signal.Stop(reload)

	for {
		select {
		case <-ctx.Done():
			logger.Info("curatord shutting down")
			return
		case <-reload:
			next, _, _, err := config.Load(resolvedPath)
			if err != nil {
				logger.Error("config reload failed, keeping current configuration",
					logging.Error(err))
				continue
			}
			eng.Reload(next)
		}
	}
}
