package main

import (
	"strings"
	"sync"

	"curator/internal/config"
	"curator/internal/engine"
	"curator/internal/ledger"
	"curator/internal/logging"
	"curator/internal/notifications"
)

// commandContext lazily loads configuration shared across subcommands.
type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configPath string
	configErr  error
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, resolvedPath, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
		c.configPath = resolvedPath
	})
	return c.config, c.configErr
}

// withReadOnlyLedger opens the ledger for queries that never write. The open
// fails cleanly when the daemon has not created the database yet.
func (c *commandContext) withReadOnlyLedger(fn func(*config.Config, *ledger.Store) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	store, err := ledger.OpenReadOnly(cfg)
	if err != nil {
		return err
	}
	defer store.Close() //nolint:errcheck
	return fn(cfg, store)
}

// withEngine builds a one-shot engine for commands that modify files or the
// ledger. The engine is not started; only its synchronous operations run.
func (c *commandContext) withEngine(fn func(*config.Config, *engine.Engine, *ledger.Store) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return err
	}
	store, err := ledger.Open(cfg)
	if err != nil {
		return err
	}
	defer store.Close() //nolint:errcheck

	logger, err := logging.New(logging.Options{Level: "warn", Format: "console"})
	if err != nil {
		return err
	}
	eng := engine.New(cfg, store, notifications.NewService(cfg), logger)
	return fn(cfg, eng, store)
}
