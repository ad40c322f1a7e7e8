package main

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/mmcdole/checkmark/internal/adapter"
	"github.com/mmcdole/checkmark/internal/catalog"
	"github.com/mmcdole/checkmark/internal/library"
	"github.com/mmcdole/checkmark/internal/reconcile"
	"github.com/mmcdole/checkmark/internal/store"
	"golang.org/x/time/rate"
)

// commandContext lazily loads settings and the logger shared by all commands
type commandContext struct {
	configFlag  *string
	verboseFlag *bool

	settingsOnce sync.Once
	settings     *adapter.Settings
	settingsErr  error

	logger    *slog.Logger
	logCloser io.Closer
}

func newCommandContext(configFlag *string, verboseFlag *bool) *commandContext {
	return &commandContext{
		configFlag:  configFlag,
		verboseFlag: verboseFlag,
	}
}

func (c *commandContext) ensureSettings() (*adapter.Settings, error) {
	c.settingsOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		settings, err := adapter.LoadSettings(path)
		if err != nil {
			c.settingsErr = fmt.Errorf("failed to load config: %w", err)
			return
		}

		logCfg := settings.Current().Logging
		if c.verboseFlag != nil && *c.verboseFlag {
			logCfg = adapter.LoggingConfig{File: adapter.StderrLog, Level: "DEBUG"}
		}
		logger, closer, err := adapter.SetupLogger(&logCfg)
		if err != nil {
			// Fall back to null logger if file logging fails
			logger, closer = adapter.NullLogger(), io.NopCloser(nil)
		}
		slog.SetDefault(logger)
		settings.SetLogger(adapter.ComponentLogger(logger, "config"))

		c.settings = settings
		c.logger = logger
		c.logCloser = closer
	})
	return c.settings, c.settingsErr
}

func (c *commandContext) close() {
	if c.logCloser != nil {
		c.logCloser.Close()
	}
}

// app is the wired membership stack
type app struct {
	settings *adapter.Settings
	client   *catalog.Client
	store    *store.SnapshotStore
	cache    *library.MembershipCache
	marks    *reconcile.Marks
	engine   *reconcile.Engine
	logger   *slog.Logger
}

// buildApp wires the catalog client, snapshot store, membership cache and
// reconciliation engine from the current settings.
func (c *commandContext) buildApp() (*app, error) {
	settings, err := c.ensureSettings()
	if err != nil {
		return nil, err
	}
	cfg := settings.Current()
	logger := c.logger

	client := catalog.NewClient(cfg.Catalog.URL,
		adapter.ComponentLogger(logger, "catalog"),
		catalog.WithRateLimit(rate.Limit(cfg.Catalog.RequestsPerSecond), 5))

	snapshots := store.OpenOrMemory(cfg.Cache.Dir, cfg.Catalog.URL,
		adapter.ComponentLogger(logger, "store"))

	cache := library.NewMembershipCache(client, snapshots, settings, settings.Durations,
		adapter.ComponentLogger(logger, "library"))

	marks := reconcile.NewMarks()
	engine := reconcile.NewEngine(cache, marks, adapter.ComponentLogger(logger, "reconcile"))

	return &app{
		settings: settings,
		client:   client,
		store:    snapshots,
		cache:    cache,
		marks:    marks,
		engine:   engine,
		logger:   logger,
	}, nil
}

func (a *app) close() {
	a.cache.Dispose()
	if err := a.store.Close(); err != nil {
		a.logger.Warn("failed to close snapshot store", "error", err)
	}
}
