package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/go-chi/httplog/v3"

	"github.com/marinaops/staffdesk/config"
	"github.com/marinaops/staffdesk/maintenance"
	"github.com/marinaops/staffdesk/metrics"
	"github.com/marinaops/staffdesk/roster"
	"github.com/marinaops/staffdesk/schedule"
	"github.com/marinaops/staffdesk/store/jsonfile"
	"github.com/marinaops/staffdesk/store/memory"
	"github.com/marinaops/staffdesk/store/sqlite"
	"github.com/marinaops/staffdesk/timeoff"
)

// recordStore is what every driver provides.
type recordStore interface {
	timeoff.TxStore
	schedule.Store
	maintenance.Store
}

// app is the wired dependency graph shared by all commands.
type app struct {
	cfg      *config.Config
	logger   *slog.Logger
	store    recordStore
	metrics  *metrics.Manager
	requests *timeoff.RequestService
	roster   *roster.Syncer // nil without a roster source

	close func() error
}

func newLogger(w io.Writer, level slog.Level) *slog.Logger {
	logFormat := httplog.SchemaECS.Concise(false)
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level:       level,
		ReplaceAttr: logFormat.ReplaceAttr,
	})).With(slog.String("app", "marina-staffdesk"))
}

func openApp(cfgPath string, logOut io.Writer) (*app, error) {
	if err := config.LoadDotEnv(".env"); err != nil {
		return nil, err
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, err
	}
	policy, err := cfg.Policy.Policy()
	if err != nil {
		return nil, err
	}

	logger := newLogger(logOut, cfg.SlogLevel())

	store, closeStore, err := openStore(cfg.Store)
	if err != nil {
		return nil, err
	}
	logger.Info("store opened", slog.String("driver", cfg.Store.Driver), slog.String("path", cfg.Store.Path))

	m := metrics.NewManager(metrics.WithRuntimeCollectors())

	requests := timeoff.NewRequestService(store, policy, logger)
	requests.RecordDenied = cfg.RecordDenied
	requests.Metrics = m

	a := &app{
		cfg:      cfg,
		logger:   logger,
		store:    store,
		metrics:  m,
		requests: requests,
		close:    closeStore,
	}
	if cfg.Roster.Source != "" {
		a.roster = roster.NewSyncer(cfg.Roster.Source, cfg.Roster.Timeout, store, logger)
		a.roster.Metrics = m
	}
	return a, nil
}

func openStore(cfg config.StoreConfig) (recordStore, func() error, error) {
	noop := func() error { return nil }
	switch cfg.Driver {
	case "memory":
		return memory.New(), noop, nil
	case "jsonfile":
		s, err := jsonfile.Open(cfg.Path)
		if err != nil {
			return nil, nil, err
		}
		return s, noop, nil
	case "sqlite":
		if cfg.Path != ":memory:" {
			if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o755); err != nil {
				return nil, nil, fmt.Errorf("create data dir: %w", err)
			}
		}
		s, err := sqlite.New(cfg.Path)
		if err != nil {
			return nil, nil, err
		}
		return s, s.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown store driver %q: %w", cfg.Driver, config.ErrInvalidConfig)
	}
}

// syncRosterIfConfigured runs the startup sync; failures are only logged.
func (a *app) syncRosterIfConfigured(ctx context.Context) {
	if a.roster == nil || !a.cfg.Roster.SyncOnStartup {
		return
	}
	a.roster.SyncOnStartup(ctx)
}

func (a *app) Close() error {
	if a.close == nil {
		return nil
	}
	return a.close()
}
