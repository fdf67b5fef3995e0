package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	settings "github.com/goliatone/go-syncsettings"
	"github.com/goliatone/go-syncsettings/internal/config"
	"github.com/goliatone/go-syncsettings/pkg/kv"
	"github.com/goliatone/go-syncsettings/pkg/kv/badgerkv"
	"github.com/goliatone/go-syncsettings/pkg/kv/filekv"
)

// env is what every command works against.
type env struct {
	cfg    config.Config
	logger *slog.Logger
	store  kv.Shared
	close  func() error
}

func loadEnv(stderr io.Writer) (*env, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if storeKind != "" {
		cfg.Store.Kind = storeKind
	}
	if storePath != "" {
		cfg.Store.Path = storePath
	}
	if catalogArg != "" {
		cfg.Catalog = catalogArg
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger := cfg.Logger(stderr)
	store, closeFn, err := openStore(cfg, logger)
	if err != nil {
		return nil, err
	}
	return &env{cfg: cfg, logger: logger, store: store, close: closeFn}, nil
}

func openStore(cfg config.Config, logger *slog.Logger) (kv.Shared, func() error, error) {
	switch cfg.Store.Kind {
	case config.StoreBadger:
		db, err := badgerkv.Open(badgerkv.Config{
			Path:       cfg.Store.Path,
			SyncWrites: cfg.Store.SyncWrites,
			Logger:     logger,
		})
		if err != nil {
			return nil, nil, err
		}
		return db.Window(), db.Close, nil
	case config.StoreMemory:
		return kv.NewHub().Window(), func() error { return nil }, nil
	default:
		store, err := filekv.Open(filekv.Config{Dir: cfg.Store.Path, Logger: logger})
		if err != nil {
			return nil, nil, err
		}
		return store.Window(), store.Close, nil
	}
}

// window builds a mounted window over the env's store, with the catalog
// loaded when one is configured.
func (e *env) window() (*settings.Window, error) {
	engine, err := settings.ParseEngine(e.cfg.Rules.Engine)
	if err != nil {
		return nil, err
	}
	localOnly := make([]settings.Setting, 0, len(e.cfg.LocalOnly))
	for _, name := range e.cfg.LocalOnly {
		if !settings.Setting(name).Valid() {
			return nil, fmt.Errorf("%w: %s", settings.ErrUnknownSetting, name)
		}
		localOnly = append(localOnly, settings.Setting(name))
	}

	w, err := settings.NewWindow(e.store,
		settings.WithWindowID(e.cfg.Window.ID),
		settings.WithKind(settings.WindowKind(e.cfg.Window.Kind)),
		settings.WithTransparentSurface(e.cfg.Window.Transparent),
		settings.WithLogger(e.logger),
		settings.WithRuleEngine(engine),
		settings.WithListenerOptions(settings.WithLocalOnly(localOnly...)),
	)
	if err != nil {
		return nil, err
	}
	if e.cfg.Catalog != "" {
		raw, err := os.ReadFile(e.cfg.Catalog)
		if err != nil {
			return nil, fmt.Errorf("read catalog: %w", err)
		}
		catalog, err := settings.ParseCatalogJSON(e.cfg.Catalog, raw)
		if err != nil {
			return nil, err
		}
		w.LoadCatalog(catalog)
	}
	w.Mount()
	return w, nil
}
