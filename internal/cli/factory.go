// Package cli wires configured adapters into a running configurator.
package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/reliant/configurator"
	"github.com/reliant/configurator/internal/config"
	"github.com/reliant/configurator/internal/logging"
	"github.com/reliant/configurator/internal/metrics"
	"github.com/reliant/configurator/pkg/adapters/file"
	"github.com/reliant/configurator/pkg/adapters/loam"
	"github.com/reliant/configurator/pkg/adapters/model"
	"github.com/reliant/configurator/pkg/adapters/pocketbase"
	"github.com/reliant/configurator/pkg/adapters/postgres"
	"github.com/reliant/configurator/pkg/adapters/redis"
	"github.com/reliant/configurator/pkg/domain"
	"github.com/reliant/configurator/pkg/ports"
)

// Catalog serves both pages and products.
type Catalog interface {
	ports.PageStore
	ports.ProductCatalog
}

// App is a configurator with the resources backing it.
type App struct {
	*configurator.Configurator

	Catalog Catalog
	Metrics *metrics.Metrics
	Logger  *slog.Logger

	closers []func() error
}

// Close releases connections opened by Build.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i]())
	}
	return errors.Join(errs...)
}

// OpenCatalog opens the page catalog named by cfg.Catalog.Source.
func OpenCatalog(cfg config.Config, logger *slog.Logger) (Catalog, *pocketbase.Client, error) {
	switch cfg.Catalog.Source {
	case config.SourceFile:
		c, err := file.Load(cfg.Catalog.Path)
		return c, nil, err
	case config.SourceLoam:
		c, err := loam.Open(cfg.Catalog.Path)
		return c, nil, err
	case config.SourcePocketBase:
		client := pocketbase.NewClient(cfg.PocketBase.URL,
			pocketbase.WithToken(cfg.PocketBase.Token),
			pocketbase.WithLogger(logger),
		)
		return pocketbase.NewCatalog(client), client, nil
	}
	return nil, nil, fmt.Errorf("unknown catalog source %q", cfg.Catalog.Source)
}

// Build opens every adapter cfg enables and assembles the configurator.
// Sessions and carts live in Redis when redis.addr is set, on disk when
// sessions.dir is set, else in memory. Quotations go to Postgres when
// postgres.dsn is set, else to PocketBase when it is the catalog source.
func Build(ctx context.Context, cfg config.Config) (*App, error) {
	logger := logging.FromConfig(cfg.Log.Level, cfg.Log.Format)
	app := &App{Logger: logger}

	catalog, pb, err := OpenCatalog(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog: %w", err)
	}
	app.Catalog = catalog

	opts := []configurator.Option{
		configurator.WithCatalog(catalog),
		configurator.WithLogger(logger),
	}

	var hooks domain.LifecycleHooks
	if logging.ParseLevel(cfg.Log.Level) <= slog.LevelDebug {
		hooks = hooks.Merge(debugHooks(logger))
	}
	if cfg.Metrics.Enabled {
		app.Metrics = metrics.New()
		hooks = hooks.Merge(app.Metrics.Hooks())
	}
	opts = append(opts, configurator.WithLifecycleHooks(hooks))

	switch {
	case cfg.Redis.Addr != "":
		store := redis.New(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, redis.WithTTL(cfg.Redis.TTL))
		app.closers = append(app.closers, store.Close)
		opts = append(opts,
			configurator.WithFlowStore(store),
			configurator.WithCartStore(store),
			configurator.WithLocker(redis.NewLocker(store.Client(), redis.DefaultPrefix)),
		)
		logger.Info("using redis session store", "addr", cfg.Redis.Addr)
	case cfg.Sessions.Dir != "":
		store := file.NewStore(cfg.Sessions.Dir)
		opts = append(opts, configurator.WithFlowStore(store), configurator.WithCartStore(store))
		logger.Info("using file session store", "dir", cfg.Sessions.Dir)
	}

	switch {
	case cfg.Postgres.DSN != "":
		pool, err := postgres.Connect(ctx, cfg.Postgres.DSN)
		if err != nil {
			_ = app.Close()
			return nil, err
		}
		app.closers = append(app.closers, func() error { pool.Close(); return nil })
		if err := postgres.Migrate(ctx, pool, logger); err != nil {
			_ = app.Close()
			return nil, err
		}
		opts = append(opts, configurator.WithQuotationStore(postgres.New(pool)))
	case pb != nil:
		opts = append(opts, configurator.WithQuotationStore(pocketbase.NewQuotationStore(pb)))
	}

	if cfg.Model.URL != "" {
		opts = append(opts, configurator.WithPredictor(model.New(cfg.Model.URL, model.WithLogger(logger))))
	}

	c, err := configurator.New(opts...)
	if err != nil {
		_ = app.Close()
		return nil, err
	}
	app.Configurator = c
	return app, nil
}

func debugHooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnPageEnter: func(ctx context.Context, e *domain.PageEvent) {
			logger.DebugContext(ctx, "enter page", "session_id", e.SessionID, "page_id", e.PageID, "type", e.PageType, "depth", e.Depth)
		},
		OnPageLeave: func(ctx context.Context, e *domain.PageEvent) {
			logger.DebugContext(ctx, "leave page", "session_id", e.SessionID, "page_id", e.PageID)
		},
		OnBranchPush: func(ctx context.Context, e *domain.BranchEvent) {
			logger.DebugContext(ctx, "branch pushed", "session_id", e.SessionID, "pages", e.Pages, "depth", e.Depth)
		},
		OnBranchPop: func(ctx context.Context, e *domain.BranchEvent) {
			logger.DebugContext(ctx, "branch popped", "session_id", e.SessionID, "depth", e.Depth)
		},
	}
}
