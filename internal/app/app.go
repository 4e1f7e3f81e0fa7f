// Package app assembles the score service from configuration.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/Clark-Hu/trimscore/internal/config"
	"github.com/Clark-Hu/trimscore/internal/imdb"
	"github.com/Clark-Hu/trimscore/internal/refresh"
	"github.com/Clark-Hu/trimscore/internal/repository"
	"github.com/Clark-Hu/trimscore/internal/resolver"
	"github.com/Clark-Hu/trimscore/internal/store"
)

// App holds the wired components shared by the server and the CLI.
type App struct {
	Config   config.Config
	Logger   zerolog.Logger
	Scores   repository.Scores
	Resolver *resolver.Resolver
	Refresh  *refresh.Job

	store  *store.Store
	closer func()
}

// New connects the configured store and builds the resolution pipeline.
func New(ctx context.Context, cfg config.Config, logger zerolog.Logger) (*App, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, fmt.Errorf("score timezone: %w", err)
	}

	a := &App{Config: cfg, Logger: logger, closer: func() {}}
	if err := a.openStore(ctx); err != nil {
		return nil, err
	}

	client, err := imdb.NewHTTPClient(cfg.IMDbBaseURL, cfg.IMDbUserAgent, cfg.IMDbTimeout(), logger)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("init ratings client: %w", err)
	}

	a.Resolver = resolver.New(a.Scores, client, resolver.Options{
		Location: loc,
		Logger:   logger,
	})
	a.Refresh = refresh.NewJob(a.Scores, a.Resolver, cfg.RefreshBatchSize, logger)
	return a, nil
}

func (a *App) openStore(ctx context.Context) error {
	cfg := a.Config
	switch cfg.StoreDriver {
	case config.DriverPostgres:
		dbCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		st, err := store.New(dbCtx, cfg.DBURL, store.Options{
			MaxConns:               int32(cfg.DBMaxConns),
			MinConns:               int32(cfg.DBMinConns),
			MaxConnIdleTime:        time.Duration(cfg.DBMaxIdleSecs) * time.Second,
			MaxConnLifetime:        time.Duration(cfg.DBMaxLifeSecs) * time.Second,
			ConnTimeout:            time.Duration(cfg.DBConnTimeoutSecs) * time.Second,
			StatementCacheCapacity: cfg.DBStatementCache,
			Logger:                 a.Logger,
		})
		if err != nil {
			return fmt.Errorf("connect database: %w", err)
		}
		a.store = st
		a.Scores = repository.New(st)
		a.closer = st.Close
	case config.DriverRedis:
		rs, err := repository.OpenRedis(ctx, cfg.RedisURL)
		if err != nil {
			return err
		}
		a.Scores = rs
		a.closer = func() { _ = rs.Close() }
	case config.DriverMemory:
		a.Logger.Warn().Msg("using in-memory store; scores are lost on restart")
		a.Scores = repository.NewMemory()
	default:
		return fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}
	a.Logger.Info().Str("driver", cfg.StoreDriver).Msg("score store ready")
	return nil
}

// Migrate applies the schema migrations. Only the postgres driver has any.
func (a *App) Migrate(ctx context.Context) error {
	if a.store == nil {
		a.Logger.Info().Str("driver", a.Config.StoreDriver).Msg("no migrations for store driver")
		return nil
	}
	return a.store.Migrate(ctx)
}

// Close releases the store connection.
func (a *App) Close() {
	a.closer()
}
