package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Clark-Hu/trimscore/internal/app"
	"github.com/Clark-Hu/trimscore/internal/config"
	httpserver "github.com/Clark-Hu/trimscore/internal/http"
	"github.com/Clark-Hu/trimscore/internal/logging"
	"github.com/Clark-Hu/trimscore/internal/refresh"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		bootLogger := logging.New("info", "json")
		bootLogger.Fatal().Err(err).Msg("config error")
	}

	logger := logging.New(cfg.LogLevel, cfg.LogFormat)

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("init application")
	}
	defer a.Close()

	if err := a.Migrate(ctx); err != nil {
		logger.Fatal().Err(err).Msg("apply migrations")
	}

	if cfg.RefreshSchedule != "" {
		scheduler, err := refresh.NewScheduler(cfg.RefreshSchedule, a.Refresh, logger)
		if err != nil {
			logger.Fatal().Err(err).Msg("init refresh scheduler")
		}
		scheduler.Start()
		defer scheduler.Stop()
	}

	server := httpserver.New(cfg, a.Resolver, a.Scores, logger)

	serverErrCh := make(chan error, 1)
	go func() {
		if err := server.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			serverErrCh <- err
			return
		}
		serverErrCh <- nil
	}()

	select {
	case err := <-serverErrCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("server error")
		}
	case <-ctx.Done():
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error().Err(err).Msg("graceful shutdown error")
	}
}
