package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/exp/slog"
	"golang.org/x/sync/errgroup"

	"cashcraft/internal/app/server/api"
	"cashcraft/internal/app/server/config"
	"cashcraft/internal/infrastructure/storage/postgres"
	"cashcraft/internal/utils/logger"
)

const sessionSweepInterval = time.Hour

func main() {
	cfg := config.MustLoad()
	log := logger.New(cfg.Env)

	if err := run(cfg, log); err != nil {
		log.Error("server stopped", slog.Any("error", err))
		os.Exit(1)
	}
}

func run(cfg *config.Config, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	storage, err := postgres.New(ctx, cfg.DB)
	if err != nil {
		return err
	}
	defer storage.Close()

	srv := &http.Server{
		Addr:         cfg.Server.RunAddress,
		Handler:      api.New(storage, cfg, log),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info("starting server", slog.String("addr", cfg.Server.RunAddress), slog.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	g.Go(func() error {
		sessions := postgres.NewSessionRepository(storage, log)
		ticker := time.NewTicker(sessionSweepInterval)
		defer ticker.Stop()
		for {
			select {
			case <-gctx.Done():
				return nil
			case <-ticker.C:
				n, err := sessions.DeleteExpired(gctx)
				if err != nil {
					log.Warn("session sweep failed", slog.Any("error", err))
					continue
				}
				if n > 0 {
					log.Info("expired sessions removed", slog.Int64("count", n))
				}
			}
		}
	})

	return g.Wait()
}
