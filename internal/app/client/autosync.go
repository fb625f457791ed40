package client

import (
	"context"
	"errors"
	"time"

	"golang.org/x/exp/slog"
)

// StartAutoSync запускает периодическую синхронизацию в фоне.
// Цикл завершается при отмене ctx или при ErrAuthExpired; Wait дожидается выхода.
func (s *SyncService) StartAutoSync(ctx context.Context, userID, token string, interval time.Duration) {
	if interval <= 0 {
		interval = DefaultSyncInterval
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		s.log.Info("auto-sync started", slog.Duration("interval", interval))
		for {
			select {
			case <-ctx.Done():
				s.log.Info("auto-sync stopped")
				return
			case <-ticker.C:
				if err := s.Tick(ctx, userID, token); errors.Is(err, ErrAuthExpired) || errors.Is(err, ErrNoCredential) {
					s.log.Warn("auto-sync stopped, login required", slog.Any("error", err))
					return
				}
			}
		}
	}()
}

// Wait ждет завершения фоновых циклов автосинхронизации
func (s *SyncService) Wait() {
	s.wg.Wait()
}

// Tick один проход автосинхронизации. Если предыдущий проход еще идет, тик пропускается.
func (s *SyncService) Tick(ctx context.Context, userID, token string) error {
	if !s.ticking.CompareAndSwap(false, true) {
		s.log.Debug("previous tick still running, skipped")
		return nil
	}
	defer s.ticking.Store(false)

	if err := s.remote.Ping(ctx); err != nil {
		s.log.Debug("remote unreachable, tick skipped", slog.Any("error", err))
		return nil
	}

	if _, err := s.Upload(ctx, userID, token); err != nil {
		return s.tickError("upload", err)
	}

	if s.opts.DownloadOnTick {
		if _, err := s.Download(ctx, userID, token); err != nil {
			return s.tickError("download", err)
		}
	}
	return nil
}

func (s *SyncService) tickError(stage string, err error) error {
	switch {
	case errors.Is(err, ErrAuthExpired), errors.Is(err, ErrNoCredential):
		return err
	case errors.Is(err, ErrSyncSuppressed), errors.Is(err, ErrNotReady), IsTransient(err):
		s.log.Debug("tick skipped", slog.String("stage", stage), slog.Any("error", err))
		return nil
	default:
		s.log.Error("auto-sync failed", slog.String("stage", stage), slog.Any("error", err))
		return err
	}
}
