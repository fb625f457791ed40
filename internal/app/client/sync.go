package client

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/exp/slog"

	"cashcraft/internal/domain/ledger"
)

const DefaultSyncInterval = 5 * time.Minute

// SyncOptions настройки сервиса синхронизации
type SyncOptions struct {
	// DefaultCurrency валюта счета по умолчанию после сброса
	DefaultCurrency string
	// DownloadOnTick скачивать снимок на каждом тике автосинхронизации
	DownloadOnTick bool
}

// SyncService сверяет локальное хранилище с удаленным
type SyncService struct {
	store    Storage
	remote   Remote
	cache    *FallbackCache
	importer *ledger.Importer
	locks    *userLocks
	log      *slog.Logger
	opts     SyncOptions
	now      func() time.Time

	ticking atomic.Bool
	wg      sync.WaitGroup
}

// UploadResult итог отправки изменений
type UploadResult struct {
	Uploaded  map[ledger.Collection]int
	Total     int
	Watermark ledger.Watermark
}

// DownloadResult итог скачивания снимка
type DownloadResult struct {
	// Applied локальные коллекции заменены снимком
	Applied bool
	// Skipped отметка совпала, хранилище не тронуто
	Skipped bool
	// Cached снимок отложен в кэш до готовности хранилища
	Cached    bool
	Imported  int
	Rejected  []ledger.Rejection
	Watermark ledger.Watermark
}

// NewSyncService создает сервис синхронизации
func NewSyncService(store Storage, remote Remote, cache *FallbackCache, log *slog.Logger, opts SyncOptions) *SyncService {
	log = log.With(slog.String("component", "sync"))
	return &SyncService{
		store:    store,
		remote:   remote,
		cache:    cache,
		importer: ledger.NewImporter(log),
		locks:    newUserLocks(),
		log:      log,
		opts:     opts,
		now:      time.Now,
	}
}

// Upload отправляет записи, измененные после последней синхронизации
func (s *SyncService) Upload(ctx context.Context, userID, token string) (*UploadResult, error) {
	if token == "" {
		return nil, ErrNoCredential
	}
	if !s.store.IsReady() {
		return nil, ErrNotReady
	}

	mu := s.locks.syncLock(userID)
	mu.Lock()
	defer mu.Unlock()

	if err := s.checkSuppressed(ctx); err != nil {
		return nil, err
	}

	wm, err := s.store.Watermark(ctx)
	if err != nil {
		return nil, fmt.Errorf("upload: %w", err)
	}
	pending, err := s.store.Pending(ctx, wm.LastSyncAt)
	if err != nil {
		return nil, fmt.Errorf("upload: collect pending: %w", err)
	}

	result := &UploadResult{Uploaded: pending.Counts(), Total: pending.Len(), Watermark: wm}
	if result.Total == 0 {
		s.log.Debug("nothing to upload")
		return result, nil
	}

	remoteWM, err := s.remote.Upload(ctx, token, pending)
	if err != nil {
		s.log.Warn("upload failed", slog.String("user", userID), slog.Any("error", err))
		return nil, fmt.Errorf("upload: %w", err)
	}

	at := ledger.At(s.now())
	next := ledger.Watermark{LastSyncAt: remoteWM.LastSyncAt}
	if next.LastSyncAt.IsZero() {
		next.LastSyncAt = at
	}
	// токен остается пустым до следующего download: снимок сервера
	// мог содержать чужие изменения, которых у нас еще нет
	if err := s.store.MarkSynced(ctx, pending, at, next); err != nil {
		return nil, fmt.Errorf("upload: mark synced: %w", err)
	}

	result.Watermark = next
	s.log.Info("upload finished", slog.String("user", userID), slog.Int("records", result.Total),
		slog.String("last_sync_at", next.LastSyncAt.String()))
	return result, nil
}

// Download заменяет локальные коллекции удаленным снимком
func (s *SyncService) Download(ctx context.Context, userID, token string) (*DownloadResult, error) {
	if token == "" {
		return nil, ErrNoCredential
	}

	mu := s.locks.syncLock(userID)
	mu.Lock()
	defer mu.Unlock()

	if s.store.IsReady() {
		if err := s.checkSuppressed(ctx); err != nil {
			return nil, err
		}
	}

	body, err := s.remote.Download(ctx, token)
	if err != nil {
		s.log.Warn("download failed", slog.String("user", userID), slog.Any("error", err))
		return nil, fmt.Errorf("download: %w", err)
	}

	raw, err := ledger.DecodeEnvelope(body)
	if err != nil {
		s.log.Error("remote snapshot rejected", slog.Any("error", err))
		return nil, fmt.Errorf("download: %w", err)
	}

	if !s.store.IsReady() {
		if err := s.cache.Put(body); err != nil {
			return nil, fmt.Errorf("download: %w", err)
		}
		s.log.Info("store not ready, snapshot cached", slog.String("last_sync_at", raw.LastSyncAt.String()))
		return &DownloadResult{Cached: true}, ErrNotReady
	}

	return s.apply(ctx, raw)
}

// ReplayCached применяет снимок из кэша, когда хранилище готово
func (s *SyncService) ReplayCached(ctx context.Context, userID string) (*DownloadResult, error) {
	if !s.store.IsReady() {
		return nil, ErrNotReady
	}

	mu := s.locks.syncLock(userID)
	mu.Lock()
	defer mu.Unlock()

	body, ok, err := s.cache.Get()
	if err != nil {
		return nil, err
	}
	if !ok {
		return &DownloadResult{Skipped: true}, nil
	}

	if err := s.checkSuppressed(ctx); err != nil {
		return nil, err
	}

	raw, err := ledger.DecodeEnvelope(body)
	if err != nil {
		_ = s.cache.Clear()
		return nil, fmt.Errorf("replay cached snapshot: %w", err)
	}

	result, err := s.apply(ctx, raw)
	if err != nil {
		return nil, fmt.Errorf("replay cached snapshot: %w", err)
	}
	if err := s.cache.Clear(); err != nil {
		s.log.Warn("cached snapshot applied but not cleared", slog.Any("error", err))
	}
	return result, nil
}

func (s *SyncService) apply(ctx context.Context, raw *ledger.RawSnapshot) (*DownloadResult, error) {
	local, err := s.store.Watermark(ctx)
	if err != nil {
		return nil, fmt.Errorf("download: %w", err)
	}

	remote := ledger.Watermark{LastSyncAt: raw.LastSyncAt, SyncToken: raw.SyncToken}
	// токен тоже сравнивается: после upload локальный токен пуст, и снимок
	// с тем же lastSyncAt, но с версией сервера, применяется, чтобы подтянуть
	// изменения других устройств из того же слияния
	if local.LastSyncAt.Equal(remote.LastSyncAt) && local.SyncToken == remote.SyncToken {
		s.log.Debug("snapshot already applied", slog.String("last_sync_at", remote.LastSyncAt.String()))
		return &DownloadResult{Skipped: true, Watermark: local}, nil
	}

	snap, rejected := s.importer.Import(raw)
	stampImported(snap, ledger.At(s.now()))

	if err := s.store.ReplaceAll(ctx, snap, remote); err != nil {
		return nil, fmt.Errorf("download: replace local data: %w", err)
	}

	s.log.Info("snapshot applied",
		slog.Int("imported", snap.Len()),
		slog.Int("rejected", len(rejected)),
		slog.String("last_sync_at", remote.LastSyncAt.String()),
	)
	return &DownloadResult{
		Applied:   true,
		Imported:  snap.Len(),
		Rejected:  rejected,
		Watermark: remote,
	}, nil
}

// Wipe удаляет данные на сервере, затем локально, и заново создает записи по умолчанию
func (s *SyncService) Wipe(ctx context.Context, userID, token string) error {
	if token == "" {
		return ErrNoCredential
	}
	if !s.locks.tryWipe(userID) {
		return ErrConcurrentWipe
	}
	defer s.locks.releaseWipe(userID)

	if !s.store.IsReady() {
		return ErrNotReady
	}

	mu := s.locks.syncLock(userID)
	mu.Lock()
	defer mu.Unlock()

	if err := s.remote.Wipe(ctx, token); err != nil {
		s.log.Warn("remote wipe failed, local data kept", slog.String("user", userID), slog.Any("error", err))
		return fmt.Errorf("wipe: %w", err)
	}

	// маркер пишется до очистки: если она не удастся, старые данные
	// все равно не уйдут на уже пустой сервер
	if err := s.store.SetResetMarker(ctx, true); err != nil {
		return fmt.Errorf("wipe: set reset marker: %w", err)
	}
	seed := ledger.DefaultSeed(userID, s.opts.DefaultCurrency, s.now())
	if err := s.store.ResetToSeed(ctx, seed); err != nil {
		s.log.Error("remote wiped but local reset failed", slog.String("user", userID), slog.Any("error", err))
		return fmt.Errorf("wipe: reset local data: %w", err)
	}
	if err := s.cache.Clear(); err != nil {
		s.log.Warn("fallback cache not cleared", slog.Any("error", err))
	}

	s.log.Info("data wiped", slog.String("user", userID))
	return nil
}

// AcknowledgeReset снимает блокировку синхронизации после сброса
func (s *SyncService) AcknowledgeReset(ctx context.Context) error {
	if !s.store.IsReady() {
		return ErrNotReady
	}
	return s.store.SetResetMarker(ctx, false)
}

// SyncStatus состояние для команды status
type SyncStatus struct {
	Ready       bool
	Watermark   ledger.Watermark
	Pending     map[ledger.Collection]int
	Cached      bool
	ResetMarker bool
}

func (s *SyncService) Status(ctx context.Context) (*SyncStatus, error) {
	st := &SyncStatus{Ready: s.store.IsReady(), Cached: s.cache.Has()}
	if !st.Ready {
		return st, nil
	}

	var err error
	if st.Watermark, err = s.store.Watermark(ctx); err != nil {
		return nil, err
	}
	pending, err := s.store.Pending(ctx, st.Watermark.LastSyncAt)
	if err != nil {
		return nil, err
	}
	st.Pending = pending.Counts()
	if st.ResetMarker, err = s.store.ResetMarker(ctx); err != nil {
		return nil, err
	}
	return st, nil
}

func (s *SyncService) checkSuppressed(ctx context.Context) error {
	marker, err := s.store.ResetMarker(ctx)
	if err != nil {
		return err
	}
	if marker {
		return ErrSyncSuppressed
	}
	return nil
}

// stampImported помечает скачанные записи синхронизированными
func stampImported(snap *ledger.Snapshot, at ledger.Timestamp) {
	for i := range snap.Accounts {
		snap.Accounts[i].SyncedAt = at
	}
	for i := range snap.Transactions {
		snap.Transactions[i].SyncedAt = at
	}
	for i := range snap.Categories {
		snap.Categories[i].SyncedAt = at
	}
	for i := range snap.Debts {
		snap.Debts[i].SyncedAt = at
	}
}

// IsTransient ошибки, после которых стоит просто повторить позже
func IsTransient(err error) bool {
	return errors.Is(err, ErrUnreachable) || errors.Is(err, context.DeadlineExceeded)
}
