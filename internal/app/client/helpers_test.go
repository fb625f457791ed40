package client

import (
	"context"
	"encoding/json"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"cashcraft/internal/domain/ledger"
	"cashcraft/internal/utils/logger"
)

// spyStorage считает вызовы шагов очистки
type spyStorage struct {
	Storage
	replaceAll atomic.Int32
	deleteAll  atomic.Int32
	resets     atomic.Int32

	resetErr error
}

func (s *spyStorage) ReplaceAll(ctx context.Context, snap *ledger.Snapshot, wm ledger.Watermark) error {
	s.replaceAll.Add(1)
	return s.Storage.ReplaceAll(ctx, snap, wm)
}

func (s *spyStorage) DeleteAll(ctx context.Context, c ledger.Collection) error {
	s.deleteAll.Add(1)
	return s.Storage.DeleteAll(ctx, c)
}

func (s *spyStorage) ResetToSeed(ctx context.Context, seed *ledger.Snapshot) error {
	s.resets.Add(1)
	if s.resetErr != nil {
		return s.resetErr
	}
	return s.Storage.ResetToSeed(ctx, seed)
}

func (s *spyStorage) clears() int32 {
	return s.replaceAll.Load() + s.deleteAll.Load() + s.resets.Load()
}

// fakeRemote подменяемое удаленное хранилище
type fakeRemote struct {
	mu sync.Mutex

	pingErr     error
	uploadErr   error
	downloadErr error
	wipeErr     error
	body        []byte
	watermark   ledger.Watermark

	// wipeGate если задан, Wipe ждет закрытия канала
	wipeGate    chan struct{}
	wipeStarted chan struct{}
	// uploadGate если задан, Upload ждет закрытия канала
	uploadGate    chan struct{}
	uploadStarted chan struct{}

	uploads   []*ledger.Snapshot
	downloads int
	wipes     int
	pings     int
}

func (f *fakeRemote) Ping(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pings++
	return f.pingErr
}

func (f *fakeRemote) Upload(ctx context.Context, _ string, data *ledger.Snapshot) (ledger.Watermark, error) {
	f.mu.Lock()
	gate, started := f.uploadGate, f.uploadStarted
	f.uploadGate, f.uploadStarted = nil, nil
	f.mu.Unlock()

	if started != nil {
		close(started)
	}
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return ledger.Watermark{}, ctx.Err()
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.uploadErr != nil {
		return ledger.Watermark{}, f.uploadErr
	}
	f.uploads = append(f.uploads, data)
	return f.watermark, nil
}

func (f *fakeRemote) Download(context.Context, string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.downloads++
	if f.downloadErr != nil {
		return nil, f.downloadErr
	}
	return f.body, nil
}

func (f *fakeRemote) Wipe(ctx context.Context, _ string) error {
	f.mu.Lock()
	gate, started := f.wipeGate, f.wipeStarted
	f.wipes++
	err := f.wipeErr
	f.mu.Unlock()

	if started != nil {
		close(started)
	}
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return err
}

func (f *fakeRemote) downloadCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.downloads
}

func (f *fakeRemote) uploadCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.uploads)
}

type fixture struct {
	store  *spyStorage
	remote *fakeRemote
	cache  *FallbackCache
	svc    *SyncService
	now    time.Time
}

func newFixture(t *testing.T, ready bool) *fixture {
	t.Helper()

	mem, err := NewMemoryStorage()
	require.NoError(t, err)
	t.Cleanup(func() { _ = mem.Close() })
	if ready {
		require.NoError(t, mem.Init(context.Background()))
	}

	f := &fixture{
		store:  &spyStorage{Storage: mem},
		remote: &fakeRemote{},
		cache:  NewFallbackCache(filepath.Join(t.TempDir(), "cache.json")),
		now:    time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC),
	}
	f.svc = NewSyncService(f.store, f.remote, f.cache, logger.Discard(), SyncOptions{
		DefaultCurrency: "USD",
		DownloadOnTick:  true,
	})
	f.svc.now = func() time.Time { return f.now }
	return f
}

func seedAccount(t *testing.T, store Storage, id, balance string, updated time.Time) ledger.Account {
	t.Helper()
	acc := ledger.Account{
		ID:        id,
		Name:      "acc " + id,
		Type:      ledger.AccountCash,
		Balance:   decimal.RequireFromString(balance),
		Currency:  "USD",
		CreatedAt: ledger.At(updated),
		UpdatedAt: ledger.At(updated),
	}
	require.NoError(t, store.Upsert(context.Background(), &ledger.Snapshot{Accounts: []ledger.Account{acc}}))
	return acc
}

func envelope(t *testing.T, snap ledger.Snapshot, lastSyncAt string, token string) []byte {
	t.Helper()
	env := ledger.Envelope{Data: snap, SyncToken: token}
	if lastSyncAt != "" {
		env.LastSyncAt = ledger.MustParse(lastSyncAt)
	}
	body, err := json.Marshal(env)
	require.NoError(t, err)
	return body
}
