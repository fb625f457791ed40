package client

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cashcraft/internal/domain/ledger"
	"cashcraft/internal/utils/logger"
)

type device struct {
	store *SQLiteStorage
	svc   *SyncService
}

// TestTwoDevicesConverge два устройства через общий снимок сходятся к последней правке
func TestTwoDevicesConverge(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	clock := time.Date(2024, 7, 1, 9, 0, 0, 0, time.UTC)
	now := func() time.Time { return clock }

	remote := NewOfflineRemote(filepath.Join(dir, "remote.json"), logger.Discard())
	remote.now = now

	newDevice := func(name string) *device {
		store, err := NewMemoryStorage()
		require.NoError(t, err)
		require.NoError(t, store.Init(ctx))
		t.Cleanup(func() { _ = store.Close() })

		svc := NewSyncService(store, remote, NewFallbackCache(filepath.Join(dir, name+".cache")), logger.Discard(), SyncOptions{})
		svc.now = now
		return &device{store: store, svc: svc}
	}
	a, b := newDevice("a"), newDevice("b")

	created := ledger.At(clock)
	acc := ledger.Account{ID: "acc", Name: "Wallet", Type: ledger.AccountCash, Balance: decimal.NewFromInt(100), CreatedAt: created, UpdatedAt: created}
	tx := ledger.Transaction{ID: "t1", AccountID: "acc", Amount: decimal.NewFromInt(50), Type: ledger.Expense, Date: created, CreatedAt: created, UpdatedAt: created}
	require.NoError(t, a.store.Upsert(ctx, &ledger.Snapshot{Accounts: []ledger.Account{acc}, Transactions: []ledger.Transaction{tx}}))

	clock = clock.Add(time.Minute)
	up, err := a.svc.Upload(ctx, "u", "tok")
	require.NoError(t, err)
	assert.Equal(t, 2, up.Total)

	res, err := b.svc.Download(ctx, "u", "tok")
	require.NoError(t, err)
	require.True(t, res.Applied)

	bSnap, err := b.store.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, bSnap.Transactions, 1)
	assert.Equal(t, "50", bSnap.Transactions[0].Amount.String())

	clock = clock.Add(time.Minute)
	edited := bSnap.Transactions[0]
	edited.Amount = decimal.NewFromInt(75)
	edited.UpdatedAt = ledger.At(clock)
	require.NoError(t, b.store.Upsert(ctx, &ledger.Snapshot{Transactions: []ledger.Transaction{edited}}))

	clock = clock.Add(time.Minute)
	up, err = b.svc.Upload(ctx, "u", "tok")
	require.NoError(t, err)
	assert.Equal(t, 1, up.Total)

	res, err = a.svc.Download(ctx, "u", "tok")
	require.NoError(t, err)
	require.True(t, res.Applied)

	aSnap, err := a.store.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, aSnap.Accounts, 1)
	require.Len(t, aSnap.Transactions, 1)
	assert.Equal(t, "75", aSnap.Transactions[0].Amount.String())

	// после download нечего отправлять обратно
	up, err = a.svc.Upload(ctx, "u", "tok")
	require.NoError(t, err)
	assert.Zero(t, up.Total)
}

func TestOfflineRemote_StaleUploadDoesNotOverwrite(t *testing.T) {
	ctx := context.Background()
	remote := NewOfflineRemote(filepath.Join(t.TempDir(), "remote.json"), logger.Discard())

	newer := ledger.MustParse("2024-01-02T00:00:00Z")
	older := ledger.MustParse("2024-01-01T00:00:00Z")

	_, err := remote.Upload(ctx, "", &ledger.Snapshot{Accounts: []ledger.Account{
		{ID: "a", Name: "fresh", Balance: decimal.NewFromInt(2), UpdatedAt: newer},
	}})
	require.NoError(t, err)

	wm, err := remote.Upload(ctx, "", &ledger.Snapshot{Accounts: []ledger.Account{
		{ID: "a", Name: "stale", Balance: decimal.NewFromInt(1), UpdatedAt: older},
	}})
	require.NoError(t, err)
	assert.NotEmpty(t, wm.SyncToken)

	body, err := remote.Download(ctx, "")
	require.NoError(t, err)
	raw, err := ledger.DecodeEnvelope(body)
	require.NoError(t, err)
	snap, rejected := ledger.NewImporter(nil).Import(raw)
	assert.Empty(t, rejected)
	require.Len(t, snap.Accounts, 1)
	assert.Equal(t, "fresh", snap.Accounts[0].Name)
}

func TestOfflineRemote_WipeAndEmptyDownload(t *testing.T) {
	ctx := context.Background()
	remote := NewOfflineRemote(filepath.Join(t.TempDir(), "remote.json"), logger.Discard())

	_, err := remote.Upload(ctx, "", &ledger.Snapshot{Categories: []ledger.Category{{ID: "c", Name: "Food"}}})
	require.NoError(t, err)
	require.NoError(t, remote.Wipe(ctx, ""))
	require.NoError(t, remote.Wipe(ctx, ""))

	body, err := remote.Download(ctx, "")
	require.NoError(t, err)
	raw, err := ledger.DecodeEnvelope(body)
	require.NoError(t, err)
	assert.Empty(t, raw.Categories)
	assert.True(t, raw.LastSyncAt.IsZero())
}

func TestFallbackCache(t *testing.T) {
	c := NewFallbackCache(filepath.Join(t.TempDir(), "nested", "cache.json"))

	_, ok, err := c.Get()
	require.NoError(t, err)
	assert.False(t, ok)
	assert.False(t, c.Has())

	require.NoError(t, c.Put([]byte(`{"a":1}`)))
	require.NoError(t, c.Put([]byte(`{"b":2}`)))

	body, ok, err := c.Get()
	require.NoError(t, err)
	assert.True(t, ok)
	assert.JSONEq(t, `{"b":2}`, string(body))

	require.NoError(t, c.Clear())
	require.NoError(t, c.Clear())
	assert.False(t, c.Has())
}
