package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/exp/slog"

	"cashcraft/internal/domain/ledger"
)

// offlineRemote "удаленное" хранилище в локальном файле.
// Загрузка сливается с хранимым снимком через ledger.Merge.
type offlineRemote struct {
	path     string
	log      *slog.Logger
	importer *ledger.Importer
	now      func() time.Time

	mu sync.Mutex
}

func NewOfflineRemote(path string, log *slog.Logger) *offlineRemote {
	log = log.With(slog.String("component", "offline_remote"))
	return &offlineRemote{
		path:     path,
		log:      log,
		importer: ledger.NewImporter(log),
		now:      time.Now,
	}
}

func (o *offlineRemote) Ping(context.Context) error {
	return nil
}

func (o *offlineRemote) Upload(ctx context.Context, _ string, data *ledger.Snapshot) (ledger.Watermark, error) {
	if err := ctx.Err(); err != nil {
		return ledger.Watermark{}, err
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	held, err := o.read()
	if err != nil {
		return ledger.Watermark{}, err
	}

	env := ledger.Envelope{
		Data:       *ledger.Merge(&held.Data, data),
		LastSyncAt: ledger.At(o.now()),
		SyncToken:  uuid.NewString(),
	}
	if err := o.write(env); err != nil {
		return ledger.Watermark{}, err
	}

	o.log.Debug("snapshot merged", slog.Int("incoming", data.Len()), slog.Int("total", env.Data.Len()))
	return ledger.Watermark{LastSyncAt: env.LastSyncAt, SyncToken: env.SyncToken}, nil
}

func (o *offlineRemote) Download(ctx context.Context, _ string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	body, err := os.ReadFile(o.path)
	if errors.Is(err, os.ErrNotExist) {
		return json.Marshal(ledger.Envelope{})
	}
	if err != nil {
		return nil, fmt.Errorf("read offline snapshot: %w", err)
	}
	return body, nil
}

func (o *offlineRemote) Wipe(ctx context.Context, _ string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	if err := os.Remove(o.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove offline snapshot: %w", err)
	}
	return nil
}

func (o *offlineRemote) read() (*ledger.Envelope, error) {
	body, err := os.ReadFile(o.path)
	if errors.Is(err, os.ErrNotExist) {
		return &ledger.Envelope{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read offline snapshot: %w", err)
	}

	raw, err := ledger.DecodeEnvelope(body)
	if err != nil {
		return nil, err
	}
	snap, _ := o.importer.Import(raw)
	return &ledger.Envelope{Data: *snap, LastSyncAt: raw.LastSyncAt, SyncToken: raw.SyncToken}, nil
}

func (o *offlineRemote) write(env ledger.Envelope) error {
	body, err := json.MarshalIndent(env, "", "  ")
	if err != nil {
		return fmt.Errorf("encode offline snapshot: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(o.path), 0700); err != nil {
		return fmt.Errorf("create snapshot dir: %w", err)
	}
	tmp := o.path + ".tmp"
	if err := os.WriteFile(tmp, body, 0600); err != nil {
		return fmt.Errorf("write offline snapshot: %w", err)
	}
	return os.Rename(tmp, o.path)
}

var _ Remote = (*offlineRemote)(nil)
