package client

import (
	"context"

	"cashcraft/internal/domain/ledger"
)

// Storage локальное хранилище пяти коллекций и метаданных синхронизации
type Storage interface {
	// Init создает схему; до успешного вызова IsReady возвращает false
	Init(ctx context.Context) error
	IsReady() bool

	GetAll(ctx context.Context) (*ledger.Snapshot, error)
	// Pending записи с пустым syncedAt или updatedAt > since; курсы, еще не отправленные
	Pending(ctx context.Context, since ledger.Timestamp) (*ledger.Snapshot, error)
	Upsert(ctx context.Context, snap *ledger.Snapshot) error
	// DeleteAll очищает одну коллекцию без изменения отметки синхронизации
	DeleteAll(ctx context.Context, c ledger.Collection) error

	// ReplaceAll очищает коллекции, записывает snap и отметку одной транзакцией
	ReplaceAll(ctx context.Context, snap *ledger.Snapshot, wm ledger.Watermark) error
	// MarkSynced ставит syncedAt отправленным записям, сдвигает курсор курсов и отметку одной транзакцией
	MarkSynced(ctx context.Context, sent *ledger.Snapshot, at ledger.Timestamp, wm ledger.Watermark) error
	// ResetToSeed очищает все, записывает seed, сбрасывает отметку и ставит маркер сброса
	ResetToSeed(ctx context.Context, seed *ledger.Snapshot) error

	Watermark(ctx context.Context) (ledger.Watermark, error)
	ResetMarker(ctx context.Context) (bool, error)
	SetResetMarker(ctx context.Context, set bool) error

	Close() error
}
