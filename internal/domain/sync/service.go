package sync

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"golang.org/x/exp/slog"

	"cashcraft/internal/domain/ledger"
)

// Servicer операции синхронизации для HTTP-слоя
type Servicer interface {
	// Upload сливает присланные изменения с хранимым снимком
	Upload(ctx context.Context, userID int, body []byte) (*UploadResult, error)
	// Download возвращает хранимый снимок целиком
	Download(ctx context.Context, userID int) (*DownloadResult, error)
	// Wipe удаляет все данные пользователя
	Wipe(ctx context.Context, userID int) error
}

// Service авторитетное хранилище снимков. Слияние то же, что и у клиента:
// last-write-wins по updatedAt.
type Service struct {
	repo     Repository
	importer *ledger.Importer
	log      *slog.Logger
	now      func() time.Time
}

func NewService(repo Repository, log *slog.Logger) *Service {
	log = log.With(slog.String("component", "sync_service"))
	return &Service{
		repo:     repo,
		importer: ledger.NewImporter(log),
		log:      log,
		now:      time.Now,
	}
}

// Upload принимает тело {data:{...}}. Нарушение формы дает ErrMalformedShape,
// отдельные невалидные записи пропускаются и возвращаются в Rejected.
func (s *Service) Upload(ctx context.Context, userID int, body []byte) (*UploadResult, error) {
	raw, err := ledger.DecodeEnvelope(body)
	if err != nil {
		return nil, err
	}

	result := &UploadResult{}
	stored, err := s.repo.Update(ctx, userID, func(cur *Stored) (*Stored, error) {
		existing, err := s.decode(cur)
		if err != nil {
			return nil, err
		}

		incoming, rejected := s.importer.ImportOnto(raw, existing)
		result.Accepted = incoming.Len()
		result.Rejected = rejected

		data, err := json.Marshal(ledger.Merge(existing, incoming))
		if err != nil {
			return nil, fmt.Errorf("encode snapshot: %w", err)
		}

		return &Stored{
			UserID:     userID,
			Data:       data,
			Version:    cur.Version + 1,
			LastSyncAt: ledger.At(s.now()).Time,
		}, nil
	})
	if err != nil {
		return nil, fmt.Errorf("upload: %w", err)
	}

	result.LastSyncAt = ledger.At(stored.LastSyncAt)
	result.SyncToken = stored.Token()

	s.log.Info("snapshot updated",
		slog.Int("user_id", userID),
		slog.Int("accepted", result.Accepted),
		slog.Int("rejected", len(result.Rejected)),
		slog.Int64("version", stored.Version),
	)
	return result, nil
}

func (s *Service) Download(ctx context.Context, userID int) (*DownloadResult, error) {
	stored, err := s.repo.Get(ctx, userID)
	if errors.Is(err, ErrSnapshotNotFound) {
		empty, err := json.Marshal(ledger.Snapshot{})
		if err != nil {
			return nil, err
		}
		return &DownloadResult{Data: empty}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("download: %w", err)
	}

	return &DownloadResult{
		Data:       stored.Data,
		LastSyncAt: ledger.At(stored.LastSyncAt),
		SyncToken:  stored.Token(),
	}, nil
}

func (s *Service) Wipe(ctx context.Context, userID int) error {
	if err := s.repo.Delete(ctx, userID); err != nil {
		return fmt.Errorf("wipe: %w", err)
	}
	s.log.Info("snapshot wiped", slog.Int("user_id", userID))
	return nil
}

// decode разбирает хранимый снимок; пустой снимок для нового пользователя
func (s *Service) decode(cur *Stored) (*ledger.Snapshot, error) {
	if cur == nil || len(cur.Data) == 0 {
		return &ledger.Snapshot{}, nil
	}

	raw, err := ledger.DecodeData(cur.Data)
	if err != nil {
		return nil, fmt.Errorf("stored snapshot: %w", err)
	}
	snap, rejected := s.importer.Import(raw)
	if len(rejected) > 0 {
		s.log.Warn("stored snapshot has invalid records", slog.Int("user_id", cur.UserID), slog.Int("count", len(rejected)))
	}
	return snap, nil
}

var _ Servicer = (*Service)(nil)
