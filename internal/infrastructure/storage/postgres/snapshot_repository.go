package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"golang.org/x/exp/slog"

	"cashcraft/internal/domain/sync"
)

// SnapshotRepository хранит снимок пользователя одной jsonb-строкой
type SnapshotRepository struct {
	db  *Storage
	log *slog.Logger
}

func NewSnapshotRepository(db *Storage, log *slog.Logger) *SnapshotRepository {
	return &SnapshotRepository{
		db:  db,
		log: log,
	}
}

func (r *SnapshotRepository) Get(ctx context.Context, userID int) (*sync.Stored, error) {
	s := &sync.Stored{UserID: userID}
	var last *time.Time
	err := r.db.Pool().QueryRow(ctx,
		`SELECT data, version, last_sync_at FROM snapshots WHERE user_id = $1`, userID).
		Scan(&s.Data, &s.Version, &last)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, sync.ErrSnapshotNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select snapshot: %w", err)
	}
	if last != nil {
		s.LastSyncAt = last.UTC()
	}
	return s, nil
}

// Update держит строку снимка под FOR UPDATE, пока fn строит новую версию,
// поэтому параллельные загрузки одного пользователя сливаются по очереди
func (r *SnapshotRepository) Update(ctx context.Context, userID int, fn sync.UpdateFunc) (*sync.Stored, error) {
	var next *sync.Stored

	err := r.db.inTx(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx,
			`INSERT INTO snapshots (user_id) VALUES ($1) ON CONFLICT (user_id) DO NOTHING`, userID); err != nil {
			return fmt.Errorf("ensure snapshot: %w", err)
		}

		cur := &sync.Stored{UserID: userID}
		var last *time.Time
		err := tx.QueryRow(ctx,
			`SELECT data, version, last_sync_at FROM snapshots WHERE user_id = $1 FOR UPDATE`, userID).
			Scan(&cur.Data, &cur.Version, &last)
		if err != nil {
			return fmt.Errorf("lock snapshot: %w", err)
		}
		if last != nil {
			cur.LastSyncAt = last.UTC()
		}

		next, err = fn(cur)
		if err != nil {
			return err
		}

		_, err = tx.Exec(ctx,
			`UPDATE snapshots SET data = $2, version = $3, last_sync_at = $4, updated_at = NOW()
			 WHERE user_id = $1`,
			userID, string(next.Data), next.Version, next.LastSyncAt)
		if err != nil {
			return fmt.Errorf("save snapshot: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return next, nil
}

func (r *SnapshotRepository) Delete(ctx context.Context, userID int) error {
	if _, err := r.db.Pool().Exec(ctx, `DELETE FROM snapshots WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("delete snapshot: %w", err)
	}
	return nil
}

var _ sync.Repository = (*SnapshotRepository)(nil)
