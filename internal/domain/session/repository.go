package session

import (
	"context"
	"errors"
	"time"
)

var ErrInvalidSession = errors.New("invalid or expired session")

type Repository interface {
	Create(ctx context.Context, userID int, tokenHash string, expiresAt time.Time) error
	// Validate возвращает ErrInvalidSession для неизвестного или просроченного токена
	Validate(ctx context.Context, tokenHash string) (int, error)
	Delete(ctx context.Context, tokenHash string) error
}
