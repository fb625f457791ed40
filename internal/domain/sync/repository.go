package sync

import (
	"context"
)

// UpdateFunc получает текущий снимок (Version 0, если его нет) и возвращает новый
type UpdateFunc func(current *Stored) (*Stored, error)

// Repository хранилище снимков, по одному на пользователя
type Repository interface {
	// Get возвращает ErrSnapshotNotFound, если пользователь еще ничего не загружал
	Get(ctx context.Context, userID int) (*Stored, error)
	// Update выполняет fn под блокировкой снимка пользователя и сохраняет результат
	Update(ctx context.Context, userID int, fn UpdateFunc) (*Stored, error)
	// Delete удаляет снимок; отсутствие снимка не ошибка
	Delete(ctx context.Context, userID int) error
}
