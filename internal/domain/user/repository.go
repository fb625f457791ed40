package user

import (
	"context"
)

type Repository interface {
	// Create возвращает ErrAlreadyExists, если логин занят
	Create(ctx context.Context, login, passwordHash string) (int, error)
	// FindByLogin возвращает ErrNotFound, если пользователя нет
	FindByLogin(ctx context.Context, login string) (User, error)
}
