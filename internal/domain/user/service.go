package user

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
	"golang.org/x/exp/slog"
)

type Servicer interface {
	Register(ctx context.Context, creds Credentials) (int, error)
	Authenticate(ctx context.Context, creds Credentials) (User, error)
}

type Service struct {
	repo      Repository
	validator Validator
	log       *slog.Logger
	cost      int
}

func NewService(repo Repository, validator Validator, log *slog.Logger) *Service {
	return &Service{
		repo:      repo,
		validator: validator,
		log:       log.With(slog.String("component", "user_service")),
		cost:      bcrypt.DefaultCost,
	}
}

// Register создает пользователя с bcrypt-хэшем пароля
func (s *Service) Register(ctx context.Context, creds Credentials) (int, error) {
	if err := s.validator.ValidateRegister(creds.Login, creds.Password); err != nil {
		s.log.Debug("validation failed", slog.String("login", creds.Login), slog.Any("error", err))
		return 0, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(creds.Password), s.cost)
	if err != nil {
		return 0, fmt.Errorf("hash password: %w", err)
	}

	id, err := s.repo.Create(ctx, creds.Login, string(hash))
	if err != nil {
		return 0, fmt.Errorf("create user: %w", err)
	}
	s.log.Info("user registered", slog.Int("user_id", id))
	return id, nil
}

// Authenticate не различает "нет пользователя" и "неверный пароль"
func (s *Service) Authenticate(ctx context.Context, creds Credentials) (User, error) {
	if err := s.validator.ValidateLogin(creds.Login); err != nil {
		return User{}, ErrInvalidAuth
	}

	u, err := s.repo.FindByLogin(ctx, creds.Login)
	if errors.Is(err, ErrNotFound) {
		return User{}, ErrInvalidAuth
	}
	if err != nil {
		return User{}, fmt.Errorf("find user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(creds.Password)); err != nil {
		return User{}, ErrInvalidAuth
	}
	return u, nil
}
