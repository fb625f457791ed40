package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/danielgtaylor/huma/v2"
	"golang.org/x/exp/slog"

	"cashcraft/internal/domain/session"
)

type Auth struct {
	api     huma.API
	session session.Servicer
	log     *slog.Logger
}

func New(api huma.API, session session.Servicer, log *slog.Logger) *Auth {
	return &Auth{
		api:     api,
		session: session,
		log:     log.With(slog.String("component", "auth_middleware")),
	}
}

type contextKey string

const (
	UserIDKey contextKey = "userID"
	TokenKey  contextKey = "token"
)

// Middleware проверяет Bearer-токен и кладет userID в контекст
func (a *Auth) Middleware() func(huma.Context, func(huma.Context)) {
	return func(ctx huma.Context, next func(huma.Context)) {
		token, ok := bearer(ctx.Header("Authorization"))
		if !ok {
			a.log.Debug("missing bearer token", slog.String("path", ctx.URL().Path))
			_ = huma.WriteErr(a.api, ctx, http.StatusUnauthorized, "missing bearer token")
			return
		}

		userID, err := a.session.Validate(ctx.Context(), token)
		if err != nil {
			if !errors.Is(err, session.ErrInvalidSession) {
				a.log.Error("validate session", slog.Any("error", err))
				_ = huma.WriteErr(a.api, ctx, http.StatusInternalServerError, "session check failed")
				return
			}
			_ = huma.WriteErr(a.api, ctx, http.StatusUnauthorized, "invalid or expired session")
			return
		}

		newCtx := context.WithValue(ctx.Context(), UserIDKey, userID)
		newCtx = context.WithValue(newCtx, TokenKey, token)
		next(huma.WithContext(ctx, newCtx))
	}
}

func bearer(header string) (string, bool) {
	const prefix = "Bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return "", false
	}
	token := strings.TrimSpace(header[len(prefix):])
	return token, token != ""
}

func GetUserID(ctx context.Context) (int, bool) {
	userID, ok := ctx.Value(UserIDKey).(int)
	return userID, ok
}

func GetToken(ctx context.Context) (string, bool) {
	token, ok := ctx.Value(TokenKey).(string)
	return token, ok
}

// WithUserID для тестов обработчиков
func WithUserID(ctx context.Context, userID int) context.Context {
	return context.WithValue(ctx, UserIDKey, userID)
}
