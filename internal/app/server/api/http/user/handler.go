package user

import (
	"context"
	"errors"

	"github.com/danielgtaylor/huma/v2"
	"golang.org/x/exp/slog"

	"cashcraft/internal/app/server/api/http/middleware/auth"
	"cashcraft/internal/domain/session"
	"cashcraft/internal/domain/user"
)

type Handler struct {
	service        user.Servicer
	session        session.Servicer
	log            *slog.Logger
	middleware     huma.Middlewares
	authMiddleware huma.Middlewares
}

// NewHandler; authMW применяется к операциям, требующим токен
func NewHandler(service user.Servicer, session session.Servicer, log *slog.Logger, middleware, authMW huma.Middlewares) *Handler {
	return &Handler{
		service:        service,
		session:        session,
		log:            log,
		middleware:     middleware,
		authMiddleware: authMW,
	}
}

func (h *Handler) SetupRoutes(api huma.API) {
	huma.Register(api, h.registerOp(), h.register)
	huma.Register(api, h.loginOp(), h.login)
	huma.Register(api, h.logoutOp(), h.logout)
}

func (h *Handler) register(ctx context.Context, input *credentialsInput) (*tokenOutput, error) {
	userID, err := h.service.Register(ctx, input.Body)
	switch {
	case errors.Is(err, user.ErrInvalidInput):
		return nil, huma.Error400BadRequest(err.Error())
	case errors.Is(err, user.ErrAlreadyExists):
		return nil, huma.Error409Conflict("login already taken")
	case err != nil:
		h.log.Error("register", slog.Any("error", err))
		return nil, huma.Error500InternalServerError("registration failed")
	}

	return h.issueToken(ctx, userID)
}

func (h *Handler) login(ctx context.Context, input *credentialsInput) (*tokenOutput, error) {
	u, err := h.service.Authenticate(ctx, input.Body)
	switch {
	case errors.Is(err, user.ErrInvalidAuth):
		return nil, huma.Error401Unauthorized("invalid login or password")
	case err != nil:
		h.log.Error("login", slog.Any("error", err))
		return nil, huma.Error500InternalServerError("login failed")
	}

	return h.issueToken(ctx, u.ID)
}

func (h *Handler) logout(ctx context.Context, _ *struct{}) (*struct{}, error) {
	token, ok := auth.GetToken(ctx)
	if !ok {
		return nil, huma.Error401Unauthorized("Unauthorized")
	}
	if err := h.session.Revoke(ctx, token); err != nil {
		h.log.Error("logout", slog.Any("error", err))
		return nil, huma.Error500InternalServerError("logout failed")
	}
	return nil, nil
}

func (h *Handler) issueToken(ctx context.Context, userID int) (*tokenOutput, error) {
	token, err := h.session.Create(ctx, userID)
	if err != nil {
		h.log.Error("create session", slog.Int("user_id", userID), slog.Any("error", err))
		return nil, huma.Error500InternalServerError("session not created")
	}
	return &tokenOutput{Body: TokenResponse{UserID: userID, Token: token}}, nil
}
