// Package api собирает HTTP API сервера синхронизации.
//
//	GET    /api/v1/health         # Проверка доступности (публичный)
//	POST   /api/v1/auth/register  # Регистрация, возвращает токен (публичный)
//	POST   /api/v1/auth/login     # Вход, возвращает токен (публичный)
//	POST   /api/v1/auth/logout    # Отзыв токена (auth)
//	POST   /api/v1/sync/upload    # Слияние локальных изменений (auth)
//	GET    /api/v1/sync/download  # Полный снимок (auth)
//	DELETE /api/v1/sync/data      # Удаление всех данных (auth)
package api

import (
	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"golang.org/x/exp/slog"

	healthAPI "cashcraft/internal/app/server/api/http/health"
	"cashcraft/internal/app/server/api/http/middleware"
	"cashcraft/internal/app/server/api/http/middleware/auth"
	"cashcraft/internal/app/server/api/http/middleware/logger"
	syncAPI "cashcraft/internal/app/server/api/http/sync"
	userAPI "cashcraft/internal/app/server/api/http/user"
	"cashcraft/internal/app/server/config"
	"cashcraft/internal/domain/session"
	"cashcraft/internal/domain/sync"
	"cashcraft/internal/domain/user"
	"cashcraft/internal/infrastructure/storage/postgres"
)

// New создает *chi.Mux со всеми операциями, зарегистрированными через huma.Register
func New(storage *postgres.Storage, cfg *config.Config, log *slog.Logger) *chi.Mux {
	mux := chi.NewMux()
	mux.Use(chimw.RequestID, chimw.Recoverer)

	humaConfig := huma.DefaultConfig("Cashcraft Sync API", "1.0.0")
	humaConfig.Components.SecuritySchemes = map[string]*huma.SecurityScheme{
		"bearer": {Type: "http", Scheme: "bearer"},
	}

	API := humachi.New(mux, humaConfig)

	deps := Deps{
		DB:       storage,
		Users:    postgres.NewUserRepository(storage, log),
		Sessions: postgres.NewSessionRepository(storage, log),
		Snapshot: postgres.NewSnapshotRepository(storage, log),
	}
	Register(API, deps, cfg, log)

	return mux
}

// Deps хранилища, из которых собираются сервисы
type Deps struct {
	DB       healthAPI.Pinger
	Users    user.Repository
	Sessions session.Repository
	Snapshot sync.Repository
}

// Register регистрирует операции на готовом huma.API; используется и в тестах
func Register(API huma.API, deps Deps, cfg *config.Config, log *slog.Logger) {
	sessionService := session.NewService(deps.Sessions, cfg.Session.TTL, log)
	authMW := auth.New(API, sessionService, log)
	loggerMW := logger.New(log)
	middlewares := middleware.NewContainer()

	middlewares.Add(loggerMW.Middleware())
	healthAPI.NewHandler(deps.DB, log, middlewares.GetAllAndClear()).SetupRoutes(API)

	userService := user.NewService(deps.Users, user.NewValidator(), log)
	middlewares.Add(loggerMW.Middleware())
	public := middlewares.GetAllAndClear()
	middlewares.Add(loggerMW.Middleware(), authMW.Middleware())
	userAPI.NewHandler(userService, sessionService, log, public, middlewares.GetAllAndClear()).SetupRoutes(API)

	syncService := sync.NewService(deps.Snapshot, log)
	middlewares.Add(loggerMW.Middleware(), authMW.Middleware())
	syncAPI.NewHandler(syncService, log, middlewares.GetAllAndClear(), cfg.Server.MaxBodyBytes).SetupRoutes(API)
}
