//Серверная сторона протокола пуша:
//прием батчей операций от терминалов точек продаж;
//идемпотентное применение по паре (request_id, seq_id);
//хранение документов коллекций в jsonb.

//GET  /api/health             # Проверка доступности (публичный)
//POST /api/{collection}/push  # Принять батч операций (auth)

package api

import (
	"log/slog"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"

	"possync/internal/app/server/api/http/middleware"
	"possync/internal/app/server/api/http/middleware/auth"
	"possync/internal/app/server/api/http/middleware/logger"
	"possync/internal/app/server/config"
	"possync/internal/domain/push"
	"possync/internal/infrastructure/storage/postgres"

	healthAPI "possync/internal/app/server/api/http/health"
	pushAPI "possync/internal/app/server/api/http/push"
)

type Handlers struct {
	Health *healthAPI.Handler
	Push   *pushAPI.Handler
}

// New создает *chi.Mux с ВСЕМИ операциями через huma.Register
func New(storage *postgres.Storage, cfg *config.Config, log *slog.Logger) *chi.Mux {
	mux := chi.NewMux()

	humaConfig := huma.DefaultConfig("PosSync API", "1.0.0")
	humaConfig.Components.SecuritySchemes = map[string]*huma.SecurityScheme{
		"bearer": {Type: "http", Scheme: "bearer"},
	}

	API := humachi.New(mux, humaConfig)

	h := handlers(storage, cfg, log)
	h.Health.SetupRoutes(API)
	h.Push.SetupRoutes(API)

	return mux
}

func handlers(storage *postgres.Storage, cfg *config.Config, log *slog.Logger) *Handlers {
	authMW := auth.New(cfg.Server.DeviceToken, log)
	loggerMW := logger.New(log)
	middlewares := middleware.NewContainer()

	middlewares.Add(loggerMW.Middleware())
	healthHandler := healthAPI.NewHandler(log, middlewares.GetAllAndClear())

	pushRepo := postgres.NewPushRepository(storage, log)
	pushService := push.NewService(pushRepo, log)
	middlewares.Add(authMW.Middleware())
	middlewares.Add(loggerMW.Middleware())
	pushHandler := pushAPI.NewHandler(pushService, log, middlewares.GetAllAndClear())

	return &Handlers{
		Health: healthHandler,
		Push:   pushHandler,
	}
}
