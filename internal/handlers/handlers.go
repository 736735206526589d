package handlers

import (
	"context"

	"KinkLink/internal/config"
	"KinkLink/internal/hub"
	"KinkLink/internal/middleware"
	"KinkLink/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type Handler struct {
	Router chi.Router
}

// HealthFunc проверяет зависимости сервера (БД).
type HealthFunc func(ctx context.Context) error

// NewHandler разводящий для хендлеров
func NewHandler(
	userService *service.UserService,
	kinksterService *service.KinksterService,
	h *hub.Hub,
	health HealthFunc,
	logger *zap.SugaredLogger,
	config *config.Config,
) *Handler {
	r := chi.NewRouter()

	r.Use(middleware.WithGzip)
	r.Use(middleware.WithLogging)
	r.Use(middleware.WithAuth(config.AuthSecret))

	// обработчики
	userHandler := NewUserHandler(userService, kinksterService, logger, config)
	hubHandler := NewHubHandler(h, logger)

	// маршруты пользователя
	r.Post("/api/user/register", userHandler.Register)
	r.Post("/api/user/login", userHandler.Login)
	r.Post("/api/user/test", userHandler.Status)
	r.With(middleware.RequireAuth).Delete("/api/user", userHandler.Delete)

	// сокет хаба
	r.With(middleware.RequireAuth).Get("/hub", hubHandler.Connect)

	r.Get("/healthz", NewHealthHandler(health, logger).Check)

	return &Handler{Router: r}
}
