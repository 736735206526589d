package handlers

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// HealthHandler отвечает на /healthz.
type HealthHandler struct {
	check  HealthFunc
	logger *zap.SugaredLogger
}

// NewHealthHandler создаёт хендлер проверки; nil check всегда ok.
func NewHealthHandler(check HealthFunc, logger *zap.SugaredLogger) *HealthHandler {
	return &HealthHandler{check: check, logger: logger}
}

func (h *HealthHandler) Check(w http.ResponseWriter, r *http.Request) {
	if h.check != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := h.check(ctx); err != nil {
			h.logger.Warnw("health check failed", "error", err)
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
