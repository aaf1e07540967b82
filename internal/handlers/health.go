package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/m1z23r/drift/pkg/drift"
)

const healthTimeout = 2 * time.Second

type HealthHandler struct {
	db Pinger
}

func NewHealthHandler(db Pinger) *HealthHandler {
	return &HealthHandler{db: db}
}

func (h *HealthHandler) Health(c *drift.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), healthTimeout)
	defer cancel()

	if err := h.db.Ping(ctx); err != nil {
		slog.Error("health check failed", slog.String("error", err.Error()))
		_ = c.JSON(http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	_ = c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}
