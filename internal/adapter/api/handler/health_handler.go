package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"sellnext/pkg/logger"
)

// StorePinger checks that the backing store answers.
type StorePinger func(ctx context.Context) error

type HealthHandler struct {
	store   string
	ping    StorePinger
	started time.Time
}

func NewHealthHandler(store string, ping StorePinger) *HealthHandler {
	return &HealthHandler{
		store:   store,
		ping:    ping,
		started: time.Now(),
	}
}

func (h *HealthHandler) CheckHealth(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 3*time.Second)
	defer cancel()

	body := map[string]interface{}{
		"status": "OK",
		"store":  h.store,
		"uptime": time.Since(h.started).Round(time.Second).String(),
		"time":   time.Now().UTC().Format(time.RFC3339),
	}

	if h.ping != nil {
		if err := h.ping(ctx); err != nil {
			logger.Error("Health check: %s store unreachable: %v", h.store, err)
			body["status"] = "DEGRADED"
			body["error"] = "store unreachable"
			return c.JSON(http.StatusServiceUnavailable, body)
		}
	}

	return c.JSON(http.StatusOK, body)
}
