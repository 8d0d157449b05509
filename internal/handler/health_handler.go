package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

type HealthHandler struct {
	startedAt time.Time
	txLog     string
}

// NewHealthHandler reports the configured transaction log backend along
// with liveness.
func NewHealthHandler(txLog string) *HealthHandler {
	return &HealthHandler{
		startedAt: time.Now(),
		txLog:     txLog,
	}
}

func (h *HealthHandler) Check(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":         "ok",
		"timestamp":      time.Now().Format(time.RFC3339),
		"uptime_seconds": int64(time.Since(h.startedAt).Seconds()),
		"tx_log":         h.txLog,
	})
}
