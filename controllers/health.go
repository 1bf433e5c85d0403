package controllers

import (
	"context"
	"log/slog"
	"net/http"

	"go-ecommerce/utils"
)

// HealthController reports whether the database is reachable.
type HealthController struct {
	ping func(ctx context.Context) error
	log  *slog.Logger
}

func NewHealthController(ping func(ctx context.Context) error, log *slog.Logger) *HealthController {
	return &HealthController{ping: ping, log: log}
}

func (hc *HealthController) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := requestContext(r)
	defer cancel()

	if err := hc.ping(ctx); err != nil {
		hc.log.Warn("health check failed", slog.Any("err", err))
		utils.Fail(w, http.StatusServiceUnavailable, "Database unavailable")
		return
	}

	utils.OK(w, map[string]string{"status": "ok"})
}
