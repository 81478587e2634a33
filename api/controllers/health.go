package controllers

import (
	"context"
	"net/http"

	"github.com/quayline/stockdesk-backend/api/responses"
	"github.com/quayline/stockdesk-backend/pkg/config"
	"github.com/quayline/stockdesk-backend/pkg/draftdb"
	"github.com/quayline/stockdesk-backend/pkg/logger"
	pkgredis "github.com/quayline/stockdesk-backend/pkg/redis"
)

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Stockdesk-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady checks the local dependencies. The upstream inventory
// backend is deliberately excluded: the gateway is "ready" as soon as it
// can serve, upstream trouble surfaces per request.
func HealthReady(cfg *config.Config, logg *logger.Logger, draftDB draftdb.Pinger, redisClient pkgredis.Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Stockdesk-Env", cfg.App.Env)

		checks := map[string]string{}
		healthy := true

		checks["draft_db"] = pingStatus(r.Context(), draftDB.Ping, &healthy)
		if redisClient != nil {
			checks["redis"] = pingStatus(r.Context(), redisClient.Ping, &healthy)
		}

		if !healthy {
			if logg != nil {
				logg.Warn(r.Context(), "readiness check failed")
			}
			responses.WriteSuccessStatus(w, http.StatusServiceUnavailable, checks)
			return
		}
		responses.WriteSuccess(w, checks)
	}
}

func pingStatus(ctx context.Context, ping func(context.Context) error, healthy *bool) string {
	if err := ping(ctx); err != nil {
		*healthy = false
		return "down"
	}
	return "up"
}
