package controllers

import (
	"context"
	"net/http"

	"github.com/blackbass-labs/blackbass-backend/api/responses"
	"github.com/blackbass-labs/blackbass-backend/pkg/config"
	pkgerrors "github.com/blackbass-labs/blackbass-backend/pkg/errors"
	"github.com/blackbass-labs/blackbass-backend/pkg/logger"
	"github.com/blackbass-labs/blackbass-backend/pkg/redis"
)

type dbPinger interface {
	Ping(ctx context.Context) error
}

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-BlackBass-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady reports readiness only when the stateful dependencies answer.
func HealthReady(cfg *config.Config, logg *logger.Logger, db dbPinger, cache redis.Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-BlackBass-Env", cfg.App.Env)

		if db != nil {
			if err := db.Ping(r.Context()); err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "database unavailable"))
				return
			}
		}
		if cache != nil {
			if err := cache.Ping(r.Context()); err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "redis unavailable"))
				return
			}
		}

		responses.WriteSuccess(w, map[string]string{"status": "ready"})
	}
}
