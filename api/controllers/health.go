package controllers

import (
	"net/http"

	"github.com/farhanmajid/bazario-backend/api/responses"
	"github.com/farhanmajid/bazario-backend/pkg/config"
	"github.com/farhanmajid/bazario-backend/pkg/db"
	pkgerrors "github.com/farhanmajid/bazario-backend/pkg/errors"
	"github.com/farhanmajid/bazario-backend/pkg/logger"
	pkgredis "github.com/farhanmajid/bazario-backend/pkg/redis"
)

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Bazario-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady reports ready only when both backing stores answer.
func HealthReady(cfg *config.Config, database db.Pinger, cache pkgredis.Pinger, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Bazario-Env", cfg.App.Env)

		if database != nil {
			if err := database.Ping(r.Context()); err != nil {
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
