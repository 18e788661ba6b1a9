package controllers

import (
	"context"
	"net/http"

	"github.com/shoplane/shoplane-backend/api/responses"
	pkgerrors "github.com/shoplane/shoplane-backend/pkg/errors"
	"github.com/shoplane/shoplane-backend/pkg/logger"
)

// Pinger is implemented by backends that can report reachability.
type Pinger interface {
	Ping(ctx context.Context) error
}

func HealthLive() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady reports ready only when every registered backend responds.
func HealthReady(logg *logger.Logger, backends map[string]Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		checks := make(map[string]string, len(backends))
		healthy := true
		for name, backend := range backends {
			if backend == nil {
				checks[name] = "unconfigured"
				healthy = false
				continue
			}
			if err := backend.Ping(r.Context()); err != nil {
				if logg != nil {
					logg.Warn(logg.WithField(r.Context(), "backend", name), "readiness check failed")
				}
				checks[name] = "unreachable"
				healthy = false
				continue
			}
			checks[name] = "ok"
		}

		if !healthy {
			err := pkgerrors.New(pkgerrors.CodeDependency, "service not ready").WithDetails(checks)
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"status": "ready", "checks": checks})
	}
}
