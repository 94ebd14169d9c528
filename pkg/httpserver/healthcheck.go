package httpserver

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/dmitrymomot/linkme/pkg/logger"
)

// HealthCheckHandler answers liveness probes with "ALIVE". When checks are
// given it becomes a readiness probe answering "READY", or 503 "NOT_READY"
// as soon as one check fails.
func HealthCheckHandler(log *slog.Logger, checks ...func(context.Context) error) http.HandlerFunc {
	if log == nil {
		log = logger.Nop()
	}
	return func(w http.ResponseWriter, r *http.Request) {
		if len(checks) == 0 {
			_, _ = w.Write([]byte("ALIVE"))
			return
		}
		for _, check := range checks {
			if err := check(r.Context()); err != nil {
				log.WarnContext(r.Context(), "readiness check failed", logger.Error(err))
				w.WriteHeader(http.StatusServiceUnavailable)
				_, _ = w.Write([]byte("NOT_READY"))
				return
			}
		}
		_, _ = w.Write([]byte("READY"))
	}
}
