package internal

import (
	"log/slog"
	"net/http"
	"time"

	"powder-inventory/internal/auth"
)

// RequestLogger logs one structured line per request. It must run inside the
// session middleware to see the user.
func RequestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rw := &statusRecorder{ResponseWriter: w, code: http.StatusOK}

			next.ServeHTTP(rw, r)

			attrs := []any{
				"method", r.Method,
				"path", r.URL.Path,
				"status", rw.code,
				"duration", time.Since(start),
			}
			if id := auth.IdentityFromContext(r.Context()); id != nil {
				attrs = append(attrs, "user", id.Email)
			}
			logger.Info("request", attrs...)
		})
	}
}
