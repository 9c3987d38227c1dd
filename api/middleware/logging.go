package middleware

import (
	"net/http"
	"time"

	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

// Logging emits one request.complete line after the handler returns. 5xx
// responses log at warn.
func Logging(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if logg == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			started := time.Now()
			ctx := logg.WithFields(r.Context(), map[string]any{
				"method": r.Method,
				"path":   r.URL.Path,
			})
			cw, sent := capture(w)

			next.ServeHTTP(cw, r.WithContext(ctx))

			done := logg.WithFields(ctx, map[string]any{
				"status":      sent.code(),
				"bytes":       sent.bytes,
				"duration_ms": time.Since(started).Milliseconds(),
				"remote_ip":   clientIP(r),
				"route":       routePattern(r),
			})
			if sent.code() >= http.StatusInternalServerError {
				logg.Warn(done, "request.complete")
			} else {
				logg.Info(done, "request.complete")
			}
		})
	}
}
