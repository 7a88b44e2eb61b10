package middleware

import (
	"log/slog"
	"net/http"

	"github.com/vyxlo/platform/pkg/logger"
)

// RequestLogger stores a request-scoped logger, enriched with correlation and
// trace fields, in the request context. Mount it after RequestLogging and
// Tracing. Authentication middleware further enriches it once the principal
// is known.
func RequestLogger(base *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			ctx = logger.NewContext(ctx, logger.WithContext(ctx, base))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
