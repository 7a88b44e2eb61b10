package middleware

import (
	"context"
	"errors"
	"net/http"
	"time"

	apperrors "github.com/vyxlo/platform/pkg/errors"
	"github.com/vyxlo/platform/pkg/httputil"
)

// Timeout cancels the request context after d. When the deadline passes
// before the handler has written anything, the client gets a 500
// internal_error envelope.
func Timeout(d time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithTimeout(r.Context(), d)
			defer cancel()

			rec := newStatusRecorder(w)
			next.ServeHTTP(rec, r.WithContext(ctx))

			if !rec.wroteHeader && errors.Is(ctx.Err(), context.DeadlineExceeded) {
				httputil.WriteFailure(w, http.StatusInternalServerError, apperrors.CodeInternal, "request timed out")
			}
		})
	}
}
