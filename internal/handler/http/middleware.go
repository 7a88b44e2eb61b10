package http

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/vyxlo/platform/internal/domain"
	"github.com/vyxlo/platform/internal/service"
	apperrors "github.com/vyxlo/platform/pkg/errors"
	"github.com/vyxlo/platform/pkg/httputil"
	"github.com/vyxlo/platform/pkg/logger"
)

type principalKey struct{}

// PrincipalFromContext returns the principal stored by Authenticate, or
// domain.Anonymous.
func PrincipalFromContext(ctx context.Context) domain.Principal {
	if p, ok := ctx.Value(principalKey{}).(domain.Principal); ok {
		return p
	}
	return domain.Anonymous
}

func withPrincipal(ctx context.Context, p domain.Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// Authenticate resolves the caller from the session cookie or the
// Authorization header and stores the principal in the request context. It
// never rejects a request on its own; anonymous callers pass through and
// route-level guards decide. A store failure during resolution is answered
// with internal_error.
func Authenticate(resolver *service.IdentityResolver, fallback *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			creds := service.Credentials{Authorization: r.Header.Get("Authorization")}
			if c, err := r.Cookie(SessionCookieName); err == nil {
				creds.SessionCookie = c.Value
			}

			p, err := resolver.Resolve(r.Context(), creds)
			if err != nil {
				httputil.WriteError(w, r, err, fallback)
				return
			}

			ctx := withPrincipal(r.Context(), p)
			l := logger.FromContext(ctx)
			switch {
			case p.IsUser():
				ctx = logger.WithUserID(ctx, p.User.ID)
				l = l.With(slog.String("user_id", p.User.ID))
			case p.IsOrganization():
				ctx = logger.WithOrganizationID(ctx, p.OrganizationID)
				l = l.With(slog.String("organization_id", p.OrganizationID))
			}
			ctx = logger.NewContext(ctx, l)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireUser rejects requests that did not authenticate as a user.
func RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !PrincipalFromContext(r.Context()).IsUser() {
			httputil.WriteFailure(w, http.StatusUnauthorized, apperrors.CodeUnauthorized, "authentication required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireAPIKey rejects requests that did not authenticate with an API key.
// A logged-in user is not enough.
func RequireAPIKey(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !PrincipalFromContext(r.Context()).IsOrganization() {
			httputil.WriteFailure(w, http.StatusUnauthorized, apperrors.CodeUnauthorized, "valid api key required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// currentUser returns the authenticated user. Only valid behind RequireUser.
func currentUser(r *http.Request) *domain.User {
	return PrincipalFromContext(r.Context()).User
}
