package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vyxlo/platform/internal/service"
	"github.com/vyxlo/platform/pkg/health"
	"github.com/vyxlo/platform/pkg/middleware"
)

// ServiceName labels metrics, traces and logs emitted by the router.
const ServiceName = "identity"

// RouterConfig holds the HTTP-level settings of the router.
type RouterConfig struct {
	CORS           middleware.CORSConfig
	Cookie         CookieConfig
	RequestTimeout time.Duration
}

// Services groups the application services the routes call into.
type Services struct {
	Auth     *service.AuthService
	APIKeys  *service.APIKeyService
	Resolver *service.IdentityResolver
}

// NewRouter creates a chi router with all identity routes registered.
func NewRouter(svc Services, healthHandler *health.Handler, logger *slog.Logger, cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.CORS(cfg.CORS))
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.RequestLogging(logger))
	r.Use(middleware.Tracing(ServiceName))
	r.Use(middleware.RequestLogger(logger))
	r.Use(middleware.PrometheusMetrics(ServiceName))

	// Health check endpoints
	r.Get("/health/live", healthHandler.Liveness)
	r.Get("/health/ready", healthHandler.Readiness)
	r.Handle("/metrics", promhttp.Handler())

	authHandler := NewAuthHandler(svc.Auth, cfg.Cookie, logger)
	keyHandler := NewAPIKeyHandler(svc.APIKeys, logger)

	r.Route("/api/v1", func(r chi.Router) {
		if cfg.RequestTimeout > 0 {
			r.Use(middleware.Timeout(cfg.RequestTimeout))
		}
		r.Use(Authenticate(svc.Resolver, logger))

		r.Get("/health", healthHandler.Status)

		// Public auth endpoints
		r.Post("/auth/register", authHandler.Register)
		r.Post("/auth/login", authHandler.Login)

		// Session-authenticated endpoints
		r.Group(func(r chi.Router) {
			r.Use(RequireUser)

			r.Post("/auth/logout", authHandler.Logout)
			r.Post("/auth/refresh", authHandler.Refresh)
			r.Get("/auth/sessions/{sessionID}", authHandler.GetSession)

			r.Get("/users/me", GetMe)

			r.Get("/organizations/{orgID}/api-keys", keyHandler.List)
			r.Post("/organizations/{orgID}/api-keys", keyHandler.Create)
			r.Delete("/organizations/{orgID}/api-keys/{keyID}", keyHandler.Revoke)
		})

		// API-key-authenticated endpoints
		r.Group(func(r chi.Router) {
			r.Use(RequireAPIKey)

			r.Get("/organizations/current", keyHandler.CurrentOrganization)
		})
	})

	return r
}
