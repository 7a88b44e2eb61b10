package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/vyxlo/platform/internal/auth"
	"github.com/vyxlo/platform/internal/domain"
	"github.com/vyxlo/platform/internal/event"
	"github.com/vyxlo/platform/internal/repository/memory"
	"github.com/vyxlo/platform/internal/service"
	"github.com/vyxlo/platform/pkg/health"
	"github.com/vyxlo/platform/pkg/httputil"
	pkgkafka "github.com/vyxlo/platform/pkg/kafka"
	"github.com/vyxlo/platform/pkg/middleware"
)

const testJWTSecret = "handler-test-secret-at-least-32-bytes"

// recordingPublisher captures events instead of writing them to Kafka.
type recordingPublisher struct {
	mu     sync.Mutex
	events []*pkgkafka.Event
}

func (p *recordingPublisher) Publish(_ context.Context, _ string, e *pkgkafka.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return nil
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.EventType)
	}
	return out
}

type testServer struct {
	router    http.Handler
	store     *memory.Store
	resolver  *service.IdentityResolver
	published *recordingPublisher
	health    *health.Handler
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := memory.NewStore()

	hasher, err := auth.NewPasswordHasher(bcrypt.MinCost)
	require.NoError(t, err)
	signer, err := auth.NewTokenSigner(testJWTSecret)
	require.NoError(t, err)

	published := &recordingPublisher{}
	producer := event.NewProducer(published, "vyxlo.identity.auth", logger)

	sessions := service.NewSessionManager(store.Sessions(), domain.SessionTTL)
	audit := service.NewAuditRecorder(store.AuditLogs(), logger)

	svc := Services{
		Auth:     service.NewAuthService(store, hasher, signer, sessions, audit, producer, logger),
		APIKeys:  service.NewAPIKeyService(store, hasher, audit, logger),
		Resolver: service.NewIdentityResolver(store.Users(), store.APIKeys(), signer, hasher),
	}

	healthHandler := health.NewHandler("test")
	cfg := RouterConfig{
		CORS:           middleware.DefaultCORSConfig(),
		Cookie:         CookieConfig{Secure: true, MaxAge: auth.AccessTokenTTL},
		RequestTimeout: 5 * time.Second,
	}

	return &testServer{
		router:    NewRouter(svc, healthHandler, logger, cfg),
		store:     store,
		resolver:  svc.Resolver,
		published: published,
		health:    healthHandler,
	}
}

type requestOption func(*http.Request)

func withCookie(token string) requestOption {
	return func(r *http.Request) {
		r.AddCookie(&http.Cookie{Name: SessionCookieName, Value: token})
	}
}

func withAuthorization(value string) requestOption {
	return func(r *http.Request) { r.Header.Set("Authorization", value) }
}

func (s *testServer) do(t *testing.T, method, path string, body any, opts ...requestOption) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for _, opt := range opts {
		opt(req)
	}

	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

// envelope mirrors httputil.Response with the payload left undecoded.
type envelope struct {
	Success bool                    `json:"success"`
	Data    json.RawMessage         `json:"data"`
	Error   *httputil.ErrorResponse `json:"error"`
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, data any) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&env))
	if data != nil {
		require.True(t, env.Success, "expected success envelope, got %+v", env.Error)
		require.NoError(t, json.Unmarshal(env.Data, data))
	}
	return env
}

func sessionCookie(rec *httptest.ResponseRecorder) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == SessionCookieName {
			return c
		}
	}
	return nil
}

func (s *testServer) register(t *testing.T, email string) RegisterResponse {
	t.Helper()
	rec := s.do(t, http.MethodPost, "/api/v1/auth/register", map[string]string{
		"email":    email,
		"password": "longenough1",
		"name":     "Ada",
		"orgName":  "My Org!",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var res RegisterResponse
	decode(t, rec, &res)
	return res
}
