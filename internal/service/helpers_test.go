package service

import (
	"bytes"
	"context"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/vyxlo/platform/internal/auth"
	"github.com/vyxlo/platform/internal/domain"
	"github.com/vyxlo/platform/internal/repository/memory"
)

const testJWTSecret = "test-secret-that-is-at-least-32-bytes-long"

// --- Mock Event Publisher ---

type mockEventPublisher struct {
	mock.Mock
}

func (m *mockEventPublisher) PublishUserRegistered(ctx context.Context, user *domain.User, org *domain.Organization) error {
	args := m.Called(ctx, user, org)
	return args.Error(0)
}

func (m *mockEventPublisher) PublishUserLoggedIn(ctx context.Context, user *domain.User, session *domain.Session) error {
	args := m.Called(ctx, user, session)
	return args.Error(0)
}

func (m *mockEventPublisher) PublishUserLoggedOut(ctx context.Context, userID string, revoked int64) error {
	args := m.Called(ctx, userID, revoked)
	return args.Error(0)
}

// --- Clock ---

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

// --- Environment ---

type testEnv struct {
	store    *memory.Store
	clock    *fakeClock
	hasher   *auth.PasswordHasher
	signer   *auth.TokenSigner
	sessions *SessionManager
	audit    *AuditRecorder
	events   *mockEventPublisher
	auth     *AuthService
	apiKeys  *APIKeyService
	resolver *IdentityResolver
	logs     *bytes.Buffer
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	clock := newFakeClock()
	store := memory.NewStore()
	logs := &bytes.Buffer{}
	logger := slog.New(slog.NewJSONHandler(logs, nil))

	hasher, err := auth.NewPasswordHasher(bcrypt.MinCost)
	require.NoError(t, err)
	signer, err := auth.NewTokenSigner(testJWTSecret, auth.WithClock(clock.Now))
	require.NoError(t, err)

	sessions := NewSessionManager(store.Sessions(), domain.SessionTTL)
	sessions.now = clock.Now
	audit := NewAuditRecorder(store.AuditLogs(), logger)
	audit.now = clock.Now
	events := &mockEventPublisher{}

	authSvc := NewAuthService(store, hasher, signer, sessions, audit, events, logger)
	authSvc.now = clock.Now
	keySvc := NewAPIKeyService(store, hasher, audit, logger)
	keySvc.now = clock.Now

	return &testEnv{
		store:    store,
		clock:    clock,
		hasher:   hasher,
		signer:   signer,
		sessions: sessions,
		audit:    audit,
		events:   events,
		auth:     authSvc,
		apiKeys:  keySvc,
		resolver: NewIdentityResolver(store.Users(), store.APIKeys(), signer, hasher),
		logs:     logs,
	}
}

func (e *testEnv) allowEvents() {
	e.events.On("PublishUserRegistered", mock.Anything, mock.Anything, mock.Anything).Return(nil).Maybe()
	e.events.On("PublishUserLoggedIn", mock.Anything, mock.Anything, mock.Anything).Return(nil).Maybe()
	e.events.On("PublishUserLoggedOut", mock.Anything, mock.Anything, mock.Anything).Return(nil).Maybe()
}

func (e *testEnv) register(t *testing.T, email string) *RegisterResult {
	t.Helper()
	res, err := e.auth.Register(context.Background(), RegisterInput{
		Email:    email,
		Password: "longenough1",
		Name:     "A",
		OrgName:  "My Org!",
	})
	require.NoError(t, err)
	return res
}
