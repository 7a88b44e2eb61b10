package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/vyxlo/platform/internal/auth"
	"github.com/vyxlo/platform/internal/domain"
	"github.com/vyxlo/platform/internal/repository"
	apperrors "github.com/vyxlo/platform/pkg/errors"
	"github.com/vyxlo/platform/pkg/slug"
)

// Login failure messages. Unknown email and wrong password share one message
// so the response does not reveal which accounts exist.
const (
	msgInvalidCredentials = "invalid email or password"
	msgAccountDisabled    = "account is disabled"
)

// EventPublisher publishes auth domain events. Publishing is best effort.
type EventPublisher interface {
	PublishUserRegistered(ctx context.Context, user *domain.User, org *domain.Organization) error
	PublishUserLoggedIn(ctx context.Context, user *domain.User, session *domain.Session) error
	PublishUserLoggedOut(ctx context.Context, userID string, revokedSessions int64) error
}

// AuthService implements registration, login, logout and token refresh.
type AuthService struct {
	store    repository.Store
	hasher   *auth.PasswordHasher
	signer   *auth.TokenSigner
	sessions *SessionManager
	audit    *AuditRecorder
	events   EventPublisher
	logger   *slog.Logger
	now      func() time.Time
}

// NewAuthService creates a new auth service.
func NewAuthService(
	store repository.Store,
	hasher *auth.PasswordHasher,
	signer *auth.TokenSigner,
	sessions *SessionManager,
	audit *AuditRecorder,
	events EventPublisher,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		store:    store,
		hasher:   hasher,
		signer:   signer,
		sessions: sessions,
		audit:    audit,
		events:   events,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// --- Input/Output types ---

// RegisterInput holds the parameters for registering a new account.
type RegisterInput struct {
	Email     string
	Password  string
	Name      string
	OrgName   string
	IP        string
	UserAgent string
}

// RegisterResult is everything a registration creates. APIKeySecret is the
// only time the default key's plaintext is ever available.
type RegisterResult struct {
	User         *domain.User
	Organization *domain.Organization
	APIKey       *domain.APIKey
	APIKeySecret string
	Session      *domain.Session
	AccessToken  auth.AccessToken
}

// LoginInput holds the parameters for a login.
type LoginInput struct {
	Email     string
	Password  string
	IP        string
	UserAgent string
}

// LoginResult is the outcome of a successful login.
type LoginResult struct {
	User        *domain.User
	Session     *domain.Session
	AccessToken auth.AccessToken
}

// --- Operations ---

// Register creates a user, their organization, a default API key and the
// registration audit entry in one transaction, then opens a session and
// issues an access token.
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*RegisterResult, error) {
	email := domain.NormalizeEmail(input.Email)

	// Fast path only; the unique constraint on users.email is the real guard.
	if _, err := s.store.Users().GetByEmail(ctx, email); err == nil {
		authAttemptsTotal.WithLabelValues("register", outcomeFailure).Inc()
		return nil, apperrors.AlreadyExists(domain.MsgEmailRegistered)
	} else if !errors.Is(err, apperrors.ErrNotFound) {
		return nil, fmt.Errorf("check existing user: %w", err)
	}

	passwordHash, err := s.hasher.Hash(input.Password)
	if err != nil {
		return nil, err
	}
	generated, err := auth.GenerateAPIKey()
	if err != nil {
		return nil, err
	}
	secretHash, err := s.hasher.Hash(generated.Secret)
	if err != nil {
		return nil, fmt.Errorf("hash api key secret: %w", err)
	}

	now := s.now()
	user := &domain.User{
		ID:           uuid.New().String(),
		Email:        email,
		Name:         input.Name,
		PasswordHash: passwordHash,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	org := &domain.Organization{
		ID:        uuid.New().String(),
		Name:      input.OrgName,
		Slug:      slug.Generate(input.OrgName),
		OwnerID:   user.ID,
		Metadata:  map[string]any{},
		CreatedAt: now,
		UpdatedAt: now,
	}
	key := &domain.APIKey{
		ID:             generated.ID,
		OrganizationID: org.ID,
		Name:           domain.DefaultAPIKeyName,
		SecretHash:     secretHash,
		Scopes:         domain.DefaultAPIKeyScopes(),
		CreatedAt:      now,
	}

	err = s.store.WithinTx(ctx, func(tx repository.Store) error {
		if err := tx.Users().Create(ctx, user); err != nil {
			return err
		}
		if err := tx.Organizations().Create(ctx, org); err != nil {
			return err
		}
		if err := tx.APIKeys().Create(ctx, key); err != nil {
			return err
		}
		return s.audit.Append(ctx, tx.AuditLogs(), AuditEntry{
			Action:         domain.ActionUserRegistered,
			ActorID:        user.ID,
			OrganizationID: org.ID,
			Metadata:       map[string]any{"email": user.Email, "orgName": org.Name},
		})
	})
	if err != nil {
		outcome := outcomeError
		if errors.Is(err, apperrors.ErrAlreadyExists) {
			outcome = outcomeFailure
		}
		authAttemptsTotal.WithLabelValues("register", outcome).Inc()
		return nil, fmt.Errorf("register user: %w", err)
	}

	// The account is committed at this point. A failure below leaves it in
	// place and the caller recovers by logging in.
	session, err := s.sessions.Create(ctx, user.ID, input.IP, input.UserAgent)
	if err != nil {
		authAttemptsTotal.WithLabelValues("register", outcomeError).Inc()
		return nil, fmt.Errorf("open session for registered user: %w", err)
	}
	token, err := s.signer.Issue(user.ID, user.Email)
	if err != nil {
		authAttemptsTotal.WithLabelValues("register", outcomeError).Inc()
		return nil, fmt.Errorf("issue token for registered user: %w", err)
	}

	s.logger.InfoContext(ctx, "user registered",
		slog.String("user_id", user.ID),
		slog.String("organization_id", org.ID),
		slog.String("organization_slug", org.Slug),
	)
	authAttemptsTotal.WithLabelValues("register", outcomeSuccess).Inc()

	s.publish(ctx, "user.registered", func(ctx context.Context) error {
		return s.events.PublishUserRegistered(ctx, user, org)
	})

	return &RegisterResult{
		User:         user,
		Organization: org,
		APIKey:       key,
		APIKeySecret: generated.Token(),
		Session:      session,
		AccessToken:  token,
	}, nil
}

// Login verifies credentials and opens a new session.
func (s *AuthService) Login(ctx context.Context, input LoginInput) (*LoginResult, error) {
	email := domain.NormalizeEmail(input.Email)

	user, err := s.store.Users().GetByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			authAttemptsTotal.WithLabelValues("login", outcomeError).Inc()
			return nil, fmt.Errorf("find user by email: %w", err)
		}
		s.hasher.VerifyDummy(input.Password)
		authAttemptsTotal.WithLabelValues("login", outcomeFailure).Inc()
		return nil, apperrors.Unauthorized(msgInvalidCredentials)
	}

	if !s.hasher.Verify(input.Password, user.PasswordHash) {
		authAttemptsTotal.WithLabelValues("login", outcomeFailure).Inc()
		return nil, apperrors.Unauthorized(msgInvalidCredentials)
	}
	if !user.IsActive {
		authAttemptsTotal.WithLabelValues("login", outcomeFailure).Inc()
		return nil, apperrors.Unauthorized(msgAccountDisabled)
	}

	now := s.now()
	if err := s.store.Users().UpdateLastLogin(ctx, user.ID, now); err != nil {
		return nil, fmt.Errorf("update last login: %w", err)
	}
	user.LastLoginAt = &now
	user.UpdatedAt = now

	session, err := s.sessions.Create(ctx, user.ID, input.IP, input.UserAgent)
	if err != nil {
		return nil, err
	}
	token, err := s.signer.Issue(user.ID, user.Email)
	if err != nil {
		return nil, err
	}

	s.audit.Record(ctx, AuditEntry{
		Action:   domain.ActionUserLogin,
		ActorID:  user.ID,
		Metadata: map[string]any{"email": user.Email, "ip": input.IP},
	})
	authAttemptsTotal.WithLabelValues("login", outcomeSuccess).Inc()

	s.publish(ctx, "user.logged_in", func(ctx context.Context) error {
		return s.events.PublishUserLoggedIn(ctx, user, session)
	})

	return &LoginResult{User: user, Session: session, AccessToken: token}, nil
}

// Logout revokes every session of user. Access tokens already issued stay
// valid until they expire.
func (s *AuthService) Logout(ctx context.Context, user *domain.User) error {
	revoked, err := s.sessions.RevokeAll(ctx, user.ID)
	if err != nil {
		return err
	}

	s.audit.Record(ctx, AuditEntry{
		Action:  domain.ActionUserLogout,
		ActorID: user.ID,
	})
	s.logger.InfoContext(ctx, "user logged out",
		slog.String("user_id", user.ID),
		slog.Int64("revoked_sessions", revoked),
	)

	s.publish(ctx, "user.logged_out", func(ctx context.Context) error {
		return s.events.PublishUserLoggedOut(ctx, user.ID, revoked)
	})
	return nil
}

// Refresh issues a fresh access token for an authenticated user.
func (s *AuthService) Refresh(_ context.Context, user *domain.User) (auth.AccessToken, error) {
	return s.signer.Issue(user.ID, user.Email)
}

// GetSession returns one of user's active sessions. Sessions of other users
// are reported as not found.
func (s *AuthService) GetSession(ctx context.Context, user *domain.User, sessionID string) (*domain.Session, error) {
	session, ok, err := s.sessions.Find(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if !ok || session.UserID != user.ID {
		return nil, apperrors.NotFound("session", sessionID)
	}
	return session, nil
}

// publish runs fn and logs, but never returns, its failure.
func (s *AuthService) publish(ctx context.Context, eventType string, fn func(context.Context) error) {
	if s.events == nil {
		return
	}
	if err := fn(ctx); err != nil {
		eventPublishFailuresTotal.WithLabelValues(eventType).Inc()
		s.logger.WarnContext(ctx, "failed to publish auth event",
			slog.String("event_type", eventType),
			slog.String("error", err.Error()),
		)
	}
}
