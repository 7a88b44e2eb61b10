package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/vyxlo/platform/internal/domain"
	"github.com/vyxlo/platform/internal/repository"
	apperrors "github.com/vyxlo/platform/pkg/errors"
)

// SessionManager owns the server-side session lifecycle. Sessions are
// independent of access tokens: revoking them does not invalidate tokens
// that were already issued.
type SessionManager struct {
	repo repository.SessionRepository
	ttl  time.Duration
	now  func() time.Time
}

// NewSessionManager creates a session manager. A non-positive ttl falls back
// to domain.SessionTTL.
func NewSessionManager(repo repository.SessionRepository, ttl time.Duration) *SessionManager {
	if ttl <= 0 {
		ttl = domain.SessionTTL
	}
	return &SessionManager{
		repo: repo,
		ttl:  ttl,
		now:  func() time.Time { return time.Now().UTC() },
	}
}

// Create records a new session for userID. Empty ip or userAgent are stored
// as NULL.
func (m *SessionManager) Create(ctx context.Context, userID, ip, userAgent string) (*domain.Session, error) {
	now := m.now()
	session := &domain.Session{
		ID:        uuid.New().String(),
		UserID:    userID,
		CreatedAt: now,
		ExpiresAt: now.Add(m.ttl),
		IP:        optional(ip),
		UserAgent: optional(userAgent),
	}

	if err := m.repo.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	return session, nil
}

// Find returns the session if it exists and has not expired. Missing and
// expired sessions both report false with a nil error.
func (m *SessionManager) Find(ctx context.Context, sessionID string) (*domain.Session, bool, error) {
	session, err := m.repo.GetActive(ctx, sessionID, m.now())
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("find session: %w", err)
	}
	return session, true, nil
}

// RevokeAll deletes every session of userID and reports how many were
// removed. Sessions of other users are untouched.
func (m *SessionManager) RevokeAll(ctx context.Context, userID string) (int64, error) {
	n, err := m.repo.DeleteByUserID(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("revoke sessions: %w", err)
	}
	return n, nil
}
