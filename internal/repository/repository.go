package repository

import (
	"context"
	"time"

	"github.com/vyxlo/platform/internal/domain"
)

// UserRepository defines the interface for user persistence operations.
type UserRepository interface {
	// Create inserts a new user. A duplicate email fails with an
	// apperrors.ErrAlreadyExists error.
	Create(ctx context.Context, user *domain.User) error

	// GetByID retrieves a user by their unique identifier.
	GetByID(ctx context.Context, id string) (*domain.User, error)

	// GetByEmail retrieves a user by their normalized email address.
	GetByEmail(ctx context.Context, email string) (*domain.User, error)

	// UpdateLastLogin stamps the user's last successful login.
	UpdateLastLogin(ctx context.Context, id string, at time.Time) error
}

// OrganizationRepository defines the interface for organization persistence.
type OrganizationRepository interface {
	Create(ctx context.Context, org *domain.Organization) error
	GetByID(ctx context.Context, id string) (*domain.Organization, error)
}

// APIKeyRepository defines the interface for API key persistence.
type APIKeyRepository interface {
	// Create inserts a new key. Only the secret hash is stored.
	Create(ctx context.Context, key *domain.APIKey) error

	// GetActiveByID returns the key with the given public id unless it has
	// been revoked, in which case apperrors.ErrNotFound is returned.
	GetActiveByID(ctx context.Context, id string) (*domain.APIKey, error)

	// ListByOrganization returns every key of the organization, revoked ones
	// included, newest first.
	ListByOrganization(ctx context.Context, orgID string) ([]domain.APIKey, error)

	// Revoke sets the revocation timestamp of an active key owned by orgID.
	Revoke(ctx context.Context, orgID, id string, at time.Time) error
}

// SessionRepository defines the interface for session persistence.
type SessionRepository interface {
	Create(ctx context.Context, session *domain.Session) error

	// GetActive returns the session if it exists and expires after now.
	GetActive(ctx context.Context, id string, now time.Time) (*domain.Session, error)

	// DeleteByUserID removes every session of the user and reports how many
	// were removed.
	DeleteByUserID(ctx context.Context, userID string) (int64, error)
}

// AuditLogRepository appends audit entries. Entries are never updated.
type AuditLogRepository interface {
	Create(ctx context.Context, entry *domain.AuditLog) error
}

// Store groups the repositories and scopes them to a transaction.
type Store interface {
	Users() UserRepository
	Organizations() OrganizationRepository
	APIKeys() APIKeyRepository
	Sessions() SessionRepository
	AuditLogs() AuditLogRepository

	// WithinTx runs fn with a Store whose repositories share one
	// transaction. The transaction commits when fn returns nil and rolls
	// back otherwise.
	WithinTx(ctx context.Context, fn func(tx Store) error) error
}
