package postgres

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/vyxlo/platform/internal/repository"
	"github.com/vyxlo/platform/pkg/database"
)

const uniqueViolationCode = "23505"

// Store implements repository.Store on top of a database.DBTX. The same
// Store type serves the pool and an open transaction.
type Store struct {
	db database.DBTX
}

// NewStore creates a PostgreSQL-backed store.
func NewStore(db database.DBTX) *Store {
	return &Store{db: db}
}

func (s *Store) Users() repository.UserRepository {
	return NewUserRepository(s.db)
}

func (s *Store) Organizations() repository.OrganizationRepository {
	return NewOrganizationRepository(s.db)
}

func (s *Store) APIKeys() repository.APIKeyRepository {
	return NewAPIKeyRepository(s.db)
}

func (s *Store) Sessions() repository.SessionRepository {
	return NewSessionRepository(s.db)
}

func (s *Store) AuditLogs() repository.AuditLogRepository {
	return NewAuditLogRepository(s.db)
}

// WithinTx runs fn against a Store bound to a single transaction.
func (s *Store) WithinTx(ctx context.Context, fn func(tx repository.Store) error) error {
	return database.WithTx(ctx, s.db, func(tx pgx.Tx) error {
		return fn(NewStore(tx))
	})
}

// isUniqueViolation checks if the error is a PostgreSQL unique constraint violation (SQLSTATE 23505).
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == uniqueViolationCode
	}
	return strings.Contains(err.Error(), uniqueViolationCode)
}
