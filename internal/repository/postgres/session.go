package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/vyxlo/platform/internal/domain"
	"github.com/vyxlo/platform/pkg/database"
	apperrors "github.com/vyxlo/platform/pkg/errors"
)

// SessionRepository implements repository.SessionRepository using PostgreSQL.
type SessionRepository struct {
	db database.DBTX
}

// NewSessionRepository creates a new PostgreSQL-backed session repository.
func NewSessionRepository(db database.DBTX) *SessionRepository {
	return &SessionRepository{db: db}
}

// Create inserts a new session.
func (r *SessionRepository) Create(ctx context.Context, s *domain.Session) (err error) {
	query := `
		INSERT INTO sessions (id, user_id, created_at, expires_at, ip, user_agent)
		VALUES ($1, $2, $3, $4, $5, $6)`

	ctx, end := database.TraceQuery(ctx, "sessions.create", query)
	defer func() { end(err) }()

	_, err = r.db.Exec(ctx, query,
		s.ID,
		s.UserID,
		s.CreatedAt,
		s.ExpiresAt,
		s.IP,
		s.UserAgent,
	)
	if err != nil {
		return fmt.Errorf("insert session: %w", err)
	}

	return nil
}

// GetActive retrieves a session that has not expired at now. Expired rows
// are reported as not found.
func (r *SessionRepository) GetActive(ctx context.Context, id string, now time.Time) (s *domain.Session, err error) {
	query := `
		SELECT id, user_id, created_at, expires_at, ip, user_agent
		FROM sessions
		WHERE id = $1 AND expires_at > $2`

	ctx, end := database.TraceQuery(ctx, "sessions.get_active", query)
	defer func() { end(ignoreNotFound(err)) }()

	var sess domain.Session
	err = r.db.QueryRow(ctx, query, id, now).Scan(
		&sess.ID,
		&sess.UserID,
		&sess.CreatedAt,
		&sess.ExpiresAt,
		&sess.IP,
		&sess.UserAgent,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("scan session: %w", err)
	}

	return &sess, nil
}

// DeleteByUserID removes every session belonging to the user.
func (r *SessionRepository) DeleteByUserID(ctx context.Context, userID string) (n int64, err error) {
	query := `DELETE FROM sessions WHERE user_id = $1`

	ctx, end := database.TraceQuery(ctx, "sessions.delete_by_user_id", query)
	defer func() { end(err) }()

	tag, err := r.db.Exec(ctx, query, userID)
	if err != nil {
		return 0, fmt.Errorf("delete sessions: %w", err)
	}
	return tag.RowsAffected(), nil
}
