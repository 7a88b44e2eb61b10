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

const apiKeyColumns = `id, organization_id, name, secret_hash, scopes, created_at, revoked_at`

// APIKeyRepository implements repository.APIKeyRepository using PostgreSQL.
type APIKeyRepository struct {
	db database.DBTX
}

// NewAPIKeyRepository creates a new PostgreSQL-backed API key repository.
func NewAPIKeyRepository(db database.DBTX) *APIKeyRepository {
	return &APIKeyRepository{db: db}
}

// Create inserts a new API key.
func (r *APIKeyRepository) Create(ctx context.Context, k *domain.APIKey) (err error) {
	query := `
		INSERT INTO api_keys (id, organization_id, name, secret_hash, scopes, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`

	ctx, end := database.TraceQuery(ctx, "api_keys.create", query)
	defer func() { end(err) }()

	scopes := k.Scopes
	if scopes == nil {
		scopes = []string{}
	}

	_, err = r.db.Exec(ctx, query,
		k.ID,
		k.OrganizationID,
		k.Name,
		k.SecretHash,
		scopes,
		k.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert api key: %w", err)
	}

	return nil
}

// GetActiveByID retrieves a non-revoked key by its public id.
func (r *APIKeyRepository) GetActiveByID(ctx context.Context, id string) (k *domain.APIKey, err error) {
	query := `SELECT ` + apiKeyColumns + ` FROM api_keys WHERE id = $1 AND revoked_at IS NULL`

	ctx, end := database.TraceQuery(ctx, "api_keys.get_active_by_id", query)
	defer func() { end(ignoreNotFound(err)) }()

	return scanAPIKey(r.db.QueryRow(ctx, query, id))
}

// ListByOrganization returns all keys of an organization, newest first.
func (r *APIKeyRepository) ListByOrganization(ctx context.Context, orgID string) (keys []domain.APIKey, err error) {
	query := `SELECT ` + apiKeyColumns + ` FROM api_keys WHERE organization_id = $1 ORDER BY created_at DESC`

	ctx, end := database.TraceQuery(ctx, "api_keys.list_by_organization", query)
	defer func() { end(err) }()

	rows, err := r.db.Query(ctx, query, orgID)
	if err != nil {
		return nil, fmt.Errorf("list api keys: %w", err)
	}
	defer rows.Close()

	keys = []domain.APIKey{}
	for rows.Next() {
		k, err := scanAPIKey(rows)
		if err != nil {
			return nil, err
		}
		keys = append(keys, *k)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate api keys: %w", err)
	}

	return keys, nil
}

// Revoke marks an active key of the organization as revoked.
func (r *APIKeyRepository) Revoke(ctx context.Context, orgID, id string, at time.Time) (err error) {
	query := `
		UPDATE api_keys SET revoked_at = $3
		WHERE id = $1 AND organization_id = $2 AND revoked_at IS NULL`

	ctx, end := database.TraceQuery(ctx, "api_keys.revoke", query)
	defer func() { end(ignoreNotFound(err)) }()

	tag, err := r.db.Exec(ctx, query, id, orgID, at)
	if err != nil {
		return fmt.Errorf("revoke api key: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func scanAPIKey(row pgx.Row) (*domain.APIKey, error) {
	var k domain.APIKey
	err := row.Scan(
		&k.ID,
		&k.OrganizationID,
		&k.Name,
		&k.SecretHash,
		&k.Scopes,
		&k.CreatedAt,
		&k.RevokedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("scan api key: %w", err)
	}
	return &k, nil
}
