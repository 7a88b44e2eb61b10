package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/vyxlo/platform/internal/domain"
	"github.com/vyxlo/platform/pkg/database"
	apperrors "github.com/vyxlo/platform/pkg/errors"
)

// OrganizationRepository implements repository.OrganizationRepository using PostgreSQL.
type OrganizationRepository struct {
	db database.DBTX
}

// NewOrganizationRepository creates a new PostgreSQL-backed organization repository.
func NewOrganizationRepository(db database.DBTX) *OrganizationRepository {
	return &OrganizationRepository{db: db}
}

// Create inserts a new organization.
func (r *OrganizationRepository) Create(ctx context.Context, o *domain.Organization) (err error) {
	query := `
		INSERT INTO organizations (id, name, slug, owner_id, metadata, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	ctx, end := database.TraceQuery(ctx, "organizations.create", query)
	defer func() { end(err) }()

	metadataJSON, err := marshalMetadata(o.Metadata)
	if err != nil {
		return err
	}

	_, err = r.db.Exec(ctx, query,
		o.ID,
		o.Name,
		o.Slug,
		o.OwnerID,
		metadataJSON,
		o.CreatedAt,
		o.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert organization: %w", err)
	}

	return nil
}

// GetByID retrieves an organization by its ID.
func (r *OrganizationRepository) GetByID(ctx context.Context, id string) (o *domain.Organization, err error) {
	query := `
		SELECT id, name, slug, owner_id, metadata, created_at, updated_at
		FROM organizations
		WHERE id = $1`

	ctx, end := database.TraceQuery(ctx, "organizations.get_by_id", query)
	defer func() { end(ignoreNotFound(err)) }()

	var (
		org          domain.Organization
		metadataJSON []byte
	)
	err = r.db.QueryRow(ctx, query, id).Scan(
		&org.ID,
		&org.Name,
		&org.Slug,
		&org.OwnerID,
		&metadataJSON,
		&org.CreatedAt,
		&org.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("scan organization: %w", err)
	}

	if org.Metadata, err = unmarshalMetadata(metadataJSON); err != nil {
		return nil, err
	}

	return &org, nil
}

func marshalMetadata(m map[string]any) ([]byte, error) {
	if m == nil {
		m = map[string]any{}
	}
	data, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("marshal metadata: %w", err)
	}
	return data, nil
}

func unmarshalMetadata(data []byte) (map[string]any, error) {
	m := map[string]any{}
	if len(data) == 0 {
		return m, nil
	}
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("unmarshal metadata: %w", err)
	}
	return m, nil
}
