package postgres

import (
	"context"
	"fmt"

	"github.com/vyxlo/platform/internal/domain"
	"github.com/vyxlo/platform/pkg/database"
)

// AuditLogRepository implements repository.AuditLogRepository using PostgreSQL.
type AuditLogRepository struct {
	db database.DBTX
}

// NewAuditLogRepository creates a new PostgreSQL-backed audit log repository.
func NewAuditLogRepository(db database.DBTX) *AuditLogRepository {
	return &AuditLogRepository{db: db}
}

// Create appends an audit entry.
func (r *AuditLogRepository) Create(ctx context.Context, a *domain.AuditLog) (err error) {
	query := `
		INSERT INTO audit_logs (id, actor_id, organization_id, action, metadata, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`

	ctx, end := database.TraceQuery(ctx, "audit_logs.create", query)
	defer func() { end(err) }()

	metadataJSON, err := marshalMetadata(a.Metadata)
	if err != nil {
		return err
	}

	_, err = r.db.Exec(ctx, query,
		a.ID,
		a.ActorID,
		a.OrganizationID,
		a.Action,
		metadataJSON,
		a.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert audit log: %w", err)
	}

	return nil
}
