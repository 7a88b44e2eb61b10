package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/vyxlo/platform/internal/domain"
	"github.com/vyxlo/platform/internal/repository"
)

// AuditEntry describes an action to record. Empty IDs are stored as NULL.
type AuditEntry struct {
	Action         string
	ActorID        string
	OrganizationID string
	Metadata       map[string]any
}

// AuditRecorder appends audit rows.
type AuditRecorder struct {
	repo   repository.AuditLogRepository
	logger *slog.Logger
	now    func() time.Time
}

// NewAuditRecorder creates an audit recorder writing through repo.
func NewAuditRecorder(repo repository.AuditLogRepository, logger *slog.Logger) *AuditRecorder {
	return &AuditRecorder{
		repo:   repo,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Record appends one entry. A failed write is logged and counted but never
// returned: the operation being audited has already happened.
func (r *AuditRecorder) Record(ctx context.Context, entry AuditEntry) {
	if err := r.Append(ctx, r.repo, entry); err != nil {
		auditWriteFailuresTotal.Inc()
		r.logger.ErrorContext(ctx, "failed to record audit entry",
			slog.String("action", entry.Action),
			slog.String("actor_id", entry.ActorID),
			slog.String("error", err.Error()),
		)
	}
}

// Append writes entry through repo and returns any error. Registration uses
// it with a transaction-scoped repository so the row commits or rolls back
// with the rest of the registration.
func (r *AuditRecorder) Append(ctx context.Context, repo repository.AuditLogRepository, entry AuditEntry) error {
	metadata := entry.Metadata
	if metadata == nil {
		metadata = map[string]any{}
	}
	return repo.Create(ctx, &domain.AuditLog{
		ID:             uuid.New().String(),
		ActorID:        optional(entry.ActorID),
		OrganizationID: optional(entry.OrganizationID),
		Action:         entry.Action,
		Metadata:       metadata,
		CreatedAt:      r.now(),
	})
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
