package domain

import "time"

// Audit actions.
const (
	ActionUserRegistered = "user.registered"
	ActionUserLogin      = "user.login"
	ActionUserLogout     = "user.logout"
	ActionAPIKeyCreated  = "api_key.created"
	ActionAPIKeyRevoked  = "api_key.revoked"
)

// AuditLog is an append-only record of a security-relevant action.
type AuditLog struct {
	ID             string         `json:"id"`
	ActorID        *string        `json:"actorId"`
	OrganizationID *string        `json:"organizationId"`
	Action         string         `json:"action"`
	Metadata       map[string]any `json:"metadata"`
	CreatedAt      time.Time      `json:"createdAt"`
}
