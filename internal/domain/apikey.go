package domain

import "time"

// Key defaults applied at registration.
const (
	DefaultAPIKeyName = "Default API Key"
	ScopeUsageWrite   = "usage:write"
)

// DefaultAPIKeyScopes returns the scopes granted to a registration's key.
func DefaultAPIKeyScopes() []string {
	return []string{ScopeUsageWrite}
}

// APIKey is a long-lived organization credential. ID is the public half of
// the presented "{id}.{secret}" token; only a hash of the secret is stored.
type APIKey struct {
	ID             string     `json:"id"`
	OrganizationID string     `json:"organizationId"`
	Name           string     `json:"name"`
	SecretHash     string     `json:"-"`
	Scopes         []string   `json:"scopes"`
	CreatedAt      time.Time  `json:"createdAt"`
	RevokedAt      *time.Time `json:"revokedAt"`
}

// Revoked reports whether the key has been revoked.
func (k *APIKey) Revoked() bool {
	return k.RevokedAt != nil
}

// HasScope reports whether the key grants scope.
func (k *APIKey) HasScope(scope string) bool {
	for _, s := range k.Scopes {
		if s == scope {
			return true
		}
	}
	return false
}
