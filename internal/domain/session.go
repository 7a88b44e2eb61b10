package domain

import "time"

// SessionTTL is how long a session stays valid after creation.
const SessionTTL = 30 * 24 * time.Hour

// Session records a login. Its lifetime is independent of the short-lived
// access tokens issued alongside it.
type Session struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	CreatedAt time.Time `json:"createdAt"`
	ExpiresAt time.Time `json:"expiresAt"`
	IP        *string   `json:"ip"`
	UserAgent *string   `json:"userAgent"`
}

// Expired reports whether the session is no longer valid at now.
func (s *Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}
