package domain

import (
	"strings"
	"time"
)

// MsgEmailRegistered is reported for a duplicate email, whether caught by
// the registration pre-check or by the store's unique constraint.
const MsgEmailRegistered = "email already registered"

// User is a registered account. Users are deactivated, never hard-deleted.
type User struct {
	ID           string     `json:"id"`
	Email        string     `json:"email"`
	Name         string     `json:"name"`
	PasswordHash string     `json:"-"`
	IsActive     bool       `json:"isActive"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
	LastLoginAt  *time.Time `json:"lastLoginAt"`
}

// NormalizeEmail returns the canonical form used for storage and lookup.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
