package auth

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"

	apperrors "github.com/vyxlo/platform/pkg/errors"
)

// DefaultBcryptCost is the work factor used when none is configured.
const DefaultBcryptCost = 10

// maxPasswordBytes is bcrypt's input limit. Longer inputs are rejected
// rather than silently truncated.
const maxPasswordBytes = 72

// PasswordHasher hashes and verifies secrets with bcrypt. It is used for
// user passwords and API key secrets alike.
type PasswordHasher struct {
	cost      int
	dummyHash []byte
	compare   func(hash, plaintext []byte) error
}

// NewPasswordHasher creates a hasher with the given bcrypt cost.
func NewPasswordHasher(cost int) (*PasswordHasher, error) {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		return nil, fmt.Errorf("bcrypt cost %d out of range [%d, %d]", cost, bcrypt.MinCost, bcrypt.MaxCost)
	}
	dummy, err := bcrypt.GenerateFromPassword([]byte("vyxlo-timing-equalizer"), cost)
	if err != nil {
		return nil, fmt.Errorf("generate dummy hash: %w", err)
	}
	return &PasswordHasher{
		cost:      cost,
		dummyHash: dummy,
		compare:   bcrypt.CompareHashAndPassword,
	}, nil
}

// Hash returns the bcrypt hash of plaintext. Inputs over 72 bytes fail with
// a validation error.
func (h *PasswordHasher) Hash(plaintext string) (string, error) {
	if len(plaintext) > maxPasswordBytes {
		return "", apperrors.InvalidInput(fmt.Sprintf("password must be at most %d bytes", maxPasswordBytes))
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(plaintext), h.cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// Verify reports whether plaintext matches hash. The comparison is constant
// time; a malformed hash simply fails. An overlong plaintext never matches
// but still costs one full comparison.
func (h *PasswordHasher) Verify(plaintext, hash string) bool {
	if len(plaintext) > maxPasswordBytes {
		h.VerifyDummy(plaintext)
		return false
	}
	return h.compare([]byte(hash), []byte(plaintext)) == nil
}

// VerifyDummy spends one bcrypt comparison without a real hash, so that a
// lookup miss costs the same as a wrong password.
func (h *PasswordHasher) VerifyDummy(plaintext string) {
	_ = h.compare(h.dummyHash, []byte(truncatePassword(plaintext)))
}

func truncatePassword(plaintext string) string {
	if len(plaintext) > maxPasswordBytes {
		return plaintext[:maxPasswordBytes]
	}
	return plaintext
}
