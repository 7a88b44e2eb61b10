package auth

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	apperrors "github.com/vyxlo/platform/pkg/errors"
)

func newTestHasher(t *testing.T) *PasswordHasher {
	t.Helper()
	h, err := NewPasswordHasher(bcrypt.MinCost)
	require.NoError(t, err)
	return h
}

func TestNewPasswordHasher_RejectsBadCost(t *testing.T) {
	_, err := NewPasswordHasher(2)
	assert.Error(t, err)
	_, err = NewPasswordHasher(bcrypt.MaxCost + 1)
	assert.Error(t, err)
}

func TestPasswordHasher_HashAndVerify(t *testing.T) {
	h := newTestHasher(t)

	hash, err := h.Hash("correct horse battery")
	require.NoError(t, err)
	assert.NotEqual(t, "correct horse battery", hash)
	assert.True(t, strings.HasPrefix(hash, "$2a$"))

	assert.True(t, h.Verify("correct horse battery", hash))
	assert.False(t, h.Verify("wrong horse battery", hash))
	assert.False(t, h.Verify("correct horse battery", "not-a-hash"))
}

func TestPasswordHasher_UsesConfiguredCost(t *testing.T) {
	h, err := NewPasswordHasher(5)
	require.NoError(t, err)

	hash, err := h.Hash("password1")
	require.NoError(t, err)
	cost, err := bcrypt.Cost([]byte(hash))
	require.NoError(t, err)
	assert.Equal(t, 5, cost)
}

func TestPasswordHasher_RejectsOverlongInput(t *testing.T) {
	h := newTestHasher(t)

	_, err := h.Hash(strings.Repeat("a", 73))
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrInvalidInput))

	hash, err := h.Hash(strings.Repeat("a", 72))
	require.NoError(t, err)
	// A 73-byte input sharing the first 72 bytes must not verify.
	assert.False(t, h.Verify(strings.Repeat("a", 73), hash))
	assert.True(t, h.Verify(strings.Repeat("a", 72), hash))
}

func TestPasswordHasher_VerifyDummyDoesNotPanic(t *testing.T) {
	h := newTestHasher(t)
	assert.NotPanics(t, func() { h.VerifyDummy("anything") })
}

// countingHasher wraps the real comparison and records every call.
func countingHasher(t *testing.T) (*PasswordHasher, *int) {
	t.Helper()
	h := newTestHasher(t)
	calls := 0
	h.compare = func(hash, plaintext []byte) error {
		calls++
		assert.LessOrEqual(t, len(plaintext), maxPasswordBytes)
		return bcrypt.CompareHashAndPassword(hash, plaintext)
	}
	return h, &calls
}

func TestPasswordHasher_OverlongInputCostsOneComparison(t *testing.T) {
	h, calls := countingHasher(t)
	hash, err := h.Hash("password1")
	require.NoError(t, err)
	overlong := strings.Repeat("p", 80)

	tests := []struct {
		name string
		run  func()
	}{
		{"verify known hash", func() { assert.False(t, h.Verify(overlong, hash)) }},
		{"verify dummy", func() { h.VerifyDummy(overlong) }},
		{"verify regular input", func() { assert.True(t, h.Verify("password1", hash)) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := *calls
			tt.run()
			assert.Equal(t, before+1, *calls)
		})
	}
}
