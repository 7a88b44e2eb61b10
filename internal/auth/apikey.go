package auth

import (
	"crypto/rand"
	"fmt"
	"strings"
)

const (
	apiKeyIDLength     = 16
	apiKeySecretLength = 32

	// URL-safe alphabet of 64 symbols, so masking a random byte with 63
	// picks each symbol with equal probability.
	keyAlphabet = "useandom-26T198340PX75pxJACKVERYMINDBUSHWOLF_GQZbfghjklqvwyzrict"
)

// GeneratedAPIKey is a new key's public id and plaintext secret.
type GeneratedAPIKey struct {
	ID     string
	Secret string
}

// Token returns the "{id}.{secret}" form handed to the client once.
func (k GeneratedAPIKey) Token() string {
	return k.ID + "." + k.Secret
}

// GenerateAPIKey draws a 16-character public id and a 32-character secret
// from crypto/rand.
func GenerateAPIKey() (GeneratedAPIKey, error) {
	id, err := randomString(apiKeyIDLength)
	if err != nil {
		return GeneratedAPIKey{}, fmt.Errorf("generate api key id: %w", err)
	}
	secret, err := randomString(apiKeySecretLength)
	if err != nil {
		return GeneratedAPIKey{}, fmt.Errorf("generate api key secret: %w", err)
	}
	return GeneratedAPIKey{ID: id, Secret: secret}, nil
}

// ParseAPIKey splits a presented key at its first dot. Both halves must be
// non-empty.
func ParseAPIKey(token string) (id, secret string, ok bool) {
	id, secret, found := strings.Cut(token, ".")
	if !found || id == "" || secret == "" {
		return "", "", false
	}
	return id, secret, true
}

func randomString(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	for i, b := range buf {
		buf[i] = keyAlphabet[b&63]
	}
	return string(buf), nil
}
