package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/vyxlo/platform/internal/auth"
	"github.com/vyxlo/platform/internal/domain"
	"github.com/vyxlo/platform/internal/repository"
	apperrors "github.com/vyxlo/platform/pkg/errors"
)

// Strategy names, also used as metric labels.
const (
	StrategySessionCookie = "session_cookie"
	StrategyBearerToken   = "bearer_token"
	StrategyAPIKey        = "api_key"
)

// Credentials are the raw request inputs the resolver inspects.
type Credentials struct {
	// SessionCookie is the value of the session cookie, if present.
	SessionCookie string
	// Authorization is the raw Authorization header, if present.
	Authorization string
}

// HeaderToken extracts the token from an Authorization header of the form
// "<scheme> <token>". The header must split on a single space into exactly
// two parts and the scheme must be "bearer" or "apikey" in any case.
func (c Credentials) HeaderToken() (string, bool) {
	if c.Authorization == "" {
		return "", false
	}
	parts := strings.Split(c.Authorization, " ")
	if len(parts) != 2 {
		return "", false
	}
	switch strings.ToLower(parts[0]) {
	case "bearer", "apikey":
		return parts[1], parts[1] != ""
	default:
		return "", false
	}
}

// Strategy tries to turn credentials into a principal. A strategy that does
// not apply, or whose credential is invalid, returns domain.Anonymous and a
// nil error so the next strategy runs. Errors are reserved for failures of
// the backing store.
type Strategy interface {
	Name() string
	Resolve(ctx context.Context, creds Credentials) (domain.Principal, error)
}

// IdentityResolver runs its strategies in order and stops at the first one
// that yields a principal.
type IdentityResolver struct {
	strategies []Strategy
}

// NewIdentityResolver creates a resolver with the standard order: session
// cookie, then the Authorization header as an access token, then the same
// header as an API key.
func NewIdentityResolver(users repository.UserRepository, keys repository.APIKeyRepository, signer *auth.TokenSigner, hasher *auth.PasswordHasher) *IdentityResolver {
	return NewIdentityResolverWithStrategies(
		&SessionCookieStrategy{signer: signer, users: users},
		&BearerTokenStrategy{signer: signer, users: users},
		&APIKeyStrategy{keys: keys, hasher: hasher},
	)
}

// NewIdentityResolverWithStrategies creates a resolver with a custom
// strategy order.
func NewIdentityResolverWithStrategies(strategies ...Strategy) *IdentityResolver {
	return &IdentityResolver{strategies: strategies}
}

// Resolve returns the principal of a request. Requests no strategy accepts
// resolve to domain.Anonymous.
func (r *IdentityResolver) Resolve(ctx context.Context, creds Credentials) (domain.Principal, error) {
	for _, s := range r.strategies {
		p, err := s.Resolve(ctx, creds)
		if err != nil {
			return domain.Anonymous, fmt.Errorf("resolve identity via %s: %w", s.Name(), err)
		}
		if p.Kind != domain.PrincipalNone {
			principalResolutionsTotal.WithLabelValues(s.Name()).Inc()
			return p, nil
		}
	}
	principalResolutionsTotal.WithLabelValues("anonymous").Inc()
	return domain.Anonymous, nil
}

// userFromToken verifies an access token and loads its subject. Unknown and
// deactivated users yield Anonymous.
func userFromToken(ctx context.Context, signer *auth.TokenSigner, users repository.UserRepository, token string) (domain.Principal, error) {
	claims, ok := signer.Verify(token)
	if !ok {
		return domain.Anonymous, nil
	}

	user, err := users.GetByID(ctx, claims.UserID())
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return domain.Anonymous, nil
		}
		return domain.Anonymous, fmt.Errorf("load token subject: %w", err)
	}
	if !user.IsActive {
		return domain.Anonymous, nil
	}
	return domain.UserPrincipal(user), nil
}

// SessionCookieStrategy authenticates the access token carried in the
// session cookie.
type SessionCookieStrategy struct {
	signer *auth.TokenSigner
	users  repository.UserRepository
}

func (s *SessionCookieStrategy) Name() string { return StrategySessionCookie }

func (s *SessionCookieStrategy) Resolve(ctx context.Context, creds Credentials) (domain.Principal, error) {
	if creds.SessionCookie == "" {
		return domain.Anonymous, nil
	}
	return userFromToken(ctx, s.signer, s.users, creds.SessionCookie)
}

// BearerTokenStrategy authenticates an access token sent in the
// Authorization header.
type BearerTokenStrategy struct {
	signer *auth.TokenSigner
	users  repository.UserRepository
}

func (s *BearerTokenStrategy) Name() string { return StrategyBearerToken }

func (s *BearerTokenStrategy) Resolve(ctx context.Context, creds Credentials) (domain.Principal, error) {
	token, ok := creds.HeaderToken()
	if !ok {
		return domain.Anonymous, nil
	}
	return userFromToken(ctx, s.signer, s.users, token)
}

// APIKeyStrategy authenticates an "{id}.{secret}" API key sent in the
// Authorization header. It only ever yields an organization principal.
type APIKeyStrategy struct {
	keys   repository.APIKeyRepository
	hasher *auth.PasswordHasher
}

func (s *APIKeyStrategy) Name() string { return StrategyAPIKey }

func (s *APIKeyStrategy) Resolve(ctx context.Context, creds Credentials) (domain.Principal, error) {
	token, ok := creds.HeaderToken()
	if !ok {
		return domain.Anonymous, nil
	}
	id, secret, ok := auth.ParseAPIKey(token)
	if !ok {
		return domain.Anonymous, nil
	}

	key, err := s.keys.GetActiveByID(ctx, id)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return domain.Anonymous, nil
		}
		return domain.Anonymous, fmt.Errorf("load api key: %w", err)
	}
	// Revocation always wins.
	if key.Revoked() || !s.hasher.Verify(secret, key.SecretHash) {
		return domain.Anonymous, nil
	}
	return domain.OrganizationPrincipal(key), nil
}
