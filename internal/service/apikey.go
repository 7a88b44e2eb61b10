package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/vyxlo/platform/internal/auth"
	"github.com/vyxlo/platform/internal/domain"
	"github.com/vyxlo/platform/internal/repository"
	apperrors "github.com/vyxlo/platform/pkg/errors"
)

// APIKeyService manages the API keys of an organization. Only the owner of
// an organization may manage its keys.
type APIKeyService struct {
	store  repository.Store
	hasher *auth.PasswordHasher
	audit  *AuditRecorder
	logger *slog.Logger
	now    func() time.Time
}

// NewAPIKeyService creates a new API key service.
func NewAPIKeyService(store repository.Store, hasher *auth.PasswordHasher, audit *AuditRecorder, logger *slog.Logger) *APIKeyService {
	return &APIKeyService{
		store:  store,
		hasher: hasher,
		audit:  audit,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// CreateAPIKeyInput holds the parameters for creating a key.
type CreateAPIKeyInput struct {
	OrganizationID string
	Name           string
	Scopes         []string
}

// CreatedAPIKey is a newly created key with its one-time plaintext.
type CreatedAPIKey struct {
	Key    *domain.APIKey
	Secret string
}

// Create issues a new key for an organization owned by user.
func (s *APIKeyService) Create(ctx context.Context, user *domain.User, input CreateAPIKeyInput) (*CreatedAPIKey, error) {
	org, err := s.ownedOrganization(ctx, user, input.OrganizationID)
	if err != nil {
		return nil, err
	}

	generated, err := auth.GenerateAPIKey()
	if err != nil {
		return nil, err
	}
	secretHash, err := s.hasher.Hash(generated.Secret)
	if err != nil {
		return nil, fmt.Errorf("hash api key secret: %w", err)
	}

	scopes := input.Scopes
	if len(scopes) == 0 {
		scopes = domain.DefaultAPIKeyScopes()
	}
	key := &domain.APIKey{
		ID:             generated.ID,
		OrganizationID: org.ID,
		Name:           input.Name,
		SecretHash:     secretHash,
		Scopes:         scopes,
		CreatedAt:      s.now(),
	}
	if err := s.store.APIKeys().Create(ctx, key); err != nil {
		return nil, fmt.Errorf("create api key: %w", err)
	}

	s.audit.Record(ctx, AuditEntry{
		Action:         domain.ActionAPIKeyCreated,
		ActorID:        user.ID,
		OrganizationID: org.ID,
		Metadata:       map[string]any{"keyId": key.ID, "name": key.Name},
	})

	return &CreatedAPIKey{Key: key, Secret: generated.Token()}, nil
}

// List returns every key of an organization owned by user, revoked keys
// included.
func (s *APIKeyService) List(ctx context.Context, user *domain.User, orgID string) ([]domain.APIKey, error) {
	if _, err := s.ownedOrganization(ctx, user, orgID); err != nil {
		return nil, err
	}
	keys, err := s.store.APIKeys().ListByOrganization(ctx, orgID)
	if err != nil {
		return nil, fmt.Errorf("list api keys: %w", err)
	}
	return keys, nil
}

// Revoke marks a key as revoked. Revoked keys never authenticate again.
func (s *APIKeyService) Revoke(ctx context.Context, user *domain.User, orgID, keyID string) error {
	if _, err := s.ownedOrganization(ctx, user, orgID); err != nil {
		return err
	}

	if err := s.store.APIKeys().Revoke(ctx, orgID, keyID, s.now()); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return apperrors.NotFound("api key", keyID)
		}
		return fmt.Errorf("revoke api key: %w", err)
	}

	s.audit.Record(ctx, AuditEntry{
		Action:         domain.ActionAPIKeyRevoked,
		ActorID:        user.ID,
		OrganizationID: orgID,
		Metadata:       map[string]any{"keyId": keyID},
	})
	s.logger.InfoContext(ctx, "api key revoked",
		slog.String("organization_id", orgID),
		slog.String("key_id", keyID),
	)
	return nil
}

// CurrentOrganization returns the organization an API-key principal acts
// for.
func (s *APIKeyService) CurrentOrganization(ctx context.Context, principal domain.Principal) (*domain.Organization, error) {
	if !principal.IsOrganization() {
		return nil, apperrors.Unauthorized("valid api key required")
	}
	org, err := s.store.Organizations().GetByID(ctx, principal.OrganizationID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.NotFound("organization", principal.OrganizationID)
		}
		return nil, fmt.Errorf("get organization: %w", err)
	}
	return org, nil
}

func (s *APIKeyService) ownedOrganization(ctx context.Context, user *domain.User, orgID string) (*domain.Organization, error) {
	org, err := s.store.Organizations().GetByID(ctx, orgID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.NotFound("organization", orgID)
		}
		return nil, fmt.Errorf("get organization: %w", err)
	}
	if org.OwnerID != user.ID {
		return nil, apperrors.Forbidden("only the organization owner can manage api keys")
	}
	return org, nil
}
