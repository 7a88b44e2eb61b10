package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vyxlo/platform/internal/domain"
	apperrors "github.com/vyxlo/platform/pkg/errors"
)

func apiKeyColumnNames() []string {
	return []string{"id", "organization_id", "name", "secret_hash", "scopes", "created_at", "revoked_at"}
}

func sampleAPIKey() *domain.APIKey {
	return &domain.APIKey{
		ID:             "Ab3dEf6hIj9kLm0n",
		OrganizationID: "o-1",
		Name:           domain.DefaultAPIKeyName,
		SecretHash:     "$2a$10$secret",
		Scopes:         domain.DefaultAPIKeyScopes(),
		CreatedAt:      fixedNow,
	}
}

func TestAPIKeyRepository_Create(t *testing.T) {
	mock := newMock(t)
	repo := NewAPIKeyRepository(mock)
	k := sampleAPIKey()

	mock.ExpectExec("INSERT INTO api_keys").
		WithArgs(k.ID, k.OrganizationID, k.Name, k.SecretHash, []string{"usage:write"}, k.CreatedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, repo.Create(context.Background(), k))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAPIKeyRepository_Create_NilScopes(t *testing.T) {
	mock := newMock(t)
	repo := NewAPIKeyRepository(mock)
	k := sampleAPIKey()
	k.Scopes = nil

	mock.ExpectExec("INSERT INTO api_keys").
		WithArgs(k.ID, k.OrganizationID, k.Name, k.SecretHash, []string{}, k.CreatedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, repo.Create(context.Background(), k))
}

func TestAPIKeyRepository_GetActiveByID(t *testing.T) {
	mock := newMock(t)
	repo := NewAPIKeyRepository(mock)
	k := sampleAPIKey()

	mock.ExpectQuery("FROM api_keys WHERE id = \\$1 AND revoked_at IS NULL").
		WithArgs(k.ID).
		WillReturnRows(pgxmock.NewRows(apiKeyColumnNames()).
			AddRow(k.ID, k.OrganizationID, k.Name, k.SecretHash, k.Scopes, k.CreatedAt, k.RevokedAt))

	got, err := repo.GetActiveByID(context.Background(), k.ID)
	require.NoError(t, err)
	assert.Equal(t, "o-1", got.OrganizationID)
	assert.Equal(t, []string{"usage:write"}, got.Scopes)
	assert.False(t, got.Revoked())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAPIKeyRepository_GetActiveByID_RevokedIsNotFound(t *testing.T) {
	mock := newMock(t)
	repo := NewAPIKeyRepository(mock)

	mock.ExpectQuery("FROM api_keys WHERE id").
		WithArgs("revoked-key").
		WillReturnRows(pgxmock.NewRows(apiKeyColumnNames()))

	_, err := repo.GetActiveByID(context.Background(), "revoked-key")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestAPIKeyRepository_ListByOrganization(t *testing.T) {
	mock := newMock(t)
	repo := NewAPIKeyRepository(mock)
	active := sampleAPIKey()
	revokedAt := fixedNow.Add(-time.Hour)
	revoked := sampleAPIKey()
	revoked.ID = "Zz9yXw8vUt7sRq6p"
	revoked.RevokedAt = &revokedAt

	mock.ExpectQuery("FROM api_keys WHERE organization_id").
		WithArgs("o-1").
		WillReturnRows(pgxmock.NewRows(apiKeyColumnNames()).
			AddRow(active.ID, active.OrganizationID, active.Name, active.SecretHash, active.Scopes, active.CreatedAt, active.RevokedAt).
			AddRow(revoked.ID, revoked.OrganizationID, revoked.Name, revoked.SecretHash, revoked.Scopes, revoked.CreatedAt, revoked.RevokedAt))

	keys, err := repo.ListByOrganization(context.Background(), "o-1")
	require.NoError(t, err)
	require.Len(t, keys, 2)
	assert.False(t, keys[0].Revoked())
	assert.True(t, keys[1].Revoked())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAPIKeyRepository_ListByOrganization_Empty(t *testing.T) {
	mock := newMock(t)
	repo := NewAPIKeyRepository(mock)

	mock.ExpectQuery("FROM api_keys WHERE organization_id").
		WithArgs("o-2").
		WillReturnRows(pgxmock.NewRows(apiKeyColumnNames()))

	keys, err := repo.ListByOrganization(context.Background(), "o-2")
	require.NoError(t, err)
	assert.NotNil(t, keys)
	assert.Empty(t, keys)
}

func TestAPIKeyRepository_ListByOrganization_QueryError(t *testing.T) {
	mock := newMock(t)
	repo := NewAPIKeyRepository(mock)

	mock.ExpectQuery("FROM api_keys WHERE organization_id").
		WithArgs("o-1").
		WillReturnError(errors.New("timeout"))

	_, err := repo.ListByOrganization(context.Background(), "o-1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "list api keys")
}

func TestAPIKeyRepository_Revoke(t *testing.T) {
	mock := newMock(t)
	repo := NewAPIKeyRepository(mock)

	mock.ExpectExec("UPDATE api_keys SET revoked_at").
		WithArgs("k1", "o-1", fixedNow).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	require.NoError(t, repo.Revoke(context.Background(), "o-1", "k1", fixedNow))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAPIKeyRepository_Revoke_AlreadyRevokedOrForeign(t *testing.T) {
	mock := newMock(t)
	repo := NewAPIKeyRepository(mock)

	mock.ExpectExec("UPDATE api_keys SET revoked_at").
		WithArgs("k1", "o-2", fixedNow).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := repo.Revoke(context.Background(), "o-2", "k1", fixedNow)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}
