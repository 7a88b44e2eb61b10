package postgres

import (
	"context"
	"errors"
	"testing"

	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vyxlo/platform/internal/domain"
	apperrors "github.com/vyxlo/platform/pkg/errors"
)

func TestOrganizationRepository_Create_NilMetadataStoredAsEmptyObject(t *testing.T) {
	mock := newMock(t)
	repo := NewOrganizationRepository(mock)
	o := &domain.Organization{
		ID:        "o-1",
		Name:      "My Org!",
		Slug:      "my-org",
		OwnerID:   "u-1",
		CreatedAt: fixedNow,
		UpdatedAt: fixedNow,
	}

	mock.ExpectExec("INSERT INTO organizations").
		WithArgs("o-1", "My Org!", "my-org", "u-1", []byte(`{}`), fixedNow, fixedNow).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, repo.Create(context.Background(), o))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrganizationRepository_Create_ExecError(t *testing.T) {
	mock := newMock(t)
	repo := NewOrganizationRepository(mock)

	mock.ExpectExec("INSERT INTO organizations").
		WithArgs("o-1", "Acme", "acme", "u-1", []byte(`{"plan":"free"}`), fixedNow, fixedNow).
		WillReturnError(errors.New("foreign key violation"))

	err := repo.Create(context.Background(), &domain.Organization{
		ID: "o-1", Name: "Acme", Slug: "acme", OwnerID: "u-1",
		Metadata:  map[string]any{"plan": "free"},
		CreatedAt: fixedNow, UpdatedAt: fixedNow,
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "insert organization")
}

func TestOrganizationRepository_GetByID(t *testing.T) {
	mock := newMock(t)
	repo := NewOrganizationRepository(mock)

	mock.ExpectQuery("FROM organizations").
		WithArgs("o-1").
		WillReturnRows(pgxmock.NewRows([]string{"id", "name", "slug", "owner_id", "metadata", "created_at", "updated_at"}).
			AddRow("o-1", "Acme", "acme", "u-1", []byte(`{"plan":"free"}`), fixedNow, fixedNow))

	got, err := repo.GetByID(context.Background(), "o-1")
	require.NoError(t, err)
	assert.Equal(t, "acme", got.Slug)
	assert.Equal(t, "u-1", got.OwnerID)
	assert.Equal(t, map[string]any{"plan": "free"}, got.Metadata)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrganizationRepository_GetByID_NotFound(t *testing.T) {
	mock := newMock(t)
	repo := NewOrganizationRepository(mock)

	mock.ExpectQuery("FROM organizations").
		WithArgs("nope").
		WillReturnRows(pgxmock.NewRows([]string{"id", "name", "slug", "owner_id", "metadata", "created_at", "updated_at"}))

	_, err := repo.GetByID(context.Background(), "nope")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestAuditLogRepository_Create(t *testing.T) {
	mock := newMock(t)
	repo := NewAuditLogRepository(mock)
	actor := "u-1"
	entry := &domain.AuditLog{
		ID:        "a-1",
		ActorID:   &actor,
		Action:    domain.ActionUserLogin,
		Metadata:  map[string]any{"email": "ada@example.com"},
		CreatedAt: fixedNow,
	}

	mock.ExpectExec("INSERT INTO audit_logs").
		WithArgs("a-1", &actor, (*string)(nil), "user.login", []byte(`{"email":"ada@example.com"}`), fixedNow).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, repo.Create(context.Background(), entry))
	assert.NoError(t, mock.ExpectationsWereMet())
}
