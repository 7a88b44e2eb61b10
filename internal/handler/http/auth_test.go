package http

import (
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vyxlo/platform/internal/domain"
	"github.com/vyxlo/platform/internal/event"
	"github.com/vyxlo/platform/internal/repository/memory"
)

func TestRegister_Created(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/api/v1/auth/register", map[string]string{
		"email":    "Ada@Example.com",
		"password": "longenough1",
		"name":     "Ada",
		"orgName":  "My Org!",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	cookie := sessionCookie(rec)
	require.NotNil(t, cookie)
	assert.True(t, cookie.HttpOnly)
	assert.True(t, cookie.Secure)
	assert.Equal(t, http.SameSiteLaxMode, cookie.SameSite)
	assert.Equal(t, "/", cookie.Path)
	assert.Equal(t, 900, cookie.MaxAge)

	var res RegisterResponse
	decode(t, rec, &res)
	assert.Equal(t, "ada@example.com", res.User.Email)
	assert.Equal(t, "my-org", res.Organization.Slug)
	assert.Equal(t, res.User.ID, res.Organization.OwnerID)
	assert.Contains(t, res.APIKeySecret, ".")
	assert.NotEmpty(t, res.SessionID)
	assert.Equal(t, cookie.Value, res.AccessToken.Token)
	assert.NotContains(t, rec.Body.String(), "passwordHash")
	assert.NotContains(t, rec.Body.String(), "secretHash")

	assert.Equal(t, []string{event.TypeUserRegistered}, s.published.types())
}

func TestRegister_ValidationErrors(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		name  string
		body  map[string]string
		field string
	}{
		{"bad email", map[string]string{"email": "nope", "password": "longenough1", "name": "A", "orgName": "O"}, "email"},
		{"short password", map[string]string{"email": "a@x.com", "password": "short", "name": "A", "orgName": "O"}, "password"},
		{"long password", map[string]string{"email": "a@x.com", "password": strings.Repeat("p", 101), "name": "A", "orgName": "O"}, "password"},
		{"missing name", map[string]string{"email": "a@x.com", "password": "longenough1", "orgName": "O"}, "name"},
		{"long org name", map[string]string{"email": "a@x.com", "password": "longenough1", "name": "A", "orgName": strings.Repeat("o", 101)}, "orgName"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := s.do(t, http.MethodPost, "/api/v1/auth/register", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)

			env := decode(t, rec, nil)
			assert.False(t, env.Success)
			require.NotNil(t, env.Error)
			assert.Equal(t, "validation_error", env.Error.Code)
			assert.Contains(t, env.Error.Fields, tt.field)
		})
	}
	assert.Zero(t, s.store.UserCount())
}

func TestRegister_DuplicateEmail(t *testing.T) {
	s := newTestServer(t)
	s.register(t, "a@x.com")

	rec := s.do(t, http.MethodPost, "/api/v1/auth/register", map[string]string{
		"email": "A@X.COM", "password": "longenough1", "name": "B", "orgName": "Other",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	env := decode(t, rec, nil)
	assert.Equal(t, "validation_error", env.Error.Code)
	assert.Equal(t, "email already registered", env.Error.Message)
	assert.Equal(t, 1, s.store.UserCount())
	assert.Equal(t, 1, s.store.OrganizationCount())
}

func TestRegister_StoreFailureIsInternal(t *testing.T) {
	s := newTestServer(t)
	s.store.FailOn(memory.OpAPIKeysCreate, errors.New("connection reset by peer"))

	rec := s.do(t, http.MethodPost, "/api/v1/auth/register", map[string]string{
		"email": "a@x.com", "password": "longenough1", "name": "A", "orgName": "O",
	})
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	env := decode(t, rec, nil)
	assert.Equal(t, "internal_error", env.Error.Code)
	assert.NotContains(t, env.Error.Message, "connection reset")
	assert.Zero(t, s.store.UserCount())
	assert.Nil(t, sessionCookie(rec))
}

func TestLogin(t *testing.T) {
	s := newTestServer(t)
	s.register(t, "a@x.com")

	rec := s.do(t, http.MethodPost, "/api/v1/auth/login", map[string]string{"email": "a@x.com", "password": "longenough1"})
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, sessionCookie(rec))

	var res LoginResponse
	decode(t, rec, &res)
	assert.Equal(t, "a@x.com", res.User.Email)
	require.NotNil(t, res.User.LastLoginAt)
	assert.NotEmpty(t, res.SessionID)
	assert.Equal(t, sessionCookie(rec).Value, res.AccessToken.Token)
	assert.Equal(t, []string{event.TypeUserRegistered, event.TypeUserLoggedIn}, s.published.types())
}

func TestLogin_FailuresAreIndistinguishable(t *testing.T) {
	s := newTestServer(t)
	s.register(t, "a@x.com")

	for _, body := range []map[string]string{
		{"email": "a@x.com", "password": "wrong-password"},
		{"email": "nobody@x.com", "password": "longenough1"},
	} {
		rec := s.do(t, http.MethodPost, "/api/v1/auth/login", body)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		env := decode(t, rec, nil)
		assert.Equal(t, "unauthorized", env.Error.Code)
		assert.Equal(t, "invalid email or password", env.Error.Message)
		assert.Nil(t, sessionCookie(rec))
	}
}

func TestLogin_DisabledAccount(t *testing.T) {
	s := newTestServer(t)
	reg := s.register(t, "a@x.com")
	s.store.SetUserActive(reg.User.ID, false)

	rec := s.do(t, http.MethodPost, "/api/v1/auth/login", map[string]string{"email": "a@x.com", "password": "longenough1"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	env := decode(t, rec, nil)
	assert.Equal(t, "account is disabled", env.Error.Message)
}

func TestLogin_MalformedBody(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/api/v1/auth/login", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	env := decode(t, rec, nil)
	assert.Equal(t, "validation_error", env.Error.Code)
	assert.Equal(t, "invalid request body", env.Error.Message)
}

func TestLogout_ClearsCookieAndSessions(t *testing.T) {
	s := newTestServer(t)
	reg := s.register(t, "a@x.com")
	other := s.register(t, "b@x.com")
	require.Equal(t, 2, s.store.SessionCount())

	rec := s.do(t, http.MethodPost, "/api/v1/auth/logout", nil, withCookie(reg.AccessToken.Token))
	require.Equal(t, http.StatusOK, rec.Code)

	var res MessageResponse
	decode(t, rec, &res)
	assert.Equal(t, "Logged out successfully", res.Message)

	cookie := sessionCookie(rec)
	require.NotNil(t, cookie)
	assert.Empty(t, cookie.Value)
	assert.Contains(t, rec.Header().Get("Set-Cookie"), "Max-Age=0")

	assert.Equal(t, 1, s.store.SessionCount())
	rec = s.do(t, http.MethodGet, "/api/v1/auth/sessions/"+other.SessionID, nil, withCookie(other.AccessToken.Token))
	assert.Equal(t, http.StatusOK, rec.Code)

	// The access token itself outlives the logout.
	rec = s.do(t, http.MethodGet, "/api/v1/users/me", nil, withCookie(reg.AccessToken.Token))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestProtectedRoutes_RequireUser(t *testing.T) {
	s := newTestServer(t)
	reg := s.register(t, "a@x.com")

	routes := []struct {
		method string
		path   string
	}{
		{http.MethodPost, "/api/v1/auth/logout"},
		{http.MethodPost, "/api/v1/auth/refresh"},
		{http.MethodGet, "/api/v1/users/me"},
		{http.MethodGet, "/api/v1/auth/sessions/" + reg.SessionID},
		{http.MethodGet, "/api/v1/organizations/" + reg.Organization.ID + "/api-keys"},
	}

	for _, rt := range routes {
		t.Run(rt.method+" "+rt.path, func(t *testing.T) {
			for _, opt := range []requestOption{
				func(*http.Request) {},
				withCookie("not-a-jwt"),
				withAuthorization("ApiKey " + reg.APIKeySecret),
			} {
				rec := s.do(t, rt.method, rt.path, nil, opt)
				assert.Equal(t, http.StatusUnauthorized, rec.Code)
				env := decode(t, rec, nil)
				assert.Equal(t, "unauthorized", env.Error.Code)
				assert.Equal(t, "authentication required", env.Error.Message)
			}
		})
	}
}

func TestRefresh(t *testing.T) {
	s := newTestServer(t)
	reg := s.register(t, "a@x.com")

	rec := s.do(t, http.MethodPost, "/api/v1/auth/refresh", nil, withAuthorization("Bearer "+reg.AccessToken.Token))
	require.Equal(t, http.StatusOK, rec.Code)

	var res RefreshResponse
	decode(t, rec, &res)
	assert.NotEmpty(t, res.AccessToken.Token)
	assert.False(t, res.AccessToken.ExpiresAt.Before(reg.AccessToken.ExpiresAt))
	require.NotNil(t, sessionCookie(rec))
	assert.Equal(t, res.AccessToken.Token, sessionCookie(rec).Value)

	rec = s.do(t, http.MethodGet, "/api/v1/users/me", nil, withCookie(res.AccessToken.Token))
	var me domain.User
	decode(t, rec, &me)
	assert.Equal(t, reg.User.ID, me.ID)
}

func TestGetSession(t *testing.T) {
	s := newTestServer(t)
	alice := s.register(t, "alice@x.com")
	bob := s.register(t, "bob@x.com")

	rec := s.do(t, http.MethodGet, "/api/v1/auth/sessions/"+alice.SessionID, nil, withCookie(alice.AccessToken.Token))
	require.Equal(t, http.StatusOK, rec.Code)
	var session domain.Session
	decode(t, rec, &session)
	assert.Equal(t, alice.User.ID, session.UserID)

	rec = s.do(t, http.MethodGet, "/api/v1/auth/sessions/"+alice.SessionID, nil, withCookie(bob.AccessToken.Token))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "not_found", decode(t, rec, nil).Error.Code)

	rec = s.do(t, http.MethodGet, "/api/v1/auth/sessions/not-a-uuid", nil, withCookie(alice.AccessToken.Token))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
