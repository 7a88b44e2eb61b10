// Package memory provides an in-process repository.Store with snapshot
// transactions and fault injection. Service and handler tests run against it.
package memory

import (
	"context"
	"maps"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/vyxlo/platform/internal/domain"
	"github.com/vyxlo/platform/internal/repository"
	apperrors "github.com/vyxlo/platform/pkg/errors"
)

// Operation names accepted by FailOn. They match the span names used by the
// PostgreSQL store.
const (
	OpUsersCreate          = "users.create"
	OpUsersGetByID         = "users.get_by_id"
	OpUsersGetByEmail      = "users.get_by_email"
	OpUsersUpdateLastLogin = "users.update_last_login"
	OpOrganizationsCreate  = "organizations.create"
	OpOrganizationsGetByID = "organizations.get_by_id"
	OpAPIKeysCreate        = "api_keys.create"
	OpAPIKeysGetActiveByID = "api_keys.get_active_by_id"
	OpAPIKeysList          = "api_keys.list_by_organization"
	OpAPIKeysRevoke        = "api_keys.revoke"
	OpSessionsCreate       = "sessions.create"
	OpSessionsGetActive    = "sessions.get_active"
	OpSessionsDelete       = "sessions.delete_by_user_id"
	OpAuditLogsCreate      = "audit_logs.create"
	OpBegin                = "begin"
	OpCommit               = "commit"
)

type dataset struct {
	users         map[string]domain.User
	emails        map[string]string
	organizations map[string]domain.Organization
	apiKeys       map[string]domain.APIKey
	sessions      map[string]domain.Session
	auditLogs     []domain.AuditLog
}

func newDataset() *dataset {
	return &dataset{
		users:         map[string]domain.User{},
		emails:        map[string]string{},
		organizations: map[string]domain.Organization{},
		apiKeys:       map[string]domain.APIKey{},
		sessions:      map[string]domain.Session{},
	}
}

func (d *dataset) clone() *dataset {
	return &dataset{
		users:         maps.Clone(d.users),
		emails:        maps.Clone(d.emails),
		organizations: maps.Clone(d.organizations),
		apiKeys:       maps.Clone(d.apiKeys),
		sessions:      maps.Clone(d.sessions),
		auditLogs:     slices.Clone(d.auditLogs),
	}
}

type faults struct {
	mu  sync.Mutex
	ops map[string]error
}

func (f *faults) get(op string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.ops[op]
}

// Store implements repository.Store in memory. The zero value is not usable;
// call NewStore.
type Store struct {
	// mu is nil for a Store handed to a WithinTx callback: the enclosing
	// WithinTx already holds the root lock.
	mu     *sync.Mutex
	data   *dataset
	faults *faults
}

// NewStore creates an empty in-memory store.
func NewStore() *Store {
	return &Store{
		mu:     &sync.Mutex{},
		data:   newDataset(),
		faults: &faults{ops: map[string]error{}},
	}
}

// FailOn makes every subsequent call of op return err. A nil err clears the
// fault.
func (s *Store) FailOn(op string, err error) {
	s.faults.mu.Lock()
	defer s.faults.mu.Unlock()
	if err == nil {
		delete(s.faults.ops, op)
		return
	}
	s.faults.ops[op] = err
}

func (s *Store) lock() func() {
	if s.mu == nil {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

func (s *Store) Users() repository.UserRepository                 { return &userRepo{s} }
func (s *Store) Organizations() repository.OrganizationRepository { return &orgRepo{s} }
func (s *Store) APIKeys() repository.APIKeyRepository             { return &apiKeyRepo{s} }
func (s *Store) Sessions() repository.SessionRepository           { return &sessionRepo{s} }
func (s *Store) AuditLogs() repository.AuditLogRepository         { return &auditRepo{s} }

// WithinTx runs fn against a private snapshot of the data and publishes the
// snapshot only if fn and the commit succeed. Transactions are serialized.
func (s *Store) WithinTx(ctx context.Context, fn func(tx repository.Store) error) error {
	unlock := s.lock()
	defer unlock()

	if err := s.faults.get(OpBegin); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	tx := &Store{data: s.data.clone(), faults: s.faults}
	if err := fn(tx); err != nil {
		return err
	}

	if err := s.faults.get(OpCommit); err != nil {
		return err
	}
	*s.data = *tx.data
	return nil
}

// Counts of stored rows, for assertions.

func (s *Store) UserCount() int {
	defer s.lock()()
	return len(s.data.users)
}

func (s *Store) OrganizationCount() int {
	defer s.lock()()
	return len(s.data.organizations)
}

func (s *Store) APIKeyCount() int {
	defer s.lock()()
	return len(s.data.apiKeys)
}

func (s *Store) SessionCount() int {
	defer s.lock()()
	return len(s.data.sessions)
}

// AuditEntries returns a copy of the audit trail in insertion order.
func (s *Store) AuditEntries() []domain.AuditLog {
	defer s.lock()()
	return slices.Clone(s.data.auditLogs)
}

// SetUserActive flips a user's active flag, standing in for the admin
// tooling that deactivates accounts.
func (s *Store) SetUserActive(id string, active bool) {
	defer s.lock()()
	if u, ok := s.data.users[id]; ok {
		u.IsActive = active
		s.data.users[id] = u
	}
}

// --- users ---

type userRepo struct{ s *Store }

func (r *userRepo) Create(_ context.Context, u *domain.User) error {
	if err := r.s.faults.get(OpUsersCreate); err != nil {
		return err
	}
	defer r.s.lock()()

	if _, taken := r.s.data.emails[u.Email]; taken {
		return apperrors.AlreadyExists(domain.MsgEmailRegistered)
	}
	r.s.data.users[u.ID] = *u
	r.s.data.emails[u.Email] = u.ID
	return nil
}

func (r *userRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	if err := r.s.faults.get(OpUsersGetByID); err != nil {
		return nil, err
	}
	defer r.s.lock()()

	u, ok := r.s.data.users[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return &u, nil
}

func (r *userRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	if err := r.s.faults.get(OpUsersGetByEmail); err != nil {
		return nil, err
	}
	defer r.s.lock()()

	id, ok := r.s.data.emails[email]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	u := r.s.data.users[id]
	return &u, nil
}

func (r *userRepo) UpdateLastLogin(_ context.Context, id string, at time.Time) error {
	if err := r.s.faults.get(OpUsersUpdateLastLogin); err != nil {
		return err
	}
	defer r.s.lock()()

	u, ok := r.s.data.users[id]
	if !ok {
		return apperrors.ErrNotFound
	}
	u.LastLoginAt = &at
	u.UpdatedAt = at
	r.s.data.users[id] = u
	return nil
}

// --- organizations ---

type orgRepo struct{ s *Store }

func (r *orgRepo) Create(_ context.Context, o *domain.Organization) error {
	if err := r.s.faults.get(OpOrganizationsCreate); err != nil {
		return err
	}
	defer r.s.lock()()

	org := *o
	org.Metadata = maps.Clone(o.Metadata)
	r.s.data.organizations[o.ID] = org
	return nil
}

func (r *orgRepo) GetByID(_ context.Context, id string) (*domain.Organization, error) {
	if err := r.s.faults.get(OpOrganizationsGetByID); err != nil {
		return nil, err
	}
	defer r.s.lock()()

	o, ok := r.s.data.organizations[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	o.Metadata = maps.Clone(o.Metadata)
	if o.Metadata == nil {
		o.Metadata = map[string]any{}
	}
	return &o, nil
}

// --- api keys ---

type apiKeyRepo struct{ s *Store }

func (r *apiKeyRepo) Create(_ context.Context, k *domain.APIKey) error {
	if err := r.s.faults.get(OpAPIKeysCreate); err != nil {
		return err
	}
	defer r.s.lock()()

	if _, taken := r.s.data.apiKeys[k.ID]; taken {
		return apperrors.AlreadyExists("api key id collision")
	}
	key := *k
	key.Scopes = slices.Clone(k.Scopes)
	r.s.data.apiKeys[k.ID] = key
	return nil
}

func (r *apiKeyRepo) GetActiveByID(_ context.Context, id string) (*domain.APIKey, error) {
	if err := r.s.faults.get(OpAPIKeysGetActiveByID); err != nil {
		return nil, err
	}
	defer r.s.lock()()

	k, ok := r.s.data.apiKeys[id]
	if !ok || k.Revoked() {
		return nil, apperrors.ErrNotFound
	}
	k.Scopes = slices.Clone(k.Scopes)
	return &k, nil
}

func (r *apiKeyRepo) ListByOrganization(_ context.Context, orgID string) ([]domain.APIKey, error) {
	if err := r.s.faults.get(OpAPIKeysList); err != nil {
		return nil, err
	}
	defer r.s.lock()()

	keys := []domain.APIKey{}
	for _, k := range r.s.data.apiKeys {
		if k.OrganizationID == orgID {
			k.Scopes = slices.Clone(k.Scopes)
			keys = append(keys, k)
		}
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].CreatedAt.Equal(keys[j].CreatedAt) {
			return keys[i].ID < keys[j].ID
		}
		return keys[i].CreatedAt.After(keys[j].CreatedAt)
	})
	return keys, nil
}

func (r *apiKeyRepo) Revoke(_ context.Context, orgID, id string, at time.Time) error {
	if err := r.s.faults.get(OpAPIKeysRevoke); err != nil {
		return err
	}
	defer r.s.lock()()

	k, ok := r.s.data.apiKeys[id]
	if !ok || k.OrganizationID != orgID || k.Revoked() {
		return apperrors.ErrNotFound
	}
	k.RevokedAt = &at
	r.s.data.apiKeys[id] = k
	return nil
}

// --- sessions ---

type sessionRepo struct{ s *Store }

func (r *sessionRepo) Create(_ context.Context, sess *domain.Session) error {
	if err := r.s.faults.get(OpSessionsCreate); err != nil {
		return err
	}
	defer r.s.lock()()

	r.s.data.sessions[sess.ID] = *sess
	return nil
}

func (r *sessionRepo) GetActive(_ context.Context, id string, now time.Time) (*domain.Session, error) {
	if err := r.s.faults.get(OpSessionsGetActive); err != nil {
		return nil, err
	}
	defer r.s.lock()()

	sess, ok := r.s.data.sessions[id]
	if !ok || sess.Expired(now) {
		return nil, apperrors.ErrNotFound
	}
	return &sess, nil
}

func (r *sessionRepo) DeleteByUserID(_ context.Context, userID string) (int64, error) {
	if err := r.s.faults.get(OpSessionsDelete); err != nil {
		return 0, err
	}
	defer r.s.lock()()

	var n int64
	for id, sess := range r.s.data.sessions {
		if sess.UserID == userID {
			delete(r.s.data.sessions, id)
			n++
		}
	}
	return n, nil
}

// --- audit logs ---

type auditRepo struct{ s *Store }

func (r *auditRepo) Create(_ context.Context, a *domain.AuditLog) error {
	if err := r.s.faults.get(OpAuditLogsCreate); err != nil {
		return err
	}
	defer r.s.lock()()

	entry := *a
	entry.Metadata = maps.Clone(a.Metadata)
	r.s.data.auditLogs = append(r.s.data.auditLogs, entry)
	return nil
}
