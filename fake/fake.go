// Package fake provides an in-memory credential store for testing.
//
// Use fake.NewStore() in unit tests to avoid a database. Passwords are
// stored and compared in plaintext; only the auth.CredentialStore
// contract is honored, not the hashing.
package fake

import (
	"context"
	"sync"

	auth "github.com/ocsalud/auth-go"
)

// Store implements auth.CredentialStore in memory.
type Store struct {
	mu     sync.RWMutex
	byName map[string]*auth.UserRecord
	byID   map[int]*auth.UserRecord
}

// compile-time check
var _ auth.CredentialStore = (*Store)(nil)

// Option configures the fake store.
type Option func(*Store)

// WithUser adds an active account. The password is stored as the
// "hash".
func WithUser(id int, username, password string, role auth.Role, companyID int) Option {
	return func(s *Store) {
		s.put(&auth.UserRecord{
			ID:           id,
			Username:     username,
			PasswordHash: password,
			Role:         role,
			CompanyID:    companyID,
			Active:       true,
		})
	}
}

// WithDisabledUser adds a deactivated account.
func WithDisabledUser(id int, username, password string, role auth.Role, companyID int) Option {
	return func(s *Store) {
		s.put(&auth.UserRecord{
			ID:           id,
			Username:     username,
			PasswordHash: password,
			Role:         role,
			CompanyID:    companyID,
			Active:       false,
		})
	}
}

// NewStore creates an in-memory credential store.
func NewStore(opts ...Option) *Store {
	s := &Store{
		byName: make(map[string]*auth.UserRecord),
		byID:   make(map[int]*auth.UserRecord),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

func (s *Store) put(rec *auth.UserRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byName[rec.Username] = rec
	s.byID[rec.ID] = rec
}

// Update replaces an account in place. Tests use it to change a role or
// deactivate an account between login and refresh.
func (s *Store) Update(rec auth.UserRecord) {
	s.put(&rec)
}

// FindByUsername returns the record for a login name.
func (s *Store) FindByUsername(_ context.Context, username string) (*auth.UserRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.byName[username]
	if !ok {
		return nil, auth.ErrUserNotFound
	}
	cp := *rec
	return &cp, nil
}

// FindByID returns the record for a subject id.
func (s *Store) FindByID(_ context.Context, id int) (*auth.UserRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.byID[id]
	if !ok {
		return nil, auth.ErrUserNotFound
	}
	cp := *rec
	return &cp, nil
}

// VerifyPassword compares plaintext against the stored plaintext.
func (s *Store) VerifyPassword(plain, hash string) bool {
	return plain != "" && plain == hash
}
