package session

import (
	"sync"

	"github.com/InternHub-KE/client/internal/domain/users"
)

// Store is the process-wide holder of the current session and its lifecycle
// flags. It is a pure state container: no network or provider calls
// originate here. All mutations replace state atomically; the authenticated
// flag is derived from token presence and can never be set independently, so
// a token without a user (or the reverse) is unrepresentable.
type Store struct {
	mu      sync.RWMutex
	session *Session
	loading int
	lastErr string
}

// Snapshot is a consistent read of the store.
type Snapshot struct {
	User            *users.UserProfile
	Token           string
	IsAuthenticated bool
	Loading         bool
	Err             string
}

// NewStore creates a store seeded with the given session, normally the one
// restored from the credential cache, or nil for a signed-out start.
func NewStore(initial *Session) *Store {
	s := &Store{}
	if initial != nil && initial.Token != "" {
		copied := *initial
		s.session = &copied
	}
	return s
}

// Snapshot returns the current state. IsAuthenticated is true exactly when a
// token is present, which by construction implies a user is present too.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := Snapshot{Loading: s.loading > 0, Err: s.lastErr}
	if s.session != nil {
		user := s.session.User
		snap.User = &user
		snap.Token = s.session.Token
		snap.IsAuthenticated = true
	}
	return snap
}

// Session returns a copy of the current session, or nil when signed out.
func (s *Store) Session() *Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.session == nil {
		return nil
	}
	copied := *s.session
	return &copied
}

// Token returns the current bearer token, or "" when signed out. It is the
// backend client's TokenSource.
func (s *Store) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.session == nil {
		return ""
	}
	return s.session.Token
}

// replace installs a new session and clears any error. Internal; callers go
// through the synchronizer.
func (s *Store) replace(sess Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := sess
	s.session = &copied
	s.lastErr = ""
}

// clear drops the current session.
func (s *Store) clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.session = nil
}

// setUser replaces the profile of the current session, leaving the token
// untouched. A no-op when signed out: a user must never exist without a
// matching token.
func (s *Store) setUser(user users.UserProfile) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.session == nil {
		return false
	}
	copied := *s.session
	copied.User = user
	s.session = &copied
	return true
}

// beginOperation marks a synchronizer operation in flight and clears the
// previous error. Operations overlap, so loading counts rather than toggles:
// the flag stays up until the last one finishes.
func (s *Store) beginOperation() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading++
	s.lastErr = ""
}

// endOperation retires one in-flight operation on every exit path; errMsg is
// empty on success.
func (s *Store) endOperation(errMsg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.loading > 0 {
		s.loading--
	}
	s.lastErr = errMsg
}
