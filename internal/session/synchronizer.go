package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/InternHub-KE/client/internal/backend"
	"github.com/InternHub-KE/client/internal/domain/users"
	"github.com/InternHub-KE/client/internal/idp"
	"github.com/InternHub-KE/client/internal/metrics"
	"github.com/InternHub-KE/client/internal/validation"
)

// Exchanger is the slice of the backend client the synchronizer needs: the
// endpoints that trade credentials or provider tokens for a session.
type Exchanger interface {
	Login(ctx context.Context, email, password string) (backend.AuthResponse, error)
	Register(ctx context.Context, params backend.RegisterParams) (backend.AuthResponse, error)
	ExchangeProviderToken(ctx context.Context, params backend.ExchangeParams, newAccount bool) (backend.AuthResponse, error)
}

// ErrAlreadyInitialized is returned when InitializeFromProvider is called
// while a provider subscription is already active.
var ErrAlreadyInitialized = errors.New("provider subscription already active")

// DefaultExchangeTimeout bounds one exchange end to end.
const DefaultExchangeTimeout = 20 * time.Second

// Synchronizer reconciles the identity provider's credential lifecycle with
// the application session. It is the sole writer of the Store and the
// credential cache.
//
// Exchanges are fenced by a monotonically increasing sequence number: a
// resolved exchange is discarded when a newer one has started since, so a
// slow explicit login can never clobber a fresher provider-event exchange.
// Identical concurrent exchanges coalesce via singleflight rather than
// interleaving.
type Synchronizer struct {
	store     *Store
	cache     *Cache
	bridge    idp.Bridge
	exchanger Exchanger
	logger    zerolog.Logger
	timeout   time.Duration

	seq        atomic.Uint64
	group      singleflight.Group
	mu         sync.Mutex
	subscribed bool

	// commitMu makes the fence check and the store/cache write one
	// critical section, shared with the clearing paths. Without it a
	// resolved exchange could pass the check, lose the CPU to a logout,
	// and then install its now-stale session over the cleared store.
	commitMu sync.Mutex
}

// SynchronizerOption configures a Synchronizer.
type SynchronizerOption func(*Synchronizer)

// WithExchangeTimeout overrides DefaultExchangeTimeout.
func WithExchangeTimeout(d time.Duration) SynchronizerOption {
	return func(s *Synchronizer) {
		s.timeout = d
	}
}

// NewSynchronizer wires the synchronizer to its collaborators. cache may be
// nil for ephemeral (non-persisting) use.
func NewSynchronizer(store *Store, cache *Cache, bridge idp.Bridge, exchanger Exchanger, logger zerolog.Logger, opts ...SynchronizerOption) *Synchronizer {
	s := &Synchronizer{
		store:     store,
		cache:     cache,
		bridge:    bridge,
		exchanger: exchanger,
		logger:    logger.With().Str("component", "session").Logger(),
		timeout:   DefaultExchangeTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// LoginWithCredentials exchanges an email/password pair for a session.
func (s *Synchronizer) LoginWithCredentials(ctx context.Context, email, password string) error {
	if err := requireFields(map[string]string{"email": email, "password": password}); err != nil {
		return err
	}
	return s.exchange(ctx, "login:"+email, "login", false, func(ctx context.Context) (backend.AuthResponse, error) {
		return s.exchanger.Login(ctx, email, password)
	})
}

// RegisterWithCredentials creates an account and installs its first session.
func (s *Synchronizer) RegisterWithCredentials(ctx context.Context, params backend.RegisterParams) error {
	if err := requireFields(map[string]string{
		"email":     params.Email,
		"password":  params.Password,
		"firstName": params.FirstName,
	}); err != nil {
		return err
	}
	return s.exchange(ctx, "register:"+params.Email, "register", false, func(ctx context.Context) (backend.AuthResponse, error) {
		return s.exchanger.Register(ctx, params)
	})
}

// LoginWithFederatedProvider runs the provider-native federated flow and
// exchanges the resulting provider token for a session. An account unknown
// to the backend is registered through the first-sign-up exchange variant.
func (s *Synchronizer) LoginWithFederatedProvider(ctx context.Context) error {
	return s.exchange(ctx, "federated", "federated", true, func(ctx context.Context) (backend.AuthResponse, error) {
		state, err := s.bridge.FederatedSignIn(ctx)
		if err != nil {
			return backend.AuthResponse{}, err
		}
		return s.exchangeProviderState(ctx, state)
	})
}

// InitializeFromProvider subscribes to the provider's authentication-state
// events for the lifetime of the process; each signed-in event re-runs the
// token exchange and each signed-out event clears the session and the cache.
// This is the sole mechanism reconciling external sign-outs and restored
// provider sessions. The caller owns the returned handle.
func (s *Synchronizer) InitializeFromProvider() (idp.Unsubscribe, error) {
	s.mu.Lock()
	if s.subscribed {
		s.mu.Unlock()
		return nil, ErrAlreadyInitialized
	}
	s.subscribed = true
	s.mu.Unlock()

	// The bridge delivers the current state synchronously on Subscribe;
	// that first delivery is a replay, not a transition, and is treated
	// differently for sign-outs.
	var replayed atomic.Bool
	unsubscribe := s.bridge.Subscribe(func(state idp.AuthState) {
		s.onProviderEvent(state, replayed.CompareAndSwap(false, true))
	})

	var once sync.Once
	return func() {
		once.Do(func() {
			unsubscribe()
			s.mu.Lock()
			s.subscribed = false
			s.mu.Unlock()
		})
	}, nil
}

func (s *Synchronizer) onProviderEvent(state idp.AuthState, replay bool) {
	if !state.SignedIn() {
		// An external sign-out (revocation elsewhere, provider session
		// expiry) clears local state without any explicit Logout call.
		s.commitMu.Lock()
		defer s.commitMu.Unlock()

		sess := s.store.Session()
		if sess == nil {
			return
		}
		if replay && !sess.FromProvider {
			// The subscription replay reports the provider's current
			// state. A credential session never signed into the
			// provider, so a signed-out replay says nothing about it.
			return
		}
		s.seq.Add(1) // fence out any exchange still in flight
		s.store.clear()
		s.clearCache()
		s.logger.Info().Msg("provider signed out; cleared local session")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	err := s.exchange(ctx, "provider-event:"+state.Identity.ProviderID, "provider_event", true, func(ctx context.Context) (backend.AuthResponse, error) {
		return s.exchangeProviderState(ctx, state)
	})
	if err != nil {
		s.logger.Warn().Err(err).Msg("provider event exchange failed")
	}
}

func (s *Synchronizer) exchangeProviderState(ctx context.Context, state idp.AuthState) (backend.AuthResponse, error) {
	params := backend.ExchangeParams{
		ProviderToken: state.Token,
		ProviderID:    state.Identity.ProviderID,
		Email:         state.Identity.Email,
		DisplayName:   state.Identity.DisplayName,
	}
	resp, err := s.exchanger.ExchangeProviderToken(ctx, params, false)
	var exchErr *backend.ExchangeError
	if errors.As(err, &exchErr) && exchErr.Status == 404 {
		// First federated sign-in: the backend has no account yet.
		return s.exchanger.ExchangeProviderToken(ctx, params, true)
	}
	return resp, err
}

// Logout signs out of the provider best-effort, then unconditionally clears
// the store and the cache. A provider failure is logged, never propagated:
// local sign-out must complete regardless.
func (s *Synchronizer) Logout(ctx context.Context) error {
	s.store.beginOperation()

	if err := s.bridge.SignOut(ctx); err != nil {
		s.logger.Warn().Err(err).Msg("provider sign-out failed; clearing local session anyway")
	}

	s.commitMu.Lock()
	s.seq.Add(1) // any exchange still in flight must not resurrect the session
	s.store.clear()
	err := s.clearCache()
	s.commitMu.Unlock()
	s.store.endOperation("")
	return err
}

// UpdateUser replaces the profile of the current session in the store and
// the cache; the token is untouched.
func (s *Synchronizer) UpdateUser(ctx context.Context, user users.UserProfile) error {
	if !s.store.setUser(user) {
		return validation.NewFieldError("session", "no active session")
	}
	if s.cache == nil {
		return nil
	}
	if err := s.cache.UpdateUser(ctx, user); err != nil {
		return fmt.Errorf("persist profile: %w", err)
	}
	return nil
}

type exchangeResult struct {
	seq  uint64
	resp backend.AuthResponse
}

// exchange runs one fenced, coalesced token exchange and commits the result
// into the store and the cache. The store is left untouched on failure.
// fromProvider marks the resulting session as provider-originated.
func (s *Synchronizer) exchange(ctx context.Context, key, trigger string, fromProvider bool, fn func(ctx context.Context) (backend.AuthResponse, error)) error {
	s.store.beginOperation()

	v, err, shared := s.group.Do(key, func() (any, error) {
		seq := s.seq.Add(1)
		cctx, cancel := context.WithTimeout(ctx, s.timeout)
		defer cancel()
		resp, err := fn(cctx)
		if err != nil {
			return exchangeResult{seq: seq}, err
		}
		return exchangeResult{seq: seq, resp: resp}, nil
	})
	if shared {
		s.logger.Debug().Str("key", key).Msg("coalesced concurrent exchange")
	}

	if err != nil {
		metrics.ExchangesTotal.WithLabelValues(trigger, "error").Inc()
		s.store.endOperation(userMessage(err))
		return err
	}

	if !s.commit(ctx, v.(exchangeResult), fromProvider) {
		// A newer exchange (or a logout) started while this one was in
		// flight; its result is authoritative, ours is dropped.
		metrics.ExchangesDiscarded.Inc()
		s.logger.Debug().Str("key", key).Msg("discarding superseded exchange result")
		s.store.endOperation("")
		return nil
	}
	metrics.ExchangesTotal.WithLabelValues(trigger, "ok").Inc()
	s.store.endOperation("")
	return nil
}

// commit installs a resolved exchange unless a newer exchange or a clearing
// path has advanced the sequence since it started. The check and the write
// happen under commitMu so nothing can clear or supersede the store between
// them.
func (s *Synchronizer) commit(ctx context.Context, result exchangeResult, fromProvider bool) bool {
	s.commitMu.Lock()
	defer s.commitMu.Unlock()

	if s.seq.Load() != result.seq {
		return false
	}
	sess := Session{
		Token:        result.resp.Token,
		User:         result.resp.User,
		IssuedAt:     time.Now().UTC(),
		FromProvider: fromProvider,
	}
	s.store.replace(sess)
	if s.cache != nil {
		if cacheErr := s.cache.Save(ctx, sess); cacheErr != nil {
			s.logger.Warn().Err(cacheErr).Msg("failed to persist session")
		}
	}
	return true
}

func (s *Synchronizer) clearCache() error {
	if s.cache == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.cache.Clear(ctx); err != nil {
		return fmt.Errorf("clear session cache: %w", err)
	}
	return nil
}

// userMessage extracts the message shown to the user for a failed exchange.
func userMessage(err error) string {
	var exchErr *backend.ExchangeError
	if errors.As(err, &exchErr) && exchErr.Message != "" {
		return exchErr.Message
	}
	var perr *idp.ProviderError
	if errors.As(err, &perr) {
		return perr.Error()
	}
	return err.Error()
}

func requireFields(fields map[string]string) error {
	var missing []string
	for name, value := range fields {
		if strings.TrimSpace(value) == "" {
			missing = append(missing, name)
		}
	}
	if len(missing) == 0 {
		return nil
	}
	ve := &validation.ValidationError{}
	for _, name := range missing {
		ve.Fields = append(ve.Fields, validation.FieldError{Field: name, Message: "is required"})
	}
	return ve
}
