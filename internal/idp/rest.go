package idp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"

	"github.com/InternHub-KE/client/internal/domain/users"
)

const (
	// DefaultTimeout bounds every provider call.
	DefaultTimeout = 10 * time.Second
	// DefaultRefreshSkew is how long before token expiry a refresh runs.
	DefaultRefreshSkew = 2 * time.Minute
)

// RESTConfig configures the REST bridge.
type RESTConfig struct {
	// APIKey is the provider project key appended to every call.
	APIKey string
	// BaseURL is the accounts endpoint root.
	BaseURL string
	// TokenURL is the refresh-token endpoint.
	TokenURL string
	// RefreshSkew overrides DefaultRefreshSkew when positive.
	RefreshSkew time.Duration
}

// RESTBridge implements Bridge against the provider's token REST endpoints.
// It keeps the current identity in memory, refreshes the ID token before
// expiry, and fans auth-state events out to subscribers in registration
// order.
type RESTBridge struct {
	cfg        RESTConfig
	httpClient *http.Client
	federated  FederatedFlow
	logger     zerolog.Logger

	mu           sync.Mutex
	state        AuthState
	refreshToken string
	subscribers  map[int]func(AuthState)
	nextSubID    int
	refreshTimer *time.Timer
	closed       bool
}

// FederatedFlow runs the provider-native federated sign-in outside the
// bridge (browser redirect, loopback callback) and returns the provider
// credential to finish with. Injected so tests and headless environments can
// substitute the interactive part.
type FederatedFlow func(ctx context.Context) (FederatedCredential, error)

// FederatedCredential is the outcome of a completed federated flow.
type FederatedCredential struct {
	IDToken      string
	RefreshToken string
	ProviderID   string
	Email        string
	DisplayName  string
	ExpiresIn    time.Duration
}

// RESTOption configures a RESTBridge.
type RESTOption func(*RESTBridge)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) RESTOption {
	return func(b *RESTBridge) {
		b.httpClient = client
	}
}

// WithFederatedFlow sets the interactive federated flow implementation.
func WithFederatedFlow(flow FederatedFlow) RESTOption {
	return func(b *RESTBridge) {
		b.federated = flow
	}
}

// NewRESTBridge creates a provider bridge. The bridge starts signed out;
// state is reconciled by the session synchronizer, not restored here.
func NewRESTBridge(cfg RESTConfig, logger zerolog.Logger, opts ...RESTOption) *RESTBridge {
	if cfg.RefreshSkew <= 0 {
		cfg.RefreshSkew = DefaultRefreshSkew
	}
	b := &RESTBridge{
		cfg:         cfg,
		httpClient:  &http.Client{Timeout: DefaultTimeout},
		logger:      logger.With().Str("component", "idp").Logger(),
		subscribers: make(map[int]func(AuthState)),
	}
	b.federated = func(ctx context.Context) (FederatedCredential, error) {
		return FederatedCredential{}, &ProviderError{Code: CodeFlowCancelled, Message: "no federated flow configured"}
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

type tokenResponse struct {
	IDToken      string `json:"idToken"`
	RefreshToken string `json:"refreshToken"`
	LocalID      string `json:"localId"`
	Email        string `json:"email"`
	DisplayName  string `json:"displayName"`
	ExpiresIn    string `json:"expiresIn"`
}

type providerErrorBody struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

// SignUp creates a provider identity from credentials and signs it in.
func (b *RESTBridge) SignUp(ctx context.Context, email, password string) (AuthState, error) {
	return b.passwordCall(ctx, "accounts:signUp", email, password)
}

// SignIn authenticates existing credentials.
func (b *RESTBridge) SignIn(ctx context.Context, email, password string) (AuthState, error) {
	return b.passwordCall(ctx, "accounts:signInWithPassword", email, password)
}

func (b *RESTBridge) passwordCall(ctx context.Context, method, email, password string) (AuthState, error) {
	payload := map[string]any{
		"email":             email,
		"password":          password,
		"returnSecureToken": true,
	}
	var resp tokenResponse
	if err := b.post(ctx, b.cfg.BaseURL+"/"+method, payload, &resp); err != nil {
		return AuthState{}, err
	}
	return b.adopt(resp.IDToken, resp.RefreshToken, resp.LocalID, resp.Email, resp.DisplayName, parseExpiry(resp.IDToken, resp.ExpiresIn)), nil
}

// FederatedSignIn runs the injected federated flow and adopts its result.
func (b *RESTBridge) FederatedSignIn(ctx context.Context) (AuthState, error) {
	cred, err := b.federated(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return AuthState{}, &ProviderError{Code: CodeFlowCancelled, Message: "federated flow cancelled"}
		}
		return AuthState{}, err
	}
	expiry := time.Now().Add(cred.ExpiresIn)
	if cred.ExpiresIn <= 0 {
		expiry = parseExpiry(cred.IDToken, "")
	}
	return b.adopt(cred.IDToken, cred.RefreshToken, cred.ProviderID, cred.Email, cred.DisplayName, expiry), nil
}

// SignOut drops the provider session and emits a signed-out event. The
// provider keeps no server-side session for token auth, so this is local
// state disposal plus notification.
func (b *RESTBridge) SignOut(ctx context.Context) error {
	b.mu.Lock()
	b.stopRefreshLocked()
	b.state = AuthState{}
	b.refreshToken = ""
	subs := b.snapshotSubscribersLocked()
	b.mu.Unlock()

	for _, fn := range subs {
		fn(AuthState{})
	}
	return nil
}

// Subscribe registers fn and invokes it immediately with the current state.
func (b *RESTBridge) Subscribe(fn func(AuthState)) Unsubscribe {
	b.mu.Lock()
	id := b.nextSubID
	b.nextSubID++
	b.subscribers[id] = fn
	current := b.state
	b.mu.Unlock()

	fn(current)

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subscribers, id)
			b.mu.Unlock()
		})
	}
}

// Current returns the provider's present authentication state.
func (b *RESTBridge) Current() AuthState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Close stops the refresher and drops all subscribers. The bridge is
// unusable afterwards.
func (b *RESTBridge) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.stopRefreshLocked()
	b.subscribers = make(map[int]func(AuthState))
	b.closed = true
}

// adopt installs a fresh provider session, schedules its refresh and emits
// the signed-in event.
func (b *RESTBridge) adopt(idToken, refreshToken, providerID, email, displayName string, expiry time.Time) AuthState {
	identity := users.Identity{ProviderID: providerID, Email: email, DisplayName: displayName}
	state := AuthState{
		Identity: &identity,
		Token:    idToken,
	}

	b.mu.Lock()
	b.state = state
	b.refreshToken = refreshToken
	b.scheduleRefreshLocked(expiry)
	subs := b.snapshotSubscribersLocked()
	b.mu.Unlock()

	for _, fn := range subs {
		fn(state)
	}
	return state
}

func (b *RESTBridge) snapshotSubscribersLocked() []func(AuthState) {
	subs := make([]func(AuthState), 0, len(b.subscribers))
	for i := 0; i < b.nextSubID; i++ {
		if fn, ok := b.subscribers[i]; ok {
			subs = append(subs, fn)
		}
	}
	return subs
}

func (b *RESTBridge) scheduleRefreshLocked(expiry time.Time) {
	b.stopRefreshLocked()
	if b.closed || expiry.IsZero() {
		return
	}
	delay := time.Until(expiry) - b.cfg.RefreshSkew
	if delay < time.Second {
		delay = time.Second
	}
	b.refreshTimer = time.AfterFunc(delay, b.refresh)
}

func (b *RESTBridge) stopRefreshLocked() {
	if b.refreshTimer != nil {
		b.refreshTimer.Stop()
		b.refreshTimer = nil
	}
}

// refresh renews the ID token with the refresh token. On provider rejection
// (revocation, disabled account) the bridge signs out, which is how external
// sign-outs reach subscribers.
func (b *RESTBridge) refresh() {
	b.mu.Lock()
	refreshToken := b.refreshToken
	identity := b.state.Identity
	b.mu.Unlock()
	if refreshToken == "" || identity == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), DefaultTimeout)
	defer cancel()

	payload := map[string]string{
		"grant_type":    "refresh_token",
		"refresh_token": refreshToken,
	}
	var resp struct {
		IDToken      string `json:"id_token"`
		RefreshToken string `json:"refresh_token"`
		ExpiresIn    string `json:"expires_in"`
	}
	if err := b.post(ctx, b.cfg.TokenURL, payload, &resp); err != nil {
		var perr *ProviderError
		if errors.As(err, &perr) {
			b.logger.Warn().Str("code", perr.Code).Msg("provider revoked session; signing out")
			_ = b.SignOut(context.Background())
			return
		}
		b.logger.Warn().Err(err).Msg("token refresh failed; retrying in 30s")
		b.mu.Lock()
		b.scheduleRefreshLocked(time.Now().Add(30*time.Second + b.cfg.RefreshSkew))
		b.mu.Unlock()
		return
	}

	b.adopt(resp.IDToken, resp.RefreshToken, identity.ProviderID, identity.Email, identity.DisplayName,
		parseExpiry(resp.IDToken, resp.ExpiresIn))
}

func (b *RESTBridge) post(ctx context.Context, endpoint string, payload, out any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode provider request: %w", err)
	}

	requestURL := endpoint
	if b.cfg.APIKey != "" {
		requestURL += "?" + url.Values{"key": {b.cfg.APIKey}}.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, requestURL, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("create provider request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := b.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("provider request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read provider response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var perr providerErrorBody
		_ = json.Unmarshal(body, &perr)
		code := perr.Error.Message
		if code == "" {
			code = fmt.Sprintf("HTTP_%d", resp.StatusCode)
		}
		return &ProviderError{Code: code}
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode provider response: %w", err)
	}
	return nil
}

// parseExpiry reads the exp claim from the unverified ID token, falling back
// to the expiresIn field. Verification belongs to the backend exchange, not
// the client.
func parseExpiry(idToken, expiresIn string) time.Time {
	if idToken != "" {
		parser := jwt.NewParser()
		claims := jwt.MapClaims{}
		if _, _, err := parser.ParseUnverified(idToken, claims); err == nil {
			if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
				return exp.Time
			}
		}
	}
	if expiresIn != "" {
		if secs, err := strconv.Atoi(expiresIn); err == nil {
			return time.Now().Add(time.Duration(secs) * time.Second)
		}
	}
	return time.Time{}
}
