package idp

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// unsignedToken builds a JWT-shaped token with the given exp claim; the
// bridge reads claims without verifying.
func unsignedToken(t *testing.T, exp time.Time) string {
	t.Helper()
	header := base64.RawURLEncoding.EncodeToString([]byte(`{"alg":"none","typ":"JWT"}`))
	payload := base64.RawURLEncoding.EncodeToString([]byte(fmt.Sprintf(`{"exp":%d,"sub":"p1"}`, exp.Unix())))
	return header + "." + payload + "."
}

func newTestBridge(t *testing.T, handler http.Handler) *RESTBridge {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	bridge := NewRESTBridge(RESTConfig{
		APIKey:   "test-key",
		BaseURL:  server.URL,
		TokenURL: server.URL + "/token",
	}, zerolog.Nop())
	t.Cleanup(bridge.Close)
	return bridge
}

func TestSignIn_Success(t *testing.T) {
	token := unsignedToken(t, time.Now().Add(time.Hour))
	bridge := newTestBridge(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/accounts:signInWithPassword", r.URL.Path)
		require.Equal(t, "test-key", r.URL.Query().Get("key"))

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "a@b.com", body["email"])
		assert.Equal(t, true, body["returnSecureToken"])

		json.NewEncoder(w).Encode(map[string]string{
			"idToken":      token,
			"refreshToken": "r1",
			"localId":      "p1",
			"email":        "a@b.com",
			"displayName":  "Amina",
		})
	}))

	state, err := bridge.SignIn(context.Background(), "a@b.com", "secret")
	require.NoError(t, err)
	require.True(t, state.SignedIn())
	assert.Equal(t, "p1", state.Identity.ProviderID)
	assert.Equal(t, "Amina", state.Identity.DisplayName)
	assert.Equal(t, token, state.Token)
	assert.Equal(t, state, bridge.Current())
}

func TestSignIn_BadCredentials(t *testing.T) {
	bridge := newTestBridge(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":{"message":"INVALID_LOGIN_CREDENTIALS"}}`))
	}))

	_, err := bridge.SignIn(context.Background(), "a@b.com", "nope")
	var perr *ProviderError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, CodeInvalidCredentials, perr.Code)
	assert.False(t, bridge.Current().SignedIn())
}

func TestSignUp_EmailExists(t *testing.T) {
	bridge := newTestBridge(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/accounts:signUp", r.URL.Path)
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":{"message":"EMAIL_EXISTS"}}`))
	}))

	_, err := bridge.SignUp(context.Background(), "a@b.com", "secret")
	var perr *ProviderError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, CodeEmailExists, perr.Code)
}

func TestSubscribe_EmitsOnSignInAndSignOut(t *testing.T) {
	token := unsignedToken(t, time.Now().Add(time.Hour))
	bridge := newTestBridge(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{
			"idToken": token, "refreshToken": "r1", "localId": "p1", "email": "a@b.com",
		})
	}))

	var events []AuthState
	unsubscribe := bridge.Subscribe(func(s AuthState) {
		events = append(events, s)
	})

	// immediate replay of the (signed out) current state
	require.Len(t, events, 1)
	assert.False(t, events[0].SignedIn())

	_, err := bridge.SignIn(context.Background(), "a@b.com", "secret")
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.True(t, events[1].SignedIn())

	require.NoError(t, bridge.SignOut(context.Background()))
	require.Len(t, events, 3)
	assert.False(t, events[2].SignedIn())

	unsubscribe()
	_, _ = bridge.SignIn(context.Background(), "a@b.com", "secret")
	assert.Len(t, events, 3, "no events after unsubscribe")
}

func TestFederatedSignIn_Cancelled(t *testing.T) {
	bridge := newTestBridge(t, http.NotFoundHandler())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	bridge.federated = func(ctx context.Context) (FederatedCredential, error) {
		<-ctx.Done()
		return FederatedCredential{}, ctx.Err()
	}

	_, err := bridge.FederatedSignIn(ctx)
	var perr *ProviderError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, CodeFlowCancelled, perr.Code)
}

func TestParseExpiry(t *testing.T) {
	exp := time.Now().Add(45 * time.Minute).Truncate(time.Second)
	got := parseExpiry(unsignedToken(t, exp), "")
	assert.Equal(t, exp.Unix(), got.Unix())

	// malformed token falls back to expiresIn seconds
	got = parseExpiry("not-a-jwt", "3600")
	assert.WithinDuration(t, time.Now().Add(time.Hour), got, 5*time.Second)

	assert.True(t, parseExpiry("", "").IsZero())
}

type parsedAuthURL struct {
	redirectURI string
	state       string
}

func parseAuthURL(raw string) (parsedAuthURL, error) {
	parsed, err := url.Parse(raw)
	if err != nil {
		return parsedAuthURL{}, err
	}
	return parsedAuthURL{
		redirectURI: parsed.Query().Get("redirect_uri"),
		state:       parsed.Query().Get("state"),
	}, nil
}

func TestLoopbackFlow_Callback(t *testing.T) {
	var authURL string
	flow := NewLoopbackFlow(LoopbackConfig{
		AuthURL:  "https://idp.example/auth",
		ClientID: "client-1",
		Port:     0,
		OpenURL: func(u string) error {
			authURL = u
			return nil
		},
	}, zerolog.Nop())

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	done := make(chan struct{})
	var cred FederatedCredential
	var flowErr error
	go func() {
		defer close(done)
		cred, flowErr = flow(ctx)
	}()

	// Wait for the flow to publish its auth URL, then play the provider's
	// part: redirect the user agent to the loopback callback.
	require.Eventually(t, func() bool { return authURL != "" }, 2*time.Second, 10*time.Millisecond)

	parsed, err := parseAuthURL(authURL)
	require.NoError(t, err)
	resp, err := http.Get(parsed.redirectURI + "?state=" + parsed.state +
		"&id_token=tok1&uid=p9&email=a@b.com&display_name=Amina")
	require.NoError(t, err)
	resp.Body.Close()

	<-done
	require.NoError(t, flowErr)
	assert.Equal(t, "tok1", cred.IDToken)
	assert.Equal(t, "p9", cred.ProviderID)
	assert.Equal(t, "a@b.com", cred.Email)
}

func TestLoopbackFlow_StateMismatch(t *testing.T) {
	var authURL string
	flow := NewLoopbackFlow(LoopbackConfig{
		AuthURL:  "https://idp.example/auth",
		ClientID: "client-1",
		Port:     0,
		OpenURL: func(u string) error {
			authURL = u
			return nil
		},
	}, zerolog.Nop())

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		_, err := flow(ctx)
		done <- err
	}()

	require.Eventually(t, func() bool { return authURL != "" }, 2*time.Second, 10*time.Millisecond)
	parsed, err := parseAuthURL(authURL)
	require.NoError(t, err)

	resp, err := http.Get(parsed.redirectURI + "?state=wrong&id_token=tok1")
	require.NoError(t, err)
	resp.Body.Close()

	flowErr := <-done
	var perr *ProviderError
	require.True(t, errors.As(flowErr, &perr))
}
