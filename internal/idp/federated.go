package idp

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog"
)

// LoopbackConfig configures the loopback federated flow: the provider's
// hosted sign-in page redirects back to a listener on localhost once the
// user finishes in the browser.
type LoopbackConfig struct {
	// AuthURL is the provider's hosted federated sign-in page.
	AuthURL string
	// ClientID identifies this application to the provider.
	ClientID string
	// Port is the localhost callback port.
	Port int
	// OpenURL presents the sign-in URL to the user, e.g. by launching a
	// browser or printing it. Required.
	OpenURL func(url string) error
}

// GenerateState produces a random state parameter binding the callback to
// this flow instance.
func GenerateState() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate state: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// NewLoopbackFlow builds a FederatedFlow that listens on localhost for the
// provider redirect. The flow ends when the callback arrives or ctx is
// cancelled, whichever comes first; the listener never outlives the call.
func NewLoopbackFlow(cfg LoopbackConfig, logger zerolog.Logger) FederatedFlow {
	log := logger.With().Str("component", "idp.federated").Logger()

	return func(ctx context.Context) (FederatedCredential, error) {
		if cfg.OpenURL == nil {
			return FederatedCredential{}, errors.New("loopback flow requires an OpenURL presenter")
		}

		state, err := GenerateState()
		if err != nil {
			return FederatedCredential{}, err
		}

		listener, err := net.Listen("tcp", fmt.Sprintf("127.0.0.1:%d", cfg.Port))
		if err != nil {
			return FederatedCredential{}, fmt.Errorf("start callback listener: %w", err)
		}

		redirectURI := fmt.Sprintf("http://%s/callback", listener.Addr().String())
		authURL := cfg.AuthURL + "?" + url.Values{
			"client_id":    {cfg.ClientID},
			"redirect_uri": {redirectURI},
			"state":        {state},
		}.Encode()

		type callbackResult struct {
			cred FederatedCredential
			err  error
		}
		results := make(chan callbackResult, 1)

		mux := http.NewServeMux()
		mux.HandleFunc("/callback", func(w http.ResponseWriter, r *http.Request) {
			query := r.URL.Query()
			if query.Get("state") != state {
				http.Error(w, "state mismatch", http.StatusBadRequest)
				results <- callbackResult{err: &ProviderError{Code: CodeFlowCancelled, Message: "state mismatch"}}
				return
			}
			if errCode := query.Get("error"); errCode != "" {
				http.Error(w, "sign-in failed", http.StatusBadRequest)
				results <- callbackResult{err: &ProviderError{Code: errCode}}
				return
			}
			idToken := query.Get("id_token")
			if idToken == "" {
				http.Error(w, "missing token", http.StatusBadRequest)
				results <- callbackResult{err: &ProviderError{Code: CodeFlowCancelled, Message: "callback carried no token"}}
				return
			}
			fmt.Fprintln(w, "Signed in. You can close this window.")
			results <- callbackResult{cred: FederatedCredential{
				IDToken:      idToken,
				RefreshToken: query.Get("refresh_token"),
				ProviderID:   query.Get("uid"),
				Email:        query.Get("email"),
				DisplayName:  query.Get("display_name"),
			}}
		})

		server := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}
		go func() {
			if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Debug().Err(err).Msg("callback server stopped")
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			_ = server.Shutdown(shutdownCtx)
		}()

		if err := cfg.OpenURL(authURL); err != nil {
			return FederatedCredential{}, fmt.Errorf("open sign-in URL: %w", err)
		}
		log.Info().Str("redirect_uri", redirectURI).Msg("waiting for federated callback")

		select {
		case result := <-results:
			return result.cred, result.err
		case <-ctx.Done():
			return FederatedCredential{}, &ProviderError{Code: CodeFlowCancelled, Message: "federated flow cancelled"}
		}
	}
}
