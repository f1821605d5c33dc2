// Package idp wraps the external identity provider: credential sign-in and
// sign-up, the federated browser flow, sign-out, and the authentication-state
// event stream the session synchronizer reconciles against. Only the
// provider's emitted token/event contract is consumed; its internal protocol
// is out of scope.
package idp

import (
	"context"
	"fmt"

	"github.com/InternHub-KE/client/internal/domain/users"
)

// AuthState is one observation of the provider's authentication state. A nil
// Identity means signed out; Token is the provider-issued ID token and is
// non-empty exactly when Identity is present.
type AuthState struct {
	Identity *users.Identity
	Token    string
}

// SignedIn reports whether the state carries a live identity.
func (s AuthState) SignedIn() bool {
	return s.Identity != nil && s.Token != ""
}

// Unsubscribe disposes one auth-state subscription. Safe to call more than
// once.
type Unsubscribe func()

// Bridge is the provider-facing contract consumed by the session
// synchronizer. Implementations must emit an auth-state event on every
// sign-in, token refresh and sign-out, including sign-outs originating at the
// provider (token revocation elsewhere).
type Bridge interface {
	// SignUp creates a provider identity from credentials and signs it in.
	SignUp(ctx context.Context, email, password string) (AuthState, error)

	// SignIn authenticates existing credentials.
	SignIn(ctx context.Context, email, password string) (AuthState, error)

	// FederatedSignIn runs the provider-native federated flow and returns
	// the resulting state. Cancellation of the flow is a ProviderError.
	FederatedSignIn(ctx context.Context) (AuthState, error)

	// SignOut invalidates the current provider session.
	SignOut(ctx context.Context) error

	// Subscribe registers fn for auth-state changes and returns its
	// disposal handle. fn is invoked immediately with the current state.
	Subscribe(fn func(AuthState)) Unsubscribe

	// Current returns the provider's present authentication state.
	Current() AuthState

	// Close stops background token refreshing and drops all subscribers.
	Close()
}

// ProviderError is a rejection emitted by the identity provider: bad
// credentials, email collision, cancelled federated flow.
type ProviderError struct {
	Code    string
	Message string
}

func (e *ProviderError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	return e.Code
}

// Well-known provider rejection codes.
const (
	CodeEmailExists        = "EMAIL_EXISTS"
	CodeInvalidCredentials = "INVALID_LOGIN_CREDENTIALS"
	CodeFlowCancelled      = "FLOW_CANCELLED"
	CodeTokenExpired       = "TOKEN_EXPIRED"
)
