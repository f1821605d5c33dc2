package backend

import (
	"context"
	"errors"
	"net/http"

	"github.com/InternHub-KE/client/internal/domain/users"
)

// AuthResponse is the result of every exchange endpoint: the application
// session token and the backend's projection of the account.
type AuthResponse struct {
	Token string            `json:"token"`
	User  users.UserProfile `json:"user"`
}

// RegisterParams are the profile fields collected at credential sign-up.
type RegisterParams struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Password  string `json:"password"`
}

// ExchangeParams carries a provider-issued identity token to the backend for
// verification and session issuance.
type ExchangeParams struct {
	ProviderToken string `json:"firebaseToken"`
	Email         string `json:"email"`
	DisplayName   string `json:"displayName"`
	ProviderID    string `json:"uid"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login performs a credential login. Non-success responses are returned as
// *ExchangeError carrying the server's message.
func (c *Client) Login(ctx context.Context, email, password string) (AuthResponse, error) {
	var out AuthResponse
	err := c.do(ctx, http.MethodPost, "/auth/login", nil, loginRequest{Email: email, Password: password}, &out, false)
	return out, mapExchangeError(err)
}

// Register creates an account with credentials and returns the first session.
func (c *Client) Register(ctx context.Context, params RegisterParams) (AuthResponse, error) {
	var out AuthResponse
	err := c.do(ctx, http.MethodPost, "/auth/register", nil, params, &out, false)
	return out, mapExchangeError(err)
}

// ExchangeProviderToken trades a provider identity token for an application
// session. newAccount selects the first-sign-up variant of the endpoint.
func (c *Client) ExchangeProviderToken(ctx context.Context, params ExchangeParams, newAccount bool) (AuthResponse, error) {
	endpoint := "/auth/firebase-login"
	if newAccount {
		endpoint = "/auth/firebase-register"
	}
	var out AuthResponse
	err := c.do(ctx, http.MethodPost, endpoint, nil, params, &out, false)
	return out, mapExchangeError(err)
}

// mapExchangeError maps raw results from exchange endpoints onto the typed
// taxonomy: any non-2xx becomes an ExchangeError.
func mapExchangeError(err error) error {
	if err == nil {
		return nil
	}
	var herr *httpError
	if errors.As(err, &herr) {
		return &ExchangeError{Status: herr.Status, Message: herr.Message}
	}
	return err
}
