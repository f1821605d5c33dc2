// Package idptest provides an in-memory identity provider bridge for tests
// and local development. It should never back a production build.
package idptest

import (
	"context"
	"sync"

	"github.com/InternHub-KE/client/internal/domain/users"
	"github.com/InternHub-KE/client/internal/idp"
)

// Account seeds a credential the fake provider accepts.
type Account struct {
	Email       string
	Password    string
	ProviderID  string
	DisplayName string
	Token       string
}

// Bridge is a scriptable idp.Bridge. Sign-ins succeed for seeded accounts;
// EmitSignedOut simulates a provider-driven external sign-out.
type Bridge struct {
	mu          sync.Mutex
	accounts    map[string]Account
	state       idp.AuthState
	subscribers map[int]func(idp.AuthState)
	nextSubID   int

	// FederatedAccount, when set, is returned by FederatedSignIn.
	FederatedAccount *Account
	// SignOutErr, when set, is returned by SignOut (local clearing still
	// proceeds, matching best-effort semantics at the caller).
	SignOutErr error
}

// NewBridge creates a fake provider with the given accounts.
func NewBridge(accounts ...Account) *Bridge {
	b := &Bridge{
		accounts:    make(map[string]Account),
		subscribers: make(map[int]func(idp.AuthState)),
	}
	for _, acct := range accounts {
		b.accounts[acct.Email] = acct
	}
	return b
}

func (b *Bridge) SignUp(ctx context.Context, email, password string) (idp.AuthState, error) {
	b.mu.Lock()
	if _, exists := b.accounts[email]; exists {
		b.mu.Unlock()
		return idp.AuthState{}, &idp.ProviderError{Code: idp.CodeEmailExists}
	}
	acct := Account{
		Email:      email,
		Password:   password,
		ProviderID: "fake-" + email,
		Token:      "idp-token-" + email,
	}
	b.accounts[email] = acct
	b.mu.Unlock()
	return b.adopt(acct), nil
}

func (b *Bridge) SignIn(ctx context.Context, email, password string) (idp.AuthState, error) {
	b.mu.Lock()
	acct, ok := b.accounts[email]
	b.mu.Unlock()
	if !ok || acct.Password != password {
		return idp.AuthState{}, &idp.ProviderError{Code: idp.CodeInvalidCredentials}
	}
	return b.adopt(acct), nil
}

func (b *Bridge) FederatedSignIn(ctx context.Context) (idp.AuthState, error) {
	b.mu.Lock()
	acct := b.FederatedAccount
	b.mu.Unlock()
	if acct == nil {
		return idp.AuthState{}, &idp.ProviderError{Code: idp.CodeFlowCancelled}
	}
	return b.adopt(*acct), nil
}

func (b *Bridge) SignOut(ctx context.Context) error {
	b.mu.Lock()
	err := b.SignOutErr
	b.state = idp.AuthState{}
	subs := b.snapshotLocked()
	b.mu.Unlock()

	for _, fn := range subs {
		fn(idp.AuthState{})
	}
	return err
}

func (b *Bridge) Subscribe(fn func(idp.AuthState)) idp.Unsubscribe {
	b.mu.Lock()
	id := b.nextSubID
	b.nextSubID++
	b.subscribers[id] = fn
	current := b.state
	b.mu.Unlock()

	fn(current)
	return func() {
		b.mu.Lock()
		delete(b.subscribers, id)
		b.mu.Unlock()
	}
}

func (b *Bridge) Current() idp.AuthState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

func (b *Bridge) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscribers = make(map[int]func(idp.AuthState))
}

// EmitSignedOut simulates a provider-side revocation: state clears and all
// subscribers observe a signed-out event without any SignOut call.
func (b *Bridge) EmitSignedOut() {
	b.mu.Lock()
	b.state = idp.AuthState{}
	subs := b.snapshotLocked()
	b.mu.Unlock()

	for _, fn := range subs {
		fn(idp.AuthState{})
	}
}

// EmitSignedIn simulates a provider-side session appearing, e.g. restored
// from another surface.
func (b *Bridge) EmitSignedIn(acct Account) {
	b.adopt(acct)
}

func (b *Bridge) adopt(acct Account) idp.AuthState {
	identity := users.Identity{
		ProviderID:  acct.ProviderID,
		Email:       acct.Email,
		DisplayName: acct.DisplayName,
	}
	token := acct.Token
	if token == "" {
		token = "idp-token-" + acct.Email
	}
	state := idp.AuthState{Identity: &identity, Token: token}

	b.mu.Lock()
	b.state = state
	subs := b.snapshotLocked()
	b.mu.Unlock()

	for _, fn := range subs {
		fn(state)
	}
	return state
}

func (b *Bridge) snapshotLocked() []func(idp.AuthState) {
	subs := make([]func(idp.AuthState), 0, len(b.subscribers))
	for i := 0; i < b.nextSubID; i++ {
		if fn, ok := b.subscribers[i]; ok {
			subs = append(subs, fn)
		}
	}
	return subs
}
