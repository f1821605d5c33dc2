// Package session holds the application session: the in-memory store the
// rest of the client reads, the encrypted on-disk credential cache, and the
// synchronizer that reconciles both with the identity provider and the
// backend's token exchange.
package session

import (
	"time"

	"github.com/InternHub-KE/client/internal/domain/users"
)

// Session is the application-issued credential pair: an opaque bearer token
// and the backend's projection of the account it belongs to. Exactly one
// session is current at a time, held by the Store; the synchronizer is its
// only writer.
type Session struct {
	Token    string            `json:"token"`
	User     users.UserProfile `json:"user"`
	IssuedAt time.Time         `json:"issuedAt"`

	// FromProvider marks a session obtained through a provider-token
	// exchange rather than a direct credential exchange. Only
	// provider-originated sessions are subject to the provider's
	// signed-out state at subscription time; credential sessions never
	// sign into the provider at all.
	FromProvider bool `json:"fromProvider"`
}
