// Package users defines the user-facing identity types shared across the
// client: the backend's projection of an account and the ephemeral identity
// emitted by the external identity provider.
package users

// Roles recognized by the backend. The client treats these as advisory only;
// authorization is enforced server-side.
const (
	RoleStudent = "student"
	RoleAdmin   = "admin"
)

// UserProfile is the backend's projection of an account. It is immutable on
// the client except through an explicit replacement via the session
// synchronizer's UpdateUser.
type UserProfile struct {
	ID        string `json:"id"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Role      string `json:"role"`
}

// IsAdmin reports whether the profile carries the administrative role.
func (u UserProfile) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// Identity is the provider-owned view of a signed-in principal. It is
// ephemeral and never persisted directly; only the session produced by
// exchanging its token is cached.
type Identity struct {
	ProviderID  string
	Email       string
	DisplayName string
}
