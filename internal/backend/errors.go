package backend

import "fmt"

// APIError is a non-2xx response that fits no more specific category.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("request failed with status %d", e.Status)
}

// NetworkError wraps a transport-level failure: connection refused, DNS,
// timeout, cancelled context. The operation never produced an HTTP status.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network error during %s: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// ExchangeError is a non-success response from a token-exchange endpoint
// (/auth/login, /auth/register, /auth/firebase-login, /auth/firebase-register).
type ExchangeError struct {
	Status  int
	Message string
}

func (e *ExchangeError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("exchange failed with status %d", e.Status)
}

// ServerError is a 5xx response from a moderation or stats endpoint.
type ServerError struct {
	Status  int
	Message string
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("server error (%d): %s", e.Status, e.Message)
}

// ConflictError reports an illegal status transition rejected by the backend,
// e.g. approving a record that is already terminal.
type ConflictError struct {
	Message string
}

func (e *ConflictError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return "conflicting status transition"
}

// PermissionError reports that the caller's session lacks the required role.
// Authorization is enforced by the backend; the client never gates on role.
type PermissionError struct {
	Status  int
	Message string
}

func (e *PermissionError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("permission denied (%d)", e.Status)
}
