// Package opportunities defines the listing record, its moderation lifecycle,
// and draft normalization. The lifecycle transition table here mirrors the
// backend's rules but is advisory on the client: the server remains the source
// of truth for whether a transition is legal.
package opportunities

import "time"

// Status is an opportunity's position in the moderation lifecycle.
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
	StatusActive   Status = "active"
	StatusClosed   Status = "closed"
)

// FilterAll is the list filter that matches every status.
const FilterAll = "all"

// Source identifies where a listing originated.
type Source string

const (
	SourceManual Source = "manual"
	SourceAdzuna Source = "adzuna"
	SourceJooble Source = "jooble"
	SourceRSS    Source = "rss"
)

// Type distinguishes the two placement kinds the platform lists.
type Type string

const (
	TypeInternship           Type = "internship"
	TypeIndustrialAttachment Type = "industrial-attachment"
)

// Categories accepted by the backend for manually created listings.
var Categories = []string{"IT", "Engineering", "Business", "Healthcare", "Other"}

// Opportunity is a listing record as returned by the backend. Optional fields
// are pointers; absence is typed, not an empty string guessed at.
type Opportunity struct {
	ID                  string    `json:"id"`
	Title               string    `json:"title"`
	Company             string    `json:"company"`
	Description         string    `json:"description"`
	Requirements        []string  `json:"requirements"`
	Location            string    `json:"location"`
	Duration            *string   `json:"duration,omitempty"`
	Positions           int       `json:"positions"`
	ApplicationDeadline time.Time `json:"applicationDeadline"`
	Type                Type      `json:"type"`
	Category            string    `json:"category"`
	Stipend             *string   `json:"stipend,omitempty"`
	ApplyURL            *string   `json:"applyUrl,omitempty"`
	Source              Source    `json:"source"`
	Status              Status    `json:"status"`
	CreatedAt           time.Time `json:"createdAt"`
}

// transitions is the full set of legal lifecycle edges. rejected and closed
// are terminal; nothing re-enters pending.
var transitions = map[Status][]Status{
	StatusPending:  {StatusApproved, StatusRejected},
	StatusApproved: {StatusActive, StatusClosed},
	StatusRejected: {},
	StatusClosed:   {},
	StatusActive:   {StatusClosed},
}

// CanTransition reports whether from -> to is a legal lifecycle edge.
func CanTransition(from, to Status) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no edge leaves the given status.
func IsTerminal(s Status) bool {
	return len(transitions[s]) == 0
}

// ValidStatus reports whether s is a known lifecycle status.
func ValidStatus(s Status) bool {
	_, ok := transitions[s]
	return ok
}

// ValidFilter reports whether f is usable as a moderation list filter.
func ValidFilter(f string) bool {
	return f == FilterAll || ValidStatus(Status(f))
}
