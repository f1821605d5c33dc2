package backend

import (
	"context"
	"errors"
	"net/http"
	"net/url"

	"github.com/InternHub-KE/client/internal/domain/opportunities"
)

// StatsSnapshot is the server-computed dashboard aggregate. It is derived
// state: the client only fetches and exposes it, never computes it.
type StatsSnapshot struct {
	TotalOpportunities  int `json:"totalOpportunities"`
	ActiveOpportunities int `json:"activeOpportunities"`
	PendingApplications int `json:"pendingApplications"`
	TotalUsers          int `json:"totalUsers"`
}

// CreateOpportunityParams is the admin creation payload: a normalized draft
// plus the policy-selected initial status.
type CreateOpportunityParams struct {
	opportunities.Draft
	Status opportunities.Status `json:"status"`
}

// PublicOpportunities fetches the unauthenticated listing. The backend
// filters server-side; status may be empty for the default set.
func (c *Client) PublicOpportunities(ctx context.Context, status string) ([]opportunities.Opportunity, error) {
	query := url.Values{}
	if status != "" {
		query.Set("status", status)
	}
	var out []opportunities.Opportunity
	if err := c.get(ctx, "/opportunities", query, &out, false); err != nil {
		return nil, mapAdminError(err)
	}
	return out, nil
}

// AdminStats fetches the moderation dashboard aggregate.
func (c *Client) AdminStats(ctx context.Context) (StatsSnapshot, error) {
	var out StatsSnapshot
	if err := c.get(ctx, "/admin/stats", nil, &out, true); err != nil {
		return StatsSnapshot{}, mapAdminError(err)
	}
	return out, nil
}

// AdminOpportunities fetches the moderation list for the given filter.
func (c *Client) AdminOpportunities(ctx context.Context, filter string) ([]opportunities.Opportunity, error) {
	query := url.Values{"status": {filter}}
	var out []opportunities.Opportunity
	if err := c.get(ctx, "/admin/opportunities", query, &out, true); err != nil {
		return nil, mapAdminError(err)
	}
	return out, nil
}

// CreateOpportunity submits a new listing.
func (c *Client) CreateOpportunity(ctx context.Context, params CreateOpportunityParams) (opportunities.Opportunity, error) {
	var out opportunities.Opportunity
	err := c.do(ctx, http.MethodPost, "/admin/opportunities", nil, params, &out, true)
	if err != nil {
		return opportunities.Opportunity{}, mapAdminError(err)
	}
	return out, nil
}

// ApproveOpportunity transitions one record to approved. The server decides
// whether the transition is legal; an already-terminal record yields a
// ConflictError.
func (c *Client) ApproveOpportunity(ctx context.Context, id string) (opportunities.Opportunity, error) {
	return c.transition(ctx, id, "approve")
}

// RejectOpportunity transitions one record to rejected.
func (c *Client) RejectOpportunity(ctx context.Context, id string) (opportunities.Opportunity, error) {
	return c.transition(ctx, id, "reject")
}

func (c *Client) transition(ctx context.Context, id, action string) (opportunities.Opportunity, error) {
	var out opportunities.Opportunity
	endpoint := "/admin/opportunities/" + url.PathEscape(id) + "/" + action
	err := c.do(ctx, http.MethodPatch, endpoint, nil, struct{}{}, &out, true)
	if err != nil {
		return opportunities.Opportunity{}, mapAdminError(err)
	}
	return out, nil
}

// DeleteOpportunity permanently removes one record.
func (c *Client) DeleteOpportunity(ctx context.Context, id string) error {
	endpoint := "/admin/opportunities/" + url.PathEscape(id)
	return mapAdminError(c.do(ctx, http.MethodDelete, endpoint, nil, nil, nil, true))
}

// mapAdminError maps raw results from moderation and stats endpoints onto the
// typed taxonomy.
func mapAdminError(err error) error {
	if err == nil {
		return nil
	}
	var herr *httpError
	if !errors.As(err, &herr) {
		return err
	}
	switch {
	case herr.Status == http.StatusUnauthorized || herr.Status == http.StatusForbidden:
		return &PermissionError{Status: herr.Status, Message: herr.Message}
	case herr.Status == http.StatusConflict:
		return &ConflictError{Message: herr.Message}
	case herr.Status >= 500:
		return &ServerError{Status: herr.Status, Message: herr.Message}
	default:
		return &APIError{Status: herr.Status, Message: herr.Message}
	}
}
