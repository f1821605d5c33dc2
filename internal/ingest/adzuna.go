package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/time/rate"
)

const (
	// AdzunaBaseURL is the public Adzuna jobs API endpoint.
	AdzunaBaseURL = "https://api.adzuna.com/v1/api"
	// AdzunaDefaultTimeout for HTTP requests.
	AdzunaDefaultTimeout = 10 * time.Second
	// AdzunaDefaultRateLimit keeps well inside the free-tier quota.
	AdzunaDefaultRateLimit = rate.Limit(1.0)
	// AdzunaResultsPerPage is the page size requested from the API.
	AdzunaResultsPerPage = 50
)

// AdzunaClient handles communication with the Adzuna jobs search API.
type AdzunaClient struct {
	httpClient *http.Client
	baseURL    string
	appID      string
	appKey     string
	limiter    *rate.Limiter
}

// AdzunaOption configures an AdzunaClient.
type AdzunaOption func(*AdzunaClient)

// WithAdzunaHTTPClient sets a custom HTTP client.
func WithAdzunaHTTPClient(client *http.Client) AdzunaOption {
	return func(c *AdzunaClient) {
		c.httpClient = client
	}
}

// WithAdzunaBaseURL overrides the API endpoint, mainly for tests.
func WithAdzunaBaseURL(baseURL string) AdzunaOption {
	return func(c *AdzunaClient) {
		c.baseURL = baseURL
	}
}

// WithAdzunaRateLimit sets a custom rate limit (requests per second).
func WithAdzunaRateLimit(rps float64) AdzunaOption {
	return func(c *AdzunaClient) {
		c.limiter = rate.NewLimiter(rate.Limit(rps), 1)
	}
}

// NewAdzunaClient creates an Adzuna API client. appID and appKey come from
// the Adzuna developer console.
func NewAdzunaClient(appID, appKey string, opts ...AdzunaOption) *AdzunaClient {
	client := &AdzunaClient{
		httpClient: &http.Client{Timeout: AdzunaDefaultTimeout},
		baseURL:    AdzunaBaseURL,
		appID:      appID,
		appKey:     appKey,
		limiter:    rate.NewLimiter(AdzunaDefaultRateLimit, 1),
	}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

// AdzunaJob is one search hit as returned by the API.
type AdzunaJob struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	RedirectURL string `json:"redirect_url"`
	Created     string `json:"created"`
	Company     struct {
		DisplayName string `json:"display_name"`
	} `json:"company"`
	Location struct {
		DisplayName string `json:"display_name"`
	} `json:"location"`
}

type adzunaResponse struct {
	Results []AdzunaJob `json:"results"`
}

// Search fetches one page of results for a country and query. Pages are
// 1-based, matching the API's path scheme.
func (c *AdzunaClient) Search(ctx context.Context, country, what string, page int) ([]AdzunaJob, error) {
	if c.appID == "" || c.appKey == "" {
		return nil, fmt.Errorf("adzuna credentials not configured")
	}
	if page < 1 {
		page = 1
	}

	params := url.Values{}
	params.Set("app_id", c.appID)
	params.Set("app_key", c.appKey)
	params.Set("what", what)
	params.Set("results_per_page", strconv.Itoa(AdzunaResultsPerPage))
	params.Set("content-type", "application/json")

	requestURL := fmt.Sprintf("%s/jobs/%s/search/%d?%s", c.baseURL, url.PathEscape(country), page, params.Encode())

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create adzuna request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("adzuna search: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("adzuna search: unexpected status %d: %s", resp.StatusCode, string(body))
	}

	var decoded adzunaResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("decode adzuna response: %w", err)
	}
	return decoded.Results, nil
}
