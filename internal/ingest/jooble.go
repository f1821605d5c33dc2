package ingest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"
)

const (
	// JoobleBaseURL is the Jooble REST API endpoint; the API key is the
	// final path segment.
	JoobleBaseURL = "https://jooble.org/api"
	// JoobleDefaultTimeout for HTTP requests.
	JoobleDefaultTimeout = 10 * time.Second
	// JoobleDefaultRateLimit keeps well inside the free-tier quota.
	JoobleDefaultRateLimit = rate.Limit(1.0)
)

// JoobleClient handles communication with the Jooble jobs search API.
type JoobleClient struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	limiter    *rate.Limiter
}

// JoobleOption configures a JoobleClient.
type JoobleOption func(*JoobleClient)

// WithJoobleHTTPClient sets a custom HTTP client.
func WithJoobleHTTPClient(client *http.Client) JoobleOption {
	return func(c *JoobleClient) {
		c.httpClient = client
	}
}

// WithJoobleBaseURL overrides the API endpoint, mainly for tests.
func WithJoobleBaseURL(baseURL string) JoobleOption {
	return func(c *JoobleClient) {
		c.baseURL = baseURL
	}
}

// WithJoobleRateLimit sets a custom rate limit (requests per second).
func WithJoobleRateLimit(rps float64) JoobleOption {
	return func(c *JoobleClient) {
		c.limiter = rate.NewLimiter(rate.Limit(rps), 1)
	}
}

// NewJoobleClient creates a Jooble API client.
func NewJoobleClient(apiKey string, opts ...JoobleOption) *JoobleClient {
	client := &JoobleClient{
		httpClient: &http.Client{Timeout: JoobleDefaultTimeout},
		baseURL:    JoobleBaseURL,
		apiKey:     apiKey,
		limiter:    rate.NewLimiter(JoobleDefaultRateLimit, 1),
	}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

// JoobleJob is one search hit as returned by the API.
type JoobleJob struct {
	ID       int64  `json:"id"`
	Title    string `json:"title"`
	Location string `json:"location"`
	Snippet  string `json:"snippet"`
	Company  string `json:"company"`
	Link     string `json:"link"`
	Updated  string `json:"updated"`
	Type     string `json:"type"`
}

type joobleRequest struct {
	Keywords string `json:"keywords"`
	Location string `json:"location"`
}

type joobleResponse struct {
	TotalCount int         `json:"totalCount"`
	Jobs       []JoobleJob `json:"jobs"`
}

// Search runs one keyword search. Jooble exposes search as a POST with the
// API key in the path.
func (c *JoobleClient) Search(ctx context.Context, keywords, location string) ([]JoobleJob, error) {
	if c.apiKey == "" {
		return nil, fmt.Errorf("jooble API key not configured")
	}

	payload, err := json.Marshal(joobleRequest{Keywords: keywords, Location: location})
	if err != nil {
		return nil, fmt.Errorf("encode jooble request: %w", err)
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	requestURL := c.baseURL + "/" + url.PathEscape(c.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, requestURL, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create jooble request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("jooble search: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("jooble search: unexpected status %d: %s", resp.StatusCode, string(body))
	}

	var decoded joobleResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("decode jooble response: %w", err)
	}
	return decoded.Jobs, nil
}
