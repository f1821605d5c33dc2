// Package backend implements the REST client for the InternHub API: the
// credential and provider-token exchange endpoints, the public listing
// endpoint, and the bearer-authenticated admin moderation surface.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/InternHub-KE/client/internal/metrics"
)

const (
	// DefaultTimeout bounds every request; expiry surfaces as a NetworkError.
	DefaultTimeout = 15 * time.Second
	// DefaultRateLimit caps outbound request rate against the API.
	DefaultRateLimit = rate.Limit(10)
	// DefaultMaxRetries applies to idempotent GETs only.
	DefaultMaxRetries = 2
	// RetryBaseDelay is the initial backoff delay.
	RetryBaseDelay = 500 * time.Millisecond
)

// TokenSource supplies the current session token for bearer-authenticated
// calls. An empty string means no session.
type TokenSource func() string

// Client talks to the InternHub backend API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	limiter    *rate.Limiter
	maxRetries int
	token      TokenSource
	logger     zerolog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.httpClient = client
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = d
	}
}

// WithRateLimit sets a custom rate limit (requests per second).
func WithRateLimit(rps float64) Option {
	return func(c *Client) {
		c.limiter = rate.NewLimiter(rate.Limit(rps), 1)
	}
}

// WithMaxRetries sets the retry budget for idempotent requests.
func WithMaxRetries(n int) Option {
	return func(c *Client) {
		c.maxRetries = n
	}
}

// WithTokenSource sets the session token supplier used for admin calls.
func WithTokenSource(ts TokenSource) Option {
	return func(c *Client) {
		c.token = ts
	}
}

// NewClient creates a backend API client. baseURL is the API root, e.g.
// "https://api.internhub.example/api".
func NewClient(baseURL string, logger zerolog.Logger, opts ...Option) *Client {
	client := &Client{
		httpClient: &http.Client{Timeout: DefaultTimeout},
		baseURL:    strings.TrimRight(baseURL, "/"),
		limiter:    rate.NewLimiter(DefaultRateLimit, 1),
		maxRetries: DefaultMaxRetries,
		token:      func() string { return "" },
		logger:     logger.With().Str("component", "backend").Logger(),
	}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

// apiMessage is the error body shape the backend uses for failures.
type apiMessage struct {
	Message string `json:"message"`
}

func decodeMessage(body []byte) string {
	var m apiMessage
	if err := json.Unmarshal(body, &m); err != nil {
		return ""
	}
	return m.Message
}

// do executes one request and decodes a 2xx JSON body into out (when out is
// non-nil). Non-2xx responses are returned as a *httpError for the caller to
// map onto the typed taxonomy.
func (c *Client) do(ctx context.Context, method, endpoint string, query url.Values, payload, out any, authed bool) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return &NetworkError{Op: endpoint, Err: err}
	}

	requestURL := c.baseURL + endpoint
	if len(query) > 0 {
		requestURL += "?" + query.Encode()
	}

	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, requestURL, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("X-Request-ID", uuid.NewString())
	if authed {
		if token := c.token(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	metrics.BackendRequestDuration.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.BackendRequestsTotal.WithLabelValues(endpoint, "network_error").Inc()
		return &NetworkError{Op: endpoint, Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		metrics.BackendRequestsTotal.WithLabelValues(endpoint, "network_error").Inc()
		return &NetworkError{Op: endpoint, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		outcome := "client_error"
		if resp.StatusCode >= 500 {
			outcome = "server_error"
		}
		metrics.BackendRequestsTotal.WithLabelValues(endpoint, outcome).Inc()
		return &httpError{Status: resp.StatusCode, Message: decodeMessage(respBody)}
	}

	metrics.BackendRequestsTotal.WithLabelValues(endpoint, "ok").Inc()
	if out != nil {
		if err := json.Unmarshal(respBody, out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}

// get executes an idempotent GET with exponential-backoff retries on
// transport errors, 429 and 5xx.
func (c *Client) get(ctx context.Context, endpoint string, query url.Values, out any, authed bool) error {
	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			delay := RetryBaseDelay * time.Duration(1<<uint(attempt-1))
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return &NetworkError{Op: endpoint, Err: ctx.Err()}
			}
		}

		err := c.do(ctx, http.MethodGet, endpoint, query, nil, out, authed)
		if err == nil {
			return nil
		}
		lastErr = err

		if herr, ok := err.(*httpError); ok {
			if herr.Status == http.StatusTooManyRequests || herr.Status >= 500 {
				continue
			}
			return err
		}
		if _, ok := err.(*NetworkError); ok {
			if ctx.Err() != nil {
				return err
			}
			continue
		}
		return err
	}
	return lastErr
}

// httpError is the raw non-2xx result before taxonomy mapping.
type httpError struct {
	Status  int
	Message string
}

func (e *httpError) Error() string {
	return fmt.Sprintf("http %d: %s", e.Status, e.Message)
}
