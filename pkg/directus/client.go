// Package directus is a small typed client for the Directus items REST API
// that stores postings and reports.
package directus

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tidwall/gjson"
	"golang.org/x/time/rate"

	"github.com/noah-isme/thesurve-web/pkg/middleware/requestid"
)

// Observer receives one callback per HTTP exchange with the API.
type Observer func(operation string, status int, duration time.Duration, err error)

// Config holds client configuration. A Client never changes after New; build
// another one to talk to a different API or with a different token.
type Config struct {
	BaseURL    string
	Token      string
	Timeout    time.Duration
	MaxRetries int
	// RetryBackoff is the first retry delay; later ones double up to 2s.
	RetryBackoff time.Duration
	RateLimit    float64
	RateBurst    int
	Transport    http.RoundTripper
	Observer     Observer
}

// Client talks to a Directus instance.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	limiter    *rate.Limiter
	retry      retryPolicy
	observe    Observer
}

// New creates a client.
func New(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, errors.New("directus: base URL is required")
	}
	if _, err := url.Parse(cfg.BaseURL); err != nil {
		return nil, fmt.Errorf("directus: invalid base URL: %w", err)
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	transport := cfg.Transport
	if transport == nil {
		transport = &http.Transport{
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
		}
	}

	limit := rate.Inf
	if cfg.RateLimit > 0 {
		limit = rate.Limit(cfg.RateLimit)
	}
	burst := cfg.RateBurst
	if burst <= 0 {
		burst = 1
	}

	observe := cfg.Observer
	if observe == nil {
		observe = func(string, int, time.Duration, error) {}
	}

	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		token:      cfg.Token,
		httpClient: &http.Client{Timeout: timeout, Transport: transport},
		limiter:    rate.NewLimiter(limit, burst),
		retry:      newRetryPolicy(cfg.MaxRetries, cfg.RetryBackoff),
		observe:    observe,
	}, nil
}

// APIError is a non-2xx answer from the API.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("directus: %d %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("directus: %d %s", e.StatusCode, http.StatusText(e.StatusCode))
}

// StatusCode extracts the HTTP status of an APIError, or 0.
func StatusCode(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	return 0
}

// envelope is the subset of a Directus response the client inspects.
type envelope struct {
	Data json.RawMessage `json:"data"`
}

func (c *Client) itemsURL(collection string, id string, params url.Values) string {
	u := c.baseURL + "/items/" + url.PathEscape(collection)
	if id != "" {
		u += "/" + url.PathEscape(id)
	}
	if len(params) > 0 {
		u += "?" + params.Encode()
	}
	return u
}

func (c *Client) newRequest(ctx context.Context, method, target string, body any) (*http.Request, error) {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	if id := requestid.FromContext(ctx); id != "" {
		req.Header.Set(requestid.Header(), id)
	}
	return req, nil
}

// do performs the exchange and returns the raw body of a 2xx response. GETs
// are retried on transport errors and retryable statuses; other methods run
// exactly once.
func (c *Client) do(ctx context.Context, operation string, build func() (*http.Request, error)) ([]byte, error) {
	attempts := 1
	if c.retry.maxRetries > 0 {
		attempts += c.retry.maxRetries
	}

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			if err := sleepContext(ctx, c.retry.backoff(attempt)); err != nil {
				return nil, err
			}
		}
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limit wait: %w", err)
		}

		req, err := build()
		if err != nil {
			return nil, err
		}

		start := time.Now()
		body, status, err := c.exchange(req)
		c.observe(operation, status, time.Since(start), err)
		if err == nil {
			return body, nil
		}
		lastErr = err

		if req.Method != http.MethodGet || !c.retry.retryable(status, err) {
			return nil, err
		}
	}
	return nil, lastErr
}

func (c *Client) exchange(req *http.Request) ([]byte, int, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("read body: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, resp.StatusCode, &APIError{
			StatusCode: resp.StatusCode,
			Message:    gjson.GetBytes(body, "errors.0.message").String(),
		}
	}
	return body, resp.StatusCode, nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
