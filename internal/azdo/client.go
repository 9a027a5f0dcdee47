// Package azdo talks to the Azure DevOps REST API.
package azdo

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

	"github.com/cenkalti/backoff/v4"
	"github.com/huangsam/popilot/internal/contract"
	"github.com/huangsam/popilot/schema"
	"github.com/rs/zerolog"
)

const (
	apiVersion  = "7.1"
	maxAttempts = 3
	pageSize    = 200
)

// APIError is returned for responses outside the 2xx range.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("azure devops api status=%d body=%s", e.StatusCode, e.Body)
}

// retryable reports whether the request may succeed when sent again.
func (e *APIError) retryable() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

// Client is a DevOpsClient backed by the REST API of one organization.
type Client struct {
	baseURL     string
	pat         string
	http        *http.Client
	log         zerolog.Logger
	parentDepth int
	newBackOff  func() backoff.BackOff
}

var _ contract.DevOpsClient = &Client{}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying http client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// WithLogger sets the logger for request events.
func WithLogger(l zerolog.Logger) Option {
	return func(c *Client) { c.log = l }
}

// WithParentDepth sets how many ancestor levels are resolved for each item.
func WithParentDepth(depth int) Option {
	return func(c *Client) { c.parentDepth = depth }
}

// WithBackoff sets the wait before a retry.
func WithBackoff(f func(attempt int) time.Duration) Option {
	return func(c *Client) {
		c.newBackOff = func() backoff.BackOff { return &attemptBackOff{wait: f} }
	}
}

// attemptBackOff asks a function for the wait before each retry.
type attemptBackOff struct {
	wait    func(attempt int) time.Duration
	attempt int
}

func (b *attemptBackOff) NextBackOff() time.Duration {
	d := b.wait(b.attempt)
	b.attempt++
	return d
}

func (b *attemptBackOff) Reset() { b.attempt = 0 }

// NewClient creates a client for the organization at baseURL (e.g. https://dev.azure.com/my-org).
func NewClient(baseURL, pat string, timeout time.Duration, opts ...Option) *Client {
	c := &Client{
		baseURL:     strings.TrimRight(baseURL, "/"),
		pat:         pat,
		http:        &http.Client{Timeout: timeout},
		log:         zerolog.Nop(),
		parentDepth: contract.DefaultParentDepth,
		newBackOff:  defaultBackOff,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// defaultBackOff waits about 300ms, then 600ms.
func defaultBackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 300 * time.Millisecond
	b.Multiplier = 2
	b.RandomizationFactor = 0.2
	return b
}

// orgURL builds an organization level url.
func (c *Client) orgURL(path string, q url.Values) string {
	return c.apiURL(c.baseURL+path, q)
}

// projectURL builds a project level url.
func (c *Client) projectURL(scope schema.ScopeContext, path string, q url.Values) string {
	return c.apiURL(c.baseURL+"/"+url.PathEscape(scope.Project)+path, q)
}

// teamURL builds a team level url.
func (c *Client) teamURL(scope schema.ScopeContext, path string, q url.Values) string {
	return c.apiURL(c.baseURL+"/"+url.PathEscape(scope.Project)+"/"+url.PathEscape(scope.Team)+path, q)
}

func (c *Client) apiURL(u string, q url.Values) string {
	if q == nil {
		q = url.Values{}
	}
	q.Set("api-version", apiVersion)
	return u + "?" + q.Encode()
}

// doJSON sends a request and decodes the JSON response into out.
// Throttled and failed server responses are retried with exponential backoff.
func (c *Client) doJSON(ctx context.Context, method, u, contentType string, body, out any) error {
	var payload []byte
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		payload = b
	}

	attempt := 0
	operation := func() error {
		attempt++
		retry, err := c.send(ctx, method, u, contentType, payload, out)
		if err != nil && !retry {
			return backoff.Permanent(err)
		}
		return err
	}
	notify := func(err error, wait time.Duration) {
		c.log.Warn().Err(err).Int("attempt", attempt+1).Dur("wait", wait).Str("url", u).Msg("retrying request")
	}
	b := backoff.WithContext(backoff.WithMaxRetries(c.newBackOff(), maxAttempts-1), ctx)
	return backoff.RetryNotify(operation, b, notify)
}

// send performs one attempt and reports whether a failure is worth retrying.
func (c *Client) send(ctx context.Context, method, u, contentType string, payload []byte, out any) (bool, error) {
	var r io.Reader
	if payload != nil {
		r = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, u, r)
	if err != nil {
		return false, err
	}
	req.SetBasicAuth("", c.pat)
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", contentType)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return true, err
	}
	defer func() { _ = resp.Body.Close() }()
	c.log.Debug().Str("method", method).Str("url", u).Int("status", resp.StatusCode).Dur("took", time.Since(start)).Msg("request")

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		apiErr := &APIError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(b))}
		return apiErr.retryable(), apiErr
	}
	if out == nil {
		return false, nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return false, fmt.Errorf("decode %s: %w", u, err)
	}
	return false, nil
}
