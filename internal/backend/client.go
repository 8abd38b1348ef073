// Package backend is the HTTP client for the word and order store.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"

	"github.com/a3tai/sensitive-scan/internal/logger"
)

// Sentinel errors for the backend package.
var (
	// ErrNotFound is returned when the backend has no record with the requested id.
	ErrNotFound = errors.New("backend record not found")

	// ErrNotConfigured is returned by a client created without a base URL.
	ErrNotConfigured = errors.New("backend URL not configured")
)

const (
	DefaultTimeout      = 30 * time.Second
	DefaultReadAttempts = 3
	DefaultRetryDelay   = 500 * time.Millisecond
	maxErrorBodyExcerpt = 512
)

// StatusError is a non-success response from the backend
type StatusError struct {
	Method string
	Path   string
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("backend %s %s: status %d", e.Method, e.Path, e.Status)
	}
	return fmt.Sprintf("backend %s %s: status %d: %s", e.Method, e.Path, e.Status, e.Body)
}

// Client talks to the backend REST API
type Client struct {
	url          string
	httpClient   *http.Client
	readAttempts uint
	retryDelay   time.Duration
}

// Option configures a Client
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithRetry sets how often reads are attempted and the initial backoff delay
func WithRetry(attempts uint, delay time.Duration) Option {
	return func(c *Client) {
		if attempts > 0 {
			c.readAttempts = attempts
		}
		if delay >= 0 {
			c.retryDelay = delay
		}
	}
}

// NewClient creates a backend client. A zero timeout selects DefaultTimeout.
func NewClient(url string, timeout time.Duration, opts ...Option) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	c := &Client{
		url:          strings.TrimSuffix(url, "/"),
		httpClient:   &http.Client{Timeout: timeout},
		readAttempts: DefaultReadAttempts,
		retryDelay:   DefaultRetryDelay,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Configured reports whether the client has a backend URL
func (c *Client) Configured() bool {
	return c.url != ""
}

// get performs an idempotent read, retrying transport errors and 5xx responses
// with exponential backoff.
func (c *Client) get(ctx context.Context, path string, out any) error {
	if !c.Configured() {
		return ErrNotConfigured
	}
	return retry.Do(
		func() error {
			err := c.do(ctx, http.MethodGet, path, nil, out)
			var statusErr *StatusError
			if errors.As(err, &statusErr) && statusErr.Status < http.StatusInternalServerError {
				return retry.Unrecoverable(err)
			}
			return err
		},
		retry.Context(ctx),
		retry.Attempts(c.readAttempts),
		retry.Delay(c.retryDelay),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			logger.Warn(ctx, "retrying backend read", "path", path, "attempt", n+1, "error", err)
		}),
	)
}

// do sends one request. A nil body sends no payload; a nil out discards the response.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	if !c.Configured() {
		return ErrNotConfigured
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.url+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%s %s: %w", method, path, ErrNotFound)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		excerpt := strings.TrimSpace(string(respBody))
		if len(excerpt) > maxErrorBodyExcerpt {
			excerpt = excerpt[:maxErrorBodyExcerpt]
		}
		return &StatusError{Method: method, Path: path, Status: resp.StatusCode, Body: excerpt}
	}

	if out == nil || len(bytes.TrimSpace(respBody)) == 0 {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("failed to unmarshal response: %w", err)
	}
	return nil
}

type idResponse struct {
	ID int64 `json:"id"`
}

func idPath(prefix string, id int64) string {
	return prefix + "/" + strconv.FormatInt(id, 10)
}
