package library

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Credentials supplies and stores the session tokens used by the client.
// Implementations must be safe for concurrent use.
type Credentials interface {
	AccessToken() string
	RefreshToken() string
	Update(access, refresh string) error
}

// Client talks to the library HTTP API.
type Client struct {
	baseURL   *url.URL
	http      *http.Client
	userAgent string
	creds     Credentials
	logger    *slog.Logger

	refreshMu sync.Mutex
}

const (
	defaultAPIBase   = "http://127.0.0.1:3000"
	defaultUserAgent = "librarian/0.1"
	requestTimeout   = 30 * time.Second
	maxErrorBody     = 64 * 1024
)

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		if h != nil {
			c.http = h
		}
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.http.Timeout = d
		}
	}
}

// WithCredentials attaches the session used for bearer auth and refresh.
func WithCredentials(creds Credentials) Option {
	return func(c *Client) { c.creds = creds }
}

// WithLogger routes request logging to logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewClient builds a Client for the API rooted at apiBase.
func NewClient(apiBase string, opts ...Option) (*Client, error) {
	base, err := parseBaseURL(apiBase)
	if err != nil {
		return nil, err
	}
	c := &Client{
		baseURL:   base,
		http:      &http.Client{Timeout: requestTimeout},
		userAgent: defaultUserAgent,
		logger:    slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// BaseURL returns the normalized API root.
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

// APIError is returned for any response with status >= 400.
type APIError struct {
	Method  string
	Path    string
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("api %s %s returned status %d: %s", e.Method, e.Path, e.Status, e.Message)
	}
	return fmt.Sprintf("api %s %s returned status %d", e.Method, e.Path, e.Status)
}

// IsStatus reports whether err is an APIError with the given status.
func IsStatus(err error, status int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == status
}

type request struct {
	method string
	rel    *url.URL
	body   any
	noAuth bool
}

// do performs the request and returns the raw response body. A 401 on an
// authenticated call triggers one token refresh and one retry.
func (c *Client) do(ctx context.Context, req request) ([]byte, error) {
	if c == nil {
		return nil, fmt.Errorf("client is nil")
	}
	var payload []byte
	if req.body != nil {
		encoded, err := json.Marshal(req.body)
		if err != nil {
			return nil, fmt.Errorf("encode request: %w", err)
		}
		payload = encoded
	}

	sentToken := c.accessToken(req.noAuth)
	body, err := c.send(ctx, req, payload, sentToken)
	if err == nil || req.noAuth || !IsStatus(err, http.StatusUnauthorized) {
		return body, err
	}
	if refreshErr := c.refreshAfter(ctx, sentToken); refreshErr != nil {
		c.logger.Warn("token refresh failed", "path", req.rel.Path, "error", refreshErr)
		return nil, err
	}
	return c.send(ctx, req, payload, c.accessToken(false))
}

func (c *Client) send(ctx context.Context, req request, payload []byte, token string) ([]byte, error) {
	reqURL := c.baseURL.ResolveReference(req.rel)
	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}
	httpReq, err := http.NewRequestWithContext(ctx, req.method, reqURL.String(), reader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	requestID := uuid.NewString()
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("User-Agent", c.userAgent)
	httpReq.Header.Set("X-Request-ID", requestID)
	if payload != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+token)
	}

	started := time.Now()
	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	c.logger.Debug("api request",
		"method", req.method,
		"path", req.rel.Path,
		"status", resp.StatusCode,
		"request_id", requestID,
		"elapsed", time.Since(started),
	)

	if resp.StatusCode >= 400 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &APIError{
			Method:  req.method,
			Path:    req.rel.Path,
			Status:  resp.StatusCode,
			Message: errorMessage(raw),
		}
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	return body, nil
}

func (c *Client) accessToken(noAuth bool) string {
	if noAuth || c.creds == nil {
		return ""
	}
	return c.creds.AccessToken()
}

// refreshAfter rotates the session tokens unless another caller already did
// so since stale was sent.
func (c *Client) refreshAfter(ctx context.Context, stale string) error {
	if c.creds == nil {
		return fmt.Errorf("no credentials")
	}
	c.refreshMu.Lock()
	defer c.refreshMu.Unlock()
	if current := c.creds.AccessToken(); current != "" && current != stale {
		return nil
	}
	_, err := c.Refresh(ctx)
	return err
}

// errorMessage pulls "message" out of an error body. The server sends either
// a string or a list of strings.
func errorMessage(raw []byte) string {
	var body struct {
		Message json.RawMessage `json:"message"`
		Error   string          `json:"error"`
	}
	if err := json.Unmarshal(raw, &body); err != nil {
		return strings.TrimSpace(string(raw))
	}
	var msg string
	if err := json.Unmarshal(body.Message, &msg); err == nil && msg != "" {
		return msg
	}
	var msgs []string
	if err := json.Unmarshal(body.Message, &msgs); err == nil && len(msgs) > 0 {
		return strings.Join(msgs, "; ")
	}
	return body.Error
}

func parseBaseURL(apiBase string) (*url.URL, error) {
	trimmed := strings.TrimSpace(apiBase)
	if trimmed == "" {
		trimmed = defaultAPIBase
	}
	if !strings.Contains(trimmed, "://") {
		trimmed = "http://" + trimmed
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("parse api_base %q: %w", apiBase, err)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("parse api_base %q: missing host", apiBase)
	}
	u.Path = strings.TrimRight(u.Path, "/") + "/"
	u.RawPath = ""
	u.RawQuery = ""
	u.Fragment = ""
	return u, nil
}
