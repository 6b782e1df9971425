package optimizer

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
)

// Transport performs a single request/response exchange with the server.
// Implemented by *Client; tests substitute scripted transports.
type Transport interface {
	Send(ctx context.Context, method, path string, body any) (string, error)
}

// Ensure Client implements Transport at compile time.
var _ Transport = (*Client)(nil)

// Client talks to the optimisation server's HTTP API.
type Client struct {
	baseURL   *url.URL
	http      *http.Client
	userAgent string
}

const (
	defaultAPIBase   = "127.0.0.1:8081"
	defaultUserAgent = "foilwatch/0.1"
	defaultTimeout   = 10 * time.Second
	maxBodyBytes     = 8 << 20

	runPath      = "/run"
	statusPath   = "/get_status"
	artifactPath = "/outputs/airfoil.png"
)

// TransportError reports a failed exchange. StatusCode is zero when no
// response was received.
type TransportError struct {
	Method     string
	URL        string
	StatusCode int
	Message    string
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s %s: status %d: %s", e.Method, e.URL, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s %s: %s", e.Method, e.URL, e.Message)
}

func (e *TransportError) Unwrap() error { return e.Err }

// NewClient builds a Client for apiBase, which may be host:port or a URL.
// A non-positive timeout uses the default.
func NewClient(apiBase string, timeout time.Duration) (*Client, error) {
	base, err := parseBaseURL(apiBase)
	if err != nil {
		return nil, err
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		baseURL: base,
		http: &http.Client{
			Timeout: timeout,
		},
		userAgent: defaultUserAgent,
	}, nil
}

// BaseURL returns the normalised server address.
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

// Submit posts a job request to /run. The response body is not inspected.
func (c *Client) Submit(ctx context.Context, req JobRequest) error {
	if c == nil {
		return fmt.Errorf("client is nil")
	}
	if err := req.Validate(); err != nil {
		return err
	}
	_, err := c.Send(ctx, http.MethodPost, runPath, req)
	return err
}

// Status fetches the raw /get_status body.
func (c *Client) Status(ctx context.Context) (string, error) {
	if c == nil {
		return "", fmt.Errorf("client is nil")
	}
	return c.Send(ctx, http.MethodGet, statusPath, nil)
}

// FetchArtifact downloads the rendered airfoil image.
func (c *Client) FetchArtifact(ctx context.Context) ([]byte, error) {
	if c == nil {
		return nil, fmt.Errorf("client is nil")
	}
	return c.exchange(ctx, http.MethodGet, artifactPath, nil, "image/png")
}

// Send performs one exchange and returns the body as text. Status codes
// outside [200,300) are reported as *TransportError.
func (c *Client) Send(ctx context.Context, method, path string, body any) (string, error) {
	if c == nil {
		return "", fmt.Errorf("client is nil")
	}
	data, err := c.exchange(ctx, method, path, body, "application/json")
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func (c *Client) exchange(ctx context.Context, method, path string, body any, accept string) ([]byte, error) {
	reqURL := c.baseURL.ResolveReference(&url.URL{Path: path})
	fail := func(status int, msg string, cause error) error {
		return &TransportError{Method: method, URL: reqURL.String(), StatusCode: status, Message: msg, Err: cause}
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL.String(), reader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", accept)
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fail(0, "request cancelled", ctxErr)
		}
		return nil, fail(0, "request failed", err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes+1))
	if err != nil {
		return nil, fail(resp.StatusCode, "read response", err)
	}
	if len(data) > maxBodyBytes {
		return nil, fail(resp.StatusCode, "response too large", errors.New("body exceeds limit"))
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fail(resp.StatusCode, summarizeBody(data), nil)
	}
	return data, nil
}

// summarizeBody keeps error messages readable when the server returns HTML.
func summarizeBody(data []byte) string {
	text := strings.Join(strings.Fields(string(data)), " ")
	if text == "" {
		return "request failed"
	}
	const limit = 160
	if len(text) > limit {
		return text[:limit] + "…"
	}
	return text
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
	u.Path = ""
	u.RawQuery = ""
	u.Fragment = ""
	return u, nil
}
