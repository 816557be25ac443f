// Package api talks to the Project Brain backend: it selects capability
// endpoints, performs the HTTP calls and normalizes their responses.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	http "github.com/bogdanfinn/fhttp"
	tls_client "github.com/bogdanfinn/tls-client"
	"github.com/bogdanfinn/tls-client/profiles"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	apierrors "github.com/diogo/projectbrain/internal/errors"
	"github.com/diogo/projectbrain/internal/models"
)

// maxBodySize bounds how much of a response body is read
const maxBodySize = 10 << 20

// defaultTransportTimeout caps an exchange when no WithTimeout is given
const defaultTransportTimeout = 120 * time.Second

// maxErrorBody bounds the body excerpt kept on API errors
const maxErrorBody = 4096

// HTTPDoer is the subset of tls_client.HttpClient used by Client
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// BackendClientInterface is implemented by Client and by test doubles
type BackendClientInterface interface {
	Send(ctx context.Context, req Request) ([]byte, error)
	Ingest(ctx context.Context) error
	Health(ctx context.Context) (string, error)
	BaseURL() string
}

var _ BackendClientInterface = (*Client)(nil)

// Client is the HTTP client for the backend capabilities
type Client struct {
	httpClient HTTPDoer
	baseURL    string
	timeout    time.Duration
	logger     *zap.Logger
}

// ClientOption is a function that configures the client
type ClientOption func(*Client)

// WithHTTPClient replaces the transport, mainly for tests
func WithHTTPClient(doer HTTPDoer) ClientOption {
	return func(c *Client) {
		c.httpClient = doer
	}
}

// WithTimeout bounds each exchange at the transport level. Values under a
// second are ignored.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		if d >= time.Second {
			c.timeout = d
		}
	}
}

// WithLogger sets the logger used for request tracing
func WithLogger(logger *zap.Logger) ClientOption {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewClient creates a client for the backend at baseURL. An empty baseURL
// falls back to models.DefaultBaseURL.
func NewClient(baseURL string, opts ...ClientOption) (*Client, error) {
	base, err := normalizeBaseURL(baseURL)
	if err != nil {
		return nil, err
	}

	client := &Client{
		baseURL: base,
		timeout: defaultTransportTimeout,
		logger:  zap.NewNop(),
	}

	for _, opt := range opts {
		opt(client)
	}

	if client.httpClient == nil {
		// The request context usually expires first
		options := []tls_client.HttpClientOption{
			tls_client.WithTimeoutSeconds(int(client.timeout / time.Second)),
			tls_client.WithClientProfile(profiles.Chrome_120),
			tls_client.WithNotFollowRedirects(),
		}
		httpClient, err := tls_client.NewHttpClient(tls_client.NewNoopLogger(), options...)
		if err != nil {
			return nil, fmt.Errorf("failed to create HTTP client: %w", err)
		}
		client.httpClient = httpClient
	}

	return client, nil
}

// normalizeBaseURL validates the base URL and strips trailing slashes
func normalizeBaseURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		raw = models.DefaultBaseURL
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("invalid base URL %q: %w", raw, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("invalid base URL %q: scheme must be http or https", raw)
	}
	if u.Host == "" {
		return "", fmt.Errorf("invalid base URL %q: missing host", raw)
	}

	return strings.TrimRight(raw, "/"), nil
}

// BaseURL returns the backend base URL
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Send posts req to its capability endpoint and returns the raw JSON body.
// Any failure, including a body that is not JSON, is a transport error.
func (c *Client) Send(ctx context.Context, req Request) ([]byte, error) {
	payload, err := json.Marshal(req.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	body, err := c.do(ctx, http.MethodPost, req.EndpointPath, payload)
	if err != nil {
		return nil, err
	}

	if !gjson.ValidBytes(body) {
		return nil, apierrors.NewAPIErrorWithBody(0, req.EndpointPath, "response body is not valid JSON", excerpt(body))
	}
	return body, nil
}

// Ingest asks the backend to rebuild its index. The response body is
// discarded.
func (c *Client) Ingest(ctx context.Context) error {
	_, err := c.do(ctx, http.MethodPost, models.EndpointIngest, nil)
	return err
}

// Health returns the backend's reported status
func (c *Client) Health(ctx context.Context) (string, error) {
	body, err := c.do(ctx, http.MethodGet, models.EndpointHealth, nil)
	if err != nil {
		return "", err
	}

	status := gjson.GetBytes(body, PathStatus)
	if !status.Exists() {
		return "", apierrors.NewDecodeError(PathStatus, "field is missing")
	}
	return status.String(), nil
}

// do performs one HTTP exchange and returns the body of a 2xx response
func (c *Client) do(ctx context.Context, method, path string, payload []byte) ([]byte, error) {
	endpoint := c.baseURL + path

	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	c.logger.Debug("backend request",
		zap.String("method", method),
		zap.String("endpoint", endpoint),
		zap.Int("bytes", len(payload)))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, c.wrapTransportError(ctx, method, path, err)
	}
	defer func() {
		if resp != nil && resp.Body != nil {
			_ = resp.Body.Close()
		}
	}()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, c.wrapTransportError(ctx, method, path, err)
	}

	c.logger.Debug("backend response",
		zap.String("endpoint", endpoint),
		zap.Int("status", resp.StatusCode),
		zap.Int("bytes", len(body)),
		zap.Duration("elapsed", time.Since(start)))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, apierrors.NewAPIErrorWithBody(resp.StatusCode, path, fmt.Sprintf("%s %s failed", method, path), excerpt(body))
	}

	return body, nil
}

// wrapTransportError distinguishes deadline expiry from other failures
func (c *Client) wrapTransportError(ctx context.Context, method, path string, err error) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) || errors.Is(err, context.DeadlineExceeded) {
		return apierrors.NewTimeoutError(method + " " + path)
	}
	return apierrors.NewNetworkError(strings.ToLower(method), path, err)
}

func excerpt(body []byte) string {
	if len(body) > maxErrorBody {
		body = body[:maxErrorBody]
	}
	return string(body)
}
