//nolint:revive,nolintlint // Package name "common" is intentional for shared helpers.
package common

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/mlcommons/mlcube-deploy/internal/config"
)

// maxErrorBodyBytes limits how much of an error response body is carried in the error message.
const maxErrorBodyBytes = 512

// Client wraps an HTTP endpoint (a hosting folder or the MedPerf server)
// with convenience helpers. The hosting contract is plain HTTP GET, so the
// same client serves both boundaries.
type Client struct {
	// baseURL is the endpoint all request paths are resolved against.
	baseURL *url.URL
	// httpClient performs the requests.
	httpClient *http.Client
	// token is the MedPerf API token sent as an Authorization header when set.
	token string

	// callTimeout is the default timeout for individual requests.
	callTimeout time.Duration
}

// Option configures client behaviour.
type Option func(*Client)

// WithCallTimeout sets a default timeout for requests.
func WithCallTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.callTimeout = timeout
		}
	}
}

// WithToken sets the MedPerf API token.
func WithToken(token string) Option {
	return func(c *Client) {
		c.token = token
	}
}

// WithHTTPClient replaces the underlying HTTP client, mainly for tests.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		if httpClient != nil {
			c.httpClient = httpClient
		}
	}
}

var (
	// errAddressRequired is returned when a required address value is missing.
	errAddressRequired = errors.New("address must be provided")
	// ErrBadHTTPStatus is returned when a request yields an unexpected HTTP status.
	ErrBadHTTPStatus = errors.New("unexpected http status")
)

// NewClient creates a client for the provided base URL.
func NewClient(address string, opts ...Option) (*Client, error) {
	if address == "" {
		return nil, errAddressRequired
	}

	baseURL, err := url.Parse(address)
	if err != nil {
		return nil, fmt.Errorf("parse address: %w", err)
	}

	client := &Client{
		baseURL:     baseURL,
		httpClient:  http.DefaultClient,
		callTimeout: config.DefaultTimeout,
	}

	for _, opt := range opts {
		opt(client)
	}

	return client, nil
}

// FileURL composes the URL of a file under the base URL.
// path.Join normalizes duplicate slashes when composing the URL path;
// a trailing slash is kept since API routes are slash-terminated.
func (c *Client) FileURL(name string) string {
	fileURL := *c.baseURL
	fileURL.Path = path.Join(fileURL.Path, name)

	if strings.HasSuffix(name, "/") {
		fileURL.Path += "/"
	}

	return fileURL.String()
}

// FetchFile retrieves a file from the endpoint via plain HTTP GET.
// The caller owns the returned body.
func (c *Client) FetchFile(ctx context.Context, name string) (io.ReadCloser, error) {
	finalURL := c.FileURL(name)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, finalURL, http.NoBody)
	if err != nil {
		return nil, err
	}

	response, err := c.httpClient.Do(req) //nolint:bodyclose // Body ownership passes to the caller.
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", finalURL, err)
	}

	if response.StatusCode != http.StatusOK {
		_ = response.Body.Close()

		return nil, fmt.Errorf("%s, %s: %w", finalURL, response.Status, ErrBadHTTPStatus)
	}

	return response.Body, nil
}

// PostJSON sends a JSON payload to a route under the base URL and decodes
// the JSON response into out when out is non-nil.
func (c *Client) PostJSON(ctx context.Context, route string, payload, out any) error {
	callCtx, cancel := c.callContext(ctx)
	defer cancel()

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(callCtx, http.MethodPost, c.FileURL(route), bytes.NewReader(body))
	if err != nil {
		return err
	}

	req.Header.Set("Content-Type", "application/json")

	if c.token != "" {
		req.Header.Set("Authorization", "Token "+c.token)
	}

	response, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("post %s: %w", route, err)
	}

	defer func() {
		_ = response.Body.Close()
	}()

	if response.StatusCode < http.StatusOK || response.StatusCode >= http.StatusMultipleChoices {
		snippet, _ := io.ReadAll(io.LimitReader(response.Body, maxErrorBodyBytes)) //nolint:errcheck // Best-effort diagnostics.

		return fmt.Errorf("%s, %s: %s: %w",
			c.FileURL(route), response.Status, strings.TrimSpace(string(snippet)), ErrBadHTTPStatus)
	}

	if out == nil {
		return nil
	}

	if err = json.NewDecoder(response.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}

	return nil
}

// Ping verifies the endpoint answers HTTP at all. Any status code counts:
// a server root may well return 404 while the API routes work.
func (c *Client) Ping(ctx context.Context) error {
	callCtx, cancel := c.callContext(ctx)
	defer cancel()

	req, err := http.NewRequestWithContext(callCtx, http.MethodGet, c.baseURL.String(), http.NoBody)
	if err != nil {
		return err
	}

	response, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("reach %s: %w", c.baseURL, err)
	}

	_ = response.Body.Close()

	return nil
}

// callContext derives a per-request context honoring the configured timeout.
func (c *Client) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.callTimeout <= 0 {
		return context.WithCancel(ctx)
	}

	return context.WithTimeout(ctx, c.callTimeout)
}
