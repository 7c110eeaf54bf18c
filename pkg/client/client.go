package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/robert-malhotra/go-csodata/pkg/cache"
)

// DefaultBaseURL is the CSO PxStat cube API root.
const DefaultBaseURL = "https://ws.cso.ie/public/api.restful/PxStat.Data.Cube_API"

const (
	// DefaultTimeout bounds each HTTP request.
	DefaultTimeout = 30 * time.Second
	// DefaultMaxAttempts is the number of attempts per request, including the
	// first.
	DefaultMaxAttempts = 3

	maxErrorBody = 1 << 16
)

// Middleware manipulates an outgoing *http.Request before it is executed.
type Middleware func(context.Context, *http.Request) error

// Logger represents the minimal logging interface used by the client.
// *logrus.Logger satisfies it.
type Logger interface {
	Debugf(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
}

// ClientOption configures the Client.
type ClientOption func(*Client)

// Client fetches JSON documents from the CSO API, retrying transient
// failures and caching successful bodies.
type Client struct {
	baseURL     *url.URL
	httpClient  *http.Client
	middleware  []Middleware
	retryPolicy RetryPolicy
	maxAttempts int
	logger      Logger
	cache       *cache.Cache
	cacheSet    bool
}

// -----------------------------------------------------------------------------
// Client options
// -----------------------------------------------------------------------------

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *Client) { c.httpClient = client }
}

// WithTimeout sets the HTTP timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) { c.httpClient.Timeout = d }
}

// WithMiddleware registers one or more request-middleware functions.
func WithMiddleware(mw ...Middleware) ClientOption {
	return func(c *Client) { c.middleware = append(c.middleware, mw...) }
}

// WithRetryPolicy configures the retry behaviour. A nil policy disables
// retries.
func WithRetryPolicy(policy RetryPolicy) ClientOption {
	return func(c *Client) { c.retryPolicy = policy }
}

// WithMaxAttempts bounds the number of attempts per request.
func WithMaxAttempts(n int) ClientOption {
	return func(c *Client) {
		if n > 0 {
			c.maxAttempts = n
		}
	}
}

// WithLogger registers a logger used for request lifecycle events.
func WithLogger(logger Logger) ClientOption {
	return func(c *Client) { c.logger = logger }
}

// WithCache sets the response cache. A nil cache disables caching.
func WithCache(store *cache.Cache) ClientOption {
	return func(c *Client) {
		c.cache = store
		c.cacheSet = true
	}
}

// Header returns a middleware that sets a header on every request.
func Header(key, value string) Middleware {
	return func(_ context.Context, req *http.Request) error {
		req.Header.Set(key, value)
		return nil
	}
}

// NewClient creates a client rooted at baseURL (DefaultBaseURL when empty).
// Unless WithCache is given, a cache with the default size and TTL is used.
func NewClient(baseURL string, opts ...ClientOption) (*Client, error) {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidBaseURL, err)
	}
	if !u.IsAbs() {
		return nil, ErrInvalidBaseURL
	}

	c := &Client{
		baseURL:     u,
		httpClient:  &http.Client{Timeout: DefaultTimeout},
		retryPolicy: DefaultRetryPolicy,
		maxAttempts: DefaultMaxAttempts,
		middleware:  []Middleware{Header("Accept", "application/json")},
	}
	for _, o := range opts {
		o(c)
	}
	if c.httpClient == nil {
		return nil, ErrNilHTTPClient
	}
	if !c.cacheSet {
		if c.cache, err = cache.New(cache.Options{}); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// BaseURL returns the API root the client was created with.
func (c *Client) BaseURL() string { return c.baseURL.String() }

// FetchJSON GETs rawURL with params and returns the body once it is known to
// be valid JSON. Bodies are served from the cache when present.
func (c *Client) FetchJSON(ctx context.Context, rawURL string, params url.Values) ([]byte, error) {
	key := cache.Key(rawURL, params)
	if c.cache != nil {
		if body, ok := c.cache.Get(key); ok {
			c.debugf("csodata: cache hit %s", key)
			return bytes.Clone(body), nil
		}
		c.debugf("csodata: cache miss %s", key)
	}

	resp, err := c.get(ctx, key)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &APIError{URL: key, Status: resp.StatusCode, Err: err}
	}
	if !json.Valid(body) {
		return nil, &APIError{URL: key, Status: resp.StatusCode, Err: ErrInvalidJSON}
	}

	if c.cache != nil {
		c.cache.Set(key, bytes.Clone(body))
	}
	return body, nil
}

// CacheInfo reports the state of the response cache.
func (c *Client) CacheInfo() cache.Info {
	if c.cache == nil {
		return cache.Info{}
	}
	return c.cache.Info()
}

// FlushCache empties the response cache.
func (c *Client) FlushCache() {
	if c.cache != nil {
		c.cache.Flush()
	}
}

// get performs a GET with retries. Non-2xx responses become *APIError.
func (c *Client) get(ctx context.Context, rawURL string) (*http.Response, error) {
	resp, err := c.retry(ctx, func() (*http.Response, error) {
		return c.doRequest(ctx, http.MethodGet, rawURL, nil)
	})
	if err != nil {
		c.errorf("csodata: request failed url=%s: %v", rawURL, err)
		var apiErr *APIError
		if errors.As(err, &apiErr) {
			return nil, err
		}
		return nil, &APIError{URL: rawURL, Err: err}
	}
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return resp, nil
	}

	defer resp.Body.Close()
	data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	apiErr := &APIError{URL: rawURL, Status: resp.StatusCode, Detail: string(bytes.TrimSpace(data))}
	c.errorf("csodata: request failed url=%s status=%d", rawURL, resp.StatusCode)
	return nil, apiErr
}

// -----------------------------------------------------------------------------
// doRequest: one place to build a request, run middleware, and execute it.
// -----------------------------------------------------------------------------
func (c *Client) doRequest(ctx context.Context, method, rawURL string, body io.Reader) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, rawURL, body)
	if err != nil {
		return nil, fmt.Errorf("error creating request for %s: %w", rawURL, err)
	}

	for _, mw := range c.middleware {
		if err := mw(ctx, req); err != nil {
			return nil, fmt.Errorf("error applying middleware for %s: %w", rawURL, err)
		}
	}

	c.debugf("csodata: %s %s", method, rawURL)
	return c.httpClient.Do(req)
}

func (c *Client) debugf(format string, args ...any) {
	if c.logger != nil {
		c.logger.Debugf(format, args...)
	}
}

func (c *Client) warnf(format string, args ...any) {
	if c.logger != nil {
		c.logger.Warnf(format, args...)
	}
}

func (c *Client) errorf(format string, args ...any) {
	if c.logger != nil {
		c.logger.Errorf(format, args...)
	}
}
