package integrations

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/matzehuels/pkgrepo/pkg/cache"
	pkgerrors "github.com/matzehuels/pkgrepo/pkg/errors"
	"github.com/matzehuels/pkgrepo/pkg/observability"
)

// maxBodySize bounds a single response; repository manifests and API
// payloads are far smaller.
const maxBodySize = 16 << 20

// Client provides shared HTTP functionality for manifest retrieval and all
// host API clients. It handles caching, retry logic, and common request headers.
//
// All methods are safe for concurrent use by multiple goroutines.
type Client struct {
	http      *http.Client
	cache     cache.Cache
	keyer     cache.Keyer
	namespace string
	ttl       time.Duration
	headers   map[string]string
	refresh   bool
}

// NewClient creates a Client with the given cache backend and default headers.
// namespace prefixes cache keys (e.g. "github:"); headers are applied to all
// requests made through this client. Pass nil for headers if no default
// headers are needed and nil for backend to disable caching.
func NewClient(backend cache.Cache, namespace string, ttl time.Duration, headers map[string]string) *Client {
	if backend == nil {
		backend = cache.NewNullCache()
	}
	h := map[string]string{"User-Agent": UserAgent()}
	for k, v := range headers {
		h[k] = v
	}
	return &Client{
		http:      NewHTTPClient(),
		cache:     backend,
		keyer:     cache.NewDefaultKeyer(),
		namespace: namespace,
		ttl:       ttl,
		headers:   h,
	}
}

// WithHTTPClient replaces the underlying HTTP client (timeouts, proxies, tests).
func (c *Client) WithHTTPClient(h *http.Client) *Client {
	if h != nil {
		c.http = h
	}
	return c
}

// WithKeyer replaces the cache keyer, typically with [cache.TokenKeyer].
func (c *Client) WithKeyer(k cache.Keyer) *Client {
	if k != nil {
		c.keyer = k
	}
	return c
}

// WithRefresh makes every request bypass cached entries. Fresh responses
// are still written back to the cache.
func (c *Client) WithRefresh(refresh bool) *Client {
	c.refresh = refresh
	return c
}

// Fetch retrieves the body at url, serving it from cache when possible.
// Transient failures are retried with backoff. Fetch satisfies the transport
// contract used by the manifest expander.
func (c *Client) Fetch(ctx context.Context, url string) ([]byte, error) {
	key := c.keyer.HTTPKey(c.namespace, url)
	if !c.refresh {
		if data, hit, err := c.cache.Get(ctx, key); err == nil && hit {
			observability.Cache().OnCacheHit(ctx, c.namespace)
			return data, nil
		}
		observability.Cache().OnCacheMiss(ctx, c.namespace)
	}

	var data []byte
	err := cache.RetryWithBackoff(ctx, func() error {
		var err error
		data, err = c.doRequest(ctx, url)
		return err
	})
	if err != nil {
		return nil, err
	}

	if err := c.cache.Set(ctx, key, data, c.ttl); err == nil {
		observability.Cache().OnCacheSet(ctx, c.namespace, len(data))
	}
	return data, nil
}

// Get fetches url and JSON-decodes the response into v.
func (c *Client) Get(ctx context.Context, url string, v any) error {
	data, err := c.Fetch(ctx, url)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode %s: %w", url, err)
	}
	return nil
}

func (c *Client) doRequest(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}

	hooks := observability.HTTP()
	start := time.Now()
	hooks.OnRequest(ctx, req.Method, req.URL.Host, req.URL.Path)

	resp, err := c.http.Do(req)
	if err != nil {
		hooks.OnError(ctx, req.Method, req.URL.Host, req.URL.Path, err)
		if ctx.Err() != nil {
			return nil, fmt.Errorf("%w: %w", ErrNetwork, err)
		}
		return nil, cache.Retryable(fmt.Errorf("%w: %w", ErrNetwork, err))
	}
	defer resp.Body.Close()
	hooks.OnResponse(ctx, req.Method, req.URL.Host, req.URL.Path, resp.StatusCode, time.Since(start))

	if err := checkResponse(resp); err != nil {
		return nil, err
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, cache.Retryable(fmt.Errorf("%w: read body: %w", ErrNetwork, err))
	}
	return data, nil
}

func checkResponse(resp *http.Response) error {
	if resp.StatusCode == http.StatusForbidden && resp.Header.Get("X-RateLimit-Remaining") == "0" {
		return rateLimited(resp)
	}
	if resp.StatusCode == http.StatusTooManyRequests {
		return rateLimited(resp)
	}
	return checkStatus(resp.StatusCode)
}

func rateLimited(resp *http.Response) error {
	retryAfter, _ := strconv.Atoi(resp.Header.Get("Retry-After"))
	return &pkgerrors.RateLimitedError{RetryAfter: retryAfter, Message: resp.Request.URL.Host}
}

func checkStatus(code int) error {
	switch {
	case code == http.StatusOK:
		return nil
	case code == http.StatusNotFound:
		return ErrNotFound
	case code >= 500:
		return cache.Retryable(fmt.Errorf("%w: status %d", ErrNetwork, code))
	default:
		return fmt.Errorf("%w: status %d", ErrNetwork, code)
	}
}

// IsNotFound reports whether err means the requested resource does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
