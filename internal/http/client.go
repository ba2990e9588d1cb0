package http

import (
	"context"
	"io"
	"math"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/go-faster/errors"
	"go.uber.org/zap"
	"golang.org/x/net/proxy"
	"golang.org/x/time/rate"

	"github.com/handiism/bookdl/internal/logger"
)

// Options configures the Client.
type Options struct {
	// Timeout bounds one attempt, including reading the body.
	// Default: 10s
	Timeout time.Duration

	// MaxAttempts is the total number of attempts per URL, first try included.
	// Default: 3
	MaxAttempts int

	// RetryDelay is the wait before the second attempt.
	// Default: 2s
	RetryDelay time.Duration

	// RetryExponent multiplies the delay after every further attempt.
	// 1 keeps the delay fixed.
	// Default: 1
	RetryExponent float64

	// UserAgent is sent with every request.
	UserAgent string

	// RateLimit caps requests per second across all callers; 0 disables pacing.
	RateLimit float64

	// RateBurst is the token bucket size used with RateLimit.
	RateBurst int

	// ProxyAddr is an optional SOCKS5 proxy (host:port).
	ProxyAddr string

	// Transport overrides the round tripper. Used by tests.
	Transport http.RoundTripper
}

// DefaultOptions returns options with sensible defaults.
func DefaultOptions() Options {
	return Options{
		Timeout:       10 * time.Second,
		MaxAttempts:   3,
		RetryDelay:    2 * time.Second,
		RetryExponent: 1,
		UserAgent:     "bookdl/1.0",
		RateBurst:     1,
	}
}

// Client fetches pages and documents with per-attempt timeouts and retries.
//
// Client provides:
//   - A shared connection pool, safe for concurrent use
//   - Retries with fixed or exponential backoff for transient failures
//   - Typed failures (*FetchError) instead of logged-and-dropped errors
//   - Optional request pacing and SOCKS5 proxying
//
// Example usage:
//
//	client, err := NewClient(DefaultOptions())
//	if err != nil {
//	    return err
//	}
//
//	html, err := client.FetchString(ctx, "http://books.goalkicker.com/")
//	if errors.Is(err, ErrTransient) {
//	    // the host kept failing after every retry
//	}
type Client struct {
	httpClient *http.Client
	opts       Options
	limiter    *rate.Limiter
}

// NewClient creates a new Client with the given options.
// Zero values fall back to DefaultOptions.
func NewClient(opts Options) (*Client, error) {
	def := DefaultOptions()
	if opts.Timeout <= 0 {
		opts.Timeout = def.Timeout
	}
	if opts.MaxAttempts < 1 {
		opts.MaxAttempts = def.MaxAttempts
	}
	if opts.RetryExponent < 1 {
		opts.RetryExponent = def.RetryExponent
	}
	if opts.UserAgent == "" {
		opts.UserAgent = def.UserAgent
	}

	transport := opts.Transport
	if transport == nil {
		t, err := newTransport(opts.ProxyAddr)
		if err != nil {
			return nil, err
		}
		transport = t
	}

	c := &Client{
		httpClient: &http.Client{Transport: transport},
		opts:       opts,
	}
	if opts.RateLimit > 0 {
		burst := opts.RateBurst
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(opts.RateLimit), burst)
	}

	return c, nil
}

func newTransport(proxyAddr string) (*http.Transport, error) {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.MaxIdleConnsPerHost = 32

	if proxyAddr == "" {
		return transport, nil
	}

	dialer, err := proxy.SOCKS5("tcp", proxyAddr, nil, proxy.Direct)
	if err != nil {
		return nil, errors.Wrapf(err, "configure SOCKS5 proxy %s", proxyAddr)
	}
	transport.Proxy = nil
	if cd, ok := dialer.(proxy.ContextDialer); ok {
		transport.DialContext = cd.DialContext
	} else {
		transport.DialContext = func(_ context.Context, network, addr string) (net.Conn, error) {
			return dialer.Dial(network, addr)
		}
	}

	return transport, nil
}

// Fetch performs a GET request and returns the full response body.
//
// Transient failures (transport errors, timeouts, 408, 429 and 5xx responses,
// truncated bodies) are retried until MaxAttempts attempts have been made.
// Permanent failures (malformed URLs, other non-2xx responses) return after
// the first attempt. Every failure is a *FetchError.
//
// One warning is logged per failed attempt and one error per final failure.
func (c *Client) Fetch(ctx context.Context, rawURL string) ([]byte, error) {
	ctx = logger.WithFields(ctx, zap.String("url", rawURL))

	if err := validateURL(rawURL); err != nil {
		ferr := &FetchError{URL: rawURL, Err: err}
		logger.Error(ctx, "fetch failed", zap.Error(ferr))
		return nil, ferr
	}

	var lastErr error
	var lastStatus int
	for attempt := 1; attempt <= c.opts.MaxAttempts; attempt++ {
		if attempt > 1 {
			if err := c.waitForRetry(ctx, attempt-1); err != nil {
				return nil, c.fail(ctx, rawURL, attempt-1, lastStatus, err, false)
			}
		}

		body, status, err := c.attempt(ctx, rawURL)
		if err == nil {
			return body, nil
		}
		lastErr, lastStatus = err, status

		if ctx.Err() != nil {
			return nil, c.fail(ctx, rawURL, attempt, status, ctx.Err(), false)
		}
		if !retryable(status, err) {
			return nil, c.fail(ctx, rawURL, attempt, status, err, false)
		}

		logger.Warn(ctx, "fetch attempt failed",
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", c.opts.MaxAttempts),
			zap.Error(err))
	}

	return nil, c.fail(ctx, rawURL, c.opts.MaxAttempts, lastStatus, lastErr, true)
}

// FetchString performs Fetch and returns the body as a string.
//
// This is a convenience wrapper for HTML pages.
func (c *Client) FetchString(ctx context.Context, rawURL string) (string, error) {
	body, err := c.Fetch(ctx, rawURL)
	if err != nil {
		return "", err
	}
	return string(body), nil
}

func (c *Client) attempt(ctx context.Context, rawURL string) ([]byte, int, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, 0, err
		}
	}

	ctx, cancel := context.WithTimeout(ctx, c.opts.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, 0, err
	}
	req.Header.Set("User-Agent", c.opts.UserAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		// Drain a little so the connection can be reused.
		_, _ = io.CopyN(io.Discard, resp.Body, 4<<10)
		return nil, resp.StatusCode, &StatusError{Code: resp.StatusCode, Status: resp.Status}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, errors.Wrap(err, "read body")
	}

	return body, resp.StatusCode, nil
}

func (c *Client) fail(ctx context.Context, rawURL string, attempts, status int, err error, transient bool) error {
	ferr := &FetchError{
		URL:        rawURL,
		Attempts:   attempts,
		StatusCode: status,
		Transient:  transient,
		Err:        err,
	}
	logger.Error(ctx, "fetch failed",
		zap.Int("attempts", attempts),
		zap.Bool("transient", transient),
		zap.Error(err))

	return ferr
}

// waitForRetry sleeps RetryDelay * RetryExponent^(tries-1).
func (c *Client) waitForRetry(ctx context.Context, tries int) error {
	delay := time.Duration(float64(c.opts.RetryDelay) * math.Pow(c.opts.RetryExponent, float64(tries-1)))
	if delay <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func validateURL(rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return errors.Wrap(err, "malformed URL")
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return errors.Errorf("malformed URL: unsupported scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return errors.New("malformed URL: missing host")
	}
	return nil
}

// retryable reports whether a failed attempt may succeed when repeated.
func retryable(status int, err error) bool {
	switch {
	case status == 0:
		// Transport errors, timeouts and truncated connections.
		return err != nil
	case status >= 500,
		status == http.StatusRequestTimeout,
		status == http.StatusTooManyRequests:
		return true
	case status >= 200 && status < 300:
		// A body read error after a good status line.
		return true
	default:
		return false
	}
}
