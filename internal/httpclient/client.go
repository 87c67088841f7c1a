// Package httpclient wraps net/http with bounded retries and
// exponential backoff for talking to flaky upstream APIs.
package httpclient

import (
	"fmt"
	"log/slog"
	"math"
	"math/rand/v2"
	"net"
	"net/http"
	"strconv"
	"time"
)

// Config holds retry and timeout configuration.
type Config struct {
	MaxRetries     int
	BaseDelay      time.Duration
	MaxDelay       time.Duration
	Timeout        time.Duration
	ConnectTimeout time.Duration
}

// DefaultConfig returns sensible defaults: three total attempts,
// backoff starting at one second and doubling, connect timeout shorter
// than the overall request timeout.
func DefaultConfig() Config {
	return Config{
		MaxRetries:     3,
		BaseDelay:      1 * time.Second,
		MaxDelay:       10 * time.Second,
		Timeout:        10 * time.Second,
		ConnectTimeout: 5 * time.Second,
	}
}

// ExhaustedError is returned when the retry budget runs out.
// StatusCode carries the last HTTP status observed so callers can
// classify the failure; it is zero when the last attempt failed at the
// transport level (DNS, connect, timeout).
type ExhaustedError struct {
	Attempts   int
	StatusCode int
	Err        error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("request failed after %d attempts: %v", e.Attempts, e.Err)
}

func (e *ExhaustedError) Unwrap() error { return e.Err }

// Client wraps http.Client with retry logic. It is meant for
// idempotent GET traffic; failed attempts release their response body
// before retrying.
type Client struct {
	http   *http.Client
	config Config
	logger *slog.Logger
}

// New creates a Client with its own transport honoring the configured
// connect timeout.
func New(cfg Config, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	dialer := &net.Dialer{Timeout: cfg.ConnectTimeout}
	return &Client{
		http: &http.Client{
			Timeout: cfg.Timeout,
			Transport: &http.Transport{
				DialContext: dialer.DialContext,
			},
		},
		config: cfg,
		logger: logger,
	}
}

// Do executes an HTTP request, retrying on 429, 5xx and transient
// network errors. Any other response is returned as-is for the caller
// to interpret. When the budget is exhausted the returned error is an
// *ExhaustedError carrying the last observed status.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	var lastErr error
	var lastResp *http.Response
	lastStatus := 0

	for attempt := range c.config.MaxRetries {
		if attempt > 0 {
			if err := c.waitBeforeRetry(req, attempt, lastResp); err != nil {
				return nil, err
			}
		}

		resp, err := c.http.Do(req)
		if err != nil {
			if req.Context().Err() != nil {
				return nil, req.Context().Err()
			}
			lastErr = err
			lastResp = nil
			lastStatus = 0
			continue
		}

		if !shouldRetry(resp.StatusCode) {
			return resp, nil
		}

		lastErr = fmt.Errorf("HTTP %d from %s", resp.StatusCode, req.URL.String())
		lastResp = resp
		lastStatus = resp.StatusCode
		_ = resp.Body.Close()
	}

	return nil, &ExhaustedError{
		Attempts:   c.config.MaxRetries,
		StatusCode: lastStatus,
		Err:        lastErr,
	}
}

// waitBeforeRetry suspends between attempts without blocking other
// in-flight calls; it returns early if the request context is done.
func (c *Client) waitBeforeRetry(req *http.Request, attempt int, lastResp *http.Response) error {
	delay := c.backoff(attempt)
	if d := retryAfterDelay(lastResp); d > delay {
		delay = d
	}
	if delay > c.config.MaxDelay {
		delay = c.config.MaxDelay
	}

	c.logger.Debug("retrying request",
		slog.Int("attempt", attempt+1),
		slog.String("delay", delay.String()),
		slog.String("url", req.URL.String()),
	)

	select {
	case <-time.After(delay):
		return nil
	case <-req.Context().Done():
		return req.Context().Err()
	}
}

func retryAfterDelay(resp *http.Response) time.Duration {
	if resp == nil {
		return 0
	}
	ra := resp.Header.Get("Retry-After")
	if ra == "" {
		return 0
	}
	seconds, err := strconv.Atoi(ra)
	if err != nil {
		return 0
	}
	return time.Duration(seconds) * time.Second
}

// shouldRetry returns true for status codes that warrant a retry:
// rate limiting and upstream server errors.
func shouldRetry(statusCode int) bool {
	return statusCode == http.StatusTooManyRequests || statusCode >= 500
}

// backoff calculates the delay for a given attempt with jitter.
func (c *Client) backoff(attempt int) time.Duration {
	delay := float64(c.config.BaseDelay) * math.Pow(2, float64(attempt-1))
	if delay > float64(c.config.MaxDelay) {
		delay = float64(c.config.MaxDelay)
	}
	// 20% jitter; cryptographic randomness not needed for backoff
	jitter := delay * 0.2 * rand.Float64() // #nosec G404
	return time.Duration(delay + jitter)
}
