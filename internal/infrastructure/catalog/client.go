// Package catalog implements the HTTP client for the external movie catalog.
package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"github.com/hszk-dev/moviecollections/internal/domain/repository"
	"github.com/hszk-dev/moviecollections/internal/infrastructure/metrics"
)

const breakerName = "movie-catalog"

// ClientConfig holds configuration for the catalog client.
type ClientConfig struct {
	// Timeout bounds each individual HTTP attempt.
	Timeout time.Duration
	// MaxAttempts is the total number of attempts, including the first.
	MaxAttempts int
	// BaseDelay is the backoff unit; the wait after failed attempt k is BaseDelay * 2^k.
	BaseDelay time.Duration
	// RetryableStatuses are the response codes that trigger another attempt.
	RetryableStatuses []int
	// RequestsPerSecond and Burst pace outbound attempts. Zero disables pacing.
	RequestsPerSecond float64
	Burst             int
	// BreakerFailures is the number of consecutive exhausted fetches that opens the circuit.
	// Zero disables the breaker.
	BreakerFailures uint32
	// BreakerCooldown is how long the circuit stays open before probing again.
	BreakerCooldown time.Duration
}

// DefaultClientConfig returns a ClientConfig with the catalog's documented limits.
func DefaultClientConfig() ClientConfig {
	return ClientConfig{
		Timeout:           10 * time.Second,
		MaxAttempts:       5,
		BaseDelay:         time.Second,
		RetryableStatuses: []int{http.StatusInternalServerError, http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout},
		RequestsPerSecond: 5,
		Burst:             5,
		BreakerFailures:   5,
		BreakerCooldown:   30 * time.Second,
	}
}

// FetchError is the normalized failure of a catalog fetch.
type FetchError struct {
	URL        string
	Page       int
	Attempts   int
	StatusCode int // last HTTP status seen, 0 if none
	Detail     string
	// Err is the caller's context error when the caller gave up before the attempts ran out.
	Err error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch page %d from %s failed after %d attempt(s): %s", e.Page, e.URL, e.Attempts, e.Detail)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// abandoned records that the caller's context ended the sequence.
func (e *FetchError) abandoned(ctx context.Context, cause error) *FetchError {
	e.Detail = cause.Error()
	e.Err = ctx.Err()
	if e.Err == nil {
		// The limiter refuses waits that would outlive the caller's deadline.
		e.Err = context.DeadlineExceeded
	}
	return e
}

// Client fetches catalog pages with bounded retries and exponential backoff.
type Client struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	breaker    *gobreaker.CircuitBreaker[*repository.CatalogPage]

	maxAttempts int
	baseDelay   time.Duration
	retryable   map[int]bool
}

// NewClient creates a new catalog client.
func NewClient(cfg ClientConfig) *Client {
	return newClientWithHTTPClient(&http.Client{Timeout: cfg.Timeout}, cfg)
}

// newClientWithHTTPClient creates a Client with a given http.Client.
// This is used for dependency injection in tests.
func newClientWithHTTPClient(httpClient *http.Client, cfg ClientConfig) *Client {
	retryable := make(map[int]bool, len(cfg.RetryableStatuses))
	for _, code := range cfg.RetryableStatuses {
		retryable[code] = true
	}

	maxAttempts := cfg.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	c := &Client{
		httpClient:  httpClient,
		maxAttempts: maxAttempts,
		baseDelay:   cfg.BaseDelay,
		retryable:   retryable,
	}

	if cfg.RequestsPerSecond > 0 {
		burst := cfg.Burst
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), burst)
	}

	if cfg.BreakerFailures > 0 {
		metrics.CircuitBreakerState.WithLabelValues(breakerName).Set(0)
		c.breaker = gobreaker.NewCircuitBreaker[*repository.CatalogPage](gobreaker.Settings{
			Name:        breakerName,
			MaxRequests: 1,
			Timeout:     cfg.BreakerCooldown,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= cfg.BreakerFailures
			},
			// A caller that gave up says nothing about catalog health.
			IsExcluded: func(err error) bool {
				return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
			},
			IsSuccessful: func(err error) bool {
				// Terminal client-side failures say nothing about catalog health.
				var fe *FetchError
				if errors.As(err, &fe) && fe.StatusCode != 0 && !retryable[fe.StatusCode] {
					return true
				}
				return err == nil
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				slog.Warn("circuit breaker state changed",
					slog.String("name", name),
					slog.String("from", from.String()),
					slog.String("to", to.String()),
				)
				metrics.CircuitBreakerState.WithLabelValues(name).Set(stateToFloat(to))
			},
		})
	}

	return c
}

// Fetch retrieves one catalog page. Every failure is returned as *FetchError.
func (c *Client) Fetch(ctx context.Context, rawURL string, creds repository.Credentials, page int) (*repository.CatalogPage, error) {
	if c.breaker == nil {
		return c.fetchWithRetry(ctx, rawURL, creds, page)
	}

	result, err := c.breaker.Execute(func() (*repository.CatalogPage, error) {
		return c.fetchWithRetry(ctx, rawURL, creds, page)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, &FetchError{URL: rawURL, Page: page, Detail: "circuit breaker is open: " + err.Error()}
		}
		return nil, err
	}
	return result, nil
}

// fetchWithRetry runs the bounded attempt loop.
func (c *Client) fetchWithRetry(ctx context.Context, rawURL string, creds repository.Credentials, page int) (*repository.CatalogPage, error) {
	reqURL, err := buildPageURL(rawURL, page)
	if err != nil {
		return nil, &FetchError{URL: rawURL, Page: page, Detail: err.Error()}
	}

	fetchErr := &FetchError{URL: rawURL, Page: page}

	for attempt := 0; attempt < c.maxAttempts; attempt++ {
		if attempt > 0 {
			if err := sleep(ctx, c.backoff(attempt-1)); err != nil {
				return nil, fetchErr.abandoned(ctx, err)
			}
		}

		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				return nil, fetchErr.abandoned(ctx, err)
			}
		}

		fetchErr.Attempts = attempt + 1
		result, status, retry, err := c.do(ctx, reqURL, creds)
		if err == nil {
			metrics.CatalogFetchAttemptsTotal.WithLabelValues(metrics.FetchOutcomeSuccess).Inc()
			return result, nil
		}

		fetchErr.StatusCode = status
		fetchErr.Detail = err.Error()

		if !retry {
			metrics.CatalogFetchAttemptsTotal.WithLabelValues(metrics.FetchOutcomeTerminal).Inc()
			if ctx.Err() != nil {
				return nil, fetchErr.abandoned(ctx, err)
			}
			return nil, fetchErr
		}
		if status == 0 {
			metrics.CatalogFetchAttemptsTotal.WithLabelValues(metrics.FetchOutcomeTransportError).Inc()
		} else {
			metrics.CatalogFetchAttemptsTotal.WithLabelValues(metrics.FetchOutcomeRetryable).Inc()
		}

		slog.Warn("catalog fetch attempt failed",
			slog.Int("page", page),
			slog.Int("attempt", attempt+1),
			slog.Int("max_attempts", c.maxAttempts),
			slog.String("error", err.Error()),
		)
	}

	return nil, fetchErr
}

// do performs a single GET. retry reports whether the failure is transient.
func (c *Client) do(ctx context.Context, reqURL string, creds repository.Credentials) (page *repository.CatalogPage, status int, retry bool, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, 0, false, fmt.Errorf("create request: %w", err)
	}
	req.SetBasicAuth(creds.Username, creds.Password)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// A cancelled caller will not be helped by another attempt.
		if ctx.Err() != nil {
			return nil, 0, false, err
		}
		return nil, 0, true, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, resp.StatusCode, c.retryable[resp.StatusCode], fmt.Errorf("catalog returned status %d", resp.StatusCode)
	}

	var result repository.CatalogPage
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, resp.StatusCode, false, fmt.Errorf("decode response: %w", err)
	}

	return &result, resp.StatusCode, false, nil
}

// backoff returns the wait after the failed attempt with 0-based index k.
func (c *Client) backoff(k int) time.Duration {
	return c.baseDelay * time.Duration(1<<k)
}

func buildPageURL(rawURL string, page int) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("parse catalog URL: %w", err)
	}
	q := u.Query()
	q.Set("page", strconv.Itoa(page))
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// stateToFloat converts circuit breaker state to numeric value for metrics
func stateToFloat(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}

// Compile-time verification that Client implements repository.CatalogClient.
var _ repository.CatalogClient = (*Client)(nil)
