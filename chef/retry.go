package chef

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

// RetryConfig bounds the transport retry loop. Constructed once at
// client creation and immutable thereafter.
type RetryConfig struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Timeout      time.Duration // per attempt
}

func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:  3,
		InitialDelay: time.Second,
		MaxDelay:     10 * time.Second,
		Timeout:      30 * time.Second,
	}
}

// backoffDelay returns the deterministic delay before retrying after
// failed attempt number attempt (0-based): min(initial * 2^attempt, max).
func backoffDelay(cfg RetryConfig, attempt int) time.Duration {
	delay := cfg.InitialDelay << uint(attempt)
	if delay > cfg.MaxDelay || delay <= 0 {
		return cfg.MaxDelay
	}
	return delay
}

// transport performs bounded-retry HTTP exchanges. It knows nothing
// about the protocol envelope; it moves bytes and classifies outcomes.
type transport struct {
	httpClient *http.Client
	cfg        RetryConfig
}

func newTransport(cfg RetryConfig) *transport {
	return &transport{
		httpClient: &http.Client{},
		cfg:        cfg,
	}
}

// post sends body to url up to cfg.MaxAttempts times. Each attempt is
// bounded by cfg.Timeout; a timed-out attempt is aborted and counts as
// a failure. Any 2xx response body is a success. Exhaustion returns
// *UnavailableError wrapping the last observed error.
func (t *transport) post(ctx context.Context, url, tenantID string, body []byte) ([]byte, error) {
	var lastErr error

	for attempt := 0; attempt < t.cfg.MaxAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(backoffDelay(t.cfg, attempt-1)):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		data, err := t.attempt(ctx, url, tenantID, body)
		if err == nil {
			return data, nil
		}
		if ctx.Err() != nil {
			// Caller gave up; do not mask that as unavailability.
			return nil, ctx.Err()
		}
		lastErr = err
	}

	return nil, &UnavailableError{Attempts: t.cfg.MaxAttempts, Last: lastErr}
}

func (t *transport) attempt(ctx context.Context, url, tenantID string, body []byte) ([]byte, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, t.cfg.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(attemptCtx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("chef build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(TenantHeader, tenantID)

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("chef POST: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("chef read body: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("chef HTTP %d: %s", resp.StatusCode, string(data))
	}
	return data, nil
}

// probe does a single-attempt GET, used by the health tracker for a
// lightweight reachability check.
func (t *transport) probe(ctx context.Context, url string) error {
	attemptCtx, cancel := context.WithTimeout(ctx, t.cfg.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(attemptCtx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("chef build probe: %w", err)
	}
	resp, err := t.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("chef probe: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("chef probe HTTP %d", resp.StatusCode)
	}
	return nil
}
