// Package upload posts finished session summaries to a remote collector.
// Uploads are best effort: failures are retried a few times, then logged.
package upload

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"math/rand/v2"
	"net/http"
	"strconv"
	"time"
)

// RetryConfig configures retry behavior for transient failures.
type RetryConfig struct {
	MaxAttempts int
	InitialWait time.Duration
	MaxWait     time.Duration
	Multiplier  float64
}

// Config configures the client.
type Config struct {
	URL     string
	Timeout time.Duration
	Retry   RetryConfig
}

// DefaultConfig returns the standard upload tuning with no URL.
func DefaultConfig() Config {
	return Config{
		Timeout: 5 * time.Second,
		Retry: RetryConfig{
			MaxAttempts: 3,
			InitialWait: 250 * time.Millisecond,
			MaxWait:     2 * time.Second,
			Multiplier:  2.0,
		},
	}
}

// Client posts payloads as JSON.
type Client struct {
	cfg    Config
	http   *http.Client
	logger *slog.Logger
}

// NewClient returns a client. A nil logger uses slog.Default().
func NewClient(cfg Config, logger *slog.Logger) *Client {
	d := DefaultConfig()
	if cfg.Timeout <= 0 {
		cfg.Timeout = d.Timeout
	}
	if cfg.Retry.MaxAttempts < 1 {
		cfg.Retry.MaxAttempts = 1
	}
	if cfg.Retry.MaxWait <= 0 {
		cfg.Retry.MaxWait = d.Retry.MaxWait
	}
	if cfg.Retry.Multiplier <= 0 {
		cfg.Retry.Multiplier = d.Retry.Multiplier
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		cfg:    cfg,
		http:   &http.Client{},
		logger: logger,
	}
}

// Enabled reports whether an endpoint is configured.
func (c *Client) Enabled() bool { return c != nil && c.cfg.URL != "" }

// Send posts p, retrying transient failures with exponential backoff and
// jitter. The whole call is bounded by the configured timeout.
func (c *Client) Send(ctx context.Context, p Payload) error {
	if !c.Enabled() {
		return nil
	}
	body, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	var lastErr error
	for attempt := range c.cfg.Retry.MaxAttempts {
		err := c.post(ctx, body)
		if err == nil {
			return nil
		}
		lastErr = err

		if !shouldRetry(err) {
			return err
		}

		// Last attempt: don't sleep, just return the error.
		if attempt == c.cfg.Retry.MaxAttempts-1 {
			break
		}

		wait := c.backoff(attempt, err)
		c.logger.Debug("upload retry", "session_id", p.SessionID, "attempt", attempt+1, "wait", wait, "error", err)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
	}
	return lastErr
}

// SendBestEffort posts p and logs, rather than returns, any failure.
func (c *Client) SendBestEffort(ctx context.Context, p Payload) {
	if !c.Enabled() {
		return
	}
	if err := c.Send(ctx, p); err != nil {
		c.logger.Warn("session upload failed", "session_id", p.SessionID, "url", c.cfg.URL, "error", err)
		return
	}
	c.logger.Info("session uploaded", "session_id", p.SessionID, "records", len(p.Records))
}

func (c *Client) post(ctx context.Context, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.URL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	return &StatusError{
		StatusCode: resp.StatusCode,
		RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After")),
		Body:       string(bytes.TrimSpace(msg)),
	}
}

// shouldRetry determines if an error is retryable.
func shouldRetry(err error) bool {
	// Context errors are never retried.
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var se *StatusError
	if errors.As(err, &se) {
		return se.Temporary()
	}
	// Other errors (network, etc.) are treated as transient.
	return true
}

// backoff computes the wait duration for the given attempt.
func (c *Client) backoff(attempt int, err error) time.Duration {
	var se *StatusError
	if errors.As(err, &se) && se.RetryAfter > 0 {
		return min(se.RetryAfter, c.cfg.Retry.MaxWait)
	}

	wait := float64(c.cfg.Retry.InitialWait) * math.Pow(c.cfg.Retry.Multiplier, float64(attempt))
	if wait > float64(c.cfg.Retry.MaxWait) {
		wait = float64(c.cfg.Retry.MaxWait)
	}

	// Add ±20% jitter.
	jitter := wait * 0.2 * (2*rand.Float64() - 1)
	wait += jitter

	if wait < 0 {
		wait = 0
	}
	return time.Duration(wait)
}

func parseRetryAfter(v string) time.Duration {
	if v == "" {
		return 0
	}
	if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	return 0
}
