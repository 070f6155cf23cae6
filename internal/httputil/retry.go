package httputil

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
)

// RetryConfig bounds the outbound retry policy. The delay starts at
// BackoffBase and doubles per attempt up to MaxBackoff.
type RetryConfig struct {
	MaxRetries  int
	BackoffBase time.Duration
	MaxBackoff  time.Duration
}

var DefaultRetry = RetryConfig{
	MaxRetries:  3,
	BackoffBase: 1 * time.Second,
	MaxBackoff:  10 * time.Second,
}

// retryable reports whether a response status is worth another attempt.
// Client errors are final; resending the same request will not fix them.
func retryable(status int) bool {
	return status >= 500 || status == http.StatusTooManyRequests
}

// Do executes an HTTP request with exponential back-off retry. buildReq is
// called on every attempt because request bodies are consumed per attempt.
func Do(ctx context.Context, client *http.Client, cfg RetryConfig, buildReq func() (*http.Request, error)) (*http.Response, error) {
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = DefaultRetry.MaxRetries
	}
	if cfg.BackoffBase <= 0 {
		cfg.BackoffBase = DefaultRetry.BackoffBase
	}
	if cfg.MaxBackoff <= 0 {
		cfg.MaxBackoff = DefaultRetry.MaxBackoff
	}

	var lastErr error
	delay := cfg.BackoffBase

	for attempt := 1; attempt <= cfg.MaxRetries; attempt++ {
		req, err := buildReq()
		if err != nil {
			return nil, fmt.Errorf("build request: %w", err)
		}

		resp, err := client.Do(req)
		if err == nil && !retryable(resp.StatusCode) {
			return resp, nil
		}

		if err != nil {
			lastErr = err
		} else {
			body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
			resp.Body.Close()
			lastErr = fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(body))
		}

		if attempt == cfg.MaxRetries {
			break
		}

		log.Warn().
			Int("attempt", attempt).
			Int("maxRetries", cfg.MaxRetries).
			Dur("backoff", delay).
			Err(lastErr).
			Msg("request failed, retrying")

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}

		delay *= 2
		if delay > cfg.MaxBackoff {
			delay = cfg.MaxBackoff
		}
	}

	return nil, fmt.Errorf("all %d attempts failed, last error: %w", cfg.MaxRetries, lastErr)
}
