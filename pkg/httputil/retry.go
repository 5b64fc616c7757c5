package httputil

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"
)

// Script downloads use a short schedule: a render request may be waiting.
const (
	DefaultFetchAttempts = 3
	DefaultFetchDelay    = 500 * time.Millisecond
	MaxRetryDelay        = 10 * time.Second
)

// RetryableError marks a fetch failure as transient (network error, 5xx, 429).
// RetryAfter carries the server's Retry-After hint when one was sent.
type RetryableError struct {
	Err        error
	RetryAfter time.Duration
}

func (e *RetryableError) Error() string { return e.Err.Error() }
func (e *RetryableError) Unwrap() error { return e.Err }

// Retry runs fn up to attempts times, doubling delay between tries. Only
// [RetryableError] failures are retried. A Retry-After hint longer than the
// current delay wins, capped at [MaxRetryDelay].
func Retry(ctx context.Context, attempts int, delay time.Duration, fn func() error) error {
	attempts = max(attempts, 1)
	var lastErr error

	for i := range attempts {
		lastErr = fn()
		if lastErr == nil {
			return nil
		}
		var re *RetryableError
		if !errors.As(lastErr, &re) {
			return lastErr
		}
		if i == attempts-1 {
			break
		}

		wait := min(max(delay, re.RetryAfter), MaxRetryDelay)
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
		delay *= 2
	}
	return lastErr
}

// FetchWithRetry is [Fetch] under the default script download schedule.
func FetchWithRetry(ctx context.Context, client *http.Client, rawURL string) ([]byte, error) {
	var body []byte
	err := Retry(ctx, DefaultFetchAttempts, DefaultFetchDelay, func() error {
		var err error
		body, err = Fetch(ctx, client, rawURL)
		return err
	})
	return body, err
}

// parseRetryAfter reads the delay-seconds form of Retry-After. HTTP dates are
// ignored; the regular backoff applies instead.
func parseRetryAfter(h http.Header) time.Duration {
	v := h.Get("Retry-After")
	if v == "" {
		return 0
	}
	secs, err := strconv.Atoi(v)
	if err != nil || secs < 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}

func isRetryable(err error) bool {
	return errors.As(err, new(*RetryableError))
}
