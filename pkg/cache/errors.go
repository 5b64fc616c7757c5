package cache

import (
	"context"
	"errors"
	"io"
	"net"
	"time"
)

// ErrUnknownBackend is returned by Open for an unrecognized backend name.
var ErrUnknownBackend = errors.New("unknown cache backend")

// transientError marks a backend failure worth another attempt.
type transientError struct{ err error }

func (e transientError) Error() string { return e.err.Error() }
func (e transientError) Unwrap() error { return e.err }

// Retryable marks err as transient. It returns nil for a nil err.
func Retryable(err error) error {
	if err == nil {
		return nil
	}
	return transientError{err: err}
}

// IsRetryable reports whether err, or anything it wraps, was marked transient.
func IsRetryable(err error) bool {
	return errors.As(err, new(transientError))
}

// Remote backends sit on the request path, so the backoff is short:
// retryDelay, then twice that, for at most backendAttempts calls.
var retryDelay = 50 * time.Millisecond

const backendAttempts = 3

// RetryWithBackoff calls fn until it succeeds, fails permanently, or runs out
// of attempts. Only [Retryable] errors are retried.
func RetryWithBackoff(ctx context.Context, fn func() error) error {
	wait := retryDelay
	err := fn()
	for attempt := 1; attempt < backendAttempts && IsRetryable(err); attempt++ {
		t := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			t.Stop()
			return ctx.Err()
		case <-t.C:
		}
		wait *= 2
		err = fn()
	}
	return err
}

// classify marks transport-level failures (network errors, dropped
// connections) as retryable; everything else is returned unchanged.
func classify(err error) error {
	if err == nil {
		return nil
	}
	var netErr net.Error
	if errors.As(err, &netErr) || errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return Retryable(err)
	}
	return err
}
