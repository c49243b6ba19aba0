// Package fetch performs HTTP GET requests with a per-attempt timeout and a
// fixed-interval retry budget.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/failsafe-go/failsafe-go"
	"github.com/failsafe-go/failsafe-go/retrypolicy"
)

// Default retry settings.
const (
	DefaultMaxAttempts = 3
	DefaultTimeout     = 10 * time.Second
	DefaultBackoff     = 1500 * time.Millisecond
)

// ErrTooManyRetries is returned when every attempt of a request failed.
// It is the only signal that a resource is unreachable for this crawl.
var ErrTooManyRetries = errors.New("too many retries")

// RequestFunc performs one attempt. ctx carries the per-attempt deadline and
// the function must finish reading the response before returning.
type RequestFunc func(ctx context.Context) (*Response, error)

// Policy describes how a request is retried.
type Policy struct {
	MaxAttempts int
	Timeout     time.Duration
	Backoff     time.Duration
	Logger      *slog.Logger
}

// DefaultPolicy returns the default retry policy.
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts: DefaultMaxAttempts,
		Timeout:     DefaultTimeout,
		Backoff:     DefaultBackoff,
	}
}

// permanentError marks a failure that retrying cannot fix.
type permanentError struct {
	err error
}

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

// Permanent wraps err so that Retry returns it without further attempts.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// Retry runs fn until it succeeds or p.MaxAttempts attempts have failed,
// sleeping p.Backoff between attempts. Each attempt gets its own timeout.
//
// On exhaustion the returned error matches ErrTooManyRetries and wraps the
// last attempt's error. A Permanent error is returned as is. Cancellation of
// ctx stops the loop and returns ctx.Err().
func Retry(ctx context.Context, fn RequestFunc, p Policy) (*Response, error) {
	if p.MaxAttempts < 1 {
		p.MaxAttempts = 1
	}
	if p.Timeout <= 0 {
		p.Timeout = DefaultTimeout
	}
	if p.Backoff < 0 {
		p.Backoff = 0
	}
	logger := p.Logger
	if logger == nil {
		logger = slog.Default()
	}

	policy := retrypolicy.NewBuilder[*Response]().
		WithMaxAttempts(p.MaxAttempts).
		WithDelay(p.Backoff).
		HandleIf(func(_ *Response, err error) bool {
			var perm *permanentError
			return err != nil && !errors.As(err, &perm)
		}).
		OnRetry(func(e failsafe.ExecutionEvent[*Response]) {
			logger.Debug("retrying request",
				"attempt", e.Attempts(),
				"error", e.LastError(),
				"backoff", p.Backoff,
			)
		}).
		Build()

	attempts := 0
	var lastErr error
	resp, err := failsafe.With[*Response](policy).WithContext(ctx).Get(func() (*Response, error) {
		attempts++
		attemptCtx, cancel := context.WithTimeout(ctx, p.Timeout)
		defer cancel()

		r, err := fn(attemptCtx)
		if err != nil {
			lastErr = err
			return nil, err
		}
		return r, nil
	})
	if err == nil {
		return resp, nil
	}

	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, ctxErr
	}

	var perm *permanentError
	if errors.As(err, &perm) {
		return nil, perm.err
	}

	if lastErr == nil {
		lastErr = err
	}
	return nil, fmt.Errorf("%w: %d attempts: %w", ErrTooManyRetries, attempts, lastErr)
}
