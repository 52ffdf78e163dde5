package ingestion

import (
	"context"
	"errors"
	"time"

	"github.com/Numraio/cpam-sub003/internal/apperrors"
)

// RetryPolicy controls how many times a failed upsert is attempted and how
// long to wait between attempts. Attempt n sleeps Backoff[n-1] before
// retrying; when attempts outnumber backoff entries the last entry repeats.
type RetryPolicy struct {
	MaxAttempts int
	Backoff     []time.Duration
}

// DefaultRetryPolicy retries three times after the initial attempt with a
// doubling 1s/2s/4s schedule.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: 4,
		Backoff:     []time.Duration{time.Second, 2 * time.Second, 4 * time.Second},
	}
}

func (p RetryPolicy) delay(attempt int) time.Duration {
	if len(p.Backoff) == 0 {
		return 0
	}
	if attempt >= len(p.Backoff) {
		return p.Backoff[len(p.Backoff)-1]
	}
	return p.Backoff[attempt]
}

// retryable reports whether the error is worth another attempt. Caller-input
// failures never resolve themselves, so only infrastructure errors retry.
func retryable(err error) bool {
	switch {
	case errors.Is(err, apperrors.ErrValidation),
		errors.Is(err, apperrors.ErrNotFound),
		errors.Is(err, apperrors.ErrDuplicate),
		errors.Is(err, apperrors.ErrConflict):
		return false
	}
	return true
}

// withRetry runs fn until it succeeds, returns a non-retryable error, the
// policy is exhausted, or the context is cancelled.
func withRetry(ctx context.Context, policy RetryPolicy, sleep func(time.Duration), fn func() error) error {
	attempts := policy.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	var err error
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			sleep(policy.delay(attempt - 1))
		}
		if err = fn(); err == nil || !retryable(err) {
			return err
		}
	}
	return err
}
