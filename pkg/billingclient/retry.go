package billingclient

import (
	"context"
	"errors"
	"time"
)

type RetryPolicy struct {
	MaxRetries int
	BaseDelay  time.Duration
}

// Do runs fn, retrying transient failures when the call is safe to repeat.
// Checkout session creation is not safe: a retried POST may open a second
// session.
func (r RetryPolicy) Do(ctx context.Context, safe bool, fn func() error) error {
	var err error
	for i := 0; i <= r.MaxRetries; i++ {
		err = fn()
		if err == nil || !safe || !retryable(err) {
			return err
		}
		if i == r.MaxRetries {
			break
		}
		select {
		case <-ctx.Done():
			return err
		case <-time.After(r.BaseDelay * time.Duration(i+1)):
		}
	}
	return err
}

func retryable(err error) bool {
	if errors.Is(err, ErrCircuitOpen) || errors.Is(err, context.Canceled) {
		return false
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status >= 500 || apiErr.Status == 429
	}
	var decodeErr *DecodeError
	if errors.As(err, &decodeErr) {
		return false
	}
	return true
}
