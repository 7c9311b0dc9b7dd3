package gdocai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/googleapis/gax-go/v2"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// RetryPolicy describes how a platform call is retried.
type RetryPolicy struct {
	MaxRetries int              // retries after the first attempt; 0 disables retrying
	Backoff    gax.Backoff      // pause between attempts
	Retryable  func(error) bool // nil means IsTransient
}

// DefaultRetryPolicy retries transient failures five times starting at half a second
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxRetries: 5,
		Backoff: gax.Backoff{
			Initial:    500 * time.Millisecond,
			Max:        10 * time.Second,
			Multiplier: 2,
		},
		Retryable: IsTransient,
	}
}

// NoRetry runs every call exactly once
func NoRetry() RetryPolicy {
	return RetryPolicy{}
}

// IsTransient reports whether err is a gRPC failure worth retrying
func IsTransient(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return false
	}
	switch status.Code(err) {
	case codes.Unavailable, codes.ResourceExhausted, codes.Aborted, codes.DeadlineExceeded:
		return true
	default:
		return false
	}
}

// Do runs call until it succeeds, fails with a non-retryable error, runs out
// of retries or ctx is done.
func (p RetryPolicy) Do(ctx context.Context, log *slog.Logger, call func(context.Context) error) error {
	if log == nil {
		log = slog.Default()
	}
	retryable := p.Retryable
	if retryable == nil {
		retryable = IsTransient
	}
	bo := p.Backoff

	for attempt := 0; ; attempt++ {
		err := call(ctx)
		if err == nil {
			if attempt > 0 {
				log.Debug("Attempt succeeded", "attempt", attempt+1)
			}
			return nil
		}
		if attempt >= p.MaxRetries || !retryable(err) {
			if attempt > 0 {
				log.Debug("Final attempt failed", "attempt", attempt+1, "error", err)
			}
			return err
		}

		delay := bo.Pause()
		log.Debug("Attempt failed, retrying", "attempt", attempt+1, "error", err, "delay", delay)
		if sleepErr := gax.Sleep(ctx, delay); sleepErr != nil {
			return fmt.Errorf("retry interrupted after %d attempts: %w", attempt+1, errors.Join(sleepErr, err))
		}
	}
}
