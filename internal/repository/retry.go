package repository

import (
	"context"
	"errors"
	"time"

	"github.com/lib/pq"
)

// Operation is a function that performs an action and returns an error if it fails.
type Operation func() error

// Retryable decides whether a failed operation may be attempted again.
type Retryable func(err error) bool

const DefaultMaxRetries = 3

// WithRetries runs op once plus up to maxRetries more times while the error
// is retryable, with a small incremental backoff. It stops early when ctx is done.
func WithRetries(ctx context.Context, op Operation, maxRetries int, retryable Retryable) error {
	var err error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		err = op()
		if err == nil {
			return nil
		}

		if attempt == maxRetries || !retryable(err) {
			break
		}

		select {
		case <-ctx.Done():
			return errors.Join(err, ctx.Err())
		case <-time.After(time.Duration(50*(attempt+1)) * time.Millisecond):
		}
	}
	return err
}

// IsTxConflict reports serialization failures (40001) and deadlocks (40P01).
func IsTxConflict(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "40001" || pqErr.Code == "40P01"
	}
	return false
}
