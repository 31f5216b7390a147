package main

import (
	"context"
	"errors"
	"time"

	"cinefetch/internal/query"
)

var retryDelay = time.Second

// load mounts a query for one screen. A failure the server marks retryable
// is refetched up to retriesFlag times.
func load[T any](ctx context.Context, f query.Fetcher[T]) (T, error) {
	q := query.New(f)
	defer q.Close()

	s := q.Load(ctx)
	for i := 0; i < retriesFlag && s.Failed() && shouldRetry(s.Cause); i++ {
		select {
		case <-ctx.Done():
			return s.Data, ctx.Err()
		case <-time.After(retryDelay):
		}
		s = q.Refetch(ctx)
	}
	if s.Failed() {
		if s.Cause != nil {
			return s.Data, s.Cause
		}
		return s.Data, errors.New(s.Error)
	}
	return s.Data, nil
}

func shouldRetry(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return false
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Retryable
	}
	return true
}
