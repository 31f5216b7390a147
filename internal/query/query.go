// Package query holds per-screen fetch state: loading, data and a
// displayable error, with refetch and unmount semantics.
//
// Every hook owns its state; nothing is cached across hooks. Each run takes a
// new generation and only the newest run may commit, so a slow response can
// never overwrite a newer one. Once closed, a hook ignores every result.
package query

import (
	"context"
	"sync"

	"cinefetch/internal/fetch"
)

// State is what a screen renders.
type State[T any] struct {
	Data      T      `json:"data"`
	Loading   bool   `json:"loading"`
	Error     string `json:"error,omitempty"`
	Retryable bool   `json:"retryable"`
	// Cause is the error behind Error, for callers that map it to a status.
	Cause error `json:"-"`
}

// Failed reports whether the last settled run produced an error.
func (s State[T]) Failed() bool { return s.Error != "" }

// Fetcher loads one value. Parameters are captured by the closure.
type Fetcher[T any] func(ctx context.Context) (T, error)

type Query[T any] struct {
	mu     sync.Mutex
	fetch  Fetcher[T]
	state  State[T]
	gen    uint64
	closed bool
	subs   []func(State[T])
}

// New mounts a hook. It starts out loading; nothing runs until Load.
func New[T any](f Fetcher[T]) *Query[T] {
	return &Query[T]{fetch: f, state: State[T]{Loading: true}}
}

// Load runs the fetcher and returns the state after settling. Data from an
// earlier success stays in place if this run fails.
func (q *Query[T]) Load(ctx context.Context) State[T] {
	return q.run(ctx, false)
}

// Refetch clears the data and loads again.
func (q *Query[T]) Refetch(ctx context.Context) State[T] {
	return q.run(ctx, true)
}

func (q *Query[T]) run(ctx context.Context, reset bool) State[T] {
	q.mu.Lock()
	if q.closed {
		s := q.state
		q.mu.Unlock()
		return s
	}
	q.gen++
	gen, fn := q.gen, q.fetch
	if reset {
		var zero T
		q.state.Data = zero
	}
	q.state.Loading = true
	q.state.Error = ""
	q.state.Retryable = false
	q.state.Cause = nil
	q.emitLocked()
	q.mu.Unlock()

	data, err := fn(ctx)

	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed || gen != q.gen {
		return q.state
	}
	q.state.Loading = false
	if err != nil {
		q.state.Error = fetch.Message(err)
		q.state.Retryable = fetch.Retryable(err)
		q.state.Cause = err
	} else {
		q.state.Data = data
	}
	q.emitLocked()
	return q.state
}

// OnChange registers fn for every state transition. fn runs with the hook
// locked and must not call back into it.
func (q *Query[T]) OnChange(fn func(State[T])) {
	q.mu.Lock()
	q.subs = append(q.subs, fn)
	q.mu.Unlock()
}

func (q *Query[T]) State() State[T] {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.state
}

// Close unmounts the hook. In-flight fetches finish but never commit.
func (q *Query[T]) Close() {
	q.mu.Lock()
	q.closed = true
	q.subs = nil
	q.mu.Unlock()
}

func (q *Query[T]) emitLocked() {
	for _, fn := range q.subs {
		fn(q.state)
	}
}
