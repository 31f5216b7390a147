package query

import (
	"context"
	"strings"
	"sync"
	"time"

	"cinefetch/internal/fetch"
	"cinefetch/pkg/models"
)

// SearchState is where a search session is in its debounce/fetch cycle.
type SearchState string

const (
	SearchIdle       SearchState = "idle"
	SearchDebouncing SearchState = "debouncing"
	SearchFetching   SearchState = "fetching"
	SearchSettled    SearchState = "settled"
)

// DefaultSuggestions is how many leading results double as suggestions.
const DefaultSuggestions = 5

// SearchFunc runs one search for the first page of results.
type SearchFunc func(ctx context.Context, query string) (*models.MoviePage, error)

type SearchOptions struct {
	Debounce    time.Duration
	Suggestions int
}

// SearchSnapshot is a copy of the session state at one transition.
type SearchSnapshot struct {
	State       SearchState    `json:"state"`
	Query       string         `json:"query"`
	Results     []models.Movie `json:"results"`
	Suggestions []models.Movie `json:"suggestions"`
	Error       string         `json:"error,omitempty"`
	Retryable   bool           `json:"retryable"`
	Generation  uint64         `json:"generation"`
}

// SearchSession debounces keystrokes into searches. Each keystroke bumps the
// generation; a fetch commits only if its generation is still current, and a
// superseded fetch has its context cancelled.
type SearchSession struct {
	mu       sync.Mutex
	ctx      context.Context
	search   SearchFunc
	deb      *Debouncer
	limit    int
	snap     SearchSnapshot
	cancel   context.CancelFunc
	closed   bool
	onChange func(SearchSnapshot)
}

// NewSearchSession starts an idle session. ctx bounds every fetch it runs.
func NewSearchSession(ctx context.Context, search SearchFunc, opts SearchOptions) *SearchSession {
	if opts.Suggestions <= 0 {
		opts.Suggestions = DefaultSuggestions
	}
	return &SearchSession{
		ctx:    ctx,
		search: search,
		deb:    NewDebouncer(opts.Debounce),
		limit:  opts.Suggestions,
		snap: SearchSnapshot{
			State:       SearchIdle,
			Results:     []models.Movie{},
			Suggestions: []models.Movie{},
		},
	}
}

// OnChange sets the transition callback. It is called with the session
// locked, so it must not block or call back into the session.
func (s *SearchSession) OnChange(fn func(SearchSnapshot)) {
	s.mu.Lock()
	s.onChange = fn
	s.mu.Unlock()
}

// SetQuery records new text. Blank text settles to idle immediately;
// anything else restarts the debounce window.
func (s *SearchSession) SetQuery(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}

	s.snap.Generation++
	s.snap.Query = text
	s.deb.Cancel()
	s.cancelLocked()

	q := strings.TrimSpace(text)
	if q == "" {
		s.snap.State = SearchIdle
		s.snap.Results = []models.Movie{}
		s.snap.Suggestions = []models.Movie{}
		s.snap.Error = ""
		s.snap.Retryable = false
		s.emitLocked()
		return
	}

	gen := s.snap.Generation
	s.snap.State = SearchDebouncing
	s.emitLocked()
	s.deb.Schedule(func() { s.run(gen, q) })
}

func (s *SearchSession) run(gen uint64, q string) {
	s.mu.Lock()
	if s.closed || gen != s.snap.Generation {
		s.mu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(s.ctx)
	s.cancel = cancel
	s.snap.State = SearchFetching
	s.emitLocked()
	s.mu.Unlock()

	res, err := s.search(ctx, q)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || gen != s.snap.Generation {
		cancel()
		return
	}
	s.cancelLocked()

	s.snap.State = SearchSettled
	if err != nil {
		s.snap.Error = fetch.Message(err)
		s.snap.Retryable = fetch.Retryable(err)
		s.emitLocked()
		return
	}
	results := []models.Movie{}
	if res != nil && res.Results != nil {
		results = res.Results
	}
	s.snap.Error = ""
	s.snap.Retryable = false
	s.snap.Results = results
	s.snap.Suggestions = results[:min(len(results), s.limit)]
	s.emitLocked()
}

func (s *SearchSession) Snapshot() SearchSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snap
}

// Close stops the debounce timer and cancels any fetch in flight. Later
// results are dropped.
func (s *SearchSession) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	s.deb.Stop()
	s.cancelLocked()
	s.onChange = nil
}

func (s *SearchSession) cancelLocked() {
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
}

func (s *SearchSession) emitLocked() {
	if s.onChange != nil {
		s.onChange(s.snap)
	}
}
