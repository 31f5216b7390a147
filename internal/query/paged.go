package query

import (
	"context"
	"sync"

	"cinefetch/internal/fetch"
	"cinefetch/pkg/models"
)

// PageFetcher loads one page of a movie list.
type PageFetcher func(ctx context.Context, page int) (*models.MoviePage, error)

// Paged is a list hook that grows by whole pages.
type Paged struct {
	mu         sync.Mutex
	fetch      PageFetcher
	state      State[[]models.Movie]
	page       int
	totalPages int
	gen        uint64
	more       bool
	closed     bool
}

func NewPaged(f PageFetcher) *Paged {
	return &Paged{fetch: f, state: State[[]models.Movie]{Loading: true, Data: []models.Movie{}}}
}

// Load replaces the list with page 1.
func (p *Paged) Load(ctx context.Context) State[[]models.Movie] {
	p.mu.Lock()
	if p.closed {
		s := p.state
		p.mu.Unlock()
		return s
	}
	p.gen++
	gen := p.gen
	p.more = false
	p.state.Loading = true
	p.state.Error = ""
	p.mu.Unlock()

	res, err := p.fetch(ctx, 1)

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed || gen != p.gen {
		return p.state
	}
	p.settleLocked(res, err, false)
	return p.state
}

// LoadMore appends the next page when there is one. Concurrent calls while a
// page is in flight are no-ops.
func (p *Paged) LoadMore(ctx context.Context) State[[]models.Movie] {
	p.mu.Lock()
	if p.closed || p.more || p.state.Loading || p.page >= p.totalPages {
		s := p.state
		p.mu.Unlock()
		return s
	}
	p.more = true
	gen, next := p.gen, p.page+1
	p.mu.Unlock()

	res, err := p.fetch(ctx, next)

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed || gen != p.gen {
		return p.state
	}
	p.more = false
	p.settleLocked(res, err, true)
	return p.state
}

func (p *Paged) settleLocked(res *models.MoviePage, err error, appendPage bool) {
	p.state.Loading = false
	if err != nil {
		p.state.Error = fetch.Message(err)
		p.state.Retryable = fetch.Retryable(err)
		p.state.Cause = err
		return
	}
	p.state.Error = ""
	p.state.Retryable = false
	p.state.Cause = nil
	if res == nil {
		res = &models.MoviePage{Page: 1}
	}
	if appendPage {
		p.state.Data = append(p.state.Data, res.Results...)
	} else {
		p.state.Data = append([]models.Movie{}, res.Results...)
	}
	p.page = max(res.Page, 1)
	p.totalPages = res.TotalPages
}

// HasMore reports whether another page exists.
func (p *Paged) HasMore() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.page < p.totalPages
}

// Page is the last page loaded, 0 before the first success.
func (p *Paged) Page() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.page
}

func (p *Paged) TotalPages() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.totalPages
}

func (p *Paged) State() State[[]models.Movie] {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

func (p *Paged) Close() {
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()
}
