// Package catalog is the client for the secondary, relational movie catalog.
//
// A Store talks to the backing database and may fail. Client wraps a Store
// and never fails: every call resolves to real rows or the caller's fallback.
package catalog

import (
	"context"
	"fmt"
	"strings"

	"cinefetch/pkg/models"
)

const (
	DefaultLimit = 20
	MaxLimit     = 100
)

// Store is the query surface of the catalog. GetMovie returns nil, nil when
// the id does not exist.
type Store interface {
	ListMovies(ctx context.Context, f Filter) ([]models.CatalogMovie, error)
	GetMovie(ctx context.Context, id string) (*models.CatalogMovieDetail, error)
	SearchMovies(ctx context.Context, q string, limit int) ([]models.CatalogMovie, error)
	ListCategories(ctx context.Context) ([]models.CatalogCategory, error)
	ListByCategory(ctx context.Context, categoryID string, limit int) ([]models.CatalogMovie, error)
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// escapeLike makes q match literally inside a LIKE/ILIKE pattern whose
// escape character is backslash.
func escapeLike(q string) string {
	return likeEscaper.Replace(q)
}

// Filter selects movies by their boolean list flags. Nil flags are not filtered.
type Filter struct {
	Trending   *bool
	Popular    *bool
	NewRelease *bool
	OrderBy    string // created_at | rating | release_year | title
	Desc       bool
	Limit      int
	ExcludeID  string
}

func Flag(v bool) *bool { return &v }

// Preset filters for the four home lists.
func TrendingFilter() Filter {
	return Filter{Trending: Flag(true), OrderBy: "created_at", Desc: true}
}

func PopularFilter() Filter {
	return Filter{Popular: Flag(true), OrderBy: "rating", Desc: true}
}

func TopRatedFilter() Filter {
	return Filter{OrderBy: "rating", Desc: true}
}

func NewReleaseFilter() Filter {
	return Filter{NewRelease: Flag(true), OrderBy: "release_year", Desc: true}
}

func (f Filter) limit() int {
	return clampLimit(f.Limit)
}

func (f Filter) orderColumn() string {
	switch strings.ToLower(strings.TrimSpace(f.OrderBy)) {
	case "rating":
		return "rating"
	case "release_year":
		return "release_year"
	case "title":
		return "title"
	default:
		return "created_at"
	}
}

func clampLimit(n int) int {
	if n <= 0 || n > MaxLimit {
		return DefaultLimit
	}
	return n
}

// StoreError is the error object a hosted store returns instead of rows.
type StoreError struct {
	Status  int    `json:"-"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details"`
	Hint    string `json:"hint"`
}

func (e *StoreError) Error() string {
	if e == nil {
		return "catalog: store error"
	}
	msg := strings.TrimSpace(e.Message)
	if msg == "" {
		msg = "request failed"
	}
	if e.Code != "" {
		return fmt.Sprintf("catalog: HTTP %d (%s): %s", e.Status, e.Code, msg)
	}
	return fmt.Sprintf("catalog: HTTP %d: %s", e.Status, msg)
}
