package catalog

import (
	"context"
	"errors"
	"testing"
	"time"

	"cinefetch/pkg/models"
)

// fakeStore counts calls and can be told to fail or panic.
type fakeStore struct {
	calls  int
	err    error
	panics bool
	movies []models.CatalogMovie
	detail *models.CatalogMovieDetail
}

func (f *fakeStore) hit() error {
	f.calls++
	if f.panics {
		panic("boom")
	}
	return f.err
}

func (f *fakeStore) ListMovies(context.Context, Filter) ([]models.CatalogMovie, error) {
	if err := f.hit(); err != nil {
		return nil, err
	}
	return f.movies, nil
}

func (f *fakeStore) GetMovie(context.Context, string) (*models.CatalogMovieDetail, error) {
	if err := f.hit(); err != nil {
		return nil, err
	}
	return f.detail, nil
}

func (f *fakeStore) SearchMovies(context.Context, string, int) ([]models.CatalogMovie, error) {
	if err := f.hit(); err != nil {
		return nil, err
	}
	return f.movies, nil
}

func (f *fakeStore) ListCategories(context.Context) ([]models.CatalogCategory, error) {
	if err := f.hit(); err != nil {
		return nil, err
	}
	return []models.CatalogCategory{{ID: "c1", Name: "Drama"}}, nil
}

func (f *fakeStore) ListByCategory(context.Context, string, int) ([]models.CatalogMovie, error) {
	if err := f.hit(); err != nil {
		return nil, err
	}
	return f.movies, nil
}

var fallbackMovies = []models.CatalogMovie{{ID: "fallback", Title: "Fallback"}}

func TestUnconfiguredClientReturnsFallbackImmediately(t *testing.T) {
	c := NewClient(nil)
	if c.Configured() {
		t.Fatal("client without store must not be configured")
	}

	start := time.Now()
	got := c.Movies(context.Background(), TrendingFilter(), fallbackMovies)
	if len(got) != 1 || got[0].ID != "fallback" {
		t.Fatalf("expected fallback, got %+v", got)
	}
	if cats := c.Categories(context.Background(), nil); cats != nil {
		t.Fatalf("expected nil fallback categories, got %+v", cats)
	}
	if d := c.Movie(context.Background(), "x", nil); d != nil {
		t.Fatalf("expected nil fallback detail, got %+v", d)
	}
	if elapsed := time.Since(start); elapsed > 100*time.Millisecond {
		t.Fatalf("fallback should be immediate, took %s", elapsed)
	}
}

func TestStoreErrorReturnsFallback(t *testing.T) {
	store := &fakeStore{err: &StoreError{Status: 401, Code: "PGRST301", Message: "JWT expired"}}
	c := NewClient(store)

	got := c.Search(context.Background(), "alien", 10, fallbackMovies)
	if len(got) != 1 || got[0].ID != "fallback" {
		t.Fatalf("expected fallback, got %+v", got)
	}
	if store.calls != 1 {
		t.Fatalf("expected store to be called once, got %d", store.calls)
	}
}

func TestStorePanicReturnsFallback(t *testing.T) {
	store := &fakeStore{panics: true}
	c := NewClient(store)

	got := c.ByCategory(context.Background(), "c1", 10, fallbackMovies)
	if len(got) != 1 || got[0].ID != "fallback" {
		t.Fatalf("expected fallback after panic, got %+v", got)
	}
}

func TestMovieAbsentIsNilNotFallback(t *testing.T) {
	store := &fakeStore{}
	c := NewClient(store)
	fb := &models.CatalogMovieDetail{CatalogMovie: models.CatalogMovie{ID: "fb"}}

	if got := c.Movie(context.Background(), "missing", fb); got != nil {
		t.Fatalf("absent row should be nil, got %+v", got)
	}
}

func TestMovieStoreErrorReturnsFallback(t *testing.T) {
	store := &fakeStore{err: &StoreError{Status: 503, Message: "upstream unavailable"}}
	c := NewClient(store)
	fb := &models.CatalogMovieDetail{CatalogMovie: models.CatalogMovie{ID: "fb"}}

	if got := c.Movie(context.Background(), "m1", fb); got != fb {
		t.Fatalf("expected fallback detail on store error, got %+v", got)
	}
}

func TestRealDataPassesThrough(t *testing.T) {
	store := &fakeStore{movies: []models.CatalogMovie{{ID: "m1", Title: "Heat"}, {ID: "m2", Title: "Ronin"}}}
	c := NewClient(store)

	got := c.Movies(context.Background(), PopularFilter(), fallbackMovies)
	if len(got) != 2 || got[0].ID != "m1" {
		t.Fatalf("expected store rows, got %+v", got)
	}
}

func TestStoreErrorMessage(t *testing.T) {
	err := error(&StoreError{Status: 400, Code: "42P01", Message: "relation does not exist"})
	var se *StoreError
	if !errors.As(err, &se) {
		t.Fatal("expected StoreError")
	}
	if se.Error() != "catalog: HTTP 400 (42P01): relation does not exist" {
		t.Fatalf("unexpected message: %s", se.Error())
	}
}
