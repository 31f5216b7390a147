package catalog

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"cinefetch/pkg/database"
	"cinefetch/pkg/models"
)

func newTestSQLStore(t *testing.T) *SQLStore {
	t.Helper()
	db, err := database.Open(database.Config{Path: filepath.Join(t.TempDir(), "catalog.db")})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return NewSQLStore(db)
}

func ptr[T any](v T) *T { return &v }

func seed(t *testing.T, s *SQLStore) {
	t.Helper()
	ctx := context.Background()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	movies := []models.CatalogMovie{
		{ID: "m-inception", Title: "Inception", Description: ptr("Dreams within dreams."), ReleaseYear: ptr(2010), Rating: ptr(8.8), Duration: ptr(148), IsTrending: true, IsPopular: true, CreatedAt: base.Add(3 * time.Hour), TrailerYouTubeID: ptr("YoHD9XEInc0")},
		{ID: "m-interstellar", Title: "Interstellar", ReleaseYear: ptr(2014), Rating: ptr(8.6), IsTrending: true, CreatedAt: base.Add(2 * time.Hour)},
		{ID: "m-dune", Title: "Dune: Part Two", ReleaseYear: ptr(2024), Rating: ptr(8.3), IsNewRelease: true, CreatedAt: base.Add(time.Hour)},
		{ID: "m-nulls", Title: "Untitled Project", CreatedAt: base},
	}
	for _, m := range movies {
		if err := s.UpsertMovie(ctx, m); err != nil {
			t.Fatalf("seed movie: %v", err)
		}
	}
	cats := []models.CatalogCategory{
		{ID: "cat-scifi", Name: "Sci-Fi", Slug: "sci-fi", DisplayOrder: 1},
		{ID: "cat-action", Name: "Action", Slug: "action", DisplayOrder: 0},
	}
	for _, c := range cats {
		if err := s.UpsertCategory(ctx, c); err != nil {
			t.Fatalf("seed category: %v", err)
		}
	}
	links := [][2]string{
		{"m-inception", "cat-scifi"},
		{"m-inception", "cat-action"},
		{"m-interstellar", "cat-scifi"},
		{"m-inception", "cat-scifi"},
	}
	for _, l := range links {
		if err := s.LinkCategory(ctx, l[0], l[1]); err != nil {
			t.Fatalf("seed link: %v", err)
		}
	}
}

func TestSQLStoreListByFlag(t *testing.T) {
	s := newTestSQLStore(t)
	seed(t, s)

	got, err := s.ListMovies(context.Background(), TrendingFilter())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 trending movies, got %d", len(got))
	}
	if got[0].ID != "m-inception" {
		t.Fatalf("expected newest first, got %s", got[0].ID)
	}
	if got[0].Duration == nil || *got[0].Duration != 148 {
		t.Fatalf("duration not scanned: %v", got[0].Duration)
	}
	if got[1].Description != nil {
		t.Fatalf("expected NULL description, got %q", *got[1].Description)
	}
}

func TestSQLStoreTopRatedPutsNullsLast(t *testing.T) {
	s := newTestSQLStore(t)
	seed(t, s)

	got, err := s.ListMovies(context.Background(), TopRatedFilter())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 4 {
		t.Fatalf("expected all 4 movies, got %d", len(got))
	}
	if got[0].ID != "m-inception" || got[3].ID != "m-nulls" {
		t.Fatalf("unexpected order: %s ... %s", got[0].ID, got[3].ID)
	}
}

func TestSQLStoreExcludeAndLimit(t *testing.T) {
	s := newTestSQLStore(t)
	seed(t, s)

	got, err := s.ListMovies(context.Background(), Filter{OrderBy: "title", ExcludeID: "m-dune", Limit: 2})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected limit 2, got %d", len(got))
	}
	for _, m := range got {
		if m.ID == "m-dune" {
			t.Fatal("excluded id returned")
		}
	}
}

func TestSQLStoreGetMovieWithCategories(t *testing.T) {
	s := newTestSQLStore(t)
	seed(t, s)

	d, err := s.GetMovie(context.Background(), "m-inception")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if d == nil || d.Title != "Inception" {
		t.Fatalf("unexpected detail: %+v", d)
	}
	if len(d.Categories) != 2 || d.Categories[0].Name != "Action" {
		t.Fatalf("expected categories ordered by display_order, got %+v", d.Categories)
	}
	if d.TrailerYouTubeID == nil || *d.TrailerYouTubeID != "YoHD9XEInc0" {
		t.Fatalf("trailer not scanned: %v", d.TrailerYouTubeID)
	}
}

func TestSQLStoreGetMovieMissing(t *testing.T) {
	s := newTestSQLStore(t)
	d, err := s.GetMovie(context.Background(), "nope")
	if err != nil || d != nil {
		t.Fatalf("expected nil, nil; got %+v, %v", d, err)
	}
}

func TestSQLStoreSearchSubstringCaseInsensitive(t *testing.T) {
	s := newTestSQLStore(t)
	seed(t, s)

	got, err := s.SearchMovies(context.Background(), "INTER", 10)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(got) != 1 || got[0].ID != "m-interstellar" {
		t.Fatalf("unexpected search result: %+v", got)
	}
}

func TestSQLStoreCategories(t *testing.T) {
	s := newTestSQLStore(t)
	seed(t, s)

	cats, err := s.ListCategories(context.Background())
	if err != nil {
		t.Fatalf("categories: %v", err)
	}
	if len(cats) != 2 || cats[0].Slug != "action" {
		t.Fatalf("unexpected categories: %+v", cats)
	}

	movies, err := s.ListByCategory(context.Background(), "cat-scifi", 10)
	if err != nil {
		t.Fatalf("by category: %v", err)
	}
	if len(movies) != 2 || movies[0].ID != "m-inception" {
		t.Fatalf("unexpected category movies: %+v", movies)
	}
}

func TestSQLStoreSearchTreatsWildcardsLiterally(t *testing.T) {
	s := newTestSQLStore(t)
	seed(t, s)
	if err := s.UpsertMovie(context.Background(), models.CatalogMovie{ID: "m-pct", Title: "100% Wolf"}); err != nil {
		t.Fatalf("seed: %v", err)
	}

	for q, want := range map[string]int{"%": 1, "_": 0, `\`: 0, "0% w": 1} {
		got, err := s.SearchMovies(context.Background(), q, 10)
		if err != nil {
			t.Fatalf("search %q: %v", q, err)
		}
		if len(got) != want {
			t.Errorf("search %q matched %d titles, want %d: %+v", q, len(got), want, got)
		}
	}
}
