package main

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"cinefetch/pkg/models"
)

func TestGetDataUnwrapsEnvelope(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"data":{"page":1,"total_pages":4,"results":[{"id":155,"title":"The Dark Knight"}]},"loading":false}`)
	}))
	defer srv.Close()

	page, err := getData[*models.MoviePage](context.Background(), srv.Client(), srv.URL+"/movies/popular")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if page.TotalPages != 4 || len(page.Results) != 1 || page.Results[0].ID != 155 {
		t.Fatalf("unexpected page: %+v", page)
	}
}

func TestDoJSONReturnsAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		io.WriteString(w, `{"error":"Movie not found","retryable":false,"loading":false}`)
	}))
	defer srv.Close()

	_, err := getData[*models.MovieDetails](context.Background(), srv.Client(), srv.URL+"/movie/1")
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.Status != http.StatusNotFound || apiErr.Retryable || apiErr.Message != "Movie not found" {
		t.Fatalf("unexpected error: %+v", apiErr)
	}
}

func TestURLs(t *testing.T) {
	got, err := websocketURL("https://movies.example.com/", "/ws/search")
	if err != nil || got != "wss://movies.example.com/ws/search" {
		t.Fatalf("websocketURL = %q, %v", got, err)
	}
	got, err = endpointURL("http://localhost:8080/", "/search", map[string][]string{"q": {"star wars"}})
	if err != nil || got != "http://localhost:8080/search?q=star+wars" {
		t.Fatalf("endpointURL = %q, %v", got, err)
	}
}

func TestPrintDetailsUsesImageURLs(t *testing.T) {
	poster := "/qJ2tW6WMUDux911r6m7haRef0WH.jpg"
	d := &models.MovieDetails{
		Movie:   models.Movie{ID: 155, Title: "The Dark Knight", ReleaseDate: "2008-07-16", PosterPath: &poster, Runtime: 152},
		Credits: &models.Credits{Cast: []models.CastMember{{Name: "Christian Bale", Character: "Bruce Wayne"}}},
		Videos:  []models.Video{{Key: "EXeTwQWrcwY", Site: "YouTube", Type: "Trailer"}},
		Source:  models.SourcePrimary,
	}
	var buf bytes.Buffer
	printDetails(&buf, d)
	out := buf.String()

	for _, want := range []string{
		"The Dark Knight (2008)",
		"https://image.tmdb.org/t/p/w500/qJ2tW6WMUDux911r6m7haRef0WH.jpg",
		"runtime: 2h32m",
		"Christian Bale as Bruce Wayne",
		"watch?v=EXeTwQWrcwY",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestLoadRefetchesRetryableFailure(t *testing.T) {
	defer func(d time.Duration, n int) { retryDelay, retriesFlag = d, n }(retryDelay, retriesFlag)
	retryDelay, retriesFlag = time.Millisecond, 2

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			io.WriteString(w, `{"error":"Failed to load movies. Please try again.","retryable":true,"loading":false}`)
			return
		}
		io.WriteString(w, `{"data":[{"id":28,"name":"Action"}],"loading":false}`)
	}))
	defer srv.Close()

	genres, err := load(context.Background(), func(ctx context.Context) ([]models.Genre, error) {
		return getData[[]models.Genre](ctx, srv.Client(), srv.URL+"/genres")
	})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(genres) != 1 || genres[0].Name != "Action" || calls.Load() != 2 {
		t.Fatalf("genres=%+v calls=%d", genres, calls.Load())
	}
}

func TestLoadDoesNotRetryNotFound(t *testing.T) {
	defer func(d time.Duration, n int) { retryDelay, retriesFlag = d, n }(retryDelay, retriesFlag)
	retryDelay, retriesFlag = time.Millisecond, 3

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
		io.WriteString(w, `{"error":"Movie not found","retryable":false,"loading":false}`)
	}))
	defer srv.Close()

	_, err := load(context.Background(), func(ctx context.Context) (*models.MovieDetails, error) {
		return getData[*models.MovieDetails](ctx, srv.Client(), srv.URL+"/movie/1")
	})
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Status != http.StatusNotFound {
		t.Fatalf("expected 404 APIError, got %v", err)
	}
	if calls.Load() != 1 {
		t.Fatalf("not-found should not be refetched, calls=%d", calls.Load())
	}
}
