package tmdb

import (
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

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return New(Config{APIKey: "k123", BaseURL: srv.URL}, srv.Client())
}

func TestTrendingRequestShape(t *testing.T) {
	var gotPath, gotKey, gotLang, gotPage string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.URL.Query().Get("api_key")
		gotLang = r.URL.Query().Get("language")
		gotPage = r.URL.Query().Get("page")
		io.WriteString(w, `{"page":2,"total_pages":9,"total_results":180,"results":[{"id":550,"title":"Fight Club","vote_average":8.4,"release_date":"1999-10-15"}]}`)
	})

	page, err := c.Trending(context.Background(), 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotPath != "/trending/movie/week" {
		t.Fatalf("path = %q", gotPath)
	}
	if gotKey != "k123" || gotLang != "en-US" || gotPage != "2" {
		t.Fatalf("query api_key=%q language=%q page=%q", gotKey, gotLang, gotPage)
	}
	if page.Page != 2 || page.TotalPages != 9 || len(page.Results) != 1 {
		t.Fatalf("unexpected envelope: %+v", page)
	}
	if page.Results[0].ID != 550 || page.Results[0].Source != models.SourcePrimary {
		t.Fatalf("unexpected movie: %+v", page.Results[0])
	}
}

func TestEndpointPaths(t *testing.T) {
	c := New(Config{APIKey: "k", BaseURL: "http://example.test/3/"}, nil)
	tests := []struct {
		op   Op
		p    Params
		path string
	}{
		{OpPopular, Params{}, "/3/movie/popular"},
		{OpTopRated, Params{}, "/3/movie/top_rated"},
		{OpUpcoming, Params{}, "/3/movie/upcoming"},
		{OpDetails, Params{ID: 27205}, "/3/movie/27205"},
		{OpCredits, Params{ID: 27205}, "/3/movie/27205/credits"},
		{OpVideos, Params{ID: 27205}, "/3/movie/27205/videos"},
		{OpSimilar, Params{ID: 27205}, "/3/movie/27205/similar"},
		{OpSearch, Params{Query: "inception"}, "/3/search/movie"},
		{OpGenres, Params{}, "/3/genre/movie/list"},
		{OpDiscover, Params{GenreID: 28}, "/3/discover/movie"},
	}
	for _, tt := range tests {
		raw, err := c.endpoint(tt.op, tt.p)
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", tt.op, err)
		}
		if !strings.Contains(raw, tt.path+"?") {
			t.Fatalf("%s: endpoint %q does not contain %q", tt.op, raw, tt.path)
		}
	}

	if _, err := c.endpoint(OpDetails, Params{}); err == nil {
		t.Fatal("expected error for details without id")
	}
	if _, err := c.endpoint(OpSearch, Params{Query: "  "}); err == nil {
		t.Fatal("expected error for blank search")
	}
	raw, _ := c.endpoint(OpDiscover, Params{GenreID: 28})
	if !strings.Contains(raw, "with_genres=28") {
		t.Fatalf("discover endpoint missing genre: %s", raw)
	}
}

func TestStatusErrorNotFound(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		io.WriteString(w, `{"status_code":34,"status_message":"The resource you requested could not be found.","success":false}`)
	})

	_, err := c.Details(context.Background(), 999999)
	if err == nil {
		t.Fatal("expected error")
	}
	if !IsNotFound(err) {
		t.Fatalf("expected not-found, got %v", err)
	}
	var se *StatusError
	if !errors.As(err, &se) || !strings.Contains(se.Message, "could not be found") {
		t.Fatalf("unexpected status error: %v", err)
	}
}

func TestServerErrorIsNotRetried(t *testing.T) {
	var calls int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusInternalServerError)
	})

	_, err := c.Popular(context.Background(), 1)
	if err == nil || IsNotFound(err) {
		t.Fatalf("expected a non-404 status error, got %v", err)
	}
	if n := atomic.LoadInt32(&calls); n != 1 {
		t.Fatalf("expected 1 call, got %d", n)
	}
}

func TestTransportErrorRetriedOnce(t *testing.T) {
	var calls int32
	httpc := &http.Client{Transport: roundTripFunc(func(r *http.Request) (*http.Response, error) {
		if atomic.AddInt32(&calls, 1) == 1 {
			return nil, errors.New("connection reset by peer")
		}
		return &http.Response{
			StatusCode: http.StatusOK,
			Header:     make(http.Header),
			Body:       io.NopCloser(strings.NewReader(`{"genres":[{"id":28,"name":"Action"}]}`)),
		}, nil
	})}
	c := New(Config{APIKey: "k", BaseURL: "http://tmdb.test/3", Retries: 1}, httpc)

	genres, err := c.Genres(context.Background())
	if err != nil {
		t.Fatalf("expected retry to succeed, got %v", err)
	}
	if len(genres) != 1 || genres[0].Name != "Action" {
		t.Fatalf("unexpected genres: %+v", genres)
	}
	if n := atomic.LoadInt32(&calls); n != 2 {
		t.Fatalf("expected 2 attempts, got %d", n)
	}
}

func TestTimeoutFails(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	t.Cleanup(func() {
		close(release)
		srv.Close()
	})

	c := New(Config{BaseURL: srv.URL, Timeout: 50 * time.Millisecond}, srv.Client())
	start := time.Now()
	_, err := c.Upcoming(context.Background(), 1)
	if err == nil {
		t.Fatal("expected timeout error")
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Fatalf("timeout not enforced, took %s", elapsed)
	}
}

func TestDecodeErrorIsReported(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"results":`)
	})
	_, err := c.Trending(context.Background(), 1)
	if !errors.Is(err, ErrDecode) {
		t.Fatalf("expected decode error, got %v", err)
	}
}

func TestBearerTokenUsesHeader(t *testing.T) {
	token := "eyJhbGciOiJIUzI1NiJ9.eyJzdWIiOiJ4In0.sig"
	var auth, key string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		key = r.URL.Query().Get("api_key")
		io.WriteString(w, `{"genres":[]}`)
	}))
	defer srv.Close()

	c := New(Config{APIKey: token, BaseURL: srv.URL}, srv.Client())
	if _, err := c.Genres(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if auth != "Bearer "+token || key != "" {
		t.Fatalf("authorization=%q api_key=%q", auth, key)
	}
}

func TestImageURL(t *testing.T) {
	if got := ImageURL(nil, PosterSize); got != "" {
		t.Fatalf("expected empty url, got %q", got)
	}
	p := "/poster.png"
	if got := ImageURL(&p, PosterSize); got != "https://image.tmdb.org/t/p/w500/poster.png" {
		t.Fatalf("unexpected url: %s", got)
	}
	abs := "https://cdn.example.com/a.jpg"
	if got := ImageURL(&abs, PosterSize); got != abs {
		t.Fatalf("absolute url should pass through, got %s", got)
	}
}
