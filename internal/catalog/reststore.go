package catalog

import (
	"cmp"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"slices"
	"strconv"
	"strings"

	"cinefetch/pkg/models"
)

// RESTStore queries a hosted catalog through its PostgREST endpoint
// ({base}/rest/v1/{table}) with the public anon key.
type RESTStore struct {
	BaseURL string
	Key     string
	Client  *http.Client
}

func NewRESTStore(baseURL, key string, httpc *http.Client) *RESTStore {
	if httpc == nil {
		httpc = &http.Client{}
	}
	base := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if !strings.HasSuffix(base, "/rest/v1") {
		base += "/rest/v1"
	}
	return &RESTStore{BaseURL: base, Key: key, Client: httpc}
}

func (s *RESTStore) ListMovies(ctx context.Context, f Filter) ([]models.CatalogMovie, error) {
	q := url.Values{}
	q.Set("select", "*")
	if f.Trending != nil {
		q.Set("is_trending", "eq."+strconv.FormatBool(*f.Trending))
	}
	if f.Popular != nil {
		q.Set("is_popular", "eq."+strconv.FormatBool(*f.Popular))
	}
	if f.NewRelease != nil {
		q.Set("is_new_release", "eq."+strconv.FormatBool(*f.NewRelease))
	}
	if id := strings.TrimSpace(f.ExcludeID); id != "" {
		q.Set("id", "neq."+id)
	}
	dir := "asc"
	if f.Desc {
		dir = "desc"
	}
	q.Set("order", f.orderColumn()+"."+dir+".nullslast,title.asc")
	q.Set("limit", strconv.Itoa(f.limit()))

	var out []models.CatalogMovie
	if err := s.get(ctx, "movies", q, &out); err != nil {
		return nil, err
	}
	return orEmpty(out), nil
}

type restMovieDetail struct {
	models.CatalogMovie
	MovieCategories []struct {
		Categories *models.CatalogCategory `json:"categories"`
	} `json:"movie_categories"`
}

func (s *RESTStore) GetMovie(ctx context.Context, id string) (*models.CatalogMovieDetail, error) {
	q := url.Values{}
	q.Set("select", "*,movie_categories(categories(*))")
	q.Set("id", "eq."+id)
	q.Set("limit", "1")

	var rows []restMovieDetail
	if err := s.get(ctx, "movies", q, &rows); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}

	d := &models.CatalogMovieDetail{CatalogMovie: rows[0].CatalogMovie, Categories: []models.CatalogCategory{}}
	for _, mc := range rows[0].MovieCategories {
		if mc.Categories != nil {
			d.Categories = append(d.Categories, *mc.Categories)
		}
	}
	return d, nil
}

func (s *RESTStore) SearchMovies(ctx context.Context, q string, limit int) ([]models.CatalogMovie, error) {
	v := url.Values{}
	v.Set("select", "*")
	v.Set("title", "ilike.*"+escapeLike(strings.TrimSpace(q))+"*")
	v.Set("order", "rating.desc.nullslast,title.asc")
	v.Set("limit", strconv.Itoa(clampLimit(limit)))

	var out []models.CatalogMovie
	if err := s.get(ctx, "movies", v, &out); err != nil {
		return nil, err
	}
	return orEmpty(out), nil
}

func (s *RESTStore) ListCategories(ctx context.Context) ([]models.CatalogCategory, error) {
	q := url.Values{}
	q.Set("select", "*")
	q.Set("order", "display_order.asc,name.asc")

	var out []models.CatalogCategory
	if err := s.get(ctx, "categories", q, &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = []models.CatalogCategory{}
	}
	return out, nil
}

func (s *RESTStore) ListByCategory(ctx context.Context, categoryID string, limit int) ([]models.CatalogMovie, error) {
	q := url.Values{}
	q.Set("select", "movies(*)")
	q.Set("category_id", "eq."+categoryID)
	q.Set("order", "movies(rating).desc.nullslast,movies(title).asc")
	q.Set("limit", strconv.Itoa(clampLimit(limit)))

	var rows []struct {
		Movies *models.CatalogMovie `json:"movies"`
	}
	if err := s.get(ctx, "movie_categories", q, &rows); err != nil {
		return nil, err
	}
	out := make([]models.CatalogMovie, 0, len(rows))
	for _, r := range rows {
		if r.Movies != nil {
			out = append(out, *r.Movies)
		}
	}
	// Older PostgREST versions ignore ordering by an embedded column.
	slices.SortStableFunc(out, byRatingThenTitle)
	return out, nil
}

// byRatingThenTitle matches SQLStore's ORDER BY rating DESC NULLS LAST, title.
func byRatingThenTitle(a, b models.CatalogMovie) int {
	switch {
	case a.Rating == nil && b.Rating == nil:
	case a.Rating == nil:
		return 1
	case b.Rating == nil:
		return -1
	case *a.Rating != *b.Rating:
		return cmp.Compare(*b.Rating, *a.Rating)
	}
	return cmp.Compare(a.Title, b.Title)
}

func (s *RESTStore) get(ctx context.Context, table string, q url.Values, out any) error {
	u := s.BaseURL + "/" + table + "?" + q.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("catalog %s: build request: %w", table, err)
	}
	req.Header.Set("apikey", s.Key)
	req.Header.Set("Authorization", "Bearer "+s.Key)
	req.Header.Set("Accept", "application/json")

	resp, err := s.Client.Do(req)
	if err != nil {
		return fmt.Errorf("catalog %s: request: %w", table, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		se := &StoreError{Status: resp.StatusCode}
		if json.Unmarshal(body, se) != nil || se.Message == "" {
			se.Message = strings.TrimSpace(string(body))
		}
		return se
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("catalog %s: decode: %w", table, err)
	}
	return nil
}

func orEmpty(in []models.CatalogMovie) []models.CatalogMovie {
	if in == nil {
		return []models.CatalogMovie{}
	}
	return in
}
