// Package tmdb is the client for the primary content service.
//
// It only talks to the service: every failure is returned to the caller and
// no fallback happens here.
package tmdb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"
	"golang.org/x/time/rate"

	"cinefetch/pkg/models"
)

const (
	DefaultBaseURL       = "https://api.themoviedb.org/3"
	DefaultLanguage      = "en-US"
	DefaultTimeout       = 5000 * time.Millisecond
	DefaultRatePerSecond = 40
	DefaultRetries       = 1

	retryDelay = 100 * time.Millisecond
)

// Op names an operation of the content service.
type Op string

const (
	OpTrending Op = "trending"
	OpPopular  Op = "popular"
	OpTopRated Op = "top-rated"
	OpUpcoming Op = "upcoming"
	OpDetails  Op = "details"
	OpCredits  Op = "credits"
	OpVideos   Op = "videos"
	OpSimilar  Op = "similar"
	OpSearch   Op = "search"
	OpGenres   Op = "genres"
	OpDiscover Op = "discover"
)

// Params carries the per-operation inputs. Zero values are omitted.
type Params struct {
	Page    int
	ID      int64
	Query   string
	GenreID int64
}

type Config struct {
	APIKey        string
	BaseURL       string
	Language      string
	Timeout       time.Duration
	RatePerSecond float64
	Burst         int
	// Retries is the number of extra attempts after a transport failure.
	// All attempts share the single Timeout.
	Retries int
}

type Client struct {
	cfg     Config
	httpc   *http.Client
	limiter *rate.Limiter
}

func New(cfg Config, httpc *http.Client) *Client {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if strings.TrimSpace(cfg.Language) == "" {
		cfg.Language = DefaultLanguage
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.RatePerSecond <= 0 {
		cfg.RatePerSecond = DefaultRatePerSecond
	}
	if cfg.Burst <= 0 {
		cfg.Burst = int(cfg.RatePerSecond)
		if cfg.Burst < 1 {
			cfg.Burst = 1
		}
	}
	if cfg.Retries < 0 {
		cfg.Retries = 0
	}
	if httpc == nil {
		httpc = &http.Client{}
	}
	return &Client{
		cfg:     cfg,
		httpc:   httpc,
		limiter: rate.NewLimiter(rate.Limit(cfg.RatePerSecond), cfg.Burst),
	}
}

// Do issues op and decodes the JSON payload into out.
func (c *Client) Do(ctx context.Context, op Op, p Params, out any) error {
	endpoint, err := c.endpoint(op, p)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	err = retry.Do(
		func() error {
			if err := c.limiter.Wait(ctx); err != nil {
				return fmt.Errorf("tmdb %s: rate limit: %w", op, err)
			}
			return c.get(ctx, op, endpoint, out)
		},
		retry.Context(ctx),
		retry.Attempts(uint(c.cfg.Retries)+1),
		retry.Delay(retryDelay),
		retry.DelayType(retry.FixedDelay),
		retry.LastErrorOnly(true),
		retry.RetryIf(isTransient),
	)
	if err != nil {
		log.Printf("[tmdb] %s failed: %v", op, err)
		return err
	}
	return nil
}

func (c *Client) get(ctx context.Context, op Op, endpoint string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("tmdb %s: build request: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	if isBearerToken(c.cfg.APIKey) {
		req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("tmdb %s: request: %w", op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		se := &StatusError{Op: op, StatusCode: resp.StatusCode}
		var eb errorBody
		if json.Unmarshal(body, &eb) == nil && eb.StatusMessage != "" {
			se.Message = eb.StatusMessage
		} else {
			se.Message = strings.TrimSpace(string(body))
		}
		return se
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrDecode, op, err)
	}
	return nil
}

func (c *Client) endpoint(op Op, p Params) (string, error) {
	var path string
	paged := false
	switch op {
	case OpTrending:
		path, paged = "/trending/movie/week", true
	case OpPopular:
		path, paged = "/movie/popular", true
	case OpTopRated:
		path, paged = "/movie/top_rated", true
	case OpUpcoming:
		path, paged = "/movie/upcoming", true
	case OpDetails, OpCredits, OpVideos, OpSimilar:
		if p.ID <= 0 {
			return "", fmt.Errorf("tmdb %s: id required", op)
		}
		path = "/movie/" + strconv.FormatInt(p.ID, 10)
		switch op {
		case OpCredits:
			path += "/credits"
		case OpVideos:
			path += "/videos"
		case OpSimilar:
			path += "/similar"
			paged = true
		}
	case OpSearch:
		if strings.TrimSpace(p.Query) == "" {
			return "", fmt.Errorf("tmdb %s: query required", op)
		}
		path, paged = "/search/movie", true
	case OpGenres:
		path = "/genre/movie/list"
	case OpDiscover:
		path, paged = "/discover/movie", true
	default:
		return "", fmt.Errorf("tmdb: unknown operation %q", op)
	}

	u, err := url.Parse(c.cfg.BaseURL + path)
	if err != nil {
		return "", fmt.Errorf("tmdb %s: base url: %w", op, err)
	}
	q := u.Query()
	if c.cfg.APIKey != "" && !isBearerToken(c.cfg.APIKey) {
		q.Set("api_key", c.cfg.APIKey)
	}
	q.Set("language", c.cfg.Language)
	if paged {
		page := p.Page
		if page < 1 {
			page = 1
		}
		q.Set("page", strconv.Itoa(page))
	}
	if op == OpSearch {
		q.Set("query", strings.TrimSpace(p.Query))
		q.Set("include_adult", "false")
	}
	if op == OpDiscover && p.GenreID > 0 {
		q.Set("with_genres", strconv.FormatInt(p.GenreID, 10))
		q.Set("sort_by", "popularity.desc")
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func (c *Client) list(ctx context.Context, op Op, p Params) (*models.MoviePage, error) {
	var page models.MoviePage
	if err := c.Do(ctx, op, p, &page); err != nil {
		return nil, err
	}
	if page.Results == nil {
		page.Results = []models.Movie{}
	}
	tag(page.Results)
	return &page, nil
}

func (c *Client) Trending(ctx context.Context, page int) (*models.MoviePage, error) {
	return c.list(ctx, OpTrending, Params{Page: page})
}

func (c *Client) Popular(ctx context.Context, page int) (*models.MoviePage, error) {
	return c.list(ctx, OpPopular, Params{Page: page})
}

func (c *Client) TopRated(ctx context.Context, page int) (*models.MoviePage, error) {
	return c.list(ctx, OpTopRated, Params{Page: page})
}

func (c *Client) Upcoming(ctx context.Context, page int) (*models.MoviePage, error) {
	return c.list(ctx, OpUpcoming, Params{Page: page})
}

func (c *Client) Similar(ctx context.Context, id int64, page int) (*models.MoviePage, error) {
	return c.list(ctx, OpSimilar, Params{ID: id, Page: page})
}

func (c *Client) Search(ctx context.Context, query string, page int) (*models.MoviePage, error) {
	return c.list(ctx, OpSearch, Params{Query: query, Page: page})
}

func (c *Client) Discover(ctx context.Context, genreID int64, page int) (*models.MoviePage, error) {
	return c.list(ctx, OpDiscover, Params{GenreID: genreID, Page: page})
}

func (c *Client) Details(ctx context.Context, id int64) (*models.Movie, error) {
	var m models.Movie
	if err := c.Do(ctx, OpDetails, Params{ID: id}, &m); err != nil {
		return nil, err
	}
	m.Source = models.SourcePrimary
	if len(m.GenreIDs) == 0 {
		for _, g := range m.Genres {
			m.GenreIDs = append(m.GenreIDs, g.ID)
		}
	}
	return &m, nil
}

func (c *Client) Credits(ctx context.Context, id int64) (*models.Credits, error) {
	var cr models.Credits
	if err := c.Do(ctx, OpCredits, Params{ID: id}, &cr); err != nil {
		return nil, err
	}
	return &cr, nil
}

func (c *Client) Videos(ctx context.Context, id int64) ([]models.Video, error) {
	var vl models.VideoList
	if err := c.Do(ctx, OpVideos, Params{ID: id}, &vl); err != nil {
		return nil, err
	}
	if vl.Results == nil {
		return []models.Video{}, nil
	}
	return vl.Results, nil
}

func (c *Client) Genres(ctx context.Context) ([]models.Genre, error) {
	var gl models.GenreList
	if err := c.Do(ctx, OpGenres, Params{}, &gl); err != nil {
		return nil, err
	}
	if gl.Genres == nil {
		return []models.Genre{}, nil
	}
	return gl.Genres, nil
}

func tag(movies []models.Movie) {
	for i := range movies {
		movies[i].Source = models.SourcePrimary
	}
}

// isTransient limits retries to transport failures. Status errors, bad payloads
// and an expired deadline are final.
func isTransient(err error) bool {
	if err == nil {
		return false
	}
	var se *StatusError
	if errors.As(err, &se) {
		return false
	}
	if errors.Is(err, ErrDecode) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	return true
}

// v4 read-access tokens are JWTs and go in the Authorization header instead of api_key.
func isBearerToken(key string) bool {
	return strings.HasPrefix(key, "eyJ") && strings.Count(key, ".") == 2
}
