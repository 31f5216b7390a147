// Package fetch composes the primary content service and the secondary catalog
// into the canonical movie shapes the screens render.
//
// Every operation tries the primary source first. When it fails as a whole the
// secondary catalog answers instead, mapped through package mapper, and when
// that is unavailable too the optional static lists are served. Results are
// never assembled from more than one source.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"

	"github.com/sourcegraph/conc/pool"

	"cinefetch/internal/catalog"
	"cinefetch/internal/mapper"
	"cinefetch/internal/tmdb"
	"cinefetch/pkg/models"
)

// Primary is the content service surface used here; *tmdb.Client implements it.
type Primary interface {
	Trending(ctx context.Context, page int) (*models.MoviePage, error)
	Popular(ctx context.Context, page int) (*models.MoviePage, error)
	TopRated(ctx context.Context, page int) (*models.MoviePage, error)
	Upcoming(ctx context.Context, page int) (*models.MoviePage, error)
	Details(ctx context.Context, id int64) (*models.Movie, error)
	Credits(ctx context.Context, id int64) (*models.Credits, error)
	Videos(ctx context.Context, id int64) ([]models.Video, error)
	Similar(ctx context.Context, id int64, page int) (*models.MoviePage, error)
	Search(ctx context.Context, query string, page int) (*models.MoviePage, error)
	Genres(ctx context.Context) ([]models.Genre, error)
	Discover(ctx context.Context, genreID int64, page int) (*models.MoviePage, error)
}

// Secondary is the never-failing catalog surface; *catalog.Client implements it.
// List calls here pass a nil fallback, so a nil slice means the call failed.
// Movie returns nil for an absent row and the fallback on failure.
type Secondary interface {
	Configured() bool
	Movies(ctx context.Context, f catalog.Filter, fallback []models.CatalogMovie) []models.CatalogMovie
	Movie(ctx context.Context, id string, fallback *models.CatalogMovieDetail) *models.CatalogMovieDetail
	Search(ctx context.Context, q string, limit int, fallback []models.CatalogMovie) []models.CatalogMovie
	Categories(ctx context.Context, fallback []models.CatalogCategory) []models.CatalogCategory
	ByCategory(ctx context.Context, categoryID string, limit int, fallback []models.CatalogMovie) []models.CatalogMovie
}

// ListKind names one of the four home lists.
type ListKind string

const (
	ListTrending ListKind = "trending"
	ListPopular  ListKind = "popular"
	ListTopRated ListKind = "top-rated"
	ListUpcoming ListKind = "upcoming"
)

func ParseListKind(s string) (ListKind, error) {
	switch ListKind(strings.ToLower(strings.TrimSpace(s))) {
	case ListTrending:
		return ListTrending, nil
	case ListPopular:
		return ListPopular, nil
	case ListTopRated, "top_rated", "toprated":
		return ListTopRated, nil
	case ListUpcoming, "new", "new-releases":
		return ListUpcoming, nil
	default:
		return "", fmt.Errorf("%w: unknown list %q", ErrInvalidInput, s)
	}
}

type Options struct {
	// StaticFallback serves the built-in demo lists when both sources fail.
	StaticFallback bool
	// ListLimit bounds catalog list queries.
	ListLimit int
	// SimilarLimit bounds the catalog "similar" list on the details screen.
	SimilarLimit int
}

type Service struct {
	primary   Primary
	secondary Secondary
	opts      Options
}

func NewService(primary Primary, secondary Secondary, opts Options) *Service {
	if opts.ListLimit <= 0 {
		opts.ListLimit = catalog.DefaultLimit
	}
	if opts.SimilarLimit <= 0 {
		opts.SimilarLimit = 10
	}
	return &Service{primary: primary, secondary: secondary, opts: opts}
}

// Home builds the home aggregate. The four primary lists are requested
// concurrently; if any of them fails the whole batch is discarded and the
// catalog's aggregate is used instead.
func (s *Service) Home(ctx context.Context) (*models.HomeData, error) {
	home, err := s.primaryHome(ctx)
	if err == nil {
		return home, nil
	}
	log.Printf("[fetch] home: primary failed, using catalog: %v", err)

	if home := s.secondaryHome(ctx); home != nil {
		return home, nil
	}
	if s.opts.StaticFallback {
		log.Printf("[fetch] home: catalog unavailable, serving static lists")
		return staticHome(), nil
	}
	return nil, fmt.Errorf("%w: home: %v", ErrUnavailable, err)
}

func (s *Service) primaryHome(ctx context.Context) (*models.HomeData, error) {
	var trending, popular, topRated, upcoming *models.MoviePage

	p := pool.New().WithErrors().WithContext(ctx).WithCancelOnError()
	p.Go(func(ctx context.Context) (err error) {
		trending, err = s.primary.Trending(ctx, 1)
		return err
	})
	p.Go(func(ctx context.Context) (err error) {
		popular, err = s.primary.Popular(ctx, 1)
		return err
	})
	p.Go(func(ctx context.Context) (err error) {
		topRated, err = s.primary.TopRated(ctx, 1)
		return err
	})
	p.Go(func(ctx context.Context) (err error) {
		upcoming, err = s.primary.Upcoming(ctx, 1)
		return err
	})
	if err := p.Wait(); err != nil {
		return nil, err
	}

	h := &models.HomeData{
		Trending: results(trending),
		Popular:  results(popular),
		TopRated: results(topRated),
		Upcoming: results(upcoming),
		Source:   models.SourcePrimary,
	}
	h.HeroMovie = heroOf(h.Trending, h.Popular)
	return h, nil
}

// secondaryHome returns nil when the catalog cannot stand in: it is not
// configured or every list query failed.
func (s *Service) secondaryHome(ctx context.Context) *models.HomeData {
	if !s.secondary.Configured() {
		return nil
	}

	filters := [4]catalog.Filter{
		catalog.TrendingFilter(),
		catalog.PopularFilter(),
		catalog.TopRatedFilter(),
		catalog.NewReleaseFilter(),
	}
	var rows [4][]models.CatalogMovie

	p := pool.New()
	for i := range filters {
		f := filters[i]
		f.Limit = s.opts.ListLimit
		p.Go(func() {
			rows[i] = s.secondary.Movies(ctx, f, nil)
		})
	}
	p.Wait()

	failed := 0
	for _, r := range rows {
		if r == nil {
			failed++
		}
	}
	if failed == len(rows) {
		return nil
	}

	h := &models.HomeData{
		Trending: mapper.ToMovies(rows[0]),
		Popular:  mapper.ToMovies(rows[1]),
		TopRated: mapper.ToMovies(rows[2]),
		Upcoming: mapper.ToMovies(rows[3]),
		Source:   models.SourceSecondary,
	}
	h.HeroMovie = heroOf(h.Trending, h.Popular)
	return h
}

// List returns one page of a home list.
func (s *Service) List(ctx context.Context, kind ListKind, page int) (*models.MoviePage, error) {
	if page < 1 {
		page = 1
	}

	var (
		fetch  func(context.Context, int) (*models.MoviePage, error)
		filter catalog.Filter
	)
	switch kind {
	case ListTrending:
		fetch, filter = s.primary.Trending, catalog.TrendingFilter()
	case ListPopular:
		fetch, filter = s.primary.Popular, catalog.PopularFilter()
	case ListTopRated:
		fetch, filter = s.primary.TopRated, catalog.TopRatedFilter()
	case ListUpcoming:
		fetch, filter = s.primary.Upcoming, catalog.NewReleaseFilter()
	default:
		return nil, fmt.Errorf("%w: unknown list %q", ErrInvalidInput, kind)
	}

	res, err := fetch(ctx, page)
	if err == nil {
		return res, nil
	}
	log.Printf("[fetch] %s: primary failed, using catalog: %v", kind, err)

	if s.secondary.Configured() {
		filter.Limit = s.opts.ListLimit
		if rows := s.secondary.Movies(ctx, filter, nil); rows != nil {
			return catalogPage(mapper.ToMovies(rows), page), nil
		}
	}
	if s.opts.StaticFallback {
		return catalogPage(staticList(), page), nil
	}
	return nil, fmt.Errorf("%w: %s: %v", ErrUnavailable, kind, err)
}

// Details resolves a movie with credits, videos and similar titles. Refs
// that point at the catalog skip the primary source.
func (s *Service) Details(ctx context.Context, ref models.MovieRef) (*models.MovieDetails, error) {
	ref.SourceID = strings.TrimSpace(ref.SourceID)
	if ref.Source == models.SourceSecondary && ref.SourceID != "" {
		return s.secondaryDetails(ctx, ref, nil)
	}
	if ref.ID <= 0 {
		return nil, fmt.Errorf("%w: movie id must be positive", ErrInvalidInput)
	}

	d, err := s.primaryDetails(ctx, ref.ID)
	if err == nil {
		return d, nil
	}
	log.Printf("[fetch] details %d: primary failed, using catalog: %v", ref.ID, err)
	d, err = s.secondaryDetails(ctx, ref, err)
	if err == nil {
		return d, nil
	}
	if s.opts.StaticFallback && (ref.Source == models.SourceStatic || errors.Is(err, ErrUnavailable)) {
		if sd := staticDetails(ref.ID); sd != nil {
			log.Printf("[fetch] details %d: serving static entry", ref.ID)
			return sd, nil
		}
	}
	return nil, err
}

func (s *Service) primaryDetails(ctx context.Context, id int64) (*models.MovieDetails, error) {
	var (
		movie   *models.Movie
		credits *models.Credits
		videos  []models.Video
		similar *models.MoviePage
	)

	p := pool.New().WithErrors().WithContext(ctx).WithCancelOnError()
	p.Go(func(ctx context.Context) (err error) {
		movie, err = s.primary.Details(ctx, id)
		return err
	})
	p.Go(func(ctx context.Context) (err error) {
		credits, err = s.primary.Credits(ctx, id)
		return err
	})
	p.Go(func(ctx context.Context) (err error) {
		videos, err = s.primary.Videos(ctx, id)
		return err
	})
	p.Go(func(ctx context.Context) (err error) {
		similar, err = s.primary.Similar(ctx, id, 1)
		return err
	})
	if err := p.Wait(); err != nil {
		return nil, err
	}
	if movie == nil {
		return nil, fmt.Errorf("details %d: empty payload", id)
	}
	if videos == nil {
		videos = []models.Video{}
	}

	return &models.MovieDetails{
		Movie:   *movie,
		Credits: credits,
		Videos:  videos,
		Similar: results(similar),
		Source:  models.SourcePrimary,
	}, nil
}

// catalogFailed is the fallback handed to Secondary.Movie; getting it back
// means the lookup failed rather than found nothing.
var catalogFailed = &models.CatalogMovieDetail{}

func (s *Service) secondaryDetails(ctx context.Context, ref models.MovieRef, primaryErr error) (*models.MovieDetails, error) {
	if !s.secondary.Configured() {
		if primaryErr != nil && tmdb.IsNotFound(primaryErr) {
			return nil, fmt.Errorf("%w: %d", ErrNotFound, ref.ID)
		}
		return nil, fmt.Errorf("%w: details: %v", ErrUnavailable, primaryErr)
	}

	id := ref.SourceID
	if id == "" {
		id = strconv.FormatInt(ref.ID, 10)
	}
	row := s.secondary.Movie(ctx, id, catalogFailed)
	if row == catalogFailed {
		if primaryErr != nil && tmdb.IsNotFound(primaryErr) {
			return nil, fmt.Errorf("%w: %d", ErrNotFound, ref.ID)
		}
		return nil, fmt.Errorf("%w: catalog lookup %s failed", ErrUnavailable, id)
	}
	if row == nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	var similarRows []models.CatalogMovie
	if len(row.Categories) > 0 {
		similarRows = s.secondary.ByCategory(ctx, row.Categories[0].ID, s.opts.SimilarLimit+1, nil)
	} else {
		f := catalog.TopRatedFilter()
		f.ExcludeID = row.ID
		f.Limit = s.opts.SimilarLimit
		similarRows = s.secondary.Movies(ctx, f, nil)
	}
	similar := make([]models.Movie, 0, len(similarRows))
	for _, r := range similarRows {
		if r.ID == row.ID || len(similar) >= s.opts.SimilarLimit {
			continue
		}
		similar = append(similar, mapper.ToMovie(r))
	}

	return &models.MovieDetails{
		Movie:   mapper.ToDetail(*row),
		Videos:  mapper.TrailerVideos(row.CatalogMovie),
		Similar: similar,
		Source:  models.SourceSecondary,
	}, nil
}

// Search runs a title search. Blank queries return an empty page without
// calling either source.
func (s *Service) Search(ctx context.Context, query string, page int) (*models.MoviePage, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return emptyPage(), nil
	}
	if page < 1 {
		page = 1
	}

	res, err := s.primary.Search(ctx, query, page)
	if err == nil {
		return res, nil
	}
	log.Printf("[fetch] search %q: primary failed, using catalog: %v", query, err)

	if s.secondary.Configured() {
		if rows := s.secondary.Search(ctx, query, s.opts.ListLimit, nil); rows != nil {
			return catalogPage(mapper.ToMovies(rows), page), nil
		}
	}
	if s.opts.StaticFallback {
		return catalogPage(filterStatic(func(m models.Movie) bool {
			return strings.Contains(strings.ToLower(m.Title), strings.ToLower(query))
		}), page), nil
	}
	return nil, fmt.Errorf("%w: search: %v", ErrUnavailable, err)
}

func (s *Service) Genres(ctx context.Context) ([]models.Genre, error) {
	genres, err := s.primary.Genres(ctx)
	if err == nil {
		return genres, nil
	}
	log.Printf("[fetch] genres: primary failed, using catalog: %v", err)

	if s.secondary.Configured() {
		if cats := s.secondary.Categories(ctx, nil); cats != nil {
			return mapper.ToGenres(cats), nil
		}
	}
	if s.opts.StaticFallback {
		out := make([]models.Genre, len(staticGenres))
		copy(out, staticGenres)
		return out, nil
	}
	return nil, fmt.Errorf("%w: genres: %v", ErrUnavailable, err)
}

// ByGenre lists movies of one genre. On fallback the genre id is matched
// against the ids derived from catalog category ids.
func (s *Service) ByGenre(ctx context.Context, genreID int64, page int) (*models.MoviePage, error) {
	if genreID <= 0 {
		return nil, fmt.Errorf("%w: genre id must be positive", ErrInvalidInput)
	}
	if page < 1 {
		page = 1
	}

	res, err := s.primary.Discover(ctx, genreID, page)
	if err == nil {
		return res, nil
	}
	log.Printf("[fetch] genre %d: primary failed, using catalog: %v", genreID, err)

	if s.secondary.Configured() {
		if cats := s.secondary.Categories(ctx, nil); cats != nil {
			for _, c := range cats {
				if mapper.NumericID(c.ID) != genreID {
					continue
				}
				if rows := s.secondary.ByCategory(ctx, c.ID, s.opts.ListLimit, nil); rows != nil {
					return catalogPage(mapper.ToMovies(rows), page), nil
				}
				break
			}
			if !s.opts.StaticFallback {
				return catalogPage([]models.Movie{}, page), nil
			}
		}
	}
	if s.opts.StaticFallback {
		return catalogPage(filterStatic(func(m models.Movie) bool {
			for _, g := range m.GenreIDs {
				if g == genreID {
					return true
				}
			}
			return false
		}), page), nil
	}
	return nil, fmt.Errorf("%w: genre %d: %v", ErrUnavailable, genreID, err)
}

func heroOf(trending, popular []models.Movie) *models.Movie {
	switch {
	case len(trending) > 0:
		m := trending[0]
		return &m
	case len(popular) > 0:
		m := popular[0]
		return &m
	default:
		return nil
	}
}

func results(p *models.MoviePage) []models.Movie {
	if p == nil || p.Results == nil {
		return []models.Movie{}
	}
	return p.Results
}

// catalogPage wraps an unpaged result in the paging envelope. Everything is
// on page 1; later pages are empty.
func catalogPage(movies []models.Movie, page int) *models.MoviePage {
	out := &models.MoviePage{Page: page, TotalPages: 1, TotalResults: len(movies), Results: []models.Movie{}}
	if page == 1 {
		out.Results = movies
	}
	return out
}

func emptyPage() *models.MoviePage {
	return &models.MoviePage{Page: 1, Results: []models.Movie{}}
}

func filterStatic(keep func(models.Movie) bool) []models.Movie {
	out := make([]models.Movie, 0)
	for _, m := range staticList() {
		if keep(m) {
			out = append(out, m)
		}
	}
	return out
}
