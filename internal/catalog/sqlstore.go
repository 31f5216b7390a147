package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"cinefetch/pkg/models"
)

const movieColumns = `id, title, description, poster_url, backdrop_url, release_year, rating,
		duration, is_trending, is_popular, is_new_release, created_at, trailer_youtube_id`

// SQLStore reads the catalog from a database/sql handle (sqlite in practice).
type SQLStore struct {
	DB *sql.DB
}

func NewSQLStore(db *sql.DB) *SQLStore {
	return &SQLStore{DB: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMovie(s rowScanner) (models.CatalogMovie, error) {
	var (
		m           models.CatalogMovie
		description sql.NullString
		posterURL   sql.NullString
		backdropURL sql.NullString
		releaseYear sql.NullInt64
		rating      sql.NullFloat64
		duration    sql.NullInt64
		createdAt   sql.NullTime
		trailerID   sql.NullString
	)
	if err := s.Scan(
		&m.ID, &m.Title, &description, &posterURL, &backdropURL, &releaseYear, &rating,
		&duration, &m.IsTrending, &m.IsPopular, &m.IsNewRelease, &createdAt, &trailerID,
	); err != nil {
		return models.CatalogMovie{}, err
	}

	m.Description = nullStr(description)
	m.PosterURL = nullStr(posterURL)
	m.BackdropURL = nullStr(backdropURL)
	m.TrailerYouTubeID = nullStr(trailerID)
	if releaseYear.Valid {
		y := int(releaseYear.Int64)
		m.ReleaseYear = &y
	}
	if rating.Valid {
		r := rating.Float64
		m.Rating = &r
	}
	if duration.Valid {
		d := int(duration.Int64)
		m.Duration = &d
	}
	if createdAt.Valid {
		m.CreatedAt = createdAt.Time
	}
	return m, nil
}

func (s *SQLStore) queryMovies(ctx context.Context, query string, args ...any) ([]models.CatalogMovie, error) {
	rows, err := s.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query movies: %w", err)
	}
	defer rows.Close()

	out := make([]models.CatalogMovie, 0)
	for rows.Next() {
		m, err := scanMovie(rows)
		if err != nil {
			return nil, fmt.Errorf("scan movie: %w", err)
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows err: %w", err)
	}
	return out, nil
}

func (s *SQLStore) ListMovies(ctx context.Context, f Filter) ([]models.CatalogMovie, error) {
	sqlStr, args := buildListSQL(f)
	return s.queryMovies(ctx, sqlStr, args...)
}

// buildListSQL turns a Filter into a SELECT over movies. The order column is
// whitelisted by Filter.orderColumn.
func buildListSQL(f Filter) (string, []any) {
	var where []string
	var args []any

	if f.Trending != nil {
		where = append(where, "is_trending = ?")
		args = append(args, *f.Trending)
	}
	if f.Popular != nil {
		where = append(where, "is_popular = ?")
		args = append(args, *f.Popular)
	}
	if f.NewRelease != nil {
		where = append(where, "is_new_release = ?")
		args = append(args, *f.NewRelease)
	}
	if id := strings.TrimSpace(f.ExcludeID); id != "" {
		where = append(where, "id <> ?")
		args = append(args, id)
	}

	sqlStr := "SELECT " + movieColumns + " FROM movies"
	if len(where) > 0 {
		sqlStr += " WHERE " + strings.Join(where, " AND ")
	}

	dir := "ASC"
	if f.Desc {
		dir = "DESC"
	}
	sqlStr += " ORDER BY " + f.orderColumn() + " " + dir + " NULLS LAST, title ASC"
	sqlStr += " LIMIT ?"
	args = append(args, f.limit())

	return sqlStr, args
}

func (s *SQLStore) GetMovie(ctx context.Context, id string) (*models.CatalogMovieDetail, error) {
	row := s.DB.QueryRowContext(ctx, "SELECT "+movieColumns+" FROM movies WHERE id = ?", id)
	m, err := scanMovie(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("scan getMovie: %w", err)
	}

	rows, err := s.DB.QueryContext(ctx, `
		SELECT c.id, c.name, c.slug, c.display_order
		FROM categories c
		JOIN movie_categories mc ON mc.category_id = c.id
		WHERE mc.movie_id = ?
		ORDER BY c.display_order ASC, c.name ASC
	`, id)
	if err != nil {
		return nil, fmt.Errorf("query movie categories: %w", err)
	}
	defer rows.Close()

	cats, err := scanCategories(rows)
	if err != nil {
		return nil, err
	}
	return &models.CatalogMovieDetail{CatalogMovie: m, Categories: cats}, nil
}

func (s *SQLStore) SearchMovies(ctx context.Context, q string, limit int) ([]models.CatalogMovie, error) {
	kw := "%" + escapeLike(strings.ToLower(strings.TrimSpace(q))) + "%"
	return s.queryMovies(ctx, "SELECT "+movieColumns+` FROM movies
		WHERE LOWER(title) LIKE ? ESCAPE '\'
		ORDER BY rating DESC NULLS LAST, title ASC
		LIMIT ?`, kw, clampLimit(limit))
}

func (s *SQLStore) ListCategories(ctx context.Context) ([]models.CatalogCategory, error) {
	rows, err := s.DB.QueryContext(ctx, `
		SELECT id, name, slug, display_order
		FROM categories
		ORDER BY display_order ASC, name ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query categories: %w", err)
	}
	defer rows.Close()
	return scanCategories(rows)
}

func (s *SQLStore) ListByCategory(ctx context.Context, categoryID string, limit int) ([]models.CatalogMovie, error) {
	return s.queryMovies(ctx, `
		SELECT m.id, m.title, m.description, m.poster_url, m.backdrop_url, m.release_year, m.rating,
		       m.duration, m.is_trending, m.is_popular, m.is_new_release, m.created_at, m.trailer_youtube_id
		FROM movies m
		JOIN movie_categories mc ON mc.movie_id = m.id
		WHERE mc.category_id = ?
		ORDER BY m.rating DESC NULLS LAST, m.title ASC
		LIMIT ?
	`, categoryID, clampLimit(limit))
}

func scanCategories(rows *sql.Rows) ([]models.CatalogCategory, error) {
	out := make([]models.CatalogCategory, 0)
	for rows.Next() {
		var (
			c     models.CatalogCategory
			slug  sql.NullString
			order sql.NullInt64
		)
		if err := rows.Scan(&c.ID, &c.Name, &slug, &order); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		c.Slug = slug.String
		c.DisplayOrder = int(order.Int64)
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows err: %w", err)
	}
	return out, nil
}

// UpsertMovie, UpsertCategory and LinkCategory are used by the offline
// importer only; the served application never writes.
func (s *SQLStore) UpsertMovie(ctx context.Context, m models.CatalogMovie) error {
	createdAt := m.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	_, err := s.DB.ExecContext(ctx, `
		INSERT INTO movies (id, title, description, poster_url, backdrop_url, release_year, rating,
		                    duration, is_trending, is_popular, is_new_release, created_at, trailer_youtube_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
		  title = excluded.title,
		  description = excluded.description,
		  poster_url = excluded.poster_url,
		  backdrop_url = excluded.backdrop_url,
		  release_year = excluded.release_year,
		  rating = excluded.rating,
		  duration = excluded.duration,
		  is_trending = excluded.is_trending,
		  is_popular = excluded.is_popular,
		  is_new_release = excluded.is_new_release,
		  trailer_youtube_id = excluded.trailer_youtube_id
	`, m.ID, m.Title, m.Description, m.PosterURL, m.BackdropURL, m.ReleaseYear, m.Rating,
		m.Duration, m.IsTrending, m.IsPopular, m.IsNewRelease, createdAt, m.TrailerYouTubeID)
	if err != nil {
		return fmt.Errorf("upsert movie %s: %w", m.ID, err)
	}
	return nil
}

func (s *SQLStore) UpsertCategory(ctx context.Context, c models.CatalogCategory) error {
	_, err := s.DB.ExecContext(ctx, `
		INSERT INTO categories (id, name, slug, display_order)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
		  name = excluded.name,
		  slug = excluded.slug,
		  display_order = excluded.display_order
	`, c.ID, c.Name, c.Slug, c.DisplayOrder)
	if err != nil {
		return fmt.Errorf("upsert category %s: %w", c.ID, err)
	}
	return nil
}

func (s *SQLStore) LinkCategory(ctx context.Context, movieID, categoryID string) error {
	_, err := s.DB.ExecContext(ctx, `
		INSERT INTO movie_categories (movie_id, category_id)
		VALUES (?, ?)
		ON CONFLICT(movie_id, category_id) DO NOTHING
	`, movieID, categoryID)
	if err != nil {
		return fmt.Errorf("link %s -> %s: %w", movieID, categoryID, err)
	}
	return nil
}

func nullStr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	v := ns.String
	return &v
}
