package main

import (
	"context"
	"encoding/csv"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"cinefetch/internal/catalog"
	"cinefetch/pkg/database"
	"cinefetch/pkg/models"
	"cinefetch/pkg/utils"
)

func main() {
	var (
		configPath   = flag.String("config", "", "config file (defaults to ./cinefetch.yaml when present)")
		dbPath       = flag.String("db", "", "sqlite catalog path (defaults to store.url)")
		moviesIn     = flag.String("movies", "data/movies.csv", "input CSV path for movies")
		categoriesIn = flag.String("categories", "data/categories.csv", "input CSV path for categories")
		linksIn      = flag.String("links", "data/movie_categories.csv", "input CSV path for movie/category links")
	)
	flag.Parse()

	cfg, err := utils.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	path := *dbPath
	if path == "" {
		if cfg.Store.IsREST() {
			log.Fatal("store.url points at a REST endpoint; pass -db for a local sqlite catalog")
		}
		path = cfg.Store.URL
	}
	if path == "" {
		path = "data/catalog.db"
	}

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	dbCfg := database.ConfigFromURL(path)
	if err := database.EnsureDataDir(dbCfg); err != nil {
		log.Fatalf("create data dir: %v", err)
	}
	db := database.MustOpen(dbCfg)
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		log.Fatalf("db migrate failed: %v", err)
	}

	store := catalog.NewSQLStore(db)
	imp := newImporter(store)

	if err := imp.importMovies(ctx, *moviesIn); err != nil {
		log.Fatalf("import movies failed: %v", err)
	}
	if err := imp.importCategories(ctx, *categoriesIn); err != nil {
		log.Fatalf("import categories failed: %v", err)
	}
	if err := imp.importLinks(ctx, *linksIn); err != nil {
		log.Fatalf("import links failed: %v", err)
	}

	log.Printf("imported %d movies, %d categories, %d links into %s",
		imp.movies, imp.categories, imp.links, dbCfg.Path)
}

type catalogWriter interface {
	UpsertMovie(ctx context.Context, m models.CatalogMovie) error
	UpsertCategory(ctx context.Context, c models.CatalogCategory) error
	LinkCategory(ctx context.Context, movieID, categoryID string) error
}

// importer remembers the ids it assigned so link rows may refer to movies by
// title and to categories by slug.
type importer struct {
	store       catalogWriter
	movieByName map[string]string
	catBySlug   map[string]string

	movies, categories, links int
}

func newImporter(store catalogWriter) *importer {
	return &importer{
		store:       store,
		movieByName: make(map[string]string),
		catBySlug:   make(map[string]string),
	}
}

func (imp *importer) importMovies(ctx context.Context, path string) error {
	return eachRow(path, func(header map[string]int, row []string, line int) error {
		title := valueAt(header, row, "title")
		if title == "" {
			return nil
		}
		id := valueAt(header, row, "id")
		if id == "" {
			id = uuid.NewString()
		}

		m := models.CatalogMovie{
			ID:               id,
			Title:            title,
			Description:      optString(valueAt(header, row, "description")),
			PosterURL:        optString(valueAt(header, row, "poster_url")),
			BackdropURL:      optString(valueAt(header, row, "backdrop_url")),
			TrailerYouTubeID: optString(valueAt(header, row, "trailer_youtube_id")),
			IsTrending:       parseBool(valueAt(header, row, "is_trending")),
			IsPopular:        parseBool(valueAt(header, row, "is_popular")),
			IsNewRelease:     parseBool(valueAt(header, row, "is_new_release")),
		}

		var err error
		if m.ReleaseYear, err = optInt(valueAt(header, row, "release_year")); err != nil {
			return fmt.Errorf("line %d: parse release_year: %w", line, err)
		}
		if m.Duration, err = optInt(valueAt(header, row, "duration")); err != nil {
			return fmt.Errorf("line %d: parse duration: %w", line, err)
		}
		if m.Rating, err = optFloat(valueAt(header, row, "rating")); err != nil {
			return fmt.Errorf("line %d: parse rating: %w", line, err)
		}
		if m.CreatedAt, err = parseTime(valueAt(header, row, "created_at")); err != nil {
			return fmt.Errorf("line %d: parse created_at: %w", line, err)
		}

		if err := imp.store.UpsertMovie(ctx, m); err != nil {
			return fmt.Errorf("line %d: %w", line, err)
		}
		imp.movieByName[strings.ToLower(title)] = id
		imp.movies++
		return nil
	})
}

func (imp *importer) importCategories(ctx context.Context, path string) error {
	return eachRow(path, func(header map[string]int, row []string, line int) error {
		name := valueAt(header, row, "name")
		if name == "" {
			return nil
		}
		c := models.CatalogCategory{
			ID:   valueAt(header, row, "id"),
			Name: name,
			Slug: valueAt(header, row, "slug"),
		}
		if c.ID == "" {
			c.ID = uuid.NewString()
		}
		if c.Slug == "" {
			c.Slug = slugify(name)
		}
		if raw := valueAt(header, row, "display_order"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil {
				return fmt.Errorf("line %d: parse display_order: %w", line, err)
			}
			c.DisplayOrder = n
		}

		if err := imp.store.UpsertCategory(ctx, c); err != nil {
			return fmt.Errorf("line %d: %w", line, err)
		}
		imp.catBySlug[c.Slug] = c.ID
		imp.categories++
		return nil
	})
}

func (imp *importer) importLinks(ctx context.Context, path string) error {
	return eachRow(path, func(header map[string]int, row []string, line int) error {
		movieID := valueAt(header, row, "movie_id")
		if movieID == "" {
			movieID = imp.movieByName[strings.ToLower(valueAt(header, row, "movie_title"))]
		}
		catID := valueAt(header, row, "category_id")
		if catID == "" {
			catID = imp.catBySlug[valueAt(header, row, "category_slug")]
		}
		if movieID == "" || catID == "" {
			log.Printf("[import] line %d: skipping link with unknown movie or category", line)
			return nil
		}
		if err := imp.store.LinkCategory(ctx, movieID, catID); err != nil {
			return fmt.Errorf("line %d: %w", line, err)
		}
		imp.links++
		return nil
	})
}

// eachRow calls fn for every data row. A missing file is skipped.
func eachRow(path string, fn func(header map[string]int, row []string, line int) error) error {
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		log.Printf("[import] %s not found, skipping", path)
		return nil
	}
	if err != nil {
		return err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	header, err := readHeader(r)
	if err != nil {
		return err
	}

	line := 1
	for {
		row, err := r.Read()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		line++
		if len(row) == 0 {
			continue
		}
		if err := fn(header, row, line); err != nil {
			return err
		}
	}
}

func readHeader(r *csv.Reader) (map[string]int, error) {
	row, err := r.Read()
	if err != nil {
		return nil, err
	}
	header := make(map[string]int, len(row))
	for idx, name := range row {
		header[strings.TrimSpace(strings.ToLower(name))] = idx
	}
	return header, nil
}

func valueAt(header map[string]int, row []string, key string) string {
	idx, ok := header[key]
	if !ok || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

func optString(raw string) *string {
	if raw == "" {
		return nil
	}
	return &raw
}

func optInt(raw string) (*int, error) {
	if raw == "" {
		return nil, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return nil, err
	}
	return &n, nil
}

func optFloat(raw string) (*float64, error) {
	if raw == "" {
		return nil, nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, err
	}
	return &f, nil
}

func parseBool(raw string) bool {
	switch strings.ToLower(raw) {
	case "1", "true", "t", "yes", "y":
		return true
	}
	return false
}

// parseTime accepts RFC 3339 or a bare date; empty means now.
func parseTime(raw string) (time.Time, error) {
	if raw == "" {
		return time.Now().UTC(), nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	return time.Parse(time.DateOnly, raw)
}

func slugify(name string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			dash = false
		case !dash && b.Len() > 0:
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
