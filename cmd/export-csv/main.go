package main

import (
	"context"
	"database/sql"
	"encoding/csv"
	"flag"
	"io"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"cinefetch/pkg/database"
	"cinefetch/pkg/utils"
)

// Writes the sqlite catalog back out in the layout cmd/import-csv reads, so a
// catalog can be edited as CSV and re-imported.
func main() {
	var (
		configPath    = flag.String("config", "", "config file (defaults to ./cinefetch.yaml when present)")
		dbPath        = flag.String("db", "", "sqlite catalog path (defaults to store.url)")
		moviesOut     = flag.String("movies", "data/movies.csv", "output CSV path for movies")
		categoriesOut = flag.String("categories", "data/categories.csv", "output CSV path for categories")
		linksOut      = flag.String("links", "data/movie_categories.csv", "output CSV path for movie/category links")
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

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db := database.MustOpen(database.ConfigFromURL(path))
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		log.Fatalf("db migrate failed: %v", err)
	}

	if err := exportTo(*moviesOut, func(w io.Writer) error { return exportMovies(ctx, db, w) }); err != nil {
		log.Fatalf("export movies failed: %v", err)
	}
	if err := exportTo(*categoriesOut, func(w io.Writer) error { return exportCategories(ctx, db, w) }); err != nil {
		log.Fatalf("export categories failed: %v", err)
	}
	if err := exportTo(*linksOut, func(w io.Writer) error { return exportLinks(ctx, db, w) }); err != nil {
		log.Fatalf("export links failed: %v", err)
	}

	log.Printf("exported catalog to %s, %s and %s", *moviesOut, *categoriesOut, *linksOut)
}

func exportTo(outPath string, write func(io.Writer) error) error {
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return err
	}

	f, err := os.Create(outPath)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func exportMovies(ctx context.Context, db *sql.DB, out io.Writer) error {
	w := csv.NewWriter(out)
	if err := w.Write([]string{
		"id", "title", "description", "poster_url", "backdrop_url", "release_year", "rating",
		"duration", "is_trending", "is_popular", "is_new_release", "created_at", "trailer_youtube_id",
	}); err != nil {
		return err
	}

	rows, err := db.QueryContext(ctx, `
		SELECT id, title, description, poster_url, backdrop_url, release_year, rating, duration,
		       is_trending, is_popular, is_new_release, created_at, trailer_youtube_id
		FROM movies
		ORDER BY created_at, title
	`)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			id, title                     string
			description, poster, backdrop sql.NullString
			trailer                       sql.NullString
			releaseYear, duration         sql.NullInt64
			rating                        sql.NullFloat64
			trending, popular, newRelease bool
			createdAt                     sql.NullTime
		)
		if err := rows.Scan(&id, &title, &description, &poster, &backdrop, &releaseYear, &rating, &duration,
			&trending, &popular, &newRelease, &createdAt, &trailer); err != nil {
			return err
		}

		created := ""
		if createdAt.Valid {
			created = createdAt.Time.UTC().Format(time.RFC3339)
		}

		if err := w.Write([]string{
			id,
			title,
			description.String,
			poster.String,
			backdrop.String,
			nullInt(releaseYear),
			nullFloat(rating),
			nullInt(duration),
			strconv.FormatBool(trending),
			strconv.FormatBool(popular),
			strconv.FormatBool(newRelease),
			created,
			trailer.String,
		}); err != nil {
			return err
		}
	}
	if err := rows.Err(); err != nil {
		return err
	}

	w.Flush()
	return w.Error()
}

func exportCategories(ctx context.Context, db *sql.DB, out io.Writer) error {
	w := csv.NewWriter(out)
	if err := w.Write([]string{"id", "name", "slug", "display_order"}); err != nil {
		return err
	}

	rows, err := db.QueryContext(ctx, `
		SELECT id, name, slug, display_order
		FROM categories
		ORDER BY display_order, name
	`)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			id, name, slug string
			order          int64
		)
		if err := rows.Scan(&id, &name, &slug, &order); err != nil {
			return err
		}
		if err := w.Write([]string{id, name, slug, strconv.FormatInt(order, 10)}); err != nil {
			return err
		}
	}
	if err := rows.Err(); err != nil {
		return err
	}

	w.Flush()
	return w.Error()
}

func exportLinks(ctx context.Context, db *sql.DB, out io.Writer) error {
	w := csv.NewWriter(out)
	if err := w.Write([]string{"movie_id", "category_id"}); err != nil {
		return err
	}

	rows, err := db.QueryContext(ctx, `
		SELECT movie_id, category_id
		FROM movie_categories
		ORDER BY movie_id, category_id
	`)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var movieID, categoryID string
		if err := rows.Scan(&movieID, &categoryID); err != nil {
			return err
		}
		if err := w.Write([]string{movieID, categoryID}); err != nil {
			return err
		}
	}
	if err := rows.Err(); err != nil {
		return err
	}

	w.Flush()
	return w.Error()
}

func nullInt(v sql.NullInt64) string {
	if !v.Valid {
		return ""
	}
	return strconv.FormatInt(v.Int64, 10)
}

func nullFloat(v sql.NullFloat64) string {
	if !v.Valid {
		return ""
	}
	return strconv.FormatFloat(v.Float64, 'f', -1, 64)
}
