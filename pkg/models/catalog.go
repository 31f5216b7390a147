package models

import "time"

// CatalogMovie is a row of the relational catalog's `movies` table.
// Optional columns stay pointers so a NULL is distinguishable from a zero value.
type CatalogMovie struct {
	ID               string    `json:"id"`
	Title            string    `json:"title"`
	Description      *string   `json:"description"`
	PosterURL        *string   `json:"poster_url"`
	BackdropURL      *string   `json:"backdrop_url"`
	ReleaseYear      *int      `json:"release_year"`
	Rating           *float64  `json:"rating"`
	Duration         *int      `json:"duration"`
	IsTrending       bool      `json:"is_trending"`
	IsPopular        bool      `json:"is_popular"`
	IsNewRelease     bool      `json:"is_new_release"`
	CreatedAt        time.Time `json:"created_at"`
	TrailerYouTubeID *string   `json:"trailer_youtube_id"`
}

type CatalogCategory struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Slug         string `json:"slug"`
	DisplayOrder int    `json:"display_order"`
}

// CatalogMovieDetail is a movie with its categories resolved through movie_categories.
type CatalogMovieDetail struct {
	CatalogMovie
	Categories []CatalogCategory `json:"categories"`
}
