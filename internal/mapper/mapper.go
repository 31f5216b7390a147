// Package mapper translates catalog rows into the canonical movie shape.
//
// The translation is one-way. Missing optional columns become empty strings,
// nil pointers or zeros; a mapping never fails.
package mapper

import (
	"fmt"
	"strconv"
	"strings"

	"cinefetch/pkg/models"
)

// NumericID derives the canonical numeric id for a store-native id.
//
// Ids that already parse as base-10 integers are used as-is. Anything else is
// hashed with the 31-multiplier string hash over int32 and made non-negative.
// Collisions are possible and are not resolved.
func NumericID(raw string) int64 {
	raw = strings.TrimSpace(raw)
	if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return n
	}
	var h int32
	for _, r := range raw {
		h = h*31 + int32(r)
	}
	n := int64(h)
	if n < 0 {
		n = -n
	}
	return n
}

func ToMovie(m models.CatalogMovie) models.Movie {
	out := models.Movie{
		ID:           NumericID(m.ID),
		Title:        m.Title,
		Overview:     deref(m.Description),
		PosterPath:   nonEmpty(m.PosterURL),
		BackdropPath: nonEmpty(m.BackdropURL),
		Source:       models.SourceSecondary,
		SourceID:     m.ID,
	}
	if m.ReleaseYear != nil && *m.ReleaseYear > 0 {
		out.ReleaseDate = fmt.Sprintf("%04d-01-01", *m.ReleaseYear)
	}
	if m.Rating != nil {
		out.VoteAverage = clampRating(*m.Rating)
	}
	if m.Duration != nil && *m.Duration > 0 {
		out.Runtime = *m.Duration
	}
	return out
}

func ToMovies(rows []models.CatalogMovie) []models.Movie {
	out := make([]models.Movie, 0, len(rows))
	for _, r := range rows {
		out = append(out, ToMovie(r))
	}
	return out
}

// ToDetail maps a movie together with its categories, which become genres.
func ToDetail(d models.CatalogMovieDetail) models.Movie {
	out := ToMovie(d.CatalogMovie)
	out.Genres = ToGenres(d.Categories)
	if len(out.Genres) > 0 {
		out.GenreIDs = make([]int64, 0, len(out.Genres))
		for _, g := range out.Genres {
			out.GenreIDs = append(out.GenreIDs, g.ID)
		}
	}
	return out
}

// ToGenres passes category names through and derives ids with NumericID.
func ToGenres(cats []models.CatalogCategory) []models.Genre {
	out := make([]models.Genre, 0, len(cats))
	for _, c := range cats {
		out = append(out, models.Genre{ID: NumericID(c.ID), Name: c.Name})
	}
	return out
}

// TrailerVideos turns the catalog's single trailer column into a video list.
func TrailerVideos(m models.CatalogMovie) []models.Video {
	key := strings.TrimSpace(deref(m.TrailerYouTubeID))
	if key == "" {
		return []models.Video{}
	}
	return []models.Video{{
		ID:       m.ID + ":trailer",
		Key:      key,
		Name:     m.Title + " Trailer",
		Site:     "YouTube",
		Type:     "Trailer",
		Official: true,
	}}
}

// ReleaseYear reads the year back out of a canonical release date; 0 when unknown.
func ReleaseYear(m models.Movie) int {
	if len(m.ReleaseDate) < 4 {
		return 0
	}
	y, err := strconv.Atoi(m.ReleaseDate[:4])
	if err != nil {
		return 0
	}
	return y
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func nonEmpty(s *string) *string {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil
	}
	v := strings.TrimSpace(*s)
	return &v
}

func clampRating(r float64) float64 {
	switch {
	case r < 0:
		return 0
	case r > 10:
		return 10
	default:
		return r
	}
}
