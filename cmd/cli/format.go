package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"cinefetch/internal/mapper"
	"cinefetch/internal/tmdb"
	"cinefetch/pkg/models"
)

func printJSON(w io.Writer, v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(b))
	return err
}

func isJSON() bool { return strings.EqualFold(formatFlag, "json") }

func movieLine(m models.Movie) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%10d  %s", m.ID, m.Title)
	if y := mapper.ReleaseYear(m); y > 0 {
		fmt.Fprintf(&b, " (%d)", y)
	}
	if m.VoteAverage > 0 {
		fmt.Fprintf(&b, "  %.1f/10", m.VoteAverage)
	}
	if m.Source == models.SourceSecondary && m.SourceID != "" {
		fmt.Fprintf(&b, "  [catalog %s]", m.SourceID)
	}
	return b.String()
}

func printMovies(w io.Writer, title string, movies []models.Movie) {
	fmt.Fprintf(w, "%s (%d)\n", title, len(movies))
	for _, m := range movies {
		fmt.Fprintln(w, movieLine(m))
	}
}

func printHome(w io.Writer, h *models.HomeData) {
	fmt.Fprintf(w, "source: %s\n", h.Source)
	if h.HeroMovie != nil {
		fmt.Fprintf(w, "\nfeatured: %s\n", strings.TrimSpace(movieLine(*h.HeroMovie)))
		if u := tmdb.ImageURL(h.HeroMovie.BackdropPath, tmdb.BackdropSize); u != "" {
			fmt.Fprintf(w, "  %s\n", u)
		}
	}
	fmt.Fprintln(w)
	printMovies(w, "Trending", h.Trending)
	fmt.Fprintln(w)
	printMovies(w, "Popular", h.Popular)
	fmt.Fprintln(w)
	printMovies(w, "Top rated", h.TopRated)
	fmt.Fprintln(w)
	printMovies(w, "Upcoming", h.Upcoming)
}

func printDetails(w io.Writer, d *models.MovieDetails) {
	m := d.Movie
	fmt.Fprintln(w, strings.TrimSpace(movieLine(m)))
	if m.Tagline != "" {
		fmt.Fprintf(w, "  %q\n", m.Tagline)
	}
	if len(m.Genres) > 0 {
		names := make([]string, 0, len(m.Genres))
		for _, g := range m.Genres {
			names = append(names, g.Name)
		}
		fmt.Fprintf(w, "  genres: %s\n", strings.Join(names, ", "))
	}
	if m.Runtime > 0 {
		fmt.Fprintf(w, "  runtime: %dh%02dm\n", m.Runtime/60, m.Runtime%60)
	}
	if u := tmdb.ImageURL(m.PosterPath, tmdb.PosterSize); u != "" {
		fmt.Fprintf(w, "  poster: %s\n", u)
	}
	if m.Overview != "" {
		fmt.Fprintf(w, "\n%s\n", m.Overview)
	}

	if d.Credits != nil && len(d.Credits.Cast) > 0 {
		fmt.Fprintln(w, "\nCast")
		for i, c := range d.Credits.Cast {
			if i == 8 {
				break
			}
			fmt.Fprintf(w, "  %s as %s\n", c.Name, c.Character)
		}
	}
	for _, v := range d.Videos {
		if v.Site == "YouTube" && v.Type == "Trailer" {
			fmt.Fprintf(w, "\ntrailer: https://www.youtube.com/watch?v=%s\n", v.Key)
			break
		}
	}
	if len(d.Similar) > 0 {
		fmt.Fprintln(w)
		printMovies(w, "Similar", d.Similar)
	}
	fmt.Fprintf(w, "\nsource: %s\n", d.Source)
}
