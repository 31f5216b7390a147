package fetch

import "cinefetch/pkg/models"

// Demo lists served when both sources are down and the static fallback is on.
var staticMovies = []models.Movie{
	{
		ID:          27205,
		Title:       "Inception",
		Overview:    "Cobb, a skilled thief who commits corporate espionage by infiltrating the subconscious of his targets, is offered a chance to regain his old life.",
		ReleaseDate: "2010-07-15",
		VoteAverage: 8.4,
		GenreIDs:    []int64{28, 878, 12},
	},
	{
		ID:          157336,
		Title:       "Interstellar",
		Overview:    "The adventures of a group of explorers who make use of a newly discovered wormhole to surpass the limitations on human space travel.",
		ReleaseDate: "2014-11-05",
		VoteAverage: 8.4,
		GenreIDs:    []int64{12, 18, 878},
	},
	{
		ID:          155,
		Title:       "The Dark Knight",
		Overview:    "Batman raises the stakes in his war on crime, with the help of Lt. Jim Gordon and District Attorney Harvey Dent.",
		ReleaseDate: "2008-07-16",
		VoteAverage: 8.5,
		GenreIDs:    []int64{18, 28, 80, 53},
	},
	{
		ID:          693134,
		Title:       "Dune: Part Two",
		Overview:    "Follow the mythic journey of Paul Atreides as he unites with Chani and the Fremen while on a path of revenge.",
		ReleaseDate: "2024-02-27",
		VoteAverage: 8.2,
		GenreIDs:    []int64{878, 12},
	},
}

var staticGenres = []models.Genre{
	{ID: 28, Name: "Action"},
	{ID: 12, Name: "Adventure"},
	{ID: 80, Name: "Crime"},
	{ID: 18, Name: "Drama"},
	{ID: 878, Name: "Science Fiction"},
	{ID: 53, Name: "Thriller"},
}

func staticList() []models.Movie {
	out := make([]models.Movie, len(staticMovies))
	copy(out, staticMovies)
	for i := range out {
		out[i].Source = models.SourceStatic
	}
	return out
}

func staticHome() *models.HomeData {
	h := &models.HomeData{
		Trending: staticList(),
		Popular:  staticList(),
		TopRated: staticList(),
		Upcoming: staticList(),
		Source:   models.SourceStatic,
	}
	h.HeroMovie = heroOf(h.Trending, h.Popular)
	return h
}

// staticDetails returns the demo entry with id, or nil. Similar titles are the
// rest of the demo list.
func staticDetails(id int64) *models.MovieDetails {
	all := staticList()
	for i, m := range all {
		if m.ID != id {
			continue
		}
		similar := append(append([]models.Movie{}, all[:i]...), all[i+1:]...)
		return &models.MovieDetails{
			Movie:   m,
			Videos:  []models.Video{},
			Similar: similar,
			Source:  models.SourceStatic,
		}
	}
	return nil
}
