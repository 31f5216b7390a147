package models

// Source tags where a record came from. Only detail navigation needs it;
// everything else treats movies as one canonical shape.
type Source string

const (
	SourcePrimary   Source = "primary"
	SourceSecondary Source = "secondary"
	SourceStatic    Source = "static"
)

// Movie is the canonical, primary-shaped record every screen renders.
// Catalog rows are mapped into this structure before they leave the fetch layer.
type Movie struct {
	ID               int64   `json:"id"`
	Title            string  `json:"title"`
	Overview         string  `json:"overview"`
	PosterPath       *string `json:"poster_path"`
	BackdropPath     *string `json:"backdrop_path"`
	ReleaseDate      string  `json:"release_date"`
	VoteAverage      float64 `json:"vote_average"`
	VoteCount        int     `json:"vote_count"`
	Popularity       float64 `json:"popularity"`
	GenreIDs         []int64 `json:"genre_ids,omitempty"`
	Genres           []Genre `json:"genres,omitempty"`
	Runtime          int     `json:"runtime,omitempty"`
	Budget           int64   `json:"budget"`
	Revenue          int64   `json:"revenue,omitempty"`
	Tagline          string  `json:"tagline,omitempty"`
	Status           string  `json:"status,omitempty"`
	OriginalLanguage string  `json:"original_language,omitempty"`
	Adult            bool    `json:"adult"`

	Source   Source `json:"source,omitempty"`
	SourceID string `json:"source_id,omitempty"`
}

// Ref returns the navigation target for the details screen.
func (m Movie) Ref() MovieRef {
	return MovieRef{Source: m.Source, ID: m.ID, SourceID: m.SourceID}
}

type Genre struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type GenreList struct {
	Genres []Genre `json:"genres"`
}

// MoviePage is the paging envelope used by every list endpoint.
type MoviePage struct {
	Page         int     `json:"page"`
	Results      []Movie `json:"results"`
	TotalPages   int     `json:"total_pages"`
	TotalResults int     `json:"total_results"`
}

type CastMember struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name"`
	Character   string  `json:"character"`
	ProfilePath *string `json:"profile_path"`
	Order       int     `json:"order"`
}

type CrewMember struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name"`
	Job         string  `json:"job"`
	Department  string  `json:"department"`
	ProfilePath *string `json:"profile_path"`
}

type Credits struct {
	ID   int64        `json:"id"`
	Cast []CastMember `json:"cast"`
	Crew []CrewMember `json:"crew"`
}

type Video struct {
	ID       string `json:"id"`
	Key      string `json:"key"`
	Name     string `json:"name"`
	Site     string `json:"site"`
	Type     string `json:"type"`
	Official bool   `json:"official"`
}

type VideoList struct {
	ID      int64   `json:"id"`
	Results []Video `json:"results"`
}

// HomeData bundles the four home lists. All lists come from the same Source.
type HomeData struct {
	HeroMovie *Movie  `json:"hero_movie"`
	Trending  []Movie `json:"trending"`
	Popular   []Movie `json:"popular"`
	TopRated  []Movie `json:"top_rated"`
	Upcoming  []Movie `json:"upcoming"`
	Source    Source  `json:"source"`
}

type MovieDetails struct {
	Movie   Movie    `json:"movie"`
	Credits *Credits `json:"credits"`
	Videos  []Video  `json:"videos"`
	Similar []Movie  `json:"similar"`
	Source  Source   `json:"source"`
}

// MovieRef identifies a movie for the details screen. SourceID is the
// store-native id and is only set for secondary records.
type MovieRef struct {
	Source   Source `json:"source,omitempty"`
	ID       int64  `json:"id"`
	SourceID string `json:"source_id,omitempty"`
}
