package tmdb

import (
	"encoding/json"
	"fmt"
)

// Page is TMDB's paginated list envelope.
type Page[T any] struct {
	Page         int `json:"page"`
	Results      []T `json:"results"`
	TotalPages   int `json:"total_pages"`
	TotalResults int `json:"total_results"`
}

type Genre struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

type MovieSummary struct {
	ID            int64   `json:"id"`
	Title         string  `json:"title"`
	OriginalTitle string  `json:"original_title,omitempty"`
	Overview      string  `json:"overview"`
	ReleaseDate   string  `json:"release_date"`
	PosterPath    string  `json:"poster_path"`
	BackdropPath  string  `json:"backdrop_path"`
	VoteAverage   float64 `json:"vote_average"`
	Popularity    float64 `json:"popularity,omitempty"`
	GenreIDs      []int   `json:"genre_ids,omitempty"`
}

type MovieDetail struct {
	ID           int64   `json:"id"`
	ImdbID       string  `json:"imdb_id,omitempty"`
	Title        string  `json:"title"`
	Tagline      string  `json:"tagline,omitempty"`
	Overview     string  `json:"overview"`
	ReleaseDate  string  `json:"release_date"`
	Runtime      int     `json:"runtime,omitempty"`
	Status       string  `json:"status,omitempty"`
	PosterPath   string  `json:"poster_path"`
	BackdropPath string  `json:"backdrop_path"`
	VoteAverage  float64 `json:"vote_average"`
	Genres       []Genre `json:"genres,omitempty"`
}

type TvShowSummary struct {
	ID           int64   `json:"id"`
	Name         string  `json:"name"`
	OriginalName string  `json:"original_name,omitempty"`
	Overview     string  `json:"overview"`
	FirstAirDate string  `json:"first_air_date"`
	PosterPath   string  `json:"poster_path"`
	BackdropPath string  `json:"backdrop_path"`
	VoteAverage  float64 `json:"vote_average"`
	Popularity   float64 `json:"popularity,omitempty"`
	GenreIDs     []int   `json:"genre_ids,omitempty"`
}

type TvShowDetail struct {
	ID               int64   `json:"id"`
	Name             string  `json:"name"`
	Tagline          string  `json:"tagline,omitempty"`
	Overview         string  `json:"overview"`
	FirstAirDate     string  `json:"first_air_date"`
	LastAirDate      string  `json:"last_air_date,omitempty"`
	Status           string  `json:"status,omitempty"`
	NumberOfSeasons  int     `json:"number_of_seasons,omitempty"`
	NumberOfEpisodes int     `json:"number_of_episodes,omitempty"`
	PosterPath       string  `json:"poster_path"`
	BackdropPath     string  `json:"backdrop_path"`
	VoteAverage      float64 `json:"vote_average"`
	Genres           []Genre `json:"genres,omitempty"`
}

// ──────────────────── Multi search ────────────────────

const (
	MediaTypeMovie = "movie"
	MediaTypeTV    = "tv"
)

// SearchResult is one entry of a multi search. Exactly one of Movie and
// TvShow is set for recognised media types; for anything else (people,
// collections) both are nil and only ID and MediaType are kept.
type SearchResult struct {
	ID        int64
	MediaType string
	Movie     *MovieSummary
	TvShow    *TvShowSummary
}

// Ignored reports whether the result is of a media type we don't track.
func (r SearchResult) Ignored() bool {
	return r.Movie == nil && r.TvShow == nil
}

func (r *SearchResult) UnmarshalJSON(b []byte) error {
	var tag struct {
		ID        int64  `json:"id"`
		MediaType string `json:"media_type"`
	}
	if err := json.Unmarshal(b, &tag); err != nil {
		return fmt.Errorf("decode search result: %w", err)
	}

	*r = SearchResult{ID: tag.ID, MediaType: tag.MediaType}
	switch tag.MediaType {
	case MediaTypeMovie:
		var m MovieSummary
		if err := json.Unmarshal(b, &m); err != nil {
			return fmt.Errorf("decode movie result: %w", err)
		}
		r.Movie = &m
	case MediaTypeTV:
		var s TvShowSummary
		if err := json.Unmarshal(b, &s); err != nil {
			return fmt.Errorf("decode tv result: %w", err)
		}
		r.TvShow = &s
	}
	return nil
}

func (r SearchResult) MarshalJSON() ([]byte, error) {
	switch {
	case r.Movie != nil:
		return json.Marshal(struct {
			MediaType string `json:"media_type"`
			*MovieSummary
		}{MediaTypeMovie, r.Movie})
	case r.TvShow != nil:
		return json.Marshal(struct {
			MediaType string `json:"media_type"`
			*TvShowSummary
		}{MediaTypeTV, r.TvShow})
	}
	return json.Marshal(struct {
		ID        int64  `json:"id"`
		MediaType string `json:"media_type"`
	}{r.ID, r.MediaType})
}
