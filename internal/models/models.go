package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// ──────────────────── Media Type ────────────────────

type MediaType string

const (
	MediaTypeMovie MediaType = "movie"
	MediaTypeTV    MediaType = "tv"
)

// ParseMediaType accepts "MOVIE", "movie", " Tv " and so on.
func ParseMediaType(s string) (MediaType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "movie":
		return MediaTypeMovie, nil
	case "tv":
		return MediaTypeTV, nil
	}
	return "", fmt.Errorf("unknown media type %q", s)
}

func (t MediaType) Valid() bool {
	return t == MediaTypeMovie || t == MediaTypeTV
}

func (t *MediaType) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("media type must be a string: %w", err)
	}
	mt, err := ParseMediaType(s)
	if err != nil {
		return err
	}
	*t = mt
	return nil
}

// ──────────────────── Civil Date ────────────────────

const DateLayout = "2006-01-02"

// Date is a calendar date without time of day, stored as SQL DATE and
// rendered as YYYY-MM-DD.
type Date struct {
	time.Time
}

func NewDate(year int, month time.Month, day int) Date {
	return Date{time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate returns nil for an empty string, which is how TMDB reports
// unknown release dates.
func ParseDate(s string) (*Date, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return nil, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return &Date{t}, nil
}

func (d Date) String() string {
	return d.Format(DateLayout)
}

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("date must be a string: %w", err)
	}
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return fmt.Errorf("invalid date %q, expected YYYY-MM-DD", s)
	}
	d.Time = t
	return nil
}

func (d *Date) Scan(src interface{}) error {
	switch v := src.(type) {
	case time.Time:
		d.Time = time.Date(v.Year(), v.Month(), v.Day(), 0, 0, 0, 0, time.UTC)
		return nil
	case []byte:
		return d.parse(string(v))
	case string:
		return d.parse(v)
	}
	return fmt.Errorf("cannot scan %T into Date", src)
}

func (d *Date) parse(s string) error {
	if len(s) > len(DateLayout) {
		s = s[:len(DateLayout)]
	}
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return err
	}
	d.Time = t
	return nil
}

func (d Date) Value() (driver.Value, error) {
	return d.String(), nil
}

// ──────────────────── Entities ────────────────────

type User struct {
	ID        int64     `json:"id"`
	CreatedAt time.Time `json:"createdAt"`
}

type Movie struct {
	ID           int64     `json:"id"`
	TmdbID       int64     `json:"tmdbId"`
	Title        string    `json:"title"`
	ReleaseDate  *Date     `json:"releaseDate"`
	PosterPath   *string   `json:"posterPath"`
	BackdropPath *string   `json:"backdropPath"`
	Overview     *string   `json:"overview"`
	CreatedAt    time.Time `json:"createdAt"`
}

type TvShow struct {
	ID           int64     `json:"id"`
	TmdbID       int64     `json:"tmdbId"`
	Title        string    `json:"title"`
	FirstAirDate *Date     `json:"firstAirDate"`
	PosterPath   *string   `json:"posterPath"`
	BackdropPath *string   `json:"backdropPath"`
	Overview     *string   `json:"overview"`
	CreatedAt    time.Time `json:"createdAt"`
}

// UserMedia links a user to a movie or show by its TMDB id and carries
// the user's watch state.
type UserMedia struct {
	ID             int64     `json:"id"`
	UserID         int64     `json:"userId"`
	TmdbID         int64     `json:"tmdbId"`
	MediaType      MediaType `json:"mediaType"`
	Watched        bool      `json:"watched"`
	PersonalRating *float64  `json:"personalRating"`
	WatchDate      *Date     `json:"watchDate"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// StringPtr returns nil for empty strings so blank TMDB fields are stored as NULL.
func StringPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
