// Package catalogtest provides in-memory catalog stores and a scripted
// TMDB provider for tests.
package catalogtest

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/lib/pq"

	"github.com/davidduclam/movietracker/internal/models"
	"github.com/davidduclam/movietracker/internal/tmdb"
)

// ──────────────────── Provider ────────────────────

// Provider serves details from its maps and counts detail fetches. A
// missing id yields an upstream 404, mirroring TMDB.
type Provider struct {
	mu          sync.Mutex
	Movies      map[int64]*tmdb.MovieDetail
	Shows       map[int64]*tmdb.TvShowDetail
	MovieList   []tmdb.MovieSummary
	ShowList    []tmdb.TvShowSummary
	Multi       []tmdb.SearchResult
	Err         error
	DetailCalls int
}

func NewProvider() *Provider {
	return &Provider{
		Movies: map[int64]*tmdb.MovieDetail{},
		Shows:  map[int64]*tmdb.TvShowDetail{},
	}
}

func (p *Provider) Calls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.DetailCalls
}

func (p *Provider) FetchMovieDetails(ctx context.Context, id int64) (*tmdb.MovieDetail, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.DetailCalls++
	if p.Err != nil {
		return nil, p.Err
	}
	d, ok := p.Movies[id]
	if !ok {
		return nil, &tmdb.ClientError{Op: "movie details", StatusCode: 404, Body: `{"status_code":34}`}
	}
	return d, nil
}

func (p *Provider) FetchTvShowDetails(ctx context.Context, id int64) (*tmdb.TvShowDetail, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.DetailCalls++
	if p.Err != nil {
		return nil, p.Err
	}
	d, ok := p.Shows[id]
	if !ok {
		return nil, &tmdb.ClientError{Op: "tv details", StatusCode: 404, Body: `{"status_code":34}`}
	}
	return d, nil
}

func (p *Provider) SearchMovies(ctx context.Context, query string) ([]tmdb.MovieSummary, error) {
	return p.movieList()
}

func (p *Provider) PopularMovies(ctx context.Context) ([]tmdb.MovieSummary, error) {
	return p.movieList()
}

func (p *Provider) TopRatedMovies(ctx context.Context) ([]tmdb.MovieSummary, error) {
	return p.movieList()
}

func (p *Provider) UpcomingMovies(ctx context.Context) ([]tmdb.MovieSummary, error) {
	return p.movieList()
}

func (p *Provider) SearchTvShows(ctx context.Context, query string) ([]tmdb.TvShowSummary, error) {
	return p.showList()
}

func (p *Provider) PopularTvShows(ctx context.Context) ([]tmdb.TvShowSummary, error) {
	return p.showList()
}

func (p *Provider) TopRatedTvShows(ctx context.Context) ([]tmdb.TvShowSummary, error) {
	return p.showList()
}

func (p *Provider) SearchMulti(ctx context.Context, query string) ([]tmdb.SearchResult, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.Err != nil {
		return nil, p.Err
	}
	return p.Multi, nil
}

func (p *Provider) movieList() ([]tmdb.MovieSummary, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.Err != nil {
		return nil, p.Err
	}
	return p.MovieList, nil
}

func (p *Provider) showList() ([]tmdb.TvShowSummary, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.Err != nil {
		return nil, p.Err
	}
	return p.ShowList, nil
}

// ──────────────────── Stores ────────────────────

var uniqueViolation = &pq.Error{Code: "23505", Message: "duplicate key value violates unique constraint"}

// MovieStore is a map-backed catalog.MovieStore. Inserts of an existing
// tmdb id fail like the real unique constraint does.
type MovieStore struct {
	mu     sync.Mutex
	Rows   map[int64]models.Movie
	nextID int64
}

func NewMovieStore() *MovieStore {
	return &MovieStore{Rows: map[int64]models.Movie{}}
}

func (s *MovieStore) FindByTmdbID(ctx context.Context, tmdbID int64) (*models.Movie, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.Rows[tmdbID]
	if !ok {
		return nil, nil
	}
	return &m, nil
}

func (s *MovieStore) Insert(ctx context.Context, m *models.Movie) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.Rows[m.TmdbID]; ok {
		return uniqueViolation
	}
	s.insertLocked(m)
	return nil
}

func (s *MovieStore) InsertIfAbsent(ctx context.Context, m *models.Movie) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.Rows[m.TmdbID]; ok {
		return false, nil
	}
	s.insertLocked(m)
	return true, nil
}

func (s *MovieStore) insertLocked(m *models.Movie) {
	s.nextID++
	m.ID = s.nextID
	m.CreatedAt = time.Now().UTC()
	s.Rows[m.TmdbID] = *m
}

func (s *MovieStore) List(ctx context.Context) ([]models.Movie, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Movie, 0, len(s.Rows))
	for _, m := range s.Rows {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

// Snapshot and Restore let a fake unit of work roll back.
func (s *MovieStore) Snapshot() func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	rows := make(map[int64]models.Movie, len(s.Rows))
	for k, v := range s.Rows {
		rows[k] = v
	}
	next := s.nextID
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.Rows = rows
		s.nextID = next
	}
}

type ShowStore struct {
	mu     sync.Mutex
	Rows   map[int64]models.TvShow
	nextID int64
}

func NewShowStore() *ShowStore {
	return &ShowStore{Rows: map[int64]models.TvShow{}}
}

func (s *ShowStore) FindByTmdbID(ctx context.Context, tmdbID int64) (*models.TvShow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	show, ok := s.Rows[tmdbID]
	if !ok {
		return nil, nil
	}
	return &show, nil
}

func (s *ShowStore) Insert(ctx context.Context, show *models.TvShow) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.Rows[show.TmdbID]; ok {
		return uniqueViolation
	}
	s.insertLocked(show)
	return nil
}

func (s *ShowStore) InsertIfAbsent(ctx context.Context, show *models.TvShow) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.Rows[show.TmdbID]; ok {
		return false, nil
	}
	s.insertLocked(show)
	return true, nil
}

func (s *ShowStore) insertLocked(show *models.TvShow) {
	s.nextID++
	show.ID = s.nextID
	show.CreatedAt = time.Now().UTC()
	s.Rows[show.TmdbID] = *show
}

func (s *ShowStore) List(ctx context.Context) ([]models.TvShow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.TvShow, 0, len(s.Rows))
	for _, show := range s.Rows {
		out = append(out, show)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (s *ShowStore) Snapshot() func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	rows := make(map[int64]models.TvShow, len(s.Rows))
	for k, v := range s.Rows {
		rows[k] = v
	}
	next := s.nextID
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.Rows = rows
		s.nextID = next
	}
}

// FightClub is a ready-made movie detail used across tests.
func FightClub() *tmdb.MovieDetail {
	return &tmdb.MovieDetail{
		ID:           550,
		Title:        "Fight Club",
		ReleaseDate:  "1999-10-15",
		PosterPath:   "/pB8BM7pdSp6B6Ih7QZ4DrQ3PmJK.jpg",
		BackdropPath: "/hZkgoQYus5vegHoetLkCJzb17zJ.jpg",
		Overview:     "A ticking-time-bomb insomniac and a slippery soap salesman channel primal male aggression.",
		VoteAverage:  8.4,
	}
}

func GameOfThrones() *tmdb.TvShowDetail {
	return &tmdb.TvShowDetail{
		ID:           1399,
		Name:         "Game of Thrones",
		FirstAirDate: "2011-04-17",
		PosterPath:   "/1XS1oqL89opfnbLl8WnZY1O1uJx.jpg",
		Overview:     "Seven noble families fight for control of the mythical land of Westeros.",
		VoteAverage:  8.4,
	}
}
