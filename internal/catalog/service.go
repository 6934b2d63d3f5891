package catalog

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/davidduclam/movietracker/internal/apperr"
	"github.com/davidduclam/movietracker/internal/db"
	"github.com/davidduclam/movietracker/internal/models"
	"github.com/davidduclam/movietracker/internal/tmdb"
)

// ErrAlreadyExists is returned by the strict Create variants.
var ErrAlreadyExists = apperr.Conflict("MEDIA_ALREADY_EXISTS", "media already exists in the catalog")

type MovieProvider interface {
	SearchMovies(ctx context.Context, query string) ([]tmdb.MovieSummary, error)
	FetchMovieDetails(ctx context.Context, id int64) (*tmdb.MovieDetail, error)
	PopularMovies(ctx context.Context) ([]tmdb.MovieSummary, error)
	TopRatedMovies(ctx context.Context) ([]tmdb.MovieSummary, error)
	UpcomingMovies(ctx context.Context) ([]tmdb.MovieSummary, error)
}

type ShowProvider interface {
	SearchTvShows(ctx context.Context, query string) ([]tmdb.TvShowSummary, error)
	FetchTvShowDetails(ctx context.Context, id int64) (*tmdb.TvShowDetail, error)
	PopularTvShows(ctx context.Context) ([]tmdb.TvShowSummary, error)
	TopRatedTvShows(ctx context.Context) ([]tmdb.TvShowSummary, error)
}

type MultiSearcher interface {
	SearchMulti(ctx context.Context, query string) ([]tmdb.SearchResult, error)
}

type MovieStore interface {
	FindByTmdbID(ctx context.Context, tmdbID int64) (*models.Movie, error)
	Insert(ctx context.Context, m *models.Movie) error
	InsertIfAbsent(ctx context.Context, m *models.Movie) (bool, error)
	List(ctx context.Context) ([]models.Movie, error)
}

type ShowStore interface {
	FindByTmdbID(ctx context.Context, tmdbID int64) (*models.TvShow, error)
	Insert(ctx context.Context, s *models.TvShow) error
	InsertIfAbsent(ctx context.Context, s *models.TvShow) (bool, error)
	List(ctx context.Context) ([]models.TvShow, error)
}

// fetchOrCreate returns the cached record for tmdbID, or fetches it from
// the provider and caches it. Cached records are never refreshed.
func fetchOrCreate[T any](
	ctx context.Context,
	tmdbID int64,
	find func(context.Context, int64) (*T, error),
	fetch func(context.Context, int64) (*T, error),
	insertIfAbsent func(context.Context, *T) (bool, error),
) (*T, bool, error) {
	existing, err := find(ctx, tmdbID)
	if err != nil {
		return nil, false, err
	}
	if existing != nil {
		return existing, false, nil
	}

	rec, err := fetch(ctx, tmdbID)
	if err != nil {
		return nil, false, err
	}
	inserted, err := insertIfAbsent(ctx, rec)
	if err != nil {
		return nil, false, err
	}
	if inserted {
		return rec, true, nil
	}

	// Lost a race with a concurrent insert; return the winner's row.
	existing, err = find(ctx, tmdbID)
	if err != nil {
		return nil, false, err
	}
	if existing == nil {
		return nil, false, fmt.Errorf("record %d vanished after conflicting insert", tmdbID)
	}
	return existing, false, nil
}

// ──────────────────── Movies ────────────────────

type MovieService struct {
	provider MovieProvider
	store    MovieStore
	log      zerolog.Logger
}

func NewMovieService(provider MovieProvider, store MovieStore, log zerolog.Logger) *MovieService {
	return &MovieService{provider: provider, store: store, log: log}
}

// WithStore returns a copy of the service backed by store, typically a
// transaction-bound repository.
func (s *MovieService) WithStore(store MovieStore) *MovieService {
	cp := *s
	cp.store = store
	return &cp
}

// FetchOrCreate reports created=true when the movie was fetched from TMDB
// and inserted by this call.
func (s *MovieService) FetchOrCreate(ctx context.Context, tmdbID int64) (*models.Movie, bool, error) {
	m, created, err := fetchOrCreate(ctx, tmdbID, s.store.FindByTmdbID, s.fetch, s.store.InsertIfAbsent)
	if err != nil {
		return nil, false, err
	}
	if created {
		s.log.Info().Int64("tmdbId", tmdbID).Str("title", m.Title).Msg("cached movie")
	}
	return m, created, nil
}

// Create inserts the movie and fails with ErrAlreadyExists if it is
// already cached.
func (s *MovieService) Create(ctx context.Context, tmdbID int64) (*models.Movie, error) {
	existing, err := s.store.FindByTmdbID(ctx, tmdbID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrAlreadyExists
	}
	m, err := s.fetch(ctx, tmdbID)
	if err != nil {
		return nil, err
	}
	if err := s.store.Insert(ctx, m); err != nil {
		if db.IsUniqueViolation(err) {
			return nil, apperr.Wrap(ErrAlreadyExists, err)
		}
		return nil, err
	}
	return m, nil
}

func (s *MovieService) fetch(ctx context.Context, tmdbID int64) (*models.Movie, error) {
	d, err := s.provider.FetchMovieDetails(ctx, tmdbID)
	if err != nil {
		return nil, err
	}
	return MovieFromDetail(tmdbID, d), nil
}

func (s *MovieService) Search(ctx context.Context, query string) ([]tmdb.MovieSummary, error) {
	return s.provider.SearchMovies(ctx, query)
}

func (s *MovieService) Details(ctx context.Context, tmdbID int64) (*tmdb.MovieDetail, error) {
	return s.provider.FetchMovieDetails(ctx, tmdbID)
}

func (s *MovieService) Popular(ctx context.Context) ([]tmdb.MovieSummary, error) {
	return s.provider.PopularMovies(ctx)
}

func (s *MovieService) TopRated(ctx context.Context) ([]tmdb.MovieSummary, error) {
	return s.provider.TopRatedMovies(ctx)
}

func (s *MovieService) Upcoming(ctx context.Context) ([]tmdb.MovieSummary, error) {
	return s.provider.UpcomingMovies(ctx)
}

func (s *MovieService) List(ctx context.Context) ([]models.Movie, error) {
	return s.store.List(ctx)
}

// MovieFromDetail projects a TMDB detail onto the cached movie shape. An
// unparseable release date is stored as unknown.
func MovieFromDetail(tmdbID int64, d *tmdb.MovieDetail) *models.Movie {
	release, _ := models.ParseDate(d.ReleaseDate)
	return &models.Movie{
		TmdbID:       tmdbID,
		Title:        d.Title,
		ReleaseDate:  release,
		PosterPath:   models.StringPtr(d.PosterPath),
		BackdropPath: models.StringPtr(d.BackdropPath),
		Overview:     models.StringPtr(d.Overview),
	}
}

// ──────────────────── TV Shows ────────────────────

type ShowService struct {
	provider ShowProvider
	store    ShowStore
	log      zerolog.Logger
}

func NewShowService(provider ShowProvider, store ShowStore, log zerolog.Logger) *ShowService {
	return &ShowService{provider: provider, store: store, log: log}
}

func (s *ShowService) WithStore(store ShowStore) *ShowService {
	cp := *s
	cp.store = store
	return &cp
}

func (s *ShowService) FetchOrCreate(ctx context.Context, tmdbID int64) (*models.TvShow, bool, error) {
	show, created, err := fetchOrCreate(ctx, tmdbID, s.store.FindByTmdbID, s.fetch, s.store.InsertIfAbsent)
	if err != nil {
		return nil, false, err
	}
	if created {
		s.log.Info().Int64("tmdbId", tmdbID).Str("title", show.Title).Msg("cached tv show")
	}
	return show, created, nil
}

func (s *ShowService) Create(ctx context.Context, tmdbID int64) (*models.TvShow, error) {
	existing, err := s.store.FindByTmdbID(ctx, tmdbID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrAlreadyExists
	}
	show, err := s.fetch(ctx, tmdbID)
	if err != nil {
		return nil, err
	}
	if err := s.store.Insert(ctx, show); err != nil {
		if db.IsUniqueViolation(err) {
			return nil, apperr.Wrap(ErrAlreadyExists, err)
		}
		return nil, err
	}
	return show, nil
}

func (s *ShowService) fetch(ctx context.Context, tmdbID int64) (*models.TvShow, error) {
	d, err := s.provider.FetchTvShowDetails(ctx, tmdbID)
	if err != nil {
		return nil, err
	}
	return ShowFromDetail(tmdbID, d), nil
}

func (s *ShowService) Search(ctx context.Context, query string) ([]tmdb.TvShowSummary, error) {
	return s.provider.SearchTvShows(ctx, query)
}

func (s *ShowService) Details(ctx context.Context, tmdbID int64) (*tmdb.TvShowDetail, error) {
	return s.provider.FetchTvShowDetails(ctx, tmdbID)
}

func (s *ShowService) Popular(ctx context.Context) ([]tmdb.TvShowSummary, error) {
	return s.provider.PopularTvShows(ctx)
}

func (s *ShowService) TopRated(ctx context.Context) ([]tmdb.TvShowSummary, error) {
	return s.provider.TopRatedTvShows(ctx)
}

func (s *ShowService) List(ctx context.Context) ([]models.TvShow, error) {
	return s.store.List(ctx)
}

func ShowFromDetail(tmdbID int64, d *tmdb.TvShowDetail) *models.TvShow {
	firstAir, _ := models.ParseDate(d.FirstAirDate)
	return &models.TvShow{
		TmdbID:       tmdbID,
		Title:        d.Name,
		FirstAirDate: firstAir,
		PosterPath:   models.StringPtr(d.PosterPath),
		BackdropPath: models.StringPtr(d.BackdropPath),
		Overview:     models.StringPtr(d.Overview),
	}
}

// ──────────────────── Multi search ────────────────────

type SearchService struct {
	provider MultiSearcher
}

func NewSearchService(provider MultiSearcher) *SearchService {
	return &SearchService{provider: provider}
}

// SearchMulti returns movie and TV results, dropping other media types.
func (s *SearchService) SearchMulti(ctx context.Context, query string) ([]tmdb.SearchResult, error) {
	results, err := s.provider.SearchMulti(ctx, query)
	if err != nil {
		return nil, err
	}
	out := make([]tmdb.SearchResult, 0, len(results))
	for _, r := range results {
		if !r.Ignored() {
			out = append(out, r)
		}
	}
	return out, nil
}
