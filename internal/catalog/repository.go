package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/davidduclam/movietracker/internal/db"
	"github.com/davidduclam/movietracker/internal/models"
)

// ──────────────────── Movies ────────────────────

type MovieRepository struct {
	db db.Querier
}

func NewMovieRepository(q db.Querier) *MovieRepository {
	return &MovieRepository{db: q}
}

// FindByTmdbID returns nil, nil when the movie is not cached.
func (r *MovieRepository) FindByTmdbID(ctx context.Context, tmdbID int64) (*models.Movie, error) {
	m := &models.Movie{}
	err := r.db.QueryRowContext(ctx, `
		SELECT id, tmdb_id, title, release_date, poster_path, backdrop_path, overview, created_at
		FROM movies WHERE tmdb_id=$1`, tmdbID,
	).Scan(&m.ID, &m.TmdbID, &m.Title, &m.ReleaseDate, &m.PosterPath, &m.BackdropPath, &m.Overview, &m.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find movie %d: %w", tmdbID, err)
	}
	return m, nil
}

func (r *MovieRepository) Insert(ctx context.Context, m *models.Movie) error {
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO movies (tmdb_id, title, release_date, poster_path, backdrop_path, overview)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at`,
		m.TmdbID, m.Title, m.ReleaseDate, m.PosterPath, m.BackdropPath, m.Overview,
	).Scan(&m.ID, &m.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert movie %d: %w", m.TmdbID, err)
	}
	return nil
}

// InsertIfAbsent inserts m unless a row with the same tmdb_id exists. It
// reports false when another writer got there first; m is then left unset.
func (r *MovieRepository) InsertIfAbsent(ctx context.Context, m *models.Movie) (bool, error) {
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO movies (tmdb_id, title, release_date, poster_path, backdrop_path, overview)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (tmdb_id) DO NOTHING
		RETURNING id, created_at`,
		m.TmdbID, m.Title, m.ReleaseDate, m.PosterPath, m.BackdropPath, m.Overview,
	).Scan(&m.ID, &m.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("insert movie %d: %w", m.TmdbID, err)
	}
	return true, nil
}

func (r *MovieRepository) List(ctx context.Context) ([]models.Movie, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, tmdb_id, title, release_date, poster_path, backdrop_path, overview, created_at
		FROM movies ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("list movies: %w", err)
	}
	defer rows.Close()

	out := []models.Movie{}
	for rows.Next() {
		var m models.Movie
		if err := rows.Scan(&m.ID, &m.TmdbID, &m.Title, &m.ReleaseDate, &m.PosterPath, &m.BackdropPath, &m.Overview, &m.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// ──────────────────── TV Shows ────────────────────

type ShowRepository struct {
	db db.Querier
}

func NewShowRepository(q db.Querier) *ShowRepository {
	return &ShowRepository{db: q}
}

func (r *ShowRepository) FindByTmdbID(ctx context.Context, tmdbID int64) (*models.TvShow, error) {
	s := &models.TvShow{}
	err := r.db.QueryRowContext(ctx, `
		SELECT id, tmdb_id, title, first_air_date, poster_path, backdrop_path, overview, created_at
		FROM tv_shows WHERE tmdb_id=$1`, tmdbID,
	).Scan(&s.ID, &s.TmdbID, &s.Title, &s.FirstAirDate, &s.PosterPath, &s.BackdropPath, &s.Overview, &s.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find tv show %d: %w", tmdbID, err)
	}
	return s, nil
}

func (r *ShowRepository) Insert(ctx context.Context, s *models.TvShow) error {
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO tv_shows (tmdb_id, title, first_air_date, poster_path, backdrop_path, overview)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at`,
		s.TmdbID, s.Title, s.FirstAirDate, s.PosterPath, s.BackdropPath, s.Overview,
	).Scan(&s.ID, &s.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert tv show %d: %w", s.TmdbID, err)
	}
	return nil
}

func (r *ShowRepository) InsertIfAbsent(ctx context.Context, s *models.TvShow) (bool, error) {
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO tv_shows (tmdb_id, title, first_air_date, poster_path, backdrop_path, overview)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (tmdb_id) DO NOTHING
		RETURNING id, created_at`,
		s.TmdbID, s.Title, s.FirstAirDate, s.PosterPath, s.BackdropPath, s.Overview,
	).Scan(&s.ID, &s.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("insert tv show %d: %w", s.TmdbID, err)
	}
	return true, nil
}

func (r *ShowRepository) List(ctx context.Context) ([]models.TvShow, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, tmdb_id, title, first_air_date, poster_path, backdrop_path, overview, created_at
		FROM tv_shows ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("list tv shows: %w", err)
	}
	defer rows.Close()

	out := []models.TvShow{}
	for rows.Next() {
		var s models.TvShow
		if err := rows.Scan(&s.ID, &s.TmdbID, &s.Title, &s.FirstAirDate, &s.PosterPath, &s.BackdropPath, &s.Overview, &s.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
