package usermedia

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/davidduclam/movietracker/internal/apperr"
	"github.com/davidduclam/movietracker/internal/db"
	"github.com/davidduclam/movietracker/internal/models"
)

const linkColumns = `id, user_id, tmdb_id, media_type, watched, personal_rating, watch_date, created_at, updated_at`

type Repository struct {
	db db.Querier
}

func NewRepository(q db.Querier) *Repository {
	return &Repository{db: q}
}

func (r *Repository) Exists(ctx context.Context, userID int64, mediaType models.MediaType, tmdbID int64) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, `
		SELECT EXISTS(SELECT 1 FROM user_media WHERE user_id=$1 AND media_type=$2 AND tmdb_id=$3)`,
		userID, mediaType, tmdbID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check user media: %w", err)
	}
	return exists, nil
}

// Insert maps a unique violation on (user_id, media_type, tmdb_id) to
// ErrAlreadyLinked.
func (r *Repository) Insert(ctx context.Context, um *models.UserMedia) error {
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO user_media (user_id, tmdb_id, media_type, watched, personal_rating, watch_date)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at`,
		um.UserID, um.TmdbID, um.MediaType, um.Watched, um.PersonalRating, um.WatchDate,
	).Scan(&um.ID, &um.CreatedAt, &um.UpdatedAt)
	if db.IsUniqueViolation(err) {
		return apperr.Wrap(ErrAlreadyLinked, err)
	}
	if err != nil {
		return fmt.Errorf("insert user media: %w", err)
	}
	return nil
}

func (r *Repository) ListByUser(ctx context.Context, userID int64) ([]models.UserMedia, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+linkColumns+" FROM user_media WHERE user_id=$1 ORDER BY created_at DESC, id DESC", userID)
	if err != nil {
		return nil, fmt.Errorf("list user media: %w", err)
	}
	defer rows.Close()

	out := []models.UserMedia{}
	for rows.Next() {
		um, err := scanLink(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *um)
	}
	return out, rows.Err()
}

// Get returns nil, nil when the link does not exist or belongs to another user.
func (r *Repository) Get(ctx context.Context, userID, id int64) (*models.UserMedia, error) {
	um, err := scanLink(r.db.QueryRowContext(ctx,
		"SELECT "+linkColumns+" FROM user_media WHERE id=$1 AND user_id=$2", id, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get user media %d: %w", id, err)
	}
	return um, nil
}

func (r *Repository) Update(ctx context.Context, um *models.UserMedia) error {
	err := r.db.QueryRowContext(ctx, `
		UPDATE user_media SET watched=$3, personal_rating=$4, watch_date=$5, updated_at=NOW()
		WHERE id=$1 AND user_id=$2
		RETURNING updated_at`,
		um.ID, um.UserID, um.Watched, um.PersonalRating, um.WatchDate,
	).Scan(&um.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrLinkNotFound
	}
	if err != nil {
		return fmt.Errorf("update user media %d: %w", um.ID, err)
	}
	return nil
}

func (r *Repository) Delete(ctx context.Context, userID, id int64) (bool, error) {
	res, err := r.db.ExecContext(ctx, "DELETE FROM user_media WHERE id=$1 AND user_id=$2", id, userID)
	if err != nil {
		return false, fmt.Errorf("delete user media %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanLink(s scanner) (*models.UserMedia, error) {
	um := &models.UserMedia{}
	err := s.Scan(&um.ID, &um.UserID, &um.TmdbID, &um.MediaType, &um.Watched,
		&um.PersonalRating, &um.WatchDate, &um.CreatedAt, &um.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return um, nil
}
