package usermedia

import (
	"context"
	"database/sql"

	"github.com/davidduclam/movietracker/internal/catalog"
	"github.com/davidduclam/movietracker/internal/db"
	"github.com/davidduclam/movietracker/internal/users"
)

// SQLUnitOfWork binds every store, including the catalog services, to a
// single database transaction.
type SQLUnitOfWork struct {
	db     *db.DB
	movies *catalog.MovieService
	shows  *catalog.ShowService
}

func NewSQLUnitOfWork(d *db.DB, movies *catalog.MovieService, shows *catalog.ShowService) *SQLUnitOfWork {
	return &SQLUnitOfWork{db: d, movies: movies, shows: shows}
}

func (u *SQLUnitOfWork) Run(ctx context.Context, fn func(r Repos) error) error {
	return u.db.InTx(ctx, func(tx *sql.Tx) error {
		return fn(Repos{
			Users:  users.NewRepository(tx),
			Movies: u.movies.WithStore(catalog.NewMovieRepository(tx)),
			Shows:  u.shows.WithStore(catalog.NewShowRepository(tx)),
			Links:  NewRepository(tx),
		})
	})
}
