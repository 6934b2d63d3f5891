package usermedia

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/davidduclam/movietracker/internal/apperr"
	"github.com/davidduclam/movietracker/internal/catalog"
	"github.com/davidduclam/movietracker/internal/catalog/catalogtest"
	"github.com/davidduclam/movietracker/internal/models"
)

type memUsers map[int64]bool

func (u memUsers) Exists(ctx context.Context, id int64) (bool, error) {
	return u[id], nil
}

type linkKey struct {
	userID    int64
	mediaType models.MediaType
	tmdbID    int64
}

type memLinks struct {
	mu     sync.Mutex
	rows   map[int64]models.UserMedia
	nextID int64
}

func newMemLinks() *memLinks {
	return &memLinks{rows: map[int64]models.UserMedia{}}
}

func (l *memLinks) Exists(ctx context.Context, userID int64, mt models.MediaType, tmdbID int64) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.findLocked(linkKey{userID, mt, tmdbID}), nil
}

func (l *memLinks) findLocked(k linkKey) bool {
	for _, um := range l.rows {
		if (linkKey{um.UserID, um.MediaType, um.TmdbID}) == k {
			return true
		}
	}
	return false
}

func (l *memLinks) Insert(ctx context.Context, um *models.UserMedia) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.findLocked(linkKey{um.UserID, um.MediaType, um.TmdbID}) {
		return apperr.Wrap(ErrAlreadyLinked, nil)
	}
	l.nextID++
	um.ID = l.nextID
	um.CreatedAt = time.Now().UTC()
	um.UpdatedAt = um.CreatedAt
	l.rows[um.ID] = *um
	return nil
}

func (l *memLinks) ListByUser(ctx context.Context, userID int64) ([]models.UserMedia, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := []models.UserMedia{}
	for _, um := range l.rows {
		if um.UserID == userID {
			out = append(out, um)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (l *memLinks) Get(ctx context.Context, userID, id int64) (*models.UserMedia, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	um, ok := l.rows[id]
	if !ok || um.UserID != userID {
		return nil, nil
	}
	return &um, nil
}

func (l *memLinks) Update(ctx context.Context, um *models.UserMedia) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	cur, ok := l.rows[um.ID]
	if !ok || cur.UserID != um.UserID {
		return ErrLinkNotFound
	}
	um.UpdatedAt = time.Now().UTC()
	l.rows[um.ID] = *um
	return nil
}

func (l *memLinks) Delete(ctx context.Context, userID, id int64) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	um, ok := l.rows[id]
	if !ok || um.UserID != userID {
		return false, nil
	}
	delete(l.rows, id)
	return true, nil
}

func (l *memLinks) snapshot() func() {
	l.mu.Lock()
	defer l.mu.Unlock()
	rows := make(map[int64]models.UserMedia, len(l.rows))
	for k, v := range l.rows {
		rows[k] = v
	}
	next := l.nextID
	return func() {
		l.mu.Lock()
		defer l.mu.Unlock()
		l.rows = rows
		l.nextID = next
	}
}

// memUnitOfWork restores every store when fn fails, like a rolled back
// transaction.
type memUnitOfWork struct {
	users  memUsers
	movies *catalogtest.MovieStore
	shows  *catalogtest.ShowStore
	links  *memLinks
	msvc   *catalog.MovieService
	ssvc   *catalog.ShowService
}

func (u *memUnitOfWork) Run(ctx context.Context, fn func(r Repos) error) error {
	restoreMovies := u.movies.Snapshot()
	restoreShows := u.shows.Snapshot()
	restoreLinks := u.links.snapshot()

	err := fn(Repos{Users: u.users, Movies: u.msvc, Shows: u.ssvc, Links: u.links})
	if err != nil {
		restoreMovies()
		restoreShows()
		restoreLinks()
	}
	return err
}

type recordedEvent struct {
	name string
	data interface{}
}

type recorder struct {
	mu     sync.Mutex
	events []recordedEvent
}

func (r *recorder) Broadcast(event string, data interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, recordedEvent{event, data})
}

func (r *recorder) names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for _, e := range r.events {
		out = append(out, e.name)
	}
	return out
}

type fixture struct {
	svc      *Service
	uow      *memUnitOfWork
	provider *catalogtest.Provider
	events   *recorder
}

func newFixture(userIDs ...int64) *fixture {
	p := catalogtest.NewProvider()
	p.Movies[550] = catalogtest.FightClub()
	p.Shows[1399] = catalogtest.GameOfThrones()

	movies := catalogtest.NewMovieStore()
	shows := catalogtest.NewShowStore()
	uow := &memUnitOfWork{
		users:  memUsers{},
		movies: movies,
		shows:  shows,
		links:  newMemLinks(),
		msvc:   catalog.NewMovieService(p, movies, zerolog.Nop()),
		ssvc:   catalog.NewShowService(p, shows, zerolog.Nop()),
	}
	for _, id := range userIDs {
		uow.users[id] = true
	}
	events := &recorder{}
	return &fixture{
		svc:      NewService(uow, events, zerolog.Nop()),
		uow:      uow,
		provider: p,
		events:   events,
	}
}
