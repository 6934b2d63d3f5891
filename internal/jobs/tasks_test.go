package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/davidduclam/movietracker/internal/catalog"
	"github.com/davidduclam/movietracker/internal/catalog/catalogtest"
	"github.com/davidduclam/movietracker/internal/models"
	"github.com/davidduclam/movietracker/internal/tmdb"
)

type captured struct {
	event string
	data  interface{}
}

type captureNotifier struct {
	events []captured
}

func (c *captureNotifier) Broadcast(event string, data interface{}) {
	c.events = append(c.events, captured{event, data})
}

func warmTask(t *testing.T, p WarmPayload) *asynq.Task {
	t.Helper()
	data, err := json.Marshal(p)
	require.NoError(t, err)
	return asynq.NewTask(TaskCatalogWarm, data)
}

func TestWarmCachesMissingMoviesOnly(t *testing.T) {
	p := catalogtest.NewProvider()
	p.Movies[550] = catalogtest.FightClub()
	p.Movies[13] = &tmdb.MovieDetail{ID: 13, Title: "Forrest Gump"}
	p.MovieList = []tmdb.MovieSummary{{ID: 550}, {ID: 13}, {ID: 404}}

	store := catalogtest.NewMovieStore()
	require.NoError(t, store.Insert(context.Background(), &models.Movie{TmdbID: 550, Title: "Fight Club (cached)"}))

	movies := catalog.NewMovieService(p, store, zerolog.Nop())
	shows := catalog.NewShowService(p, catalogtest.NewShowStore(), zerolog.Nop())
	n := &captureNotifier{}
	h := NewWarmHandler(movies, shows, 10, n, zerolog.Nop())

	err := h.ProcessTask(context.Background(), warmTask(t, WarmPayload{MediaType: models.MediaTypeMovie, List: ListPopular}))
	require.NoError(t, err)

	assert.Len(t, store.Rows, 2)
	assert.Equal(t, "Fight Club (cached)", store.Rows[550].Title, "cached rows are never refreshed")
	assert.Equal(t, 2, p.Calls(), "only uncached ids hit the provider")

	require.Len(t, n.events, 1)
	assert.Equal(t, EventCatalogWarmed, n.events[0].event)
	assert.Equal(t, WarmResult{MediaType: models.MediaTypeMovie, List: ListPopular, Seen: 3, Created: 1, Failed: 1}, n.events[0].data)
}

func TestWarmRespectsLimit(t *testing.T) {
	p := catalogtest.NewProvider()
	p.ShowList = []tmdb.TvShowSummary{{ID: 1}, {ID: 2}, {ID: 3}}
	for _, id := range []int64{1, 2, 3} {
		p.Shows[id] = &tmdb.TvShowDetail{ID: id, Name: "show"}
	}
	store := catalogtest.NewShowStore()
	h := NewWarmHandler(
		catalog.NewMovieService(p, catalogtest.NewMovieStore(), zerolog.Nop()),
		catalog.NewShowService(p, store, zerolog.Nop()),
		2, nil, zerolog.Nop())

	require.NoError(t, h.ProcessTask(context.Background(), warmTask(t, WarmPayload{MediaType: models.MediaTypeTV, List: ListTopRated})))
	assert.Len(t, store.Rows, 2)
}

func TestWarmListFailureIsRetried(t *testing.T) {
	p := catalogtest.NewProvider()
	p.Err = &tmdb.ClientError{Op: "popular movies", StatusCode: 503}
	h := NewWarmHandler(
		catalog.NewMovieService(p, catalogtest.NewMovieStore(), zerolog.Nop()),
		catalog.NewShowService(p, catalogtest.NewShowStore(), zerolog.Nop()),
		5, nil, zerolog.Nop())

	err := h.ProcessTask(context.Background(), warmTask(t, WarmPayload{MediaType: models.MediaTypeMovie, List: ListPopular}))
	require.Error(t, err)
	assert.False(t, errors.Is(err, asynq.SkipRetry))
}

func TestWarmBadPayloadSkipsRetry(t *testing.T) {
	h := NewWarmHandler(nil, nil, 5, nil, zerolog.Nop())

	err := h.ProcessTask(context.Background(), asynq.NewTask(TaskCatalogWarm, []byte("{")))
	assert.ErrorIs(t, err, asynq.SkipRetry)

	err = h.ProcessTask(context.Background(), warmTask(t, WarmPayload{MediaType: models.MediaTypeTV, List: ListUpcoming}))
	assert.ErrorIs(t, err, asynq.SkipRetry)
}

func TestWarmPayloadTaskID(t *testing.T) {
	p := WarmPayload{MediaType: models.MediaTypeMovie, List: ListUpcoming}
	day := time.Date(2026, 10, 15, 23, 30, 0, 0, time.UTC)
	assert.Equal(t, "catalog:warm:movie:upcoming:2026-10-15", p.TaskID(day))
}

func TestDefaultWarmListsAreValid(t *testing.T) {
	for _, p := range DefaultWarmLists {
		assert.NoError(t, p.Validate(), "%+v", p)
	}
}
