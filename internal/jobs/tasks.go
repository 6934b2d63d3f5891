package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"

	"github.com/davidduclam/movietracker/internal/models"
	"github.com/davidduclam/movietracker/internal/tmdb"
)

const TaskCatalogWarm = "catalog:warm"

const EventCatalogWarmed = "catalog:warmed"

// Provider lists that can be warmed.
const (
	ListPopular  = "popular"
	ListTopRated = "top_rated"
	ListUpcoming = "upcoming"
)

type WarmPayload struct {
	MediaType models.MediaType `json:"mediaType"`
	List      string           `json:"list"`
}

func (p WarmPayload) Validate() error {
	switch p.MediaType {
	case models.MediaTypeMovie:
		switch p.List {
		case ListPopular, ListTopRated, ListUpcoming:
			return nil
		}
	case models.MediaTypeTV:
		switch p.List {
		case ListPopular, ListTopRated:
			return nil
		}
	default:
		return fmt.Errorf("unknown media type %q", p.MediaType)
	}
	return fmt.Errorf("no %q list for %s", p.List, p.MediaType)
}

// TaskID is stable per payload and day so a schedule firing twice in a day
// queues one task.
func (p WarmPayload) TaskID(day time.Time) string {
	return fmt.Sprintf("%s:%s:%s:%s", TaskCatalogWarm, p.MediaType, p.List, day.UTC().Format(models.DateLayout))
}

// DefaultWarmLists are enqueued on every scheduled run.
var DefaultWarmLists = []WarmPayload{
	{MediaType: models.MediaTypeMovie, List: ListPopular},
	{MediaType: models.MediaTypeMovie, List: ListTopRated},
	{MediaType: models.MediaTypeMovie, List: ListUpcoming},
	{MediaType: models.MediaTypeTV, List: ListPopular},
	{MediaType: models.MediaTypeTV, List: ListTopRated},
}

type MovieWarmer interface {
	Popular(ctx context.Context) ([]tmdb.MovieSummary, error)
	TopRated(ctx context.Context) ([]tmdb.MovieSummary, error)
	Upcoming(ctx context.Context) ([]tmdb.MovieSummary, error)
	FetchOrCreate(ctx context.Context, tmdbID int64) (*models.Movie, bool, error)
}

type ShowWarmer interface {
	Popular(ctx context.Context) ([]tmdb.TvShowSummary, error)
	TopRated(ctx context.Context) ([]tmdb.TvShowSummary, error)
	FetchOrCreate(ctx context.Context, tmdbID int64) (*models.TvShow, bool, error)
}

type EventNotifier interface {
	Broadcast(event string, data interface{})
}

// WarmResult is broadcast when a warm task finishes.
type WarmResult struct {
	MediaType models.MediaType `json:"mediaType"`
	List      string           `json:"list"`
	Seen      int              `json:"seen"`
	Created   int              `json:"created"`
	Failed    int              `json:"failed"`
}

// WarmHandler caches the titles of a provider list that are not cached
// yet. Existing rows are left untouched.
type WarmHandler struct {
	movies   MovieWarmer
	shows    ShowWarmer
	limit    int
	notifier EventNotifier
	log      zerolog.Logger
}

func NewWarmHandler(movies MovieWarmer, shows ShowWarmer, limit int, notifier EventNotifier, log zerolog.Logger) *WarmHandler {
	return &WarmHandler{movies: movies, shows: shows, limit: limit, notifier: notifier, log: log}
}

func (h *WarmHandler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var p WarmPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return fmt.Errorf("unmarshal payload: %v: %w", err, asynq.SkipRetry)
	}
	if err := p.Validate(); err != nil {
		return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
	}

	ids, err := h.listIDs(ctx, p)
	if err != nil {
		return fmt.Errorf("fetch %s %s list: %w", p.MediaType, p.List, err)
	}
	if h.limit > 0 && len(ids) > h.limit {
		ids = ids[:h.limit]
	}

	res := WarmResult{MediaType: p.MediaType, List: p.List, Seen: len(ids)}
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return err
		}
		created, err := h.ensure(ctx, p.MediaType, id)
		if err != nil {
			res.Failed++
			h.log.Warn().Err(err).Int64("tmdbId", id).Str("mediaType", string(p.MediaType)).Msg("warm item failed")
			continue
		}
		if created {
			res.Created++
		}
	}

	h.log.Info().
		Str("mediaType", string(p.MediaType)).
		Str("list", p.List).
		Int("seen", res.Seen).
		Int("created", res.Created).
		Int("failed", res.Failed).
		Msg("catalog warm finished")
	if h.notifier != nil {
		h.notifier.Broadcast(EventCatalogWarmed, res)
	}
	return nil
}

func (h *WarmHandler) listIDs(ctx context.Context, p WarmPayload) ([]int64, error) {
	if p.MediaType == models.MediaTypeTV {
		var list []tmdb.TvShowSummary
		var err error
		switch p.List {
		case ListPopular:
			list, err = h.shows.Popular(ctx)
		case ListTopRated:
			list, err = h.shows.TopRated(ctx)
		}
		if err != nil {
			return nil, err
		}
		ids := make([]int64, 0, len(list))
		for _, s := range list {
			ids = append(ids, s.ID)
		}
		return ids, nil
	}

	var list []tmdb.MovieSummary
	var err error
	switch p.List {
	case ListPopular:
		list, err = h.movies.Popular(ctx)
	case ListTopRated:
		list, err = h.movies.TopRated(ctx)
	case ListUpcoming:
		list, err = h.movies.Upcoming(ctx)
	}
	if err != nil {
		return nil, err
	}
	ids := make([]int64, 0, len(list))
	for _, m := range list {
		ids = append(ids, m.ID)
	}
	return ids, nil
}

func (h *WarmHandler) ensure(ctx context.Context, mt models.MediaType, tmdbID int64) (bool, error) {
	if mt == models.MediaTypeTV {
		_, created, err := h.shows.FetchOrCreate(ctx, tmdbID)
		return created, err
	}
	_, created, err := h.movies.FetchOrCreate(ctx, tmdbID)
	return created, err
}
