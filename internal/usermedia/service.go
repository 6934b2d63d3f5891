package usermedia

import (
	"context"
	"encoding/json"

	"github.com/rs/zerolog"

	"github.com/davidduclam/movietracker/internal/apperr"
	"github.com/davidduclam/movietracker/internal/models"
	"github.com/davidduclam/movietracker/internal/users"
)

var (
	ErrAlreadyLinked = apperr.Conflict("MEDIA_ALREADY_EXISTS", "media is already in this user's list")
	ErrLinkNotFound  = apperr.NotFound("USER_MEDIA_NOT_FOUND", "user media not found")
)

// Events broadcast after a successful commit.
const (
	EventAdded   = "user_media:added"
	EventUpdated = "user_media:updated"
	EventRemoved = "user_media:removed"
)

type UserChecker interface {
	Exists(ctx context.Context, id int64) (bool, error)
}

type MovieCatalog interface {
	FetchOrCreate(ctx context.Context, tmdbID int64) (*models.Movie, bool, error)
}

type ShowCatalog interface {
	FetchOrCreate(ctx context.Context, tmdbID int64) (*models.TvShow, bool, error)
}

type LinkStore interface {
	Exists(ctx context.Context, userID int64, mediaType models.MediaType, tmdbID int64) (bool, error)
	Insert(ctx context.Context, um *models.UserMedia) error
	ListByUser(ctx context.Context, userID int64) ([]models.UserMedia, error)
	Get(ctx context.Context, userID, id int64) (*models.UserMedia, error)
	Update(ctx context.Context, um *models.UserMedia) error
	Delete(ctx context.Context, userID, id int64) (bool, error)
}

// Repos are the stores visible inside one unit of work.
type Repos struct {
	Users  UserChecker
	Movies MovieCatalog
	Shows  ShowCatalog
	Links  LinkStore
}

// UnitOfWork runs fn atomically: either everything fn wrote is kept or
// nothing is.
type UnitOfWork interface {
	Run(ctx context.Context, fn func(r Repos) error) error
}

type EventNotifier interface {
	Broadcast(event string, data interface{})
}

type Service struct {
	uow      UnitOfWork
	notifier EventNotifier
	log      zerolog.Logger
}

func NewService(uow UnitOfWork, notifier EventNotifier, log zerolog.Logger) *Service {
	return &Service{uow: uow, notifier: notifier, log: log}
}

// AddMediaToUser caches the referenced movie or show if needed and links it
// to the user with default watch state.
func (s *Service) AddMediaToUser(ctx context.Context, userID, tmdbID int64, mediaType models.MediaType) (*models.UserMedia, error) {
	if tmdbID <= 0 {
		return nil, apperr.Validation("tmdbId", "tmdbId is required")
	}
	if !mediaType.Valid() {
		return nil, apperr.Validation("mediaType", "mediaType is required")
	}

	var link *models.UserMedia
	err := s.uow.Run(ctx, func(r Repos) error {
		if err := requireUser(ctx, r, userID); err != nil {
			return err
		}

		var err error
		switch mediaType {
		case models.MediaTypeMovie:
			_, _, err = r.Movies.FetchOrCreate(ctx, tmdbID)
		case models.MediaTypeTV:
			_, _, err = r.Shows.FetchOrCreate(ctx, tmdbID)
		}
		if err != nil {
			return err
		}

		exists, err := r.Links.Exists(ctx, userID, mediaType, tmdbID)
		if err != nil {
			return err
		}
		if exists {
			return ErrAlreadyLinked
		}

		link = &models.UserMedia{UserID: userID, TmdbID: tmdbID, MediaType: mediaType}
		return r.Links.Insert(ctx, link)
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().Int64("userId", userID).Int64("tmdbId", tmdbID).Str("mediaType", string(mediaType)).Msg("media added to user")
	s.broadcast(EventAdded, link)
	return link, nil
}

func (s *Service) ListUserMedia(ctx context.Context, userID int64) ([]models.UserMedia, error) {
	var out []models.UserMedia
	err := s.uow.Run(ctx, func(r Repos) error {
		if err := requireUser(ctx, r, userID); err != nil {
			return err
		}
		var err error
		out, err = r.Links.ListByUser(ctx, userID)
		return err
	})
	return out, err
}

// Patch holds the watch fields a client may change. Unset fields are left
// as they are; a null rating or date clears it.
type Patch struct {
	Watched        Optional[bool]        `json:"watched"`
	PersonalRating Optional[float64]     `json:"personalRating"`
	WatchDate      Optional[models.Date] `json:"watchDate"`
}

func (p Patch) Validate() error {
	if p.Watched.Set && p.Watched.Value == nil {
		return apperr.Validation("watched", "watched must be true or false")
	}
	if v := p.PersonalRating.Value; v != nil && (*v < 0 || *v > 10) {
		return apperr.Validation("personalRating", "personalRating must be between 0 and 10")
	}
	return nil
}

func (p Patch) apply(um *models.UserMedia) {
	if p.Watched.Set {
		um.Watched = *p.Watched.Value
	}
	if p.PersonalRating.Set {
		um.PersonalRating = p.PersonalRating.Value
	}
	if p.WatchDate.Set {
		um.WatchDate = p.WatchDate.Value
	}
}

func (s *Service) UpdateUserMedia(ctx context.Context, userID, id int64, patch Patch) (*models.UserMedia, error) {
	if err := patch.Validate(); err != nil {
		return nil, err
	}

	var link *models.UserMedia
	err := s.uow.Run(ctx, func(r Repos) error {
		if err := requireUser(ctx, r, userID); err != nil {
			return err
		}
		var err error
		link, err = r.Links.Get(ctx, userID, id)
		if err != nil {
			return err
		}
		if link == nil {
			return ErrLinkNotFound
		}
		patch.apply(link)
		return r.Links.Update(ctx, link)
	})
	if err != nil {
		return nil, err
	}

	s.broadcast(EventUpdated, link)
	return link, nil
}

func (s *Service) RemoveMediaFromUser(ctx context.Context, userID, id int64) error {
	err := s.uow.Run(ctx, func(r Repos) error {
		if err := requireUser(ctx, r, userID); err != nil {
			return err
		}
		deleted, err := r.Links.Delete(ctx, userID, id)
		if err != nil {
			return err
		}
		if !deleted {
			return ErrLinkNotFound
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.log.Info().Int64("userId", userID).Int64("userMediaId", id).Msg("media removed from user")
	s.broadcast(EventRemoved, map[string]int64{"id": id, "userId": userID})
	return nil
}

func requireUser(ctx context.Context, r Repos, userID int64) error {
	ok, err := r.Users.Exists(ctx, userID)
	if err != nil {
		return err
	}
	if !ok {
		return users.ErrNotFound
	}
	return nil
}

func (s *Service) broadcast(event string, data interface{}) {
	if s.notifier != nil {
		s.notifier.Broadcast(event, data)
	}
}

// Optional distinguishes a JSON field that is absent from one that is null.
type Optional[T any] struct {
	Set   bool
	Value *T
}

func (o *Optional[T]) UnmarshalJSON(b []byte) error {
	o.Set = true
	if string(b) == "null" {
		o.Value = nil
		return nil
	}
	var v T
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	o.Value = &v
	return nil
}
