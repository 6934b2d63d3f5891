package users

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/hlog"

	"github.com/davidduclam/movietracker/internal/apperr"
	"github.com/davidduclam/movietracker/internal/httputil"
	"github.com/davidduclam/movietracker/internal/models"
)

var ErrNotFound = apperr.NotFound("USER_NOT_FOUND", "user not found")

type Store interface {
	Create(ctx context.Context) (*models.User, error)
	GetByID(ctx context.Context, id int64) (*models.User, error)
	List(ctx context.Context) ([]models.User, error)
	Delete(ctx context.Context, id int64) (bool, error)
}

type Handler struct {
	store Store
}

func NewHandler(store Store) *Handler {
	return &Handler{store: store}
}

func (h *Handler) Register(r chi.Router) {
	r.Post("/users", h.create)
	r.Get("/users", h.list)
	r.Get("/users/{id}", h.getByID)
	r.Delete("/users/{id}", h.delete)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	u, err := h.store.Create(r.Context())
	if err != nil {
		httputil.WriteServiceError(w, r, err)
		return
	}
	hlog.FromRequest(r).Info().Int64("userId", u.ID).Msg("user created")
	httputil.WriteJSON(w, http.StatusCreated, u)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	users, err := h.store.List(r.Context())
	if err != nil {
		httputil.WriteServiceError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, users)
}

func (h *Handler) getByID(w http.ResponseWriter, r *http.Request) {
	id, err := httputil.PathID(r, "id")
	if err != nil {
		httputil.WriteServiceError(w, r, err)
		return
	}
	u, err := h.store.GetByID(r.Context(), id)
	if err != nil {
		httputil.WriteServiceError(w, r, err)
		return
	}
	if u == nil {
		httputil.WriteServiceError(w, r, ErrNotFound)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, u)
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	id, err := httputil.PathID(r, "id")
	if err != nil {
		httputil.WriteServiceError(w, r, err)
		return
	}
	deleted, err := h.store.Delete(r.Context(), id)
	if err != nil {
		httputil.WriteServiceError(w, r, err)
		return
	}
	if !deleted {
		httputil.WriteServiceError(w, r, ErrNotFound)
		return
	}
	hlog.FromRequest(r).Info().Int64("userId", id).Msg("user deleted")
	w.WriteHeader(http.StatusNoContent)
}
