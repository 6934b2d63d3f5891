package usermedia

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/davidduclam/movietracker/internal/apperr"
	"github.com/davidduclam/movietracker/internal/httputil"
	"github.com/davidduclam/movietracker/internal/models"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Register(r chi.Router) {
	r.Post("/users/{id}/media", h.add)
	r.Get("/users/{id}/media", h.list)
	r.Patch("/users/{id}/media/{mediaID}", h.update)
	r.Delete("/users/{id}/media/{mediaID}", h.remove)
}

type addRequest struct {
	TmdbID    *int64           `json:"tmdbId"`
	MediaType models.MediaType `json:"mediaType"`
}

// validate reports the first missing field in body order.
func (req addRequest) validate() error {
	if req.TmdbID == nil {
		return apperr.Validation("tmdbId", "tmdbId is required")
	}
	if *req.TmdbID <= 0 {
		return apperr.Validation("tmdbId", "tmdbId must be positive")
	}
	if req.MediaType == "" {
		return apperr.Validation("mediaType", "mediaType is required")
	}
	return nil
}

func (h *Handler) add(w http.ResponseWriter, r *http.Request) {
	userID, err := httputil.PathID(r, "id")
	if err != nil {
		httputil.WriteServiceError(w, r, err)
		return
	}

	var req addRequest
	if err := httputil.ReadJSON(r, &req); err != nil {
		httputil.WriteServiceError(w, r, err)
		return
	}
	if err := req.validate(); err != nil {
		httputil.WriteServiceError(w, r, err)
		return
	}

	link, err := h.svc.AddMediaToUser(r.Context(), userID, *req.TmdbID, req.MediaType)
	if err != nil {
		httputil.WriteServiceError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, link)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	userID, err := httputil.PathID(r, "id")
	if err != nil {
		httputil.WriteServiceError(w, r, err)
		return
	}
	links, err := h.svc.ListUserMedia(r.Context(), userID)
	if err != nil {
		httputil.WriteServiceError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, links)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	userID, err := httputil.PathID(r, "id")
	if err != nil {
		httputil.WriteServiceError(w, r, err)
		return
	}
	id, err := httputil.PathID(r, "mediaID")
	if err != nil {
		httputil.WriteServiceError(w, r, err)
		return
	}

	var patch Patch
	if err := httputil.ReadJSON(r, &patch); err != nil {
		httputil.WriteServiceError(w, r, err)
		return
	}

	link, err := h.svc.UpdateUserMedia(r.Context(), userID, id, patch)
	if err != nil {
		httputil.WriteServiceError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, link)
}

func (h *Handler) remove(w http.ResponseWriter, r *http.Request) {
	userID, err := httputil.PathID(r, "id")
	if err != nil {
		httputil.WriteServiceError(w, r, err)
		return
	}
	id, err := httputil.PathID(r, "mediaID")
	if err != nil {
		httputil.WriteServiceError(w, r, err)
		return
	}

	if err := h.svc.RemoveMediaFromUser(r.Context(), userID, id); err != nil {
		httputil.WriteServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
