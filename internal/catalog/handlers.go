package catalog

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/davidduclam/movietracker/internal/httputil"
)

type Handler struct {
	movies *MovieService
	shows  *ShowService
	search *SearchService
}

func NewHandler(movies *MovieService, shows *ShowService, search *SearchService) *Handler {
	return &Handler{movies: movies, shows: shows, search: search}
}

func (h *Handler) Register(r chi.Router) {
	r.Route("/movies", func(r chi.Router) {
		r.Get("/search", h.searchMovies)
		r.Get("/popular", h.popularMovies)
		r.Get("/top-rated", h.topRatedMovies)
		r.Get("/upcoming", h.upcomingMovies)
		r.Get("/cached", h.cachedMovies)
		r.Get("/{id}", h.movieDetails)
	})
	r.Route("/shows", func(r chi.Router) {
		r.Get("/search", h.searchShows)
		r.Get("/popular", h.popularShows)
		r.Get("/top-rated", h.topRatedShows)
		r.Get("/cached", h.cachedShows)
		r.Get("/{id}", h.showDetails)
	})
	r.Get("/search/multi", h.searchMulti)
}

// ──────────────────── Movies ────────────────────

func (h *Handler) searchMovies(w http.ResponseWriter, r *http.Request) {
	query, err := httputil.RequiredQuery(r, "query")
	if err != nil {
		httputil.WriteServiceError(w, r, err)
		return
	}
	results, err := h.movies.Search(r.Context(), query)
	respond(w, r, results, err)
}

func (h *Handler) movieDetails(w http.ResponseWriter, r *http.Request) {
	id, err := httputil.PathID(r, "id")
	if err != nil {
		httputil.WriteServiceError(w, r, err)
		return
	}
	d, err := h.movies.Details(r.Context(), id)
	respond(w, r, d, err)
}

func (h *Handler) popularMovies(w http.ResponseWriter, r *http.Request) {
	results, err := h.movies.Popular(r.Context())
	respond(w, r, results, err)
}

func (h *Handler) topRatedMovies(w http.ResponseWriter, r *http.Request) {
	results, err := h.movies.TopRated(r.Context())
	respond(w, r, results, err)
}

func (h *Handler) upcomingMovies(w http.ResponseWriter, r *http.Request) {
	results, err := h.movies.Upcoming(r.Context())
	respond(w, r, results, err)
}

func (h *Handler) cachedMovies(w http.ResponseWriter, r *http.Request) {
	movies, err := h.movies.List(r.Context())
	respond(w, r, movies, err)
}

// ──────────────────── TV Shows ────────────────────

func (h *Handler) searchShows(w http.ResponseWriter, r *http.Request) {
	query, err := httputil.RequiredQuery(r, "query")
	if err != nil {
		httputil.WriteServiceError(w, r, err)
		return
	}
	results, err := h.shows.Search(r.Context(), query)
	respond(w, r, results, err)
}

func (h *Handler) showDetails(w http.ResponseWriter, r *http.Request) {
	id, err := httputil.PathID(r, "id")
	if err != nil {
		httputil.WriteServiceError(w, r, err)
		return
	}
	d, err := h.shows.Details(r.Context(), id)
	respond(w, r, d, err)
}

func (h *Handler) popularShows(w http.ResponseWriter, r *http.Request) {
	results, err := h.shows.Popular(r.Context())
	respond(w, r, results, err)
}

func (h *Handler) topRatedShows(w http.ResponseWriter, r *http.Request) {
	results, err := h.shows.TopRated(r.Context())
	respond(w, r, results, err)
}

func (h *Handler) cachedShows(w http.ResponseWriter, r *http.Request) {
	shows, err := h.shows.List(r.Context())
	respond(w, r, shows, err)
}

// ──────────────────── Multi ────────────────────

func (h *Handler) searchMulti(w http.ResponseWriter, r *http.Request) {
	query, err := httputil.RequiredQuery(r, "query")
	if err != nil {
		httputil.WriteServiceError(w, r, err)
		return
	}
	results, err := h.search.SearchMulti(r.Context(), query)
	respond(w, r, results, err)
}

func respond(w http.ResponseWriter, r *http.Request, data interface{}, err error) {
	if err != nil {
		httputil.WriteServiceError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, data)
}
