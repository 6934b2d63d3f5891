package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/davidduclam/movietracker/internal/catalog"
	"github.com/davidduclam/movietracker/internal/config"
	"github.com/davidduclam/movietracker/internal/db"
	"github.com/davidduclam/movietracker/internal/httputil"
	"github.com/davidduclam/movietracker/internal/tmdb"
	"github.com/davidduclam/movietracker/internal/usermedia"
	"github.com/davidduclam/movietracker/internal/users"
	"github.com/davidduclam/movietracker/internal/version"
)

// Registrar mounts a domain's routes on the root router.
type Registrar interface {
	Register(r chi.Router)
}

// HealthCheck reports a dependency as unhealthy by returning an error.
type HealthCheck func(ctx context.Context) error

type Server struct {
	router      chi.Router
	wsHub       *WSHub
	movies      *catalog.MovieService
	shows       *catalog.ShowService
	dbCheck     HealthCheck
	redisCheck  HealthCheck
	corsOrigins []string
	log         zerolog.Logger
}

func NewServer(cfg *config.Config, database *db.DB, provider *tmdb.Client, rdb *redis.Client, log zerolog.Logger) *Server {
	movies := catalog.NewMovieService(provider, catalog.NewMovieRepository(database), log)
	shows := catalog.NewShowService(provider, catalog.NewShowRepository(database), log)
	search := catalog.NewSearchService(provider)

	wsHub := NewWSHub(log)
	linkSvc := usermedia.NewService(usermedia.NewSQLUnitOfWork(database, movies, shows), wsHub, log)

	s := &Server{
		wsHub:       wsHub,
		movies:      movies,
		shows:       shows,
		dbCheck:     database.PingContext,
		corsOrigins: cfg.CORSOrigins,
		log:         log,
	}
	if rdb != nil {
		s.redisCheck = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
	}
	s.setupRoutes(
		catalog.NewHandler(movies, shows, search),
		users.NewHandler(users.NewRepository(database)),
		usermedia.NewHandler(linkSvc),
	)
	return s
}

func (s *Server) WSHub() *WSHub {
	return s.wsHub
}

func (s *Server) Movies() *catalog.MovieService {
	return s.movies
}

func (s *Server) Shows() *catalog.ShowService {
	return s.shows
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupRoutes(domains ...Registrar) {
	r := chi.NewRouter()
	r.Use(requestLogger(s.log)...)
	r.Use(middleware.Recoverer)
	r.Use(securityHeaders)
	r.Use(cors(s.corsOrigins))

	r.Get("/health", s.handleHealth)
	r.Get("/ws", s.handleWebSocket)
	for _, d := range domains {
		d.Register(r)
	}

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		httputil.WriteError(w, http.StatusNotFound, "NOT_FOUND", "no route for "+r.Method+" "+r.URL.Path)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		httputil.WriteError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", r.Method+" is not allowed on "+r.URL.Path)
	})
	s.router = r
}

type healthResponse struct {
	Status   string `json:"status"`
	Version  string `json:"version"`
	Database string `json:"database"`
	Redis    string `json:"redis"`
}

// handleHealth answers 503 when the database is unreachable. A down redis
// only degrades background jobs, so it is reported but stays 200.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	resp := healthResponse{Status: "ok", Version: version.Load().Version, Database: "ok", Redis: "disabled"}
	status := http.StatusOK

	if err := s.dbCheck(ctx); err != nil {
		s.log.Warn().Err(err).Msg("health: database ping failed")
		resp.Database = "unavailable"
		resp.Status = "unavailable"
		status = http.StatusServiceUnavailable
	}
	if s.redisCheck != nil {
		resp.Redis = "ok"
		if err := s.redisCheck(ctx); err != nil {
			s.log.Warn().Err(err).Msg("health: redis ping failed")
			resp.Redis = "unavailable"
			if status == http.StatusOK {
				resp.Status = "degraded"
			}
		}
	}
	httputil.WriteJSON(w, status, resp)
}
