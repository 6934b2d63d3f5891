package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/davidduclam/movietracker/internal/api"
	"github.com/davidduclam/movietracker/internal/config"
	"github.com/davidduclam/movietracker/internal/db"
	"github.com/davidduclam/movietracker/internal/jobs"
	"github.com/davidduclam/movietracker/internal/logging"
	"github.com/davidduclam/movietracker/internal/scheduler"
	"github.com/davidduclam/movietracker/internal/tmdb"
	"github.com/davidduclam/movietracker/internal/version"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML config file (defaults to $CONFIG_FILE)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		bootLog := logging.New("info", "json")
		bootLog.Fatal().Err(err).Msg("load config")
	}
	log := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid config")
	}
	log.Info().Str("version", version.Load().Version).Msg("movietracker starting")

	ctx := context.Background()

	database, err := db.Connect(ctx, cfg.DatabaseURL, cfg.DBMaxOpen, cfg.DBMaxIdle)
	if err != nil {
		log.Fatal().Err(err).Msg("database connection failed")
	}
	defer database.Close()

	if err := db.Migrate(ctx, database, logging.Component(log, "migrate")); err != nil {
		log.Fatal().Err(err).Msg("migration failed")
	}

	provider := tmdb.NewClient(cfg.TMDB.APIToken, logging.Component(log, "tmdb"),
		tmdb.WithBaseURL(cfg.TMDB.BaseURL),
		tmdb.WithLanguage(cfg.TMDB.Language),
		tmdb.WithHTTPClient(&http.Client{Timeout: cfg.TMDB.Timeout}),
		tmdb.WithRateLimit(cfg.TMDB.RateLimit, cfg.TMDB.RateBurst),
	)

	var rdb *redis.Client
	if cfg.JobsEnabled() {
		rdb = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		defer rdb.Close()
	}

	srv := api.NewServer(cfg, database, provider, rdb, logging.Component(log, "http"))

	var (
		queue *jobs.Queue
		sched *scheduler.Scheduler
	)
	if cfg.JobsEnabled() {
		queue, sched = startJobs(cfg, srv, log)
	} else {
		log.Info().Msg("REDIS_ADDR not set, background jobs disabled")
	}

	httpServer := &http.Server{
		Addr:         ":" + strconv.Itoa(cfg.Port),
		Handler:      srv,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 0,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Int("port", cfg.Port).Msg("listening")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http shutdown")
	}
	if sched != nil {
		sched.Stop()
	}
	if queue != nil {
		queue.Stop()
	}
}

func startJobs(cfg *config.Config, srv *api.Server, log zerolog.Logger) (*jobs.Queue, *scheduler.Scheduler) {
	queue := jobs.NewQueue(cfg.RedisAddr, logging.Component(log, "jobs"))
	queue.RegisterHandler(jobs.TaskCatalogWarm,
		jobs.NewWarmHandler(srv.Movies(), srv.Shows(), cfg.WarmLimit, srv.WSHub(), logging.Component(log, "warm")))
	if err := queue.Start(); err != nil {
		log.Fatal().Err(err).Msg("start job queue")
	}

	if cfg.WarmSchedule == "" {
		return queue, nil
	}
	sched, err := scheduler.New(cfg.WarmSchedule, queue, jobs.DefaultWarmLists, logging.Component(log, "scheduler"))
	if err != nil {
		log.Fatal().Err(err).Msg("warm scheduler")
	}
	sched.Start()
	return queue, sched
}
