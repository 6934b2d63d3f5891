package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/davidduclam/movietracker/internal/jobs"
)

// Enqueuer is the slice of the job queue the scheduler needs.
type Enqueuer interface {
	EnqueueUnique(ctx context.Context, taskType string, payload interface{}, uniqueID string, opts ...asynq.Option) (string, error)
}

// Scheduler enqueues catalog warm tasks on a cron expression.
type Scheduler struct {
	cron  *cron.Cron
	queue Enqueuer
	lists []jobs.WarmPayload
	now   func() time.Time
	log   zerolog.Logger
}

// New parses schedule (standard five-field cron or a descriptor like @daily)
// and registers the warm run. It does not start the cron loop.
func New(schedule string, queue Enqueuer, lists []jobs.WarmPayload, log zerolog.Logger) (*Scheduler, error) {
	s := &Scheduler{
		cron:  cron.New(),
		queue: queue,
		lists: lists,
		now:   time.Now,
		log:   log,
	}
	if _, err := s.cron.AddFunc(schedule, s.run); err != nil {
		return nil, fmt.Errorf("invalid warm schedule %q: %w", schedule, err)
	}
	return s, nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
	s.log.Info().Int("lists", len(s.lists)).Msg("warm scheduler started")
}

// Stop waits for a running enqueue to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.log.Info().Msg("warm scheduler stopped")
}

func (s *Scheduler) run() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	s.Trigger(ctx)
}

// Trigger enqueues every configured list once. Lists already queued for
// today are skipped by the queue.
func (s *Scheduler) Trigger(ctx context.Context) int {
	day := s.now()
	queued := 0
	for _, p := range s.lists {
		id, err := s.queue.EnqueueUnique(ctx, jobs.TaskCatalogWarm, p, p.TaskID(day))
		if err != nil {
			s.log.Error().Err(err).Str("mediaType", string(p.MediaType)).Str("list", p.List).Msg("enqueue warm task")
			continue
		}
		queued++
		s.log.Debug().Str("taskId", id).Msg("warm task enqueued")
	}
	return queued
}
