package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/davidduclam/movietracker/internal/jobs"
	"github.com/davidduclam/movietracker/internal/models"
)

type fakeQueue struct {
	ids  []string
	fail map[string]bool
}

func (q *fakeQueue) EnqueueUnique(ctx context.Context, taskType string, payload interface{}, uniqueID string, opts ...asynq.Option) (string, error) {
	if taskType != jobs.TaskCatalogWarm {
		return "", errors.New("unexpected task type")
	}
	if q.fail[uniqueID] {
		return "", errors.New("redis down")
	}
	q.ids = append(q.ids, uniqueID)
	return uniqueID, nil
}

func TestNewRejectsBadSchedule(t *testing.T) {
	_, err := New("every now and then", &fakeQueue{}, jobs.DefaultWarmLists, zerolog.Nop())
	assert.Error(t, err)
}

func TestNewAcceptsDescriptors(t *testing.T) {
	for _, expr := range []string{"@daily", "@every 6h", "0 4 * * *"} {
		_, err := New(expr, &fakeQueue{}, jobs.DefaultWarmLists, zerolog.Nop())
		assert.NoError(t, err, expr)
	}
}

func TestTriggerEnqueuesEachList(t *testing.T) {
	q := &fakeQueue{}
	s, err := New("@daily", q, jobs.DefaultWarmLists, zerolog.Nop())
	require.NoError(t, err)
	s.now = func() time.Time { return time.Date(2026, 1, 2, 3, 0, 0, 0, time.UTC) }

	n := s.Trigger(context.Background())
	assert.Equal(t, len(jobs.DefaultWarmLists), n)
	assert.Equal(t, []string{
		"catalog:warm:movie:popular:2026-01-02",
		"catalog:warm:movie:top_rated:2026-01-02",
		"catalog:warm:movie:upcoming:2026-01-02",
		"catalog:warm:tv:popular:2026-01-02",
		"catalog:warm:tv:top_rated:2026-01-02",
	}, q.ids)
}

func TestTriggerContinuesPastFailures(t *testing.T) {
	q := &fakeQueue{fail: map[string]bool{"catalog:warm:movie:popular:2026-01-02": true}}
	lists := []jobs.WarmPayload{
		{MediaType: models.MediaTypeMovie, List: jobs.ListPopular},
		{MediaType: models.MediaTypeTV, List: jobs.ListTopRated},
	}
	s, err := New("@daily", q, lists, zerolog.Nop())
	require.NoError(t, err)
	s.now = func() time.Time { return time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC) }

	assert.Equal(t, 1, s.Trigger(context.Background()))
	assert.Equal(t, []string{"catalog:warm:tv:top_rated:2026-01-02"}, q.ids)
}

func TestStartStop(t *testing.T) {
	s, err := New("@daily", &fakeQueue{}, nil, zerolog.Nop())
	require.NoError(t, err)
	s.Start()
	s.Stop()
}
