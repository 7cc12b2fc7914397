package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-timetable-api/internal/dto"
	"github.com/noah-isme/sma-timetable-api/internal/models"
	"github.com/noah-isme/sma-timetable-api/internal/scheduler"
	appErrors "github.com/noah-isme/sma-timetable-api/pkg/errors"
	"github.com/noah-isme/sma-timetable-api/pkg/middleware/requestid"
)

type generatorFunc func(ctx context.Context, req dto.GenerateTimetableRequest) (*scheduler.Result, error)

func (f generatorFunc) Generate(ctx context.Context, req dto.GenerateTimetableRequest) (*scheduler.Result, error) {
	return f(ctx, req)
}

func startJobService(t *testing.T, gen timetableGenerator) *TimetableJobService {
	svc := NewTimetableJobService(gen, NewMetricsService(), nil, nil, TimetableJobConfig{Workers: 1})
	svc.Start(context.Background())
	t.Cleanup(svc.Stop)
	return svc
}

func waitForJob(t *testing.T, svc *TimetableJobService, id string) *models.GenerationJob {
	var job *models.GenerationJob
	require.Eventually(t, func() bool {
		got, err := svc.Get(context.Background(), id)
		if err != nil {
			return false
		}
		job = got
		return got.Terminal()
	}, 2*time.Second, 10*time.Millisecond)
	return job
}

func TestTimetableJobServiceCompletesJob(t *testing.T) {
	seenRequestID := make(chan string, 1)
	svc := startJobService(t, generatorFunc(func(ctx context.Context, req dto.GenerateTimetableRequest) (*scheduler.Result, error) {
		seenRequestID <- requestid.FromContext(ctx)
		return &scheduler.Result{Status: scheduler.StatusPartial}, nil
	}))

	job, err := svc.Submit(requestid.WithID(context.Background(), "req-42"), mathPayload(), "admin-1")
	require.NoError(t, err)
	assert.Equal(t, models.GenerationJobQueued, job.Status)
	assert.Equal(t, "admin-1", job.CreatedBy)
	assert.Equal(t, "req-42", job.RequestID)

	done := waitForJob(t, svc, job.ID)
	assert.Equal(t, models.GenerationJobCompleted, done.Status)
	require.NotNil(t, done.Result)
	assert.Equal(t, scheduler.StatusPartial, done.Result.Status)
	assert.NotNil(t, done.StartedAt)
	assert.NotNil(t, done.FinishedAt)
	assert.Equal(t, "req-42", <-seenRequestID)
}

func TestTimetableJobServiceRecordsFailure(t *testing.T) {
	svc := startJobService(t, generatorFunc(func(ctx context.Context, req dto.GenerateTimetableRequest) (*scheduler.Result, error) {
		return nil, appErrors.Wrap(errors.New("db down"), appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load published timetables")
	}))

	job, err := svc.Submit(context.Background(), mathPayload(), "")
	require.NoError(t, err)

	done := waitForJob(t, svc, job.ID)
	assert.Equal(t, models.GenerationJobFailed, done.Status)
	assert.Equal(t, "failed to load published timetables", done.Error)
	assert.Nil(t, done.Result)
}

func TestTimetableJobServiceValidatesBeforeQueueing(t *testing.T) {
	svc := startJobService(t, generatorFunc(func(ctx context.Context, req dto.GenerateTimetableRequest) (*scheduler.Result, error) {
		t.Fatal("generator must not run")
		return nil, nil
	}))

	_, err := svc.Submit(context.Background(), dto.GenerateTimetableRequest{}, "")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestTimetableJobServiceUnknownJob(t *testing.T) {
	svc := NewTimetableJobService(nil, nil, nil, nil, TimetableJobConfig{})

	_, err := svc.Get(context.Background(), "missing")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestGenerationJobStoreExpiresFinishedJobs(t *testing.T) {
	store := newGenerationJobStore(time.Minute)
	now := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }

	finished := now
	store.Save(models.GenerationJob{ID: "done", Status: models.GenerationJobCompleted, CreatedAt: now, FinishedAt: &finished})
	store.Save(models.GenerationJob{ID: "queued", Status: models.GenerationJobQueued, CreatedAt: now})

	now = now.Add(30 * time.Second)
	_, ok := store.Get("done")
	assert.True(t, ok)

	now = now.Add(time.Minute)
	_, ok = store.Get("done")
	assert.False(t, ok)

	store.Save(models.GenerationJob{ID: "fresh", Status: models.GenerationJobQueued, CreatedAt: now})
	store.mu.RLock()
	_, queuedKept := store.items["queued"]
	store.mu.RUnlock()
	assert.True(t, queuedKept)
}

func TestTimetableJobServiceFailsPendingJobsOnStop(t *testing.T) {
	running := make(chan struct{})
	svc := NewTimetableJobService(generatorFunc(func(ctx context.Context, req dto.GenerateTimetableRequest) (*scheduler.Result, error) {
		close(running)
		<-ctx.Done()
		return nil, ctx.Err()
	}), NewMetricsService(), nil, nil, TimetableJobConfig{Workers: 1, BufferSize: 2})
	svc.Start(context.Background())

	first, err := svc.Submit(context.Background(), mathPayload(), "")
	require.NoError(t, err)
	<-running
	pending, err := svc.Submit(context.Background(), mathPayload(), "")
	require.NoError(t, err)

	svc.Stop()

	got, err := svc.Get(context.Background(), pending.ID)
	require.NoError(t, err)
	assert.Equal(t, models.GenerationJobFailed, got.Status)
	assert.Equal(t, "generation cancelled by shutdown", got.Error)

	got, err = svc.Get(context.Background(), first.ID)
	require.NoError(t, err)
	assert.Equal(t, models.GenerationJobFailed, got.Status)
}
