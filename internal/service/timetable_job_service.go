package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-timetable-api/internal/dto"
	"github.com/noah-isme/sma-timetable-api/internal/models"
	"github.com/noah-isme/sma-timetable-api/internal/scheduler"
	appErrors "github.com/noah-isme/sma-timetable-api/pkg/errors"
	"github.com/noah-isme/sma-timetable-api/pkg/jobs"
	"github.com/noah-isme/sma-timetable-api/pkg/middleware/requestid"
)

type timetableGenerator interface {
	Generate(ctx context.Context, req dto.GenerateTimetableRequest) (*scheduler.Result, error)
}

// TimetableJobConfig governs the asynchronous generation queue.
type TimetableJobConfig struct {
	Workers    int
	BufferSize int
	ResultTTL  time.Duration
}

// TimetableJobService runs generation requests on a worker pool and keeps
// their results for polling until they expire.
type TimetableJobService struct {
	generator timetableGenerator
	queue     *jobs.Queue[dto.GenerateTimetableRequest]
	store     *generationJobStore
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewTimetableJobService builds the service and its queue. Call Start before
// submitting jobs.
func NewTimetableJobService(generator timetableGenerator, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger, cfg TimetableJobConfig) *TimetableJobService {
	if validate == nil {
		validate = dto.NewValidator()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ResultTTL <= 0 {
		cfg.ResultTTL = 30 * time.Minute
	}
	svc := &TimetableJobService{
		generator: generator,
		store:     newGenerationJobStore(cfg.ResultTTL),
		metrics:   metrics,
		validator: validate,
		logger:    logger,
	}
	svc.queue = jobs.New("timetable-generation", svc.process, jobs.Config{
		Workers:    cfg.Workers,
		BufferSize: cfg.BufferSize,
		Logger:     logger,
	})
	svc.queue.OnDiscard(svc.discard)
	return svc
}

// Start launches the workers.
func (s *TimetableJobService) Start(ctx context.Context) {
	s.queue.Start(ctx)
}

// Stop cancels running jobs and waits for the workers to exit. Jobs that
// never reached a worker are marked failed.
func (s *TimetableJobService) Stop() {
	s.queue.Stop()
}

// Submit validates the payload and queues it.
func (s *TimetableJobService) Submit(ctx context.Context, req dto.GenerateTimetableRequest, submittedBy string) (*models.GenerationJob, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, "invalid timetable generation payload")
	}

	job := models.GenerationJob{
		ID:         uuid.NewString(),
		Status:     models.GenerationJobQueued,
		Department: req.Department,
		CreatedBy:  submittedBy,
		RequestID:  requestid.FromContext(ctx),
		CreatedAt:  s.store.now().UTC(),
	}
	s.store.Save(job)

	if err := s.queue.Enqueue(jobs.Job[dto.GenerateTimetableRequest]{ID: job.ID, Payload: req}); err != nil {
		s.store.Delete(job.ID)
		if errors.Is(err, jobs.ErrQueueFull) {
			return nil, appErrors.Clone(appErrors.ErrTooManyRequests, "generation queue is full, retry later")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrUnavailable.Code, appErrors.ErrUnavailable.Status, "generation queue unavailable")
	}
	s.metrics.JobQueued()
	s.logger.Info("generation job queued",
		zap.String("job_id", job.ID),
		zap.String("department", req.Department),
		zap.String("request_id", job.RequestID),
	)
	return &job, nil
}

// Get returns the job state, including the result once completed.
func (s *TimetableJobService) Get(ctx context.Context, id string) (*models.GenerationJob, error) {
	job, ok := s.store.Get(id)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "generation job not found or expired")
	}
	return &job, nil
}

func (s *TimetableJobService) process(ctx context.Context, job jobs.Job[dto.GenerateTimetableRequest]) error {
	defer s.metrics.JobFinished()

	var reqID string
	s.store.Update(job.ID, func(j *models.GenerationJob) {
		started := s.store.now().UTC()
		j.Status = models.GenerationJobRunning
		j.StartedAt = &started
		reqID = j.RequestID
	})
	if reqID != "" {
		ctx = requestid.WithID(ctx, reqID)
	}

	result, err := s.generator.Generate(ctx, job.Payload)
	s.finish(job.ID, result, err)
	return nil
}

func (s *TimetableJobService) discard(job jobs.Job[dto.GenerateTimetableRequest]) {
	s.metrics.JobFinished()
	s.finish(job.ID, nil, appErrors.Clone(appErrors.ErrUnavailable, "generation cancelled by shutdown"))
}

func (s *TimetableJobService) finish(id string, result *scheduler.Result, err error) {
	s.store.Update(id, func(j *models.GenerationJob) {
		finished := s.store.now().UTC()
		j.FinishedAt = &finished
		if err != nil {
			j.Status = models.GenerationJobFailed
			j.Error = appErrors.FromError(err).Message
			return
		}
		j.Status = models.GenerationJobCompleted
		j.Result = result
	})
	if err != nil {
		s.logger.Warn("generation job failed", zap.String("job_id", id), zap.Error(err))
		return
	}
	s.logger.Info("generation job completed", zap.String("job_id", id), zap.String("status", string(result.Status)))
}

type generationJobStore struct {
	ttl   time.Duration
	now   func() time.Time
	mu    sync.RWMutex
	items map[string]models.GenerationJob
}

func newGenerationJobStore(ttl time.Duration) *generationJobStore {
	return &generationJobStore{
		ttl:   ttl,
		now:   time.Now,
		items: make(map[string]models.GenerationJob),
	}
}

func (s *generationJobStore) Save(job models.GenerationJob) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.evictLocked()
	s.items[job.ID] = job
}

func (s *generationJobStore) Get(id string) (models.GenerationJob, bool) {
	s.mu.RLock()
	job, ok := s.items[id]
	s.mu.RUnlock()
	if !ok {
		return models.GenerationJob{}, false
	}
	if s.expired(job) {
		s.Delete(id)
		return models.GenerationJob{}, false
	}
	return job, true
}

func (s *generationJobStore) Update(id string, mutate func(*models.GenerationJob)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.items[id]
	if !ok {
		return
	}
	mutate(&job)
	s.items[id] = job
}

func (s *generationJobStore) Delete(id string) {
	s.mu.Lock()
	delete(s.items, id)
	s.mu.Unlock()
}

// expired measures age from completion for finished jobs and from
// submission otherwise.
func (s *generationJobStore) expired(job models.GenerationJob) bool {
	ref := job.CreatedAt
	if job.FinishedAt != nil {
		ref = *job.FinishedAt
	}
	return s.now().Sub(ref) > s.ttl
}

func (s *generationJobStore) evictLocked() {
	for id, job := range s.items {
		if job.Terminal() && s.expired(job) {
			delete(s.items, id)
		}
	}
}
