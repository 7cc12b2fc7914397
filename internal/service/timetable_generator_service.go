package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/noah-isme/sma-timetable-api/internal/dto"
	"github.com/noah-isme/sma-timetable-api/internal/models"
	"github.com/noah-isme/sma-timetable-api/internal/scheduler"
	appErrors "github.com/noah-isme/sma-timetable-api/pkg/errors"
	"github.com/noah-isme/sma-timetable-api/pkg/middleware/requestid"
)

type timetableRunner interface {
	Run(ctx context.Context, in scheduler.Input) *scheduler.Result
	Options() scheduler.Options
}

type publishedTimetableLister interface {
	ListAll(ctx context.Context) ([]models.PublishedTimetable, error)
}

// TimetableGeneratorConfig governs generation requests.
type TimetableGeneratorConfig struct {
	Timeout          time.Duration
	IncludePublished bool
}

// TimetableGeneratorService validates payloads, merges published timetables
// into the external conflict set and runs the scheduler under a deadline.
type TimetableGeneratorService struct {
	runner    timetableRunner
	published publishedTimetableLister
	cache     *CacheService
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
	cfg       TimetableGeneratorConfig
	flights   singleflight.Group

	lifetime   context.Context
	cancelRuns context.CancelFunc
}

// NewTimetableGeneratorService wires generator dependencies. published and
// cache may be nil when persistence or caching is disabled.
func NewTimetableGeneratorService(
	runner timetableRunner,
	published publishedTimetableLister,
	cache *CacheService,
	metrics *MetricsService,
	validate *validator.Validate,
	logger *zap.Logger,
	cfg TimetableGeneratorConfig,
) *TimetableGeneratorService {
	if validate == nil {
		validate = dto.NewValidator()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 20 * time.Second
	}
	lifetime, cancelRuns := context.WithCancel(context.Background())
	return &TimetableGeneratorService{
		runner:     runner,
		published:  published,
		cache:      cache,
		metrics:    metrics,
		validator:  validate,
		logger:     logger,
		cfg:        cfg,
		lifetime:   lifetime,
		cancelRuns: cancelRuns,
	}
}

// Close interrupts runs still in progress. They return their partial result,
// which is never cached. Generate keeps working after Close but its shared
// runs stop at the first deadline check.
func (s *TimetableGeneratorService) Close() {
	s.cancelRuns()
}

// Generate produces a timetable for every cohort in the request. Allocation
// shortfalls are reported inside the result; an error is returned only for
// malformed payloads or infrastructure failures.
func (s *TimetableGeneratorService) Generate(ctx context.Context, req dto.GenerateTimetableRequest) (*scheduler.Result, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, "invalid timetable generation payload")
	}

	in := req.ToInput()
	if s.cfg.IncludePublished && s.published != nil {
		saved, err := s.publishedOracle(ctx, req)
		if err != nil {
			return nil, err
		}
		in.SavedTimetables = append(in.SavedTimetables, saved...)
	}

	key, err := GenerationKey(in, s.runner.Options())
	if err != nil {
		s.logger.Warn("generation key failed", zap.Error(err))
		return s.run(ctx, in), nil
	}
	if cached, ok := s.cache.Lookup(ctx, key); ok {
		s.metrics.ObserveGeneration(cached, GenerationSourceCache, 0)
		s.logger.Debug("generation served from cache", zap.String("run_id", cached.Stats.RunID))
		return cached, nil
	}

	// Identical concurrent requests share one run. It ignores the
	// cancellation of whichever caller started it and stops only on Close.
	shared, _, dup := s.flights.Do(key, func() (interface{}, error) {
		detached, cancel := context.WithCancel(context.WithoutCancel(ctx))
		defer cancel()
		stop := context.AfterFunc(s.lifetime, cancel)
		defer stop()

		result := s.run(detached, in)
		s.cache.Store(detached, key, result)
		return result, nil
	})
	result := shared.(*scheduler.Result)
	if dup {
		s.logger.Debug("generation shared with a concurrent request", zap.String("run_id", result.Stats.RunID))
	}
	return result, nil
}

func (s *TimetableGeneratorService) run(ctx context.Context, in scheduler.Input) *scheduler.Result {
	runCtx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	runID := uuid.NewString()
	logger := s.logger.With(zap.String("run_id", runID))
	if reqID := requestid.FromContext(ctx); reqID != "" {
		logger = logger.With(zap.String("request_id", reqID))
	}
	started := time.Now()
	result := s.runner.Run(runCtx, in)
	duration := time.Since(started)

	result.Stats.RunID = runID
	if result.Stats.BudgetExhausted {
		switch {
		case errors.Is(runCtx.Err(), context.DeadlineExceeded):
			result.Warnings = append(result.Warnings, fmt.Sprintf("Generation timed out after %s; the result may be incomplete", s.cfg.Timeout))
		case errors.Is(runCtx.Err(), context.Canceled):
			result.Warnings = append(result.Warnings, "Generation interrupted by shutdown; the result may be incomplete")
		}
	}
	s.metrics.ObserveGeneration(result, GenerationSourceRun, duration)

	fields := []zap.Field{
		zap.String("status", string(result.Status)),
		zap.Int("years", len(in.Years)),
		zap.Int("unallocated", len(result.Unallocated)),
		zap.Int("attempts", result.Stats.Attempts),
		zap.Duration("duration", duration),
	}
	if result.Status == scheduler.StatusError {
		logger.Warn("timetable generation rejected", append(fields, zap.Strings("critical_issues", result.CriticalIssues))...)
	} else {
		logger.Info("timetable generated", fields...)
	}
	return result
}

// publishedOracle loads published timetables, skipping the cohorts this
// request regenerates so a cohort never clashes with its own old timetable.
func (s *TimetableGeneratorService) publishedOracle(ctx context.Context, req dto.GenerateTimetableRequest) ([]scheduler.SavedTimetable, error) {
	records, err := s.published.ListAll(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load published timetables")
	}

	regenerated := make(map[string]struct{})
	for _, c := range req.Cohorts() {
		regenerated[cohortKey(req.Department, c.Year, strconv.Itoa(c.Division))] = struct{}{}
	}

	saved := make([]scheduler.SavedTimetable, 0, len(records))
	for _, record := range records {
		if _, skip := regenerated[cohortKey(record.Department, record.Year, record.Division)]; skip {
			continue
		}
		tt, err := record.Saved()
		if err != nil {
			s.logger.Warn("skipping unreadable published timetable", zap.String("id", record.ID), zap.Error(err))
			continue
		}
		saved = append(saved, tt)
	}
	return saved, nil
}

func cohortKey(department, year, division string) string {
	return department + "|" + year + "|" + division
}
