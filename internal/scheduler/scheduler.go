// Package scheduler builds weekly class timetables with a phased greedy
// allocator. A run is a pure computation over its Input: all state is created
// per call and discarded afterwards, so concurrent runs never interact.
package scheduler

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Scheduler runs timetable generation with fixed options.
type Scheduler struct {
	opts   Options
	logger *zap.Logger
}

// New constructs a Scheduler. A nil logger is replaced with a no-op logger.
func New(opts Options, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scheduler{opts: opts, logger: logger}
}

// faultMessage is the only detail a caller sees about an internal fault.
const faultMessage = "System error: timetable generation failed unexpectedly"

// Options returns the options every run uses.
func (s *Scheduler) Options() Options {
	return s.opts
}

// Run validates the input and executes theory, continuous lab, practical and
// fallback phases in order. It never panics; unexpected faults become a
// status=error result.
func (s *Scheduler) Run(ctx context.Context, in Input) (res *Result) {
	started := time.Now()
	defer s.recoverFault(&res)

	calendars, issues := buildCalendars(in.Years, s.opts)
	issues = append(issues, validateResources(in, calendars)...)
	if len(issues) > 0 {
		s.logger.Warn("timetable input rejected", zap.Strings("issues", issues))
		return ErrorResult(issues)
	}

	e := newEngine(ctx, in, calendars, s.opts, s.logger)
	pools := BuildPools(in.Years)

	e.allocateTheory(pools.Theory)
	e.logPhase(phaseTheory)
	e.allocateLabs(pools.Labs)
	e.logPhase(phaseLabs)
	e.allocatePracticals(pools.Practicals)
	e.logPhase(phasePracticals)

	leftovers := make([]*Requirement, 0, len(pools.Theory)+len(pools.Practicals))
	leftovers = append(leftovers, pools.Theory...)
	leftovers = append(leftovers, pools.Practicals...)
	e.sweep(leftovers)
	e.logPhase(phaseFallback)

	res = e.assemble(pools, started)
	s.logger.Info("timetable run finished",
		zap.String("status", string(res.Status)),
		zap.Int("requirements", res.Stats.Requirements),
		zap.Int("unallocated", len(res.Unallocated)),
		zap.Int("attempts", res.Stats.Attempts),
		zap.Int64("duration_ms", res.Stats.DurationMillis),
	)
	return res
}

// recoverFault turns a panic into a status=error result. The panic value is
// logged and never returned.
func (s *Scheduler) recoverFault(res **Result) {
	if r := recover(); r != nil {
		s.logger.Error("timetable run panicked", zap.Any("panic", r), zap.Stack("stack"))
		*res = ErrorResult([]string{faultMessage})
	}
}
