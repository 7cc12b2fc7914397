package scheduler

import (
	"context"
	"fmt"
	"math/rand"
	"sort"

	"go.uber.org/zap"
)

// engine is the mutable state of exactly one run. Nothing in it outlives Run.
type engine struct {
	ctx       context.Context
	in        Input
	opts      Options
	logger    *zap.Logger
	years     map[string]YearConfig
	calendars map[string][]TimeSlot
	grids     *Grids
	checker   *checker
	rng       *rand.Rand

	qualified map[string][]Teacher
	maxLoad   map[string]int
	// load is one cumulative counter per teacher and day shared by every phase.
	load map[string]map[string]int

	attempts  int
	exhausted bool

	labFailures  map[*Requirement]*Conflict
	slotFailures map[*Requirement]*Conflict
	placed       map[string]int
}

func newEngine(ctx context.Context, in Input, calendars map[string][]TimeSlot, opts Options, logger *zap.Logger) *engine {
	e := &engine{
		ctx:          ctx,
		in:           in,
		opts:         opts,
		logger:       logger,
		years:        make(map[string]YearConfig, len(in.Years)),
		calendars:    calendars,
		grids:        NewGrids(in.Years, calendars, in.Teachers, in.Rooms),
		rng:          rand.New(rand.NewSource(opts.Seed)),
		qualified:    make(map[string][]Teacher),
		maxLoad:      make(map[string]int, len(in.Teachers)),
		load:         make(map[string]map[string]int, len(in.Teachers)),
		labFailures:  make(map[*Requirement]*Conflict),
		slotFailures: make(map[*Requirement]*Conflict),
		placed:       make(map[string]int),
	}
	e.checker = &checker{
		grids:              e.grids,
		published:          NewPublishedIndex(in.SavedTimetables),
		checkRoomConflicts: opts.CheckRoomConflicts,
	}
	for _, y := range in.Years {
		e.years[y.Name] = y
	}
	for _, t := range in.Teachers {
		limit := t.MaxHoursPerDay
		if limit <= 0 {
			limit = defaultMaxHoursPerDay
		}
		e.maxLoad[t.Name] = limit
		e.load[t.Name] = make(map[string]int, len(weekdays))
		for _, code := range t.Subjects {
			e.qualified[code] = append(e.qualified[code], t)
		}
	}
	return e
}

// spend consumes one reservation attempt from the run budget.
func (e *engine) spend() bool {
	if e.exhausted {
		return false
	}
	e.attempts++
	if e.opts.MaxAttempts > 0 && e.attempts > e.opts.MaxAttempts {
		e.exhaust("attempt budget exhausted")
		return false
	}
	if e.attempts%1024 == 0 && e.ctx.Err() != nil {
		e.exhaust("run deadline reached")
		return false
	}
	return true
}

func (e *engine) exhaust(reason string) {
	e.exhausted = true
	e.logger.Warn("allocation stopped early", zap.String("reason", reason), zap.Int("attempts", e.attempts))
}

func (e *engine) worksOn(year, day string) bool {
	for _, d := range e.years[year].WorkingDays() {
		if d == day {
			return true
		}
	}
	return false
}

// teachersFor returns qualified teachers, optionally filtered by remaining
// daily capacity for hours and ordered by current load.
func (e *engine) teachersFor(code, day string, hours int, enforceLimits bool) []Teacher {
	all := e.qualified[code]
	if !enforceLimits || e.opts.DisableLoadLimits {
		return all
	}
	eligible := make([]Teacher, 0, len(all))
	for _, t := range all {
		if e.load[t.Name][day]+hours <= e.maxLoad[t.Name] {
			eligible = append(eligible, t)
		}
	}
	sort.SliceStable(eligible, func(i, j int) bool {
		return e.load[eligible[i].Name][day] < e.load[eligible[j].Name][day]
	})
	return eligible
}

// book writes one assignment per slot key and debits the requirement in one step.
func (e *engine) book(req *Requirement, day string, keys []string, teacher, room, phase string) {
	sessionID := ""
	if len(keys) > 1 {
		sessionID = day + "-" + keys[0]
	}
	for i, key := range keys {
		a := Assignment{
			Subject: req.Code,
			Teacher: teacher,
			Room:    room,
			Batch:   req.Batch,
			Type:    req.Type,
		}
		if sessionID != "" {
			a.LabPart = fmt.Sprintf("%d/%d", i+1, len(keys))
			a.LabSessionID = sessionID
		}
		e.grids.reserve(req.Cohort, day, key, a)
	}
	e.load[teacher][day] += len(keys)
	req.Remaining -= len(keys)
	e.placed[phase] += len(keys)
}

// placeSingle reserves one slot for req, choosing the first free qualified
// teacher and the first free candidate room. Nothing is written on failure.
func (e *engine) placeSingle(req *Requirement, day string, slot TimeSlot, enforceLimits bool, phase string) bool {
	if slot.IsBreak || !e.spend() {
		return false
	}
	if req.Type == SessionTheory {
		if len(e.grids.ClassCell(req.Cohort, day, slot.Key)) > 0 {
			return false
		}
	} else if !e.grids.BatchAvailable(req.Cohort, day, slot.Key, req.Batch) {
		return false
	}

	teachers := e.teachersFor(req.Code, day, 1, enforceLimits)
	if len(teachers) == 0 {
		e.noteSlotFailure(req, day, slot.Key, &Conflict{
			Reason: ReasonTeacherConflict,
			Detail: fmt.Sprintf("no qualified teacher for %s has capacity on %s", req.Code, day),
		})
		return false
	}
	teacher := ""
	for _, t := range teachers {
		reason, hit, ok := e.checker.teacherAvailable(t.Name, day, slot.Key)
		if ok {
			teacher = t.Name
			break
		}
		e.noteSlotFailure(req, day, slot.Key, &Conflict{
			Reason: reason,
			Detail: fmt.Sprintf("teacher %s unavailable at %s", t.Name, slot.Key),
			With:   hit,
		})
	}
	if teacher == "" {
		return false
	}

	room := ""
	for _, r := range candidateRooms(req, e.in.RoomMappings, e.in.Rooms) {
		reason, hit, ok := e.checker.roomAvailable(r.Name, day, slot.Key)
		if ok {
			room = r.Name
			break
		}
		e.noteSlotFailure(req, day, slot.Key, &Conflict{
			Reason: reason,
			Detail: fmt.Sprintf("room %s unavailable at %s", r.Name, slot.Key),
			With:   hit,
		})
	}
	if room == "" {
		return false
	}

	e.book(req, day, []string{slot.Key}, teacher, room, phase)
	return true
}

func (e *engine) noteSlotFailure(req *Requirement, day, slotKey string, c *Conflict) {
	c.ConflictingSlot = slotKey
	c.Subject = req.Code
	c.Year = req.Cohort.Year
	c.Division = req.Cohort.Division
	c.Batch = req.Batch
	c.Day = day
	e.slotFailures[req] = c
}

func (e *engine) logPhase(phase string) {
	e.logger.Debug("allocation phase finished",
		zap.String("phase", phase),
		zap.Int("placed_hours", e.placed[phase]),
		zap.Int("attempts", e.attempts),
	)
}
