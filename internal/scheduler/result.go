package scheduler

import (
	"fmt"
	"sort"
	"time"
)

// UnallocatedSession reports one requirement the run could not satisfy.
type UnallocatedSession struct {
	Subject       string         `json:"subject"`
	Type          SessionType    `json:"type"`
	Year          string         `json:"year"`
	Division      int            `json:"division"`
	Batch         int            `json:"batch,omitempty"`
	Required      int            `json:"required"`
	Assigned      int            `json:"assigned"`
	Missing       int            `json:"missing"`
	LabDuration   int            `json:"lab_duration,omitempty"`
	FailureReason ConflictReason `json:"failure_reason,omitempty"`
}

func (u UnallocatedSession) label() string {
	if u.Batch > 0 {
		return fmt.Sprintf("%s (%s) for %s Div %d Batch %d", u.Subject, u.Type, u.Year, u.Division, u.Batch)
	}
	return fmt.Sprintf("%s (%s) for %s Div %d", u.Subject, u.Type, u.Year, u.Division)
}

// RoomConflict records a single-slot requirement that ended unplaced after a room clash.
type RoomConflict struct {
	Subject      string         `json:"subject"`
	Year         string         `json:"year"`
	Division     int            `json:"division"`
	Batch        int            `json:"batch,omitempty"`
	Day          string         `json:"day"`
	TimeSlot     string         `json:"time_slot"`
	RequiredType SessionType    `json:"required_room_type"`
	Reason       ConflictReason `json:"reason"`
	Detail       string         `json:"detail"`
	With         *ExternalHit   `json:"with,omitempty"`
}

// RunStats summarises the work done by a run.
type RunStats struct {
	RunID           string         `json:"run_id,omitempty"`
	Requirements    int            `json:"requirements"`
	PlacedHours     map[string]int `json:"placed_hours"`
	Attempts        int            `json:"attempts"`
	BudgetExhausted bool           `json:"budget_exhausted"`
	DurationMillis  int64          `json:"duration_ms"`
}

// Result is the full outcome of a run.
type Result struct {
	Status              Status                `json:"status"`
	ClassTimetable      ClassTimetable        `json:"class_timetable"`
	TeacherTimetable    ResourceTimetable     `json:"teacher_timetable"`
	RoomTimetable       ResourceTimetable     `json:"room_timetable"`
	TimeSlots           map[string][]TimeSlot `json:"time_slots"`
	Conflicts           []Conflict            `json:"conflicts"`
	RoomConflicts       []RoomConflict        `json:"room_conflicts"`
	Unallocated         []UnallocatedSession  `json:"unallocated"`
	Recommendations     []Recommendation      `json:"recommendations"`
	RoomRecommendations []RoomRecommendation  `json:"room_recommendations"`
	LabConflicts        []Conflict            `json:"lab_conflicts"`
	Warnings            []string              `json:"warnings"`
	CriticalIssues      []string              `json:"critical_issues,omitempty"`
	Error               string                `json:"error,omitempty"`
	Stats               RunStats              `json:"stats"`
}

func emptyResult() *Result {
	return &Result{
		ClassTimetable:      ClassTimetable{},
		TeacherTimetable:    ResourceTimetable{},
		RoomTimetable:       ResourceTimetable{},
		TimeSlots:           map[string][]TimeSlot{},
		Conflicts:           []Conflict{},
		RoomConflicts:       []RoomConflict{},
		Unallocated:         []UnallocatedSession{},
		Recommendations:     []Recommendation{},
		RoomRecommendations: []RoomRecommendation{},
		LabConflicts:        []Conflict{},
		Warnings:            []string{},
		Stats:               RunStats{PlacedHours: map[string]int{}},
	}
}

// ErrorResult builds a status=error result carrying the given issues.
func ErrorResult(issues []string) *Result {
	res := emptyResult()
	res.Status = StatusError
	res.CriticalIssues = issues
	if len(issues) > 0 {
		res.Error = issues[0]
	}
	return res
}

// assemble turns the final engine state into a Result.
func (e *engine) assemble(pools Pools, started time.Time) *Result {
	res := emptyResult()
	res.ClassTimetable = e.grids.ClassView()
	res.TeacherTimetable = e.grids.TeacherView()
	res.RoomTimetable = e.grids.RoomView()
	for year, slots := range e.calendars {
		res.TimeSlots[year] = slots
	}

	all := pools.All()
	for _, req := range all {
		if req.Satisfied() {
			continue
		}
		session := UnallocatedSession{
			Subject:  req.Code,
			Type:     req.Type,
			Year:     req.Cohort.Year,
			Division: req.Cohort.Division,
			Batch:    req.Batch,
			Required: req.Total,
			Assigned: req.Total - req.Remaining,
			Missing:  req.Remaining,
		}
		if req.isContinuousLab() {
			session.LabDuration = req.LabDuration
			if c, ok := e.labFailures[req]; ok {
				session.FailureReason = c.Reason
				res.LabConflicts = append(res.LabConflicts, *c)
			}
		} else if c, ok := e.slotFailures[req]; ok {
			session.FailureReason = c.Reason
			switch c.Reason {
			case ReasonTeacherConflictGlobal:
				res.Conflicts = append(res.Conflicts, *c)
			case ReasonRoomConflict, ReasonRoomConflictGlobal:
				res.RoomConflicts = append(res.RoomConflicts, RoomConflict{
					Subject:      req.Code,
					Year:         req.Cohort.Year,
					Division:     req.Cohort.Division,
					Batch:        req.Batch,
					Day:          c.Day,
					TimeSlot:     c.ConflictingSlot,
					RequiredType: req.Type,
					Reason:       c.Reason,
					Detail:       c.Detail,
					With:         c.With,
				})
			}
		}
		res.Unallocated = append(res.Unallocated, session)
		res.Warnings = append(res.Warnings, fmt.Sprintf("Could not place %d of %d hour(s) of %s", req.Remaining, req.Total, session.label()))
	}
	sort.SliceStable(res.Unallocated, func(i, j int) bool {
		return res.Unallocated[i].Missing > res.Unallocated[j].Missing
	})

	res.Warnings = append(res.Warnings, planWarnings(e.in.Years)...)
	if e.exhausted {
		res.Warnings = append(res.Warnings, fmt.Sprintf("Allocation stopped after %d attempts; the result may be incomplete", e.attempts))
	}
	if err := e.grids.Verify(); err != nil {
		res.Warnings = append(res.Warnings, "Occupancy check failed: "+err.Error())
	}

	res.Recommendations = Recommend(res.Unallocated, res.LabConflicts, e.in.Teachers, e.in.Rooms)
	res.RoomRecommendations = recommendRooms(res.RoomConflicts, e.in.Rooms, e.checker)

	res.Status = StatusSuccess
	if len(res.Unallocated) > 0 {
		res.Status = StatusPartial
	}
	for phase, n := range e.placed {
		res.Stats.PlacedHours[phase] = n
	}
	res.Stats.Requirements = len(all)
	res.Stats.Attempts = e.attempts
	res.Stats.BudgetExhausted = e.exhausted
	res.Stats.DurationMillis = time.Since(started).Milliseconds()
	return res
}
