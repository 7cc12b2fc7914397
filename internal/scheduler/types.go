package scheduler

import (
	"fmt"
	"strconv"
)

// weekdays is the fixed iteration order for every allocation phase.
var weekdays = [...]string{"Mon", "Tue", "Wed", "Thu", "Fri", "Sat", "Sun"}

// Weekdays returns the week in allocation order.
func Weekdays() []string {
	out := weekdays
	return out[:]
}

// SessionType classifies a subject component.
type SessionType string

const (
	SessionTheory   SessionType = "Theory"
	SessionLab      SessionType = "Lab"
	SessionTutorial SessionType = "Tutorial"
)

// RoomType classifies a physical room.
type RoomType string

const (
	RoomClassroom RoomType = "Classroom"
	RoomLab       RoomType = "Lab"
	RoomTutorial  RoomType = "Tutorial"
)

// SharedYear marks a room usable by every year.
const SharedYear = "Shared"

// Status summarises the outcome of a run.
type Status string

const (
	StatusSuccess Status = "success"
	StatusPartial Status = "partial"
	StatusError   Status = "error"
)

const (
	defaultPeriodsPerDay  = 6
	defaultLunchPeriod    = 4
	defaultMaxHoursPerDay = 4
	defaultMaxPerDayCap   = 2
	defaultMaxAttempts    = 2_000_000
	defaultSeed           = 42
)

// Cohort identifies one class group.
type Cohort struct {
	Year     string
	Division int
}

// DivisionKey renders the division the way grids and outputs key it.
func (c Cohort) DivisionKey() string {
	return strconv.Itoa(c.Division)
}

func (c Cohort) String() string {
	return fmt.Sprintf("%s Div %d", c.Year, c.Division)
}

// TimeConfig describes a clock-based working day.
type TimeConfig struct {
	StartTime      string
	EndTime        string
	PeriodDuration int
	LunchStart     string
	LunchDuration  int
}

// Subject is one configured course component for a year.
type Subject struct {
	Code        string
	Type        SessionType
	Hours       int
	Batches     int
	LabDuration int
}

// YearConfig carries everything the scheduler needs about one year.
type YearConfig struct {
	Name          string
	Divisions     int
	Subjects      []Subject
	DaysPerWeek   int
	Holidays      []string
	PeriodsPerDay int
	// LunchBreak is the break period in period-count mode; nil means the default, 0 means none.
	LunchBreak *int
	TimeConfig *TimeConfig
}

// Teacher is a staff member and the subject codes they can teach.
type Teacher struct {
	Name           string
	Subjects       []string
	MaxHoursPerDay int
}

// CanTeach reports whether the teacher is qualified for the subject.
func (t Teacher) CanTeach(code string) bool {
	for _, s := range t.Subjects {
		if s == code {
			return true
		}
	}
	return false
}

// Room is a bookable space.
type Room struct {
	ID              string
	Name            string
	Type            RoomType
	PrimaryYear     string
	PrimaryDivision string
}

// SavedEntry is one cell member of a published timetable.
type SavedEntry struct {
	Teacher string
	Room    string
	Subject string
}

// SavedTimetable is a read-only published class timetable used for external conflicts.
type SavedTimetable struct {
	Year     string
	Division string
	Data     map[string]map[string][]SavedEntry
}

// BatchRoom pins one batch of a lab/tutorial subject to a room.
type BatchRoom struct {
	Batch    int
	RoomID   string
	RoomName string
}

// RoomMapping is an explicit room assignment keyed by "{year}_{code}_{type}".
type RoomMapping struct {
	RoomID   string
	RoomName string
	Batches  []BatchRoom
}

// Input is the full configuration of one scheduling run.
type Input struct {
	Years           []YearConfig
	Teachers        []Teacher
	Rooms           []Room
	SavedTimetables []SavedTimetable
	RoomMappings    map[string]RoomMapping
}

// Options tunes a run. The zero value is usable.
type Options struct {
	Seed               int64
	CheckRoomConflicts bool
	UseRealTimeSlots   bool
	// MaxAttempts caps reservation attempts across the whole run.
	MaxAttempts int
	// DisableLoadLimits turns off per-teacher daily caps in the quota phases.
	DisableLoadLimits bool
}

// DefaultOptions mirrors the production defaults.
func DefaultOptions() Options {
	return Options{
		Seed:               defaultSeed,
		CheckRoomConflicts: true,
		UseRealTimeSlots:   true,
		MaxAttempts:        defaultMaxAttempts,
	}
}

// Assignment is a class-grid cell member.
type Assignment struct {
	Subject      string      `json:"subject"`
	Teacher      string      `json:"teacher"`
	Room         string      `json:"room"`
	Batch        int         `json:"batch,omitempty"`
	Type         SessionType `json:"type"`
	LabPart      string      `json:"lab_part,omitempty"`
	LabSessionID string      `json:"lab_session_id,omitempty"`
}

// Occupant is the back-reference stored in teacher and room grids.
type Occupant struct {
	Subject  string `json:"subject"`
	Year     string `json:"year"`
	Division int    `json:"division"`
	Teacher  string `json:"teacher,omitempty"`
	Room     string `json:"room,omitempty"`
	Batch    int    `json:"batch,omitempty"`
	LabPart  string `json:"lab_part,omitempty"`
}
