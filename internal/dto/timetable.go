package dto

import (
	"sort"

	"github.com/noah-isme/sma-timetable-api/internal/scheduler"
)

// TimeConfigPayload describes a clock-based working day.
type TimeConfigPayload struct {
	StartTime      string `json:"startTime" validate:"required"`
	EndTime        string `json:"endTime" validate:"required"`
	PeriodDuration int    `json:"periodDuration" validate:"required,min=1,max=240"`
	LunchStart     string `json:"lunchStart"`
	LunchDuration  int    `json:"lunchDuration" validate:"min=0,max=240"`
}

// SubjectPayload is one subject component of a year.
type SubjectPayload struct {
	Code        string `json:"code" validate:"required"`
	Type        string `json:"type" validate:"omitempty,oneof=Theory Lab Tutorial"`
	Hours       int    `json:"hours" validate:"min=0,max=60"`
	Batches     int    `json:"batches" validate:"min=0,max=20"`
	LabDuration int    `json:"labDuration"`
}

// YearPayload configures one academic year.
type YearPayload struct {
	Divisions     int                `json:"divisions" validate:"min=0,max=50"`
	Subjects      []SubjectPayload   `json:"subjects" validate:"dive"`
	DaysPerWeek   int                `json:"daysPerWeek" validate:"min=0,max=7"`
	Holidays      []string           `json:"holidays" validate:"dive,oneof=Mon Tue Wed Thu Fri Sat Sun"`
	PeriodsPerDay int                `json:"periodsPerDay" validate:"min=0,max=24"`
	LunchBreak    *int               `json:"lunchBreak" validate:"omitempty,min=0"`
	TimeConfig    *TimeConfigPayload `json:"timeConfig" validate:"omitempty"`
}

// SubjectRef references a subject a teacher can take.
type SubjectRef struct {
	Code string `json:"code" validate:"required"`
}

// TeacherPayload is a staff member.
type TeacherPayload struct {
	Name           string       `json:"name" validate:"required"`
	Subjects       []SubjectRef `json:"subjects" validate:"dive"`
	MaxHoursPerDay int          `json:"maxHoursPerDay" validate:"min=0,max=24"`
}

// RoomPayload is a bookable room.
type RoomPayload struct {
	ID              string `json:"id"`
	Name            string `json:"name" validate:"required"`
	Type            string `json:"type" validate:"required,oneof=Classroom Lab Tutorial"`
	PrimaryYear     string `json:"primaryYear"`
	PrimaryDivision string `json:"primaryDivision"`
}

// SavedEntryPayload is one cell member of a published timetable.
type SavedEntryPayload struct {
	Teacher string `json:"teacher"`
	Room    string `json:"room"`
	Subject string `json:"subject"`
}

// SavedTimetablePayload is a published class timetable used only for conflict detection.
type SavedTimetablePayload struct {
	Year          string                                    `json:"year" validate:"required"`
	Division      string                                    `json:"division" validate:"required"`
	TimetableData map[string]map[string][]SavedEntryPayload `json:"timetableData"`
}

// BatchRoomPayload pins a batch to a room by id or name.
type BatchRoomPayload struct {
	Batch    int    `json:"batch" validate:"min=1"`
	Room     string `json:"room"`
	RoomName string `json:"roomName"`
}

// RoomMappingPayload is an explicit room assignment.
type RoomMappingPayload struct {
	RoomID   string             `json:"roomId"`
	RoomName string             `json:"roomName"`
	Batches  []BatchRoomPayload `json:"batches" validate:"dive"`
}

// GenerateTimetableRequest is the generation payload.
type GenerateTimetableRequest struct {
	Department      string                        `json:"department"`
	Years           map[string]YearPayload        `json:"years" validate:"required,min=1,dive"`
	Teachers        []TeacherPayload              `json:"teachers" validate:"dive"`
	Rooms           []RoomPayload                 `json:"rooms" validate:"dive"`
	SavedTimetables []SavedTimetablePayload       `json:"savedTimetables" validate:"dive"`
	RoomMappings    map[string]RoomMappingPayload `json:"roomMappings" validate:"dive"`

	// LegacySavedTimetables accepts the snake_case key older clients send.
	LegacySavedTimetables []SavedTimetablePayload `json:"saved_timetables,omitempty" validate:"dive"`
}

// Saved returns every saved timetable regardless of the key it arrived under.
func (r GenerateTimetableRequest) Saved() []SavedTimetablePayload {
	if len(r.LegacySavedTimetables) == 0 {
		return r.SavedTimetables
	}
	out := make([]SavedTimetablePayload, 0, len(r.SavedTimetables)+len(r.LegacySavedTimetables))
	out = append(out, r.SavedTimetables...)
	return append(out, r.LegacySavedTimetables...)
}

// Cohorts lists the (year, division) pairs the request will generate.
func (r GenerateTimetableRequest) Cohorts() []scheduler.Cohort {
	var out []scheduler.Cohort
	for _, name := range sortedYearNames(r.Years) {
		divisions := r.Years[name].Divisions
		if divisions == 0 {
			divisions = 1
		}
		for div := 1; div <= divisions; div++ {
			out = append(out, scheduler.Cohort{Year: name, Division: div})
		}
	}
	return out
}

// ToInput converts the payload into scheduler input. Years are ordered by name
// so runs over the same payload are reproducible.
func (r GenerateTimetableRequest) ToInput() scheduler.Input {
	in := scheduler.Input{
		Years:        make([]scheduler.YearConfig, 0, len(r.Years)),
		Teachers:     make([]scheduler.Teacher, 0, len(r.Teachers)),
		Rooms:        make([]scheduler.Room, 0, len(r.Rooms)),
		RoomMappings: make(map[string]scheduler.RoomMapping, len(r.RoomMappings)),
	}
	for _, name := range sortedYearNames(r.Years) {
		in.Years = append(in.Years, r.Years[name].toYearConfig(name))
	}
	for _, t := range r.Teachers {
		codes := make([]string, 0, len(t.Subjects))
		for _, s := range t.Subjects {
			codes = append(codes, s.Code)
		}
		in.Teachers = append(in.Teachers, scheduler.Teacher{Name: t.Name, Subjects: codes, MaxHoursPerDay: t.MaxHoursPerDay})
	}
	for _, room := range r.Rooms {
		in.Rooms = append(in.Rooms, scheduler.Room{
			ID:              room.ID,
			Name:            room.Name,
			Type:            scheduler.RoomType(room.Type),
			PrimaryYear:     room.PrimaryYear,
			PrimaryDivision: room.PrimaryDivision,
		})
	}
	for _, tt := range r.Saved() {
		in.SavedTimetables = append(in.SavedTimetables, tt.ToSaved())
	}
	for key, m := range r.RoomMappings {
		mapping := scheduler.RoomMapping{RoomID: m.RoomID, RoomName: m.RoomName}
		for _, b := range m.Batches {
			mapping.Batches = append(mapping.Batches, scheduler.BatchRoom{Batch: b.Batch, RoomID: b.Room, RoomName: b.RoomName})
		}
		in.RoomMappings[key] = mapping
	}
	return in
}

func (y YearPayload) toYearConfig(name string) scheduler.YearConfig {
	cfg := scheduler.YearConfig{
		Name:          name,
		Divisions:     y.Divisions,
		DaysPerWeek:   y.DaysPerWeek,
		Holidays:      y.Holidays,
		PeriodsPerDay: y.PeriodsPerDay,
		LunchBreak:    y.LunchBreak,
		Subjects:      make([]scheduler.Subject, 0, len(y.Subjects)),
	}
	if cfg.Divisions == 0 {
		cfg.Divisions = 1
	}
	if y.TimeConfig != nil {
		cfg.TimeConfig = &scheduler.TimeConfig{
			StartTime:      y.TimeConfig.StartTime,
			EndTime:        y.TimeConfig.EndTime,
			PeriodDuration: y.TimeConfig.PeriodDuration,
			LunchStart:     y.TimeConfig.LunchStart,
			LunchDuration:  y.TimeConfig.LunchDuration,
		}
	}
	for _, s := range y.Subjects {
		stype := scheduler.SessionType(s.Type)
		if stype == "" {
			stype = scheduler.SessionTheory
		}
		cfg.Subjects = append(cfg.Subjects, scheduler.Subject{
			Code:        s.Code,
			Type:        stype,
			Hours:       s.Hours,
			Batches:     s.Batches,
			LabDuration: s.LabDuration,
		})
	}
	return cfg
}

// ToSaved converts a published timetable payload into the scheduler oracle form.
func (p SavedTimetablePayload) ToSaved() scheduler.SavedTimetable {
	data := make(map[string]map[string][]scheduler.SavedEntry, len(p.TimetableData))
	for day, slots := range p.TimetableData {
		data[day] = make(map[string][]scheduler.SavedEntry, len(slots))
		for slot, entries := range slots {
			converted := make([]scheduler.SavedEntry, 0, len(entries))
			for _, e := range entries {
				converted = append(converted, scheduler.SavedEntry{Teacher: e.Teacher, Room: e.Room, Subject: e.Subject})
			}
			data[day][slot] = converted
		}
	}
	return scheduler.SavedTimetable{Year: p.Year, Division: p.Division, Data: data}
}

func sortedYearNames(years map[string]YearPayload) []string {
	names := make([]string, 0, len(years))
	for name := range years {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// PublishTimetableRequest stores a generated class timetable.
type PublishTimetableRequest struct {
	Department    string                                       `json:"department" validate:"required,max=120"`
	Year          string                                       `json:"year" validate:"required,max=60"`
	Division      string                                       `json:"division" validate:"required,max=20"`
	TimetableData map[string]map[string][]scheduler.Assignment `json:"timetableData" validate:"required,min=1"`
	SavedBy       string                                       `json:"-"`
}

// TimetableQuery filters published timetables.
type TimetableQuery struct {
	Department string `form:"department"`
	Year       string `form:"year"`
	Division   string `form:"division"`
	Page       int    `form:"page"`
	PageSize   int    `form:"page_size"`
}

// JobAccepted is returned when an async generation job is queued.
type JobAccepted struct {
	JobID  string `json:"job_id"`
	Status string `json:"status"`
}
