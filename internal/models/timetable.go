package models

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx/types"

	"github.com/noah-isme/sma-timetable-api/internal/scheduler"
)

// ClassGrid is a single cohort's week: day -> slot key -> assignments.
type ClassGrid map[string]map[string][]scheduler.Assignment

// PublishedTimetable is a class timetable an administrator saved after
// generation. Published timetables feed later runs as external conflicts.
type PublishedTimetable struct {
	ID            string         `db:"id" json:"id"`
	Department    string         `db:"department" json:"department"`
	Year          string         `db:"year" json:"year"`
	Division      string         `db:"division" json:"division"`
	TimetableData types.JSONText `db:"timetable_data" json:"timetableData" swaggertype:"object"`
	SavedBy       string         `db:"saved_by" json:"saved_by"`
	CreatedAt     time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time      `db:"updated_at" json:"updated_at"`
}

// Grid decodes the stored timetable data.
func (p PublishedTimetable) Grid() (ClassGrid, error) {
	grid := ClassGrid{}
	if len(p.TimetableData) == 0 {
		return grid, nil
	}
	if err := json.Unmarshal(p.TimetableData, &grid); err != nil {
		return nil, fmt.Errorf("decode timetable %s: %w", p.ID, err)
	}
	return grid, nil
}

// Saved converts the record into the read-only form the scheduler checks
// external conflicts against.
func (p PublishedTimetable) Saved() (scheduler.SavedTimetable, error) {
	grid, err := p.Grid()
	if err != nil {
		return scheduler.SavedTimetable{}, err
	}
	data := make(map[string]map[string][]scheduler.SavedEntry, len(grid))
	for day, slots := range grid {
		data[day] = make(map[string][]scheduler.SavedEntry, len(slots))
		for slot, entries := range slots {
			saved := make([]scheduler.SavedEntry, 0, len(entries))
			for _, a := range entries {
				saved = append(saved, scheduler.SavedEntry{Teacher: a.Teacher, Room: a.Room, Subject: a.Subject})
			}
			data[day][slot] = saved
		}
	}
	return scheduler.SavedTimetable{Year: p.Year, Division: p.Division, Data: data}, nil
}

// TimetableFilter narrows published timetable listings.
type TimetableFilter struct {
	Department string
	Year       string
	Division   string
	Page       int
	PageSize   int
}

// TeacherSession is one teaching slot in a teacher's derived week.
type TeacherSession struct {
	Department string                `json:"department"`
	Year       string                `json:"year"`
	Division   string                `json:"division"`
	Subject    string                `json:"subject"`
	Room       string                `json:"room"`
	Type       scheduler.SessionType `json:"type"`
	Batch      int                   `json:"batch,omitempty"`
}

// TeacherTimetable is a teacher's week assembled from every published class timetable.
type TeacherTimetable struct {
	Teacher  string                                 `json:"teacher"`
	Sessions map[string]map[string][]TeacherSession `json:"sessions"`
	Hours    int                                    `json:"hours"`
	Clashes  []string                               `json:"clashes"`
}
