package scheduler

import "fmt"

const (
	maxSuggestions      = 4
	maxRoomAlternatives = 3
	minLabRooms         = 2
	minTutorialRooms    = 3
)

// SuggestionKind classifies an advisory suggestion.
type SuggestionKind string

const (
	SuggestBreakConflict    SuggestionKind = "break_conflict"
	SuggestAlternateDay     SuggestionKind = "alternate_day"
	SuggestStaffingShortage SuggestionKind = "staffing_shortage"
	SuggestRoomShortage     SuggestionKind = "room_shortage"
	SuggestContinuousWindow SuggestionKind = "continuous_window"
	SuggestReview           SuggestionKind = "review"
)

// Suggestion is one advisory line attached to an unallocated session.
type Suggestion struct {
	Kind    SuggestionKind `json:"kind"`
	Message string         `json:"message"`
}

// Recommendation explains one unallocated session.
type Recommendation struct {
	Session          UnallocatedSession `json:"session"`
	Suggestions      []Suggestion       `json:"suggestions"`
	HasBreakConflict bool               `json:"has_break_conflict"`
	ConflictDetails  *Conflict          `json:"conflict_details,omitempty"`
}

// RoomRecommendation lists free alternatives for a room clash.
type RoomRecommendation struct {
	Subject      string   `json:"subject"`
	Year         string   `json:"year"`
	Division     int      `json:"division"`
	Batch        int      `json:"batch,omitempty"`
	Day          string   `json:"day"`
	TimeSlot     string   `json:"time_slot"`
	Alternatives []string `json:"alternative_rooms"`
	Message      string   `json:"message"`
}

// Recommend derives advisory suggestions. It never changes the timetable.
func Recommend(sessions []UnallocatedSession, labConflicts []Conflict, teachers []Teacher, rooms []Room) []Recommendation {
	out := make([]Recommendation, 0, len(sessions))
	labRooms := len(CompatibleRooms(SessionLab, rooms))
	tutorialRooms := len(CompatibleRooms(SessionTutorial, rooms))

	for _, s := range sessions {
		rec := Recommendation{Session: s}
		add := func(kind SuggestionKind, format string, args ...interface{}) {
			rec.Suggestions = append(rec.Suggestions, Suggestion{Kind: kind, Message: fmt.Sprintf(format, args...)})
		}

		if c := breakConflictFor(s, labConflicts); c != nil {
			rec.HasBreakConflict = true
			rec.ConflictDetails = c
			add(SuggestBreakConflict, "The break at %s interrupts the %d-hour %s lab at hour %d; move the break or start the lab outside it",
				c.BreakSlot, c.TotalDuration, s.Subject, c.BreakPosition)
			add(SuggestAlternateDay, "Schedule %s on a day with %d consecutive free teaching slots for %s Div %d",
				s.Subject, c.TotalDuration, s.Year, s.Division)
		}

		var qualified []string
		for _, t := range teachers {
			if t.CanTeach(s.Subject) {
				qualified = append(qualified, t.Name)
			}
		}
		switch len(qualified) {
		case 0:
			add(SuggestStaffingShortage, "No teacher is qualified for %s; assign at least one", s.Subject)
		case 1:
			add(SuggestStaffingShortage, "Only %s teaches %s; add a second qualified teacher", qualified[0], s.Subject)
		}

		switch {
		case s.Type == SessionLab && labRooms < minLabRooms:
			add(SuggestRoomShortage, "Only %d Lab room(s) available; add Lab rooms to run batches in parallel", labRooms)
		case s.Type == SessionTutorial && tutorialRooms < minTutorialRooms:
			add(SuggestRoomShortage, "Only %d room(s) can host tutorials; add Tutorial rooms or classrooms", tutorialRooms)
		}

		if s.LabDuration > 1 && !rec.HasBreakConflict {
			add(SuggestContinuousWindow, "%s needs %d consecutive teaching slots with a free teacher and Lab room; free up a window or shorten the session",
				s.Subject, s.LabDuration)
		}
		if len(rec.Suggestions) == 0 {
			add(SuggestReview, "Reduce the weekly hours of %s or add teaching slots or teachers for %s Div %d", s.Subject, s.Year, s.Division)
		}
		if len(rec.Suggestions) > maxSuggestions {
			rec.Suggestions = rec.Suggestions[:maxSuggestions]
		}
		out = append(out, rec)
	}
	return out
}

func breakConflictFor(s UnallocatedSession, conflicts []Conflict) *Conflict {
	for i := range conflicts {
		c := &conflicts[i]
		if c.Reason == ReasonBreakInterruption && c.Subject == s.Subject && c.Year == s.Year &&
			c.Division == s.Division && c.Batch == s.Batch {
			return c
		}
	}
	return nil
}

// recommendRooms proposes up to three compatible rooms free at the clashing slot.
func recommendRooms(conflicts []RoomConflict, rooms []Room, chk *checker) []RoomRecommendation {
	out := make([]RoomRecommendation, 0, len(conflicts))
	for _, rc := range conflicts {
		rec := RoomRecommendation{
			Subject:      rc.Subject,
			Year:         rc.Year,
			Division:     rc.Division,
			Batch:        rc.Batch,
			Day:          rc.Day,
			TimeSlot:     rc.TimeSlot,
			Alternatives: []string{},
		}
		for _, r := range CompatibleRooms(rc.RequiredType, rooms) {
			if len(rec.Alternatives) == maxRoomAlternatives {
				break
			}
			if _, _, ok := chk.roomAvailable(r.Name, rc.Day, rc.TimeSlot); ok {
				rec.Alternatives = append(rec.Alternatives, r.Name)
			}
		}
		if len(rec.Alternatives) > 0 {
			rec.Message = fmt.Sprintf("Map %s to one of the free rooms or move it to another slot", rc.Subject)
		} else {
			rec.Message = fmt.Sprintf("No compatible room is free on %s at %s; add a room or reduce hours of %s", rc.Day, rc.TimeSlot, rc.Subject)
		}
		out = append(out, rec)
	}
	return out
}
