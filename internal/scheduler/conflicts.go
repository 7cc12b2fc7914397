package scheduler

import "fmt"

// ConflictReason names the check that rejected a reservation.
type ConflictReason string

const (
	ReasonInsufficientSlots     ConflictReason = "insufficient_slots"
	ReasonBreakInterruption     ConflictReason = "break_interruption"
	ReasonBatchConflict         ConflictReason = "batch_conflict"
	ReasonTeacherConflict       ConflictReason = "teacher_conflict"
	ReasonTeacherConflictGlobal ConflictReason = "teacher_conflict_global"
	ReasonRoomConflict          ConflictReason = "room_conflict"
	ReasonRoomConflictGlobal    ConflictReason = "room_conflict_global"
)

// rank orders reasons by how actionable they are; lower wins. A break is the
// most actionable because moving it unblocks the lab.
func (r ConflictReason) rank() int {
	switch r {
	case ReasonBreakInterruption:
		return 0
	case ReasonBatchConflict:
		return 1
	case ReasonTeacherConflict:
		return 2
	case ReasonTeacherConflictGlobal:
		return 3
	case ReasonRoomConflict:
		return 4
	case ReasonRoomConflictGlobal:
		return 5
	case ReasonInsufficientSlots:
		return 6
	default:
		return 7
	}
}

// Conflict explains why a reservation failed.
type Conflict struct {
	Reason          ConflictReason `json:"reason"`
	Detail          string         `json:"detail"`
	ConflictingSlot string         `json:"conflicting_slot,omitempty"`
	BreakSlot       string         `json:"break_slot,omitempty"`
	BreakPosition   int            `json:"break_position,omitempty"`
	TotalDuration   int            `json:"total_duration,omitempty"`
	Suggestion      string         `json:"suggestion,omitempty"`
	With            *ExternalHit   `json:"with,omitempty"`

	Subject        string `json:"subject,omitempty"`
	Year           string `json:"year,omitempty"`
	Division       int    `json:"division,omitempty"`
	Batch          int    `json:"batch,omitempty"`
	Day            string `json:"day,omitempty"`
	AttemptedStart string `json:"attempted_start,omitempty"`
}

func (c *Conflict) moreSpecificThan(other *Conflict) bool {
	if other == nil {
		return true
	}
	return c.Reason.rank() < other.Reason.rank()
}

// EntityKind selects which column of a published timetable to match.
type EntityKind int

const (
	EntityTeacher EntityKind = iota
	EntityRoom
)

// ExternalHit identifies the published cohort and entry that clashes.
type ExternalHit struct {
	Year     string `json:"year"`
	Division string `json:"division"`
	Subject  string `json:"subject"`
	Teacher  string `json:"teacher,omitempty"`
	Room     string `json:"room,omitempty"`
}

type resourceDay struct {
	Name string
	Day  string
}

type publishedSlot struct {
	key string
	hit ExternalHit
}

// PublishedIndex answers external conflict queries over saved timetables.
// It is built once per run and never mutated afterwards.
type PublishedIndex struct {
	teachers map[resourceDay][]publishedSlot
	rooms    map[resourceDay][]publishedSlot
}

// NewPublishedIndex indexes saved timetables; the first matching entry in input order wins.
func NewPublishedIndex(saved []SavedTimetable) *PublishedIndex {
	idx := &PublishedIndex{
		teachers: make(map[resourceDay][]publishedSlot),
		rooms:    make(map[resourceDay][]publishedSlot),
	}
	for _, tt := range saved {
		for _, day := range sortedKeys(tt.Data) {
			slots := tt.Data[day]
			for _, slot := range sortedKeys(slots) {
				for _, e := range slots[slot] {
					hit := ExternalHit{Year: tt.Year, Division: tt.Division, Subject: e.Subject, Teacher: e.Teacher, Room: e.Room}
					if e.Teacher != "" {
						key := resourceDay{e.Teacher, day}
						idx.teachers[key] = append(idx.teachers[key], publishedSlot{key: slot, hit: hit})
					}
					if e.Room != "" {
						key := resourceDay{e.Room, day}
						idx.rooms[key] = append(idx.rooms[key], publishedSlot{key: slot, hit: hit})
					}
				}
			}
		}
	}
	return idx
}

// Lookup returns the published entry using the named teacher or room at a
// time overlapping day/slot.
func (p *PublishedIndex) Lookup(kind EntityKind, name, day, slot string) (*ExternalHit, bool) {
	if p == nil {
		return nil, false
	}
	source := p.teachers
	if kind == EntityRoom {
		source = p.rooms
	}
	for _, entry := range source[resourceDay{name, day}] {
		if slotsClash(entry.key, slot) {
			hit := entry.hit
			return &hit, true
		}
	}
	return nil, false
}

// ExternalConflict is the unindexed form of PublishedIndex.Lookup. It rescans
// saved on every call and returns the same entry the index would.
func ExternalConflict(saved []SavedTimetable, kind EntityKind, name, day, slot string) (*ExternalHit, bool) {
	for _, tt := range saved {
		slots := tt.Data[day]
		for _, key := range sortedKeys(slots) {
			if !slotsClash(key, slot) {
				continue
			}
			for _, e := range slots[key] {
				matched := e.Teacher == name
				if kind == EntityRoom {
					matched = e.Room == name
				}
				if matched {
					return &ExternalHit{Year: tt.Year, Division: tt.Division, Subject: e.Subject, Teacher: e.Teacher, Room: e.Room}, true
				}
			}
		}
	}
	return nil, false
}

// checker bundles the read-only state needed by conflict queries.
type checker struct {
	grids              *Grids
	published          *PublishedIndex
	checkRoomConflicts bool
}

func (c *checker) teacherAvailable(name, day, slot string) (ConflictReason, *ExternalHit, bool) {
	if !c.grids.TeacherFree(name, day, slot) {
		return ReasonTeacherConflict, nil, false
	}
	if hit, clash := c.published.Lookup(EntityTeacher, name, day, slot); clash {
		return ReasonTeacherConflictGlobal, hit, false
	}
	return "", nil, true
}

func (c *checker) roomAvailable(name, day, slot string) (ConflictReason, *ExternalHit, bool) {
	if !c.grids.RoomFree(name, day, slot) {
		return ReasonRoomConflict, nil, false
	}
	if c.checkRoomConflicts {
		if hit, clash := c.published.Lookup(EntityRoom, name, day, slot); clash {
			return ReasonRoomConflictGlobal, hit, false
		}
	}
	return "", nil, true
}

// reserveContiguous verifies duration consecutive slots starting at start.
// It never mutates; on success it returns the slot keys for the caller to book.
func (c *checker) reserveContiguous(cohort Cohort, day string, start, duration int, teacher, room string, batch int, slots []TimeSlot) ([]string, *Conflict) {
	if start < 0 || start+duration > len(slots) {
		return nil, &Conflict{Reason: ReasonInsufficientSlots, Detail: "not enough slots remaining in day"}
	}
	keys := make([]string, 0, duration)
	for i := 0; i < duration; i++ {
		slot := slots[start+i]
		if slot.IsBreak {
			return nil, &Conflict{
				Reason:        ReasonBreakInterruption,
				Detail:        fmt.Sprintf("break at slot %s interrupts continuous lab", slot.Key),
				BreakSlot:     slot.Key,
				BreakPosition: i + 1,
				TotalDuration: duration,
				Suggestion:    fmt.Sprintf("move the break before or after this %d-hour window", duration),
			}
		}
		if !c.grids.BatchAvailable(cohort, day, slot.Key, batch) {
			return nil, &Conflict{
				Reason:          ReasonBatchConflict,
				Detail:          fmt.Sprintf("batch %d already scheduled at %s", batch, slot.Key),
				ConflictingSlot: slot.Key,
			}
		}
		if reason, hit, ok := c.teacherAvailable(teacher, day, slot.Key); !ok {
			detail := fmt.Sprintf("teacher %s busy at %s", teacher, slot.Key)
			if hit != nil {
				detail = fmt.Sprintf("teacher %s busy in %s Div %s", teacher, hit.Year, hit.Division)
			}
			return nil, &Conflict{Reason: reason, Detail: detail, ConflictingSlot: slot.Key, With: hit}
		}
		if reason, hit, ok := c.roomAvailable(room, day, slot.Key); !ok {
			detail := fmt.Sprintf("room %s occupied at %s", room, slot.Key)
			if hit != nil {
				detail = fmt.Sprintf("room %s occupied by %s Div %s", room, hit.Year, hit.Division)
			}
			return nil, &Conflict{Reason: reason, Detail: detail, ConflictingSlot: slot.Key, With: hit}
		}
		keys = append(keys, slot.Key)
	}
	return keys, nil
}
