package scheduler

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"golang.org/x/exp/maps"
)

type classCell struct {
	Cohort Cohort
	Day    string
	Slot   string
}

type resourceCell struct {
	Name string
	Day  string
	Slot string
}

// span is a clock slot as minutes since midnight.
type span struct {
	start, end int
}

func (s span) overlaps(o span) bool {
	return s.start < o.end && o.start < s.end
}

// parseSpan reads a "15:04-15:04" slot key. Period keys have no span.
func parseSpan(key string) (span, bool) {
	from, to, found := strings.Cut(key, "-")
	if !found {
		return span{}, false
	}
	start, err := time.Parse(clockLayout, from)
	if err != nil {
		return span{}, false
	}
	end, err := time.Parse(clockLayout, to)
	if err != nil {
		return span{}, false
	}
	s := span{start: start.Hour()*60 + start.Minute(), end: end.Hour()*60 + end.Minute()}
	return s, s.start < s.end
}

// slotsClash reports whether two slot keys occupy the same moment. Equal keys
// always clash; clock keys clash when their ranges intersect.
func slotsClash(a, b string) bool {
	if a == b {
		return true
	}
	sa, ok := parseSpan(a)
	if !ok {
		return false
	}
	sb, ok := parseSpan(b)
	return ok && sa.overlaps(sb)
}

// Grids holds the three occupancy maps of a run. Every cell is created up
// front; lookups of unknown cells read as empty rather than failing.
// Teacher and room cells are shared by all years, so freedom is checked
// against every slot key that overlaps the requested one.
type Grids struct {
	class   map[classCell][]Assignment
	teacher map[resourceCell][]Occupant
	room    map[resourceCell][]Occupant
	clashes map[string][]string
}

// NewGrids materialises empty cells for every cohort, teacher and room.
func NewGrids(years []YearConfig, calendars map[string][]TimeSlot, teachers []Teacher, rooms []Room) *Grids {
	g := &Grids{
		class:   make(map[classCell][]Assignment),
		teacher: make(map[resourceCell][]Occupant),
		room:    make(map[resourceCell][]Occupant),
		clashes: make(map[string][]string),
	}
	slotKeys := make(map[string]struct{})
	for _, year := range years {
		for _, slot := range calendars[year.Name] {
			slotKeys[slot.Key] = struct{}{}
		}
		for div := 1; div <= year.Divisions; div++ {
			cohort := Cohort{Year: year.Name, Division: div}
			for _, day := range weekdays {
				for _, slot := range calendars[year.Name] {
					g.class[classCell{cohort, day, slot.Key}] = []Assignment{}
				}
			}
		}
	}
	keys := sortedKeys(slotKeys)
	for _, key := range keys {
		for _, other := range keys {
			if slotsClash(key, other) {
				g.clashes[key] = append(g.clashes[key], other)
			}
		}
	}
	for _, day := range weekdays {
		for _, key := range keys {
			for _, t := range teachers {
				g.teacher[resourceCell{t.Name, day, key}] = []Occupant{}
			}
			for _, r := range rooms {
				g.room[resourceCell{r.Name, day, key}] = []Occupant{}
			}
		}
	}
	return g
}

// ClassCell returns the occupants of a class cell.
func (g *Grids) ClassCell(c Cohort, day, slot string) []Assignment {
	return g.class[classCell{c, day, slot}]
}

// TeacherCell returns the occupants of a teacher cell.
func (g *Grids) TeacherCell(name, day, slot string) []Occupant {
	return g.teacher[resourceCell{name, day, slot}]
}

// RoomCell returns the occupants of a room cell.
func (g *Grids) RoomCell(name, day, slot string) []Occupant {
	return g.room[resourceCell{name, day, slot}]
}

// BatchAvailable is false when the cell holds a whole-class Theory entry or an
// entry for the same batch.
func (g *Grids) BatchAvailable(c Cohort, day, slot string, batch int) bool {
	for _, a := range g.ClassCell(c, day, slot) {
		if a.Type == SessionTheory || a.Batch == batch {
			return false
		}
	}
	return true
}

// TeacherFree reports whether the teacher has nothing booked at any time
// overlapping slot.
func (g *Grids) TeacherFree(name, day, slot string) bool {
	return cellsFree(g.teacher, g.overlapping(slot), name, day)
}

// RoomFree reports whether the room has nothing booked at any time
// overlapping slot.
func (g *Grids) RoomFree(name, day, slot string) bool {
	return cellsFree(g.room, g.overlapping(slot), name, day)
}

func (g *Grids) overlapping(slot string) []string {
	if keys, ok := g.clashes[slot]; ok {
		return keys
	}
	return []string{slot}
}

func cellsFree(cells map[resourceCell][]Occupant, keys []string, name, day string) bool {
	for _, key := range keys {
		if len(cells[resourceCell{name, day, key}]) > 0 {
			return false
		}
	}
	return true
}

// reserve is the only mutation path for the grids.
func (g *Grids) reserve(c Cohort, day, slot string, a Assignment) {
	cc := classCell{c, day, slot}
	g.class[cc] = append(g.class[cc], a)

	tc := resourceCell{a.Teacher, day, slot}
	g.teacher[tc] = append(g.teacher[tc], Occupant{
		Subject:  a.Subject,
		Year:     c.Year,
		Division: c.Division,
		Room:     a.Room,
		Batch:    a.Batch,
		LabPart:  a.LabPart,
	})

	rc := resourceCell{a.Room, day, slot}
	g.room[rc] = append(g.room[rc], Occupant{
		Subject:  a.Subject,
		Year:     c.Year,
		Division: c.Division,
		Teacher:  a.Teacher,
		Batch:    a.Batch,
	})
}

// CountPlaced returns how many class cells carry the requirement.
func (g *Grids) CountPlaced(req *Requirement) int {
	n := 0
	for cell, entries := range g.class {
		if cell.Cohort != req.Cohort {
			continue
		}
		for _, a := range entries {
			if a.Subject == req.Code && a.Type == req.Type && a.Batch == req.Batch {
				n++
			}
		}
	}
	return n
}

// Verify checks the exclusivity invariants across all cells.
func (g *Grids) Verify() error {
	for cell, entries := range g.class {
		batches := make(map[int]bool, len(entries))
		for _, a := range entries {
			if a.Type == SessionTheory && len(entries) > 1 {
				return fmt.Errorf("class cell %s %s %s mixes theory with %d entries", cell.Cohort, cell.Day, cell.Slot, len(entries))
			}
			if batches[a.Batch] {
				return fmt.Errorf("class cell %s %s %s holds batch %d twice", cell.Cohort, cell.Day, cell.Slot, a.Batch)
			}
			batches[a.Batch] = true
		}
	}
	if err := g.verifyResource("teacher", g.teacher); err != nil {
		return err
	}
	return g.verifyResource("room", g.room)
}

func (g *Grids) verifyResource(kind string, cells map[resourceCell][]Occupant) error {
	for cell, entries := range cells {
		if len(entries) > 1 {
			return fmt.Errorf("%s %s double booked on %s %s", kind, cell.Name, cell.Day, cell.Slot)
		}
		if len(entries) == 0 {
			continue
		}
		for _, other := range g.overlapping(cell.Slot) {
			if other != cell.Slot && len(cells[resourceCell{cell.Name, cell.Day, other}]) > 0 {
				return fmt.Errorf("%s %s double booked on %s %s and %s", kind, cell.Name, cell.Day, cell.Slot, other)
			}
		}
	}
	return nil
}

// ClassTimetable is year → division → day → slot → entries.
type ClassTimetable map[string]map[string]map[string]map[string][]Assignment

// ResourceTimetable is name → day → slot → entries.
type ResourceTimetable map[string]map[string]map[string][]Occupant

// ClassView renders the class grid in the nested wire shape.
func (g *Grids) ClassView() ClassTimetable {
	out := make(ClassTimetable)
	for cell, entries := range g.class {
		divs, ok := out[cell.Cohort.Year]
		if !ok {
			divs = make(map[string]map[string]map[string][]Assignment)
			out[cell.Cohort.Year] = divs
		}
		days, ok := divs[cell.Cohort.DivisionKey()]
		if !ok {
			days = make(map[string]map[string][]Assignment)
			divs[cell.Cohort.DivisionKey()] = days
		}
		slots, ok := days[cell.Day]
		if !ok {
			slots = make(map[string][]Assignment)
			days[cell.Day] = slots
		}
		slots[cell.Slot] = entries
	}
	return out
}

// TeacherView renders the teacher grid in the nested wire shape.
func (g *Grids) TeacherView() ResourceTimetable {
	return resourceView(g.teacher)
}

// RoomView renders the room grid in the nested wire shape.
func (g *Grids) RoomView() ResourceTimetable {
	return resourceView(g.room)
}

func resourceView(cells map[resourceCell][]Occupant) ResourceTimetable {
	out := make(ResourceTimetable)
	for cell, entries := range cells {
		days, ok := out[cell.Name]
		if !ok {
			days = make(map[string]map[string][]Occupant)
			out[cell.Name] = days
		}
		slots, ok := days[cell.Day]
		if !ok {
			slots = make(map[string][]Occupant)
			days[cell.Day] = slots
		}
		slots[cell.Slot] = entries
	}
	return out
}

func sortedKeys[V any](m map[string]V) []string {
	keys := maps.Keys(m)
	sort.Strings(keys)
	return keys
}
