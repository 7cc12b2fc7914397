package scheduler

import (
	"sort"
	"strconv"
)

const (
	scorePrimaryYear      = 50
	scoreSharedYear       = 10
	scoreDivisionAffinity = 25
)

// MappingKey builds the explicit room mapping key for a subject component.
func MappingKey(year, code string, t SessionType) string {
	return year + "_" + code + "_" + string(t)
}

// RoomCompatible reports whether a room can host a session type.
func RoomCompatible(t SessionType, r Room) bool {
	switch t {
	case SessionLab:
		return r.Type == RoomLab
	case SessionTutorial:
		return r.Type == RoomTutorial || r.Type == RoomClassroom
	default:
		return r.Type == RoomClassroom
	}
}

// CompatibleRooms lists every room of a compatible type, ignoring affinity.
func CompatibleRooms(t SessionType, rooms []Room) []Room {
	out := make([]Room, 0, len(rooms))
	for _, r := range rooms {
		if RoomCompatible(t, r) {
			out = append(out, r)
		}
	}
	return out
}

// ResolveRooms ranks candidate rooms. An explicit mapping wins outright;
// otherwise compatible rooms are scored by year and division affinity. An
// empty result means the caller should fall back to CompatibleRooms.
func ResolveRooms(code string, t SessionType, c Cohort, batch int, mappings map[string]RoomMapping, rooms []Room) []Room {
	if mapped, ok := mappedRoom(code, t, c, batch, mappings, rooms); ok {
		return []Room{mapped}
	}

	type scored struct {
		room  Room
		score int
	}
	var candidates []scored
	division := strconv.Itoa(c.Division)
	for _, r := range rooms {
		if !RoomCompatible(t, r) {
			continue
		}
		year := r.PrimaryYear
		if year == "" {
			year = SharedYear
		}
		if year != SharedYear && year != c.Year {
			continue
		}
		score := 0
		if year == c.Year {
			score += scorePrimaryYear
		} else {
			score += scoreSharedYear
		}
		if r.PrimaryDivision == "" || r.PrimaryDivision == division {
			score += scoreDivisionAffinity
		}
		if score > 0 {
			candidates = append(candidates, scored{room: r, score: score})
		}
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].score > candidates[j].score
	})
	out := make([]Room, 0, len(candidates))
	for _, c := range candidates {
		out = append(out, c.room)
	}
	return out
}

func mappedRoom(code string, t SessionType, c Cohort, batch int, mappings map[string]RoomMapping, rooms []Room) (Room, bool) {
	mapping, ok := mappings[MappingKey(c.Year, code, t)]
	if !ok {
		return Room{}, false
	}
	id, name := mapping.RoomID, mapping.RoomName
	if t != SessionTheory {
		id, name = "", ""
		for _, b := range mapping.Batches {
			if b.Batch == batch {
				id, name = b.RoomID, b.RoomName
				break
			}
		}
		if id == "" && name == "" {
			return Room{}, false
		}
	}
	for _, r := range rooms {
		if (id != "" && r.ID == id) || (name != "" && r.Name == name) {
			return r, true
		}
	}
	return Room{}, false
}

// candidateRooms applies the resolver and the any-compatible fallback.
func candidateRooms(req *Requirement, mappings map[string]RoomMapping, rooms []Room) []Room {
	ranked := ResolveRooms(req.Code, req.Type, req.Cohort, req.Batch, mappings, rooms)
	if len(ranked) > 0 {
		return ranked
	}
	return CompatibleRooms(req.Type, rooms)
}
