package scheduler

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func roomNames(rooms []Room) []string {
	names := make([]string, 0, len(rooms))
	for _, r := range rooms {
		names = append(names, r.Name)
	}
	return names
}

func TestResolveRoomsExplicitMapping(t *testing.T) {
	rooms := []Room{
		{ID: "r1", Name: "C-101", Type: RoomClassroom},
		{ID: "r2", Name: "C-102", Type: RoomClassroom},
		{ID: "l1", Name: "Lab-A", Type: RoomLab},
		{ID: "l2", Name: "Lab-B", Type: RoomLab},
	}
	mappings := make(map[string]RoomMapping)
	mappings["SY_MATH_Theory"] = RoomMapping{RoomID: "r2"}
	mappings["SY_PHY_Lab"] = RoomMapping{Batches: []BatchRoom{
		{Batch: 1, RoomName: "Lab-B"},
		{Batch: 2, RoomID: "l1"},
	}}
	cohort := Cohort{Year: "SY", Division: 1}

	assert.Equal(t, []string{"C-102"}, roomNames(ResolveRooms("MATH", SessionTheory, cohort, 0, mappings, rooms)))
	assert.Equal(t, []string{"Lab-B"}, roomNames(ResolveRooms("PHY", SessionLab, cohort, 1, mappings, rooms)))
	assert.Equal(t, []string{"Lab-A"}, roomNames(ResolveRooms("PHY", SessionLab, cohort, 2, mappings, rooms)))
	// Unmapped batch falls through to scoring.
	assert.ElementsMatch(t, []string{"Lab-A", "Lab-B"}, roomNames(ResolveRooms("PHY", SessionLab, cohort, 3, mappings, rooms)))
}

func TestResolveRoomsScoresAffinity(t *testing.T) {
	rooms := []Room{
		{Name: "Shared-Any", Type: RoomClassroom, PrimaryYear: SharedYear},
		{Name: "SY-Div2", Type: RoomClassroom, PrimaryYear: "SY", PrimaryDivision: "2"},
		{Name: "SY-Div1", Type: RoomClassroom, PrimaryYear: "SY", PrimaryDivision: "1"},
		{Name: "TY-Only", Type: RoomClassroom, PrimaryYear: "TY"},
		{Name: "Lab", Type: RoomLab},
	}
	got := roomNames(ResolveRooms("MATH", SessionTheory, Cohort{Year: "SY", Division: 1}, 0, nil, rooms))
	assert.Equal(t, []string{"SY-Div1", "SY-Div2", "Shared-Any"}, got)
}

func TestRoomCompatibility(t *testing.T) {
	rooms := []Room{
		{Name: "C", Type: RoomClassroom},
		{Name: "T", Type: RoomTutorial},
		{Name: "L", Type: RoomLab},
	}
	assert.Equal(t, []string{"C"}, roomNames(CompatibleRooms(SessionTheory, rooms)))
	assert.Equal(t, []string{"C", "T"}, roomNames(CompatibleRooms(SessionTutorial, rooms)))
	assert.Equal(t, []string{"L"}, roomNames(CompatibleRooms(SessionLab, rooms)))
}

func TestCandidateRoomsFallsBackToCompatible(t *testing.T) {
	rooms := []Room{{Name: "FY-Room", Type: RoomClassroom, PrimaryYear: "FY"}}
	req := &Requirement{Cohort: Cohort{Year: "SY", Division: 1}, Code: "MATH", Type: SessionTheory}

	assert.Empty(t, ResolveRooms(req.Code, req.Type, req.Cohort, 0, nil, rooms))
	assert.Equal(t, []string{"FY-Room"}, roomNames(candidateRooms(req, nil, rooms)))
}
