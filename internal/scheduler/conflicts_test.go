package scheduler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestChecker(t *testing.T, saved []SavedTimetable) (*checker, []TimeSlot, Cohort) {
	t.Helper()
	year := YearConfig{Name: "SY", Divisions: 1, PeriodsPerDay: 6}
	slots, err := year.Calendar(false)
	require.NoError(t, err)
	grids := NewGrids(
		[]YearConfig{year},
		map[string][]TimeSlot{"SY": slots},
		[]Teacher{{Name: "Alice"}, {Name: "Bob"}},
		[]Room{{Name: "Lab-1", Type: RoomLab}, {Name: "Lab-2", Type: RoomLab}},
	)
	return &checker{grids: grids, published: NewPublishedIndex(saved), checkRoomConflicts: true}, slots, Cohort{Year: "SY", Division: 1}
}

func TestReserveContiguousStopsAtBreak(t *testing.T) {
	chk, slots, cohort := newTestChecker(t, nil)

	keys, conflict := chk.reserveContiguous(cohort, "Mon", 2, 2, "Alice", "Lab-1", 1, slots)
	assert.Nil(t, keys)
	require.NotNil(t, conflict)
	assert.Equal(t, ReasonBreakInterruption, conflict.Reason)
	assert.Equal(t, "4", conflict.BreakSlot)
	assert.Equal(t, 2, conflict.BreakPosition)
	assert.Equal(t, 2, conflict.TotalDuration)
}

func TestReserveContiguousInsufficientSlots(t *testing.T) {
	chk, slots, cohort := newTestChecker(t, nil)

	_, conflict := chk.reserveContiguous(cohort, "Mon", 5, 2, "Alice", "Lab-1", 1, slots)
	require.NotNil(t, conflict)
	assert.Equal(t, ReasonInsufficientSlots, conflict.Reason)
}

func TestReserveContiguousDoesNotMutate(t *testing.T) {
	chk, slots, cohort := newTestChecker(t, nil)
	chk.grids.reserve(cohort, "Mon", "2", Assignment{Subject: "PHY", Teacher: "Bob", Room: "Lab-2", Batch: 2, Type: SessionLab})

	_, conflict := chk.reserveContiguous(cohort, "Mon", 0, 2, "Bob", "Lab-1", 1, slots)
	require.NotNil(t, conflict)
	assert.Equal(t, ReasonTeacherConflict, conflict.Reason)
	assert.Equal(t, "2", conflict.ConflictingSlot)
	assert.True(t, chk.grids.TeacherFree("Bob", "Mon", "1"))
	assert.True(t, chk.grids.RoomFree("Lab-1", "Mon", "1"))

	keys, conflict := chk.reserveContiguous(cohort, "Mon", 0, 2, "Alice", "Lab-1", 1, slots)
	assert.Nil(t, conflict)
	assert.Equal(t, []string{"1", "2"}, keys)
	assert.Empty(t, chk.grids.ClassCell(cohort, "Mon", "1"))
}

func TestReserveContiguousBatchConflict(t *testing.T) {
	chk, slots, cohort := newTestChecker(t, nil)
	chk.grids.reserve(cohort, "Tue", "1", Assignment{Subject: "CHE", Teacher: "Bob", Room: "Lab-2", Batch: 1, Type: SessionLab})

	_, conflict := chk.reserveContiguous(cohort, "Tue", 0, 2, "Alice", "Lab-1", 1, slots)
	require.NotNil(t, conflict)
	assert.Equal(t, ReasonBatchConflict, conflict.Reason)

	_, conflict = chk.reserveContiguous(cohort, "Tue", 0, 2, "Alice", "Lab-1", 2, slots)
	assert.Nil(t, conflict)
}

func TestReserveContiguousExternalConflicts(t *testing.T) {
	saved := []SavedTimetable{{
		Year:     "TY",
		Division: "2",
		Data: map[string]map[string][]SavedEntry{
			"Wed": {
				"2": {{Teacher: "Alice", Room: "Room-9", Subject: "DBMS"}},
				"3": {{Teacher: "Zed", Room: "Lab-1", Subject: "OS"}},
			},
		},
	}}
	chk, slots, cohort := newTestChecker(t, saved)

	_, conflict := chk.reserveContiguous(cohort, "Wed", 0, 2, "Alice", "Lab-2", 1, slots)
	require.NotNil(t, conflict)
	assert.Equal(t, ReasonTeacherConflictGlobal, conflict.Reason)
	require.NotNil(t, conflict.With)
	assert.Equal(t, "TY", conflict.With.Year)
	assert.Equal(t, "DBMS", conflict.With.Subject)

	_, conflict = chk.reserveContiguous(cohort, "Wed", 1, 2, "Bob", "Lab-1", 1, slots)
	require.NotNil(t, conflict)
	assert.Equal(t, ReasonRoomConflictGlobal, conflict.Reason)

	chk.checkRoomConflicts = false
	_, conflict = chk.reserveContiguous(cohort, "Wed", 1, 2, "Bob", "Lab-1", 1, slots)
	assert.Nil(t, conflict)
}

func TestExternalConflictMatchesIndex(t *testing.T) {
	saved := []SavedTimetable{{
		Year:     "FY",
		Division: "1",
		Data: map[string]map[string][]SavedEntry{
			"Fri": {"09:00-10:00": {{Teacher: "Carol", Room: "C-101", Subject: "MATH"}}},
		},
	}}
	idx := NewPublishedIndex(saved)

	for _, kind := range []EntityKind{EntityTeacher, EntityRoom} {
		name := "Carol"
		if kind == EntityRoom {
			name = "C-101"
		}
		scanned, ok := ExternalConflict(saved, kind, name, "Fri", "09:00-10:00")
		require.True(t, ok)
		indexed, ok := idx.Lookup(kind, name, "Fri", "09:00-10:00")
		require.True(t, ok)
		assert.Equal(t, scanned, indexed)
	}

	_, ok := ExternalConflict(saved, EntityTeacher, "Carol", "Thu", "09:00-10:00")
	assert.False(t, ok)
	_, ok = idx.Lookup(EntityRoom, "C-102", "Fri", "09:00-10:00")
	assert.False(t, ok)
}

func TestPublishedIndexMatchesOverlappingSlots(t *testing.T) {
	saved := []SavedTimetable{{
		Year:     "TY",
		Division: "1",
		Data: map[string]map[string][]SavedEntry{
			"Mon": {"09:30-10:30": {{Teacher: "Alice", Room: "C-101", Subject: "OS"}}},
		},
	}}
	idx := NewPublishedIndex(saved)

	hit, ok := idx.Lookup(EntityTeacher, "Alice", "Mon", "09:00-10:00")
	require.True(t, ok)
	assert.Equal(t, "OS", hit.Subject)
	scanned, ok := ExternalConflict(saved, EntityTeacher, "Alice", "Mon", "09:00-10:00")
	require.True(t, ok)
	assert.Equal(t, hit, scanned)

	_, ok = idx.Lookup(EntityRoom, "C-101", "Mon", "10:30-11:30")
	assert.False(t, ok)
	_, ok = ExternalConflict(saved, EntityRoom, "C-101", "Mon", "10:30-11:30")
	assert.False(t, ok)
}

func TestBatchAvailable(t *testing.T) {
	chk, _, cohort := newTestChecker(t, nil)
	g := chk.grids

	assert.True(t, g.BatchAvailable(cohort, "Mon", "1", 1))
	g.reserve(cohort, "Mon", "1", Assignment{Subject: "MATH", Teacher: "Alice", Room: "Lab-1", Type: SessionTheory})
	assert.False(t, g.BatchAvailable(cohort, "Mon", "1", 1))
	assert.False(t, g.BatchAvailable(cohort, "Mon", "1", 2))

	g.reserve(cohort, "Mon", "2", Assignment{Subject: "TUT", Teacher: "Bob", Room: "Lab-2", Batch: 1, Type: SessionTutorial})
	assert.False(t, g.BatchAvailable(cohort, "Mon", "2", 1))
	assert.True(t, g.BatchAvailable(cohort, "Mon", "2", 2))
	assert.NoError(t, g.Verify())
}
