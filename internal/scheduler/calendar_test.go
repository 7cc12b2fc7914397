package scheduler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildClockSlotsTilesWindow(t *testing.T) {
	slots, err := BuildClockSlots(TimeConfig{
		StartTime:      "09:00",
		EndTime:        "15:00",
		PeriodDuration: 60,
		LunchStart:     "12:30",
		LunchDuration:  45,
	})
	require.NoError(t, err)
	require.NotEmpty(t, slots)

	assert.Equal(t, "09:00", slots[0].Start)
	assert.Equal(t, "15:00", slots[len(slots)-1].End)
	for i := 1; i < len(slots); i++ {
		assert.Equal(t, slots[i-1].End, slots[i].Start, "slot %d must start where the previous ended", i)
	}

	var breakKeys []string
	for _, s := range slots {
		if s.IsBreak {
			breakKeys = append(breakKeys, s.Key)
			assert.Zero(t, s.Period)
		}
	}
	assert.Equal(t, []string{"12:30-13:15"}, breakKeys)

	keys := make([]string, 0, len(slots))
	for _, s := range slots {
		keys = append(keys, s.Key)
	}
	assert.Equal(t, []string{"09:00-10:00", "10:00-11:00", "11:00-12:00", "12:00-12:30", "12:30-13:15", "13:15-14:15", "14:15-15:00"}, keys)
}

func TestBuildClockSlotsLongLunchSplitsIntoBreaks(t *testing.T) {
	slots, err := BuildClockSlots(TimeConfig{
		StartTime:      "08:00",
		EndTime:        "12:00",
		PeriodDuration: 60,
		LunchStart:     "09:00",
		LunchDuration:  90,
	})
	require.NoError(t, err)

	var breaks []TimeSlot
	for _, s := range slots {
		if s.IsBreak {
			breaks = append(breaks, s)
		}
	}
	require.Len(t, breaks, 2)
	assert.Equal(t, "09:00", breaks[0].Start)
	assert.Equal(t, "10:30", breaks[1].End)
}

func TestBuildClockSlotsRejectsInvalidConfig(t *testing.T) {
	cases := map[string]TimeConfig{
		"bad start":   {StartTime: "nine", EndTime: "15:00", PeriodDuration: 60},
		"end first":   {StartTime: "15:00", EndTime: "09:00", PeriodDuration: 60},
		"zero period": {StartTime: "09:00", EndTime: "15:00"},
		"bad lunch":   {StartTime: "09:00", EndTime: "15:00", PeriodDuration: 60, LunchStart: "noon", LunchDuration: 30},
	}
	for name, cfg := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := BuildClockSlots(cfg)
			assert.Error(t, err)
		})
	}
}

func TestYearCalendarPeriodMode(t *testing.T) {
	year := YearConfig{Name: "FY", PeriodsPerDay: 6}
	slots, err := year.Calendar(true)
	require.NoError(t, err)
	require.Len(t, slots, 6)
	assert.True(t, slots[3].IsBreak)
	assert.Equal(t, "4", slots[3].Key)
	assert.Equal(t, 5, teachingSlotCount(slots))

	none := 0
	year.LunchBreak = &none
	slots, err = year.Calendar(true)
	require.NoError(t, err)
	assert.Equal(t, 6, teachingSlotCount(slots))
}

func TestYearCalendarIgnoresClockWhenDisabled(t *testing.T) {
	year := YearConfig{
		Name:          "SY",
		PeriodsPerDay: 5,
		TimeConfig:    &TimeConfig{StartTime: "09:00", EndTime: "12:00", PeriodDuration: 60},
	}
	slots, err := year.Calendar(false)
	require.NoError(t, err)
	assert.Len(t, slots, 5)
	assert.Equal(t, "1", slots[0].Key)
}

func TestWorkingDays(t *testing.T) {
	year := YearConfig{DaysPerWeek: 6, Holidays: []string{"Wed"}}
	assert.Equal(t, []string{"Mon", "Tue", "Thu", "Fri", "Sat"}, year.WorkingDays())

	assert.Len(t, YearConfig{}.WorkingDays(), 7)
}
