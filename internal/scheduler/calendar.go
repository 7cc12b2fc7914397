package scheduler

import (
	"fmt"
	"strconv"
	"time"
)

const clockLayout = "15:04"

// TimeSlot is one row of a day. Break slots are materialised so grids have no holes.
type TimeSlot struct {
	Period  int    `json:"period"`
	Start   string `json:"start,omitempty"`
	End     string `json:"end,omitempty"`
	Key     string `json:"slot_key"`
	IsBreak bool   `json:"is_break"`
}

// BuildClockSlots tiles [start, end) with period-length slots. A slot that would
// cross into the lunch window is clipped at its start, and the window itself is
// covered by slots flagged as breaks.
func BuildClockSlots(cfg TimeConfig) ([]TimeSlot, error) {
	start, err := time.Parse(clockLayout, cfg.StartTime)
	if err != nil {
		return nil, fmt.Errorf("invalid start time %q: %w", cfg.StartTime, err)
	}
	end, err := time.Parse(clockLayout, cfg.EndTime)
	if err != nil {
		return nil, fmt.Errorf("invalid end time %q: %w", cfg.EndTime, err)
	}
	if !start.Before(end) {
		return nil, fmt.Errorf("start time %s must be before end time %s", cfg.StartTime, cfg.EndTime)
	}
	if cfg.PeriodDuration <= 0 {
		return nil, fmt.Errorf("period duration must be positive, got %d", cfg.PeriodDuration)
	}
	period := time.Duration(cfg.PeriodDuration) * time.Minute

	var lunchStart, lunchEnd time.Time
	hasLunch := cfg.LunchStart != "" && cfg.LunchDuration > 0
	if hasLunch {
		lunchStart, err = time.Parse(clockLayout, cfg.LunchStart)
		if err != nil {
			return nil, fmt.Errorf("invalid lunch start %q: %w", cfg.LunchStart, err)
		}
		lunchEnd = lunchStart.Add(time.Duration(cfg.LunchDuration) * time.Minute)
	}

	var slots []TimeSlot
	number := 1
	for current := start; current.Before(end); {
		next := current.Add(period)
		isBreak := false
		if hasLunch {
			switch {
			case !current.Before(lunchStart) && current.Before(lunchEnd):
				isBreak = true
				if next.After(lunchEnd) {
					next = lunchEnd
				}
			case current.Before(lunchStart) && next.After(lunchStart):
				next = lunchStart
			}
		}
		if next.After(end) {
			next = end
		}

		slot := TimeSlot{
			Start:   current.Format(clockLayout),
			End:     next.Format(clockLayout),
			IsBreak: isBreak,
		}
		slot.Key = slot.Start + "-" + slot.End
		if !isBreak {
			slot.Period = number
			number++
		}
		slots = append(slots, slot)
		current = next
	}
	return slots, nil
}

// BuildPeriodSlots produces the period-count calendar keyed "1".."n".
func BuildPeriodSlots(periods, lunchPeriod int) []TimeSlot {
	slots := make([]TimeSlot, 0, periods)
	for i := 1; i <= periods; i++ {
		slots = append(slots, TimeSlot{
			Period:  i,
			Key:     strconv.Itoa(i),
			IsBreak: i == lunchPeriod,
		})
	}
	return slots
}

// Calendar returns the ordered slots of one day for the year.
func (y YearConfig) Calendar(useRealTimeSlots bool) ([]TimeSlot, error) {
	if y.TimeConfig != nil && useRealTimeSlots {
		return BuildClockSlots(*y.TimeConfig)
	}
	periods := y.PeriodsPerDay
	if periods <= 0 {
		periods = defaultPeriodsPerDay
	}
	lunch := defaultLunchPeriod
	if y.LunchBreak != nil {
		lunch = *y.LunchBreak
	}
	return BuildPeriodSlots(periods, lunch), nil
}

// WorkingDays lists the days the year is taught, in week order.
func (y YearConfig) WorkingDays() []string {
	count := y.DaysPerWeek
	if count <= 0 || count > len(weekdays) {
		count = len(weekdays)
	}
	holidays := make(map[string]bool, len(y.Holidays))
	for _, h := range y.Holidays {
		holidays[h] = true
	}
	days := make([]string, 0, count)
	for _, day := range weekdays[:count] {
		if !holidays[day] {
			days = append(days, day)
		}
	}
	return days
}

func teachingSlotCount(slots []TimeSlot) int {
	n := 0
	for _, s := range slots {
		if !s.IsBreak {
			n++
		}
	}
	return n
}
