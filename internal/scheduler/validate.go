package scheduler

import "fmt"

const (
	minLabDuration = 1
	maxLabDuration = 3
)

// Validate returns the critical issues that make allocation pointless. An empty
// slice means the input may be scheduled.
func Validate(in Input, opts Options) []string {
	calendars, issues := buildCalendars(in.Years, opts)
	return append(issues, validateResources(in, calendars)...)
}

func validateResources(in Input, calendars map[string][]TimeSlot) []string {
	var issues []string
	if len(in.Teachers) == 0 {
		issues = append(issues, "CRITICAL: No teachers defined. Add teachers before generating timetable.")
	}
	if len(in.Rooms) == 0 {
		issues = append(issues, "CRITICAL: No rooms defined. Add rooms before generating timetable.")
	}
	hasLabRoom := len(CompatibleRooms(SessionLab, in.Rooms)) > 0
	issues = append(issues, mixedCalendars(in.Years, calendars)...)

	for _, year := range in.Years {
		calendar, ok := calendars[year.Name]
		if !ok {
			continue
		}
		periods := teachingSlotCount(calendar)
		labsMissingRooms := false
		for _, subj := range year.Subjects {
			if len(in.Teachers) > 0 && !anyQualified(in.Teachers, subj.Code) {
				issues = append(issues, fmt.Sprintf("CRITICAL: No teacher qualified for %s in %s. Assign at least one teacher.", subj.Code, year.Name))
			}
			if subj.Type != SessionLab {
				continue
			}
			duration := subj.LabDuration
			if duration == 0 {
				duration = minLabDuration
			}
			if duration < minLabDuration || duration > maxLabDuration {
				issues = append(issues, fmt.Sprintf("CRITICAL: Invalid lab duration %d for %s in %s. Must be between %d and %d hours.", subj.LabDuration, subj.Code, year.Name, minLabDuration, maxLabDuration))
			} else if duration > periods {
				issues = append(issues, fmt.Sprintf("CRITICAL: Lab duration %d for %s in %s exceeds the %d teaching periods per day.", duration, subj.Code, year.Name, periods))
			}
			if !hasLabRoom && len(in.Rooms) > 0 {
				labsMissingRooms = true
			}
		}
		if labsMissingRooms {
			issues = append(issues, fmt.Sprintf("CRITICAL: %s has lab subjects but no Lab rooms are defined. Add at least one Lab room.", year.Name))
		}
	}
	return issues
}

// mixedCalendars rejects runs where some years use clock slots and others use
// numbered periods. Teachers and rooms are shared across years, and a period
// number carries no time, so clashes between the two kinds cannot be detected.
func mixedCalendars(years []YearConfig, calendars map[string][]TimeSlot) []string {
	var clock, period string
	for _, year := range years {
		slots, ok := calendars[year.Name]
		if !ok || len(slots) == 0 {
			continue
		}
		if slots[0].Start != "" {
			if clock == "" {
				clock = year.Name
			}
		} else if period == "" {
			period = year.Name
		}
	}
	if clock == "" || period == "" {
		return nil
	}
	return []string{fmt.Sprintf("CRITICAL: %s uses clock time slots but %s uses numbered periods. Give every year a time configuration or none, so shared teachers and rooms can be checked for clashes.", clock, period)}
}

func anyQualified(teachers []Teacher, code string) bool {
	for _, t := range teachers {
		if t.CanTeach(code) {
			return true
		}
	}
	return false
}

// buildCalendars computes each year's day once; invalid time configurations
// are reported as critical issues.
func buildCalendars(years []YearConfig, opts Options) (map[string][]TimeSlot, []string) {
	calendars := make(map[string][]TimeSlot, len(years))
	var issues []string
	for _, year := range years {
		slots, err := year.Calendar(opts.UseRealTimeSlots)
		if err != nil {
			issues = append(issues, fmt.Sprintf("CRITICAL: Invalid time configuration for %s: %v", year.Name, err))
			continue
		}
		if teachingSlotCount(slots) == 0 {
			issues = append(issues, fmt.Sprintf("CRITICAL: %s has no teaching slots in its day.", year.Name))
			continue
		}
		calendars[year.Name] = slots
	}
	return calendars, issues
}

// planWarnings flags configurations that will leave hours unplaced by construction.
func planWarnings(years []YearConfig) []string {
	var warnings []string
	for _, year := range years {
		if len(year.WorkingDays()) == 0 {
			warnings = append(warnings, fmt.Sprintf("%s has no working days after holidays", year.Name))
		}
		for _, subj := range year.Subjects {
			if subj.Type == SessionLab && subj.LabDuration > 1 && subj.Hours%subj.LabDuration != 0 {
				warnings = append(warnings, fmt.Sprintf("%s in %s: %d hours is not a multiple of the %d-hour lab duration; %d hour(s) cannot be placed",
					subj.Code, year.Name, subj.Hours, subj.LabDuration, subj.Hours%subj.LabDuration))
			}
		}
	}
	return warnings
}
