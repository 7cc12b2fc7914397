package service

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/noah-isme/sma-timetable-api/internal/models"
	"github.com/noah-isme/sma-timetable-api/internal/scheduler"
	"github.com/noah-isme/sma-timetable-api/pkg/export"
)

func classSheet(tt *models.PublishedTimetable, grid models.ClassGrid) export.Sheet {
	title := fmt.Sprintf("%s Division %s", tt.Year, tt.Division)
	if tt.Department != "" {
		title = tt.Department + " - " + title
	}

	slotSet := make(map[string]struct{})
	for _, slots := range grid {
		for slot := range slots {
			slotSet[slot] = struct{}{}
		}
	}
	columns := orderedSlots(slotSet)
	if len(columns) == 0 {
		columns = []string{"-"}
	}

	sheet := export.Sheet{Title: title, Columns: columns}
	for _, day := range orderedDays(grid) {
		row := export.SheetRow{Label: day, Cells: make([]string, len(columns))}
		for i, slot := range columns {
			entries := grid[day][slot]
			lines := make([]string, 0, len(entries))
			for _, a := range entries {
				lines = append(lines, describeAssignment(a))
			}
			row.Cells[i] = strings.Join(lines, "\n")
		}
		sheet.Rows = append(sheet.Rows, row)
	}
	return sheet
}

func describeAssignment(a scheduler.Assignment) string {
	var b strings.Builder
	b.WriteString(a.Subject)
	if a.Batch > 0 {
		fmt.Fprintf(&b, " B%d", a.Batch)
	}
	if a.Teacher != "" {
		fmt.Fprintf(&b, " (%s)", a.Teacher)
	}
	if a.Room != "" {
		fmt.Fprintf(&b, " @%s", a.Room)
	}
	if a.LabPart != "" {
		fmt.Fprintf(&b, " [%s]", a.LabPart)
	}
	return b.String()
}

// orderedDays returns the keys of m in week order. Unknown keys follow sorted.
func orderedDays[V any](m map[string]V) []string {
	out := make([]string, 0, len(m))
	week := scheduler.Weekdays()
	known := make(map[string]struct{}, len(week))
	for _, day := range week {
		known[day] = struct{}{}
		if _, ok := m[day]; ok {
			out = append(out, day)
		}
	}
	var extra []string
	for day := range m {
		if _, ok := known[day]; !ok {
			extra = append(extra, day)
		}
	}
	sort.Strings(extra)
	return append(out, extra...)
}

// orderedSlots sorts period numbers numerically and clock ranges lexically.
func orderedSlots[V any](m map[string]V) []string {
	out := make([]string, 0, len(m))
	for slot := range m {
		out = append(out, slot)
	}
	sort.Slice(out, func(i, j int) bool {
		a, errA := strconv.Atoi(out[i])
		b, errB := strconv.Atoi(out[j])
		if errA == nil && errB == nil {
			return a < b
		}
		return out[i] < out[j]
	})
	return out
}

func exportFilename(tt *models.PublishedTimetable, format string) string {
	parts := []string{"timetable"}
	for _, p := range []string{tt.Department, tt.Year, "div" + tt.Division} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, strings.ReplaceAll(strings.ToLower(p), " ", "-"))
		}
	}
	return strings.Join(parts, "_") + "." + format
}
