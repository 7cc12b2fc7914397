package export

import "fmt"

// Sheet is a grid of rows (days) by columns (time slots) ready for rendering.
type Sheet struct {
	Title   string
	Corner  string
	Columns []string
	Rows    []SheetRow
}

// SheetRow is one labelled row. Cells align with Sheet.Columns and may hold
// several lines separated by '\n'.
type SheetRow struct {
	Label string
	Cells []string
}

func (s Sheet) validate() error {
	if len(s.Columns) == 0 {
		return fmt.Errorf("sheet requires at least one column")
	}
	for _, row := range s.Rows {
		if len(row.Cells) > len(s.Columns) {
			return fmt.Errorf("row %q has %d cells for %d columns", row.Label, len(row.Cells), len(s.Columns))
		}
	}
	return nil
}

func (s Sheet) corner() string {
	if s.Corner == "" {
		return "Day"
	}
	return s.Corner
}

func (r SheetRow) cell(i int) string {
	if i < len(r.Cells) {
		return r.Cells[i]
	}
	return ""
}
