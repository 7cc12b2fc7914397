package export

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleSheet() Sheet {
	return Sheet{
		Title:   "FY Division 1",
		Columns: []string{"09:00-10:00", "10:00-11:00"},
		Rows: []SheetRow{
			{Label: "Mon", Cells: []string{"MATH (Ann) C-1", "PHY B1 (Ben) L-1\nPHY B2 (Cid) L-2"}},
			{Label: "Tue", Cells: []string{"ENG (Erin) C-1"}},
		},
	}
}

func TestCSVExporterRender(t *testing.T) {
	out, err := NewCSVExporter().Render(sampleSheet())
	require.NoError(t, err)
	assert.Equal(t,
		"Day,09:00-10:00,10:00-11:00\n"+
			"Mon,MATH (Ann) C-1,PHY B1 (Ben) L-1 | PHY B2 (Cid) L-2\n"+
			"Tue,ENG (Erin) C-1,\n",
		string(out))
}

func TestCSVExporterRequiresColumns(t *testing.T) {
	_, err := NewCSVExporter().Render(Sheet{})
	assert.Error(t, err)
}

func TestPDFExporterRender(t *testing.T) {
	out, err := NewPDFExporter().Render(sampleSheet())
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))
}

func TestSheetRejectsExtraCells(t *testing.T) {
	sheet := Sheet{Columns: []string{"1"}, Rows: []SheetRow{{Label: "Mon", Cells: []string{"a", "b"}}}}
	_, err := NewPDFExporter().Render(sheet)
	assert.Error(t, err)
}
