package export

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"
)

const (
	pdfLabelWidth  = 22.0
	pdfLineHeight  = 4.5
	pdfCellPadding = 1.0
)

// PDFExporter renders sheets as a landscape table.
type PDFExporter struct{}

// NewPDFExporter constructs a PDF exporter.
func NewPDFExporter() *PDFExporter {
	return &PDFExporter{}
}

// Render creates an A4 landscape document. Rows grow to fit their tallest
// cell and the header row is repeated on every page.
func (e *PDFExporter) Render(sheet Sheet) ([]byte, error) {
	if err := sheet.validate(); err != nil {
		return nil, err
	}
	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetMargins(10, 12, 10)
	pdf.SetAutoPageBreak(false, 10)
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.AddPage()

	pageWidth, pageHeight := pdf.GetPageSize()
	left, _, right, bottom := pdf.GetMargins()
	widths := make([]float64, 0, len(sheet.Columns)+1)
	widths = append(widths, pdfLabelWidth)
	colWidth := (pageWidth - left - right - pdfLabelWidth) / float64(len(sheet.Columns))
	for range sheet.Columns {
		widths = append(widths, colWidth)
	}

	if sheet.Title != "" {
		pdf.SetFont("Arial", "B", 13)
		pdf.CellFormat(0, 9, tr(sheet.Title), "", 1, "C", false, 0, "")
		pdf.Ln(3)
	}

	header := append([]string{sheet.corner()}, sheet.Columns...)
	drawRow := func(cells []string) {
		lines := 1
		for i, text := range cells {
			if n := len(pdf.SplitLines([]byte(tr(text)), widths[i]-2*pdfCellPadding)); n > lines {
				lines = n
			}
		}
		height := float64(lines)*pdfLineHeight + 2*pdfCellPadding
		if pdf.GetY()+height > pageHeight-bottom {
			pdf.AddPage()
		}
		x, y := left, pdf.GetY()
		for i, text := range cells {
			pdf.Rect(x, y, widths[i], height, "D")
			pdf.SetXY(x+pdfCellPadding, y+pdfCellPadding)
			pdf.MultiCell(widths[i]-2*pdfCellPadding, pdfLineHeight, tr(text), "", "L", false)
			x += widths[i]
		}
		pdf.SetXY(left, y+height)
	}

	pdf.SetFont("Arial", "B", 8)
	drawRow(header)
	pdf.SetFont("Arial", "", 7)
	for _, row := range sheet.Rows {
		cells := make([]string, 0, len(header))
		cells = append(cells, row.Label)
		for i := range sheet.Columns {
			cells = append(cells, row.cell(i))
		}
		drawRow(cells)
	}

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}
