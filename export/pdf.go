package export

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/jung-kurt/gofpdf"

	"github.com/marinaops/staffdesk/timeoff"
)

// =============================================================================
// TOTALS PDF
// =============================================================================

var pdfColumnWidths = []float64{18, 52, 44, 28, 28, 24}

// WriteTotalsPDF renders the totals table on A4 landscape pages.
func WriteTotalsPDF(w io.Writer, totals timeoff.Totals, kind timeoff.Kind, generatedAt time.Time) error {
	title := "All leave"
	if kind != "" {
		title = string(kind)
	}

	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetTitle(fmt.Sprintf("Time-off totals %d", totals.Year), false)
	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(0, 10, fmt.Sprintf("Time-off totals %d: %s", totals.Year, title))
	pdf.Ln(12)
	pdf.SetFont("Helvetica", "", 9)
	pdf.Cell(0, 6, "Generated "+generatedAt.Format(TimestampLayout))
	pdf.Ln(10)

	header := func() {
		pdf.SetFont("Helvetica", "B", 10)
		pdf.SetFillColor(230, 236, 242)
		for i, col := range TotalsHeader {
			pdf.CellFormat(pdfColumnWidths[i], 8, col, "1", 0, "C", true, 0, "")
		}
		pdf.Ln(-1)
		pdf.SetFont("Helvetica", "", 10)
	}
	header()

	_, pageHeight := pdf.GetPageSize()
	_, _, _, bottom := pdf.GetMargins()
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	year := strconv.Itoa(totals.Year)
	for _, row := range totals.Rows() {
		b, err := SelectBucket(row, kind)
		if err != nil {
			return err
		}
		if pdf.GetY()+7 > pageHeight-bottom {
			pdf.AddPage()
			header()
		}
		cells := []string{year, row.Name, row.Position, hours(b.Requested), hours(b.Approved), hours(b.Taken)}
		for i, c := range cells {
			align := "L"
			if i == 0 || i >= 3 {
				align = "R"
			}
			pdf.CellFormat(pdfColumnWidths[i], 7, tr(c), "1", 0, align, false, 0, "")
		}
		pdf.Ln(-1)
	}

	return pdf.Output(w)
}
