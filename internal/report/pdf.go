package report

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"

	"energy-reconcile/internal/reconcile"
)

// BuildSummaryPDF renders a one-page PDF summary of a run: headline counts
// plus the series that degraded to fallbacks or failed outright.
func BuildSummaryPDF(rep reconcile.RunReport) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetFont("Arial", "", 12)
	pdf.AddPage()

	pdf.Cell(0, 8, "Monthly Energy Reconciliation")
	pdf.Ln(10)
	pdf.SetFont("Arial", "", 10)
	pdf.Cell(0, 6, fmt.Sprintf("Generated: %s", rep.GeneratedAt.Format(timeLayout)))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Calendar: %s to %s", rep.CalendarStart.Format(monthLayout), rep.CalendarEnd.Format(monthLayout)))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Entities: %d", rep.Entities))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Rows: %d", rep.Rows))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Modeled series: %d", rep.ModeledSeries))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Fallback series: %d", len(rep.Fallbacks)))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Failed series: %d", len(rep.FailedSeries)))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Zero-basis rows: %d", len(rep.ZeroBasisRows)))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Excluded entities: %d", len(rep.Excluded)))
	pdf.Ln(8)

	if len(rep.Fallbacks) > 0 || len(rep.FailedSeries) > 0 {
		pdf.SetFont("Arial", "B", 10)
		pdf.CellFormat(30, 6, "Kind", "1", 0, "C", false, 0, "")
		pdf.CellFormat(30, 6, "Entity", "1", 0, "C", false, 0, "")
		pdf.CellFormat(60, 6, "Variable", "1", 0, "C", false, 0, "")
		pdf.CellFormat(60, 6, "Reason", "1", 0, "C", false, 0, "")
		pdf.Ln(-1)
		pdf.SetFont("Arial", "", 10)
		for _, issue := range rep.Fallbacks {
			writeIssueRow(pdf, "fallback", issue)
		}
		for _, issue := range rep.FailedSeries {
			writeIssueRow(pdf, "failure", issue)
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeIssueRow(pdf *gofpdf.Fpdf, kind string, issue reconcile.SeriesIssue) {
	pdf.CellFormat(30, 6, kind, "1", 0, "C", false, 0, "")
	pdf.CellFormat(30, 6, issue.Entity, "1", 0, "C", false, 0, "")
	pdf.CellFormat(60, 6, string(issue.Variable), "1", 0, "L", false, 0, "")
	pdf.CellFormat(60, 6, issue.Reason, "1", 0, "L", false, 0, "")
	pdf.Ln(-1)
}
