package report

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"

	"energy-reconcile/internal/reconcile"
)

// BuildWorkbookXLSX renders the run as an XLSX workbook with a summary sheet
// and the full dataset sheet.
func BuildWorkbookXLSX(result *reconcile.Result) ([]byte, error) {
	f := excelize.NewFile()
	summarySheet := "summary"
	dataSheet := "dataset"
	f.SetSheetName("Sheet1", summarySheet)
	if _, err := f.NewSheet(dataSheet); err != nil {
		return nil, err
	}

	rep := result.Report
	_ = f.SetCellValue(summarySheet, "A1", "Monthly Energy Reconciliation")
	_ = f.SetCellValue(summarySheet, "A3", "Generated")
	_ = f.SetCellValue(summarySheet, "B3", rep.GeneratedAt.Format(timeLayout))
	_ = f.SetCellValue(summarySheet, "A4", "Calendar Start")
	_ = f.SetCellValue(summarySheet, "B4", rep.CalendarStart.Format(monthLayout))
	_ = f.SetCellValue(summarySheet, "A5", "Calendar End")
	_ = f.SetCellValue(summarySheet, "B5", rep.CalendarEnd.Format(monthLayout))
	_ = f.SetCellValue(summarySheet, "A6", "Entities")
	_ = f.SetCellValue(summarySheet, "B6", rep.Entities)
	_ = f.SetCellValue(summarySheet, "A7", "Rows")
	_ = f.SetCellValue(summarySheet, "B7", rep.Rows)
	_ = f.SetCellValue(summarySheet, "A8", "Modeled Series")
	_ = f.SetCellValue(summarySheet, "B8", rep.ModeledSeries)
	_ = f.SetCellValue(summarySheet, "A9", "Fallback Series")
	_ = f.SetCellValue(summarySheet, "B9", len(rep.Fallbacks))
	_ = f.SetCellValue(summarySheet, "A10", "Failed Series")
	_ = f.SetCellValue(summarySheet, "B10", len(rep.FailedSeries))
	_ = f.SetCellValue(summarySheet, "A11", "Zero-Basis Rows")
	_ = f.SetCellValue(summarySheet, "B11", len(rep.ZeroBasisRows))
	_ = f.SetCellValue(summarySheet, "A12", "Excluded Entities")
	_ = f.SetCellValue(summarySheet, "B12", len(rep.Excluded))

	for i, name := range datasetHeader {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return nil, err
		}
		_ = f.SetCellValue(dataSheet, cell, name)
	}
	for i, row := range result.Rows {
		n := i + 2
		_ = f.SetCellValue(dataSheet, fmt.Sprintf("A%d", n), row.Entity)
		_ = f.SetCellValue(dataSheet, fmt.Sprintf("B%d", n), row.EntityName)
		_ = f.SetCellValue(dataSheet, fmt.Sprintf("C%d", n), row.EUMember)
		_ = f.SetCellValue(dataSheet, fmt.Sprintf("D%d", n), row.Date.Format(monthLayout))
		_ = f.SetCellValue(dataSheet, fmt.Sprintf("E%d", n), string(row.Fuel))
		_ = f.SetCellValue(dataSheet, fmt.Sprintf("F%d", n), row.Demand)
		_ = f.SetCellValue(dataSheet, fmt.Sprintf("G%d", n), row.AdjustedDemand)
		_ = f.SetCellValue(dataSheet, fmt.Sprintf("H%d", n), row.TotalGeneration)
		_ = f.SetCellValue(dataSheet, fmt.Sprintf("I%d", n), row.AdjustedTotal)
		_ = f.SetCellValue(dataSheet, fmt.Sprintf("J%d", n), row.NetImports)
		_ = f.SetCellValue(dataSheet, fmt.Sprintf("K%d", n), row.FuelValue)
		_ = f.SetCellValue(dataSheet, fmt.Sprintf("L%d", n), row.AdjustedFuelValue)
		_ = f.SetCellValue(dataSheet, fmt.Sprintf("M%d", n), row.Predicted)
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
