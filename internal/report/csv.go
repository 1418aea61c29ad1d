// Package report renders a reconciliation result as a file bundle: the long
// CSV dataset, an XLSX workbook, a PDF summary, a JSON run report, and a zip
// of everything.
package report

import (
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"energy-reconcile/internal/reconcile"
)

const (
	monthLayout = "2006-01"
	timeLayout  = time.RFC3339
)

var datasetHeader = []string{
	"entity",
	"entity_name",
	"eu_member",
	"date",
	"fuel",
	"demand",
	"adjusted_demand",
	"total_generation",
	"adjusted_total",
	"net_imports",
	"fuel_value",
	"adjusted_fuel_value",
	"predicted",
}

// WriteDatasetCSV streams the merged rows as long-format CSV.
func WriteDatasetCSV(w io.Writer, rows []reconcile.Row) error {
	writer := csv.NewWriter(w)
	defer writer.Flush()

	if err := writer.Write(datasetHeader); err != nil {
		return err
	}
	for _, row := range rows {
		if err := writer.Write([]string{
			row.Entity,
			row.EntityName,
			formatBool(row.EUMember),
			row.Date.Format(monthLayout),
			string(row.Fuel),
			formatFloat(row.Demand),
			formatFloat(row.AdjustedDemand),
			formatFloat(row.TotalGeneration),
			formatFloat(row.AdjustedTotal),
			formatFloat(row.NetImports),
			formatFloat(row.FuelValue),
			formatFloat(row.AdjustedFuelValue),
			formatBool(row.Predicted),
		}); err != nil {
			return err
		}
	}
	if err := writer.Error(); err != nil {
		return err
	}
	return nil
}

func writeDatasetFile(outDir string, rows []reconcile.Row) error {
	path := filepath.Join(outDir, "dataset.csv")
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()
	return WriteDatasetCSV(file, rows)
}

func writeIssuesFile(outDir string, report reconcile.RunReport) error {
	path := filepath.Join(outDir, "series_issues.csv")
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	if err := writer.Write([]string{"kind", "entity", "variable", "detail"}); err != nil {
		return err
	}
	for _, issue := range report.Fallbacks {
		if err := writer.Write([]string{"fallback", issue.Entity, string(issue.Variable), issue.Reason}); err != nil {
			return err
		}
	}
	for _, issue := range report.FailedSeries {
		if err := writer.Write([]string{"fit_failure", issue.Entity, string(issue.Variable), issue.Reason}); err != nil {
			return err
		}
	}
	for _, flag := range report.ZeroBasisRows {
		if err := writer.Write([]string{"zero_basis", flag.Entity, flag.Date.Format(monthLayout), formatFloat(flag.ParentTotal)}); err != nil {
			return err
		}
	}
	for _, excl := range report.Excluded {
		if err := writer.Write([]string{"excluded", excl.Entity, "", excl.Reason}); err != nil {
			return err
		}
	}
	return writer.Error()
}

func formatFloat(value float64) string {
	return strconv.FormatFloat(value, 'f', -1, 64)
}

func formatBool(value bool) string {
	if value {
		return "true"
	}
	return "false"
}
