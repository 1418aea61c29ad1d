// Package apihttp serves the reconciled dataset over a read-only HTTP API.
package apihttp

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"energy-reconcile/internal/reconcile"
	"energy-reconcile/internal/report"
)

const monthLayout = "2006-01"

// DatasetHandler serves reconciled rows with optional entity and month
// range filters.
type DatasetHandler struct {
	result *reconcile.Result
}

// NewDatasetHandler constructs a DatasetHandler.
func NewDatasetHandler(result *reconcile.Result) *DatasetHandler {
	return &DatasetHandler{result: result}
}

// ServeHTTP handles GET /api/v1/dataset.
func (h *DatasetHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if h == nil || h.result == nil {
		http.Error(w, "server not ready", http.StatusServiceUnavailable)
		return
	}

	entity := r.URL.Query().Get("entity")
	fuel := r.URL.Query().Get("fuel")
	from, err := parseMonthQuery(r, "from")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	to, err := parseMonthQuery(r, "to")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	rows := filterRows(h.result.Rows, entity, fuel, from, to)
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(rows)
}

// LatestRunHandler serves the metadata report of the run in memory.
type LatestRunHandler struct {
	result *reconcile.Result
}

// NewLatestRunHandler constructs a LatestRunHandler.
func NewLatestRunHandler(result *reconcile.Result) *LatestRunHandler {
	return &LatestRunHandler{result: result}
}

// ServeHTTP handles GET /api/v1/runs/latest.
func (h *LatestRunHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if h == nil || h.result == nil {
		http.Error(w, "server not ready", http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(h.result.Report)
}

// ExportDatasetCSVHandler streams the full dataset as CSV.
type ExportDatasetCSVHandler struct {
	result *reconcile.Result
}

// NewExportDatasetCSVHandler constructs an ExportDatasetCSVHandler.
func NewExportDatasetCSVHandler(result *reconcile.Result) *ExportDatasetCSVHandler {
	return &ExportDatasetCSVHandler{result: result}
}

// ServeHTTP handles GET /api/v1/exports/dataset.csv.
func (h *ExportDatasetCSVHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if h == nil || h.result == nil {
		http.Error(w, "server not ready", http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="dataset.csv"`)
	if err := report.WriteDatasetCSV(w, h.result.Rows); err != nil {
		http.Error(w, "export error", http.StatusInternalServerError)
		return
	}
}

// ExportDatasetXLSXHandler serves the dataset workbook.
type ExportDatasetXLSXHandler struct {
	result *reconcile.Result
}

// NewExportDatasetXLSXHandler constructs an ExportDatasetXLSXHandler.
func NewExportDatasetXLSXHandler(result *reconcile.Result) *ExportDatasetXLSXHandler {
	return &ExportDatasetXLSXHandler{result: result}
}

// ServeHTTP handles GET /api/v1/exports/dataset.xlsx.
func (h *ExportDatasetXLSXHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if h == nil || h.result == nil {
		http.Error(w, "server not ready", http.StatusServiceUnavailable)
		return
	}
	data, err := report.BuildWorkbookXLSX(h.result)
	if err != nil {
		http.Error(w, "export error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="dataset.xlsx"`)
	_, _ = w.Write(data)
}

// ExportSummaryPDFHandler serves the run summary PDF.
type ExportSummaryPDFHandler struct {
	result *reconcile.Result
}

// NewExportSummaryPDFHandler constructs an ExportSummaryPDFHandler.
func NewExportSummaryPDFHandler(result *reconcile.Result) *ExportSummaryPDFHandler {
	return &ExportSummaryPDFHandler{result: result}
}

// ServeHTTP handles GET /api/v1/exports/summary.pdf.
func (h *ExportSummaryPDFHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if h == nil || h.result == nil {
		http.Error(w, "server not ready", http.StatusServiceUnavailable)
		return
	}
	data, err := report.BuildSummaryPDF(h.result.Report)
	if err != nil {
		http.Error(w, "export error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="summary.pdf"`)
	_, _ = w.Write(data)
}

func filterRows(rows []reconcile.Row, entity, fuel string, from, to time.Time) []reconcile.Row {
	filtered := make([]reconcile.Row, 0, len(rows))
	for _, row := range rows {
		if entity != "" && row.Entity != entity {
			continue
		}
		if fuel != "" && string(row.Fuel) != fuel {
			continue
		}
		if !from.IsZero() && row.Date.Before(from) {
			continue
		}
		if !to.IsZero() && row.Date.After(to) {
			continue
		}
		filtered = append(filtered, row)
	}
	return filtered
}

func parseMonthQuery(r *http.Request, key string) (time.Time, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return time.Time{}, nil
	}
	parsed, err := time.Parse(monthLayout, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("%s must be formatted as %s", key, monthLayout)
	}
	return parsed.UTC(), nil
}
