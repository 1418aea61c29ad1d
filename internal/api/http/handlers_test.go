package apihttp

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"energy-reconcile/internal/dataset"
	"energy-reconcile/internal/reconcile"
)

func testResult() *reconcile.Result {
	jan := time.Date(2019, 1, 1, 0, 0, 0, 0, time.UTC)
	feb := time.Date(2019, 2, 1, 0, 0, 0, 0, time.UTC)
	return &reconcile.Result{
		Rows: []reconcile.Row{
			{Entity: "DEU", Date: jan, Fuel: dataset.FuelCoal, Demand: 500},
			{Entity: "DEU", Date: feb, Fuel: dataset.FuelCoal, Demand: 510},
			{Entity: "NOR", Date: jan, Fuel: dataset.FuelHydro, Demand: 45},
		},
		Report: reconcile.RunReport{
			GeneratedAt: time.Date(2020, 6, 1, 12, 0, 0, 0, time.UTC),
			Entities:    2,
			Rows:        3,
		},
	}
}

func TestDatasetHandler_FiltersByEntityAndRange(t *testing.T) {
	handler := NewDatasetHandler(testResult())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/dataset?entity=DEU&from=2019-02", nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}

	var rows []reconcile.Row
	if err := json.NewDecoder(resp.Body).Decode(&rows); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(rows))
	}
	if rows[0].Entity != "DEU" || rows[0].Demand != 510 {
		t.Fatalf("unexpected row %+v", rows[0])
	}
}

func TestDatasetHandler_FiltersByFuel(t *testing.T) {
	handler := NewDatasetHandler(testResult())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/dataset?fuel=Hydro", nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}

	var rows []reconcile.Row
	if err := json.NewDecoder(resp.Body).Decode(&rows); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if len(rows) != 1 || rows[0].Entity != "NOR" {
		t.Fatalf("unexpected rows %+v", rows)
	}
}

func TestDatasetHandler_BadMonthRejected(t *testing.T) {
	handler := NewDatasetHandler(testResult())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/dataset?from=January", nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
}

func TestDatasetHandler_MethodNotAllowed(t *testing.T) {
	handler := NewDatasetHandler(testResult())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/dataset", nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", resp.Code)
	}
}

func TestLatestRunHandler_ReturnsReport(t *testing.T) {
	handler := NewLatestRunHandler(testResult())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/runs/latest", nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}

	var report reconcile.RunReport
	if err := json.NewDecoder(resp.Body).Decode(&report); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if report.Entities != 2 || report.Rows != 3 {
		t.Fatalf("unexpected report %+v", report)
	}
}

func TestExportDatasetCSVHandler_StreamsCSV(t *testing.T) {
	handler := NewExportDatasetCSVHandler(testResult())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/exports/dataset.csv", nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	if ct := resp.Header().Get("Content-Type"); ct != "text/csv" {
		t.Fatalf("unexpected content type %q", ct)
	}
	body := resp.Body.String()
	if !strings.HasPrefix(body, "entity,") {
		t.Fatalf("expected csv header, got %q", body[:40])
	}
	if !strings.Contains(body, "DEU") || !strings.Contains(body, "NOR") {
		t.Fatal("expected both entities in export")
	}
}
