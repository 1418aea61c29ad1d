package report

import (
	"archive/zip"
	"encoding/json"
	"os"
	"path/filepath"

	"energy-reconcile/internal/reconcile"
)

// WriteBundle writes the full report bundle under outDir and returns the
// archive path. The bundle holds dataset.csv, series_issues.csv,
// dataset.xlsx, run_summary.pdf, run_summary.json, and report.zip of all five.
func WriteBundle(outDir string, result *reconcile.Result) (string, error) {
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return "", err
	}
	if err := writeDatasetFile(outDir, result.Rows); err != nil {
		return "", err
	}
	if err := writeIssuesFile(outDir, result.Report); err != nil {
		return "", err
	}

	xlsx, err := BuildWorkbookXLSX(result)
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(filepath.Join(outDir, "dataset.xlsx"), xlsx, 0o644); err != nil {
		return "", err
	}

	pdf, err := BuildSummaryPDF(result.Report)
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(filepath.Join(outDir, "run_summary.pdf"), pdf, 0o644); err != nil {
		return "", err
	}

	if err := writeRunReportJSON(outDir, result.Report); err != nil {
		return "", err
	}
	return writeArchive(outDir)
}

func writeRunReportJSON(outDir string, rep reconcile.RunReport) error {
	path := filepath.Join(outDir, "run_summary.json")
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()
	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	return encoder.Encode(rep)
}

func writeArchive(outDir string) (string, error) {
	archivePath := filepath.Join(outDir, "report.zip")
	file, err := os.Create(archivePath)
	if err != nil {
		return "", err
	}
	defer file.Close()

	zipWriter := zip.NewWriter(file)
	defer zipWriter.Close()

	entries := []string{
		"dataset.csv",
		"series_issues.csv",
		"dataset.xlsx",
		"run_summary.pdf",
		"run_summary.json",
	}

	for _, name := range entries {
		path := filepath.Join(outDir, name)
		if _, err := os.Stat(path); err != nil {
			continue
		}
		fw, err := zipWriter.Create(name)
		if err != nil {
			return "", err
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return "", err
		}
		if _, err := fw.Write(data); err != nil {
			return "", err
		}
	}
	return archivePath, nil
}
