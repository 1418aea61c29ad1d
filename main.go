package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"time"

	apihttp "energy-reconcile/internal/api/http"
	"energy-reconcile/internal/auth"
	"energy-reconcile/internal/dataset"
	"energy-reconcile/internal/observability/metrics"
	"energy-reconcile/internal/reconcile"
	"energy-reconcile/internal/report"
	storagepostgres "energy-reconcile/internal/storage/postgres"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	cfg := loadConfig()
	logger := log.New(os.Stdout, "", log.LstdFlags)

	reconcileCfg, err := reconcile.LoadConfig()
	if err != nil {
		logger.Fatalf("config error: %v", err)
	}

	table, err := loadTable(cfg.InputPath, reconcileCfg.FloorDate)
	if err != nil {
		logger.Fatalf("ingest error: %v", err)
	}

	m := metrics.New()
	pipeline, err := reconcile.NewPipeline(reconcileCfg, reconcile.SystemClock{}, logger, m)
	if err != nil {
		logger.Fatalf("pipeline error: %v", err)
	}

	ctx := context.Background()
	result, err := pipeline.Run(ctx, table)
	if err != nil {
		logger.Fatalf("run error: %v", err)
	}

	archivePath, err := report.WriteBundle(cfg.OutDir, result)
	if err != nil {
		logger.Fatalf("report error: %v", err)
	}
	logger.Printf("report bundle written: %s", archivePath)

	if cfg.DatabaseURL != "" {
		if err := persistRun(ctx, cfg.DatabaseURL, result, logger); err != nil {
			logger.Fatalf("persist error: %v", err)
		}
	}

	if cfg.HTTPAddr == "" {
		return
	}
	serveAPI(cfg, result, logger)
}

func loadTable(path string, floor time.Time) (*dataset.Table, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	records, err := dataset.ParseCSV(file)
	if err != nil {
		return nil, err
	}
	return dataset.BuildTable(records, floor)
}

func persistRun(ctx context.Context, databaseURL string, result *reconcile.Result, logger *log.Logger) error {
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := db.PingContext(ctx); err != nil {
		return err
	}

	repo, err := storagepostgres.NewRepository(db)
	if err != nil {
		return err
	}
	if err := repo.EnsureSchema(ctx); err != nil {
		return err
	}
	runID, err := repo.SaveRun(ctx, result)
	if err != nil {
		return err
	}
	logger.Printf("run persisted: id=%d rows=%d", runID, len(result.Rows))
	return nil
}

func serveAPI(cfg config, result *reconcile.Result, logger *log.Logger) {
	policy := auth.NewDefaultPolicy([]string{"/healthz", "/metrics"}, nil)
	authMiddleware := auth.NewMiddleware([]byte(cfg.JWTSecret), policy)

	mux := http.NewServeMux()
	mux.Handle("/api/v1/dataset", apihttp.NewDatasetHandler(result))
	mux.Handle("/api/v1/runs/latest", apihttp.NewLatestRunHandler(result))
	mux.Handle("/api/v1/exports/dataset.csv", apihttp.NewExportDatasetCSVHandler(result))
	mux.Handle("/api/v1/exports/dataset.xlsx", apihttp.NewExportDatasetXLSXHandler(result))
	mux.Handle("/api/v1/exports/summary.pdf", apihttp.NewExportSummaryPDFHandler(result))
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	server := &http.Server{Addr: cfg.HTTPAddr, Handler: loggingMiddleware(authMiddleware.Wrap(mux), logger)}
	logger.Printf("http listening on %s", cfg.HTTPAddr)
	logger.Fatal(server.ListenAndServe())
}

type config struct {
	InputPath   string
	OutDir      string
	DatabaseURL string
	HTTPAddr    string
	JWTSecret   string
}

func loadConfig() config {
	cfg := config{
		InputPath:   getenvDefault("INPUT_PATH", ""),
		OutDir:      getenvDefault("OUT_DIR", "out"),
		DatabaseURL: getenvDefault("DATABASE_URL", getenvDefault("PG_DSN", "")),
		HTTPAddr:    getenvDefault("HTTP_ADDR", ""),
		JWTSecret:   getenvDefault("AUTH_JWT_SECRET", getenvDefault("JWT_SECRET", "")),
	}
	if cfg.InputPath == "" {
		log.Fatal("INPUT_PATH is required")
	}
	if cfg.HTTPAddr != "" && cfg.JWTSecret == "" {
		log.Fatal("AUTH_JWT_SECRET is required when HTTP_ADDR is set")
	}
	return cfg
}

func getenvDefault(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func loggingMiddleware(next http.Handler, logger *log.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		resp := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(resp, r)
		logger.Printf("http %s %s %d %s", r.Method, r.URL.Path, resp.status, time.Since(start))
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}
