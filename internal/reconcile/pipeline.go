// Package reconcile orchestrates gap-filling and hierarchical reconciliation
// of the monthly energy table: EU members against the authoritative regional
// demand total, non-EU countries bottom-up.
package reconcile

import (
	"context"
	"io"
	"log"
	"time"

	"energy-reconcile/internal/dataset"
	"energy-reconcile/internal/forecast"
	"energy-reconcile/internal/observability/metrics"
)

// Clock provides time for the pipeline.
type Clock interface {
	Now() time.Time
}

// SystemClock uses time.Now.
type SystemClock struct{}

// Now returns current UTC time.
func (SystemClock) Now() time.Time { return time.Now().UTC() }

// Result is the terminal output of one run: the merged table plus metadata.
type Result struct {
	Rows   []Row
	Report RunReport
}

// Pipeline runs both reconcilers over an ingested table and merges their
// outputs. The table is read-only throughout; all derived values live in the
// result.
type Pipeline struct {
	cfg     Config
	eu      *EUReconciler
	nonEU   *NonEUAssembler
	clock   Clock
	logger  *log.Logger
	metrics *metrics.Metrics
}

// NewPipeline constructs a pipeline and its gap filler. Metrics may be nil.
func NewPipeline(cfg Config, clock Clock, logger *log.Logger, m *metrics.Metrics) (*Pipeline, error) {
	if clock == nil {
		clock = SystemClock{}
	}
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	filler := forecast.NewGapFiller(cfg.MinHistoryMonths, logger)
	eu, err := NewEUReconciler(cfg, filler, logger)
	if err != nil {
		return nil, err
	}
	nonEU, err := NewNonEUAssembler(cfg, filler, logger)
	if err != nil {
		return nil, err
	}
	return &Pipeline{cfg: cfg, eu: eu, nonEU: nonEU, clock: clock, logger: logger, metrics: m}, nil
}

// Run validates preconditions, reconciles both partitions, and merges them.
// Schema-level problems fail fast before any fitting; per-series problems
// degrade to flagged fallbacks recorded in the report.
func (p *Pipeline) Run(ctx context.Context, table *dataset.Table) (*Result, error) {
	started := p.clock.Now()
	if err := table.Validate(); err != nil {
		p.countRun("error")
		return nil, err
	}

	report := RunReport{
		GeneratedAt:   started,
		CalendarStart: p.cfg.StabilizationDate,
		CalendarEnd:   table.End,
	}

	euRows, err := p.eu.Run(ctx, table, &report)
	if err != nil {
		p.countRun("error")
		return nil, err
	}
	p.logger.Printf("eu reconciliation: %d rows", len(euRows))

	nonEURows, err := p.nonEU.Run(ctx, table, &report)
	if err != nil {
		p.countRun("error")
		return nil, err
	}
	p.logger.Printf("non-eu assembly: %d rows", len(nonEURows))

	rows, err := Merge(euRows, nonEURows)
	if err != nil {
		p.countRun("error")
		return nil, err
	}

	entities := make(map[string]struct{})
	for _, row := range rows {
		entities[row.Entity] = struct{}{}
	}
	report.Entities = len(entities)
	report.Rows = len(rows)

	p.observe(report, started)
	p.logger.Printf("run complete: rows=%d entities=%d modeled=%d fallbacks=%d failures=%d zero_basis=%d excluded=%d",
		report.Rows, report.Entities, report.ModeledSeries,
		len(report.Fallbacks), len(report.FailedSeries), len(report.ZeroBasisRows), len(report.Excluded))

	return &Result{Rows: rows, Report: report}, nil
}

func (p *Pipeline) countRun(status string) {
	if p.metrics == nil {
		return
	}
	p.metrics.RunsTotal.WithLabelValues(status).Inc()
}

func (p *Pipeline) observe(report RunReport, started time.Time) {
	p.countRun("success")
	if p.metrics == nil {
		return
	}
	p.metrics.RunDuration.Observe(p.clock.Now().Sub(started).Seconds())
	p.metrics.SeriesFilled.WithLabelValues(string(forecast.MethodModel)).Add(float64(report.ModeledSeries))
	p.metrics.SeriesFilled.WithLabelValues(string(forecast.MethodCarry)).Add(float64(len(report.Fallbacks) + len(report.FailedSeries)))
	p.metrics.FitFailures.Add(float64(len(report.FailedSeries)))
	p.metrics.ZeroBasisRows.Add(float64(len(report.ZeroBasisRows)))
	p.metrics.RowsEmitted.Set(float64(report.Rows))
	p.metrics.Excluded.Set(float64(len(report.Excluded)))
}
