// Package metrics bundles the reconciliation pipeline's prometheus metrics.
package metrics

import "github.com/prometheus/client_golang/prometheus"

const metricPrefix = "energy_reconcile_"

// Metrics bundles pipeline metrics.
type Metrics struct {
	RunsTotal     *prometheus.CounterVec
	RunDuration   prometheus.Histogram
	SeriesFilled  *prometheus.CounterVec
	FitFailures   prometheus.Counter
	ZeroBasisRows prometheus.Counter
	RowsEmitted   prometheus.Gauge
	Excluded      prometheus.Gauge
}

// New constructs and registers metrics.
func New() *Metrics {
	m := &Metrics{
		RunsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "runs_total",
				Help: "Total reconciliation runs by status",
			},
			[]string{"status"},
		),
		RunDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    metricPrefix + "run_duration_seconds",
			Help:    "Reconciliation run duration in seconds",
			Buckets: prometheus.DefBuckets,
		}),
		SeriesFilled: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "series_filled_total",
				Help: "Gap-filled series by fill method",
			},
			[]string{"method"},
		),
		FitFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: metricPrefix + "fit_failures_total",
			Help: "Series whose seasonal model search failed to converge",
		}),
		ZeroBasisRows: prometheus.NewCounter(prometheus.CounterOpts{
			Name: metricPrefix + "zero_basis_rows_total",
			Help: "Rows flagged with an irreconcilable zero basis",
		}),
		RowsEmitted: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: metricPrefix + "rows_emitted",
			Help: "Rows in the most recent merged table",
		}),
		Excluded: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: metricPrefix + "excluded_entities",
			Help: "Entities excluded from the most recent run",
		}),
	}
	prometheus.MustRegister(
		m.RunsTotal,
		m.RunDuration,
		m.SeriesFilled,
		m.FitFailures,
		m.ZeroBasisRows,
		m.RowsEmitted,
		m.Excluded,
	)
	return m
}
