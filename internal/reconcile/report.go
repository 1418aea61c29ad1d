package reconcile

import (
	"errors"
	"time"

	"energy-reconcile/internal/dataset"
	"energy-reconcile/internal/forecast"
)

// SeriesIssue names one (entity, variable) series that needed a fallback.
type SeriesIssue struct {
	Entity   string           `json:"entity"`
	Variable dataset.Variable `json:"variable"`
	Gaps     int              `json:"gaps"`
	Reason   string           `json:"reason"`
}

// ZeroBasisFlag marks one (entity, date) whose fuel set was all zero against
// a nonzero parent total.
type ZeroBasisFlag struct {
	Entity      string    `json:"entity"`
	Date        time.Time `json:"date"`
	ParentTotal float64   `json:"parent_total"`
}

// Exclusion records an entity dropped from prediction with a named reason.
type Exclusion struct {
	Entity       string    `json:"entity"`
	Reason       string    `json:"reason"`
	LastObserved time.Time `json:"last_observed,omitempty"`
}

// RunReport is the metadata companion of the merged table: which series were
// modeled, which degraded to a fallback, which rows need human review, and
// which entities were excluded.
type RunReport struct {
	GeneratedAt   time.Time       `json:"generated_at"`
	CalendarStart time.Time       `json:"calendar_start"`
	CalendarEnd   time.Time       `json:"calendar_end"`
	Entities      int             `json:"entities"`
	Rows          int             `json:"rows"`
	ModeledSeries int             `json:"modeled_series"`
	FailedSeries  []SeriesIssue   `json:"failed_series"`
	Fallbacks     []SeriesIssue   `json:"fallback_series"`
	ZeroBasisRows []ZeroBasisFlag `json:"zero_basis_rows"`
	Excluded      []Exclusion     `json:"excluded_entities"`
}

// recordOutcome folds one fill outcome into the report.
func (r *RunReport) recordOutcome(o forecast.Outcome) {
	switch {
	case o.Err == nil && o.Method == forecast.MethodModel:
		r.ModeledSeries++
	case errors.Is(o.Err, forecast.ErrInsufficientHistory):
		r.Fallbacks = append(r.Fallbacks, SeriesIssue{
			Entity:   o.Entity,
			Variable: o.Variable,
			Gaps:     o.Gaps,
			Reason:   "insufficient history",
		})
	case errors.Is(o.Err, forecast.ErrModelFitFailure):
		r.FailedSeries = append(r.FailedSeries, SeriesIssue{
			Entity:   o.Entity,
			Variable: o.Variable,
			Gaps:     o.Gaps,
			Reason:   o.Err.Error(),
		})
	}
}
