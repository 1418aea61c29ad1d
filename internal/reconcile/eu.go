package reconcile

import (
	"context"
	"errors"
	"io"
	"log"
	"math"
	"time"

	"energy-reconcile/internal/accounting"
	"energy-reconcile/internal/dataset"
	"energy-reconcile/internal/forecast"
)

// EUReconciler gap-fills EU-member series and cascades the authoritative EU
// demand total down the accounting hierarchy: demand first, then net imports
// and total generation, then per-fuel generation.
type EUReconciler struct {
	cfg    Config
	filler *forecast.GapFiller
	logger *log.Logger
}

// NewEUReconciler constructs an EUReconciler.
func NewEUReconciler(cfg Config, filler *forecast.GapFiller, logger *log.Logger) (*EUReconciler, error) {
	if filler == nil {
		return nil, errors.New("reconcile: nil gap filler")
	}
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &EUReconciler{cfg: cfg, filler: filler, logger: logger}, nil
}

// filled pairs a gap-filled series with whether its gaps were carry-filled.
type filled struct {
	series *dataset.Series
	carry  bool
}

// cellVal is one month's value with provenance, read from a filled series.
type cellVal struct {
	v         float64
	predicted bool
	fallback  bool
	ok        bool
}

func (f filled) at(m time.Time) cellVal {
	if f.series == nil {
		return cellVal{}
	}
	c, ok := f.series.At(m)
	if !ok || !c.Present() {
		return cellVal{}
	}
	return cellVal{
		v:         c.Value,
		predicted: c.Predicted(),
		fallback:  c.Predicted() && f.carry,
		ok:        true,
	}
}

type fillKey struct {
	entity   string
	variable dataset.Variable
}

// fillBatch trims each series to the stabilization date, fills the batch over
// the worker pool, and records outcomes in the report.
func (r *EUReconciler) fillBatch(table *dataset.Table, keys []fillKey, report *RunReport) (map[fillKey]filled, error) {
	series := make([]*dataset.Series, 0, len(keys))
	for _, key := range keys {
		s, err := table.Series(key.entity, key.variable)
		if err != nil {
			return nil, err
		}
		series = append(series, s.TrimBefore(r.cfg.StabilizationDate))
	}

	results, outcomes := r.filler.FillAll(series, r.cfg.Workers)
	out := make(map[fillKey]filled, len(keys))
	for i, key := range keys {
		report.recordOutcome(outcomes[i])
		out[key] = filled{series: results[i], carry: outcomes[i].Method == forecast.MethodCarry}
	}
	return out, nil
}

// Run produces reconciled fuel-level rows for every EU member over
// [stabilization date, calendar end].
func (r *EUReconciler) Run(ctx context.Context, table *dataset.Table, report *RunReport) ([]Row, error) {
	var members []string
	for _, code := range table.EUMembers() {
		if r.cfg.IsExcluded(code) {
			report.Excluded = append(report.Excluded, Exclusion{Entity: code, Reason: "excluded by configuration"})
			continue
		}
		members = append(members, code)
	}
	months := monthRange(r.cfg.StabilizationDate, table.End)

	// Level 1 fills: demand for the EU aggregate and every member, plus the
	// member imports and totals needed by levels 2 and 4.
	keys := []fillKey{{dataset.EUAggregateCode, dataset.VarDemand}}
	for _, code := range members {
		keys = append(keys,
			fillKey{code, dataset.VarDemand},
			fillKey{code, dataset.VarNetImports},
			fillKey{code, dataset.VarTotalGeneration},
		)
	}
	level, err := r.fillBatch(table, keys, report)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Demand adjustment: force the member sum onto the authoritative total.
	euDemand := level[fillKey{dataset.EUAggregateCode, dataset.VarDemand}]
	factors := make(map[time.Time]float64, len(months))
	euPredicted := make(map[time.Time]cellVal, len(months))
	for _, m := range months {
		eu := euDemand.at(m)
		euPredicted[m] = eu
		if !eu.ok {
			continue
		}
		var naive float64
		for _, code := range members {
			if v := level[fillKey{code, dataset.VarDemand}].at(m); v.ok {
				naive += v.v
			}
		}
		if naive == 0 {
			factors[m] = 1
			if math.Abs(eu.v) > accounting.Tolerance {
				report.ZeroBasisRows = append(report.ZeroBasisRows, ZeroBasisFlag{
					Entity:      dataset.EUAggregateCode,
					Date:        m,
					ParentTotal: eu.v,
				})
			}
			continue
		}
		factors[m] = eu.v / naive
	}

	// Level 3/4 fills: every member fuel series, regardless of whether the
	// member had predicted demand. The demand adjustment touches every
	// (entity, date), so fuels are re-forced everywhere.
	var fuelKeys []fillKey
	for _, code := range members {
		for _, fuel := range dataset.Fuels() {
			fuelKeys = append(fuelKeys, fillKey{code, dataset.FuelVariable(fuel)})
		}
	}
	fuels, err := r.fillBatch(table, fuelKeys, report)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var rows []Row
	for _, code := range members {
		entity, _ := table.Entity(code)
		demandS := level[fillKey{code, dataset.VarDemand}]
		importsS := level[fillKey{code, dataset.VarNetImports}]
		totalS := level[fillKey{code, dataset.VarTotalGeneration}]

		for _, m := range months {
			demand := demandS.at(m)
			imports := importsS.at(m)
			total := totalS.at(m)
			factor, haveFactor := factors[m]
			if !demand.ok || !imports.ok || !haveFactor {
				continue // month predates this entity's history
			}
			eu := euPredicted[m]

			adjDemand := demand.v * factor
			// The accounting identity outranks the independently-forecast
			// total: generation follows the regionally-anchored demand.
			adjTotal := accounting.DeriveGeneration(adjDemand, imports.v)

			children := make(map[dataset.Fuel]float64, len(dataset.Fuels()))
			childVal := make(map[dataset.Fuel]cellVal, len(dataset.Fuels()))
			for _, fuel := range dataset.Fuels() {
				v := fuels[fillKey{code, dataset.FuelVariable(fuel)}].at(m)
				children[fuel] = v.v
				childVal[fuel] = v
			}

			adjusted, _, err := accounting.Rescale(children, adjTotal)
			zeroBasis := false
			if err != nil {
				if !errors.Is(err, accounting.ErrIrreconcilableZeroBasis) {
					return nil, err
				}
				zeroBasis = true
				adjusted = children
				report.ZeroBasisRows = append(report.ZeroBasisRows, ZeroBasisFlag{
					Entity:      code,
					Date:        m,
					ParentTotal: adjTotal,
				})
			}

			basePredicted := demand.predicted || imports.predicted || eu.predicted
			baseFallback := demand.fallback || imports.fallback || eu.fallback
			for _, fuel := range dataset.Fuels() {
				fv := childVal[fuel]
				rows = append(rows, Row{
					Entity:            code,
					EntityName:        entity.Name,
					EUMember:          true,
					Date:              m,
					Fuel:              fuel,
					Demand:            demand.v,
					AdjustedDemand:    adjDemand,
					TotalGeneration:   total.v,
					AdjustedTotal:     adjTotal,
					NetImports:        imports.v,
					FuelValue:         fv.v,
					AdjustedFuelValue: adjusted[fuel],
					Predicted:         basePredicted || fv.predicted,
					ZeroBasis:         zeroBasis,
					Fallback:          baseFallback || fv.fallback,
				})
			}
		}
	}
	return rows, nil
}

// monthRange lists every month from start through end inclusive.
func monthRange(start, end time.Time) []time.Time {
	n := dataset.MonthsBetween(start, end)
	if n < 0 {
		return nil
	}
	months := make([]time.Time, 0, n+1)
	for i := 0; i <= n; i++ {
		months = append(months, dataset.AddMonths(dataset.MonthFloor(start), i))
	}
	return months
}
