package reconcile

import (
	"context"
	"errors"
	"io"
	"log"
	"time"

	"energy-reconcile/internal/accounting"
	"energy-reconcile/internal/dataset"
	"energy-reconcile/internal/forecast"
)

// NonEUAssembler gap-fills entities with no governing regional total. With
// nothing to anchor against, the accounting identities run forward: fuels and
// net imports are forecast directly, total generation is their fuel sum, and
// demand is whatever generation and imports imply.
type NonEUAssembler struct {
	cfg    Config
	filler *forecast.GapFiller
	logger *log.Logger
}

// NewNonEUAssembler constructs a NonEUAssembler.
func NewNonEUAssembler(cfg Config, filler *forecast.GapFiller, logger *log.Logger) (*NonEUAssembler, error) {
	if filler == nil {
		return nil, errors.New("reconcile: nil gap filler")
	}
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &NonEUAssembler{cfg: cfg, filler: filler, logger: logger}, nil
}

// Run produces fuel-level rows for every non-EU country still reporting.
// Adjusted columns carry the raw values; no rescaling occurs here.
func (a *NonEUAssembler) Run(ctx context.Context, table *dataset.Table, report *RunReport) ([]Row, error) {
	var rows []Row
	for _, code := range table.NonEUMembers() {
		if a.cfg.IsExcluded(code) {
			report.Excluded = append(report.Excluded, Exclusion{Entity: code, Reason: "excluded by configuration"})
			continue
		}
		last, ok := lastObservedMonth(table, code)
		if !ok || dataset.MonthsBetween(last, table.End) > a.cfg.DiscontinuedAfterMonths {
			report.Excluded = append(report.Excluded, Exclusion{
				Entity:       code,
				Reason:       "discontinued reporting",
				LastObserved: last,
			})
			a.logger.Printf("excluding %s: discontinued reporting, last observed %s", code, last.Format(monthLayout))
			continue
		}

		entityRows, err := a.assemble(ctx, table, code, report)
		if err != nil {
			return nil, err
		}
		rows = append(rows, entityRows...)
	}
	return rows, nil
}

// assemble fills one entity's fuel and imports series over its full history
// and derives its totals and demand.
func (a *NonEUAssembler) assemble(ctx context.Context, table *dataset.Table, code string, report *RunReport) ([]Row, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	variables := []dataset.Variable{dataset.VarNetImports}
	for _, fuel := range dataset.Fuels() {
		variables = append(variables, dataset.FuelVariable(fuel))
	}

	series := make([]*dataset.Series, 0, len(variables))
	for _, variable := range variables {
		s, err := table.Series(code, variable)
		if err != nil {
			return nil, err
		}
		series = append(series, s)
	}

	results, outcomes := a.filler.FillAll(series, a.cfg.Workers)
	byVar := make(map[dataset.Variable]filled, len(variables))
	for i, variable := range variables {
		report.recordOutcome(outcomes[i])
		byVar[variable] = filled{series: results[i], carry: outcomes[i].Method == forecast.MethodCarry}
	}

	entity, _ := table.Entity(code)
	rawTotal, err := table.Series(code, dataset.VarTotalGeneration)
	if err != nil {
		return nil, err
	}

	start := a.cfg.StabilizationDate
	if results[0].Start.After(start) {
		start = results[0].Start
	}

	var rows []Row
	for _, m := range monthRange(start, table.End) {
		imports := byVar[dataset.VarNetImports].at(m)
		if !imports.ok {
			continue
		}

		var total float64
		var anyFuelPredicted, anyFuelFallback bool
		values := make(map[dataset.Fuel]cellVal, len(dataset.Fuels()))
		for _, fuel := range dataset.Fuels() {
			v := byVar[dataset.FuelVariable(fuel)].at(m)
			values[fuel] = v
			total += v.v
			anyFuelPredicted = anyFuelPredicted || v.predicted
			anyFuelFallback = anyFuelFallback || v.fallback
		}
		demand := accounting.DeriveDemand(total, imports.v)

		// total_generation keeps the reported value when one exists; the
		// derived fuel sum replaces it only where reporting was absent.
		reportedTotal := total
		if c, ok := rawTotal.At(m); ok && c.State == dataset.StateObserved {
			reportedTotal = c.Value
		}

		predicted := anyFuelPredicted || imports.predicted
		fallback := anyFuelFallback || imports.fallback
		for _, fuel := range dataset.Fuels() {
			v := values[fuel]
			rows = append(rows, Row{
				Entity:            code,
				EntityName:        entity.Name,
				EUMember:          false,
				Date:              m,
				Fuel:              fuel,
				Demand:            demand,
				AdjustedDemand:    demand,
				TotalGeneration:   reportedTotal,
				AdjustedTotal:     total,
				NetImports:        imports.v,
				FuelValue:         v.v,
				AdjustedFuelValue: v.v,
				Predicted:         predicted,
				Fallback:          fallback,
			})
		}
	}
	if len(rows) == 0 {
		a.logger.Printf("no reconcilable months for %s", code)
	}
	return rows, nil
}

// lastObservedMonth returns the most recent month with any reported value
// across the entity's series.
func lastObservedMonth(table *dataset.Table, code string) (time.Time, bool) {
	var last time.Time
	found := false
	for _, variable := range dataset.Variables() {
		s, err := table.Series(code, variable)
		if err != nil {
			continue
		}
		if m, ok := s.LastObserved(); ok && (!found || m.After(last)) {
			last = m
			found = true
		}
	}
	return last, found
}
