package reconcile

import (
	"testing"
	"time"

	"energy-reconcile/internal/dataset"
	"energy-reconcile/internal/forecast"
)

func testMonth(y int, m time.Month) time.Time {
	return time.Date(y, m, 1, 0, 0, 0, 0, time.UTC)
}

func testConfig() Config {
	return Config{
		FloorDate:               testMonth(2015, time.January),
		StabilizationDate:       testMonth(2019, time.January),
		MinHistoryMonths:        24,
		Workers:                 2,
		DiscontinuedAfterMonths: 12,
	}
}

// observedSeries builds a fully observed series holding the same monthly
// values cycled over the calendar.
func observedSeries(entity string, variable dataset.Variable, start, end time.Time, values []float64) *dataset.Series {
	s := dataset.NewSeries(entity, variable, start, end)
	for i := range s.Cells {
		s.Cells[i] = dataset.Cell{Value: values[i%len(values)], State: dataset.StateObserved}
	}
	return s
}

// addCountry registers an entity with every tracked variable observed. Fuel
// values come from fuels; variables absent from the map are observed zeros.
func addCountry(table *dataset.Table, code, name string, eu bool, start time.Time, vars map[dataset.Variable]float64) {
	table.AddEntity(dataset.Entity{Code: code, Name: name, EUMember: eu})
	for _, variable := range dataset.Variables() {
		table.Put(observedSeries(code, variable, start, table.End, []float64{vars[variable]}))
	}
}

func addEUAggregate(table *dataset.Table, start time.Time, demand float64) {
	table.AddEntity(dataset.Entity{Code: dataset.EUAggregateCode, Name: "EU", EUMember: true})
	for _, variable := range dataset.Variables() {
		value := 0.0
		if variable == dataset.VarDemand {
			value = demand
		}
		table.Put(observedSeries(dataset.EUAggregateCode, variable, start, table.End, []float64{value}))
	}
}

func newTestFiller(t *testing.T) *forecast.GapFiller {
	t.Helper()
	return forecast.NewGapFiller(24, nil)
}
