package reconcile

import (
	"sort"
	"time"

	"energy-reconcile/internal/dataset"
)

// Row is one reconciled (entity, date, fuel) record, the terminal output of
// the pipeline. Adjusted columns equal the raw ones for entities with no
// governing regional total.
type Row struct {
	Entity     string
	EntityName string
	EUMember   bool
	Date       time.Time
	Fuel       dataset.Fuel

	Demand            float64
	AdjustedDemand    float64
	TotalGeneration   float64
	AdjustedTotal     float64
	NetImports        float64
	FuelValue         float64
	AdjustedFuelValue float64

	// Predicted is set when any input to the row's values was modeled
	// rather than reported; it survives every downstream transform.
	Predicted bool
	// ZeroBasis marks a row whose fuel set could not absorb a nonzero
	// parent total (left unscaled, surfaced for review).
	ZeroBasis bool
	// Fallback marks a row fed by a carry-forward fallback series.
	Fallback bool
}

var fuelRank = func() map[dataset.Fuel]int {
	ranks := make(map[dataset.Fuel]int)
	for i, f := range dataset.Fuels() {
		ranks[f] = i
	}
	return ranks
}()

// sortRows orders rows by entity, date, then canonical fuel order.
func sortRows(rows []Row) {
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Entity != rows[j].Entity {
			return rows[i].Entity < rows[j].Entity
		}
		if !rows[i].Date.Equal(rows[j].Date) {
			return rows[i].Date.Before(rows[j].Date)
		}
		return fuelRank[rows[i].Fuel] < fuelRank[rows[j].Fuel]
	})
}
