package reconcile

import (
	"context"
	"math"
	"testing"
	"time"

	"energy-reconcile/internal/accounting"
	"energy-reconcile/internal/dataset"
)

func TestNonEUAssembler_DerivesDemandFromFuels(t *testing.T) {
	start := testMonth(2019, time.January)
	end := testMonth(2019, time.March)
	table := dataset.NewTable(end)
	addEUAggregate(table, start, 100)
	addCountry(table, "NOR", "Norway", false, start, map[dataset.Variable]float64{
		dataset.VarNetImports:                   -5,
		dataset.FuelVariable(dataset.FuelHydro): 40,
		dataset.FuelVariable(dataset.FuelWind):  10,
	})

	assembler, err := NewNonEUAssembler(testConfig(), newTestFiller(t), nil)
	if err != nil {
		t.Fatalf("constructor error: %v", err)
	}
	var report RunReport
	rows, err := assembler.Run(context.Background(), table, &report)
	if err != nil {
		t.Fatalf("run error: %v", err)
	}

	fuels := len(dataset.Fuels())
	if want := 3 * fuels; len(rows) != want {
		t.Fatalf("expected %d rows, got %d", want, len(rows))
	}
	for _, row := range rows {
		if math.Abs(row.AdjustedTotal-50) > accounting.Tolerance {
			t.Fatalf("expected fuel-sum total 50, got %f", row.AdjustedTotal)
		}
		if math.Abs(row.Demand-45) > accounting.Tolerance {
			t.Fatalf("expected derived demand 45, got %f", row.Demand)
		}
		// No regional anchor, so adjusted equals raw.
		if row.AdjustedDemand != row.Demand || row.AdjustedFuelValue != row.FuelValue {
			t.Fatalf("non-EU row unexpectedly rescaled: %+v", row)
		}
		if math.Abs(row.Demand-(row.AdjustedTotal+row.NetImports)) > accounting.Tolerance {
			t.Fatalf("identity broken: demand=%f total=%f imports=%f", row.Demand, row.AdjustedTotal, row.NetImports)
		}
	}
}

func TestNonEUAssembler_KeepsReportedTotalColumn(t *testing.T) {
	start := testMonth(2019, time.January)
	end := testMonth(2019, time.January)
	table := dataset.NewTable(end)
	addEUAggregate(table, start, 100)
	addCountry(table, "CHE", "Switzerland", false, start, map[dataset.Variable]float64{
		dataset.VarTotalGeneration:              52,
		dataset.VarNetImports:                   0,
		dataset.FuelVariable(dataset.FuelHydro): 50,
	})

	assembler, err := NewNonEUAssembler(testConfig(), newTestFiller(t), nil)
	if err != nil {
		t.Fatalf("constructor error: %v", err)
	}
	var report RunReport
	rows, err := assembler.Run(context.Background(), table, &report)
	if err != nil {
		t.Fatalf("run error: %v", err)
	}

	for _, row := range rows {
		if row.TotalGeneration != 52 {
			t.Fatalf("expected reported total 52 kept, got %f", row.TotalGeneration)
		}
		if math.Abs(row.AdjustedTotal-50) > accounting.Tolerance {
			t.Fatalf("expected fuel-sum adjusted total 50, got %f", row.AdjustedTotal)
		}
	}
}

func TestNonEUAssembler_DiscontinuedEntityExcluded(t *testing.T) {
	start := testMonth(2019, time.January)
	end := testMonth(2021, time.December)
	table := dataset.NewTable(end)
	addEUAggregate(table, start, 100)

	// Last observation 2020-01, 23 months before the calendar end.
	table.AddEntity(dataset.Entity{Code: "XKX", Name: "Kosovo", EUMember: false})
	for _, variable := range dataset.Variables() {
		s := dataset.NewSeries("XKX", variable, start, end)
		for i := 0; i <= 12; i++ {
			s.Set(dataset.AddMonths(start, i), dataset.Cell{Value: 3, State: dataset.StateObserved})
		}
		table.Put(s)
	}

	assembler, err := NewNonEUAssembler(testConfig(), newTestFiller(t), nil)
	if err != nil {
		t.Fatalf("constructor error: %v", err)
	}
	var report RunReport
	rows, err := assembler.Run(context.Background(), table, &report)
	if err != nil {
		t.Fatalf("run error: %v", err)
	}

	if len(rows) != 0 {
		t.Fatalf("expected no rows for discontinued entity, got %d", len(rows))
	}
	if len(report.Excluded) != 1 {
		t.Fatalf("expected 1 exclusion, got %d", len(report.Excluded))
	}
	excl := report.Excluded[0]
	if excl.Entity != "XKX" || excl.Reason != "discontinued reporting" {
		t.Fatalf("unexpected exclusion %+v", excl)
	}
	if !excl.LastObserved.Equal(testMonth(2020, time.January)) {
		t.Fatalf("expected last observed 2020-01, got %s", excl.LastObserved)
	}
}

func TestNonEUAssembler_PredictedFlagPropagates(t *testing.T) {
	start := testMonth(2017, time.January)
	end := testMonth(2019, time.June)
	table := dataset.NewTable(end)
	addEUAggregate(table, start, 100)

	table.AddEntity(dataset.Entity{Code: "SRB", Name: "Serbia", EUMember: false})
	for _, variable := range dataset.Variables() {
		s := dataset.NewSeries("SRB", variable, start, end)
		for i := range s.Cells {
			s.Cells[i] = dataset.Cell{Value: 20, State: dataset.StateObserved}
		}
		table.Put(s)
	}
	// Hydro was never reported: structural zeros must pass through untouched.
	hydro, err := table.Series("SRB", dataset.FuelVariable(dataset.FuelHydro))
	if err != nil {
		t.Fatalf("series error: %v", err)
	}
	for i := range hydro.Cells {
		hydro.Cells[i] = dataset.Cell{State: dataset.StateStructuralZero}
	}
	// Coal has one reporting gap inside the output window.
	coal, err := table.Series("SRB", dataset.FuelVariable(dataset.FuelCoal))
	if err != nil {
		t.Fatalf("series error: %v", err)
	}
	coal.Set(testMonth(2019, time.March), dataset.Cell{State: dataset.StateToPredict})

	assembler, err := NewNonEUAssembler(testConfig(), newTestFiller(t), nil)
	if err != nil {
		t.Fatalf("constructor error: %v", err)
	}
	var report RunReport
	rows, err := assembler.Run(context.Background(), table, &report)
	if err != nil {
		t.Fatalf("run error: %v", err)
	}

	var hit bool
	for _, row := range rows {
		if row.Fuel == dataset.FuelHydro && row.FuelValue != 0 {
			t.Fatalf("structural-zero hydro produced value %f in %s", row.FuelValue, row.Date.Format("2006-01"))
		}
		if row.Date.Equal(testMonth(2019, time.March)) {
			hit = true
			if !row.Predicted {
				t.Fatalf("expected predicted flag on %s/%s", row.Entity, row.Fuel)
			}
		} else if row.Predicted {
			t.Fatalf("unexpected predicted flag on fully observed month %s", row.Date.Format("2006-01"))
		}
	}
	if !hit {
		t.Fatal("expected rows for 2019-03")
	}
}
