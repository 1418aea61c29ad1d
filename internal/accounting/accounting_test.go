package accounting

import (
	"errors"
	"math"
	"testing"
)

func TestRescale_ForcesChildrenOntoParent(t *testing.T) {
	children := map[string]float64{"Coal": 300, "Gas": 200, "Wind": 450}
	adjusted, factor, err := Rescale(children, 1000)
	if err != nil {
		t.Fatalf("rescale error: %v", err)
	}

	var sum float64
	for _, v := range adjusted {
		sum += v
	}
	if math.Abs(sum-1000) > Tolerance {
		t.Fatalf("expected children to sum to 1000, got %f", sum)
	}
	want := 1000.0 / 950.0
	if math.Abs(factor-want) > 1e-12 {
		t.Fatalf("expected factor %f, got %f", want, factor)
	}
	// Shares are preserved.
	if math.Abs(adjusted["Coal"]/adjusted["Gas"]-1.5) > 1e-12 {
		t.Fatalf("expected coal/gas share preserved, got %f", adjusted["Coal"]/adjusted["Gas"])
	}
}

func TestRescale_AlreadyBalancedIsIdentity(t *testing.T) {
	children := map[string]float64{"Coal": 600, "Gas": 400}
	adjusted, factor, err := Rescale(children, 1000)
	if err != nil {
		t.Fatalf("rescale error: %v", err)
	}
	if factor != 1 {
		t.Fatalf("expected factor 1, got %f", factor)
	}
	if adjusted["Coal"] != 600 || adjusted["Gas"] != 400 {
		t.Fatalf("expected values unchanged, got %v", adjusted)
	}
}

func TestRescale_NegativeChildrenKeepSign(t *testing.T) {
	// Net positions can be negative; scaling must not flip signs.
	children := map[string]float64{"A": -100, "B": 300}
	adjusted, _, err := Rescale(children, 400)
	if err != nil {
		t.Fatalf("rescale error: %v", err)
	}
	if adjusted["A"] >= 0 {
		t.Fatalf("expected negative child to stay negative, got %f", adjusted["A"])
	}
	if math.Abs(adjusted["A"]+adjusted["B"]-400) > Tolerance {
		t.Fatalf("expected sum 400, got %f", adjusted["A"]+adjusted["B"])
	}
}

func TestRescale_ZeroBasisNonzeroParent(t *testing.T) {
	children := map[string]float64{"Coal": 0, "Gas": 0}
	_, _, err := Rescale(children, 500)
	if !errors.Is(err, ErrIrreconcilableZeroBasis) {
		t.Fatalf("expected ErrIrreconcilableZeroBasis, got %v", err)
	}
}

func TestRescale_ZeroBasisZeroParent(t *testing.T) {
	children := map[string]float64{"Coal": 0, "Gas": 0}
	adjusted, factor, err := Rescale(children, 0)
	if err != nil {
		t.Fatalf("rescale error: %v", err)
	}
	if factor != 1 {
		t.Fatalf("expected factor 1, got %f", factor)
	}
	if adjusted["Coal"] != 0 || adjusted["Gas"] != 0 {
		t.Fatalf("expected zeros unchanged, got %v", adjusted)
	}
}

func TestRescale_DoesNotMutateInput(t *testing.T) {
	children := map[string]float64{"Coal": 10, "Gas": 20}
	if _, _, err := Rescale(children, 90); err != nil {
		t.Fatalf("rescale error: %v", err)
	}
	if children["Coal"] != 10 || children["Gas"] != 20 {
		t.Fatalf("input mutated: %v", children)
	}
}

func TestDeriveGeneration_Identity(t *testing.T) {
	demand := 1234.5
	imports := -87.25
	generation := DeriveGeneration(demand, imports)
	if got := DeriveDemand(generation, imports); math.Abs(got-demand) > Tolerance {
		t.Fatalf("identity broken: demand=%f derived=%f", demand, got)
	}
}

func TestCloses(t *testing.T) {
	children := map[string]float64{"A": 60, "B": 40}
	if !Closes(children, 100+Tolerance/2) {
		t.Fatal("expected sum within tolerance to close")
	}
	if Closes(children, 100.001) {
		t.Fatal("expected sum outside tolerance not to close")
	}
}
