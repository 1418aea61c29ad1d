// Package forecast fills reporting gaps in monthly series with an
// automatically selected seasonal autoregressive model.
package forecast

import (
	"fmt"
	"io"
	"log"
	"sync"

	"energy-reconcile/internal/dataset"
)

// DefaultMinHistory is the fewest observed months considered reliably
// modelable for a seasonal fit.
const DefaultMinHistory = 24

// Method identifies how a series' gaps were filled.
type Method string

const (
	// MethodNone means the series had no gaps and was returned unchanged.
	MethodNone Method = "none"
	// MethodModel means gaps were forecast by the selected seasonal AR model.
	MethodModel Method = "model"
	// MethodCarry means gaps were filled by carrying the last value forward.
	MethodCarry Method = "carry"
)

// Outcome records what happened to one series during filling.
type Outcome struct {
	Entity   string
	Variable dataset.Variable
	Gaps     int
	Method   Method
	Order    string // lag-set description when Method is MethodModel
	Err      error  // non-fatal cause when a fallback was used
}

// GapFiller fills absent positions in one series at a time. It is a pure
// transform: inputs are never mutated, and per-series failures degrade to a
// documented fallback instead of aborting the batch.
type GapFiller struct {
	minHistory int
	logger     *log.Logger
}

// NewGapFiller constructs a gap filler. A non-positive minHistory selects
// DefaultMinHistory.
func NewGapFiller(minHistory int, logger *log.Logger) *GapFiller {
	if minHistory <= 0 {
		minHistory = DefaultMinHistory
	}
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &GapFiller{minHistory: minHistory, logger: logger}
}

// Fill returns a copy of the series with every gap holding a predicted
// value. Series without gaps come back unchanged and no model is fit.
//
// Fallback policy: under ErrInsufficientHistory or ErrModelFitFailure the
// gaps are filled last-observed-carried-forward, still flagged predicted,
// and the cause is reported in the outcome for the run report.
func (g *GapFiller) Fill(s *dataset.Series) (*dataset.Series, Outcome) {
	outcome := Outcome{Entity: s.Entity, Variable: s.Variable}

	gaps := s.GapIndexes()
	if len(gaps) == 0 {
		outcome.Method = MethodNone
		return s, outcome
	}
	outcome.Gaps = len(gaps)

	out := s.Clone()
	if s.ObservedCount() < g.minHistory {
		carryForward(out, gaps)
		outcome.Method = MethodCarry
		outcome.Err = ErrInsufficientHistory
		g.logger.Printf("gapfill fallback: series=%s/%s observed=%d reason=insufficient history", s.Entity, s.Variable, s.ObservedCount())
		return out, outcome
	}

	values := make([]float64, out.Len())
	present := make([]bool, out.Len())
	for i, c := range out.Cells {
		values[i] = c.Value
		present[i] = c.Present()
	}

	model, err := selectModel(values, present, s.ObservedCount())
	if err != nil {
		carryForward(out, gaps)
		outcome.Method = MethodCarry
		outcome.Err = fmt.Errorf("%w: %v", ErrModelFitFailure, err)
		g.logger.Printf("gapfill fallback: series=%s/%s reason=%v", s.Entity, s.Variable, err)
		return out, outcome
	}

	// Gaps are predicted in time order so interior predictions can feed the
	// lags of later gaps.
	for _, t := range gaps {
		value := model.predictAt(values, present, t)
		values[t] = value
		present[t] = true
		out.Cells[t] = dataset.Cell{Value: value, State: dataset.StatePredicted}
	}

	outcome.Method = MethodModel
	outcome.Order = model.describe()
	return out, outcome
}

// FillAll fans series out over a worker pool. Results are positionally
// aligned with the input; completion order carries no meaning.
func (g *GapFiller) FillAll(series []*dataset.Series, workers int) ([]*dataset.Series, []Outcome) {
	if workers <= 0 {
		workers = 1
	}
	filled := make([]*dataset.Series, len(series))
	outcomes := make([]Outcome, len(series))

	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				filled[i], outcomes[i] = g.Fill(series[i])
			}
		}()
	}
	for i := range series {
		jobs <- i
	}
	close(jobs)
	wg.Wait()
	return filled, outcomes
}

// carryForward fills each gap with the nearest earlier present value.
func carryForward(s *dataset.Series, gaps []int) {
	for _, t := range gaps {
		value := 0.0
		for i := t - 1; i >= 0; i-- {
			if s.Cells[i].Present() {
				value = s.Cells[i].Value
				break
			}
		}
		s.Cells[t] = dataset.Cell{Value: value, State: dataset.StatePredicted}
	}
}
