package dataset

import "time"

// CellState classifies how a monthly value came to be.
type CellState int

const (
	// StateToPredict marks a reporting gap the gap filler must forecast.
	StateToPredict CellState = iota
	// StateObserved marks a value reported by the source.
	StateObserved
	// StateStructuralZero marks an absence meaning "never reported", filled with zero.
	StateStructuralZero
	// StatePredicted marks a value produced by the gap filler.
	StatePredicted
)

// Cell is one monthly value with its provenance.
type Cell struct {
	Value float64
	State CellState
}

// Present reports whether the cell carries a usable value.
func (c Cell) Present() bool { return c.State != StateToPredict }

// Predicted reports whether the cell value was modeled rather than reported.
func (c Cell) Predicted() bool { return c.State == StatePredicted }

// Series is a gap-free monthly calendar of cells for one (entity, variable)
// pair. Absence is represented by StateToPredict cells, never by omission,
// so downstream joins are total.
type Series struct {
	Entity   string
	Variable Variable
	Start    time.Time // first calendar month, UTC first-of-month
	Cells    []Cell
}

// NewSeries builds a series covering [start, end] with every cell ToPredict.
func NewSeries(entity string, variable Variable, start, end time.Time) *Series {
	n := MonthsBetween(start, end) + 1
	if n < 0 {
		n = 0
	}
	return &Series{
		Entity:   entity,
		Variable: variable,
		Start:    start,
		Cells:    make([]Cell, n),
	}
}

// Len returns the calendar length in months.
func (s *Series) Len() int { return len(s.Cells) }

// MonthAt returns the calendar month at position i.
func (s *Series) MonthAt(i int) time.Time { return AddMonths(s.Start, i) }

// Index returns the position of month m, if it falls inside the calendar.
func (s *Series) Index(m time.Time) (int, bool) {
	i := MonthsBetween(s.Start, m)
	if i < 0 || i >= len(s.Cells) {
		return 0, false
	}
	return i, true
}

// Set stores a cell at month m. Months outside the calendar are ignored.
func (s *Series) Set(m time.Time, c Cell) {
	if i, ok := s.Index(m); ok {
		s.Cells[i] = c
	}
}

// At returns the cell for month m.
func (s *Series) At(m time.Time) (Cell, bool) {
	i, ok := s.Index(m)
	if !ok {
		return Cell{}, false
	}
	return s.Cells[i], true
}

// Clone returns a deep copy.
func (s *Series) Clone() *Series {
	cells := make([]Cell, len(s.Cells))
	copy(cells, s.Cells)
	return &Series{Entity: s.Entity, Variable: s.Variable, Start: s.Start, Cells: cells}
}

// ObservedCount returns the number of source-reported cells.
func (s *Series) ObservedCount() int {
	n := 0
	for _, c := range s.Cells {
		if c.State == StateObserved {
			n++
		}
	}
	return n
}

// GapIndexes returns the positions still awaiting a forecast, in time order.
func (s *Series) GapIndexes() []int {
	var gaps []int
	for i, c := range s.Cells {
		if c.State == StateToPredict {
			gaps = append(gaps, i)
		}
	}
	return gaps
}

// FirstObserved returns the month of the first reported value.
func (s *Series) FirstObserved() (time.Time, bool) {
	for i, c := range s.Cells {
		if c.State == StateObserved {
			return s.MonthAt(i), true
		}
	}
	return time.Time{}, false
}

// LastObserved returns the month of the last reported value.
func (s *Series) LastObserved() (time.Time, bool) {
	for i := len(s.Cells) - 1; i >= 0; i-- {
		if s.Cells[i].State == StateObserved {
			return s.MonthAt(i), true
		}
	}
	return time.Time{}, false
}

// TrimBefore returns a copy whose calendar starts at month m. Cells before m
// are discarded; a start after the calendar end yields an empty series.
func (s *Series) TrimBefore(m time.Time) *Series {
	if !m.After(s.Start) {
		return s.Clone()
	}
	offset := MonthsBetween(s.Start, m)
	if offset >= len(s.Cells) {
		return &Series{Entity: s.Entity, Variable: s.Variable, Start: MonthFloor(m)}
	}
	cells := make([]Cell, len(s.Cells)-offset)
	copy(cells, s.Cells[offset:])
	return &Series{Entity: s.Entity, Variable: s.Variable, Start: MonthFloor(m), Cells: cells}
}

// MonthFloor normalizes t to the first of its month in UTC.
func MonthFloor(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// AddMonths advances a first-of-month timestamp by n months.
func AddMonths(m time.Time, n int) time.Time {
	return m.AddDate(0, n, 0)
}

// MonthsBetween returns the signed number of months from a to b.
func MonthsBetween(a, b time.Time) int {
	a, b = MonthFloor(a), MonthFloor(b)
	return (b.Year()-a.Year())*12 + int(b.Month()) - int(a.Month())
}
