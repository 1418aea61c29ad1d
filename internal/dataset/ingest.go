package dataset

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"
)

// Record is one parsed input row in the long-format source schema.
type Record struct {
	Area     string
	Code     string
	EUMember bool
	Date     time.Time
	Variable Variable
	Value    float64
	Absent   bool
}

var requiredColumns = []string{"Area", "CountryCode", "EU", "Date", "Variable", "Value"}

// ParseCSV reads the long-format input table. A missing column fails fast
// with ErrSchemaMismatch; rows carrying variables outside the tracked set
// are skipped.
func ParseCSV(r io.Reader) ([]Record, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("%w: unreadable header: %v", ErrSchemaMismatch, err)
	}
	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.TrimSpace(name)] = i
	}
	for _, name := range requiredColumns {
		if _, ok := cols[name]; !ok {
			return nil, fmt.Errorf("%w: missing column %q", ErrSchemaMismatch, name)
		}
	}

	var records []Record
	line := 1
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("dataset: read row %d: %w", line+1, err)
		}
		line++

		field := func(name string) string {
			i := cols[name]
			if i >= len(row) {
				return ""
			}
			return strings.TrimSpace(row[i])
		}

		variable := Variable(field("Variable"))
		if !KnownVariable(variable) {
			continue
		}

		date, err := time.Parse("2006-01-02", field("Date"))
		if err != nil {
			return nil, fmt.Errorf("dataset: row %d: bad date %q", line, field("Date"))
		}

		rec := Record{
			Area:     field("Area"),
			Code:     field("CountryCode"),
			EUMember: field("EU") == "1",
			Date:     MonthFloor(date),
			Variable: variable,
		}
		raw := field("Value")
		if raw == "" {
			rec.Absent = true
		} else {
			value, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				return nil, fmt.Errorf("dataset: row %d: bad value %q", line, raw)
			}
			rec.Value = value
		}
		if rec.Code == "" {
			rec.Code = rec.Area
		}
		records = append(records, rec)
	}
	if len(records) == 0 {
		return nil, ErrEmptyInput
	}
	return records, nil
}

// BuildTable assembles gap-free per-series calendars from raw records.
//
// Each entity's calendar runs from its own first reported month (never
// earlier than floor) through the latest month reported anywhere, so an
// entity whose reporting begins late is never asked to predict months that
// predate its history.
//
// Absences are tagged in two classes: a series never reported by the entity
// is a structural zero everywhere, and within a reported series any absence
// before its first observation is a structural zero while absences at or
// after it are gaps to predict.
func BuildTable(records []Record, floor time.Time) (*Table, error) {
	if len(records) == 0 {
		return nil, ErrEmptyInput
	}
	floor = MonthFloor(floor)

	end := records[0].Date
	starts := make(map[string]time.Time)
	for _, rec := range records {
		if rec.Date.After(end) {
			end = rec.Date
		}
		if rec.Absent {
			continue
		}
		if first, ok := starts[rec.Code]; !ok || rec.Date.Before(first) {
			starts[rec.Code] = rec.Date
		}
	}

	table := NewTable(end)
	for _, rec := range records {
		if _, ok := table.Entity(rec.Code); ok {
			continue
		}
		start, ok := starts[rec.Code]
		if !ok {
			continue // entity with no reported value at all
		}
		if start.Before(floor) {
			start = floor
		}
		table.AddEntity(Entity{Code: rec.Code, Name: rec.Area, EUMember: rec.EUMember})
		for _, variable := range Variables() {
			table.Put(NewSeries(rec.Code, variable, start, end))
		}
	}

	for _, rec := range records {
		if rec.Absent || rec.Date.Before(floor) {
			continue
		}
		s, err := table.Series(rec.Code, rec.Variable)
		if err != nil {
			continue
		}
		s.Set(rec.Date, Cell{Value: rec.Value, State: StateObserved})
	}

	for _, s := range table.series {
		tagAbsences(s)
	}
	return table, nil
}

// tagAbsences applies the two-class absence semantics to one series.
func tagAbsences(s *Series) {
	first, ok := s.FirstObserved()
	if !ok {
		for i := range s.Cells {
			s.Cells[i] = Cell{State: StateStructuralZero}
		}
		return
	}
	firstIdx, _ := s.Index(first)
	for i := 0; i < firstIdx; i++ {
		if s.Cells[i].State == StateToPredict {
			s.Cells[i] = Cell{State: StateStructuralZero}
		}
	}
}
