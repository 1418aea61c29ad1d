package dataset

import (
	"errors"
	"strings"
	"testing"
	"time"
)

const csvHeader = "Area,CountryCode,EU,Date,Variable,Value\n"

func TestParseCSV_MissingColumn(t *testing.T) {
	input := "Area,CountryCode,Date,Variable,Value\nGermany,DEU,2019-01-01,Demand,40\n"
	_, err := ParseCSV(strings.NewReader(input))
	if !errors.Is(err, ErrSchemaMismatch) {
		t.Fatalf("expected ErrSchemaMismatch, got %v", err)
	}
}

func TestParseCSV_EmptyInput(t *testing.T) {
	_, err := ParseCSV(strings.NewReader(csvHeader))
	if !errors.Is(err, ErrEmptyInput) {
		t.Fatalf("expected ErrEmptyInput, got %v", err)
	}
}

func TestParseCSV_SkipsUnknownVariables(t *testing.T) {
	input := csvHeader +
		"Germany,DEU,1,2019-01-01,Demand,40\n" +
		"Germany,DEU,1,2019-01-01,Demand per capita,0.5\n"
	records, err := ParseCSV(strings.NewReader(input))
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	if records[0].Variable != VarDemand {
		t.Fatalf("expected Demand, got %s", records[0].Variable)
	}
}

func TestParseCSV_EmptyValueIsAbsent(t *testing.T) {
	input := csvHeader +
		"Germany,DEU,1,2019-01-01,Demand,\n" +
		"Germany,DEU,1,2019-02-01,Demand,41.5\n"
	records, err := ParseCSV(strings.NewReader(input))
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	if !records[0].Absent {
		t.Fatal("expected first record absent")
	}
	if records[1].Absent || records[1].Value != 41.5 {
		t.Fatalf("expected second record present with 41.5, got %+v", records[1])
	}
}

func buildTestTable(t *testing.T, rows string) *Table {
	t.Helper()
	records, err := ParseCSV(strings.NewReader(csvHeader + rows))
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	table, err := BuildTable(records, time.Date(2015, 1, 1, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("build error: %v", err)
	}
	return table
}

func TestBuildTable_NeverReportedSeriesIsStructuralZero(t *testing.T) {
	table := buildTestTable(t,
		"Germany,DEU,1,2019-01-01,Demand,40\n"+
			"Germany,DEU,1,2019-02-01,Demand,41\n")

	s, err := table.Series("DEU", FuelVariable(FuelNuclear))
	if err != nil {
		t.Fatalf("series error: %v", err)
	}
	for i, c := range s.Cells {
		if c.State != StateStructuralZero {
			t.Fatalf("cell %d: expected structural zero, got state %d", i, c.State)
		}
		if c.Value != 0 {
			t.Fatalf("cell %d: expected zero value, got %f", i, c.Value)
		}
	}
}

func TestBuildTable_TwoClassAbsenceTagging(t *testing.T) {
	// Wind reporting starts 2019-03 inside a calendar ending 2019-05; the
	// absence in 2019-04 is a gap, the months before 2019-03 are structural.
	table := buildTestTable(t,
		"Germany,DEU,1,2019-01-01,Demand,40\n"+
			"Germany,DEU,1,2019-05-01,Demand,44\n"+
			"Germany,DEU,1,2019-03-01,Wind,5\n"+
			"Germany,DEU,1,2019-05-01,Wind,6\n")

	s, err := table.Series("DEU", FuelVariable(FuelWind))
	if err != nil {
		t.Fatalf("series error: %v", err)
	}

	jan, _ := s.At(time.Date(2019, 1, 1, 0, 0, 0, 0, time.UTC))
	feb, _ := s.At(time.Date(2019, 2, 1, 0, 0, 0, 0, time.UTC))
	if jan.State != StateStructuralZero || feb.State != StateStructuralZero {
		t.Fatalf("expected pre-first-observation absences structural, got %d/%d", jan.State, feb.State)
	}

	apr, _ := s.At(time.Date(2019, 4, 1, 0, 0, 0, 0, time.UTC))
	if apr.State != StateToPredict {
		t.Fatalf("expected interior absence to be a gap, got state %d", apr.State)
	}

	mar, _ := s.At(time.Date(2019, 3, 1, 0, 0, 0, 0, time.UTC))
	if mar.State != StateObserved || mar.Value != 5 {
		t.Fatalf("expected observed 5 in 2019-03, got %+v", mar)
	}
}

func TestBuildTable_EntityCalendarStartsAtFirstObservation(t *testing.T) {
	table := buildTestTable(t,
		"Germany,DEU,1,2015-01-01,Demand,40\n"+
			"Germany,DEU,1,2019-05-01,Demand,44\n"+
			"Kosovo,XKX,0,2018-03-01,Demand,2\n")

	s, err := table.Series("XKX", VarDemand)
	if err != nil {
		t.Fatalf("series error: %v", err)
	}
	want := time.Date(2018, 3, 1, 0, 0, 0, 0, time.UTC)
	if !s.Start.Equal(want) {
		t.Fatalf("expected calendar start %s, got %s", want, s.Start)
	}
	if !table.End.Equal(time.Date(2019, 5, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("expected calendar end 2019-05, got %s", table.End)
	}
}

func TestBuildTable_FloorBoundsHistory(t *testing.T) {
	table := buildTestTable(t,
		"Germany,DEU,1,2010-06-01,Demand,30\n"+
			"Germany,DEU,1,2016-01-01,Demand,40\n")

	s, err := table.Series("DEU", VarDemand)
	if err != nil {
		t.Fatalf("series error: %v", err)
	}
	want := time.Date(2015, 1, 1, 0, 0, 0, 0, time.UTC)
	if !s.Start.Equal(want) {
		t.Fatalf("expected calendar floored at %s, got %s", want, s.Start)
	}
}
