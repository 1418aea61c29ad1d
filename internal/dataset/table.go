package dataset

import (
	"fmt"
	"sort"
	"time"
)

// EUAggregateCode is the entity code of the authoritative EU regional total.
const EUAggregateCode = "EU"

// EuropeAggregateCode is the entity code of the Europe-wide aggregate.
const EuropeAggregateCode = "Europe"

// Entity is a country or a regional aggregate, as a unit of observation.
type Entity struct {
	Code     string
	Name     string
	EUMember bool
}

// Aggregate reports whether the entity is a regional total rather than a country.
func (e Entity) Aggregate() bool {
	return e.Code == EUAggregateCode || e.Code == EuropeAggregateCode
}

type seriesKey struct {
	entity   string
	variable Variable
}

// Table holds every (entity, variable) series over a shared calendar end.
// Series calendars start at each entity's own history start; all end at End.
type Table struct {
	End      time.Time
	entities map[string]Entity
	series   map[seriesKey]*Series
}

// NewTable constructs an empty table ending at the given month.
func NewTable(end time.Time) *Table {
	return &Table{
		End:      MonthFloor(end),
		entities: make(map[string]Entity),
		series:   make(map[seriesKey]*Series),
	}
}

// AddEntity registers an entity.
func (t *Table) AddEntity(e Entity) {
	t.entities[e.Code] = e
}

// Entity returns a registered entity by code.
func (t *Table) Entity(code string) (Entity, bool) {
	e, ok := t.entities[code]
	return e, ok
}

// Put stores a series.
func (t *Table) Put(s *Series) {
	t.series[seriesKey{s.Entity, s.Variable}] = s
}

// Series returns the series for an (entity, variable) pair.
func (t *Table) Series(entity string, variable Variable) (*Series, error) {
	s, ok := t.series[seriesKey{entity, variable}]
	if !ok {
		return nil, fmt.Errorf("%w: %s/%s", ErrUnknownSeries, entity, variable)
	}
	return s, nil
}

// EUMembers returns country codes of EU members, sorted.
func (t *Table) EUMembers() []string {
	return t.memberCodes(true)
}

// NonEUMembers returns country codes outside the EU, sorted.
func (t *Table) NonEUMembers() []string {
	return t.memberCodes(false)
}

func (t *Table) memberCodes(eu bool) []string {
	var codes []string
	for code, e := range t.entities {
		if e.Aggregate() || e.EUMember != eu {
			continue
		}
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// Validate checks the preconditions the pipeline relies on: at least one
// country entity, and an observed EU regional demand series.
func (t *Table) Validate() error {
	if len(t.EUMembers())+len(t.NonEUMembers()) == 0 {
		return ErrEmptyInput
	}
	eu, err := t.Series(EUAggregateCode, VarDemand)
	if err != nil {
		return ErrNoRegionalTotal
	}
	if eu.ObservedCount() == 0 {
		return ErrNoRegionalTotal
	}
	return nil
}
