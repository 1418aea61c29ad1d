package dataset

import "errors"

var (
	// ErrSchemaMismatch is returned when the input table is missing an expected column or variable.
	ErrSchemaMismatch = errors.New("dataset: schema mismatch")
	// ErrEmptyInput is returned when the input table has no data rows.
	ErrEmptyInput = errors.New("dataset: empty input")
	// ErrNoRegionalTotal is returned when the authoritative EU demand series is absent.
	ErrNoRegionalTotal = errors.New("dataset: missing EU regional demand")
	// ErrUnknownSeries is returned when a series is requested for an unknown entity or variable.
	ErrUnknownSeries = errors.New("dataset: unknown series")
)
