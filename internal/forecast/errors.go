package forecast

import "errors"

var (
	// ErrInsufficientHistory is returned when a series has too few observed
	// months to fit a seasonal model reliably. The gap filler falls back to
	// carrying the last observed value forward rather than fabricating a fit.
	ErrInsufficientHistory = errors.New("forecast: insufficient history")
	// ErrModelFitFailure is returned when no candidate model converges for a
	// series. The failure is isolated to that series; the batch continues.
	ErrModelFitFailure = errors.New("forecast: model fit failure")

	errTooFewRows = errors.New("forecast: too few usable regression rows")
)
