package models

import "errors"

// Error taxonomy shared by the core packages. Callers match these with
// errors.Is after any amount of %w wrapping.
var (
	// ErrDataGap marks a missing sentiment or price observation for a
	// requested date. Non-fatal unless the whole requested window is empty.
	ErrDataGap = errors.New("data gap")

	// ErrConfiguration marks invalid weights, thresholds or windows.
	// Rejected before any computation runs.
	ErrConfiguration = errors.New("invalid configuration")

	// ErrInvalidRange marks a backtest range whose start is not strictly
	// before its end.
	ErrInvalidRange = errors.New("invalid date range")

	// ErrInsufficientData marks a price history too short for the requested
	// computation.
	ErrInsufficientData = errors.New("insufficient data")
)
