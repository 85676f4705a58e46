package app

import "errors"

// Sentinel error kinds for this package. These allow errors.Is/As from callers.
var (
	// ErrInsufficientData marks the explicit "no score yet" state: not
	// enough baseline or signal history to produce a number. It is never
	// silently defaulted to a numeric score.
	ErrInsufficientData = errors.New("insufficient data")
)
