package models

import "fmt"

// InvalidPairError reports a pair string that failed format
// validation. Always surfaced to the caller, never defaulted.
type InvalidPairError struct {
	Pair string
}

func (e *InvalidPairError) Error() string {
	return fmt.Sprintf("invalid pair %q: need 6 letters like EURUSD", e.Pair)
}

// InsufficientDataError reports a current window too short to compute
// a range. Recovered via the fallback path.
type InsufficientDataError struct {
	Candles int
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("insufficient data: got %d candles, need at least 2", e.Candles)
}

// DataUnavailableError reports a failed candle fetch. Recovered via
// the fallback path.
type DataUnavailableError struct {
	Pair   string
	Window string
	Err    error
}

func (e *DataUnavailableError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("data unavailable for %s (%s): %v", e.Pair, e.Window, e.Err)
	}
	return fmt.Sprintf("data unavailable for %s (%s)", e.Pair, e.Window)
}

func (e *DataUnavailableError) Unwrap() error { return e.Err }

// ConfigurationError reports a malformed table or threshold. Fatal at
// startup, before any request is served.
type ConfigurationError struct {
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error in %s: %s", e.Field, e.Reason)
}
