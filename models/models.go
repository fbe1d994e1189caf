package models

import (
	"time"
)

// Candle represents a single price candle
type Candle struct {
	Datetime string  `json:"datetime"`
	Open     float64 `json:"open"`
	High     float64 `json:"high"`
	Low      float64 `json:"low"`
	Close    float64 `json:"close"`
	Volume   int64   `json:"volume,omitempty"`
}

// TwelveResponse represents the API response from Twelve Data
type TwelveResponse struct {
	Meta struct {
		Symbol   string `json:"symbol"`
		Interval string `json:"interval"`
	} `json:"meta"`
	Values []struct {
		Datetime string  `json:"datetime"`
		Open     float64 `json:"open,string"`
		High     float64 `json:"high,string"`
		Low      float64 `json:"low,string"`
		Close    float64 `json:"close,string"`
		Volume   int64   `json:"volume,string,omitempty"`
	} `json:"values"`
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// Session is a UTC trading-session band.
type Session string

const (
	SessionAsian   Session = "Asian"
	SessionLondon  Session = "London"
	SessionNewYork Session = "NewYork"
	SessionOff     Session = "OffSession"
)

// SessionInfo is the classified session plus overlap metadata.
// Overlap holds the overlap window name (e.g. "London-NewYork") when
// the timestamp falls inside one, empty otherwise.
type SessionInfo struct {
	Session Session `json:"session"`
	Overlap string  `json:"overlap,omitempty"`
}

// VolatilityClass is the engine's verdict bucket.
type VolatilityClass string

const (
	VolatilityLow    VolatilityClass = "Low"
	VolatilityNormal VolatilityClass = "Normal"
	VolatilityHigh   VolatilityClass = "High"
)

// RangeStats holds the per-request range facts. Computed once, never
// mutated; BaselineRangePips is guaranteed > 0 (epsilon-floored).
type RangeStats struct {
	CurrentRangePips  float64 `json:"current_range_pips"`
	BaselineRangePips float64 `json:"baseline_range_pips"`
	CompressionRatio  float64 `json:"compression_ratio"`
}

// MacroEvent is one scheduled event with its resolved impact multiplier.
type MacroEvent struct {
	Label      string  `json:"label"`
	Multiplier float64 `json:"impact_multiplier"`
}

// HistoricalContext summarizes how often similar conditions occurred
// and how often they were followed by a range expansion.
type HistoricalContext struct {
	SimilarConditionsOccurrences int     `json:"similar_conditions_occurrences"`
	ExpansionRate                float64 `json:"expansion_rate"`
}

// DebugStats carries the raw intermediate numbers, attached to the
// output only when the caller asked for them.
type DebugStats struct {
	CurrentRangePips  float64 `json:"current_range_pips"`
	BaselineRangePips float64 `json:"baseline_range_pips"`
	CompressionRatio  float64 `json:"compression_ratio"`
	AdjustedRatio     float64 `json:"adjusted_ratio"`
	SessionMultiplier float64 `json:"session_multiplier"`
	EventMultiplier   float64 `json:"event_multiplier"`
	Fallback          bool    `json:"fallback"`
}

// VolatilityIntelligence is the engine's verdict for one pair at one
// point in time. Built once per invocation and never mutated after.
type VolatilityIntelligence struct {
	Pair                  string            `json:"pair"`
	Session               Session           `json:"session"`
	SessionOverlap        string            `json:"session_overlap,omitempty"`
	TimeWindowMinutes     int               `json:"time_window_minutes"`
	VolatilityExpectation VolatilityClass   `json:"volatility_expectation"`
	ExpectedDeviationPips float64           `json:"expected_deviation_pips"`
	Confidence            float64           `json:"confidence"`
	Drivers               []string          `json:"drivers"`
	HistoricalContext     HistoricalContext `json:"historical_context"`
	AgentGuidance         string            `json:"agent_guidance"`
	GeneratedAt           time.Time         `json:"generated_at"`
	Debug                 *DebugStats       `json:"debug,omitempty"`
}
