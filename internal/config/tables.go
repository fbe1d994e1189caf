package config

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"volintel/models"
)

// Tables holds every behavior table the engine consumes: session
// bands, event impacts, classification thresholds, confidence weights
// and guidance texts. Components receive the slice they need at
// construction time; nothing reads these through package globals.
type Tables struct {
	Thresholds ThresholdConfig  `yaml:"thresholds"`
	Sessions   []SessionBand    `yaml:"sessions"`
	Overlaps   []OverlapWindow  `yaml:"overlaps"`
	Events     EventTable       `yaml:"events"`
	Confidence ConfidenceConfig `yaml:"confidence"`
	Guidance   GuidanceConfig   `yaml:"guidance"`
	Fallback   FallbackConfig   `yaml:"fallback"`
	Windows    WindowConfig     `yaml:"windows"`
	History    HistoryConfig    `yaml:"history"`
	Pips       PipConfig        `yaml:"pips"`
}

// ThresholdConfig bounds the Normal band of the adjusted ratio. A
// ratio exactly on a threshold belongs to the lower class.
type ThresholdConfig struct {
	Low  float64 `yaml:"low"`
	High float64 `yaml:"high"`
}

// SessionBand is one UTC hour band [StartHour, EndHour) with its
// volatility multiplier and the driver text explaining it.
type SessionBand struct {
	Session    models.Session `yaml:"session"`
	StartHour  int            `yaml:"start_hour"`
	EndHour    int            `yaml:"end_hour"`
	Multiplier float64        `yaml:"multiplier"`
	Reason     string         `yaml:"reason"`
}

// OverlapWindow marks UTC hours where two sessions are both active.
type OverlapWindow struct {
	Name      string `yaml:"name"`
	StartHour int    `yaml:"start_hour"`
	EndHour   int    `yaml:"end_hour"`
}

// EventEntry is one known high-impact calendar event.
type EventEntry struct {
	Label      string  `yaml:"label"`
	Multiplier float64 `yaml:"multiplier"`
}

// EventTable lists known events plus the generic multiplier applied
// to scheduled events the table does not know.
type EventTable struct {
	Known             []EventEntry `yaml:"known"`
	GenericMultiplier float64      `yaml:"generic_multiplier"`
	MajorThreshold    float64      `yaml:"major_threshold"`
}

// ConfidenceConfig holds the additive confidence model: a per-class
// base, a capped bonus for ratio extremeness and a saturating bonus
// for historical sample size.
type ConfidenceConfig struct {
	BaseLow           float64 `yaml:"base_low"`
	BaseNormal        float64 `yaml:"base_normal"`
	BaseHigh          float64 `yaml:"base_high"`
	ExtremenessWeight float64 `yaml:"extremeness_weight"`
	ExtremenessCap    float64 `yaml:"extremeness_cap"`
	SampleWeight      float64 `yaml:"sample_weight"`
	SamplePivot       float64 `yaml:"sample_pivot"`
	Max               float64 `yaml:"max"`
}

// GuidanceConfig maps each volatility class to its guidance text.
type GuidanceConfig struct {
	Low               string `yaml:"low"`
	Normal            string `yaml:"normal"`
	High              string `yaml:"high"`
	MajorEventCaution string `yaml:"major_event_caution"`
}

// FallbackConfig drives the degraded path taken without candle data.
type FallbackConfig struct {
	BaselinePips      float64 `yaml:"baseline_pips"`
	ConfidencePenalty float64 `yaml:"confidence_penalty"`
}

// WindowConfig sizes the data windows and the advertised horizon.
type WindowConfig struct {
	CurrentHours        int     `yaml:"current_hours"`
	BaselineDays        int     `yaml:"baseline_days"`
	TimeWindowMinutes   int     `yaml:"time_window_minutes"`
	BaselineEpsilonPips float64 `yaml:"baseline_epsilon_pips"`
}

// HistoryConfig drives the historical-context scan.
type HistoryConfig struct {
	StatsDays       int     `yaml:"stats_days"`
	ExpansionFactor float64 `yaml:"expansion_factor"`
}

// PipConfig maps pair classes to pip multipliers.
type PipConfig struct {
	Default     float64  `yaml:"default"`
	JPYQuote    float64  `yaml:"jpy_quote"`
	Crypto      float64  `yaml:"crypto"`
	CryptoBases []string `yaml:"crypto_bases"`
}

// Resolver returns the pip lookup for normalized 6-letter pairs.
func (p PipConfig) Resolver() models.PipResolver {
	bases := make(map[string]struct{}, len(p.CryptoBases))
	for _, b := range p.CryptoBases {
		bases[strings.ToUpper(b)] = struct{}{}
	}
	return func(pair string) float64 {
		if len(pair) != 6 {
			return p.Default
		}
		if _, ok := bases[pair[:3]]; ok {
			return p.Crypto
		}
		if pair[3:] == "JPY" {
			return p.JPYQuote
		}
		return p.Default
	}
}

// DefaultTables returns the production behavior tables.
func DefaultTables() Tables {
	return Tables{
		Thresholds: ThresholdConfig{Low: 0.75, High: 1.25},
		Sessions: []SessionBand{
			{Session: models.SessionAsian, StartHour: 0, EndHour: 7, Multiplier: 0.85,
				Reason: "Asian session typically trades quieter ranges"},
			{Session: models.SessionLondon, StartHour: 7, EndHour: 13, Multiplier: 1.30,
				Reason: "London session drives significant volatility"},
			{Session: models.SessionNewYork, StartHour: 13, EndHour: 18, Multiplier: 1.35,
				Reason: "New York session shows the highest volatility"},
			{Session: models.SessionOff, StartHour: 18, EndHour: 24, Multiplier: 0.80,
				Reason: "Off-session hours show reduced activity"},
		},
		Overlaps: []OverlapWindow{
			{Name: "London-NewYork", StartHour: 13, EndHour: 16},
		},
		Events: EventTable{
			Known: []EventEntry{
				{Label: "ECB Rate Decision", Multiplier: 1.75},
				{Label: "Fed Rate Decision", Multiplier: 1.80},
				{Label: "US Non-Farm Payrolls", Multiplier: 1.90},
				{Label: "US CPI", Multiplier: 1.70},
				{Label: "Eurozone GDP", Multiplier: 1.50},
				{Label: "UK Inflation", Multiplier: 1.60},
				{Label: "BoE Rate Decision", Multiplier: 1.70},
				{Label: "RBA Rate Decision", Multiplier: 1.55},
			},
			GenericMultiplier: 1.25,
			MajorThreshold:    1.65,
		},
		Confidence: ConfidenceConfig{
			BaseLow:           0.55,
			BaseNormal:        0.60,
			BaseHigh:          0.64,
			ExtremenessWeight: 0.24,
			ExtremenessCap:    0.50,
			SampleWeight:      0.12,
			SamplePivot:       80,
			Max:               0.99,
		},
		Guidance: GuidanceConfig{
			Low:    "Range compression suggests calmer conditions; consider mean reversion strategies with tight stops and reduced position sizing.",
			Normal: "Normal range conditions; apply standard risk management and position sizing relative to average volatility.",
			High:   "Range expansion indicates elevated volatility; favor breakout strategies with wider stops and careful position management.",
			MajorEventCaution: "High-impact release scheduled; reduce exposure until the print clears.",
		},
		Fallback: FallbackConfig{
			BaselinePips:      35,
			ConfidencePenalty: 0.75,
		},
		Windows: WindowConfig{
			CurrentHours:        24,
			BaselineDays:        30,
			TimeWindowMinutes:   90,
			BaselineEpsilonPips: 1e-6,
		},
		History: HistoryConfig{
			StatsDays:       180,
			ExpansionFactor: 1.2,
		},
		Pips: PipConfig{
			Default:     10000,
			JPYQuote:    100,
			Crypto:      1,
			CryptoBases: []string{"BTC", "ETH", "XRP", "LTC", "BNB", "SOL", "ADA", "DOT"},
		},
	}
}

// LoadTables returns the defaults, overridden by the YAML file at
// path when one is given.
func LoadTables(path string) (Tables, error) {
	tables := DefaultTables()
	if path == "" {
		return tables, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return tables, &models.ConfigurationError{Field: "tables", Reason: fmt.Sprintf("read %s: %v", path, err)}
	}
	if err := yaml.Unmarshal(data, &tables); err != nil {
		return tables, &models.ConfigurationError{Field: "tables", Reason: fmt.Sprintf("parse %s: %v", path, err)}
	}
	return tables, nil
}

// Validate rejects malformed tables before any request is served.
func (t Tables) Validate() error {
	if t.Thresholds.Low <= 0 || t.Thresholds.High <= t.Thresholds.Low {
		return &models.ConfigurationError{Field: "thresholds", Reason: "need 0 < low < high"}
	}

	if len(t.Sessions) == 0 {
		return &models.ConfigurationError{Field: "sessions", Reason: "no session bands"}
	}
	bands := make([]SessionBand, len(t.Sessions))
	copy(bands, t.Sessions)
	sort.Slice(bands, func(i, j int) bool { return bands[i].StartHour < bands[j].StartHour })
	for i, b := range bands {
		if b.StartHour < 0 || b.EndHour > 24 || b.StartHour >= b.EndHour {
			return &models.ConfigurationError{Field: "sessions", Reason: fmt.Sprintf("band %s has hours [%d,%d)", b.Session, b.StartHour, b.EndHour)}
		}
		if b.Multiplier <= 0 {
			return &models.ConfigurationError{Field: "sessions", Reason: fmt.Sprintf("band %s multiplier must be positive", b.Session)}
		}
		if i > 0 && b.StartHour != bands[i-1].EndHour {
			return &models.ConfigurationError{Field: "sessions", Reason: "bands must be contiguous"}
		}
	}
	if bands[0].StartHour != 0 || bands[len(bands)-1].EndHour != 24 {
		return &models.ConfigurationError{Field: "sessions", Reason: "bands must cover all 24 hours"}
	}

	for _, o := range t.Overlaps {
		if o.StartHour < 0 || o.EndHour > 24 || o.StartHour >= o.EndHour {
			return &models.ConfigurationError{Field: "overlaps", Reason: fmt.Sprintf("window %s has hours [%d,%d)", o.Name, o.StartHour, o.EndHour)}
		}
	}

	if t.Events.GenericMultiplier <= 1.0 {
		return &models.ConfigurationError{Field: "events", Reason: "generic multiplier must exceed 1.0"}
	}
	for _, e := range t.Events.Known {
		if e.Label == "" {
			return &models.ConfigurationError{Field: "events", Reason: "event with empty label"}
		}
		if e.Multiplier <= 1.0 {
			return &models.ConfigurationError{Field: "events", Reason: fmt.Sprintf("event %q multiplier must exceed 1.0", e.Label)}
		}
		if e.Multiplier < t.Events.GenericMultiplier {
			return &models.ConfigurationError{Field: "events", Reason: fmt.Sprintf("event %q multiplier below the generic multiplier", e.Label)}
		}
	}

	c := t.Confidence
	if !(c.BaseLow > 0 && c.BaseLow < c.BaseNormal && c.BaseNormal < c.BaseHigh) {
		return &models.ConfigurationError{Field: "confidence", Reason: "bases must satisfy 0 < low < normal < high"}
	}
	if c.ExtremenessWeight < 0 || c.ExtremenessCap <= 0 || c.SampleWeight < 0 || c.SamplePivot <= 0 {
		return &models.ConfigurationError{Field: "confidence", Reason: "weights must be non-negative and caps positive"}
	}
	if c.Max <= 0 || c.Max >= 1.0 {
		return &models.ConfigurationError{Field: "confidence", Reason: "max must stay below 1.0"}
	}

	if t.Guidance.Low == "" || t.Guidance.Normal == "" || t.Guidance.High == "" {
		return &models.ConfigurationError{Field: "guidance", Reason: "guidance text missing for a class"}
	}

	if t.Fallback.BaselinePips <= 0 {
		return &models.ConfigurationError{Field: "fallback", Reason: "baseline pips must be positive"}
	}
	if t.Fallback.ConfidencePenalty <= 0 || t.Fallback.ConfidencePenalty >= 1.0 {
		return &models.ConfigurationError{Field: "fallback", Reason: "confidence penalty must be in (0,1)"}
	}

	w := t.Windows
	if w.CurrentHours < 2 || w.BaselineDays < 1 || w.TimeWindowMinutes < 1 {
		return &models.ConfigurationError{Field: "windows", Reason: "window sizes too small"}
	}
	if w.BaselineEpsilonPips <= 0 {
		return &models.ConfigurationError{Field: "windows", Reason: "baseline epsilon must be positive"}
	}

	if t.History.StatsDays < 1 || t.History.ExpansionFactor <= 1.0 {
		return &models.ConfigurationError{Field: "history", Reason: "need stats_days >= 1 and expansion_factor > 1.0"}
	}

	if t.Pips.Default <= 0 || t.Pips.JPYQuote <= 0 || t.Pips.Crypto <= 0 {
		return &models.ConfigurationError{Field: "pips", Reason: "pip multipliers must be positive"}
	}

	return nil
}
