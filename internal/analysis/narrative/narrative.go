package narrative

import (
	"fmt"

	"volintel/internal/analysis/events"
	"volintel/internal/config"
	"volintel/models"
)

// Facts is everything the narrator renders from. All fields are
// computed upstream; rendering adds no judgment of its own.
type Facts struct {
	Stats         models.RangeStats
	Fallback      bool
	SessionReason string
	Impact        events.Impact
	History       models.HistoricalContext
	Class         models.VolatilityClass
}

// Narrator renders the driver list and the agent guidance. Output is
// deterministic: fixed driver order (range, session, events, history)
// and fixed templates, so identical facts yield identical text.
type Narrator struct {
	thresholds   config.ThresholdConfig
	guidance     config.GuidanceConfig
	major        float64
	baselineDays int
}

func New(tables config.Tables) *Narrator {
	return &Narrator{
		thresholds:   tables.Thresholds,
		guidance:     tables.Guidance,
		major:        tables.Events.MajorThreshold,
		baselineDays: tables.Windows.BaselineDays,
	}
}

// Drivers returns the ordered causal drivers behind the verdict.
func (n *Narrator) Drivers(f Facts) []string {
	drivers := make([]string, 0, 3+len(f.Impact.Events))

	drivers = append(drivers, n.rangeFact(f))
	if f.SessionReason != "" {
		drivers = append(drivers, f.SessionReason)
	}
	for _, e := range f.Impact.Events {
		drivers = append(drivers, fmt.Sprintf("Macro event: %s scheduled during window", e.Label))
	}
	if f.History.SimilarConditionsOccurrences > 0 {
		drivers = append(drivers, fmt.Sprintf(
			"Similar conditions observed %d times with %.0f%% expansion follow-through",
			f.History.SimilarConditionsOccurrences, f.History.ExpansionRate*100))
	}

	return drivers
}

func (n *Narrator) rangeFact(f Facts) string {
	if f.Fallback {
		return "No live range data; using session baseline"
	}

	shape := "within normal bounds"
	switch {
	case f.Stats.CompressionRatio <= n.thresholds.Low:
		shape = "compressed"
	case f.Stats.CompressionRatio > n.thresholds.High:
		shape = "expanded"
	}

	return fmt.Sprintf("Range %s (%.0f pips vs %d-day avg of %.0f pips)",
		shape, f.Stats.CurrentRangePips, n.baselineDays, f.Stats.BaselineRangePips)
}

// Guidance returns the trading guidance for the class, with a caution
// clause appended when a major event sits inside the window.
func (n *Narrator) Guidance(class models.VolatilityClass, impact events.Impact) string {
	var text string
	switch class {
	case models.VolatilityLow:
		text = n.guidance.Low
	case models.VolatilityHigh:
		text = n.guidance.High
	default:
		text = n.guidance.Normal
	}

	if impact.Major(n.major) && n.guidance.MajorEventCaution != "" {
		text += " " + n.guidance.MajorEventCaution
	}
	return text
}
