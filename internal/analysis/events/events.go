package events

import (
	"strings"

	"volintel/internal/config"
	"volintel/models"
)

// Impact is the combined event pressure on the window: the single
// strongest multiplier plus the resolved events for narration, in
// input order.
type Impact struct {
	Multiplier float64
	Events     []models.MacroEvent
}

// Major reports whether any resolved event crosses the threshold.
func (i Impact) Major(threshold float64) bool {
	for _, e := range i.Events {
		if e.Multiplier > threshold {
			return true
		}
	}
	return false
}

// Resolver matches scheduled event labels against the known table.
type Resolver struct {
	table config.EventTable
}

func New(table config.EventTable) *Resolver {
	return &Resolver{table: table}
}

// Resolve maps labels to the combined multiplier. The strongest single
// event dominates; multipliers never stack multiplicatively. Unknown
// labels still count through the generic multiplier, so any non-empty
// list nudges the estimate upward. Matching is case-insensitive and
// matched labels take the table's canonical casing; blank labels are
// dropped.
func (r *Resolver) Resolve(labels []string) Impact {
	impact := Impact{Multiplier: 1.0}

	for _, label := range labels {
		label = strings.TrimSpace(label)
		if label == "" {
			continue
		}

		event := models.MacroEvent{Label: label, Multiplier: r.table.GenericMultiplier}
		for _, known := range r.table.Known {
			if strings.EqualFold(label, known.Label) {
				event = models.MacroEvent{Label: known.Label, Multiplier: known.Multiplier}
				break
			}
		}

		impact.Events = append(impact.Events, event)
		if event.Multiplier > impact.Multiplier {
			impact.Multiplier = event.Multiplier
		}
	}

	return impact
}
