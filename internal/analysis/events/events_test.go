package events

import (
	"math"
	"testing"

	"volintel/internal/config"
)

func newTestResolver() *Resolver {
	return New(config.DefaultTables().Events)
}

func TestResolve(t *testing.T) {
	r := newTestResolver()

	tests := []struct {
		name       string
		labels     []string
		multiplier float64
		eventCount int
	}{
		{
			name:       "empty list is neutral",
			labels:     nil,
			multiplier: 1.0,
			eventCount: 0,
		},
		{
			name:       "single known event",
			labels:     []string{"ECB Rate Decision"},
			multiplier: 1.75,
			eventCount: 1,
		},
		{
			name:       "matching ignores case",
			labels:     []string{"us non-farm payrolls"},
			multiplier: 1.90,
			eventCount: 1,
		},
		{
			name:       "strongest event dominates, no stacking",
			labels:     []string{"ECB Rate Decision", "Fed Rate Decision"},
			multiplier: 1.80,
			eventCount: 2,
		},
		{
			name:       "unknown label gets the generic multiplier",
			labels:     []string{"Retail Sales Tuesday"},
			multiplier: 1.25,
			eventCount: 1,
		},
		{
			name:       "blank labels are dropped",
			labels:     []string{"", "  ", "US CPI"},
			multiplier: 1.70,
			eventCount: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			impact := r.Resolve(tt.labels)
			if math.Abs(impact.Multiplier-tt.multiplier) > 1e-9 {
				t.Errorf("Resolve(%v).Multiplier = %v, want %v", tt.labels, impact.Multiplier, tt.multiplier)
			}
			if len(impact.Events) != tt.eventCount {
				t.Errorf("Resolve(%v) resolved %d events, want %d", tt.labels, len(impact.Events), tt.eventCount)
			}
		})
	}
}

func TestResolveKeepsCanonicalLabels(t *testing.T) {
	r := newTestResolver()

	impact := r.Resolve([]string{"boe rate decision"})
	if len(impact.Events) != 1 {
		t.Fatalf("resolved %d events, want 1", len(impact.Events))
	}
	if impact.Events[0].Label != "BoE Rate Decision" {
		t.Errorf("Label = %q, want the canonical table casing", impact.Events[0].Label)
	}
}

func TestMajor(t *testing.T) {
	r := newTestResolver()
	threshold := config.DefaultTables().Events.MajorThreshold

	if impact := r.Resolve([]string{"Eurozone GDP"}); impact.Major(threshold) {
		t.Errorf("Eurozone GDP (1.50) flagged as major at threshold %v", threshold)
	}
	if impact := r.Resolve([]string{"Fed Rate Decision"}); !impact.Major(threshold) {
		t.Errorf("Fed Rate Decision (1.80) not flagged as major at threshold %v", threshold)
	}
	if impact := r.Resolve([]string{"some unknown speech"}); impact.Major(threshold) {
		t.Errorf("generic event flagged as major at threshold %v", threshold)
	}
}
