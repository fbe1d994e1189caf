package volatility

import (
	"math"
	"testing"

	"volintel/internal/config"
	"volintel/models"
)

func statsWithRatio(ratio float64) models.RangeStats {
	// Baseline 1.0 so the compression ratio doubles as the current range.
	return models.RangeStats{
		CurrentRangePips:  ratio,
		BaselineRangePips: 1.0,
		CompressionRatio:  ratio,
	}
}

func TestClassifyThresholdBands(t *testing.T) {
	c := NewClassifier(config.DefaultTables().Thresholds)

	tests := []struct {
		name  string
		ratio float64
		class models.VolatilityClass
	}{
		{"deep compression", 0.40, models.VolatilityLow},
		{"exactly on the low threshold stays Low", 0.75, models.VolatilityLow},
		{"just above the low threshold turns Normal", 0.750001, models.VolatilityNormal},
		{"mid band", 1.00, models.VolatilityNormal},
		{"exactly on the high threshold stays Normal", 1.25, models.VolatilityNormal},
		{"just above the high threshold turns High", 1.250001, models.VolatilityHigh},
		{"strong expansion", 2.10, models.VolatilityHigh},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			verdict := c.Classify(statsWithRatio(tt.ratio), 1.0, 1.0)
			if verdict.Class != tt.class {
				t.Errorf("Classify(ratio %v) = %v, want %v", tt.ratio, verdict.Class, tt.class)
			}
		})
	}
}

func TestClassifyAppliesMultipliers(t *testing.T) {
	c := NewClassifier(config.DefaultTables().Thresholds)

	// 0.5625 alone is Low, but London (1.30) plus ECB (1.75) push the
	// adjusted ratio over the high threshold.
	verdict := c.Classify(statsWithRatio(0.5625), 1.30, 1.75)

	wantAdjusted := 0.5625 * 1.30 * 1.75
	if math.Abs(verdict.AdjustedRatio-wantAdjusted) > 1e-12 {
		t.Errorf("AdjustedRatio = %v, want %v", verdict.AdjustedRatio, wantAdjusted)
	}
	if verdict.Class != models.VolatilityHigh {
		t.Errorf("Class = %v, want High", verdict.Class)
	}
}

func TestClassifyDeviationScalesWithBaseline(t *testing.T) {
	c := NewClassifier(config.DefaultTables().Thresholds)

	stats := models.RangeStats{
		CurrentRangePips:  18,
		BaselineRangePips: 32,
		CompressionRatio:  0.5625,
	}
	verdict := c.Classify(stats, 1.30, 1.75)

	want := 32 * 0.5625 * 1.30 * 1.75
	if math.Abs(verdict.DeviationPips-want) > 1e-9 {
		t.Errorf("DeviationPips = %v, want %v", verdict.DeviationPips, want)
	}
	if verdict.DeviationPips < 0 {
		t.Errorf("DeviationPips = %v, want non-negative", verdict.DeviationPips)
	}
}

func TestClassifyZeroRatio(t *testing.T) {
	c := NewClassifier(config.DefaultTables().Thresholds)

	verdict := c.Classify(statsWithRatio(0), 1.35, 1.90)
	if verdict.Class != models.VolatilityLow {
		t.Errorf("Class = %v, want Low for a zero ratio", verdict.Class)
	}
	if verdict.DeviationPips != 0 {
		t.Errorf("DeviationPips = %v, want 0", verdict.DeviationPips)
	}
}
