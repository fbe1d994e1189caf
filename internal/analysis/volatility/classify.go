package volatility

import (
	"math"

	"volintel/internal/config"
	"volintel/models"
)

// Verdict is the classification outcome for one request.
type Verdict struct {
	Class         models.VolatilityClass
	AdjustedRatio float64
	DeviationPips float64
}

type band struct {
	upTo  float64
	class models.VolatilityClass
}

// Classifier buckets the adjusted ratio through an ordered band table.
// Band upper bounds are inclusive, so a ratio exactly on a threshold
// falls into the lower class.
type Classifier struct {
	bands []band
}

func NewClassifier(thresholds config.ThresholdConfig) *Classifier {
	return &Classifier{bands: []band{
		{upTo: thresholds.Low, class: models.VolatilityLow},
		{upTo: thresholds.High, class: models.VolatilityNormal},
		{upTo: math.Inf(1), class: models.VolatilityHigh},
	}}
}

// Classify combines the compression ratio with the session and event
// multipliers, buckets the result and sizes the expected deviation
// from the baseline range. No other branching: the verdict is a pure
// function of the single adjusted ratio.
func (c *Classifier) Classify(stats models.RangeStats, sessionMult, eventMult float64) Verdict {
	adjusted := stats.CompressionRatio * sessionMult * eventMult

	verdict := Verdict{AdjustedRatio: adjusted, Class: models.VolatilityHigh}
	for _, b := range c.bands {
		if adjusted <= b.upTo {
			verdict.Class = b.class
			break
		}
	}

	verdict.DeviationPips = stats.BaselineRangePips * adjusted
	if verdict.DeviationPips < 0 {
		verdict.DeviationPips = 0
	}
	return verdict
}
