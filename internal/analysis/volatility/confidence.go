package volatility

import (
	"math"

	"volintel/internal/config"
	"volintel/models"
)

// Scorer derives a bounded confidence from the verdict and the
// historical context.
type Scorer struct {
	cfg config.ConfidenceConfig
}

func NewScorer(cfg config.ConfidenceConfig) *Scorer {
	return &Scorer{cfg: cfg}
}

// Score starts from the per-class base, adds a capped bonus for how
// far the adjusted ratio sits from 1.0 and a saturating bonus for the
// historical sample size, then clamps. The ceiling stays below 1.0:
// the engine never claims certainty.
func (s *Scorer) Score(verdict Verdict, history models.HistoricalContext) float64 {
	var base float64
	switch verdict.Class {
	case models.VolatilityLow:
		base = s.cfg.BaseLow
	case models.VolatilityHigh:
		base = s.cfg.BaseHigh
	default:
		base = s.cfg.BaseNormal
	}

	extremeness := math.Abs(verdict.AdjustedRatio - 1.0)
	if extremeness > s.cfg.ExtremenessCap {
		extremeness = s.cfg.ExtremenessCap
	}
	confidence := base + extremeness*s.cfg.ExtremenessWeight

	samples := float64(history.SimilarConditionsOccurrences)
	if samples > 0 {
		confidence += s.cfg.SampleWeight * samples / (samples + s.cfg.SamplePivot)
	}

	if confidence > s.cfg.Max {
		confidence = s.cfg.Max
	}
	if confidence < 0 {
		confidence = 0
	}
	return confidence
}
