package ranges

import (
	"volintel/internal/config"
	"volintel/models"
)

// Calculator derives range facts from candle series. Pure computation
// over its inputs; window sizing comes from configuration.
type Calculator struct {
	windows config.WindowConfig
}

func New(windows config.WindowConfig) *Calculator {
	return &Calculator{windows: windows}
}

// Compute returns the current-window range, the per-day baseline
// average and their ratio, all in pips. The current window needs at
// least 2 candles; the baseline is floored to a small epsilon when it
// would otherwise be zero, keeping the ratio finite.
func (c *Calculator) Compute(window, daily []models.Candle, pip float64) (models.RangeStats, error) {
	if len(window) < 2 {
		return models.RangeStats{}, &models.InsufficientDataError{Candles: len(window)}
	}

	if len(window) > c.windows.CurrentHours {
		window = window[len(window)-c.windows.CurrentHours:]
	}

	high := window[0].High
	low := window[0].Low
	for _, candle := range window[1:] {
		if candle.High > high {
			high = candle.High
		}
		if candle.Low < low {
			low = candle.Low
		}
	}
	current := (high - low) * pip
	if current < 0 {
		current = 0
	}

	baseline := c.baselinePips(daily, pip)

	return models.RangeStats{
		CurrentRangePips:  current,
		BaselineRangePips: baseline,
		CompressionRatio:  current / baseline,
	}, nil
}

// baselinePips averages the per-calendar-day ranges over the trailing
// baseline window.
func (c *Calculator) baselinePips(daily []models.Candle, pip float64) float64 {
	if len(daily) > c.windows.BaselineDays {
		daily = daily[len(daily)-c.windows.BaselineDays:]
	}

	var sum float64
	var days int
	for _, candle := range daily {
		span := candle.High - candle.Low
		if span < 0 {
			span = 0
		}
		sum += span * pip
		days++
	}

	if days == 0 {
		return c.windows.BaselineEpsilonPips
	}
	avg := sum / float64(days)
	if avg <= 0 {
		return c.windows.BaselineEpsilonPips
	}
	return avg
}
