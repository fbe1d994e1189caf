package history

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"volintel/internal/analysis/volatility"
	"volintel/internal/config"
	"volintel/models"
)

// Scanner derives historical context from daily candles: how many
// past days showed the same range shape the request classified into,
// and how often those days were followed by an expansion. No state is
// persisted; every answer is recomputed from the candle series.
type Scanner struct {
	client     models.CandleClient
	cfg        config.HistoryConfig
	classifier *volatility.Classifier
	logger     zerolog.Logger
}

func New(client models.CandleClient, cfg config.HistoryConfig, thresholds config.ThresholdConfig, logger zerolog.Logger) *Scanner {
	return &Scanner{
		client:     client,
		cfg:        cfg,
		classifier: volatility.NewClassifier(thresholds),
		logger:     logger.With().Str("component", "history").Logger(),
	}
}

// FetchContext scans the stats window for the pair. A day is similar
// when its range ratio lands in the same band as the request's class;
// it expanded when the next day's range grew by the expansion factor.
// Thin or flat data yields the zero-occurrence default, not an error.
func (s *Scanner) FetchContext(ctx context.Context, pair string, _ models.Session, class models.VolatilityClass) (models.HistoricalContext, error) {
	daily, err := s.client.GetDailyCandles(ctx, pair, s.cfg.StatsDays)
	if err != nil {
		return models.HistoricalContext{}, fmt.Errorf("history scan for %s: %w", pair, err)
	}
	if len(daily) > s.cfg.StatsDays {
		daily = daily[len(daily)-s.cfg.StatsDays:]
	}
	if len(daily) < 2 {
		return models.HistoricalContext{}, nil
	}

	spans := make([]float64, len(daily))
	var sum float64
	for i, candle := range daily {
		span := candle.High - candle.Low
		if span < 0 {
			span = 0
		}
		spans[i] = span
		sum += span
	}
	avg := sum / float64(len(spans))
	if avg <= 0 {
		return models.HistoricalContext{}, nil
	}

	var occurrences, expansions, withNext int
	for i, span := range spans {
		stats := models.RangeStats{CompressionRatio: span / avg}
		if s.classifier.Classify(stats, 1.0, 1.0).Class != class {
			continue
		}
		occurrences++
		if i+1 < len(spans) {
			withNext++
			if spans[i+1] >= span*s.cfg.ExpansionFactor {
				expansions++
			}
		}
	}

	history := models.HistoricalContext{SimilarConditionsOccurrences: occurrences}
	if withNext > 0 {
		history.ExpansionRate = float64(expansions) / float64(withNext)
	}

	s.logger.Debug().
		Str("pair", pair).
		Str("class", string(class)).
		Int("occurrences", occurrences).
		Float64("expansion_rate", history.ExpansionRate).
		Msg("historical context scanned")
	return history, nil
}
