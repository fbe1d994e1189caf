package engine

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"volintel/internal/config"
	"volintel/models"
)

type stubCandleClient struct {
	window []models.Candle
	daily  []models.Candle
	err    error
}

func (s *stubCandleClient) GetCandles(ctx context.Context, pair string, hours int) ([]models.Candle, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.window, nil
}

func (s *stubCandleClient) GetDailyCandles(ctx context.Context, pair string, days int) ([]models.Candle, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.daily, nil
}

type stubHistory struct {
	history models.HistoricalContext
	err     error
}

func (s *stubHistory) FetchContext(ctx context.Context, pair string, session models.Session, class models.VolatilityClass) (models.HistoricalContext, error) {
	return s.history, s.err
}

type stubRecorder struct {
	outcomes []string
}

func (s *stubRecorder) EngineResult(outcome string) {
	s.outcomes = append(s.outcomes, outcome)
}

func hourCandles(n int, high, low float64) []models.Candle {
	candles := make([]models.Candle, n)
	for i := range candles {
		candles[i] = models.Candle{High: high, Low: low, Open: low, Close: high}
	}
	return candles
}

func newTestEngine(client models.CandleClient, history models.HistoryProvider, rec Recorder) *Engine {
	return New(config.DefaultTables(), client, history, nil, rec, zerolog.Nop())
}

var (
	londonNow = time.Date(2026, 8, 20, 10, 0, 0, 0, time.UTC)
	offNow    = time.Date(2026, 8, 20, 20, 0, 0, 0, time.UTC)
)

func TestCompressedLondonECBScenario(t *testing.T) {
	eng := newTestEngine(&stubCandleClient{}, nil, nil)

	bundle := FactBundle{
		Pair:        "EURUSD",
		Now:         londonNow,
		Session:     models.SessionInfo{Session: models.SessionLondon},
		Stats:       models.RangeStats{CurrentRangePips: 18, BaselineRangePips: 32, CompressionRatio: 0.5625},
		EventLabels: []string{"ECB Rate Decision"},
		History:     models.HistoricalContext{SimilarConditionsOccurrences: 112, ExpansionRate: 0.62},
	}
	intel := eng.GenerateFromFacts(bundle)

	assert.Equal(t, models.VolatilityHigh, intel.VolatilityExpectation)
	assert.GreaterOrEqual(t, intel.Confidence, 0.70)
	assert.LessOrEqual(t, intel.Confidence, 0.80)

	require.NotEmpty(t, intel.Drivers)
	assert.Contains(t, intel.Drivers[0], "18 pips vs 30-day avg of 32")
	assert.Contains(t, intel.Drivers, "Macro event: ECB Rate Decision scheduled during window")
	assert.Equal(t, 112, intel.HistoricalContext.SimilarConditionsOccurrences)
	assert.Greater(t, intel.ExpectedDeviationPips, 0.0)
	assert.Equal(t, 90, intel.TimeWindowMinutes)
}

func TestNeutralOffSessionScenario(t *testing.T) {
	eng := newTestEngine(&stubCandleClient{}, nil, nil)

	bundle := FactBundle{
		Pair:    "EURUSD",
		Now:     offNow,
		Session: models.SessionInfo{Session: models.SessionOff},
		Stats:   models.RangeStats{CurrentRangePips: 30, BaselineRangePips: 30, CompressionRatio: 1.0},
	}
	intel := eng.GenerateFromFacts(bundle)

	assert.Equal(t, models.VolatilityNormal, intel.VolatilityExpectation)
	assert.Empty(t, intel.SessionOverlap)
}

func TestGenerateIntelligenceMatchesFactBundle(t *testing.T) {
	// Prices chosen so every intermediate float is exactly
	// representable: the two paths must agree to the byte.
	client := &stubCandleClient{
		window: hourCandles(24, 1.5, 1.0),  // 5000 pips
		daily:  hourCandles(30, 2.0, 1.0),  // 10000 pips per day
	}
	history := &stubHistory{history: models.HistoricalContext{SimilarConditionsOccurrences: 112, ExpansionRate: 0.62}}
	eng := newTestEngine(client, history, nil)

	full, err := eng.GenerateIntelligence(context.Background(), "EUR/USD", londonNow, []string{"US CPI"}, true)
	require.NoError(t, err)

	bundle := FactBundle{
		Pair:        "EURUSD",
		Now:         londonNow,
		Session:     models.SessionInfo{Session: models.SessionLondon},
		Stats:       models.RangeStats{CurrentRangePips: 5000, BaselineRangePips: 10000, CompressionRatio: 0.5},
		EventLabels: []string{"US CPI"},
		History:     history.history,
		Debug:       true,
	}
	fromFacts := eng.GenerateFromFacts(bundle)

	fullJSON, err := json.Marshal(full)
	require.NoError(t, err)
	factsJSON, err := json.Marshal(fromFacts)
	require.NoError(t, err)
	assert.Equal(t, string(fullJSON), string(factsJSON))
}

func TestGenerateIntelligenceIsDeterministic(t *testing.T) {
	client := &stubCandleClient{
		window: hourCandles(24, 1.1018, 1.1000),
		daily:  hourCandles(30, 1.1032, 1.1000),
	}
	history := &stubHistory{history: models.HistoricalContext{SimilarConditionsOccurrences: 57, ExpansionRate: 0.44}}
	eng := newTestEngine(client, history, nil)

	first, err := eng.GenerateIntelligence(context.Background(), "EURUSD", londonNow, []string{"Fed Rate Decision", "US CPI"}, true)
	require.NoError(t, err)
	second, err := eng.GenerateIntelligence(context.Background(), "EURUSD", londonNow, []string{"Fed Rate Decision", "US CPI"}, true)
	require.NoError(t, err)

	firstJSON, err := json.Marshal(first)
	require.NoError(t, err)
	secondJSON, err := json.Marshal(second)
	require.NoError(t, err)
	assert.Equal(t, string(firstJSON), string(secondJSON))
}

func TestFallbackOnFetchFailure(t *testing.T) {
	client := &stubCandleClient{err: &models.DataUnavailableError{Pair: "EURUSD", Window: "24h"}}
	rec := &stubRecorder{}
	eng := newTestEngine(client, &stubHistory{}, rec)

	intel, err := eng.GenerateIntelligence(context.Background(), "EURUSD", londonNow, nil, false)
	require.NoError(t, err, "a data failure must degrade, not fail")

	assert.Equal(t, models.VolatilityNormal, intel.VolatilityExpectation)
	assert.Nil(t, intel.Debug, "no raw numbers without the debug flag")
	assert.Contains(t, intel.Drivers, "No live range data; using session baseline")
	assert.Equal(t, []string{"fallback"}, rec.outcomes)

	// The same session and events computed from real data must score
	// strictly higher than the degraded verdict.
	healthy := newTestEngine(&stubCandleClient{
		window: hourCandles(24, 1.1030, 1.1000),
		daily:  hourCandles(30, 1.1030, 1.1000),
	}, &stubHistory{}, nil)
	baseline, err := healthy.GenerateIntelligence(context.Background(), "EURUSD", londonNow, nil, false)
	require.NoError(t, err)
	assert.Less(t, intel.Confidence, baseline.Confidence)
}

func TestFallbackConfidencePenalty(t *testing.T) {
	eng := newTestEngine(&stubCandleClient{}, nil, nil)

	degraded := eng.GenerateFromFacts(FactBundle{
		Pair:     "EURUSD",
		Now:      offNow,
		Session:  models.SessionInfo{Session: models.SessionOff},
		Fallback: true,
	})
	// Ratio 1.0 yields the same adjusted ratio the fallback assumes,
	// so the only difference is the penalty factor.
	healthy := eng.GenerateFromFacts(FactBundle{
		Pair:    "EURUSD",
		Now:     offNow,
		Session: models.SessionInfo{Session: models.SessionOff},
		Stats:   models.RangeStats{CurrentRangePips: 28, BaselineRangePips: 28, CompressionRatio: 1.0},
	})

	assert.Equal(t, models.VolatilityNormal, degraded.VolatilityExpectation)
	assert.Less(t, degraded.Confidence, healthy.Confidence)
}

func TestFallbackOnInsufficientCandles(t *testing.T) {
	client := &stubCandleClient{
		window: hourCandles(1, 1.1010, 1.1000),
		daily:  hourCandles(30, 1.1032, 1.1000),
	}
	eng := newTestEngine(client, &stubHistory{}, nil)

	intel, err := eng.GenerateIntelligence(context.Background(), "EURUSD", londonNow, nil, true)
	require.NoError(t, err)

	assert.Equal(t, models.VolatilityNormal, intel.VolatilityExpectation)
	require.NotNil(t, intel.Debug)
	assert.True(t, intel.Debug.Fallback)
}

func TestFallbackDeviationUsesSessionBaseline(t *testing.T) {
	eng := newTestEngine(&stubCandleClient{}, nil, nil)

	intel := eng.GenerateFromFacts(FactBundle{
		Pair:     "EURUSD",
		Now:      londonNow,
		Session:  models.SessionInfo{Session: models.SessionLondon},
		Fallback: true,
	})

	tables := config.DefaultTables()
	want := tables.Fallback.BaselinePips * 1.30
	assert.InDelta(t, want, intel.ExpectedDeviationPips, 0.01)
}

func TestInvalidPairIsSurfaced(t *testing.T) {
	rec := &stubRecorder{}
	eng := newTestEngine(&stubCandleClient{}, nil, rec)

	_, err := eng.GenerateIntelligence(context.Background(), "not-a-pair!", londonNow, nil, false)

	var invalidErr *models.InvalidPairError
	require.True(t, errors.As(err, &invalidErr), "error = %v, want InvalidPairError", err)
	assert.Equal(t, []string{"invalid"}, rec.outcomes)
}

func TestHistoryFailureFallsBackToZeroContext(t *testing.T) {
	client := &stubCandleClient{
		window: hourCandles(24, 1.1018, 1.1000),
		daily:  hourCandles(30, 1.1032, 1.1000),
	}
	eng := newTestEngine(client, &stubHistory{err: errors.New("stats store offline")}, nil)

	intel, err := eng.GenerateIntelligence(context.Background(), "EURUSD", londonNow, nil, false)
	require.NoError(t, err)
	assert.Zero(t, intel.HistoricalContext.SimilarConditionsOccurrences)
	assert.Zero(t, intel.HistoricalContext.ExpansionRate)
}

func TestSessionOverlapSurfacesInOutput(t *testing.T) {
	client := &stubCandleClient{
		window: hourCandles(24, 1.1018, 1.1000),
		daily:  hourCandles(30, 1.1032, 1.1000),
	}
	eng := newTestEngine(client, nil, nil)

	nyOpen := time.Date(2026, 8, 20, 13, 30, 0, 0, time.UTC)
	intel, err := eng.GenerateIntelligence(context.Background(), "EURUSD", nyOpen, nil, false)
	require.NoError(t, err)

	assert.Equal(t, models.SessionNewYork, intel.Session)
	assert.Equal(t, "London-NewYork", intel.SessionOverlap)
}

func TestConfidenceNeverReachesOne(t *testing.T) {
	eng := newTestEngine(&stubCandleClient{}, nil, nil)

	bundle := FactBundle{
		Pair:        "EURUSD",
		Now:         londonNow,
		Session:     models.SessionInfo{Session: models.SessionNewYork},
		Stats:       models.RangeStats{CurrentRangePips: 500, BaselineRangePips: 10, CompressionRatio: 50},
		EventLabels: []string{"US Non-Farm Payrolls", "Fed Rate Decision"},
		History:     models.HistoricalContext{SimilarConditionsOccurrences: 1000000, ExpansionRate: 0.99},
	}
	intel := eng.GenerateFromFacts(bundle)

	assert.Less(t, intel.Confidence, 1.0)
	assert.GreaterOrEqual(t, intel.Confidence, 0.0)
	assert.GreaterOrEqual(t, intel.ExpectedDeviationPips, 0.0)
}
