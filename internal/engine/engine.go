package engine

import (
	"context"
	"math"
	"time"

	"github.com/rs/zerolog"

	"volintel/internal/analysis/events"
	"volintel/internal/analysis/narrative"
	"volintel/internal/analysis/ranges"
	"volintel/internal/analysis/volatility"
	"volintel/internal/config"
	"volintel/internal/session"
	"volintel/models"
)

// Orchestration states. Every invocation ends in DONE; data trouble
// detours through DATA_UNAVAILABLE and FALLBACK instead of failing.
const (
	stateFetching        = "FETCHING"
	stateComputing       = "COMPUTING"
	stateDataUnavailable = "DATA_UNAVAILABLE"
	stateFallback        = "FALLBACK"
	stateDone            = "DONE"
)

// Recorder counts engine outcomes. Implemented by the metrics
// package; a nil recorder is replaced with a no-op.
type Recorder interface {
	EngineResult(outcome string)
}

type nopRecorder struct{}

func (nopRecorder) EngineResult(string) {}

// FactBundle is the full precomputed input set for one verdict. The
// pipeline assembles one from live data; tests can hand one in
// directly and get bit-identical output for equivalent inputs.
type FactBundle struct {
	Pair        string
	Now         time.Time
	Session     models.SessionInfo
	Stats       models.RangeStats
	EventLabels []string
	History     models.HistoricalContext
	Fallback    bool
	Debug       bool
}

// Engine sequences the volatility pipeline: session, ranges, events,
// classification, confidence, narration. It is stateless per
// invocation and safe for concurrent use; all I/O happens in the
// injected collaborators.
type Engine struct {
	tables     config.Tables
	client     models.CandleClient
	history    models.HistoryProvider
	pip        models.PipResolver
	sessions   *session.Classifier
	events     *events.Resolver
	ranges     *ranges.Calculator
	classifier *volatility.Classifier
	scorer     *volatility.Scorer
	narrator   *narrative.Narrator
	recorder   Recorder
	logger     zerolog.Logger
}

// New wires the pipeline components from the behavior tables. The pip
// resolver defaults to the configured pip table; the recorder may be
// nil.
func New(tables config.Tables, client models.CandleClient, history models.HistoryProvider, pip models.PipResolver, recorder Recorder, logger zerolog.Logger) *Engine {
	if pip == nil {
		pip = tables.Pips.Resolver()
	}
	if recorder == nil {
		recorder = nopRecorder{}
	}
	return &Engine{
		tables:     tables,
		client:     client,
		history:    history,
		pip:        pip,
		sessions:   session.New(tables.Sessions, tables.Overlaps),
		events:     events.New(tables.Events),
		ranges:     ranges.New(tables.Windows),
		classifier: volatility.NewClassifier(tables.Thresholds),
		scorer:     volatility.NewScorer(tables.Confidence),
		narrator:   narrative.New(tables),
		recorder:   recorder,
		logger:     logger.With().Str("component", "engine").Logger(),
	}
}

// GenerateIntelligence produces the verdict for a pair at a point in
// time. An unusable pair is surfaced as InvalidPairError; any data
// failure degrades to the fallback verdict instead of an error.
func (e *Engine) GenerateIntelligence(ctx context.Context, pair string, now time.Time, eventLabels []string, debug bool) (models.VolatilityIntelligence, error) {
	normalized, err := NormalizePair(pair)
	if err != nil {
		e.recorder.EngineResult("invalid")
		return models.VolatilityIntelligence{}, err
	}

	log := e.logger.With().Str("pair", normalized).Logger()

	bundle := FactBundle{
		Pair:        normalized,
		Now:         now,
		Session:     e.sessions.Classify(now),
		EventLabels: eventLabels,
		Debug:       debug,
	}

	log.Debug().Str("state", stateFetching).Msg("fetching candle data")
	window, daily, fetchErr := e.fetchSeries(ctx, normalized)

	if fetchErr != nil {
		log.Warn().Err(fetchErr).Str("state", stateDataUnavailable).Msg("candle data unavailable, degrading")
		bundle.Fallback = true
	} else {
		log.Debug().Str("state", stateComputing).Msg("computing range metrics")
		stats, rangeErr := e.ranges.Compute(window, daily, e.pip(normalized))
		if rangeErr != nil {
			// Too few candles degrades exactly like a failed fetch.
			log.Warn().Err(rangeErr).Str("state", stateDataUnavailable).Msg("window too thin, degrading")
			bundle.Fallback = true
		} else {
			bundle.Stats = stats
		}
	}
	if bundle.Fallback {
		log.Debug().Str("state", stateFallback).Msg("running fallback verdict")
	}

	bundle.History = e.fetchHistory(ctx, &bundle)

	intel := e.GenerateFromFacts(bundle)

	if bundle.Fallback {
		e.recorder.EngineResult("fallback")
	} else {
		e.recorder.EngineResult("ok")
	}
	log.Debug().Str("state", stateDone).
		Str("expectation", string(intel.VolatilityExpectation)).
		Float64("confidence", intel.Confidence).
		Msg("verdict assembled")
	return intel, nil
}

// GenerateFromFacts renders the verdict from a precomputed bundle.
// Pure and deterministic: identical bundles yield byte-identical
// results, which is what makes golden-output testing possible.
func (e *Engine) GenerateFromFacts(bundle FactBundle) models.VolatilityIntelligence {
	impact := e.events.Resolve(bundle.EventLabels)
	sessionMult := e.sessions.Multiplier(bundle.Session.Session)

	var verdict volatility.Verdict
	if bundle.Fallback {
		// Without real range data the engine refuses to assert Low or
		// High; the deviation comes from the session baseline alone.
		adjusted := sessionMult * impact.Multiplier
		deviation := e.tables.Fallback.BaselinePips * adjusted
		if deviation < 0 {
			deviation = 0
		}
		verdict = volatility.Verdict{
			Class:         models.VolatilityNormal,
			AdjustedRatio: adjusted,
			DeviationPips: deviation,
		}
	} else {
		verdict = e.classifier.Classify(bundle.Stats, sessionMult, impact.Multiplier)
	}

	confidence := e.scorer.Score(verdict, bundle.History)
	if bundle.Fallback {
		confidence *= e.tables.Fallback.ConfidencePenalty
	}

	facts := narrative.Facts{
		Stats:         bundle.Stats,
		Fallback:      bundle.Fallback,
		SessionReason: e.sessions.Reason(bundle.Session.Session),
		Impact:        impact,
		History:       bundle.History,
		Class:         verdict.Class,
	}

	intel := models.VolatilityIntelligence{
		Pair:                  bundle.Pair,
		Session:               bundle.Session.Session,
		SessionOverlap:        bundle.Session.Overlap,
		TimeWindowMinutes:     e.tables.Windows.TimeWindowMinutes,
		VolatilityExpectation: verdict.Class,
		ExpectedDeviationPips: round2(verdict.DeviationPips),
		Confidence:            round2(confidence),
		Drivers:               e.narrator.Drivers(facts),
		HistoricalContext:     bundle.History,
		AgentGuidance:         e.narrator.Guidance(verdict.Class, impact),
		GeneratedAt:           bundle.Now.UTC(),
	}

	if bundle.Debug {
		intel.Debug = &models.DebugStats{
			CurrentRangePips:  bundle.Stats.CurrentRangePips,
			BaselineRangePips: bundle.Stats.BaselineRangePips,
			CompressionRatio:  bundle.Stats.CompressionRatio,
			AdjustedRatio:     verdict.AdjustedRatio,
			SessionMultiplier: sessionMult,
			EventMultiplier:   impact.Multiplier,
			Fallback:          bundle.Fallback,
		}
	}

	return intel
}

// fetchSeries pulls the current window and the baseline history. Both
// calls block; the first failure wins and triggers the fallback path.
func (e *Engine) fetchSeries(ctx context.Context, pair string) (window, daily []models.Candle, err error) {
	window, err = e.client.GetCandles(ctx, pair, e.tables.Windows.CurrentHours)
	if err != nil {
		return nil, nil, err
	}
	daily, err = e.client.GetDailyCandles(ctx, pair, e.tables.Windows.BaselineDays)
	if err != nil {
		return nil, nil, err
	}
	return window, daily, nil
}

// fetchHistory asks the history provider for context matching the
// would-be classification. History is best-effort: any failure leaves
// the zero-occurrence default in place.
func (e *Engine) fetchHistory(ctx context.Context, bundle *FactBundle) models.HistoricalContext {
	if e.history == nil {
		return models.HistoricalContext{}
	}

	class := models.VolatilityNormal
	if !bundle.Fallback {
		impact := e.events.Resolve(bundle.EventLabels)
		sessionMult := e.sessions.Multiplier(bundle.Session.Session)
		class = e.classifier.Classify(bundle.Stats, sessionMult, impact.Multiplier).Class
	}

	history, err := e.history.FetchContext(ctx, bundle.Pair, bundle.Session.Session, class)
	if err != nil {
		e.logger.Debug().Err(err).Str("pair", bundle.Pair).Msg("historical context unavailable, using zero default")
		return models.HistoricalContext{}
	}
	return history
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
