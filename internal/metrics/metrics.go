// Package metrics exposes the engine's Prometheus instrumentation.
package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements engine.Recorder, the cache recorder and the
// HTTP middleware hooks on top of Prometheus.
type Recorder struct {
	engineResults   *prometheus.CounterVec
	cacheResults    *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
}

// New creates a Recorder registered against reg. A nil reg leaves the
// metrics unregistered, which keeps tests independent.
func New(reg prometheus.Registerer) *Recorder {
	factory := promauto.With(reg)
	return &Recorder{
		engineResults: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "volintel_engine_results_total",
				Help: "Engine invocations by outcome",
			},
			[]string{"outcome"},
		),
		cacheResults: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "volintel_candle_cache_results_total",
				Help: "Candle cache lookups by result",
			},
			[]string{"result"},
		),
		requestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "volintel_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"route", "status"},
		),
	}
}

// EngineResult records one engine invocation outcome.
func (r *Recorder) EngineResult(outcome string) {
	r.engineResults.WithLabelValues(outcome).Inc()
}

// CacheResult records one candle cache lookup.
func (r *Recorder) CacheResult(result string) {
	r.cacheResults.WithLabelValues(result).Inc()
}

// HTTPRequest records one served request.
func (r *Recorder) HTTPRequest(route string, status int, seconds float64) {
	r.requestDuration.WithLabelValues(route, strconv.Itoa(status)).Observe(seconds)
}
