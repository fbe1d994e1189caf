package models

import "context"

// CandleClient fetches candle series for a pair. Implementations own
// timeout, retry and caching policy; callers treat a call as a single
// blocking operation with two outcomes, data or failure.
type CandleClient interface {
	GetCandles(ctx context.Context, pair string, hours int) ([]Candle, error)
	GetDailyCandles(ctx context.Context, pair string, days int) ([]Candle, error)
}

// HistoryProvider returns the historical context for the classified
// conditions. A zero-value context is a valid answer.
type HistoryProvider interface {
	FetchContext(ctx context.Context, pair string, session Session, class VolatilityClass) (HistoricalContext, error)
}

// PipResolver maps a normalized pair to its pip multiplier.
type PipResolver func(pair string) float64
