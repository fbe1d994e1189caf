// Package cache decorates the candle client with Redis caching and
// request coalescing.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"

	"volintel/models"
)

// Recorder counts cache lookups by result. Implemented by the metrics
// package; a nil recorder is replaced with a no-op.
type Recorder interface {
	CacheResult(result string)
}

type nopRecorder struct{}

func (nopRecorder) CacheResult(string) {}

// CachingCandleClient decorates a CandleClient with Redis caching and
// singleflight coalescing. Cache failures degrade to the inner client;
// a broken Redis never breaks a request. Concurrent fetches for the
// same key share one upstream call even when Redis is absent.
type CachingCandleClient struct {
	inner     models.CandleClient
	rdb       *redis.Client
	ttl       time.Duration
	namespace string
	group     singleflight.Group
	recorder  Recorder
	logger    zerolog.Logger
}

// NewCachingCandleClient decorates a CandleClient. If ttl is 0 it
// defaults to 5 minutes; an empty namespace defaults to "candles".
// A nil rdb disables caching but keeps coalescing.
func NewCachingCandleClient(rdb *redis.Client, ttl time.Duration, inner models.CandleClient, namespace string, recorder Recorder) *CachingCandleClient {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	if namespace == "" {
		namespace = "candles"
	}
	if recorder == nil {
		recorder = nopRecorder{}
	}
	return &CachingCandleClient{
		inner:     inner,
		rdb:       rdb,
		ttl:       ttl,
		namespace: namespace,
		recorder:  recorder,
		logger:    log.With().Str("component", "candle_cache").Logger(),
	}
}

// GetCandles serves hourly candles through the cache.
func (c *CachingCandleClient) GetCandles(ctx context.Context, pair string, hours int) ([]models.Candle, error) {
	return c.fetch(ctx, c.cacheKey(pair, "1h", hours), func() ([]models.Candle, error) {
		return c.inner.GetCandles(ctx, pair, hours)
	})
}

// GetDailyCandles serves daily candles through the cache.
func (c *CachingCandleClient) GetDailyCandles(ctx context.Context, pair string, days int) ([]models.Candle, error) {
	return c.fetch(ctx, c.cacheKey(pair, "1day", days), func() ([]models.Candle, error) {
		return c.inner.GetDailyCandles(ctx, pair, days)
	})
}

func (c *CachingCandleClient) fetch(ctx context.Context, key string, load func() ([]models.Candle, error)) ([]models.Candle, error) {
	if candles, ok := c.lookup(ctx, key); ok {
		return candles, nil
	}

	value, err, shared := c.group.Do(key, func() (interface{}, error) {
		candles, err := load()
		if err != nil {
			return nil, err
		}
		c.store(ctx, key, candles)
		return candles, nil
	})
	if err != nil {
		return nil, err
	}
	if shared {
		c.logger.Debug().Str("key", key).Msg("coalesced concurrent fetch")
	}
	return value.([]models.Candle), nil
}

func (c *CachingCandleClient) lookup(ctx context.Context, key string) ([]models.Candle, bool) {
	if c.rdb == nil {
		return nil, false
	}

	b, err := c.rdb.Get(ctx, key).Bytes()
	switch {
	case errors.Is(err, redis.Nil):
		c.recorder.CacheResult("miss")
		return nil, false
	case err != nil:
		c.recorder.CacheResult("error")
		return nil, false
	case len(b) == 0:
		c.recorder.CacheResult("miss")
		return nil, false
	}

	var candles []models.Candle
	if err := json.Unmarshal(b, &candles); err != nil {
		// Delete corrupted cache entry
		c.recorder.CacheResult("error")
		_ = c.rdb.Del(ctx, key).Err()
		return nil, false
	}

	c.recorder.CacheResult("hit")
	return candles, true
}

// store writes to the cache best effort; a failed write is only logged.
func (c *CachingCandleClient) store(ctx context.Context, key string, candles []models.Candle) {
	if c.rdb == nil {
		return
	}

	b, err := json.Marshal(candles)
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, key, b, c.ttl).Err(); err != nil {
		c.logger.Warn().Err(err).Str("key", key).Msg("cache write failed")
	}
}

func (c *CachingCandleClient) cacheKey(pair, interval string, size int) string {
	return fmt.Sprintf("%s:%s:%s:%d", c.namespace, pair, interval, size)
}
