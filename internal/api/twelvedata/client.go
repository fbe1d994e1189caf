package twelvedata

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"volintel/internal/engine"
	platformhttp "volintel/internal/platform/http"
	"volintel/models"
)

// Client is the Twelve Data API client. Candles come back oldest
// first, and every failure is wrapped in DataUnavailableError so
// callers can degrade instead of erroring out.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *platformhttp.Client
	logger     zerolog.Logger
}

// ClientOptions holds options for creating a new Twelve Data client
type ClientOptions struct {
	APIKey         string
	BaseURL        string
	RequestTimeout time.Duration
	RequestsPerSec float64
	MaxRetries     int
}

// NewClient creates a new Twelve Data API client
func NewClient(options ClientOptions) *Client {
	if options.BaseURL == "" {
		options.BaseURL = "https://api.twelvedata.com"
	}

	return &Client{
		apiKey:  options.APIKey,
		baseURL: options.BaseURL,
		httpClient: platformhttp.NewClient(platformhttp.ClientOptions{
			Timeout:        options.RequestTimeout,
			RequestsPerSec: options.RequestsPerSec,
			MaxRetries:     options.MaxRetries,
		}),
		logger: log.With().Str("component", "twelvedata_client").Logger(),
	}
}

// GetCandles fetches the most recent hourly candles for the pair.
func (c *Client) GetCandles(ctx context.Context, pair string, hours int) ([]models.Candle, error) {
	if hours < 1 {
		hours = 1
	}

	candles, err := c.fetchSeries(ctx, pair, "1h", hours)
	if err != nil {
		return nil, &models.DataUnavailableError{Pair: pair, Window: "1h", Err: err}
	}
	return candles, nil
}

// GetDailyCandles fetches the most recent daily candles for the pair.
func (c *Client) GetDailyCandles(ctx context.Context, pair string, days int) ([]models.Candle, error) {
	count := models.CandlesForWindow("1day", days)

	candles, err := c.fetchSeries(ctx, pair, "1day", count)
	if err != nil {
		return nil, &models.DataUnavailableError{Pair: pair, Window: "1day", Err: err}
	}
	return candles, nil
}

func (c *Client) fetchSeries(ctx context.Context, pair, interval string, count int) ([]models.Candle, error) {
	query := url.Values{}
	query.Set("symbol", engine.DisplayPair(pair))
	query.Set("interval", interval)
	query.Set("outputsize", strconv.Itoa(count))
	query.Set("apikey", c.apiKey)
	endpoint := fmt.Sprintf("%s/time_series?%s", c.baseURL, query.Encode())

	c.logger.Debug().
		Str("pair", pair).
		Str("interval", interval).
		Int("outputsize", count).
		Msg("Fetching candles")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	resp, err := c.httpClient.Do(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}

	var data models.TwelveResponse
	if err := json.Unmarshal(body, &data); err != nil {
		c.logger.Error().Err(err).Str("interval", interval).Msg("Error parsing JSON")
		return nil, fmt.Errorf("parsing JSON: %w", err)
	}

	if data.Status == "error" {
		c.logger.Error().Str("message", data.Message).Msg("Twelve Data API error")
		return nil, fmt.Errorf("vendor error: %s", data.Message)
	}

	if len(data.Values) == 0 {
		c.logger.Warn().Str("pair", pair).Str("interval", interval).Msg("No candles in response")
		return nil, fmt.Errorf("empty data returned")
	}

	// Sort candles by datetime (oldest first for proper calculations)
	sort.Slice(data.Values, func(i, j int) bool {
		return data.Values[i].Datetime < data.Values[j].Datetime
	})

	candles := make([]models.Candle, 0, len(data.Values))
	for _, v := range data.Values {
		candles = append(candles, models.Candle{
			Datetime: v.Datetime,
			Open:     v.Open,
			High:     v.High,
			Low:      v.Low,
			Close:    v.Close,
			Volume:   v.Volume,
		})
	}

	c.logger.Debug().Int("count", len(candles)).Msg("Fetched candles")
	return candles, nil
}
