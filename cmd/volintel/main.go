package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"volintel/internal/api/twelvedata"
	"volintel/internal/config"
	"volintel/internal/engine"
	"volintel/internal/history"
	"volintel/internal/httpapi"
	"volintel/internal/metrics"
	"volintel/internal/platform/cache"
	"volintel/models"
)

const version = "v0.3.0"

func main() {
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})

	rootCmd := &cobra.Command{
		Use:     "volintel",
		Short:   "Volatility intelligence engine for FX and crypto pairs",
		Version: version,
		Long: `volintel answers one question per request: how volatile should
this pair be in the next window, and why. It serves structured
verdicts over HTTP or prints one-off verdicts as JSON.`,
	}

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the intelligence API over HTTP",
		RunE:  runServe,
	}

	analyzeCmd := &cobra.Command{
		Use:   "analyze",
		Short: "Produce one verdict and print it as JSON",
		RunE:  runAnalyze,
	}
	analyzeCmd.Flags().String("pair", "EURUSD", "Currency pair, e.g. EURUSD or EUR/USD")
	analyzeCmd.Flags().StringSlice("events", nil, "Scheduled event labels inside the window")
	analyzeCmd.Flags().Bool("debug", false, "Attach raw intermediate numbers to the verdict")
	analyzeCmd.Flags().String("now", "", "Verdict timestamp in RFC3339 (default: current time)")

	rootCmd.AddCommand(serveCmd, analyzeCmd)

	if err := rootCmd.Execute(); err != nil {
		log.Fatal().Err(err).Msg("command failed")
	}
}

// buildEngine assembles the candle client stack and the engine:
// vendor client, optional Redis cache, history scanner. The recorder
// must be non-nil; pass metrics.New(nil) when nothing gathers it.
func buildEngine(cfg *config.Config, recorder *metrics.Recorder) *engine.Engine {
	var client models.CandleClient = twelvedata.NewClient(twelvedata.ClientOptions{
		APIKey:         cfg.TwelveAPIKey,
		BaseURL:        cfg.TwelveBaseURL,
		RequestTimeout: time.Duration(cfg.RequestTimeout) * time.Second,
		RequestsPerSec: cfg.RequestsPerSec,
		MaxRetries:     cfg.MaxRetries,
	})

	if cfg.CacheEnabled {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		client = cache.NewCachingCandleClient(rdb, time.Duration(cfg.CacheTTL)*time.Second, client, "candles", recorder)
		log.Info().Str("addr", cfg.RedisAddr).Msg("candle cache enabled")
	}

	scanner := history.New(client, cfg.Tables.History, cfg.Tables.Thresholds, log.Logger)
	return engine.New(cfg.Tables, client, scanner, nil, recorder, log.Logger)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	applyLogLevel(cfg.LogLevel)

	registry := prometheus.NewRegistry()
	recorder := metrics.New(registry)
	eng := buildEngine(cfg, recorder)

	server := httpapi.NewServer(httpapi.DefaultServerConfig(cfg.HTTPAddr), eng, recorder, registry, log.Logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	applyLogLevel(cfg.LogLevel)

	pair, _ := cmd.Flags().GetString("pair")
	eventLabels, _ := cmd.Flags().GetStringSlice("events")
	debug, _ := cmd.Flags().GetBool("debug")
	rawNow, _ := cmd.Flags().GetString("now")

	now := time.Now().UTC()
	if rawNow != "" {
		parsed, err := time.Parse(time.RFC3339, rawNow)
		if err != nil {
			return fmt.Errorf("parsing --now: %w", err)
		}
		now = parsed.UTC()
	}

	eng := buildEngine(cfg, metrics.New(nil))

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.RequestTimeout+15)*time.Second)
	defer cancel()

	intel, err := eng.GenerateIntelligence(ctx, pair, now, eventLabels, debug)
	if err != nil {
		return err
	}

	out, err := json.MarshalIndent(intel, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}

func applyLogLevel(level string) {
	parsed, err := zerolog.ParseLevel(level)
	if err != nil || parsed == zerolog.NoLevel {
		parsed = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(parsed)
}
