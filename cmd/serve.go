package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/ttc-labs/claude-compressor/internal/config"
	"github.com/ttc-labs/claude-compressor/internal/gateway"
	"github.com/ttc-labs/claude-compressor/internal/monitoring"
	"github.com/ttc-labs/claude-compressor/internal/utils"
)

const shutdownGrace = 10 * time.Second

func runServe() error {
	// A missing .env is fine; env vars may come from anywhere.
	_ = godotenv.Load()

	cfg, err := config.Load(flagConfig)
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}
	if flagPort != 0 {
		cfg.Server.Port = flagPort
	}

	setupLogging(cfg, flagDebug)
	printBanner(cfg)

	var opts []gateway.Option
	if cfg.Monitoring.SavingsDBPath != "" {
		store, err := monitoring.OpenSavings(cfg.Monitoring.SavingsDBPath)
		if err != nil {
			return fmt.Errorf("opening savings store: %w", err)
		}
		opts = append(opts, gateway.WithSavings(store))
	}

	gw, err := gateway.New(cfg, opts...)
	if err != nil {
		return fmt.Errorf("creating gateway: %w", err)
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- gw.Start()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case sig := <-sigCh:
		log.Info().Str("signal", sig.String()).Msg("shutting down")
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	if err := gw.Shutdown(ctx); err != nil {
		log.Warn().Err(err).Msg("shutdown did not complete cleanly")
	}

	printSummary(gw)
	return nil
}

func printBanner(cfg *config.Config) {
	log.Info().Str("version", version).Msg("claude-compressor starting")
	log.Info().Int("port", cfg.Server.Port).Msg("listen port")
	log.Info().Str("upstream", cfg.Upstream.BaseURL).Msg("upstream API")

	if cfg.CompressionEnabled() {
		log.Info().
			Str("endpoint", cfg.Compression.Endpoint).
			Str("model", cfg.Compression.Model).
			Float64("aggressiveness", cfg.Compression.Aggressiveness).
			Int("min_text_length", cfg.Compression.MinTextLength).
			Str("api_key", utils.MaskKey(cfg.Compression.APIKey)).
			Msg("compression enabled")
	} else {
		log.Warn().Msg("TTC_KEY not set, running in passthrough mode")
	}

	if cfg.Monitoring.TelemetryPath != "" {
		log.Info().Str("path", cfg.Monitoring.TelemetryPath).Msg("telemetry log enabled")
	}
	if cfg.Monitoring.SavingsDBPath != "" {
		log.Info().Str("path", cfg.Monitoring.SavingsDBPath).Msg("savings database enabled")
	}
}

func printSummary(gw *gateway.Gateway) {
	snap := gw.StatsSnapshot()
	log.Info().
		Int64("requests", snap.Requests).
		Int64("compressed_requests", snap.CompressedRequests).
		Int64("tokens_saved", snap.TokensSaved).
		Int("reduction_percent", snap.ReductionPercent).
		Dur("uptime", snap.Uptime).
		Msg("session summary")

	if lt, ok := gw.LifetimeSavings(); ok {
		log.Info().
			Int64("requests", lt.Requests).
			Int64("tokens_saved", lt.TokensSaved).
			Int64("original_tokens", lt.OriginalTokens).
			Msg("lifetime savings")
	}
}
