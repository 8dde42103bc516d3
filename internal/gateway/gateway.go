// Package gateway wires the intercepting reverse proxy together.
//
// DESIGN: Main request flow:
//   - handleProxy(): Entry point for every inbound request (handler.go)
//   - pipeline:      Compresses eligible /messages bodies (internal/payload)
//   - forward():     Sends the (possibly rewritten) request upstream (forward.go)
//
// Local observability endpoints (/stats, /healthz, /metrics, /dashboard/ws)
// are served directly and never reach the upstream.
package gateway

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/ttc-labs/claude-compressor/internal/config"
	"github.com/ttc-labs/claude-compressor/internal/monitoring"
	"github.com/ttc-labs/claude-compressor/internal/payload"
	"github.com/ttc-labs/claude-compressor/internal/ttc"
)

// Gateway is the intercepting reverse proxy.
type Gateway struct {
	config   *config.Config
	pipeline *payload.Pipeline

	stats   *monitoring.Stats
	prom    *monitoring.PromExporter
	tracker *monitoring.Tracker
	savings *monitoring.SavingsStore // nil when persistence is disabled

	upstream   *url.URL
	httpClient *http.Client
	server     *http.Server
}

// Option configures the Gateway.
type Option func(*Gateway)

// WithCompressor overrides the compression client (used by tests).
func WithCompressor(c payload.Compressor) Option {
	return func(g *Gateway) {
		g.pipeline = payload.NewPipeline(c, g.config.Compression.MinTextLength)
	}
}

// WithSavings attaches a persistent savings store.
func WithSavings(s *monitoring.SavingsStore) Option {
	return func(g *Gateway) {
		g.savings = s
	}
}

// New creates a Gateway from the given configuration.
func New(cfg *config.Config, opts ...Option) (*Gateway, error) {
	upstream, err := url.Parse(cfg.Upstream.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing upstream base URL: %w", err)
	}
	if upstream.Host == "" {
		return nil, fmt.Errorf("upstream base URL %q has no host", cfg.Upstream.BaseURL)
	}

	tracker, err := monitoring.NewTracker(cfg.Monitoring.TelemetryPath)
	if err != nil {
		return nil, fmt.Errorf("creating telemetry tracker: %w", err)
	}

	compressor := ttc.NewClient(
		cfg.Compression.Endpoint,
		cfg.Compression.APIKey,
		cfg.Compression.Aggressiveness,
		cfg.Compression.MinTextLength,
	)

	g := &Gateway{
		config:   cfg,
		pipeline: payload.NewPipeline(compressor, cfg.Compression.MinTextLength),
		stats:    monitoring.NewStats(),
		prom:     monitoring.NewPromExporter(),
		tracker:  tracker,
		upstream: upstream,
		httpClient: &http.Client{
			Timeout: cfg.Upstream.Timeout,
		},
	}

	for _, opt := range opts {
		opt(g)
	}

	return g, nil
}

// Routes builds the route tree. Local endpoints are registered explicitly;
// everything else falls through to the proxy handler. MethodNotAllowed is
// also routed to the proxy so that, say, a POST to /stats still reaches
// the upstream transparently.
func (g *Gateway) Routes() http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", g.handleHealth)
	r.Get("/stats", g.handleStats)
	r.Get("/dashboard/ws", g.handleDashboardWS)
	r.Handle("/metrics", g.prom.Handler())
	r.HandleFunc("/*", g.handleProxy)
	r.MethodNotAllowed(g.handleProxy)

	return r
}

// Start runs the HTTP server. Blocks until the server stops.
func (g *Gateway) Start() error {
	addr := fmt.Sprintf(":%d", g.config.Server.Port)
	g.server = &http.Server{
		Addr:         addr,
		Handler:      g.Routes(),
		ReadTimeout:  g.config.Server.ReadTimeout,
		WriteTimeout: g.config.Server.WriteTimeout,
	}

	log.Info().
		Int("port", g.config.Server.Port).
		Str("upstream", g.config.Upstream.BaseURL).
		Msg("gateway: listening")

	err := g.server.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests and releases resources.
func (g *Gateway) Shutdown(ctx context.Context) error {
	var firstErr error
	if g.server != nil {
		if err := g.server.Shutdown(ctx); err != nil {
			firstErr = err
		}
	}
	if err := g.tracker.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	if g.savings != nil {
		if err := g.savings.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// StatsSnapshot reads the current process counters.
func (g *Gateway) StatsSnapshot() monitoring.Snapshot {
	return g.stats.Snapshot()
}

// LifetimeSavings reads the persistent rollup, if a store is attached.
func (g *Gateway) LifetimeSavings() (monitoring.LifetimeSavings, bool) {
	if g.savings == nil {
		return monitoring.LifetimeSavings{}, false
	}
	lt, err := g.savings.Lifetime()
	if err != nil {
		log.Warn().Err(err).Msg("gateway: failed to read lifetime savings")
		return monitoring.LifetimeSavings{}, false
	}
	return lt, true
}

// isCompressible classifies a request: only POSTs whose path contains
// /messages go through the compression pipeline. The check is substring
// based, not an exact match; query strings are irrelevant.
func isCompressible(method, path string) bool {
	return method == http.MethodPost && strings.Contains(path, "/messages")
}
