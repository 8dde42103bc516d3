// Package monitoring - prometheus.go exports the stats counters to Prometheus.
package monitoring

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// PromExporter mirrors the Stats counters on a dedicated Prometheus
// registry, served at /metrics. Updated alongside Stats on the request
// path; the two never drift because both are fed from the same call sites.
type PromExporter struct {
	registry *prometheus.Registry

	requests           prometheus.Counter
	compressedRequests prometheus.Counter
	tokensSaved        prometheus.Counter
	originalTokens     prometheus.Counter
}

// NewPromExporter creates and registers the counters.
func NewPromExporter() *PromExporter {
	reg := prometheus.NewRegistry()

	e := &PromExporter{
		registry: reg,
		requests: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "compressor",
			Name:      "requests_total",
			Help:      "Inbound requests seen by the proxy.",
		}),
		compressedRequests: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "compressor",
			Name:      "compressed_requests_total",
			Help:      "Requests where at least one fragment was compressed.",
		}),
		tokensSaved: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "compressor",
			Name:      "tokens_saved_total",
			Help:      "Cumulative tokens saved by compression.",
		}),
		originalTokens: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "compressor",
			Name:      "original_tokens_total",
			Help:      "Cumulative original tokens observed by the compressor.",
		}),
	}

	reg.MustRegister(e.requests, e.compressedRequests, e.tokensSaved, e.originalTokens)
	return e
}

// RecordRequest counts one inbound request.
func (e *PromExporter) RecordRequest() {
	e.requests.Inc()
}

// RecordCompression records one request's pipeline outcome.
func (e *PromExporter) RecordCompression(saved, original int) {
	if saved > 0 {
		e.compressedRequests.Inc()
	}
	e.tokensSaved.Add(float64(saved))
	e.originalTokens.Add(float64(original))
}

// Handler serves the registry in the Prometheus text format.
func (e *PromExporter) Handler() http.Handler {
	return promhttp.HandlerFor(e.registry, promhttp.HandlerOpts{})
}
