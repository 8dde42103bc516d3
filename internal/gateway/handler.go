package gateway

import (
	"encoding/json"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/ttc-labs/claude-compressor/internal/config"
	"github.com/ttc-labs/claude-compressor/internal/monitoring"
)

// handleProxy is the entry point for every proxied request. Eligible
// bodies are rewritten by the compression pipeline before forwarding;
// everything else passes through byte for byte.
func (g *Gateway) handleProxy(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	requestID := requestIDFor(r)

	g.stats.RecordRequest()
	g.prom.RecordRequest()

	r.Body = http.MaxBytesReader(w, r.Body, config.MaxRequestBodySize)
	body, err := io.ReadAll(r.Body)
	if err != nil {
		log.Warn().
			Str("request_id", requestID).
			Err(err).
			Msg("proxy: failed to read request body")
		writeError(w, http.StatusBadRequest, "Bad Request", "failed to read request body")
		return
	}

	event := &monitoring.RequestEvent{
		RequestID:       requestID,
		Timestamp:       start.UTC(),
		Method:          r.Method,
		Path:            r.URL.Path,
		ClientIP:        clientIP(r.RemoteAddr),
		RequestBodySize: len(body),
	}

	forwardBody := body
	if isCompressible(r.Method, r.URL.Path) && len(body) > 0 {
		event.Compressible = true

		compressStart := time.Now()
		result := g.pipeline.Process(r.Context(), body)
		event.CompressLatencyMs = time.Since(compressStart).Milliseconds()

		forwardBody = result.Body
		g.stats.RecordCompression(result.TotalSaved, result.TotalOriginal)
		g.prom.RecordCompression(result.TotalSaved, result.TotalOriginal)

		event.Fragments = result.Applied
		event.TokensSaved = result.TotalSaved
		event.OriginalTokens = result.TotalOriginal

		if result.TotalSaved > 0 {
			log.Info().
				Str("request_id", requestID).
				Int("fragments", result.Applied).
				Int("tokens_saved", result.TotalSaved).
				Int("original_tokens", result.TotalOriginal).
				Msg("proxy: request compressed")

			if g.savings != nil {
				if err := g.savings.Record(requestID, result.Applied, result.TotalSaved, result.TotalOriginal); err != nil {
					log.Warn().Err(err).Msg("proxy: failed to persist savings")
				}
			}
		}
	}
	event.ForwardBodySize = len(forwardBody)

	status, forwardLatency, forwardErr := g.forward(w, r, forwardBody)

	event.StatusCode = status
	event.ForwardLatencyMs = forwardLatency.Milliseconds()
	event.TotalLatencyMs = time.Since(start).Milliseconds()
	event.Success = forwardErr == nil
	if forwardErr != nil {
		event.Error = forwardErr.Error()
	}
	g.tracker.RecordRequest(event)

	log.Debug().
		Str("request_id", requestID).
		Str("method", r.Method).
		Str("path", r.URL.Path).
		Int("status", status).
		Int64("total_ms", event.TotalLatencyMs).
		Msg("proxy: request complete")
}

// requestIDFor reuses the caller's X-Request-ID when present so the
// proxy's telemetry can be correlated with client-side logs.
func requestIDFor(r *http.Request) string {
	if id := r.Header.Get("X-Request-ID"); id != "" {
		return id
	}
	return uuid.New().String()
}

// clientIP strips the port from a RemoteAddr.
func clientIP(remoteAddr string) string {
	host, _, err := net.SplitHostPort(remoteAddr)
	if err != nil {
		return remoteAddr
	}
	return host
}

// writeError sends a JSON error response.
func writeError(w http.ResponseWriter, status int, errText, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"error":   errText,
		"message": message,
	})
}
