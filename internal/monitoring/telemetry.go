// Package monitoring - telemetry.go records per-request events to a JSONL file.
//
// DESIGN: Tracker appends one JSON object per line, immediately after each
// event, so the log is tail-able in real time. Disabled (no-op) when no
// path is configured.
package monitoring

import (
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/ttc-labs/claude-compressor/internal/utils"
)

// RequestEvent is the telemetry record for one proxied request.
type RequestEvent struct {
	RequestID         string    `json:"request_id"`
	Timestamp         time.Time `json:"timestamp"`
	Method            string    `json:"method"`
	Path              string    `json:"path"`
	ClientIP          string    `json:"client_ip,omitempty"`
	StatusCode        int       `json:"status_code"`
	Compressible      bool      `json:"compressible"`
	Fragments         int       `json:"fragments"`
	TokensSaved       int       `json:"tokens_saved"`
	OriginalTokens    int       `json:"original_tokens"`
	RequestBodySize   int       `json:"request_body_size"`
	ForwardBodySize   int       `json:"forward_body_size"`
	CompressLatencyMs int64     `json:"compress_latency_ms"`
	ForwardLatencyMs  int64     `json:"forward_latency_ms"`
	TotalLatencyMs    int64     `json:"total_latency_ms"`
	Success           bool      `json:"success"`
	Error             string    `json:"error,omitempty"`
}

// Tracker appends request events to a JSONL file.
type Tracker struct {
	mu     sync.Mutex
	path   string
	events int
}

// NewTracker creates a tracker writing to path. An empty path disables
// recording entirely.
func NewTracker(path string) (*Tracker, error) {
	t := &Tracker{path: path}
	if path == "" {
		return t, nil
	}

	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return nil, err
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		if f, err := os.Create(path); err == nil {
			_ = f.Close()
		}
	}
	return t, nil
}

// Enabled returns true when events are being recorded.
func (t *Tracker) Enabled() bool { return t.path != "" }

// RecordRequest appends one request event.
func (t *Tracker) RecordRequest(event *RequestEvent) {
	if t.path == "" || event == nil {
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if err := appendJSONL(t.path, event); err != nil {
		log.Error().Err(err).Str("path", t.path).Msg("telemetry: failed to write request event")
		return
	}
	t.events++
}

// Close logs a session summary. The file handle is per-append, so there
// is nothing to release.
func (t *Tracker) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.path != "" && t.events > 0 {
		log.Info().
			Str("path", t.path).
			Int("events", t.events).
			Msg("telemetry: session complete")
	}
	return nil
}

// appendJSONL appends a single JSON object as a line to the file.
func appendJSONL(path string, event any) error {
	data, err := utils.MarshalNoEscape(event)
	if err != nil {
		return err
	}
	data = append(data, '\n')

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	_, err = f.Write(data)
	return err
}
