// Package monitoring - metrics.go provides the process-wide stats counters.
//
// DESIGN: Lightweight atomic counters updated on the request path:
//   - requests:            every inbound request seen by the proxy
//   - compressed_requests: requests where at least one fragment shrank
//   - tokens_saved:        cumulative tokens saved across all requests
//   - original_tokens:     cumulative original-token counts observed
//
// Counters are increment-only; Snapshot reads them without resetting.
package monitoring

import (
	"math"
	"sync/atomic"
	"time"
)

// Stats collects process-wide compression counters.
type Stats struct {
	startedAt time.Time

	requests           atomic.Int64
	compressedRequests atomic.Int64
	tokensSaved        atomic.Int64
	originalTokens     atomic.Int64
}

// NewStats creates a stats aggregator anchored at the current time.
func NewStats() *Stats {
	return &Stats{startedAt: time.Now()}
}

// RecordRequest counts one inbound request.
func (s *Stats) RecordRequest() {
	s.requests.Add(1)
}

// RecordCompression records the outcome of one request's pipeline run.
// compressedRequests increments once per request where saved > 0, never
// per fragment.
func (s *Stats) RecordCompression(saved, original int) {
	if saved > 0 {
		s.compressedRequests.Add(1)
	}
	s.tokensSaved.Add(int64(saved))
	s.originalTokens.Add(int64(original))
}

// StartedAt returns when the aggregator was created.
func (s *Stats) StartedAt() time.Time { return s.startedAt }

// Snapshot is an immutable read of the counters.
type Snapshot struct {
	Requests           int64         `json:"requests"`
	CompressedRequests int64         `json:"compressed_requests"`
	TokensSaved        int64         `json:"tokens_saved"`
	OriginalTokens     int64         `json:"original_tokens"`
	Uptime             time.Duration `json:"-"`
	UptimeSeconds      int64         `json:"uptime_seconds"`
	ReductionPercent   int           `json:"reduction_percent"`
}

// Snapshot reads all counters at once.
func (s *Stats) Snapshot() Snapshot {
	saved := s.tokensSaved.Load()
	original := s.originalTokens.Load()

	var reduction int
	if original > 0 {
		reduction = int(math.Round(float64(saved) / float64(original) * 100))
	}

	uptime := time.Since(s.startedAt)
	return Snapshot{
		Requests:           s.requests.Load(),
		CompressedRequests: s.compressedRequests.Load(),
		TokensSaved:        saved,
		OriginalTokens:     original,
		Uptime:             uptime,
		UptimeSeconds:      int64(uptime.Seconds()),
		ReductionPercent:   reduction,
	}
}
