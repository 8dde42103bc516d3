package gateway

import (
	"encoding/json"
	"net"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/ttc-labs/claude-compressor/internal/monitoring"
)

// statsResponse is the GET /stats payload.
type statsResponse struct {
	monitoring.Snapshot
	Lifetime *monitoring.LifetimeSavings `json:"lifetime,omitempty"`
}

// handleStats reports session counters. Restricted to loopback clients;
// the proxy may sit in front of a key-carrying upstream and its own
// endpoints should not be reachable from elsewhere on the network.
func (g *Gateway) handleStats(w http.ResponseWriter, r *http.Request) {
	if !isLoopback(r.RemoteAddr) {
		writeError(w, http.StatusForbidden, "Forbidden", "stats endpoint is local-only")
		return
	}

	resp := statsResponse{Snapshot: g.stats.Snapshot()}
	if lt, ok := g.LifetimeSavings(); ok {
		resp.Lifetime = &lt
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		log.Debug().Err(err).Msg("stats: failed to write response")
	}
}

// handleHealth is a plain liveness probe, open to any client.
func (g *Gateway) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

// isLoopback reports whether remoteAddr is a loopback address.
func isLoopback(remoteAddr string) bool {
	host, _, err := net.SplitHostPort(remoteAddr)
	if err != nil {
		host = remoteAddr
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}
