package gateway

import (
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/rs/zerolog/log"

	"github.com/ttc-labs/claude-compressor/internal/config"
)

// handleDashboardWS streams stats snapshots over a websocket so a local
// dashboard can render live savings without polling /stats. Loopback-only,
// same as the stats endpoint.
func (g *Gateway) handleDashboardWS(w http.ResponseWriter, r *http.Request) {
	if !isLoopback(r.RemoteAddr) {
		writeError(w, http.StatusForbidden, "Forbidden", "dashboard endpoint is local-only")
		return
	}

	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		log.Debug().Err(err).Msg("dashboard: websocket accept failed")
		return
	}
	defer conn.CloseNow()

	ctx := r.Context()
	ticker := time.NewTicker(config.DefaultDashboardInterval)
	defer ticker.Stop()

	// First snapshot immediately, then one per tick until the client
	// disconnects or the server shuts down.
	for {
		if err := wsjson.Write(ctx, conn, g.stats.Snapshot()); err != nil {
			log.Debug().Err(err).Msg("dashboard: client disconnected")
			return
		}
		select {
		case <-ctx.Done():
			conn.Close(websocket.StatusGoingAway, "server shutting down")
			return
		case <-ticker.C:
		}
	}
}
