package gateway

import (
	"bytes"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/ttc-labs/claude-compressor/internal/config"
)

// hopByHopHeaders are stripped in both directions. Content-Length is
// recomputed by net/http from the rewritten body.
var hopByHopHeaders = []string{
	"Connection",
	"Keep-Alive",
	"Transfer-Encoding",
	"Content-Length",
}

// forward sends body to the upstream at the inbound request's path and
// query, then relays the response. Returns the status code written to the
// client and the upstream round-trip time. Transport failures are mapped
// to 502 and returned for telemetry.
func (g *Gateway) forward(w http.ResponseWriter, r *http.Request, body []byte) (int, time.Duration, error) {
	target := g.upstream.ResolveReference(r.URL).String()

	req, err := http.NewRequestWithContext(r.Context(), r.Method, target, bytes.NewReader(body))
	if err != nil {
		log.Error().Err(err).Str("target", target).Msg("forward: failed to build upstream request")
		writeError(w, http.StatusBadGateway, "Bad Gateway", err.Error())
		return http.StatusBadGateway, 0, err
	}

	copyHeaders(req.Header, r.Header)
	req.Host = g.upstream.Host

	start := time.Now()
	resp, err := g.httpClient.Do(req)
	latency := time.Since(start)
	if err != nil {
		log.Error().
			Err(err).
			Str("target", target).
			Dur("latency", latency).
			Msg("forward: upstream request failed")
		writeError(w, http.StatusBadGateway, "Bad Gateway", err.Error())
		return http.StatusBadGateway, latency, err
	}
	defer resp.Body.Close()

	copyHeaders(w.Header(), resp.Header)
	w.WriteHeader(resp.StatusCode)
	relayBody(w, resp.Body)

	return resp.StatusCode, latency, nil
}

// copyHeaders copies all headers except the hop-by-hop set.
func copyHeaders(dst, src http.Header) {
	for key, values := range src {
		if isHopByHop(key) {
			continue
		}
		for _, v := range values {
			dst.Add(key, v)
		}
	}
}

func isHopByHop(key string) bool {
	for _, h := range hopByHopHeaders {
		if http.CanonicalHeaderKey(key) == h {
			return true
		}
	}
	return false
}

// relayBody streams the upstream body to the client, flushing after each
// chunk so server-sent event streams are not buffered until completion.
func relayBody(w http.ResponseWriter, src io.Reader) {
	flusher, _ := w.(http.Flusher)
	buf := make([]byte, config.DefaultBufferSize)
	for {
		n, err := src.Read(buf)
		if n > 0 {
			if _, werr := w.Write(buf[:n]); werr != nil {
				log.Debug().Err(werr).Msg("forward: client write failed")
				return
			}
			if flusher != nil {
				flusher.Flush()
			}
		}
		if err != nil {
			if err != io.EOF {
				log.Debug().Err(err).Msg("forward: upstream read failed")
			}
			return
		}
	}
}
