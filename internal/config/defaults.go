// Package config - defaults.go centralizes magic numbers and default values.
//
// DESIGN: All default values that appear in multiple places should be defined here.
// This makes configuration more maintainable and auditable.
package config

import "time"

// =============================================================================
// TOKEN ESTIMATION
// =============================================================================

// TokenEstimateRatio is the approximate number of characters per token.
// Used for rough token counting when the tokenizer is unavailable.
const TokenEstimateRatio = 4

// =============================================================================
// COMPRESSION DEFAULTS
// =============================================================================

// DefaultCompressionAPI is the production Token Company compress endpoint.
const DefaultCompressionAPI = "https://api.thetokencompany.com/v1/compress"

// DefaultCompressionModel is the compression model requested from the API.
const DefaultCompressionModel = "bear-1"

// DefaultAggressiveness is the compression aggressiveness knob (0.0-1.0).
const DefaultAggressiveness = 0.6

// DefaultMinTextLength is the minimum fragment length (in characters) worth
// sending to the compression API. Shorter fragments cost more in latency
// than they save in tokens.
const DefaultMinTextLength = 150

// DefaultCompressTimeout bounds a single compression API call.
const DefaultCompressTimeout = 30 * time.Second

// =============================================================================
// UPSTREAM FORWARDING
// =============================================================================

// DefaultUpstreamBaseURL is the upstream LLM API.
const DefaultUpstreamBaseURL = "https://api.anthropic.com"

// DefaultForwardTimeout bounds the upstream call. Long to accommodate
// slow streaming-capable endpoints.
const DefaultForwardTimeout = 300 * time.Second

// =============================================================================
// HTTP AND NETWORKING
// =============================================================================

// DefaultPort is the interceptor listening port.
const DefaultPort = 8877

// MaxRequestBodySize is the maximum allowed request body (50MB).
const MaxRequestBodySize = 50 * 1024 * 1024

// DefaultServerReadTimeout for the HTTP server.
const DefaultServerReadTimeout = 5 * time.Minute

// DefaultServerWriteTimeout for the HTTP server (safe for streaming).
const DefaultServerWriteTimeout = 10 * time.Minute

// DefaultBufferSize is the standard I/O buffer size.
const DefaultBufferSize = 4096

// =============================================================================
// DASHBOARD
// =============================================================================

// DefaultDashboardInterval is how often the live stats feed pushes a snapshot.
const DefaultDashboardInterval = 2 * time.Second
