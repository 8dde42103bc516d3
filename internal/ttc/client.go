// Package ttc provides a client for the Token Company compression API.
//
// FILES:
//   - client.go: API client and compression call
//   - types.go:  Wire types and Result
package ttc

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/ttc-labs/claude-compressor/internal/config"
)

// Client calls the Token Company compress endpoint.
//
// Compress never returns an error: every failure mode folds into a Result
// that keeps the original text, so a compression outage can never block
// the underlying chat request.
type Client struct {
	endpoint       string
	apiKey         string
	model          string
	aggressiveness float64
	minTextLength  int
	httpClient     *http.Client
}

// ClientOption configures the Client.
type ClientOption func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(c *http.Client) ClientOption {
	return func(client *Client) {
		client.httpClient = c
	}
}

// WithTimeout sets the HTTP client timeout.
func WithTimeout(timeout time.Duration) ClientOption {
	return func(client *Client) {
		client.httpClient.Timeout = timeout
	}
}

// NewClient creates a new compression client.
// It reads COMPRESSION_API and TTC_KEY from the environment if not provided.
func NewClient(endpoint, apiKey string, aggressiveness float64, minTextLength int, opts ...ClientOption) *Client {
	if endpoint == "" {
		endpoint = os.Getenv("COMPRESSION_API")
	}
	if endpoint == "" {
		endpoint = config.DefaultCompressionAPI
	}

	if apiKey == "" {
		apiKey = os.Getenv("TTC_KEY")
	}

	c := &Client{
		endpoint:       endpoint,
		apiKey:         apiKey,
		model:          config.DefaultCompressionModel,
		aggressiveness: aggressiveness,
		minTextLength:  minTextLength,
		httpClient: &http.Client{
			Timeout: config.DefaultCompressTimeout,
		},
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// HasAPIKey returns true if an API key is configured.
func (c *Client) HasAPIKey() bool {
	return c.apiKey != ""
}

// Compress sends text to the compression API and returns the (possibly
// rewritten) fragment. Preconditions short-circuit without a network call:
// missing API key, empty text, or text below the minimum fragment length.
//
// Success requires HTTP 200, a non-empty output, and a strict token
// improvement. Everything else keeps the original text with Saved == 0.
func (c *Client) Compress(ctx context.Context, text string) Result {
	if c.apiKey == "" || text == "" || len(text) < c.minTextLength {
		return unchanged(text, OutcomeSkipped)
	}

	payload, err := json.Marshal(compressRequest{
		Model:               c.model,
		CompressionSettings: compressionSettings{Aggressiveness: c.aggressiveness},
		Input:               text,
	})
	if err != nil {
		log.Error().Err(err).Msg("ttc: marshaling compress request")
		return unchanged(text, OutcomeError)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		log.Error().Err(err).Msg("ttc: creating compress request")
		return unchanged(text, OutcomeError)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "claude-compressor/1.0")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.Warn().Err(err).Msg("ttc: compress call failed")
		return unchanged(text, OutcomeError)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		log.Warn().Err(err).Msg("ttc: reading compress response")
		return unchanged(text, OutcomeError)
	}

	if resp.StatusCode != http.StatusOK {
		log.Warn().
			Int("status", resp.StatusCode).
			Int("input_len", len(text)).
			Msg("ttc: compress declined with non-200 status")
		return unchanged(text, OutcomeError)
	}

	var cr compressResponse
	if err := json.Unmarshal(body, &cr); err != nil {
		log.Warn().Err(err).Msg("ttc: malformed compress response")
		return unchanged(text, OutcomeError)
	}

	if cr.Output == "" || cr.OutputTokens >= cr.OriginalInputTokens {
		return unchanged(text, OutcomeDeclined)
	}

	saved := cr.OriginalInputTokens - cr.OutputTokens
	log.Info().
		Int("original_tokens", cr.OriginalInputTokens).
		Int("output_tokens", cr.OutputTokens).
		Int("saved", saved).
		Msg("ttc: fragment compressed")

	return Result{
		Text:     cr.Output,
		Saved:    saved,
		Original: cr.OriginalInputTokens,
		Outcome:  OutcomeApplied,
	}
}
