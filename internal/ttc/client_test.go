package ttc

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

const longText = "This is a long piece of conversational context that easily clears the " +
	"minimum fragment length and would plausibly benefit from compression. " +
	"It repeats itself a little, as real prompts tend to do, repeating itself a little."

// =============================================================================
// Short-Circuit Behavior
// =============================================================================

func TestCompressShortCircuits(t *testing.T) {
	// Server that fails the test if it is ever reached.
	called := false
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer server.Close()

	tests := []struct {
		name   string
		apiKey string
		text   string
	}{
		{name: "no api key", apiKey: "", text: longText},
		{name: "empty text", apiKey: "test-key", text: ""},
		{name: "below minimum length", apiKey: "test-key", text: "short"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := NewClient(server.URL, tt.apiKey, 0.6, 150)
			result := client.Compress(context.Background(), tt.text)

			assert.Equal(t, tt.text, result.Text)
			assert.Equal(t, 0, result.Saved)
			assert.Equal(t, OutcomeSkipped, result.Outcome)
			assert.False(t, called, "short-circuit must not reach the network")
		})
	}
}

// =============================================================================
// API Responses
// =============================================================================

func TestCompressSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		parsed := gjson.ParseBytes(body)
		assert.Equal(t, "bear-1", parsed.Get("model").String())
		assert.InDelta(t, 0.6, parsed.Get("compression_settings.aggressiveness").Float(), 0.001)
		assert.Equal(t, longText, parsed.Get("input").String())

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"output":"compressed context","output_tokens":10,"original_input_tokens":50}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "test-key", 0.6, 150)
	result := client.Compress(context.Background(), longText)

	assert.Equal(t, "compressed context", result.Text)
	assert.Equal(t, 40, result.Saved)
	assert.Equal(t, 50, result.Original)
	assert.Equal(t, OutcomeApplied, result.Outcome)
}

func TestCompressUnsuccessfulResponses(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		outcome Outcome
	}{
		{
			name:    "server error",
			status:  http.StatusInternalServerError,
			body:    `{"error":"internal"}`,
			outcome: OutcomeError,
		},
		{
			name:    "rate limited",
			status:  http.StatusTooManyRequests,
			body:    `{"error":"slow down"}`,
			outcome: OutcomeError,
		},
		{
			name:    "no token improvement",
			status:  http.StatusOK,
			body:    `{"output":"still long","output_tokens":50,"original_input_tokens":50}`,
			outcome: OutcomeDeclined,
		},
		{
			name:    "output larger than input",
			status:  http.StatusOK,
			body:    `{"output":"somehow longer","output_tokens":60,"original_input_tokens":50}`,
			outcome: OutcomeDeclined,
		},
		{
			name:    "missing output",
			status:  http.StatusOK,
			body:    `{"output_tokens":10,"original_input_tokens":50}`,
			outcome: OutcomeDeclined,
		},
		{
			name:    "malformed json",
			status:  http.StatusOK,
			body:    `{"output": not-json`,
			outcome: OutcomeError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			client := NewClient(server.URL, "test-key", 0.6, 150)
			result := client.Compress(context.Background(), longText)

			assert.Equal(t, longText, result.Text, "failed compression must keep original text")
			assert.Equal(t, 0, result.Saved)
			assert.Equal(t, tt.outcome, result.Outcome)
		})
	}
}

func TestCompressTransportFailure(t *testing.T) {
	// Point at a closed server to force a connection error.
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	client := NewClient(server.URL, "test-key", 0.6, 150)
	result := client.Compress(context.Background(), longText)

	assert.Equal(t, longText, result.Text)
	assert.Equal(t, 0, result.Saved)
	assert.Equal(t, OutcomeError, result.Outcome)
}

func TestNewClientDefaults(t *testing.T) {
	t.Setenv("COMPRESSION_API", "")
	t.Setenv("TTC_KEY", "")

	client := NewClient("", "key", 0.6, 150)
	assert.True(t, client.HasAPIKey())
	assert.True(t, strings.HasPrefix(client.endpoint, "https://"))

	client = NewClient("http://localhost:9999", "", 0.6, 150)
	assert.False(t, client.HasAPIKey())
}
