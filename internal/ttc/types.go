package ttc

// =============================================================================
// Wire Types
// =============================================================================

// compressRequest is the JSON body sent to the compress endpoint.
type compressRequest struct {
	Model               string              `json:"model"`
	CompressionSettings compressionSettings `json:"compression_settings"`
	Input               string              `json:"input"`
}

type compressionSettings struct {
	Aggressiveness float64 `json:"aggressiveness"`
}

// compressResponse is the JSON body returned by the compress endpoint.
type compressResponse struct {
	Output              string `json:"output"`
	OutputTokens        int    `json:"output_tokens"`
	OriginalInputTokens int    `json:"original_input_tokens"`
}

// =============================================================================
// Result
// =============================================================================

// Outcome distinguishes why a compression attempt did (or did not) rewrite
// its fragment. Callers branch on Saved == 0 for behavior; Outcome exists
// for logs and tests only.
type Outcome string

const (
	// OutcomeSkipped means no call was made (no key, empty, or below threshold).
	OutcomeSkipped Outcome = "skipped"
	// OutcomeApplied means the API returned a strictly smaller output.
	OutcomeApplied Outcome = "applied"
	// OutcomeDeclined means the API answered but offered no improvement.
	OutcomeDeclined Outcome = "declined"
	// OutcomeError means the call failed (transport, timeout, non-200, bad JSON).
	OutcomeError Outcome = "error"
)

// Result is the outcome of compressing one text fragment.
// Saved == 0 always means "the text is unchanged".
type Result struct {
	Text     string
	Saved    int
	Original int
	Outcome  Outcome
}

// unchanged builds the fail-open Result for the given text.
func unchanged(text string, outcome Outcome) Result {
	return Result{Text: text, Saved: 0, Original: 0, Outcome: outcome}
}
