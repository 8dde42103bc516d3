// Package tokencount estimates token counts for text fragments.
//
// DESIGN: Exact counts come back from the compression API; this estimator
// covers everything that never reaches it (skipped fragments, passthrough
// bodies) so telemetry can still report meaningful token numbers. Uses the
// cl100k_base BPE via tiktoken-go, falling back to the chars/4 heuristic
// if the encoding cannot be initialized.
package tokencount

import (
	"sync"

	"github.com/pkoukk/tiktoken-go"
	"github.com/rs/zerolog/log"

	"github.com/ttc-labs/claude-compressor/internal/config"
)

var (
	encOnce sync.Once
	enc     *tiktoken.Tiktoken
)

func encoding() *tiktoken.Tiktoken {
	encOnce.Do(func() {
		e, err := tiktoken.GetEncoding("cl100k_base")
		if err != nil {
			log.Warn().Err(err).Msg("tokencount: tokenizer unavailable, using character heuristic")
			return
		}
		enc = e
	})
	return enc
}

// Estimate returns the approximate number of tokens in text.
func Estimate(text string) int {
	if text == "" {
		return 0
	}
	if e := encoding(); e != nil {
		return len(e.Encode(text, nil, nil))
	}
	return len(text) / config.TokenEstimateRatio
}
