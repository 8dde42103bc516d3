// Package payload - pipeline.go compresses chat payloads fragment by fragment.
//
// FLOW:
//  1. Parse the raw body; anything that isn't a JSON object with a
//     "messages" array passes through untouched (fail-open).
//  2. Scan messages in order, registering one FragmentRef per eligible
//     text location (whole-string content, or a text block within a list).
//  3. Fan out one compression call per fragment; all calls run
//     concurrently and the pipeline joins before reassembly.
//  4. Write each compressed fragment back to its exact JSON path; every
//     other byte of the payload is left as-is.
//
// DESIGN: Reassembly is a path-level patch (sjson), never a re-marshal of
// the whole payload. Key order, unknown fields, and untouched fragments
// stay byte-identical to what the client sent.
package payload

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
	"golang.org/x/sync/errgroup"

	"github.com/ttc-labs/claude-compressor/internal/tokencount"
	"github.com/ttc-labs/claude-compressor/internal/ttc"
)

// Compressor compresses one text fragment. Implementations are fail-open:
// a Result always comes back, never an error.
type Compressor interface {
	Compress(ctx context.Context, text string) ttc.Result
}

// FragmentRef identifies one compressible unit: either the whole string
// content of a message, or the text of one block within a content list.
// Path is the JSON path the compression result is written back to.
type FragmentRef struct {
	Message int
	Block   int // -1 for whole-string content
	Path    string
	Text    string
}

// ProcessResult is the outcome of one pipeline invocation.
type ProcessResult struct {
	Body          []byte
	TotalSaved    int
	TotalOriginal int
	Fragments     int // fragments dispatched to the compressor
	Applied       int // fragments actually rewritten
}

// Pipeline locates compressible fragments and rewrites them.
type Pipeline struct {
	compressor    Compressor
	minTextLength int
}

// NewPipeline creates a pipeline on top of the given compressor.
// minTextLength is the eligibility threshold in characters; the
// compressor typically enforces the same bound as a second guard.
func NewPipeline(c Compressor, minTextLength int) *Pipeline {
	return &Pipeline{compressor: c, minTextLength: minTextLength}
}

// Process parses rawBody, compresses eligible fragments concurrently, and
// returns the reassembled body with savings totals. Malformed or
// unrecognized input returns the original bytes with zero counters; this
// method never fails in a way the caller can observe.
func (p *Pipeline) Process(ctx context.Context, rawBody []byte) ProcessResult {
	res := ProcessResult{Body: rawBody}

	if len(rawBody) == 0 || !gjson.ValidBytes(rawBody) {
		log.Debug().Msg("pipeline: body is not valid JSON, passing through")
		return res
	}

	root := gjson.ParseBytes(rawBody)
	if !root.IsObject() {
		log.Debug().Msg("pipeline: body is not a JSON object, passing through")
		return res
	}

	messages := root.Get("messages")
	if !messages.Exists() || !messages.IsArray() {
		return res
	}

	fragments := p.scan(messages)
	if len(fragments) == 0 {
		return res
	}
	res.Fragments = len(fragments)

	log.Info().
		Int("messages", int(messages.Get("#").Int())).
		Int("fragments", len(fragments)).
		Msg("pipeline: compressing fragments")

	// Fan out: one task per fragment, all concurrent. Each task is
	// fail-open on its own (Compress never errors), so a single slow or
	// failed call only delays the join, never cancels siblings.
	results := make([]ttc.Result, len(fragments))
	g, gctx := errgroup.WithContext(ctx)
	for i, frag := range fragments {
		g.Go(func() error {
			results[i] = p.compressor.Compress(gctx, frag.Text)
			return nil
		})
	}
	_ = g.Wait()

	// Reassemble in original fragment order.
	body := rawBody
	for i, frag := range fragments {
		r := results[i]
		res.TotalSaved += r.Saved
		res.TotalOriginal += r.Original

		if r.Outcome != ttc.OutcomeApplied {
			log.Debug().
				Int("message", frag.Message).
				Int("block", frag.Block).
				Str("outcome", string(r.Outcome)).
				Int("est_tokens", tokencount.Estimate(frag.Text)).
				Msg("pipeline: fragment unchanged")
			continue
		}

		patched, err := sjson.SetBytes(body, frag.Path, r.Text)
		if err != nil {
			// Keep the original text at this location; savings for this
			// fragment are forfeited to keep accounting honest.
			log.Warn().Err(err).Str("path", frag.Path).Msg("pipeline: failed to apply fragment")
			res.TotalSaved -= r.Saved
			res.TotalOriginal -= r.Original
			continue
		}
		body = patched
		res.Applied++
	}

	res.Body = body
	if res.TotalSaved > 0 {
		log.Info().
			Int("fragments", res.Applied).
			Int("tokens_saved", res.TotalSaved).
			Msg("pipeline: request compressed")
	}
	return res
}

// scan walks messages in order and registers a FragmentRef for every
// eligible text location. Content shapes are matched exhaustively; opaque
// shapes and ineligible roles are never counted.
func (p *Pipeline) scan(messages gjson.Result) []FragmentRef {
	var fragments []FragmentRef

	msgIdx := -1
	messages.ForEach(func(_, msg gjson.Result) bool {
		msgIdx++
		if !compressibleRole(msg.Get("role").String()) {
			return true
		}

		content := decodeContent(msg.Get("content"))
		switch content.Kind {
		case ContentText:
			if len(content.Text) > p.minTextLength {
				fragments = append(fragments, FragmentRef{
					Message: msgIdx,
					Block:   -1,
					Path:    fmt.Sprintf("messages.%d.content", msgIdx),
					Text:    content.Text,
				})
			}
		case ContentBlocks:
			for blockIdx, block := range content.Blocks {
				if block.IsText && len(block.Text) > p.minTextLength {
					fragments = append(fragments, FragmentRef{
						Message: msgIdx,
						Block:   blockIdx,
						Path:    fmt.Sprintf("messages.%d.content.%d.text", msgIdx, blockIdx),
						Text:    block.Text,
					})
				}
			}
		case ContentOpaque:
			// Not a shape we compress.
		}
		return true
	})

	return fragments
}
