// Package payload - content.go decodes message content into a tagged union.
//
// DESIGN: The upstream chat schema allows "content" to be either a plain
// string or an ordered list of typed blocks. Rather than duck-typing over
// raw JSON at every use site, content is decoded once into Content and
// matched exhaustively. Shapes we don't recognize become ContentOpaque and
// are never touched.
package payload

import "github.com/tidwall/gjson"

// ContentKind tags the decoded shape of a message's content field.
type ContentKind int

const (
	// ContentOpaque is any shape we don't compress (absent, number, object...).
	ContentOpaque ContentKind = iota
	// ContentText is a plain string.
	ContentText
	// ContentBlocks is an ordered list of content blocks.
	ContentBlocks
)

// Content is the decoded form of a message's content field.
type Content struct {
	Kind   ContentKind
	Text   string  // set when Kind == ContentText
	Blocks []Block // set when Kind == ContentBlocks
}

// Block is one entry of a content list: a text block eligible for
// compression, or an opaque block (tool_use, image, ...) left untouched.
type Block struct {
	IsText bool
	Text   string // set when IsText
}

// decodeContent classifies a raw content value. List entries keep their
// positions so block indexes line up with the original JSON.
func decodeContent(v gjson.Result) Content {
	switch {
	case v.Type == gjson.String:
		return Content{Kind: ContentText, Text: v.String()}
	case v.IsArray():
		var blocks []Block
		v.ForEach(func(_, b gjson.Result) bool {
			if b.Get("type").String() == "text" {
				if t := b.Get("text"); t.Type == gjson.String && t.String() != "" {
					blocks = append(blocks, Block{IsText: true, Text: t.String()})
					return true
				}
			}
			blocks = append(blocks, Block{})
			return true
		})
		return Content{Kind: ContentBlocks, Blocks: blocks}
	default:
		return Content{Kind: ContentOpaque}
	}
}

// compressibleRole reports whether messages with this role are eligible.
// Only user and assistant turns carry compressible conversation text.
func compressibleRole(role string) bool {
	return role == "user" || role == "assistant"
}
