// Package segment converts content blocks into translation-ready segments
// and reassembles translated segments back into block-shaped text. A segment
// is the minimal unit submitted to the external translator; splitting never
// lands inside a placeholder token and never drops a byte, so concatenating
// a block's segments reproduces the block's encoded text exactly.
package segment

import (
	"fmt"
	"strings"

	"doctrans/internal/logger"
	"doctrans/internal/placeholder"
	"doctrans/internal/types"
)

// DefaultMaxChars bounds segment size when the caller does not.
const DefaultMaxChars = 4000

// Segment is an immutable unit of encoded translatable text derived from one
// content block, carrying its own placeholder map. Translation produces a
// new text keyed by the same ID; the segment itself is never mutated.
type Segment struct {
	ID           string            `json:"id"` // {block_id}.seg{n}
	BlockID      string            `json:"block_id"`
	Index        int               `json:"index"`
	Text         string            `json:"text"` // encoded
	Placeholders map[string]string `json:"placeholders"`
	Oversized    bool              `json:"oversized,omitempty"`
}

// NewlineCount returns the number of newlines in the segment text.
func (s *Segment) NewlineCount() int {
	return strings.Count(s.Text, "\n")
}

// Segmenter derives segments from content blocks, encoding fragile tokens
// along the way.
type Segmenter struct {
	maxChars int
}

// NewSegmenter creates a Segmenter with the given segment size bound;
// non-positive means DefaultMaxChars.
func NewSegmenter(maxChars int) *Segmenter {
	if maxChars <= 0 {
		maxChars = DefaultMaxChars
	}
	return &Segmenter{maxChars: maxChars}
}

// MaxChars returns the configured segment size bound.
func (s *Segmenter) MaxChars() int {
	return s.maxChars
}

// SegmentBlocks converts blocks into ordered segments. Each block yields one
// segment unless its encoded text exceeds the size bound, in which case it is
// split at a newline, else whitespace, else mid-word, never inside a
// placeholder token. The sum of newline counts across a block's segments
// always equals the block's own newline count.
func (s *Segmenter) SegmentBlocks(blocks []types.ContentBlock) []Segment {
	var segments []Segment
	for _, block := range blocks {
		segments = append(segments, s.segmentBlock(block)...)
	}

	logger.Debug("segmentation complete",
		logger.Int("blocks", len(blocks)),
		logger.Int("segments", len(segments)))

	return segments
}

func (s *Segmenter) segmentBlock(block types.ContentBlock) []Segment {
	encoded, phs := placeholder.Encode(block.Text)

	parts := s.splitEncoded(encoded)
	segments := make([]Segment, 0, len(parts))
	for i, part := range parts {
		seg := Segment{
			ID:           fmt.Sprintf("%s.seg%d", block.ID, i),
			BlockID:      block.ID,
			Index:        i,
			Text:         part,
			Placeholders: scopePlaceholders(part, phs),
			Oversized:    len(part) > s.maxChars,
		}
		if seg.Oversized {
			logger.Warn("segment exceeds size bound",
				logger.String("segment", seg.ID),
				logger.Int("length", len(part)),
				logger.Int("maxChars", s.maxChars))
		}
		segments = append(segments, seg)
	}
	return segments
}

// scopePlaceholders restricts a block's placeholder map to the tokens that
// landed in this part. Splitting never cuts through a token, so every token
// lives wholly in exactly one part; a segment's map describes its own text
// and nothing else, keeping downstream round-trip checks exact.
func scopePlaceholders(part string, phs map[string]string) map[string]string {
	scoped := make(map[string]string)
	for id, literal := range phs {
		if strings.Contains(part, placeholder.Token(id)) {
			scoped[id] = literal
		}
	}
	return scoped
}

// splitEncoded cuts the encoded text into parts of at most maxChars without
// removing any bytes: each cut point ends one part and starts the next.
func (s *Segmenter) splitEncoded(text string) []string {
	if len(text) <= s.maxChars {
		return []string{text}
	}

	var parts []string
	rest := text
	for len(rest) > s.maxChars {
		cut := s.findCut(rest)
		if cut <= 0 {
			// No boundary avoids breaking a placeholder; emit the remainder
			// as a single oversized part.
			break
		}
		parts = append(parts, rest[:cut])
		rest = rest[cut:]
	}
	if rest != "" || len(parts) == 0 {
		parts = append(parts, rest)
	}
	return parts
}

// findCut picks the best cut index within maxChars: after the last newline,
// else after the last space, else at the size bound, shifted left out of any
// placeholder token it would land inside.
func (s *Segmenter) findCut(text string) int {
	limit := s.maxChars
	window := text[:limit]

	if i := strings.LastIndexByte(window, '\n'); i >= 0 {
		return i + 1
	}
	if i := strings.LastIndexByte(window, ' '); i >= 0 && !insideToken(text, i) {
		return i + 1
	}
	// Mid-word last resort: back out of a token if the bound lands in one.
	cut := limit
	for cut > 0 && insideToken(text, cut) {
		cut = tokenStart(text, cut)
	}
	return cut
}

// insideToken reports whether position pos falls strictly inside an encoded
// placeholder token.
func insideToken(text string, pos int) bool {
	start := strings.LastIndex(text[:pos], "<<<")
	if start < 0 {
		return false
	}
	end := strings.Index(text[start:], ">>>")
	if end < 0 {
		return false
	}
	return pos > start && pos < start+end+len(">>>")
}

// tokenStart returns the start index of the token containing pos.
func tokenStart(text string, pos int) int {
	return strings.LastIndex(text[:pos], "<<<")
}
