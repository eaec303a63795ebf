package segment

import (
	"sort"
	"strings"

	"doctrans/internal/logger"
)

// Reconstruct reassembles one block's translated text from its ordered
// segments and the decoded translations keyed by segment id. Splitting never
// removed a byte, so reconstruction is plain concatenation in segment order.
// A segment without a translation degrades gracefully: the available
// translations are joined and the shortfall is logged with both counts.
func Reconstruct(segments []Segment, translations map[string]string) string {
	ordered := make([]Segment, len(segments))
	copy(ordered, segments)
	sort.Slice(ordered, func(i, j int) bool {
		return ordered[i].Index < ordered[j].Index
	})

	received := 0
	var sb strings.Builder
	for _, seg := range ordered {
		text, ok := translations[seg.ID]
		if !ok {
			continue
		}
		received++
		sb.WriteString(text)
	}

	if received < len(ordered) {
		logger.Warn("block reconstruction incomplete",
			logger.String("block", blockID(ordered)),
			logger.Int("expectedSegments", len(ordered)),
			logger.Int("receivedSegments", received))
	}

	return sb.String()
}

// GroupByBlock partitions segments by their source block, preserving
// segment order within each block.
func GroupByBlock(segments []Segment) map[string][]Segment {
	groups := make(map[string][]Segment)
	for _, seg := range segments {
		groups[seg.BlockID] = append(groups[seg.BlockID], seg)
	}
	return groups
}

func blockID(segments []Segment) string {
	if len(segments) == 0 {
		return ""
	}
	return segments[0].BlockID
}
