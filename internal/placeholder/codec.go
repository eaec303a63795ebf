// Package placeholder protects fragile substrings through translation.
// Asset markers, URLs, email addresses and numeric literals are replaced by
// opaque tokens before text is sent to the external translator and restored
// verbatim afterward, so that decode(encode(text)) == text.
package placeholder

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"doctrans/internal/logger"
	"doctrans/internal/types"
)

// Token delimiters. Tokens must survive a translation pass untouched, so the
// form matches what translation models reliably treat as markup.
const (
	tokenOpen  = "<<<"
	tokenClose = ">>>"
)

var (
	// Asset markers: [[asset-id]]. An inner marker inside an outer match is
	// literal text of the outer match; the pattern is non-greedy and does not
	// admit bracket characters in the id.
	assetMarkerRe = regexp.MustCompile(`\[\[([A-Za-z0-9][A-Za-z0-9_-]*)\]\]`)

	// Standard fragile tokens, scanned together left to right: URLs, email
	// addresses, then numeric literals with optional thousands separators
	// and decimals. A URL never ends on sentence punctuation, so trailing
	// ".", "," and friends stay literal text around the token.
	standardTokenRe = regexp.MustCompile(
		`https?://[^\s<>"')\]]*[^\s<>"')\].,;:!?]` +
			`|[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}` +
			`|\d{1,3}(?:,\d{3})+(?:\.\d+)?` +
			`|\d+(?:\.\d+)?`)

	// An encoded token as it appears in text.
	encodedTokenRe = regexp.MustCompile(`<<<[A-Z0-9_]+>>>`)
)

// Token wraps a placeholder id in its in-text form.
func Token(id string) string {
	return tokenOpen + id + tokenClose
}

// Encode replaces every fragile token in text with an opaque placeholder and
// returns the encoded text plus the id → literal map. Asset markers are
// protected first so the generic scanner never matches characters inside a
// marker; standard tokens then receive sequential PH### ids in left-to-right
// order, starting at PH001 for every call. Identical literals occurring more
// than once receive independent ids. Encode performs no I/O and cannot fail;
// empty input yields empty output and an empty map.
func Encode(text string) (string, map[string]string) {
	placeholders := make(map[string]string)
	if text == "" {
		return "", placeholders
	}

	encoded := encodeAssetMarkers(text, placeholders)
	encoded = encodeStandardTokens(encoded, placeholders)

	if len(placeholders) > 0 {
		logger.Debug("encoded fragile tokens",
			logger.Int("placeholders", len(placeholders)),
			logger.Int("originalLength", len(text)),
			logger.Int("encodedLength", len(encoded)))
	}

	return encoded, placeholders
}

// encodeAssetMarkers replaces [[asset-id]] markers with tokens whose id is
// derived deterministically from the marker content.
func encodeAssetMarkers(text string, placeholders map[string]string) string {
	matches := assetMarkerRe.FindAllStringSubmatchIndex(text, -1)
	if len(matches) == 0 {
		return text
	}

	var sb strings.Builder
	last := 0
	for _, m := range matches {
		start, end := m[0], m[1]
		id := types.MarkerID(text[m[2]:m[3]])
		placeholders[id] = text[start:end]
		sb.WriteString(text[last:start])
		sb.WriteString(Token(id))
		last = end
	}
	sb.WriteString(text[last:])
	return sb.String()
}

// encodeStandardTokens replaces URLs, emails and numbers with sequential
// PH### tokens. Spans already occupied by an encoded token are skipped.
func encodeStandardTokens(text string, placeholders map[string]string) string {
	protected := encodedTokenRe.FindAllStringIndex(text, -1)
	matches := standardTokenRe.FindAllStringIndex(text, -1)
	if len(matches) == 0 {
		return text
	}

	var sb strings.Builder
	last := 0
	counter := 0
	for _, m := range matches {
		if overlapsAny(m[0], m[1], protected) {
			continue
		}
		counter++
		id := fmt.Sprintf("PH%03d", counter)
		placeholders[id] = text[m[0]:m[1]]
		sb.WriteString(text[last:m[0]])
		sb.WriteString(Token(id))
		last = m[1]
	}
	sb.WriteString(text[last:])
	return sb.String()
}

func overlapsAny(start, end int, spans [][]int) bool {
	for _, s := range spans {
		if start < s[1] && end > s[0] {
			return true
		}
	}
	return false
}

// Decode restores the original literals for every placeholder in the map.
// Replacement order is longest id first so a shorter id is never substituted
// inside a longer token it happens to prefix.
func Decode(text string, placeholders map[string]string) string {
	if len(placeholders) == 0 {
		return text
	}

	ids := make([]string, 0, len(placeholders))
	for id := range placeholders {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		if len(ids[i]) != len(ids[j]) {
			return len(ids[i]) > len(ids[j])
		}
		return ids[i] < ids[j]
	})

	result := text
	for _, id := range ids {
		result = strings.ReplaceAll(result, Token(id), placeholders[id])
	}
	return result
}

// Missing returns the placeholder ids whose tokens are absent from the text,
// sorted. A non-empty result after translation means the external service
// dropped or mangled a token.
func Missing(text string, placeholders map[string]string) []string {
	var missing []string
	for id := range placeholders {
		if !strings.Contains(text, Token(id)) {
			missing = append(missing, id)
		}
	}
	sort.Strings(missing)
	return missing
}

// Count returns the number of encoded tokens present in the text.
func Count(text string) int {
	return len(encodedTokenRe.FindAllString(text, -1))
}

// TrimSpacesOnly trims leading and trailing spaces and tabs but never
// newlines. Newline count is a load-bearing layout signal downstream, so
// the usual TrimSpace is off limits anywhere segment text flows.
func TrimSpacesOnly(s string) string {
	return strings.Trim(s, " \t")
}
