package placeholder

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncode_AssetMarkers(t *testing.T) {
	text := "The figure (see [[fig-1]]) illustrates the result."
	encoded, phs := Encode(text)

	assert.NotContains(t, encoded, "[[fig-1]]")
	assert.Contains(t, encoded, Token("ASSET_FIG_1"))
	assert.Equal(t, "[[fig-1]]", phs["ASSET_FIG_1"])
}

func TestEncode_StandardTokenOrder(t *testing.T) {
	text := "The figure (see [[fig-1]]) shows 500 results at https://example.org/data. Contact team@example.org."
	encoded, phs := Encode(text)

	// Sequential ids in left-to-right order, markers excluded from the count.
	assert.Equal(t, "500", phs["PH001"])
	assert.Equal(t, "https://example.org/data", phs["PH002"])
	assert.Equal(t, "team@example.org", phs["PH003"])
	assert.Equal(t, "[[fig-1]]", phs["ASSET_FIG_1"])

	assert.NotContains(t, encoded, "500")
	assert.NotContains(t, encoded, "example.org/data")
	assert.Equal(t, text, Decode(encoded, phs))
}

func TestEncode_URLStopsBeforePunctuation(t *testing.T) {
	// A URL followed by sentence punctuation keeps the punctuation as
	// literal text; only the address itself becomes a token.
	text := "Yarn: 500g, see https://x.co, email a@b.com"
	encoded, phs := Encode(text)

	assert.Equal(t, "500", phs["PH001"])
	assert.Equal(t, "https://x.co", phs["PH002"])
	assert.Equal(t, "a@b.com", phs["PH003"])
	assert.Equal(t, text, Decode(encoded, phs))
}

func TestEncode_MarkerLiteralResemblingToken(t *testing.T) {
	// An asset id that spells a standard-token id must not collide with
	// the PH### counter: the marker lives in its own id namespace.
	text := "[[PH001]] costs 42"
	encoded, phs := Encode(text)

	assert.Equal(t, "[[PH001]]", phs["ASSET_PH001"])
	assert.Equal(t, "42", phs["PH001"])
	assert.Contains(t, encoded, Token("ASSET_PH001"))
	assert.Equal(t, text, Decode(encoded, phs))
}

func TestEncode_Numbers(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		literal string
	}{
		{name: "plain integer", input: "we saw 42 cases", literal: "42"},
		{name: "decimal", input: "rate of 3.14 per day", literal: "3.14"},
		{name: "thousands separators", input: "cost was 1,234,567 dollars", literal: "1,234,567"},
		{name: "thousands with decimals", input: "total 1,234.56 units", literal: "1,234.56"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			encoded, phs := Encode(tt.input)
			assert.Equal(t, tt.literal, phs["PH001"])
			assert.NotContains(t, encoded, tt.literal)
			assert.Equal(t, tt.input, Decode(encoded, phs))
		})
	}
}

func TestEncode_CounterResetsPerCall(t *testing.T) {
	_, first := Encode("value 10")
	_, second := Encode("value 20")

	// Ids are scoped to a single call; identical numbering across calls is
	// resolved by each call's own map.
	assert.Equal(t, "10", first["PH001"])
	assert.Equal(t, "20", second["PH001"])
}

func TestEncode_DuplicateLiteralsGetIndependentIDs(t *testing.T) {
	encoded, phs := Encode("10 apples and 10 oranges")

	assert.Equal(t, "10", phs["PH001"])
	assert.Equal(t, "10", phs["PH002"])
	assert.Equal(t, 2, Count(encoded))
	assert.Equal(t, "10 apples and 10 oranges", Decode(encoded, phs))

	// Same for repeated URLs: each occurrence restores to the same literal.
	text := "see https://x.co and again https://x.co"
	encoded, phs = Encode(text)
	assert.Equal(t, "https://x.co", phs["PH001"])
	assert.Equal(t, "https://x.co", phs["PH002"])
	assert.Equal(t, text, Decode(encoded, phs))
}

func TestEncode_NumberScannerSkipsEncodedTokens(t *testing.T) {
	// The marker pass runs first; its token ids may contain digits the
	// generic scanner must not touch.
	text := "see [[img-p3-001]] near 99"
	encoded, phs := Encode(text)

	assert.Contains(t, encoded, Token("ASSET_IMG_P3_001"))
	assert.Equal(t, "99", phs["PH001"])
	assert.Equal(t, text, Decode(encoded, phs))
}

func TestEncode_Empty(t *testing.T) {
	encoded, phs := Encode("")
	assert.Equal(t, "", encoded)
	assert.Empty(t, phs)
}

func TestEncode_NoFragileTokens(t *testing.T) {
	text := "plain prose without anything fragile"
	encoded, phs := Encode(text)
	assert.Equal(t, text, encoded)
	assert.Empty(t, phs)
}

func TestDecode_LongestIDFirst(t *testing.T) {
	// PH001 must not be substituted inside a hypothetical longer id that
	// happens to share the prefix.
	phs := map[string]string{
		"PH001":  "short",
		"PH0011": "long",
	}
	text := Token("PH0011") + " " + Token("PH001")
	assert.Equal(t, "long short", Decode(text, phs))
}

func TestMissing(t *testing.T) {
	phs := map[string]string{"PH001": "500", "PH002": "https://example.org", "ASSET_FIG_1": "[[fig-1]]"}

	missing := Missing(Token("PH001")+" text", phs)
	assert.Equal(t, []string{"ASSET_FIG_1", "PH002"}, missing)

	full := Token("PH001") + Token("PH002") + Token("ASSET_FIG_1")
	assert.Empty(t, Missing(full, phs))
}

func TestTrimSpacesOnly(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "leading trailing spaces", input: "  text  ", expected: "text"},
		{name: "tabs", input: "\ttext\t", expected: "text"},
		{name: "newlines preserved", input: "\ntext\n", expected: "\ntext\n"},
		{name: "mixed", input: " \t\ntext\n\t ", expected: "\ntext\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, TrimSpacesOnly(tt.input))
		})
	}
}

func TestCount(t *testing.T) {
	encoded, _ := Encode("see [[fig-1]], 500 results at https://example.org")
	assert.Equal(t, 3, Count(encoded))
	assert.Equal(t, 0, Count("nothing here"))
}

func TestEncode_NewlinesPreserved(t *testing.T) {
	text := "line one with 42\nline two\n\nline four at https://example.org"
	encoded, phs := Encode(text)

	require.Equal(t, strings.Count(text, "\n"), strings.Count(encoded, "\n"))
	assert.Equal(t, text, Decode(encoded, phs))
}
