package pipeline

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"doctrans/internal/config"
	"doctrans/internal/translate"
	"doctrans/internal/types"
)

// echoTranslator returns every input unchanged with a language tag, keeping
// placeholder tokens and newlines intact so round-trip validation passes.
type echoTranslator struct {
	failLang string
}

func (e *echoTranslator) TranslateBatch(ctx context.Context, texts []string, targetLang, glossaryContext string) (*translate.BatchOutput, error) {
	if targetLang == e.failLang {
		return nil, translate.NewServiceError(translate.ErrAuth, "rejected", nil)
	}
	out := &translate.BatchOutput{TokensIn: 10, TokensOut: 10}
	out.Texts = append(out.Texts, texts...)
	return out, nil
}

func testConfig(langs ...string) *config.Config {
	return &config.Config{
		SourceLang:      "en",
		TargetLangs:     langs,
		MaxBatchChars:   4000,
		MaxSegmentChars: 4000,
		MaxRetries:      1,
		Concurrency:     2,
	}
}

func testDocument() (*types.Document, *types.AssetLedger) {
	doc := &types.Document{
		Name: "paper",
		Blocks: []types.ContentBlock{
			{
				ID:           "b1",
				Page:         1,
				ReadingOrder: 0,
				BBox:         types.BBox{X0: 50, Y0: 500, X1: 350, Y1: 600},
				Text:         "Results are shown in [[fig-1]].\nWe observed 42 cases.",
			},
			{
				ID:           "b2",
				Page:         1,
				ReadingOrder: 1,
				BBox:         types.BBox{X0: 50, Y0: 100, X1: 350, Y1: 250},
				Text:         "See https://example.org for details.",
			},
		},
	}

	asset, err := types.NewAsset("fig-1", 1, types.AssetImage, types.BBox{X0: 50, Y0: 300, X1: 350, Y1: 450})
	if err != nil {
		panic(err)
	}
	return doc, &types.AssetLedger{Assets: []*types.Asset{asset}}
}

func TestRun_FullPipeline(t *testing.T) {
	doc, ledger := testDocument()
	p := New(testConfig("de"), &echoTranslator{}, nil)

	out, err := p.Run(context.Background(), doc, ledger, nil)
	require.NoError(t, err)

	// Anchoring: the asset sits between the two blocks; b1's bottom edge
	// clears the asset's top, so it anchors upward to b1.
	require.Equal(t, 1, out.Report.AnchoredCount)
	a, _ := ledger.Asset("fig-1")
	assert.Equal(t, "b1", a.AnchorTo)

	// The echo translator returns source text, so the assembled document
	// must reproduce it byte for byte, markers and numbers included.
	translated, ok := out.Documents["de"]
	require.True(t, ok)
	require.Len(t, translated.Blocks, 2)
	assert.Equal(t, doc.Blocks[0].Text, translated.Blocks[0].Text)
	assert.Equal(t, doc.Blocks[1].Text, translated.Blocks[1].Text)

	// Geometry is carried over untouched.
	assert.Equal(t, doc.Blocks[0].BBox, translated.Blocks[0].BBox)
	assert.Equal(t, doc.Blocks[0].ReadingOrder, translated.Blocks[0].ReadingOrder)

	// No marker mismatches: [[fig-1]] is in the text and in the ledger.
	assert.Empty(t, out.Warnings)
}

func TestRun_FailedLanguageSkipsAssembly(t *testing.T) {
	doc, ledger := testDocument()
	p := New(testConfig("de", "fr"), &echoTranslator{failLang: "de"}, nil)

	out, err := p.Run(context.Background(), doc, ledger, nil)
	require.NoError(t, err)

	assert.True(t, out.Results["de"].Failed)
	assert.NotContains(t, out.Documents, "de")

	require.False(t, out.Results["fr"].Failed)
	assert.Contains(t, out.Documents, "fr")
}

func TestRun_NoTargetLanguages(t *testing.T) {
	doc, ledger := testDocument()
	p := New(testConfig(), &echoTranslator{}, nil)

	_, err := p.Run(context.Background(), doc, ledger, nil)
	require.Error(t, err)

	var appErr *types.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, types.ErrConfig, appErr.Code)
}

func TestRun_MarkerLedgerMismatchWarns(t *testing.T) {
	doc, ledger := testDocument()
	// A marker in the text without a ledger asset, and a ledger asset that
	// never appears in the text.
	doc.Blocks[1].Text += " Also see [[fig-ghost]]."
	orphan, err := types.NewAsset("tbl-unused", 1, types.AssetTableSnapshot,
		types.BBox{X0: 50, Y0: 260, X1: 350, Y1: 290})
	require.NoError(t, err)
	ledger.Assets = append(ledger.Assets, orphan)

	p := New(testConfig("de"), &echoTranslator{}, nil)
	out, runErr := p.Run(context.Background(), doc, ledger, nil)
	require.NoError(t, runErr)

	require.Len(t, out.Warnings, 2)
	joined := strings.Join(out.Warnings, "\n")
	assert.Contains(t, joined, "ASSET_FIG_GHOST")
	assert.Contains(t, joined, "ASSET_TBL_UNUSED")
}

func TestAnchor_OnlyPath(t *testing.T) {
	doc, ledger := testDocument()
	p := New(testConfig("de"), nil, nil)

	report := p.Anchor(ledger, doc)
	assert.Equal(t, 1, report.AnchoredCount)
}
