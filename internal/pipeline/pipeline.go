// Package pipeline assembles the full translation run: asset anchoring and
// text segmentation both consume the source document, translation consumes
// the segments, and the two paths join at final output assembly where the
// markers in translated text are checked against the anchored ledger.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"doctrans/internal/anchor"
	"doctrans/internal/config"
	"doctrans/internal/glossary"
	"doctrans/internal/logger"
	"doctrans/internal/placeholder"
	"doctrans/internal/segment"
	"doctrans/internal/translate"
	"doctrans/internal/types"
)

// Output bundles everything one run produces. The anchoring report and each
// language's result stay inspectable separately, so a partially successful
// run is never collapsed into a single pass/fail signal.
type Output struct {
	Ledger    *types.AssetLedger
	Report    *anchor.Report
	Results   map[string]*translate.Result
	Documents map[string]*types.Document
	Warnings  []string
}

// Pipeline wires the stages together around one configuration value.
type Pipeline struct {
	cfg          *config.Config
	resolver     *anchor.Resolver
	segmenter    *segment.Segmenter
	orchestrator *translate.Orchestrator
	glossary     *glossary.ContextBuilder
}

// New builds a pipeline from configuration and a translator capability.
func New(cfg *config.Config, translator translate.Translator, cache *translate.Cache) *Pipeline {
	return &Pipeline{
		cfg:       cfg,
		resolver:  anchor.NewResolver(),
		segmenter: segment.NewSegmenter(cfg.MaxSegmentChars),
		orchestrator: translate.NewOrchestrator(translator, cache, translate.Config{
			MaxBatchChars:   cfg.MaxBatchChars,
			MaxRetries:      cfg.MaxRetries,
			RetryDelay:      time.Duration(cfg.RetryDelaySeconds) * time.Second,
			Concurrency:     cfg.Concurrency,
			InputTokenRate:  cfg.InputTokenRate,
			OutputTokenRate: cfg.OutputTokenRate,
		}),
		glossary: glossary.NewContextBuilder(cfg.GlossaryDir),
	}
}

// Anchor runs only the anchoring path.
func (p *Pipeline) Anchor(ledger *types.AssetLedger, doc *types.Document) *anchor.Report {
	return p.resolver.Anchor(ledger, doc, nil)
}

// Run executes the full pipeline for the configured target languages.
func (p *Pipeline) Run(ctx context.Context, doc *types.Document, ledger *types.AssetLedger, onProgress translate.ProgressFunc) (*Output, error) {
	if len(p.cfg.TargetLangs) == 0 {
		return nil, types.NewAppError(types.ErrConfig, "no target languages configured", nil)
	}

	out := &Output{
		Ledger:    ledger,
		Results:   make(map[string]*translate.Result),
		Documents: make(map[string]*types.Document),
	}

	// Anchoring and segmentation are independent; both read the source
	// document and neither mutates it.
	out.Report = p.resolver.Anchor(ledger, doc, nil)
	out.Warnings = append(out.Warnings, p.checkMarkers(doc, ledger)...)

	segments := p.segmenter.SegmentBlocks(doc.Blocks)

	contexts := make(map[string]string, len(p.cfg.TargetLangs))
	for _, lang := range p.cfg.TargetLangs {
		glossaryContext, err := p.glossary.BuildContext(p.cfg.Domain, p.cfg.SourceLang, lang)
		if err != nil {
			return nil, err
		}
		contexts[lang] = glossaryContext
	}

	out.Results = p.orchestrator.Translate(ctx, segments, p.cfg.TargetLangs, contexts, onProgress)

	groups := segment.GroupByBlock(segments)
	for lang, result := range out.Results {
		if result.Failed {
			logger.Warn("skipping document assembly for failed language",
				logger.String("language", lang),
				logger.Err(result.Err))
			continue
		}
		out.Documents[lang] = assembleDocument(doc, groups, result)
	}

	logger.Info("pipeline run complete",
		logger.String("document", doc.Name),
		logger.Int("languages", len(out.Documents)),
		logger.Float64("totalCost", p.orchestrator.TotalCost()))

	return out, nil
}

// assembleDocument rebuilds a translated document: same blocks, same
// geometry and reading order, translated text.
func assembleDocument(doc *types.Document, groups map[string][]segment.Segment, result *translate.Result) *types.Document {
	translations := make(map[string]string, len(result.Segments))
	for _, st := range result.Segments {
		translations[st.SegmentID] = st.Text
	}

	translated := &types.Document{
		Name:   doc.Name,
		Blocks: make([]types.ContentBlock, len(doc.Blocks)),
	}
	for i, block := range doc.Blocks {
		out := block
		out.Text = segment.Reconstruct(groups[block.ID], translations)
		translated.Blocks[i] = out
	}
	return translated
}

// checkMarkers cross-references the asset markers placed in block text with
// the ledger: a marker without a ledger asset, or an asset that never
// appears as a marker, is surfaced as a warning at the join point of the
// two pipelines.
func (p *Pipeline) checkMarkers(doc *types.Document, ledger *types.AssetLedger) []string {
	markerIDs := make(map[string]bool)
	for _, block := range doc.Blocks {
		_, phs := placeholder.Encode(block.Text)
		for id, literal := range phs {
			if len(literal) > 3 && literal[0] == '[' && literal[1] == '[' {
				markerIDs[id] = true
			}
		}
	}

	ledgerIDs := make(map[string]bool, len(ledger.Assets))
	for _, a := range ledger.Assets {
		ledgerIDs[types.MarkerID(a.ID)] = true
	}

	var warnings []string
	for id := range markerIDs {
		if !ledgerIDs[id] {
			warnings = append(warnings, fmt.Sprintf("marker %s has no asset in the ledger", id))
		}
	}
	for id := range ledgerIDs {
		if !markerIDs[id] {
			warnings = append(warnings, fmt.Sprintf("asset %s never appears as a text marker", id))
		}
	}

	for _, w := range warnings {
		logger.Warn("marker/ledger mismatch", logger.String("detail", w))
	}
	return warnings
}
