package anchor

import (
	"fmt"
	"math"
	"sort"
	"sync"

	"doctrans/internal/layout"
	"doctrans/internal/logger"
	"doctrans/internal/types"
)

// Resolver anchors assets to their nearest same-column text block. It is the
// only component that writes to an asset ledger, and only through the ledger's
// own setters.
type Resolver struct {
	detector *layout.ColumnDetector
}

// NewResolver creates a Resolver with a default column detector.
func NewResolver() *Resolver {
	return &Resolver{detector: layout.NewColumnDetector()}
}

// pageResult accumulates anchoring outcomes for one page before the
// deterministic merge into the run report.
type pageResult struct {
	page       int
	anchored   int
	unanchored []string
	ambiguous  []AmbiguousMatch
	violations []GeometryViolation
	warnings   []string
}

// Anchor resolves every asset in the ledger against the document's blocks.
// Columns may be supplied per page; pages absent from the map are detected on
// the fly. Pages are processed in parallel since anchoring touches only
// page-scoped state; results are merged in page order so repeated runs over
// an unmodified ledger produce identical reports.
func (r *Resolver) Anchor(ledger *types.AssetLedger, doc *types.Document, columns map[int][]layout.Column) *Report {
	ledger.ClearAnchors()

	pages := assetPages(ledger)
	results := make([]*pageResult, len(pages))

	var wg sync.WaitGroup
	for i, page := range pages {
		wg.Add(1)
		go func(idx, pg int) {
			defer wg.Done()
			cols := columns[pg]
			if cols == nil {
				cols = r.detector.DetectColumns(doc.BlocksOnPage(pg))
			}
			results[idx] = r.anchorPage(ledger, doc, pg, cols)
		}(i, page)
	}
	wg.Wait()

	report := &Report{TotalAssets: len(ledger.Assets)}
	for _, pr := range results {
		report.AnchoredCount += pr.anchored
		report.UnanchoredAssets = append(report.UnanchoredAssets, pr.unanchored...)
		report.AmbiguousMatches = append(report.AmbiguousMatches, pr.ambiguous...)
		report.GeometryViolations = append(report.GeometryViolations, pr.violations...)
		report.Warnings = append(report.Warnings, pr.warnings...)
	}

	logger.Info("anchoring run complete",
		logger.Int("totalAssets", report.TotalAssets),
		logger.Int("anchored", report.AnchoredCount),
		logger.Int("unanchored", len(report.UnanchoredAssets)),
		logger.Int("ambiguous", len(report.AmbiguousMatches)))

	return report
}

// anchorPage anchors all assets of one page.
func (r *Resolver) anchorPage(ledger *types.AssetLedger, doc *types.Document, page int, cols []layout.Column) *pageResult {
	pr := &pageResult{page: page}

	blocks := doc.BlocksOnPage(page)
	for _, asset := range ledger.AssetsOnPage(page) {
		if len(blocks) == 0 {
			pr.unanchored = append(pr.unanchored, asset.ID)
			pr.warnings = append(pr.warnings,
				fmt.Sprintf("asset %s: no text blocks on page %d", asset.ID, page))
			continue
		}

		colIdx, ok := layout.ColumnFor(cols, asset.BBox)
		if !ok {
			pr.unanchored = append(pr.unanchored, asset.ID)
			pr.warnings = append(pr.warnings,
				fmt.Sprintf("asset %s: no column covers at least half of its span", asset.ID))
			continue
		}
		col := cols[colIdx]

		candidates := blocksInColumn(blocks, cols, colIdx)
		block, tied := nearestBlock(asset, candidates)
		if block == nil {
			pr.unanchored = append(pr.unanchored, asset.ID)
			pr.warnings = append(pr.warnings,
				fmt.Sprintf("asset %s: no block in its column clears the asset vertically", asset.ID))
			continue
		}
		if len(tied) > 1 {
			pr.ambiguous = append(pr.ambiguous, AmbiguousMatch{AssetID: asset.ID, CandidateIDs: tied})
			pr.warnings = append(pr.warnings,
				fmt.Sprintf("asset %s: tied candidates %v resolved to %s by reading order",
					asset.ID, tied, block.ID))
		}

		nb, violations := normalize(asset, col)
		pr.violations = append(pr.violations, violations...)
		ledger.SetAnchor(asset.ID, block.ID, nb)
		pr.anchored++
	}

	return pr
}

// blocksInColumn keeps the blocks assigned to the given column index.
func blocksInColumn(blocks []types.ContentBlock, cols []layout.Column, colIdx int) []types.ContentBlock {
	var out []types.ContentBlock
	for _, b := range blocks {
		if idx, ok := layout.ColumnFor(cols, b.BBox); ok && idx == colIdx {
			out = append(out, b)
		}
	}
	return out
}

// nearestBlock selects the nearest candidate strictly clear of the asset
// vertically, preferring the block whose bottom edge sits at or beyond the
// asset's top edge (reading-order preference), falling back to the nearest
// one under the asset's bottom edge. An exact distance tie within the
// winning direction is resolved by the lowest reading-order index; the tied
// candidate ids are returned for the report.
func nearestBlock(asset *types.Asset, candidates []types.ContentBlock) (*types.ContentBlock, []string) {
	pick := func(dist func(types.ContentBlock) float64) (*types.ContentBlock, []string) {
		bestDist := math.Inf(1)
		for _, b := range candidates {
			if d := dist(b); d >= 0 && d < bestDist {
				bestDist = d
			}
		}
		if math.IsInf(bestDist, 1) {
			return nil, nil
		}
		var best *types.ContentBlock
		var tied []string
		for i := range candidates {
			if dist(candidates[i]) != bestDist {
				continue
			}
			tied = append(tied, candidates[i].ID)
			if best == nil || candidates[i].ReadingOrder < best.ReadingOrder {
				best = &candidates[i]
			}
		}
		sort.Strings(tied)
		return best, tied
	}

	// Preferred direction first: block bottom at or above the asset top.
	if block, tied := pick(func(b types.ContentBlock) float64 {
		return b.BBox.Y0 - asset.BBox.Y1
	}); block != nil {
		return block, tied
	}

	return pick(func(b types.ContentBlock) float64 {
		return asset.BBox.Y0 - b.BBox.Y1
	})
}

// normalize computes the asset's column-relative bbox and records any
// coordinate outside [0,1] beyond the run tolerance. Violations are
// reported, never fatal.
func normalize(asset *types.Asset, col layout.Column) (*types.NormalizedBBox, []GeometryViolation) {
	w, h := col.Width(), col.Height()
	if w <= 0 || h <= 0 {
		return &types.NormalizedBBox{}, []GeometryViolation{
			{AssetID: asset.ID, Field: "column", Value: 0},
		}
	}

	nb := &types.NormalizedBBox{
		X: (asset.BBox.X0 - col.XMin) / w,
		Y: (asset.BBox.Y0 - col.YMin) / h,
		W: asset.BBox.Width() / w,
		H: asset.BBox.Height() / h,
	}

	// Tolerance is max(2pt, 1% of the larger column dimension), expressed in
	// the normalized space of each axis.
	tolPt := math.Max(2.0, 0.01*math.Max(w, h))

	var violations []GeometryViolation
	check := func(field string, value, dim float64) {
		tol := tolPt / dim
		if value < -tol || value > 1+tol {
			violations = append(violations, GeometryViolation{AssetID: asset.ID, Field: field, Value: value})
		}
	}
	check("x", nb.X, w)
	check("y", nb.Y, h)
	check("w", nb.W, w)
	check("h", nb.H, h)

	return nb, violations
}

// assetPages returns the sorted distinct pages carrying assets.
func assetPages(ledger *types.AssetLedger) []int {
	seen := make(map[int]bool)
	var pages []int
	for _, a := range ledger.Assets {
		if !seen[a.Page] {
			seen[a.Page] = true
			pages = append(pages, a.Page)
		}
	}
	sort.Ints(pages)
	return pages
}
