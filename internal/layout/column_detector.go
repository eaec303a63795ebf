// Package layout detects the vertical reading columns of a page from the
// bounding geometry of its content blocks.
package layout

import (
	"sort"

	"doctrans/internal/logger"
	"doctrans/internal/types"
)

// Column is a page-scoped horizontal band grouping blocks whose horizontal
// spans overlap, together with the vertical extent inferred from those
// blocks. Columns on a page never overlap and are ordered left to right.
type Column struct {
	XMin float64 `json:"x_min"`
	XMax float64 `json:"x_max"`
	YMin float64 `json:"y_min"`
	YMax float64 `json:"y_max"`
}

// Width returns the horizontal extent of the column.
func (c Column) Width() float64 {
	return c.XMax - c.XMin
}

// Height returns the vertical extent of the column.
func (c Column) Height() float64 {
	return c.YMax - c.YMin
}

// ColumnDetector clusters block x-extents into columns using a density
// histogram, without requiring a pre-specified column count.
type ColumnDetector struct {
	binWidth    float64 // histogram bin width in points
	minGapWidth float64 // minimum empty run treated as a column gap
	minColWidth float64 // narrower clusters are merged into a neighbor
}

// NewColumnDetector creates a detector with defaults suited to typical
// print page geometry.
func NewColumnDetector() *ColumnDetector {
	return &ColumnDetector{
		binWidth:    10.0,
		minGapWidth: 20.0,
		minColWidth: 50.0,
	}
}

// DetectColumns clusters the blocks of one page into ordered columns. Every
// block's horizontal span falls inside its assigned column with at least 50%
// overlap. Zero blocks yield an empty list; an inconclusive clustering
// degrades to a single column spanning all blocks. DetectColumns never fails.
func (d *ColumnDetector) DetectColumns(blocks []types.ContentBlock) []Column {
	if len(blocks) == 0 {
		return nil
	}

	minX, maxX := blocks[0].BBox.X0, blocks[0].BBox.X1
	for _, b := range blocks[1:] {
		if b.BBox.X0 < minX {
			minX = b.BBox.X0
		}
		if b.BBox.X1 > maxX {
			maxX = b.BBox.X1
		}
	}

	bins := int((maxX-minX)/d.binWidth) + 1
	if bins < 1 {
		bins = 1
	}

	// Occupancy histogram over x: each block marks every bin its span touches.
	histogram := make([]int, bins)
	for _, b := range blocks {
		start := int((b.BBox.X0 - minX) / d.binWidth)
		end := int((b.BBox.X1 - minX) / d.binWidth)
		if end >= bins {
			end = bins - 1
		}
		for i := start; i <= end; i++ {
			histogram[i]++
		}
	}

	bands := d.findOccupiedBands(histogram, minX)
	if len(bands) == 0 {
		bands = []Column{{XMin: minX, XMax: maxX}}
	}

	columns := d.assignVerticalExtents(bands, blocks)

	logger.Debug("column detection complete",
		logger.Int("blocks", len(blocks)),
		logger.Int("columns", len(columns)))

	return columns
}

// findOccupiedBands walks the histogram and cuts a new band wherever an
// empty run at least minGapWidth wide separates occupied bins.
func (d *ColumnDetector) findOccupiedBands(histogram []int, minX float64) []Column {
	var bands []Column
	inBand := false
	bandStart := 0
	gapBins := int(d.minGapWidth / d.binWidth)
	if gapBins < 1 {
		gapBins = 1
	}

	emptyRun := 0
	lastOccupied := -1
	for i, count := range histogram {
		if count > 0 {
			if !inBand {
				inBand = true
				bandStart = i
			}
			emptyRun = 0
			lastOccupied = i
		} else if inBand {
			emptyRun++
			if emptyRun >= gapBins {
				bands = append(bands, d.bandFromBins(bandStart, lastOccupied, minX))
				inBand = false
			}
		}
	}
	if inBand {
		bands = append(bands, d.bandFromBins(bandStart, lastOccupied, minX))
	}

	return d.mergeNarrowBands(bands)
}

func (d *ColumnDetector) bandFromBins(start, end int, minX float64) Column {
	return Column{
		XMin: minX + float64(start)*d.binWidth,
		XMax: minX + float64(end+1)*d.binWidth,
	}
}

// mergeNarrowBands folds bands narrower than minColWidth into their nearest
// neighbor so stray marginalia do not spawn phantom columns.
func (d *ColumnDetector) mergeNarrowBands(bands []Column) []Column {
	if len(bands) <= 1 {
		return bands
	}

	var merged []Column
	for _, band := range bands {
		if band.Width() < d.minColWidth && len(merged) > 0 {
			merged[len(merged)-1].XMax = band.XMax
			continue
		}
		merged = append(merged, band)
	}
	return merged
}

// assignVerticalExtents grows each band to the tight bbox of its assigned
// blocks. A block straddling two bands goes to the one with the larger
// horizontal overlap; an exact tie goes to the leftmost.
func (d *ColumnDetector) assignVerticalExtents(bands []Column, blocks []types.ContentBlock) []Column {
	type extent struct {
		xMin, xMax, yMin, yMax float64
		seen                   bool
	}
	extents := make([]extent, len(bands))

	for _, b := range blocks {
		idx := bestBand(bands, b.BBox)
		e := &extents[idx]
		if !e.seen {
			*e = extent{xMin: b.BBox.X0, xMax: b.BBox.X1, yMin: b.BBox.Y0, yMax: b.BBox.Y1, seen: true}
			continue
		}
		if b.BBox.X0 < e.xMin {
			e.xMin = b.BBox.X0
		}
		if b.BBox.X1 > e.xMax {
			e.xMax = b.BBox.X1
		}
		if b.BBox.Y0 < e.yMin {
			e.yMin = b.BBox.Y0
		}
		if b.BBox.Y1 > e.yMax {
			e.yMax = b.BBox.Y1
		}
	}

	var columns []Column
	for i, e := range extents {
		if !e.seen {
			// Band attracted no blocks after tie-breaking; drop it.
			continue
		}
		c := bands[i]
		// Widen to cover the assigned blocks so overlap checks downstream hold.
		if e.xMin < c.XMin {
			c.XMin = e.xMin
		}
		if e.xMax > c.XMax {
			c.XMax = e.xMax
		}
		c.YMin = e.yMin
		c.YMax = e.yMax
		columns = append(columns, c)
	}

	sort.Slice(columns, func(i, j int) bool {
		return columns[i].XMin < columns[j].XMin
	})
	return columns
}

// bestBand returns the index of the band with the largest horizontal overlap
// with the bbox, the leftmost winning ties.
func bestBand(bands []Column, bbox types.BBox) int {
	best := 0
	bestOverlap := -1.0
	for i, band := range bands {
		overlap := bbox.HorizontalOverlap(types.BBox{X0: band.XMin, Y0: 0, X1: band.XMax, Y1: 0})
		if overlap > bestOverlap {
			best = i
			bestOverlap = overlap
		}
	}
	return best
}

// ColumnFor resolves the column containing the bbox: the horizontal overlap
// must cover at least half of the bbox width. Returns the column index, or
// false when no column qualifies. A zero-width box overlaps nothing and
// never resolves.
func ColumnFor(columns []Column, bbox types.BBox) (int, bool) {
	best := -1
	bestOverlap := 0.0
	for i, c := range columns {
		overlap := bbox.HorizontalOverlap(types.BBox{X0: c.XMin, Y0: 0, X1: c.XMax, Y1: 0})
		if overlap > bestOverlap {
			best = i
			bestOverlap = overlap
		}
	}
	if best < 0 || bestOverlap < bbox.Width()/2 {
		return 0, false
	}
	return best, true
}
