package layout

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"doctrans/internal/types"
)

func block(id string, x0, y0, x1, y1 float64) types.ContentBlock {
	return types.ContentBlock{
		ID:   id,
		Page: 1,
		BBox: types.BBox{X0: x0, Y0: y0, X1: x1, Y1: y1},
	}
}

func TestDetectColumns_TwoColumnPage(t *testing.T) {
	// Typical two-column print page: left column ends at x=290, right
	// column starts at x=320.
	var blocks []types.ContentBlock
	for i := 0; i < 5; i++ {
		y := float64(700 - i*100)
		blocks = append(blocks, block(fmt.Sprintf("l%d", i), 50, y, 290, y+80))
		blocks = append(blocks, block(fmt.Sprintf("r%d", i), 320, y, 560, y+80))
	}

	cols := NewColumnDetector().DetectColumns(blocks)
	require.Len(t, cols, 2)

	// Ordered left to right, non-overlapping.
	assert.Less(t, cols[0].XMax, cols[1].XMin)
	assert.LessOrEqual(t, cols[0].XMin, 50.0)
	assert.GreaterOrEqual(t, cols[1].XMax, 560.0)

	// Vertical extents cover the assigned blocks.
	assert.LessOrEqual(t, cols[0].YMin, 300.0)
	assert.GreaterOrEqual(t, cols[0].YMax, 780.0)
}

func TestDetectColumns_SingleColumn(t *testing.T) {
	blocks := []types.ContentBlock{
		block("b1", 72, 600, 540, 700),
		block("b2", 72, 450, 540, 580),
		block("b3", 72, 300, 540, 430),
	}

	cols := NewColumnDetector().DetectColumns(blocks)
	require.Len(t, cols, 1)
	assert.LessOrEqual(t, cols[0].XMin, 72.0)
	assert.GreaterOrEqual(t, cols[0].XMax, 540.0)
}

func TestDetectColumns_NoBlocks(t *testing.T) {
	cols := NewColumnDetector().DetectColumns(nil)
	assert.Empty(t, cols)
}

func TestDetectColumns_NarrowBandMerged(t *testing.T) {
	// A thin marginalia strip just right of the main column must not spawn
	// a phantom third column.
	blocks := []types.ContentBlock{
		block("main1", 50, 500, 280, 600),
		block("main2", 50, 300, 280, 480),
		block("note", 300, 500, 330, 540),
		block("right1", 360, 500, 560, 600),
	}

	cols := NewColumnDetector().DetectColumns(blocks)
	assert.LessOrEqual(t, len(cols), 2)
}

func TestDetectColumns_EveryBlockAssignable(t *testing.T) {
	// Whatever the clustering decides, every input block must resolve to
	// one of the detected columns with at least half its span covered.
	var blocks []types.ContentBlock
	for i := 0; i < 4; i++ {
		y := float64(600 - i*120)
		blocks = append(blocks, block(fmt.Sprintf("a%d", i), 40, y, 290, y+100))
		blocks = append(blocks, block(fmt.Sprintf("b%d", i), 330, y, 580, y+100))
	}

	cols := NewColumnDetector().DetectColumns(blocks)
	require.NotEmpty(t, cols)

	for _, b := range blocks {
		_, ok := ColumnFor(cols, b.BBox)
		assert.True(t, ok, "block %s has no column", b.ID)
	}
}

func TestColumnFor(t *testing.T) {
	cols := []Column{
		{XMin: 50, XMax: 290, YMin: 100, YMax: 700},
		{XMin: 320, XMax: 560, YMin: 100, YMax: 700},
	}

	tests := []struct {
		name    string
		bbox    types.BBox
		wantIdx int
		wantOK  bool
	}{
		{
			name:    "fully inside left column",
			bbox:    types.BBox{X0: 60, Y0: 200, X1: 280, Y1: 300},
			wantIdx: 0,
			wantOK:  true,
		},
		{
			name:    "fully inside right column",
			bbox:    types.BBox{X0: 330, Y0: 200, X1: 550, Y1: 300},
			wantIdx: 1,
			wantOK:  true,
		},
		{
			name:   "straddles the gap with under half overlap each",
			bbox:   types.BBox{X0: 100, Y0: 200, X1: 520, Y1: 300},
			wantOK: false,
		},
		{
			name:    "mostly left with slight spill",
			bbox:    types.BBox{X0: 60, Y0: 200, X1: 300, Y1: 300},
			wantIdx: 0,
			wantOK:  true,
		},
		{
			name:   "entirely outside all columns",
			bbox:   types.BBox{X0: 600, Y0: 200, X1: 700, Y1: 300},
			wantOK: false,
		},
		{
			name:   "zero-width box never resolves",
			bbox:   types.BBox{X0: 100, Y0: 200, X1: 100, Y1: 300},
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			idx, ok := ColumnFor(cols, tt.bbox)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, tt.wantIdx, idx)
			}
		})
	}
}

func TestColumn_Dimensions(t *testing.T) {
	c := Column{XMin: 50, XMax: 290, YMin: 100, YMax: 700}
	assert.Equal(t, 240.0, c.Width())
	assert.Equal(t, 600.0, c.Height())
}
