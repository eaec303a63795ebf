package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewBBox(t *testing.T) {
	b, err := NewBBox(10, 20, 110, 220)
	require.NoError(t, err)
	assert.Equal(t, 100.0, b.Width())
	assert.Equal(t, 200.0, b.Height())
	assert.Equal(t, 20000.0, b.Area())

	cx, cy := b.Center()
	assert.Equal(t, 60.0, cx)
	assert.Equal(t, 120.0, cy)

	_, err = NewBBox(110, 20, 10, 220)
	assert.Error(t, err)
	_, err = NewBBox(10, 220, 110, 20)
	assert.Error(t, err)
}

func TestBBox_HorizontalOverlap(t *testing.T) {
	tests := []struct {
		name string
		a, b BBox
		want float64
	}{
		{
			name: "partial overlap",
			a:    BBox{X0: 0, X1: 100},
			b:    BBox{X0: 60, X1: 160},
			want: 40,
		},
		{
			name: "containment",
			a:    BBox{X0: 0, X1: 100},
			b:    BBox{X0: 20, X1: 80},
			want: 60,
		},
		{
			name: "disjoint",
			a:    BBox{X0: 0, X1: 100},
			b:    BBox{X0: 150, X1: 250},
			want: 0,
		},
		{
			name: "touching edges",
			a:    BBox{X0: 0, X1: 100},
			b:    BBox{X0: 100, X1: 200},
			want: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.a.HorizontalOverlap(tt.b))
			assert.Equal(t, tt.want, tt.b.HorizontalOverlap(tt.a))
		})
	}
}

func TestNewAsset_KindValidation(t *testing.T) {
	bbox := BBox{X0: 0, Y0: 0, X1: 100, Y1: 100}

	for _, kind := range []AssetKind{AssetImage, AssetVectorGraphic, AssetTableSnapshot, AssetTableStructured} {
		a, err := NewAsset("a1", 1, kind, bbox)
		require.NoError(t, err, "kind %s", kind)
		assert.Equal(t, kind, a.Kind)
	}

	_, err := NewAsset("a1", 1, AssetKind("hologram"), bbox)
	assert.Error(t, err)
	_, err = NewAsset("", 1, AssetImage, bbox)
	assert.Error(t, err)
	_, err = NewAsset("a1", -1, AssetImage, bbox)
	assert.Error(t, err)

	// Page 0 is a legal page index for zero-based ledgers.
	a, err := NewAsset("a1", 0, AssetImage, bbox)
	require.NoError(t, err)
	assert.NoError(t, a.Validate())
}

func TestAssetLedger_SetAndClearAnchors(t *testing.T) {
	a, err := NewAsset("fig-1", 1, AssetImage, BBox{X0: 0, Y0: 0, X1: 10, Y1: 10})
	require.NoError(t, err)
	ledger := &AssetLedger{Assets: []*Asset{a}}

	nb := &NormalizedBBox{X: 0.1, Y: 0.2, W: 0.3, H: 0.4}
	require.NoError(t, ledger.SetAnchor("fig-1", "b1", nb))

	got, ok := ledger.Asset("fig-1")
	require.True(t, ok)
	assert.Equal(t, "b1", got.AnchorTo)
	assert.Equal(t, nb, got.NormalizedBBox)

	assert.Error(t, ledger.SetAnchor("nope", "b1", nb))

	ledger.ClearAnchors()
	got, _ = ledger.Asset("fig-1")
	assert.Empty(t, got.AnchorTo)
	assert.Nil(t, got.NormalizedBBox)
}

func TestAssetLedger_AssetsOnPage(t *testing.T) {
	mk := func(id string, page int) *Asset {
		a, err := NewAsset(id, page, AssetImage, BBox{X0: 0, Y0: 0, X1: 10, Y1: 10})
		require.NoError(t, err)
		return a
	}
	ledger := &AssetLedger{Assets: []*Asset{mk("a", 1), mk("b", 2), mk("c", 1)}}

	onPage1 := ledger.AssetsOnPage(1)
	require.Len(t, onPage1, 2)
	assert.Equal(t, "a", onPage1[0].ID)
	assert.Equal(t, "c", onPage1[1].ID)
	assert.Empty(t, ledger.AssetsOnPage(3))
}

func TestMarkerID(t *testing.T) {
	tests := []struct {
		assetID string
		want    string
	}{
		{assetID: "fig-1", want: "ASSET_FIG_1"},
		{assetID: "img-p3-001", want: "ASSET_IMG_P3_001"},
		{assetID: "Table2", want: "ASSET_TABLE2"},
	}

	for _, tt := range tests {
		t.Run(tt.assetID, func(t *testing.T) {
			assert.Equal(t, tt.want, MarkerID(tt.assetID))
		})
	}
}

func TestDocument_PagesAndBlocks(t *testing.T) {
	doc := &Document{
		Name: "doc",
		Blocks: []ContentBlock{
			{ID: "b3", Page: 3, BBox: BBox{X1: 1, Y1: 1}},
			{ID: "b1", Page: 1, BBox: BBox{X1: 1, Y1: 1}},
			{ID: "b1b", Page: 1, BBox: BBox{X1: 1, Y1: 1}},
		},
	}

	assert.Equal(t, []int{1, 3}, doc.Pages())
	assert.Len(t, doc.BlocksOnPage(1), 2)
	assert.Empty(t, doc.BlocksOnPage(2))

	b, ok := doc.Block("b3")
	require.True(t, ok)
	assert.Equal(t, 3, b.Page)
	_, ok = doc.Block("missing")
	assert.False(t, ok)
}

func TestAppError(t *testing.T) {
	cause := NewAppError(ErrInternal, "inner", nil)
	err := NewAppErrorWithDetails(ErrConfig, "outer", "some detail", cause)

	assert.Equal(t, "outer: some detail", err.Error())
	assert.Equal(t, cause, err.Unwrap())
	assert.Equal(t, ErrConfig, err.Code)
}
