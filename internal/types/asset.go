package types

import "fmt"

// AssetKind discriminates the supported visual asset types.
type AssetKind string

const (
	AssetImage           AssetKind = "image"
	AssetVectorGraphic   AssetKind = "vector_graphic"
	AssetTableSnapshot   AssetKind = "table_snapshot"
	AssetTableStructured AssetKind = "table_structured"
)

// IsValidAssetKind checks if the given kind is a declared asset kind.
func IsValidAssetKind(kind AssetKind) bool {
	switch kind {
	case AssetImage, AssetVectorGraphic, AssetTableSnapshot, AssetTableStructured:
		return true
	default:
		return false
	}
}

// Asset is a visual element on a page. The optional fields are populated per
// kind and validated at construction; AnchorTo and NormalizedBBox are written
// exclusively by the asset ledger during anchoring.
type Asset struct {
	ID   string    `json:"id"`
	Page int       `json:"page"`
	Kind AssetKind `json:"kind"`
	BBox BBox      `json:"bbox"`

	// Image and table-snapshot assets carry a rendered file.
	SourcePath string `json:"source_path,omitempty"`
	DPI        int    `json:"dpi,omitempty"`

	// Structured tables carry their cell grid dimensions.
	Rows int `json:"rows,omitempty"`
	Cols int `json:"cols,omitempty"`

	// Anchoring output. Empty AnchorTo means the asset is unanchored.
	AnchorTo       string          `json:"anchor_to,omitempty"`
	NormalizedBBox *NormalizedBBox `json:"normalized_bbox,omitempty"`
}

// NewAsset creates an asset and validates the kind-specific fields.
func NewAsset(id string, page int, kind AssetKind, bbox BBox) (*Asset, error) {
	if id == "" {
		return nil, NewAppError(ErrInvalidInput, "asset without id", nil)
	}
	if page < 0 {
		return nil, NewAppErrorWithDetails(ErrInvalidInput, "asset with negative page",
			fmt.Sprintf("%s: page %d", id, page), nil)
	}
	if !IsValidAssetKind(kind) {
		return nil, NewAppErrorWithDetails(ErrInvalidInput, "unknown asset kind", string(kind), nil)
	}
	if !bbox.IsValid() {
		return nil, NewAppErrorWithDetails(ErrInvalidInput, "asset with invalid bbox", id, nil)
	}
	return &Asset{ID: id, Page: page, Kind: kind, BBox: bbox}, nil
}

// Validate checks the kind-specific optional fields.
func (a *Asset) Validate() error {
	if !IsValidAssetKind(a.Kind) {
		return NewAppErrorWithDetails(ErrInvalidInput, "unknown asset kind", string(a.Kind), nil)
	}
	if a.Page < 0 {
		return NewAppErrorWithDetails(ErrInvalidInput, "asset with negative page",
			fmt.Sprintf("%s: page %d", a.ID, a.Page), nil)
	}
	switch a.Kind {
	case AssetTableStructured:
		if a.Rows < 0 || a.Cols < 0 {
			return NewAppErrorWithDetails(ErrInvalidInput, "structured table with negative dimensions",
				fmt.Sprintf("asset %s: %dx%d", a.ID, a.Rows, a.Cols), nil)
		}
	case AssetImage, AssetTableSnapshot:
		if a.DPI < 0 {
			return NewAppErrorWithDetails(ErrInvalidInput, "asset with negative DPI", a.ID, nil)
		}
	}
	return nil
}

// AssetLedger owns the assets of one document and is the sole writer of their
// anchoring fields. A ledger is never mutated concurrently; the anchoring run
// that produced it owns it until it is handed downstream.
type AssetLedger struct {
	Assets []*Asset `json:"assets"`
}

// AssetsOnPage returns the assets belonging to the given page.
func (l *AssetLedger) AssetsOnPage(page int) []*Asset {
	var assets []*Asset
	for _, a := range l.Assets {
		if a.Page == page {
			assets = append(assets, a)
		}
	}
	return assets
}

// Asset returns the asset with the given id.
func (l *AssetLedger) Asset(id string) (*Asset, bool) {
	for _, a := range l.Assets {
		if a.ID == id {
			return a, true
		}
	}
	return nil, false
}

// SetAnchor records the anchoring result for one asset.
func (l *AssetLedger) SetAnchor(assetID, blockID string, nb *NormalizedBBox) error {
	a, ok := l.Asset(assetID)
	if !ok {
		return NewAppErrorWithDetails(ErrInvalidInput, "unknown asset", assetID, nil)
	}
	a.AnchorTo = blockID
	a.NormalizedBBox = nb
	return nil
}

// ClearAnchors resets all anchoring fields, so a re-run starts from a clean
// ledger state.
func (l *AssetLedger) ClearAnchors() {
	for _, a := range l.Assets {
		a.AnchorTo = ""
		a.NormalizedBBox = nil
	}
}

// MarkerID returns the deterministic marker identifier for an asset id:
// uppercased, dashes folded to underscores, under an ASSET_ prefix that
// keeps marker ids out of the PH### namespace. It matches the id the
// placeholder codec derives from an in-text [[asset-id]] marker.
func MarkerID(assetID string) string {
	out := make([]byte, len(assetID))
	for i := 0; i < len(assetID); i++ {
		c := assetID[i]
		switch {
		case c == '-':
			out[i] = '_'
		case c >= 'a' && c <= 'z':
			out[i] = c - ('a' - 'A')
		default:
			out[i] = c
		}
	}
	return "ASSET_" + string(out)
}
