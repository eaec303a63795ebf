// Package types defines the core data model shared across the translation
// pipeline: page geometry, content blocks, visual assets and the asset ledger,
// plus the application error taxonomy.
package types

import "fmt"

// BBox is a rectangle in page coordinates. The origin is the bottom-left
// corner of the page and y increases upward.
type BBox struct {
	X0 float64 `json:"x0"`
	Y0 float64 `json:"y0"`
	X1 float64 `json:"x1"`
	Y1 float64 `json:"y1"`
}

// NewBBox creates a BBox and validates the corner ordering.
func NewBBox(x0, y0, x1, y1 float64) (BBox, error) {
	b := BBox{X0: x0, Y0: y0, X1: x1, Y1: y1}
	if !b.IsValid() {
		return BBox{}, NewAppErrorWithDetails(ErrInvalidInput, "invalid bounding box",
			fmt.Sprintf("(%.2f,%.2f,%.2f,%.2f)", x0, y0, x1, y1), nil)
	}
	return b, nil
}

// IsValid reports whether the corners are ordered (x1 >= x0, y1 >= y0).
func (b BBox) IsValid() bool {
	return b.X1 >= b.X0 && b.Y1 >= b.Y0
}

// Width returns the horizontal extent of the box.
func (b BBox) Width() float64 {
	return b.X1 - b.X0
}

// Height returns the vertical extent of the box.
func (b BBox) Height() float64 {
	return b.Y1 - b.Y0
}

// Area returns the area of the box.
func (b BBox) Area() float64 {
	return b.Width() * b.Height()
}

// Center returns the center point of the box.
func (b BBox) Center() (float64, float64) {
	return (b.X0 + b.X1) / 2, (b.Y0 + b.Y1) / 2
}

// HorizontalOverlap returns the width of the horizontal intersection of two
// boxes, or 0 when their x spans are disjoint.
func (b BBox) HorizontalOverlap(other BBox) float64 {
	left := b.X0
	if other.X0 > left {
		left = other.X0
	}
	right := b.X1
	if other.X1 < right {
		right = other.X1
	}
	if right <= left {
		return 0
	}
	return right - left
}

// NormalizedBBox expresses an asset's position as fractions of its containing
// column's width and height. Recomputed on every anchoring run; each field is
// expected to land in [0,1] up to the anchoring geometry tolerance.
type NormalizedBBox struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	W float64 `json:"w"`
	H float64 `json:"h"`
}
