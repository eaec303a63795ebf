package types

import (
	"fmt"
	"sort"
)

// ContentBlock is one unit of extracted text with its position on the page.
// Blocks are produced by the external extraction stage and are never mutated
// by the pipeline.
type ContentBlock struct {
	ID           string `json:"id"`
	Page         int    `json:"page"`
	BBox         BBox   `json:"bbox"`
	ReadingOrder int    `json:"reading_order"`
	Text         string `json:"text"`
}

// Document is the ordered set of content blocks of one source document.
type Document struct {
	Name   string         `json:"name,omitempty"`
	Blocks []ContentBlock `json:"blocks"`
}

// BlocksOnPage returns the blocks belonging to the given page, in their
// original order.
func (d *Document) BlocksOnPage(page int) []ContentBlock {
	var blocks []ContentBlock
	for _, b := range d.Blocks {
		if b.Page == page {
			blocks = append(blocks, b)
		}
	}
	return blocks
}

// Pages returns the sorted distinct page numbers that carry blocks.
func (d *Document) Pages() []int {
	seen := make(map[int]bool)
	var pages []int
	for _, b := range d.Blocks {
		if !seen[b.Page] {
			seen[b.Page] = true
			pages = append(pages, b.Page)
		}
	}
	sort.Ints(pages)
	return pages
}

// Block returns the block with the given id.
func (d *Document) Block(id string) (*ContentBlock, bool) {
	for i := range d.Blocks {
		if d.Blocks[i].ID == id {
			return &d.Blocks[i], true
		}
	}
	return nil, false
}

// Validate checks structural invariants of the document: non-empty unique
// block ids and valid bounding boxes.
func (d *Document) Validate() error {
	seen := make(map[string]bool, len(d.Blocks))
	for _, b := range d.Blocks {
		if b.ID == "" {
			return NewAppError(ErrInvalidInput, "content block without id", nil)
		}
		if seen[b.ID] {
			return NewAppErrorWithDetails(ErrInvalidInput, "duplicate content block id", b.ID, nil)
		}
		seen[b.ID] = true
		if !b.BBox.IsValid() {
			return NewAppErrorWithDetails(ErrInvalidInput, "content block with invalid bbox",
				fmt.Sprintf("block %s", b.ID), nil)
		}
	}
	return nil
}
