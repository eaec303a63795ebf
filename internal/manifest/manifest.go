// Package manifest handles the pipeline's file surface: loading the
// extraction stage's document and asset ledger, and persisting per-run
// artifacts (asset manifest, anchoring report, per-language results) for the
// downstream publishing stages.
package manifest

import (
	"encoding/json"
	"os"
	"path/filepath"

	"doctrans/internal/anchor"
	"doctrans/internal/logger"
	"doctrans/internal/translate"
	"doctrans/internal/types"
)

// LoadDocument reads a document JSON file produced by the extraction stage.
func LoadDocument(path string) (*types.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, types.NewAppError(types.ErrFileNotFound, "failed to read document file", err)
	}

	var doc types.Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, types.NewAppErrorWithDetails(types.ErrInvalidInput, "failed to parse document file", path, err)
	}
	if err := doc.Validate(); err != nil {
		return nil, err
	}
	return &doc, nil
}

// LoadLedger reads an asset ledger JSON file.
func LoadLedger(path string) (*types.AssetLedger, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, types.NewAppError(types.ErrFileNotFound, "failed to read asset ledger file", err)
	}

	var ledger types.AssetLedger
	if err := json.Unmarshal(data, &ledger); err != nil {
		return nil, types.NewAppErrorWithDetails(types.ErrInvalidInput, "failed to parse asset ledger file", path, err)
	}
	for _, a := range ledger.Assets {
		if err := a.Validate(); err != nil {
			return nil, err
		}
	}
	return &ledger, nil
}

// ManifestEntry is one asset's serialized anchoring result, keyed by asset
// id in the manifest file.
type ManifestEntry struct {
	Page           int                   `json:"page"`
	Kind           types.AssetKind       `json:"kind"`
	BBox           types.BBox            `json:"bbox"`
	AnchorTo       string                `json:"anchor_to,omitempty"`
	NormalizedBBox *types.NormalizedBBox `json:"normalized_bbox,omitempty"`
}

// BuildManifest serializes a ledger as a manifest keyed by asset id.
func BuildManifest(ledger *types.AssetLedger) map[string]ManifestEntry {
	entries := make(map[string]ManifestEntry, len(ledger.Assets))
	for _, a := range ledger.Assets {
		entries[a.ID] = ManifestEntry{
			Page:           a.Page,
			Kind:           a.Kind,
			BBox:           a.BBox,
			AnchorTo:       a.AnchorTo,
			NormalizedBBox: a.NormalizedBBox,
		}
	}
	return entries
}

// Store persists per-run artifacts under a base directory, one subdirectory
// per document name.
type Store struct {
	baseDir string
}

// NewStore creates the base directory and returns a Store.
func NewStore(baseDir string) (*Store, error) {
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, types.NewAppError(types.ErrConfig, "failed to create output directory", err)
	}
	return &Store{baseDir: baseDir}, nil
}

// RunDir returns the artifact directory for one document.
func (s *Store) RunDir(name string) string {
	return filepath.Join(s.baseDir, name)
}

// SaveManifest writes the asset manifest for one document.
func (s *Store) SaveManifest(name string, ledger *types.AssetLedger) error {
	return s.writeJSON(name, "asset-manifest.json", BuildManifest(ledger))
}

// SaveAnchoringReport writes the anchoring report for one document.
func (s *Store) SaveAnchoringReport(name string, report *anchor.Report) error {
	return s.writeJSON(name, "anchoring-report.json", report)
}

// SaveResult writes one language's translation result.
func (s *Store) SaveResult(name, lang string, result *translate.Result) error {
	return s.writeJSON(name, "result-"+lang+".json", result)
}

// SaveTranslatedDocument writes one language's translated document.
func (s *Store) SaveTranslatedDocument(name, lang string, doc *types.Document) error {
	return s.writeJSON(name, "document-"+lang+".json", doc)
}

func (s *Store) writeJSON(name, file string, v interface{}) error {
	dir := s.RunDir(name)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return types.NewAppError(types.ErrConfig, "failed to create run directory", err)
	}

	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return types.NewAppError(types.ErrInternal, "failed to marshal artifact", err)
	}

	path := filepath.Join(dir, file)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return types.NewAppError(types.ErrInternal, "failed to write artifact", err)
	}

	logger.Debug("artifact saved", logger.String("path", path))
	return nil
}
