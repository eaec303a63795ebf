// Package anchor assigns each visual asset to the text block it accompanies,
// constrained to the asset's reading column, and reports the outcome of each
// anchoring run.
package anchor

import "fmt"

// AmbiguousMatch records an asset whose nearest-block candidates were tied.
// The tie is resolved deterministically (lowest reading order wins); the
// record exists so callers can audit the decision.
type AmbiguousMatch struct {
	AssetID      string   `json:"asset_id"`
	CandidateIDs []string `json:"candidate_ids"`
}

// GeometryViolation records a normalized coordinate that fell outside [0,1]
// beyond the run tolerance.
type GeometryViolation struct {
	AssetID string  `json:"asset_id"`
	Field   string  `json:"field"`
	Value   float64 `json:"value"`
}

// Report summarizes one anchoring run. It is immutable once the run returns.
type Report struct {
	TotalAssets        int                 `json:"total_assets"`
	AnchoredCount      int                 `json:"anchored_count"`
	UnanchoredAssets   []string            `json:"unanchored_assets"`
	AmbiguousMatches   []AmbiguousMatch    `json:"ambiguous_matches"`
	GeometryViolations []GeometryViolation `json:"geometry_violations"`
	Warnings           []string            `json:"warnings"`
}

// SuccessRate returns anchored/total, or 1 for an empty run.
func (r *Report) SuccessRate() float64 {
	if r.TotalAssets == 0 {
		return 1.0
	}
	return float64(r.AnchoredCount) / float64(r.TotalAssets)
}

// GeometryPassRate returns the fraction of anchored assets without a
// geometry violation, or 1 when nothing anchored.
func (r *Report) GeometryPassRate() float64 {
	if r.AnchoredCount == 0 {
		return 1.0
	}
	violating := make(map[string]bool)
	for _, v := range r.GeometryViolations {
		violating[v.AssetID] = true
	}
	return float64(r.AnchoredCount-len(violating)) / float64(r.AnchoredCount)
}

// IsValid reports whether the run meets the caller's thresholds.
func (r *Report) IsValid(minSuccessRate, minGeometryRate float64) bool {
	return r.SuccessRate() >= minSuccessRate && r.GeometryPassRate() >= minGeometryRate
}

// Summary returns a one-line human-readable digest of the run.
func (r *Report) Summary() string {
	return fmt.Sprintf("anchored %d/%d assets (%.1f%%), geometry pass %.1f%%, %d ambiguous, %d warnings",
		r.AnchoredCount, r.TotalAssets, r.SuccessRate()*100, r.GeometryPassRate()*100,
		len(r.AmbiguousMatches), len(r.Warnings))
}
