package reconcile

import (
	"fmt"

	"github.com/factlens/factlens/internal/extract"
	"github.com/factlens/factlens/internal/model"
	"github.com/factlens/factlens/internal/util"
)

// Reconciler maps numeric citation markers in research prose to raw grounding
// records and to the synthesis model's own source_id assignments, producing a
// unified, deduplicated source list with stable identifiers.
//
// The bracket-index convention is positional and best-effort: the upstream
// model is instructed to cite records as [1], [2] in record order, but is not
// guaranteed to comply. Mismatches are tolerated, never guessed around.
type Reconciler struct{}

// NewReconciler creates a new reconciler
func NewReconciler() *Reconciler {
	return &Reconciler{}
}

// Result contains the reconciled sources, claims with any remapped source
// references, and warnings for inconsistencies that were tolerated.
type Result struct {
	Sources  []model.Source
	Claims   []model.Claim
	Warnings []string
}

// Reconcile back-fills url/title from the raw grounding records wherever the
// synthesis stage could not supply them, drops entries left without a URL,
// and collapses duplicate URLs. Claims referencing a collapsed duplicate are
// remapped to the surviving source; claims referencing a dropped entry keep
// their dangling source_id and a warning is recorded. With no grounding
// records at all there is nothing to reconcile against and the synthesized
// sources and claims pass through unchanged.
func (r *Reconciler) Reconcile(prose string, records []model.WebSource, sources []model.Source, claims []model.Claim) Result {
	// No grounding records means nothing to reconcile against: the
	// synthesized sources pass through untouched, URL-less ones included.
	if len(records) == 0 {
		return Result{Sources: sources, Claims: claims}
	}

	markers := extract.Markers(prose)

	filled := make([]model.Source, len(sources))
	var warnings []string

	for i, src := range sources {
		// The i-th synthesized source corresponds to the i-th distinct
		// marker in prose order; absent a marker, fall back to list position.
		k := i + 1
		if i < len(markers) {
			k = markers[i]
		}

		if src.URL == "" || src.Title == "" {
			if k >= 1 && k <= len(records) {
				record := records[k-1]
				if src.URL == "" {
					src.URL = record.URI
				}
				if src.Title == "" {
					src.Title = record.Title
				}
			} else if src.URL == "" {
				// Out-of-range marker with nothing to back-fill from.
				src.SourceType = model.SourceUnknown
				warnings = append(warnings, fmt.Sprintf("source %s: citation marker [%d] has no grounding record", src.SourceID, k))
			}
		}

		if !src.SourceType.Valid() || src.SourceType == "" {
			src.SourceType = model.SourceUnknown
		}

		filled[i] = src
	}

	return r.finalize(filled, claims, warnings)
}

// finalize drops URL-less entries and collapses duplicate URLs, remapping
// claim references onto the surviving entries.
func (r *Reconciler) finalize(sources []model.Source, claims []model.Claim, warnings []string) Result {
	byURL := make(map[string]string) // normalized URL -> surviving source_id
	alias := make(map[string]string) // collapsed source_id -> surviving source_id
	dropped := make(map[string]bool)

	var final []model.Source
	for _, src := range sources {
		if src.URL == "" {
			dropped[src.SourceID] = true
			warnings = append(warnings, fmt.Sprintf("source %s dropped: no URL after reconciliation", src.SourceID))
			continue
		}

		key := util.NormalizeURL(src.URL)
		if survivor, exists := byURL[key]; exists {
			alias[src.SourceID] = survivor
			continue
		}

		byURL[key] = src.SourceID
		final = append(final, src)
	}

	known := make(map[string]bool, len(final))
	for _, src := range final {
		known[src.SourceID] = true
	}

	outClaims := make([]model.Claim, len(claims))
	for i, claim := range claims {
		for j, ref := range claim.Sources {
			if survivor, ok := alias[ref.SourceID]; ok {
				claim.Sources[j].SourceID = survivor
				continue
			}
			if dropped[ref.SourceID] || !known[ref.SourceID] {
				// Dangling reference is a reportable inconsistency, not a crash.
				warnings = append(warnings, fmt.Sprintf("claim %s references unknown source %s", claim.ClaimID, ref.SourceID))
			}
		}
		outClaims[i] = claim
	}

	return Result{
		Sources:  final,
		Claims:   outClaims,
		Warnings: warnings,
	}
}
