package merge

import (
	"fmt"

	"github.com/factlens/factlens/internal/model"
	"github.com/factlens/factlens/internal/util"
)

// Merger folds report fragments produced by follow-up targeted verification
// into a running report.
//
// Sources are deduplicated by normalized URL; claims are appended without
// deduplication. The asymmetry is deliberate: each follow-up query is assumed
// to explore new ground and claim IDs are namespaced per synthesis call, so
// replaying the same fragment duplicates claims but never sources. Revisit
// only as an explicit configuration choice, not a silent fix.
type Merger struct{}

// NewMerger creates a new merger
func NewMerger() *Merger {
	return &Merger{}
}

// Merge combines a base report with a fragment into a new report. It is a
// pure function: neither input is mutated. A malformed fragment (nil, a
// claim without id/text or with an invalid status, a source without an id)
// yields the base unchanged plus a warning. The fragment's query is not
// checked: fragments are keyed by their claims, not their query text.
func (m *Merger) Merge(base *model.ResearchReport, fragment *model.ResearchReport) (*model.ResearchReport, []string) {
	if base == nil {
		return nil, []string{"merge skipped: base report is nil"}
	}
	if err := validateFragment(fragment); err != nil {
		return base, []string{fmt.Sprintf("merge skipped: %v", err)}
	}

	merged := cloneReport(base)

	// Claims: simple append, never deduplicated.
	merged.Claims = append(merged.Claims, fragment.Claims...)

	// Sources: incoming entries whose URL matches an existing one are dropped.
	existing := make(map[string]bool, len(merged.Sources))
	for _, src := range merged.Sources {
		existing[util.NormalizeURL(src.URL)] = true
	}
	for _, src := range fragment.Sources {
		key := util.NormalizeURL(src.URL)
		if existing[key] {
			continue
		}
		existing[key] = true
		merged.Sources = append(merged.Sources, src)
	}

	// Key findings append; every other summary field stays the base's.
	merged.Summary.KeyFindings = append(merged.Summary.KeyFindings, fragment.Summary.KeyFindings...)

	merged.Disputes = append(merged.Disputes, fragment.Disputes...)

	// Counters track the merged lists exactly.
	merged.CountClaims()

	return merged, nil
}

// validateFragment rejects fragments missing the fields a merge depends on
func validateFragment(fragment *model.ResearchReport) error {
	if fragment == nil {
		return fmt.Errorf("fragment is nil")
	}
	if len(fragment.Claims) == 0 && len(fragment.Sources) == 0 && len(fragment.Summary.KeyFindings) == 0 {
		// Empty fragments are valid no-ops, not errors.
		return nil
	}
	for _, claim := range fragment.Claims {
		if claim.ClaimID == "" || claim.ClaimText == "" {
			return fmt.Errorf("fragment claim missing id or text")
		}
		if !claim.VerificationStatus.Valid() {
			return fmt.Errorf("fragment claim %s has invalid verification status %q", claim.ClaimID, claim.VerificationStatus)
		}
	}
	for _, src := range fragment.Sources {
		if src.SourceID == "" {
			return fmt.Errorf("fragment source missing source_id")
		}
	}
	return nil
}

// cloneReport copies the report deeply enough that merges never alias the
// base's slices: readers of a previous snapshot must not observe changes.
func cloneReport(r *model.ResearchReport) *model.ResearchReport {
	clone := *r

	clone.Claims = append([]model.Claim(nil), r.Claims...)
	clone.Sources = append([]model.Source(nil), r.Sources...)
	clone.Disputes = append([]model.Dispute(nil), r.Disputes...)
	clone.Summary.KeyFindings = append([]string(nil), r.Summary.KeyFindings...)
	clone.Summary.GapsIdentified = append([]string(nil), r.Summary.GapsIdentified...)

	if r.GroundingTrace != nil {
		trace := *r.GroundingTrace
		trace.SearchQueries = append([]string(nil), r.GroundingTrace.SearchQueries...)
		trace.WebSources = append([]model.WebSource(nil), r.GroundingTrace.WebSources...)
		clone.GroundingTrace = &trace
	}

	return &clone
}
