package model

import "time"

// ResearchReport represents the complete structured fact-checking report
// for one research question, including everything merged in from follow-up
// targeted verification during a live session.
type ResearchReport struct {
	Query   string  `json:"query"`   // The original research question
	Summary Summary `json:"summary"` // Executive view of the findings

	Claims  []Claim  `json:"claims"`  // Extracted factual assertions
	Sources []Source `json:"sources"` // Deduplicated cited origins

	Disputes []Dispute `json:"disputes,omitempty"` // Topics where sources disagree

	Metadata Metadata `json:"metadata"` // Counts and derived statistics

	VoiceSummary string `json:"voice_response,omitempty"` // Short spoken-delivery payload

	GroundingTrace *GroundingTrace `json:"grounding_trace,omitempty"` // Raw search-stage provenance
}

// Summary is the executive view of a report
type Summary struct {
	ExecutiveSummary  string   `json:"executive_summary"`
	KeyFindings       []string `json:"key_findings"`
	ConfidenceOverall float64  `json:"confidence_overall"` // [0,1]
	GapsIdentified    []string `json:"gaps_identified"`
}

// Metadata holds counts and derived statistics.
// ClaimsExtracted and SourcesAnalyzed track len(Claims) and len(Sources)
// exactly, including after merges.
type Metadata struct {
	ResearchTimestamp time.Time `json:"research_timestamp"`
	SourcesAnalyzed   int       `json:"sources_analyzed"`
	ClaimsExtracted   int       `json:"claims_extracted"`
	VerificationRate  float64   `json:"verification_rate"` // (verified+partial) / total claims
}

// GroundingTrace records the raw provenance from the search stage
type GroundingTrace struct {
	SearchQueries []string    `json:"search_queries"`
	WebSources    []WebSource `json:"web_sources"`
}

// Validation results are kept outside the synthesis contract so the report
// JSON stays a pure projection of what the two stages produced.
type ReportValidation struct {
	Results []ValidationResult `json:"results"`
}

// Depth is the coarse control over search-stage thoroughness
type Depth string

const (
	DepthQuick    Depth = "quick"
	DepthStandard Depth = "standard"
	DepthDeep     Depth = "deep"
)

// CountClaims recomputes the metadata counters from the report content
func (r *ResearchReport) CountClaims() {
	r.Metadata.ClaimsExtracted = len(r.Claims)
	r.Metadata.SourcesAnalyzed = len(r.Sources)
}

// SourceByID returns the source with the given id, or nil
func (r *ResearchReport) SourceByID(id string) *Source {
	for i := range r.Sources {
		if r.Sources[i].SourceID == id {
			return &r.Sources[i]
		}
	}
	return nil
}
