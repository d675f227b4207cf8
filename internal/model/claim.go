package model

// Claim represents an atomic factual assertion extracted from the research prose
type Claim struct {
	ClaimID            string             `json:"claim_id"`            // Unique within one synthesis pass; fragments carry their own namespace
	ClaimText          string             `json:"claim_text"`          // The assertion itself
	VerificationStatus VerificationStatus `json:"verification_status"` // Confirmation state relative to cited sources
	Confidence         float64            `json:"confidence"`          // Model confidence in [0,1]
	Sources            []ClaimSource      `json:"sources"`             // Citations backing the claim
	VerificationChain  string             `json:"verification_chain"`  // Human-readable justification of the status
}

// ClaimSource links a claim to one source with the supporting quote
type ClaimSource struct {
	SourceID      string    `json:"source_id"`               // References an entry in Report.Sources
	VerbatimQuote string    `json:"verbatim_quote"`          // Exact text from the source
	QuoteContext  string    `json:"quote_context,omitempty"` // Surrounding context for the quote
	MatchType     MatchType `json:"match_type"`              // How the quote relates to the claim
}

// VerificationStatus is the claim's confirmation state
type VerificationStatus string

const (
	StatusVerified   VerificationStatus = "verified"   // Multiple independent sources agree
	StatusPartial    VerificationStatus = "partial"    // Some support, incomplete
	StatusUnverified VerificationStatus = "unverified" // No usable supporting evidence
	StatusDisputed   VerificationStatus = "disputed"   // Sources actively disagree
	StatusGap        VerificationStatus = "gap"        // Evidence simply does not exist yet
)

// Valid reports whether the status is one of the five accepted values
func (s VerificationStatus) Valid() bool {
	switch s {
	case StatusVerified, StatusPartial, StatusUnverified, StatusDisputed, StatusGap:
		return true
	}
	return false
}

// MatchType classifies how a verbatim quote relates to its claim
type MatchType string

const (
	MatchExact       MatchType = "exact"       // Quote states the claim directly
	MatchSemantic    MatchType = "semantic"    // Quote supports the claim in other words
	MatchPartial     MatchType = "partial"     // Quote supports part of the claim
	MatchContradicts MatchType = "contradicts" // Quote contradicts the claim
)

// Valid reports whether the match type is one of the four accepted values
func (m MatchType) Valid() bool {
	switch m {
	case MatchExact, MatchSemantic, MatchPartial, MatchContradicts:
		return true
	}
	return false
}
