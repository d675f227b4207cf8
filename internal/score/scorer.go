package score

import (
	"fmt"

	"github.com/factlens/factlens/internal/model"
)

// Scorer computes the derived report statistics: the verification rate,
// surfacing of gap claims the model left out of the summary, and the mean
// source credibility. It never overrides the model's own per-claim or
// per-source assessments.
type Scorer struct{}

// NewScorer creates a new scorer
func NewScorer() *Scorer {
	return &Scorer{}
}

// Apply recomputes the metadata statistics in place. Called once when a
// report reaches DONE and again after every merge.
func (s *Scorer) Apply(report *model.ResearchReport) {
	report.CountClaims()
	report.Metadata.VerificationRate = s.verificationRate(report.Claims)
	s.surfaceGaps(report)
}

// verificationRate is the share of claims that are verified or partially
// verified
func (s *Scorer) verificationRate(claims []model.Claim) float64 {
	if len(claims) == 0 {
		return 0
	}

	supported := 0
	for _, claim := range claims {
		switch claim.VerificationStatus {
		case model.StatusVerified, model.StatusPartial:
			supported++
		}
	}

	return float64(supported) / float64(len(claims))
}

// surfaceGaps adds gap-status claims to summary.gaps_identified when the
// synthesis stage did not list them there itself
func (s *Scorer) surfaceGaps(report *model.ResearchReport) {
	listed := make(map[string]bool, len(report.Summary.GapsIdentified))
	for _, gap := range report.Summary.GapsIdentified {
		listed[gap] = true
	}

	for _, claim := range report.Claims {
		if claim.VerificationStatus != model.StatusGap {
			continue
		}
		entry := fmt.Sprintf("No evidence found: %s", claim.ClaimText)
		if !listed[entry] {
			listed[entry] = true
			report.Summary.GapsIdentified = append(report.Summary.GapsIdentified, entry)
		}
	}
}

// MeanCredibility averages the credibility scores of the report's sources.
// Returns 0 for a report without sources.
func MeanCredibility(sources []model.Source) float64 {
	if len(sources) == 0 {
		return 0
	}

	total := 0.0
	for _, src := range sources {
		total += src.CredibilityScore
	}

	return total / float64(len(sources))
}
