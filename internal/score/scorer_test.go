package score

import (
	"testing"

	"github.com/factlens/factlens/internal/model"
)

func TestScorer_VerificationRate(t *testing.T) {
	tests := []struct {
		name     string
		statuses []model.VerificationStatus
		want     float64
	}{
		{
			name:     "all verified",
			statuses: []model.VerificationStatus{model.StatusVerified, model.StatusVerified},
			want:     1.0,
		},
		{
			name:     "partial counts as supported",
			statuses: []model.VerificationStatus{model.StatusVerified, model.StatusPartial, model.StatusUnverified, model.StatusGap},
			want:     0.5,
		},
		{
			name:     "nothing supported",
			statuses: []model.VerificationStatus{model.StatusDisputed, model.StatusGap},
			want:     0,
		},
		{
			name:     "no claims",
			statuses: nil,
			want:     0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			report := &model.ResearchReport{}
			for i, status := range tt.statuses {
				report.Claims = append(report.Claims, model.Claim{
					ClaimID:            string(rune('a' + i)),
					ClaimText:          "claim",
					VerificationStatus: status,
				})
			}

			NewScorer().Apply(report)

			if report.Metadata.VerificationRate != tt.want {
				t.Errorf("Expected rate %f, got %f", tt.want, report.Metadata.VerificationRate)
			}
			if report.Metadata.ClaimsExtracted != len(tt.statuses) {
				t.Errorf("Expected claims_extracted %d, got %d", len(tt.statuses), report.Metadata.ClaimsExtracted)
			}
		})
	}
}

func TestScorer_SurfacesGapClaims(t *testing.T) {
	report := &model.ResearchReport{
		Summary: model.Summary{GapsIdentified: []string{"existing gap"}},
		Claims: []model.Claim{
			{ClaimID: "c1", ClaimText: "unstudied effect", VerificationStatus: model.StatusGap},
			{ClaimID: "c2", ClaimText: "well known fact", VerificationStatus: model.StatusVerified},
		},
	}

	NewScorer().Apply(report)

	if len(report.Summary.GapsIdentified) != 2 {
		t.Fatalf("Expected 2 gaps, got %v", report.Summary.GapsIdentified)
	}
	if report.Summary.GapsIdentified[1] != "No evidence found: unstudied effect" {
		t.Errorf("Unexpected surfaced gap: %q", report.Summary.GapsIdentified[1])
	}

	// Applying again must not duplicate the entry
	NewScorer().Apply(report)
	if len(report.Summary.GapsIdentified) != 2 {
		t.Errorf("Expected gaps stable at 2, got %d", len(report.Summary.GapsIdentified))
	}
}

func TestMeanCredibility(t *testing.T) {
	sources := []model.Source{
		{SourceID: "s1", CredibilityScore: 0.9},
		{SourceID: "s2", CredibilityScore: 0.5},
	}

	if got := MeanCredibility(sources); got != 0.7 {
		t.Errorf("Expected 0.7, got %f", got)
	}
	if got := MeanCredibility(nil); got != 0 {
		t.Errorf("Expected 0 for empty sources, got %f", got)
	}
}
