package render

import (
	"fmt"
	"os"
	"strings"

	"github.com/factlens/factlens/internal/model"
	"github.com/factlens/factlens/internal/score"
)

// statusGlyph maps a verification status to its display marker
func statusGlyph(s model.VerificationStatus) string {
	switch s {
	case model.StatusVerified:
		return "✅"
	case model.StatusPartial:
		return "🟡"
	case model.StatusDisputed:
		return "⚔️"
	case model.StatusGap:
		return "❓"
	default:
		return "❌"
	}
}

// RenderMarkdown writes the report as Markdown to the given path
func (r *Renderer) RenderMarkdown(report *model.ResearchReport, path string) error {
	if err := os.WriteFile(path, []byte(r.Markdown(report)), 0644); err != nil {
		return fmt.Errorf("write markdown report: %w", err)
	}
	return nil
}

// Markdown builds the Markdown projection of a report
func (r *Renderer) Markdown(report *model.ResearchReport) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Fact-Check Report: %s\n\n", report.Query)

	if report.Summary.ExecutiveSummary != "" {
		fmt.Fprintf(&b, "%s\n\n", report.Summary.ExecutiveSummary)
	}
	fmt.Fprintf(&b, "**Overall confidence:** %.0f%%  \n", report.Summary.ConfidenceOverall*100)
	fmt.Fprintf(&b, "**Verification rate:** %.0f%% (%d claims, %d sources)\n\n",
		report.Metadata.VerificationRate*100,
		report.Metadata.ClaimsExtracted,
		report.Metadata.SourcesAnalyzed)

	if len(report.Summary.KeyFindings) > 0 {
		b.WriteString("## Key Findings\n\n")
		for _, finding := range report.Summary.KeyFindings {
			fmt.Fprintf(&b, "- %s\n", finding)
		}
		b.WriteString("\n")
	}

	if len(report.Claims) > 0 {
		b.WriteString("## Claims\n\n")
		for _, claim := range report.Claims {
			fmt.Fprintf(&b, "### %s %s\n\n", statusGlyph(claim.VerificationStatus), claim.ClaimText)
			fmt.Fprintf(&b, "- Status: %s (confidence %.0f%%)\n", claim.VerificationStatus, claim.Confidence*100)
			if claim.VerificationChain != "" {
				fmt.Fprintf(&b, "- Reasoning: %s\n", claim.VerificationChain)
			}
			for _, ref := range claim.Sources {
				line := fmt.Sprintf("- [%s]", ref.SourceID)
				if ref.VerbatimQuote != "" {
					line += fmt.Sprintf(" %q", ref.VerbatimQuote)
				}
				if ref.MatchType != "" {
					line += fmt.Sprintf(" (%s)", ref.MatchType)
				}
				b.WriteString(line + "\n")
			}
			b.WriteString("\n")
		}
	}

	if len(report.Disputes) > 0 {
		b.WriteString("## Disputes\n\n")
		for _, dispute := range report.Disputes {
			fmt.Fprintf(&b, "### %s\n\n%s\n\n", dispute.Topic, dispute.Assessment)
			for _, position := range dispute.Positions {
				fmt.Fprintf(&b, "- %s (sources: %s)\n", position.Position, strings.Join(position.SupportingSources, ", "))
			}
			b.WriteString("\n")
		}
	}

	if len(report.Sources) > 0 {
		b.WriteString("## Sources\n\n")
		fmt.Fprintf(&b, "Mean credibility: %.2f\n\n", score.MeanCredibility(report.Sources))
		for _, src := range report.Sources {
			title := src.Title
			if title == "" {
				title = src.URL
			}
			fmt.Fprintf(&b, "- **%s** [%s](%s) (%s, credibility %.2f)\n",
				src.SourceID, title, src.URL, src.SourceType, src.CredibilityScore)
			for _, factor := range src.CredibilityFactors {
				fmt.Fprintf(&b, "  - %s\n", factor)
			}
		}
		b.WriteString("\n")
	}

	if len(report.Summary.GapsIdentified) > 0 {
		b.WriteString("## Gaps\n\n")
		for _, gap := range report.Summary.GapsIdentified {
			fmt.Fprintf(&b, "- %s\n", gap)
		}
		b.WriteString("\n")
	}

	if !report.Metadata.ResearchTimestamp.IsZero() {
		fmt.Fprintf(&b, "Researched at %s\n", report.Metadata.ResearchTimestamp.Format("2006-01-02 15:04 UTC"))
	}

	if r.includeFooter {
		b.WriteString("\n---\n*Generated by factlens. Verify critical facts independently.*\n")
	}

	return b.String()
}

// RenderSummary prints a terminal summary of the report to stdout
func (r *Renderer) RenderSummary(report *model.ResearchReport) {
	fmt.Printf("\n%s\n", report.Query)
	fmt.Printf("  %d claims, %d sources, %.0f%% verified\n",
		report.Metadata.ClaimsExtracted,
		report.Metadata.SourcesAnalyzed,
		report.Metadata.VerificationRate*100)

	for _, claim := range report.Claims {
		fmt.Printf("  %s %s\n", statusGlyph(claim.VerificationStatus), claim.ClaimText)
	}

	if len(report.Summary.GapsIdentified) > 0 {
		fmt.Printf("  Gaps: %d\n", len(report.Summary.GapsIdentified))
	}
}
