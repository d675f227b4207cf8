package research

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/factlens/factlens/internal/model"
)

// StripFence removes a fenced code block wrapper from raw model output.
// Models asked for strict JSON still sometimes wrap it in ```json fencing.
func StripFence(raw string) string {
	text := strings.TrimSpace(raw)
	if !strings.HasPrefix(text, "```") {
		return text
	}

	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(strings.TrimSpace(text), "```")
	return strings.TrimSpace(text)
}

// ParseReport decodes synthesis output into a report and enforces the
// contract: required top-level fields present, enum values restricted to
// their accepted sets. Extra top-level keys are tolerated; wrong enum values
// are not.
func ParseReport(raw string) (*model.ResearchReport, error) {
	text := StripFence(raw)
	if text == "" {
		return nil, fmt.Errorf("empty synthesis output")
	}

	var report model.ResearchReport
	if err := json.Unmarshal([]byte(text), &report); err != nil {
		return nil, fmt.Errorf("decode report JSON: %w", err)
	}

	if err := validateReport(&report); err != nil {
		return nil, err
	}

	return &report, nil
}

// validateReport checks the enum contract and required fields
func validateReport(report *model.ResearchReport) error {
	if report.Query == "" {
		return fmt.Errorf("report missing query")
	}
	if len(report.Claims) == 0 {
		return fmt.Errorf("report has no claims")
	}

	for _, claim := range report.Claims {
		if claim.ClaimID == "" || claim.ClaimText == "" {
			return fmt.Errorf("claim missing claim_id or claim_text")
		}
		if !claim.VerificationStatus.Valid() {
			return fmt.Errorf("claim %s: invalid verification_status %q", claim.ClaimID, claim.VerificationStatus)
		}
		for _, ref := range claim.Sources {
			if ref.MatchType != "" && !ref.MatchType.Valid() {
				return fmt.Errorf("claim %s: invalid match_type %q", claim.ClaimID, ref.MatchType)
			}
		}
	}

	for _, src := range report.Sources {
		if src.SourceID == "" {
			return fmt.Errorf("source missing source_id")
		}
		if src.SourceType != "" && !src.SourceType.Valid() {
			return fmt.Errorf("source %s: invalid source_type %q", src.SourceID, src.SourceType)
		}
	}

	return nil
}
