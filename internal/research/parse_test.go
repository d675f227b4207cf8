package research

import (
	"errors"
	"strings"
	"testing"

	"github.com/factlens/factlens/internal/llm"
)

const minimalReport = `{
  "query": "test question",
  "claims": [
    {"claim_id": "c1", "claim_text": "a fact", "verification_status": "verified", "confidence": 0.9}
  ],
  "sources": []
}`

func TestStripFence(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"bare", `{"a": 1}`, `{"a": 1}`},
		{"json fence", "```json\n{\"a\": 1}\n```", `{"a": 1}`},
		{"plain fence", "```\n{\"a\": 1}\n```", `{"a": 1}`},
		{"surrounding whitespace", "  \n```json\n{\"a\": 1}\n```\n  ", `{"a": 1}`},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := StripFence(tt.in); got != tt.want {
				t.Errorf("StripFence() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestParseReport(t *testing.T) {
	report, err := ParseReport(minimalReport)
	if err != nil {
		t.Fatalf("ParseReport() error: %v", err)
	}
	if report.Query != "test question" {
		t.Errorf("query = %q", report.Query)
	}
	if len(report.Claims) != 1 {
		t.Fatalf("claims = %d, want 1", len(report.Claims))
	}
}

func TestParseReportFenced(t *testing.T) {
	if _, err := ParseReport("```json\n" + minimalReport + "\n```"); err != nil {
		t.Fatalf("ParseReport() error on fenced input: %v", err)
	}
}

func TestParseReportExtraKeysTolerated(t *testing.T) {
	raw := strings.Replace(minimalReport, `"query"`, `"model_notes": "ignore me", "query"`, 1)
	if _, err := ParseReport(raw); err != nil {
		t.Fatalf("ParseReport() rejected unknown top-level key: %v", err)
	}
}

func TestParseReportRejects(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"empty input", ""},
		{"not json", "the research shows that..."},
		{"missing query", `{"claims": [{"claim_id": "c1", "claim_text": "x", "verification_status": "verified"}]}`},
		{"no claims", `{"query": "q", "claims": [], "sources": []}`},
		{"missing claim id", `{"query": "q", "claims": [{"claim_text": "x", "verification_status": "verified"}]}`},
		{"invalid status", strings.Replace(minimalReport, `"verified"`, `"probably"`, 1)},
		{"invalid match type", `{"query": "q", "claims": [{"claim_id": "c1", "claim_text": "x",
			"verification_status": "verified",
			"sources": [{"source_id": "s1", "match_type": "vibes"}]}]}`},
		{"invalid source type", `{"query": "q",
			"claims": [{"claim_id": "c1", "claim_text": "x", "verification_status": "verified"}],
			"sources": [{"source_id": "s1", "url": "https://a.com", "source_type": "magazine"}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseReport(tt.raw); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestParseReportEmptySourceTypeTolerated(t *testing.T) {
	raw := `{"query": "q",
		"claims": [{"claim_id": "c1", "claim_text": "x", "verification_status": "verified"}],
		"sources": [{"source_id": "s1", "url": "https://a.com", "source_type": ""}]}`
	if _, err := ParseReport(raw); err != nil {
		t.Fatalf("ParseReport() rejected empty source_type: %v", err)
	}
}

func TestClassifySearchError(t *testing.T) {
	tests := []struct {
		name       string
		in         error
		wantReason NoContentReason
	}{
		{"safety", llm.ErrBlockedSafety, ReasonSafety},
		{"recitation", llm.ErrBlockedRecitation, ReasonRecitation},
		{"empty", llm.ErrEmptyResponse, ReasonEmpty},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var nce *NoContentError
			if !errors.As(ClassifySearchError(tt.in), &nce) {
				t.Fatal("expected NoContentError")
			}
			if nce.Reason != tt.wantReason {
				t.Errorf("reason = %q, want %q", nce.Reason, tt.wantReason)
			}
		})
	}
}

func TestClassifySearchErrorPassthrough(t *testing.T) {
	plain := errors.New("connection refused")
	if got := ClassifySearchError(plain); got != plain {
		t.Errorf("plain error rewritten: %v", got)
	}
}

func TestUserMessagesDistinct(t *testing.T) {
	seen := map[string]NoContentReason{}
	for _, reason := range []NoContentReason{ReasonSafety, ReasonRecitation, ReasonEmpty} {
		e := &NoContentError{Reason: reason}
		msg := e.UserMessage()
		if msg == "" {
			t.Errorf("empty user message for %q", reason)
		}
		if prev, dup := seen[msg]; dup {
			t.Errorf("reasons %q and %q share user message %q", prev, reason, msg)
		}
		seen[msg] = reason
	}
}
