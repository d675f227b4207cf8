package pipeline

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/factlens/factlens/internal/llm"
	"github.com/factlens/factlens/internal/model"
	"github.com/factlens/factlens/internal/research"
)

type fakeSearcher struct {
	result  *llm.SearchResult
	err     error
	lastReq llm.SearchRequest
}

func (f *fakeSearcher) Name() string { return "fake-search" }

func (f *fakeSearcher) Search(_ context.Context, req llm.SearchRequest) (*llm.SearchResult, error) {
	f.lastReq = req
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

type fakeSynthesizer struct {
	raw     string
	err     error
	lastReq llm.SynthesizeRequest
}

func (f *fakeSynthesizer) Name() string { return "fake-synth" }

func (f *fakeSynthesizer) Synthesize(_ context.Context, req llm.SynthesizeRequest) (string, error) {
	f.lastReq = req
	if f.err != nil {
		return "", f.err
	}
	return f.raw, nil
}

const reportJSON = `{
  "query": "What is the boiling point of water at sea level?",
  "summary": {
    "executive_summary": "Water boils at 100 degrees Celsius at standard pressure.",
    "key_findings": ["Boiling point is pressure dependent"],
    "confidence_overall": 0.95,
    "gaps_identified": []
  },
  "claims": [
    {
      "claim_id": "c1",
      "claim_text": "Water boils at 100C at sea level",
      "verification_status": "verified",
      "confidence": 0.97,
      "sources": [{"source_id": "s1", "verbatim_quote": "boils at 100", "match_type": "exact"}]
    },
    {
      "claim_id": "c2",
      "claim_text": "Boiling point drops at altitude",
      "verification_status": "verified",
      "confidence": 0.9,
      "sources": [{"source_id": "s2", "verbatim_quote": "drops with altitude", "match_type": "semantic"}]
    },
    {
      "claim_id": "c3",
      "claim_text": "Adding salt raises the boiling point meaningfully",
      "verification_status": "unverified",
      "confidence": 0.3,
      "sources": [{"source_id": "s3", "verbatim_quote": "", "match_type": "partial"}]
    }
  ],
  "sources": [
    {"source_id": "s1", "url": "", "title": "", "source_type": "", "credibility_score": 0.9},
    {"source_id": "s2", "url": "", "title": "", "source_type": "", "credibility_score": 0.8},
    {"source_id": "s3", "url": "", "title": "", "source_type": "", "credibility_score": 0.4}
  ]
}`

func testSearchResult() *llm.SearchResult {
	return &llm.SearchResult{
		Prose: "Water boils at 100C [1]. At altitude the point drops [2]. Salt has a minor effect [3].",
		WebSources: []model.WebSource{
			{URI: "https://www.nist.gov/boiling", Title: "NIST on boiling points"},
			{URI: "https://en.wikipedia.org/wiki/Boiling_point", Title: "Boiling point"},
			{URI: "https://example.com/salt", Title: "Salt and boiling"},
		},
		SearchQueries: []string{"boiling point water sea level"},
	}
}

func testPipeline(searcher llm.Searcher, synth llm.Synthesizer) *Pipeline {
	return NewWithCollaborators(searcher, synth, model.DefaultConfig())
}

func TestResearchEndToEnd(t *testing.T) {
	searcher := &fakeSearcher{result: testSearchResult()}
	synth := &fakeSynthesizer{raw: reportJSON}
	p := testPipeline(searcher, synth)

	var states []State
	p.SetProgress(func(s State) { states = append(states, s) })

	result, err := p.Research(context.Background(), "What is the boiling point of water at sea level?", model.DepthQuick, false)
	if err != nil {
		t.Fatalf("Research() error: %v", err)
	}

	report := result.Report
	if report.Metadata.SourcesAnalyzed != 3 {
		t.Errorf("sources_analyzed = %d, want 3", report.Metadata.SourcesAnalyzed)
	}
	if report.Metadata.ClaimsExtracted != 3 {
		t.Errorf("claims_extracted = %d, want 3", report.Metadata.ClaimsExtracted)
	}
	if report.Metadata.ResearchTimestamp.IsZero() {
		t.Error("research_timestamp not set")
	}

	// reconciliation back-filled URLs from the grounding records
	s1 := report.SourceByID("s1")
	if s1 == nil || s1.URL != "https://www.nist.gov/boiling" {
		t.Errorf("s1 URL not back-filled, got %+v", s1)
	}
	if s1.Title != "NIST on boiling points" {
		t.Errorf("s1 title = %q", s1.Title)
	}

	// classifier back-filled source types from the recovered URLs
	if s1.SourceType != model.SourceOfficial {
		t.Errorf("s1 source_type = %q, want official", s1.SourceType)
	}

	// 2 of 3 claims verified
	if got := report.Metadata.VerificationRate; got < 0.66 || got > 0.67 {
		t.Errorf("verification_rate = %v, want ~0.667", got)
	}

	if report.GroundingTrace == nil || len(report.GroundingTrace.WebSources) != 3 {
		t.Error("grounding trace missing or incomplete")
	}

	want := []State{StateSearching, StateSynthesizing, StateDone}
	if len(states) != len(want) {
		t.Fatalf("state transitions = %v, want %v", states, want)
	}
	for i, s := range want {
		if states[i] != s {
			t.Errorf("transition %d = %s, want %s", i, states[i], s)
		}
	}

	// depth instruction reached the searcher
	if searcher.lastReq.Instruction == "" {
		t.Error("search request carried no depth instruction")
	}
}

func TestResearchUnknownDepth(t *testing.T) {
	p := testPipeline(&fakeSearcher{}, &fakeSynthesizer{})
	if _, err := p.Research(context.Background(), "q", model.Depth("exhaustive"), false); err == nil {
		t.Fatal("expected error for unknown depth")
	}
}

func TestResearchSearchFailures(t *testing.T) {
	tests := []struct {
		name       string
		searchErr  error
		wantReason research.NoContentReason
	}{
		{"safety block", llm.ErrBlockedSafety, research.ReasonSafety},
		{"recitation block", llm.ErrBlockedRecitation, research.ReasonRecitation},
		{"empty response", llm.ErrEmptyResponse, research.ReasonEmpty},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := testPipeline(&fakeSearcher{err: tt.searchErr}, &fakeSynthesizer{})

			var last State
			p.SetProgress(func(s State) { last = s })

			_, err := p.Research(context.Background(), "q", model.DepthQuick, false)
			var nce *research.NoContentError
			if !errors.As(err, &nce) {
				t.Fatalf("error = %v, want NoContentError", err)
			}
			if nce.Reason != tt.wantReason {
				t.Errorf("reason = %q, want %q", nce.Reason, tt.wantReason)
			}
			if last != StateFailed {
				t.Errorf("final state = %s, want FAILED", last)
			}
		})
	}
}

func TestResearchSynthesisFailure(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		err  error
	}{
		{"invalid json", "this is not json", nil},
		{"missing claims", `{"query": "q", "claims": [], "sources": []}`, nil},
		{"provider error", "", errors.New("boom")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := testPipeline(&fakeSearcher{result: testSearchResult()}, &fakeSynthesizer{raw: tt.raw, err: tt.err})

			var last State
			p.SetProgress(func(s State) { last = s })

			_, err := p.Research(context.Background(), "q", model.DepthQuick, false)
			var se *research.SynthesisError
			if !errors.As(err, &se) {
				t.Fatalf("error = %v, want SynthesisError", err)
			}
			if last != StateFailed {
				t.Errorf("final state = %s, want FAILED", last)
			}
		})
	}
}

func TestResearchVoicePrompt(t *testing.T) {
	synth := &fakeSynthesizer{raw: reportJSON}
	p := testPipeline(&fakeSearcher{result: testSearchResult()}, synth)

	if _, err := p.Research(context.Background(), "q", model.DepthQuick, true); err != nil {
		t.Fatalf("Research() error: %v", err)
	}
	if !strings.Contains(synth.lastReq.SystemPrompt, "voice_response") {
		t.Error("voice mode did not extend the system prompt")
	}

	if _, err := p.Research(context.Background(), "q", model.DepthQuick, false); err != nil {
		t.Fatalf("Research() error: %v", err)
	}
	if strings.Contains(synth.lastReq.SystemPrompt, "voice_response") {
		t.Error("non-voice request asked for a voice_response")
	}
}

func TestTargetedVerifyPrompt(t *testing.T) {
	synth := &fakeSynthesizer{raw: reportJSON}
	p := testPipeline(&fakeSearcher{result: testSearchResult()}, synth)

	result, err := p.TargetedVerify(context.Background(), "Did salt raise the boiling point?")
	if err != nil {
		t.Fatalf("TargetedVerify() error: %v", err)
	}
	if result.Report == nil {
		t.Fatal("nil fragment report")
	}
	if !strings.Contains(synth.lastReq.Prompt, "targeted verification") {
		t.Error("fragment request did not use the verification prompt")
	}
	if !strings.Contains(synth.lastReq.Prompt, "Prefix every claim_id") {
		t.Error("verification prompt carried no namespace instruction")
	}
}

func TestResearchCache(t *testing.T) {
	searchCalls := 0
	searcher := &countingSearcher{inner: &fakeSearcher{result: testSearchResult()}, calls: &searchCalls}
	p := testPipeline(searcher, &fakeSynthesizer{raw: reportJSON})
	p.store = newMapCache()

	first, err := p.Research(context.Background(), "q", model.DepthQuick, false)
	if err != nil {
		t.Fatalf("first Research() error: %v", err)
	}
	if first.Cached {
		t.Error("first result marked cached")
	}

	second, err := p.Research(context.Background(), "q", model.DepthQuick, false)
	if err != nil {
		t.Fatalf("second Research() error: %v", err)
	}
	if !second.Cached {
		t.Error("second result not served from cache")
	}
	if searchCalls != 1 {
		t.Errorf("search invoked %d times, want 1", searchCalls)
	}
	if second.Report.Metadata.SourcesAnalyzed != first.Report.Metadata.SourcesAnalyzed {
		t.Error("cached report differs from original")
	}

	// a different depth is a different cache entry
	if _, err := p.Research(context.Background(), "q", model.DepthDeep, false); err != nil {
		t.Fatalf("deep Research() error: %v", err)
	}
	if searchCalls != 2 {
		t.Errorf("search invoked %d times after depth change, want 2", searchCalls)
	}
}

type countingSearcher struct {
	inner *fakeSearcher
	calls *int
}

func (c *countingSearcher) Name() string { return c.inner.Name() }

func (c *countingSearcher) Search(ctx context.Context, req llm.SearchRequest) (*llm.SearchResult, error) {
	*c.calls++
	return c.inner.Search(ctx, req)
}

type mapCache struct {
	entries map[string][]byte
}

func newMapCache() *mapCache {
	return &mapCache{entries: make(map[string][]byte)}
}

func (m *mapCache) Get(key string) ([]byte, bool) {
	v, ok := m.entries[key]
	return v, ok
}

func (m *mapCache) Set(key string, value []byte, _ time.Duration) error {
	m.entries[key] = value
	return nil
}

func (m *mapCache) Delete(key string) error {
	delete(m.entries, key)
	return nil
}

func (m *mapCache) Clear() error {
	m.entries = make(map[string][]byte)
	return nil
}
