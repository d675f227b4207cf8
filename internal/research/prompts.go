package research

import (
	"encoding/json"
	"fmt"

	"github.com/factlens/factlens/internal/model"
)

// synthesisPersona is the system prompt for the structured synthesis stage.
// The schema description mirrors the report contract exactly: five-value
// verification_status, four-value match_type, seven-value source_type.
const synthesisPersona = `You are a meticulous fact-checking analyst. You receive research text with
bracketed numeric citation markers like [1], [2] and the raw list of web sources those markers
refer to (1-indexed). Extract atomic factual claims, judge how well each is supported, and emit
ONE JSON document with EXACTLY this shape:

{
  "query": string,
  "summary": {
    "executive_summary": string,
    "key_findings": [string],
    "confidence_overall": number in [0,1],
    "gaps_identified": [string]
  },
  "claims": [{
    "claim_id": string,
    "claim_text": string,
    "verification_status": "verified" | "partial" | "unverified" | "disputed" | "gap",
    "confidence": number in [0,1],
    "sources": [{
      "source_id": string,
      "verbatim_quote": string,
      "quote_context": string,
      "match_type": "exact" | "semantic" | "partial" | "contradicts"
    }],
    "verification_chain": string
  }],
  "sources": [{
    "source_id": string,
    "url": string,
    "title": string,
    "author": string,
    "publication_date": string,
    "source_type": "official" | "academic" | "news" | "blog" | "forum" | "social" | "unknown",
    "credibility_score": number in [0,1],
    "credibility_factors": [string]
  }],
  "disputes": [{
    "topic": string,
    "assessment": string,
    "positions": [{"position": string, "supporting_sources": [string]}]
  }],
  "metadata": {
    "sources_analyzed": number,
    "claims_extracted": number,
    "verification_rate": number
  }
}

RULES:
1. Every claim's sources[].source_id MUST reference an entry in the top-level sources array.
2. Use ONLY the provided research text and source list. Never invent URLs.
3. verbatim_quote must be copied exactly from the research text.
4. Marker [k] refers to raw source number k. Keep your sources array in marker order.
5. Output ONLY the JSON document. No prose before or after it.`

// voiceAddendum asks for the short spoken-delivery payload
const voiceAddendum = `
6. Also include a top-level "voice_response" string: a 2-3 sentence spoken summary of the findings.`

// SynthesisSystemPrompt returns the synthesis persona, with the voice
// addendum when the report will be spoken
func SynthesisSystemPrompt(voice bool) string {
	if voice {
		return synthesisPersona + voiceAddendum
	}
	return synthesisPersona
}

// BuildSynthesisPrompt assembles the user prompt for the synthesis stage:
// the original query, the research prose, and the raw grounding records as
// JSON.
func BuildSynthesisPrompt(query, prose string, records []model.WebSource) string {
	recordsJSON, err := json.MarshalIndent(records, "", "  ")
	if err != nil || len(records) == 0 {
		recordsJSON = []byte("[]")
	}

	return fmt.Sprintf(`RESEARCH QUESTION:
%s

RESEARCH TEXT (with [k] citation markers):
%s

RAW WEB SOURCES (1-indexed, marker [k] = entry k):
%s`, query, prose, recordsJSON)
}

// BuildVerifyPrompt assembles the tighter single-purpose prompt used by the
// targeted verification micro-flow. The namespace tag keeps fragment claim
// IDs from colliding with the running report's.
func BuildVerifyPrompt(query, prose string, records []model.WebSource, namespace string) string {
	base := BuildSynthesisPrompt(query, prose, records)
	return fmt.Sprintf(`%s

This is a targeted verification of a single claim raised mid-session. Keep the report minimal:
only claims that bear directly on the question. Prefix every claim_id and source_id with %q.`, base, namespace+"-")
}
