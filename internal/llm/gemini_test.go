package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/factlens/factlens/internal/model"
)

func testGeminiConfig(baseURL string) model.GeminiConfig {
	return model.GeminiConfig{
		APIKey:  "test-key",
		BaseURL: baseURL,
		Model:   "gemini-test",
		Timeout: 5 * time.Second,
	}
}

func TestGeminiClient_RequiresAPIKey(t *testing.T) {
	_, err := NewGeminiClient(model.GeminiConfig{})
	if err == nil {
		t.Fatal("Expected error for missing API key")
	}
}

func TestGeminiClient_SearchCapturesGrounding(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req geminiRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if len(req.Tools) != 1 || req.Tools[0].GoogleSearch == nil {
			t.Error("Expected google_search tool in search request")
		}

		resp := map[string]interface{}{
			"candidates": []map[string]interface{}{
				{
					"content": map[string]interface{}{
						"parts": []map[string]interface{}{
							{"text": "Remote work raises productivity [1] but "},
							{"text": "studies disagree on magnitude [2]."},
						},
					},
					"finishReason": "STOP",
					"groundingMetadata": map[string]interface{}{
						"webSearchQueries": []string{"remote work productivity study"},
						"groundingChunks": []map[string]interface{}{
							{"web": map[string]string{"uri": "https://a.com/study", "title": "A Study"}},
							{"web": map[string]string{"uri": "", "title": "No URI"}},
							{"web": map[string]string{"uri": "https://b.com/report", "title": "B Report"}},
						},
					},
				},
			},
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	client, err := NewGeminiClient(testGeminiConfig(server.URL))
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	result, err := client.Search(context.Background(), SearchRequest{
		Query:       "Effectiveness of remote work",
		Instruction: "top 3 sources, concise",
	})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if result.Prose != "Remote work raises productivity [1] but studies disagree on magnitude [2]." {
		t.Errorf("Unexpected prose: %q", result.Prose)
	}

	// Chunk without a URI must be filtered out
	if len(result.WebSources) != 2 {
		t.Fatalf("Expected 2 web sources, got %d", len(result.WebSources))
	}
	if result.WebSources[0].URI != "https://a.com/study" || result.WebSources[0].Title != "A Study" {
		t.Errorf("Unexpected first web source: %+v", result.WebSources[0])
	}

	if len(result.SearchQueries) != 1 || result.SearchQueries[0] != "remote work productivity study" {
		t.Errorf("Unexpected search queries: %v", result.SearchQueries)
	}
}

func TestGeminiClient_BlockSignals(t *testing.T) {
	tests := []struct {
		name    string
		resp    string
		wantErr error
	}{
		{
			name:    "safety finish reason",
			resp:    `{"candidates":[{"content":{"parts":[]},"finishReason":"SAFETY"}]}`,
			wantErr: ErrBlockedSafety,
		},
		{
			name:    "recitation finish reason",
			resp:    `{"candidates":[{"content":{"parts":[]},"finishReason":"RECITATION"}]}`,
			wantErr: ErrBlockedRecitation,
		},
		{
			name:    "safety prompt feedback",
			resp:    `{"promptFeedback":{"blockReason":"SAFETY"}}`,
			wantErr: ErrBlockedSafety,
		},
		{
			name:    "no candidates",
			resp:    `{"candidates":[]}`,
			wantErr: ErrEmptyResponse,
		},
		{
			name:    "empty text",
			resp:    `{"candidates":[{"content":{"parts":[{"text":"  "}]},"finishReason":"STOP"}]}`,
			wantErr: ErrEmptyResponse,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(tt.resp))
			}))
			defer server.Close()

			client, err := NewGeminiClient(testGeminiConfig(server.URL))
			if err != nil {
				t.Fatalf("Expected no error, got %v", err)
			}

			_, err = client.Search(context.Background(), SearchRequest{Query: "anything"})
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestGeminiClient_SynthesizeRequestsJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req geminiRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req.GenerationConfig.ResponseMimeType != "application/json" {
			t.Errorf("Expected application/json mime type, got %q", req.GenerationConfig.ResponseMimeType)
		}
		if len(req.Tools) != 0 {
			t.Error("Synthesis request must not carry grounding tools")
		}

		_, _ = w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"{\"query\":\"q\"}"}]},"finishReason":"STOP"}]}`))
	}))
	defer server.Close()

	client, err := NewGeminiClient(testGeminiConfig(server.URL))
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	out, err := client.Synthesize(context.Background(), SynthesizeRequest{
		SystemPrompt: "persona",
		Prompt:       "prose + records",
	})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if out != `{"query":"q"}` {
		t.Errorf("Unexpected synthesis output: %q", out)
	}
}

func TestNewSynthesizer_UnknownProvider(t *testing.T) {
	_, err := NewSynthesizer(Config{Provider: "mystery"}, nil)
	if err == nil {
		t.Fatal("Expected error for unknown provider")
	}
}

func TestNewSynthesizer_GeminiRequiresClient(t *testing.T) {
	_, err := NewSynthesizer(Config{Provider: "gemini"}, nil)
	if err == nil {
		t.Fatal("Expected error when gemini client is absent")
	}
}
