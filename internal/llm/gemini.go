package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/factlens/factlens/internal/model"
)

const defaultResearchPersona = "You are a meticulous research assistant. Ground every statement " +
	"in web search results and cite them with bracketed numeric markers like [1], [2] that refer " +
	"to the search results in order. Never invent citations."

const geminiMaxRetries = 3

// GeminiClient talks to the Gemini generateContent API. It implements both
// the Searcher interface (with the Google Search tool enabled) and the
// Synthesizer interface (with strict JSON output requested).
type GeminiClient struct {
	apiKey          string
	baseURL         string
	model           string
	maxOutputTokens int
	httpClient      *http.Client

	mu          sync.Mutex
	lastRequest time.Time
}

// NewGeminiClient creates a new Gemini client from configuration
func NewGeminiClient(cfg model.GeminiConfig) (*GeminiClient, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("Gemini API key is required")
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "https://generativelanguage.googleapis.com/v1beta"
	}

	geminiModel := strings.TrimSpace(cfg.Model)
	if geminiModel == "" {
		geminiModel = "gemini-2.5-flash"
	}

	maxOutputTokens := cfg.MaxOutputTokens
	if maxOutputTokens <= 0 {
		maxOutputTokens = 16384
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 3 * time.Minute
	}

	return &GeminiClient{
		apiKey:          cfg.APIKey,
		baseURL:         strings.TrimSuffix(baseURL, "/"),
		model:           geminiModel,
		maxOutputTokens: maxOutputTokens,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}, nil
}

// Name returns the provider name
func (c *GeminiClient) Name() string {
	return "gemini"
}

// Search runs one search-grounded generation request with the Google Search
// tool enabled and captures the grounding metadata.
func (c *GeminiClient) Search(ctx context.Context, req SearchRequest) (*SearchResult, error) {
	system := req.SystemPrompt
	if system == "" {
		system = defaultResearchPersona
	}

	prompt := req.Query
	if req.Instruction != "" {
		prompt = fmt.Sprintf("%s\n\nResearch thoroughness: %s", req.Query, req.Instruction)
	}

	body := geminiRequest{
		Contents: []geminiContent{
			{Role: "user", Parts: []geminiPart{{Text: prompt}}},
		},
		SystemInstruction: &geminiContent{
			Parts: []geminiPart{{Text: system}},
		},
		GenerationConfig: geminiGenerationConfig{
			Temperature:     0.7,
			MaxOutputTokens: c.maxOutputTokens,
		},
		Tools: []geminiTool{{GoogleSearch: &geminiGoogleSearch{}}},
	}

	resp, err := c.generate(ctx, body)
	if err != nil {
		return nil, err
	}

	prose, err := candidateText(resp)
	if err != nil {
		return nil, err
	}

	result := &SearchResult{Prose: prose}

	if len(resp.Candidates) > 0 && resp.Candidates[0].GroundingMetadata != nil {
		gm := resp.Candidates[0].GroundingMetadata
		result.SearchQueries = gm.WebSearchQueries
		for _, chunk := range gm.GroundingChunks {
			if chunk.Web == nil || chunk.Web.URI == "" {
				continue
			}
			result.WebSources = append(result.WebSources, model.WebSource{
				URI:   chunk.Web.URI,
				Title: chunk.Web.Title,
			})
		}
	}

	return result, nil
}

// Synthesize runs one structured generation request with JSON output
// requested. Grounding tools are deliberately absent: synthesis must work
// only from the prose and records it is given.
func (c *GeminiClient) Synthesize(ctx context.Context, req SynthesizeRequest) (string, error) {
	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = c.maxOutputTokens
	}

	body := geminiRequest{
		Contents: []geminiContent{
			{Role: "user", Parts: []geminiPart{{Text: req.Prompt}}},
		},
		GenerationConfig: geminiGenerationConfig{
			Temperature:      0.2,
			MaxOutputTokens:  maxTokens,
			ResponseMimeType: "application/json",
		},
	}
	if req.SystemPrompt != "" {
		body.SystemInstruction = &geminiContent{
			Parts: []geminiPart{{Text: req.SystemPrompt}},
		}
	}

	resp, err := c.generate(ctx, body)
	if err != nil {
		return "", err
	}

	return candidateText(resp)
}

// generate posts a generateContent request, retrying on rate limits
func (c *GeminiClient) generate(ctx context.Context, body geminiRequest) (*geminiResponse, error) {
	// Spread requests out; the live session and targeted verification can
	// fire close together.
	c.mu.Lock()
	if elapsed := time.Since(c.lastRequest); elapsed < 100*time.Millisecond {
		time.Sleep(100*time.Millisecond - elapsed)
	}
	c.lastRequest = time.Now()
	c.mu.Unlock()

	jsonData, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s", c.baseURL, c.model, c.apiKey)

	var lastErr error
	for attempt := 0; attempt <= geminiMaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(time.Duration(1<<uint(attempt-1)) * time.Second):
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonData))
		if err != nil {
			return nil, fmt.Errorf("create request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("request failed: %w", err)
			continue
		}

		respBody, err := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		if err != nil {
			lastErr = fmt.Errorf("read response: %w", err)
			continue
		}

		if resp.StatusCode == http.StatusTooManyRequests {
			lastErr = fmt.Errorf("rate limit exceeded (429)")
			continue
		}

		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("API request failed with status %d: %s", resp.StatusCode, string(respBody))
		}

		var geminiResp geminiResponse
		if err := json.Unmarshal(respBody, &geminiResp); err != nil {
			return nil, fmt.Errorf("parse response: %w", err)
		}

		if geminiResp.Error != nil {
			return nil, fmt.Errorf("API error: %s", geminiResp.Error.Message)
		}

		return &geminiResp, nil
	}

	return nil, fmt.Errorf("max retries exceeded: %w", lastErr)
}

// candidateText concatenates the text parts of the first candidate and maps
// block signals to the search-failure sentinels.
func candidateText(resp *geminiResponse) (string, error) {
	if resp.PromptFeedback != nil {
		switch strings.ToUpper(resp.PromptFeedback.BlockReason) {
		case "SAFETY":
			return "", ErrBlockedSafety
		case "":
		default:
			return "", fmt.Errorf("%w: prompt blocked (%s)", ErrEmptyResponse, resp.PromptFeedback.BlockReason)
		}
	}

	if len(resp.Candidates) == 0 {
		return "", ErrEmptyResponse
	}

	candidate := resp.Candidates[0]
	switch strings.ToUpper(candidate.FinishReason) {
	case "SAFETY":
		return "", ErrBlockedSafety
	case "RECITATION":
		return "", ErrBlockedRecitation
	}

	var b strings.Builder
	for _, part := range candidate.Content.Parts {
		b.WriteString(part.Text)
	}

	text := strings.TrimSpace(b.String())
	if text == "" {
		return "", ErrEmptyResponse
	}

	return text, nil
}
