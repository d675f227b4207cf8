package llm

import (
	"context"
	"errors"
	"time"

	"github.com/factlens/factlens/internal/model"
)

// Search-stage failure sentinels. Callers map these to distinct user-facing
// messages; none of them is retried automatically.
var (
	// ErrBlockedSafety indicates the search stage was refused by a content
	// safety filter.
	ErrBlockedSafety = errors.New("response blocked by safety filter")

	// ErrBlockedRecitation indicates the search stage was cut off for
	// reciting source material verbatim.
	ErrBlockedRecitation = errors.New("response blocked for recitation")

	// ErrEmptyResponse indicates the model returned no usable text.
	ErrEmptyResponse = errors.New("model returned no usable text")
)

// Searcher is the grounded search collaborator: it answers a research
// question in free prose with inline numeric citation markers and returns
// the raw grounding records behind them.
type Searcher interface {
	// Name returns the provider name
	Name() string

	// Search runs one search-grounded generation request
	Search(ctx context.Context, req SearchRequest) (*SearchResult, error)
}

// Synthesizer is the structured synthesis collaborator: it converts research
// prose plus raw grounding records into a single JSON document conforming to
// the report schema.
type Synthesizer interface {
	// Name returns the provider name
	Name() string

	// Synthesize runs one structured generation request and returns the raw
	// JSON text (possibly fenced) emitted by the model
	Synthesize(ctx context.Context, req SynthesizeRequest) (string, error)
}

// SearchRequest contains the input for the grounded search stage
type SearchRequest struct {
	// Query is the user's research question
	Query string

	// Instruction is the depth policy's thoroughness instruction
	Instruction string

	// SystemPrompt overrides the default research persona when non-empty
	SystemPrompt string
}

// SearchResult contains the prose and raw grounding captured from one
// search-grounded generation call
type SearchResult struct {
	// Prose is the research text with inline [k] citation markers
	Prose string

	// WebSources are the raw grounding records, in the order the model's
	// citation convention refers to them. Entries lacking a URI are
	// filtered out before this list is built.
	WebSources []model.WebSource

	// SearchQueries are the web search queries the model issued
	SearchQueries []string
}

// SynthesizeRequest contains the input for the structured synthesis stage
type SynthesizeRequest struct {
	// SystemPrompt is the synthesis persona plus the JSON schema description
	SystemPrompt string

	// Prompt carries the research prose, the raw grounding JSON, and the
	// original query
	Prompt string

	// MaxTokens limits the response length (0 = provider default)
	MaxTokens int
}

// Config holds synthesis provider configuration
type Config struct {
	// Provider name: "gemini", "openai", "ollama"
	Provider string

	// Model name (provider-specific)
	Model string

	// APIKey for hosted providers
	APIKey string

	// BaseURL for custom endpoints (e.g., Ollama)
	BaseURL string

	// Timeout for API requests
	Timeout time.Duration

	// MaxTokens for response generation
	MaxTokens int

	// Proxy settings
	HTTPProxy  string
	HTTPSProxy string
	NoProxy    string
}

// ConfigFromModel converts model.SynthesisConfig to llm.Config
func ConfigFromModel(mc model.SynthesisConfig, http model.HTTPConfig) Config {
	return Config{
		Provider:   mc.Provider,
		Model:      mc.Model,
		APIKey:     mc.APIKey,
		BaseURL:    mc.BaseURL,
		Timeout:    mc.Timeout,
		MaxTokens:  mc.MaxTokens,
		HTTPProxy:  http.HTTPProxy,
		HTTPSProxy: http.HTTPSProxy,
		NoProxy:    http.NoProxy,
	}
}
