package llm

import (
	"fmt"
	"strings"
)

// NewSynthesizer creates a synthesis provider based on configuration.
// The gemini client is shared with the search stage when the synthesis
// provider is also Gemini, so the two stages reuse one connection pool.
func NewSynthesizer(config Config, gemini *GeminiClient) (Synthesizer, error) {
	provider := strings.ToLower(config.Provider)

	switch provider {
	case "gemini", "":
		if gemini == nil {
			return nil, fmt.Errorf("gemini synthesis requires a configured Gemini client")
		}
		return gemini, nil

	case "openai":
		return NewOpenAISynthesizer(config)

	case "ollama":
		return NewOllamaSynthesizer(config)

	default:
		return nil, fmt.Errorf("unknown synthesis provider: %s (supported: gemini, openai, ollama)", config.Provider)
	}
}
