package model

import "time"

// Config is the complete application configuration
type Config struct {
	Gemini     GeminiConfig     `yaml:"gemini" mapstructure:"gemini"`
	Synthesis  SynthesisConfig  `yaml:"synthesis" mapstructure:"synthesis"`
	HTTP       HTTPConfig       `yaml:"http" mapstructure:"http"`
	Validation ValidationConfig `yaml:"validation" mapstructure:"validation"`
	Classifier ClassifierConfig `yaml:"classifier" mapstructure:"classifier"`
	Cache      CacheConfig      `yaml:"cache" mapstructure:"cache"`
	Live       LiveConfig       `yaml:"live" mapstructure:"live"`
	Output     OutputConfig     `yaml:"output" mapstructure:"output"`
	RateLimit  RateLimitConfig  `yaml:"rate_limit" mapstructure:"rate_limit"`
}

// GeminiConfig configures the grounded search collaborator
type GeminiConfig struct {
	APIKey          string        `yaml:"api_key,omitempty" mapstructure:"api_key"`
	BaseURL         string        `yaml:"base_url" mapstructure:"base_url"`
	Model           string        `yaml:"model" mapstructure:"model"`
	Timeout         time.Duration `yaml:"timeout" mapstructure:"timeout"`
	MaxOutputTokens int           `yaml:"max_output_tokens" mapstructure:"max_output_tokens"`
}

// SynthesisConfig configures the structured synthesis collaborator
type SynthesisConfig struct {
	// Provider name: "gemini" (default), "openai", "ollama"
	Provider string `yaml:"provider" mapstructure:"provider"`

	Model   string `yaml:"model,omitempty" mapstructure:"model"`
	APIKey  string `yaml:"api_key,omitempty" mapstructure:"api_key"`
	BaseURL string `yaml:"base_url,omitempty" mapstructure:"base_url"`

	Timeout   time.Duration `yaml:"timeout" mapstructure:"timeout"`
	MaxTokens int           `yaml:"max_tokens" mapstructure:"max_tokens"`
}

// HTTPConfig configures outbound HTTP behavior for link validation
type HTTPConfig struct {
	UserAgent  string        `yaml:"user_agent" mapstructure:"user_agent"`
	Timeout    time.Duration `yaml:"timeout" mapstructure:"timeout"`
	HTTPProxy  string        `yaml:"http_proxy,omitempty" mapstructure:"http_proxy"`
	HTTPSProxy string        `yaml:"https_proxy,omitempty" mapstructure:"https_proxy"`
	NoProxy    string        `yaml:"no_proxy,omitempty" mapstructure:"no_proxy"`
}

// ValidationConfig configures post-report source link validation
type ValidationConfig struct {
	Enabled     bool `yaml:"enabled" mapstructure:"enabled"`
	Workers     int  `yaml:"workers" mapstructure:"workers"`
	CheckRobots bool `yaml:"check_robots" mapstructure:"check_robots"`
}

// ClassifierConfig configures source type classification by domain and path
type ClassifierConfig struct {
	OfficialDomains []string      `yaml:"official_domains" mapstructure:"official_domains"`
	AcademicDomains []string      `yaml:"academic_domains" mapstructure:"academic_domains"`
	NewsDomains     []string      `yaml:"news_domains" mapstructure:"news_domains"`
	ForumDomains    []string      `yaml:"forum_domains" mapstructure:"forum_domains"`
	SocialDomains   []string      `yaml:"social_domains" mapstructure:"social_domains"`
	PathPatterns    []PathPattern `yaml:"path_patterns,omitempty" mapstructure:"path_patterns"`
}

// PathPattern maps a URL path regexp to a source type
type PathPattern struct {
	Pattern string `yaml:"pattern" mapstructure:"pattern"`
	Type    string `yaml:"type" mapstructure:"type"`
}

// CacheConfig configures report caching
type CacheConfig struct {
	Enabled   bool          `yaml:"enabled" mapstructure:"enabled"`
	Dir       string        `yaml:"dir" mapstructure:"dir"`
	MemoryTTL time.Duration `yaml:"memory_ttl" mapstructure:"memory_ttl"`
	DiskTTL   time.Duration `yaml:"disk_ttl" mapstructure:"disk_ttl"`
}

// LiveConfig configures the live voice session
type LiveConfig struct {
	Endpoint string `yaml:"endpoint" mapstructure:"endpoint"`
	Model    string `yaml:"model" mapstructure:"model"`
	Voice    string `yaml:"voice" mapstructure:"voice"`
}

// OutputConfig configures rendering behavior
type OutputConfig struct {
	Verbose       bool `yaml:"verbose" mapstructure:"verbose"`
	IncludeFooter bool `yaml:"include_footer" mapstructure:"include_footer"`
}

// RateLimitConfig configures per-host request rate limiting
type RateLimitConfig struct {
	RequestsPerSecond float64 `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	Burst             int     `yaml:"burst" mapstructure:"burst"`
}

// DefaultConfig returns the standard configuration with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Gemini: GeminiConfig{
			BaseURL:         "https://generativelanguage.googleapis.com/v1beta",
			Model:           "gemini-2.5-flash",
			Timeout:         3 * time.Minute,
			MaxOutputTokens: 16384,
		},
		Synthesis: SynthesisConfig{
			Provider:  "gemini",
			Timeout:   2 * time.Minute,
			MaxTokens: 8192,
		},
		HTTP: HTTPConfig{
			UserAgent: "Factlens/0.1 (+https://github.com/factlens/factlens)",
			Timeout:   10 * time.Second,
		},
		Validation: ValidationConfig{
			Enabled:     false,
			Workers:     10,
			CheckRobots: true,
		},
		Classifier: ClassifierConfig{
			OfficialDomains: []string{"europa.eu", "un.org", "who.int", "nasa.gov", "nist.gov"},
			AcademicDomains: []string{"arxiv.org", "nature.com", "sciencedirect.com", "jstor.org", "pubmed.ncbi.nlm.nih.gov"},
			NewsDomains:     []string{"reuters.com", "apnews.com", "bbc.com", "bbc.co.uk", "nytimes.com", "theguardian.com"},
			ForumDomains:    []string{"reddit.com", "stackexchange.com", "stackoverflow.com", "news.ycombinator.com", "quora.com"},
			SocialDomains:   []string{"twitter.com", "x.com", "facebook.com", "linkedin.com", "tiktok.com", "instagram.com"},
			PathPatterns: []PathPattern{
				{Pattern: `/blog(/|$)`, Type: "blog"},
				{Pattern: `/forum(/|$)`, Type: "forum"},
				{Pattern: `\.pdf$`, Type: "academic"},
			},
		},
		Cache: CacheConfig{
			Enabled:   true,
			Dir:       "", // resolved to ~/.factlens/cache at runtime
			MemoryTTL: 30 * time.Minute,
			DiskTTL:   24 * time.Hour,
		},
		Live: LiveConfig{
			Endpoint: "wss://generativelanguage.googleapis.com/ws/google.ai.generativelanguage.v1beta.GenerativeService.BidiGenerateContent",
			Model:    "gemini-2.5-flash-native-audio-preview",
			Voice:    "Puck",
		},
		Output: OutputConfig{
			Verbose:       false,
			IncludeFooter: true,
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 2,
			Burst:             5,
		},
	}
}
