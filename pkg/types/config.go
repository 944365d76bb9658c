// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// HTTPConfig holds shared HTTP settings used by stages that make network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "safetycheck/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// ProviderConfig holds settings shared by the evidence provider clients.
type ProviderConfig struct {
	HTTPConfig `yaml:",inline"`

	// NCBIAPIKey is an optional E-utilities API key for higher rate limits.
	NCBIAPIKey string `json:"ncbi_api_key,omitempty" yaml:"ncbi_api_key,omitempty"`
}

// AIConfig holds shared settings for stages that call a Generative AI API.
type AIConfig struct {
	// Model is the AI model identifier (e.g. "claude-sonnet-4-5-20250929").
	Model string `json:"model" yaml:"model"`

	// APIKey is the authentication key for the AI API.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// MaxRetries is the number of retry attempts for failed API calls (default 3).
	MaxRetries int `json:"max_retries" yaml:"max_retries"`
}

// SynthesisConfig holds settings for the synthesis stage.
type SynthesisConfig struct {
	AIConfig `yaml:",inline"`

	// MaxTokens is the response token budget per model call (default 1024).
	MaxTokens int `json:"max_tokens" yaml:"max_tokens"`
}

// CacheConfig holds settings for the verdict cache.
type CacheConfig struct {
	// Dir is the directory holding the cache database (default ".safetycheck").
	Dir string `json:"dir" yaml:"dir"`

	// TTL is how long a stored verdict stays fresh (default 24h).
	TTL time.Duration `json:"ttl" yaml:"ttl"`

	// MemoryEntries bounds the in-memory front (default 256).
	MemoryEntries int `json:"memory_entries" yaml:"memory_entries"`
}

// EngineConfig groups all stage configurations for the engine.
type EngineConfig struct {
	Provider  ProviderConfig  `json:"provider" yaml:"provider"`
	Synthesis SynthesisConfig `json:"synthesis" yaml:"synthesis"`
	Cache     CacheConfig     `json:"cache" yaml:"cache"`
}
