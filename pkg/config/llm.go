package config

import (
	"fmt"
	"os"
)

// LLMProvider identifies the LLM provider type.
type LLMProvider string

const (
	LLMProviderOpenAI LLMProvider = "openai"
	LLMProviderOllama LLMProvider = "ollama"
)

// LLMConfig configures an LLM provider.
type LLMConfig struct {
	// Provider type (openai, ollama).
	Provider LLMProvider `yaml:"provider,omitempty" json:"provider,omitempty"`

	// Model name (e.g., "gpt-4o-mini", "llama3.1").
	Model string `yaml:"model,omitempty" json:"model,omitempty"`

	// APIKey for authentication. Supports ${VAR} expansion.
	APIKey string `yaml:"api_key,omitempty" json:"api_key,omitempty"`

	// BaseURL overrides the default API endpoint.
	BaseURL string `yaml:"base_url,omitempty" json:"base_url,omitempty"`

	// Temperature for generation.
	Temperature *float64 `yaml:"temperature,omitempty" json:"temperature,omitempty"`

	// MaxTokens limits response length.
	MaxTokens int `yaml:"max_tokens,omitempty" json:"max_tokens,omitempty"`

	// TimeoutSeconds bounds a single call.
	TimeoutSeconds int `yaml:"timeout_seconds,omitempty" json:"timeout_seconds,omitempty"`
}

// SetDefaults applies default values.
func (c *LLMConfig) SetDefaults() {
	if c.Provider == "" {
		c.Provider = detectProviderFromEnv()
	}

	if c.Model == "" {
		switch c.Provider {
		case LLMProviderOpenAI:
			c.Model = "gpt-4o-mini"
		case LLMProviderOllama:
			c.Model = "llama3.1"
		}
	}

	if c.APIKey == "" && c.Provider == LLMProviderOpenAI {
		c.APIKey = os.Getenv("OPENAI_API_KEY")
	}

	if c.BaseURL == "" {
		switch c.Provider {
		case LLMProviderOpenAI:
			c.BaseURL = "https://api.openai.com/v1"
		case LLMProviderOllama:
			c.BaseURL = "http://localhost:11434"
		}
	}

	if c.Temperature == nil {
		temp := 0.7
		c.Temperature = &temp
	}

	if c.MaxTokens == 0 {
		c.MaxTokens = 4096
	}

	if c.TimeoutSeconds == 0 {
		c.TimeoutSeconds = 60
	}
}

// Validate checks the LLM configuration.
func (c *LLMConfig) Validate() error {
	switch c.Provider {
	case LLMProviderOpenAI, LLMProviderOllama:
	default:
		return fmt.Errorf("unsupported provider: %s", c.Provider)
	}
	if c.Model == "" {
		return fmt.Errorf("model is required")
	}
	if c.Provider == LLMProviderOpenAI && c.APIKey == "" {
		return fmt.Errorf("api_key is required for openai (set OPENAI_API_KEY)")
	}
	return nil
}

func detectProviderFromEnv() LLMProvider {
	if os.Getenv("OPENAI_API_KEY") != "" {
		return LLMProviderOpenAI
	}
	return LLMProviderOllama
}

// EmbedderConfig configures an embedding provider.
type EmbedderConfig struct {
	// Provider type (openai, ollama).
	Provider LLMProvider `yaml:"provider,omitempty" json:"provider,omitempty"`

	// Model name (e.g., "text-embedding-3-small", "nomic-embed-text").
	Model string `yaml:"model,omitempty" json:"model,omitempty"`

	// APIKey for authentication. Supports ${VAR} expansion.
	APIKey string `yaml:"api_key,omitempty" json:"api_key,omitempty"`

	// BaseURL overrides the default API endpoint.
	BaseURL string `yaml:"base_url,omitempty" json:"base_url,omitempty"`

	// Dimension of produced vectors. Must match the vector store.
	Dimension int `yaml:"dimension,omitempty" json:"dimension,omitempty"`
}

// SetDefaults applies default values.
func (c *EmbedderConfig) SetDefaults() {
	if c.Provider == "" {
		c.Provider = detectProviderFromEnv()
	}

	if c.Model == "" {
		switch c.Provider {
		case LLMProviderOpenAI:
			c.Model = "text-embedding-3-small"
		case LLMProviderOllama:
			c.Model = "nomic-embed-text"
		}
	}

	if c.APIKey == "" && c.Provider == LLMProviderOpenAI {
		c.APIKey = os.Getenv("OPENAI_API_KEY")
	}

	if c.BaseURL == "" {
		switch c.Provider {
		case LLMProviderOpenAI:
			c.BaseURL = "https://api.openai.com/v1"
		case LLMProviderOllama:
			c.BaseURL = "http://localhost:11434"
		}
	}

	if c.Dimension == 0 {
		switch c.Provider {
		case LLMProviderOpenAI:
			c.Dimension = 1536
		case LLMProviderOllama:
			c.Dimension = 768
		}
	}
}

// Validate checks the embedder configuration.
func (c *EmbedderConfig) Validate() error {
	switch c.Provider {
	case LLMProviderOpenAI, LLMProviderOllama:
	default:
		return fmt.Errorf("unsupported provider: %s", c.Provider)
	}
	if c.Model == "" {
		return fmt.Errorf("model is required")
	}
	if c.Dimension <= 0 {
		return fmt.Errorf("dimension must be positive")
	}
	return nil
}
