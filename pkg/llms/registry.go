package llms

import (
	"context"
	"fmt"

	"github.com/Javi111003/OlivIA-RAG/pkg/config"
	"github.com/Javi111003/OlivIA-RAG/pkg/registry"
)

// LLMProvider is the common interface over chat model backends.
type LLMProvider interface {
	// Generate performs a non-streaming chat request.
	// Returns the reply text and the total token count.
	Generate(ctx context.Context, messages []Message) (text string, tokens int, err error)

	GetModelName() string

	GetMaxTokens() int

	GetTemperature() float64

	Close() error
}

// LLMRegistry holds named providers.
type LLMRegistry struct {
	*registry.BaseRegistry[LLMProvider]
}

func NewLLMRegistry() *LLMRegistry {
	return &LLMRegistry{
		BaseRegistry: registry.NewBaseRegistry[LLMProvider](),
	}
}

func (r *LLMRegistry) RegisterLLM(name string, provider LLMProvider) error {
	if name == "" {
		return fmt.Errorf("LLM name cannot be empty")
	}
	if provider == nil {
		return fmt.Errorf("LLM provider cannot be nil")
	}
	return r.Register(name, provider)
}

// CreateLLMFromConfig constructs and registers a provider from its config.
func (r *LLMRegistry) CreateLLMFromConfig(name string, cfg *config.LLMConfig) (LLMProvider, error) {
	if name == "" {
		return nil, fmt.Errorf("LLM name cannot be empty")
	}
	if cfg == nil {
		return nil, fmt.Errorf("LLM config cannot be nil")
	}

	var provider LLMProvider
	var err error

	switch cfg.Provider {
	case config.LLMProviderOpenAI:
		provider, err = NewOpenAIProviderFromConfig(cfg)
	case config.LLMProviderOllama:
		provider, err = NewOllamaProviderFromConfig(cfg)
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", cfg.Provider)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to create LLM provider '%s': %w", name, err)
	}

	if err := r.RegisterLLM(name, provider); err != nil {
		return nil, err
	}

	return provider, nil
}
