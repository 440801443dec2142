// Package embedders provides embedding model providers behind a common
// interface.
package embedders

import (
	"context"
	"fmt"

	"github.com/Javi111003/OlivIA-RAG/pkg/config"
	"github.com/Javi111003/OlivIA-RAG/pkg/registry"
)

// EmbedderProvider turns text into a dense vector.
type EmbedderProvider interface {
	Embed(ctx context.Context, text string) ([]float32, error)

	GetDimension() int

	GetModelName() string

	Close() error
}

// EmbedderRegistry holds named embedder providers.
type EmbedderRegistry struct {
	*registry.BaseRegistry[EmbedderProvider]
}

func NewEmbedderRegistry() *EmbedderRegistry {
	return &EmbedderRegistry{
		BaseRegistry: registry.NewBaseRegistry[EmbedderProvider](),
	}
}

// CreateEmbedderFromConfig constructs and registers a provider from its
// config.
func (r *EmbedderRegistry) CreateEmbedderFromConfig(name string, cfg *config.EmbedderConfig) (EmbedderProvider, error) {
	if name == "" {
		return nil, fmt.Errorf("embedder name cannot be empty")
	}
	if cfg == nil {
		return nil, fmt.Errorf("embedder config cannot be nil")
	}

	var provider EmbedderProvider
	var err error

	switch cfg.Provider {
	case config.LLMProviderOpenAI:
		provider, err = NewOpenAIEmbedderFromConfig(cfg)
	case config.LLMProviderOllama:
		provider, err = NewOllamaEmbedderFromConfig(cfg)
	default:
		return nil, fmt.Errorf("unsupported embedder provider: %s", cfg.Provider)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to create embedder '%s': %w", name, err)
	}

	if err := r.Register(name, provider); err != nil {
		return nil, err
	}

	return provider, nil
}
