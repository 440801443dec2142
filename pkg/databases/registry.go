// Package databases provides vector database adapters behind a common
// provider interface.
package databases

import (
	"context"
	"fmt"

	"github.com/Javi111003/OlivIA-RAG/pkg/config"
	"github.com/Javi111003/OlivIA-RAG/pkg/registry"
)

// SearchResult is one similarity match.
type SearchResult struct {
	ID       string
	Score    float64
	Content  string
	Metadata map[string]interface{}
}

// DatabaseProvider is the common interface over vector stores.
type DatabaseProvider interface {
	Upsert(ctx context.Context, collection string, id string, vector []float32, metadata map[string]interface{}) error

	Search(ctx context.Context, collection string, vector []float32, topK int) ([]SearchResult, error)

	CreateCollection(ctx context.Context, collection string, vectorSize uint64) error

	DeleteCollection(ctx context.Context, collection string) error

	Close() error
}

// DatabaseRegistry holds named database providers.
type DatabaseRegistry struct {
	*registry.BaseRegistry[DatabaseProvider]
}

func NewDatabaseRegistry() *DatabaseRegistry {
	return &DatabaseRegistry{
		BaseRegistry: registry.NewBaseRegistry[DatabaseProvider](),
	}
}

// CreateDatabaseFromConfig constructs a provider from its config.
func CreateDatabaseFromConfig(cfg *config.VectorStoreConfig) (DatabaseProvider, error) {
	if cfg == nil {
		return nil, fmt.Errorf("vector store config cannot be nil")
	}

	switch cfg.Provider {
	case config.VectorStoreQdrant:
		return NewQdrantProviderFromConfig(cfg)
	case config.VectorStoreChromem:
		return NewChromemProviderFromConfig(cfg)
	default:
		return nil, fmt.Errorf("unsupported vector store provider: %s", cfg.Provider)
	}
}
