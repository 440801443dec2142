package databases

import (
	"context"
	"fmt"
	"runtime"
	"sync"

	"github.com/philippgille/chromem-go"

	"github.com/Javi111003/OlivIA-RAG/pkg/config"
)

// chromemProvider stores vectors in-process with optional file
// persistence. No external service needed, which keeps a single-node
// deployment zero-config.
type chromemProvider struct {
	db     *chromem.DB
	config *config.VectorStoreConfig

	mu          sync.Mutex
	collections map[string]*chromem.Collection
}

// identityEmbed satisfies chromem's embedding hook; vectors are always
// pre-computed by the embedders package.
func identityEmbed(ctx context.Context, text string) ([]float32, error) {
	return nil, fmt.Errorf("embedding must be pre-computed")
}

// NewChromemProviderFromConfig creates an embedded vector store.
func NewChromemProviderFromConfig(cfg *config.VectorStoreConfig) (DatabaseProvider, error) {
	var db *chromem.DB
	var err error

	if cfg.Path != "" {
		db, err = chromem.NewPersistentDB(cfg.Path, true)
		if err != nil {
			return nil, fmt.Errorf("failed to open persistent store at %s: %w", cfg.Path, err)
		}
	} else {
		db = chromem.NewDB()
	}

	return &chromemProvider{
		db:          db,
		config:      cfg,
		collections: make(map[string]*chromem.Collection),
	}, nil
}

func (db *chromemProvider) getCollection(name string) (*chromem.Collection, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	if col, ok := db.collections[name]; ok {
		return col, nil
	}

	col, err := db.db.GetOrCreateCollection(name, nil, identityEmbed)
	if err != nil {
		return nil, fmt.Errorf("failed to get/create collection %q: %w", name, err)
	}
	db.collections[name] = col
	return col, nil
}

func (db *chromemProvider) Upsert(ctx context.Context, collection string, id string, vector []float32, metadata map[string]interface{}) error {
	col, err := db.getCollection(collection)
	if err != nil {
		return err
	}

	strMetadata := make(map[string]string, len(metadata))
	for k, v := range metadata {
		strMetadata[k] = fmt.Sprint(v)
	}

	content := ""
	if c, ok := metadata["content"].(string); ok {
		content = c
	}

	doc := chromem.Document{
		ID:        id,
		Content:   content,
		Metadata:  strMetadata,
		Embedding: vector,
	}

	if err := col.AddDocuments(ctx, []chromem.Document{doc}, runtime.NumCPU()); err != nil {
		return fmt.Errorf("failed to upsert document: %w", err)
	}
	return nil
}

func (db *chromemProvider) Search(ctx context.Context, collection string, vector []float32, topK int) ([]SearchResult, error) {
	col, err := db.getCollection(collection)
	if err != nil {
		return nil, err
	}

	// chromem rejects topK above the document count
	if count := col.Count(); topK > count {
		topK = count
	}
	if topK == 0 {
		return nil, nil
	}

	matches, err := col.QueryEmbedding(ctx, vector, topK, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to query collection: %w", err)
	}

	results := make([]SearchResult, 0, len(matches))
	for _, m := range matches {
		metadata := make(map[string]interface{}, len(m.Metadata))
		for k, v := range m.Metadata {
			metadata[k] = v
		}
		results = append(results, SearchResult{
			ID:       m.ID,
			Score:    float64(m.Similarity),
			Content:  m.Content,
			Metadata: metadata,
		})
	}
	return results, nil
}

func (db *chromemProvider) CreateCollection(ctx context.Context, collection string, vectorSize uint64) error {
	_, err := db.getCollection(collection)
	return err
}

func (db *chromemProvider) DeleteCollection(ctx context.Context, collection string) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	if err := db.db.DeleteCollection(collection); err != nil {
		return fmt.Errorf("failed to delete collection: %w", err)
	}
	delete(db.collections, collection)
	return nil
}

func (db *chromemProvider) Close() error { return nil }
