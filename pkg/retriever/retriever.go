// Package retriever fetches knowledge context for a query from the
// vector store.
package retriever

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/Javi111003/OlivIA-RAG/pkg/conversation"
	"github.com/Javi111003/OlivIA-RAG/pkg/databases"
	"github.com/Javi111003/OlivIA-RAG/pkg/embedders"
)

// Retriever embeds a query and searches the vector store.
type Retriever struct {
	embedder   embedders.EmbedderProvider
	db         databases.DatabaseProvider
	collection string
	topK       int
}

// New creates a retriever over the given embedder and store.
func New(embedder embedders.EmbedderProvider, db databases.DatabaseProvider, collection string, topK int) *Retriever {
	if topK <= 0 {
		topK = 3
	}
	return &Retriever{
		embedder:   embedder,
		db:         db,
		collection: collection,
		topK:       topK,
	}
}

// Retrieve returns up to topK documents ordered by score descending,
// ties stable by insertion order. On any failure it returns placeholder
// documents and degraded=true so the graph can proceed; the calling
// node records the degradation.
func (r *Retriever) Retrieve(ctx context.Context, query string) (docs []conversation.Document, degraded bool) {
	vector, err := r.embedder.Embed(ctx, query)
	if err != nil {
		slog.Warn("Query embedding failed, using placeholder context", "error", err)
		return fallbackDocuments(query), true
	}

	results, err := r.db.Search(ctx, r.collection, vector, r.topK)
	if err != nil {
		slog.Warn("Vector search failed, using placeholder context", "error", err)
		return fallbackDocuments(query), true
	}

	docs = make([]conversation.Document, 0, len(results))
	for _, res := range results {
		docs = append(docs, conversation.Document{Content: res.Content, Score: res.Score})
	}
	sort.SliceStable(docs, func(i, j int) bool {
		return docs[i].Score > docs[j].Score
	})

	return docs, false
}

func fallbackDocuments(query string) []conversation.Document {
	return []conversation.Document{
		{
			Content: fmt.Sprintf("No indexed material was available for %q. Answer from general secondary-school mathematics.", query),
			Score:   0,
		},
		{
			Content: "Prefer worked examples and definitions at the student's level.",
			Score:   0,
		},
	}
}
