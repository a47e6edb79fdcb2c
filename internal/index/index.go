// Package index wraps the persisted chromem-go vector database that
// serves chunk retrieval.
package index

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"strconv"

	"github.com/philippgille/chromem-go"
	"github.com/rs/zerolog/log"

	"handbook-rag/internal/models"
)

// ErrIndexLoad marks a missing or empty index at serving time. Fatal
// to serving; the ingest command must run first.
var ErrIndexLoad = errors.New("vector index unavailable")

const (
	collectionName = "handbook"
	compress       = false

	// DefaultTopK is the retrieval depth when the caller does not ask
	// for a specific k.
	DefaultTopK = 5
)

// Index is a persisted similarity index over handbook chunks.
type Index struct {
	db         *chromem.DB
	collection *chromem.Collection
	path       string
	embed      chromem.EmbeddingFunc
}

// Open loads an existing index for serving. It fails with ErrIndexLoad
// when the index directory holds no indexed documents.
func Open(path string, embed chromem.EmbeddingFunc) (*Index, error) {
	ix, err := open(path, embed)
	if err != nil {
		return nil, err
	}
	if ix.collection.Count() == 0 {
		return nil, fmt.Errorf("%w: no documents indexed at %s", ErrIndexLoad, path)
	}
	log.Info().Int("documents", ix.collection.Count()).Str("path", path).Msg("vector index loaded")
	return ix, nil
}

// Create opens (or initializes) the index directory for a rebuild.
func Create(path string, embed chromem.EmbeddingFunc) (*Index, error) {
	return open(path, embed)
}

func open(path string, embed chromem.EmbeddingFunc) (*Index, error) {
	db, err := chromem.NewPersistentDB(path, compress)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIndexLoad, err)
	}
	collection, err := db.GetOrCreateCollection(collectionName, nil, embed)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIndexLoad, err)
	}
	return &Index{db: db, collection: collection, path: path, embed: embed}, nil
}

// Rebuild replaces the index contents wholesale: the existing
// collection is dropped and every chunk embedded and stored fresh.
func (ix *Index) Rebuild(ctx context.Context, chunks []models.Chunk) error {
	if err := ix.db.DeleteCollection(collectionName); err != nil {
		return fmt.Errorf("dropping collection: %w", err)
	}
	collection, err := ix.db.GetOrCreateCollection(collectionName, nil, ix.embed)
	if err != nil {
		return fmt.Errorf("recreating collection: %w", err)
	}
	ix.collection = collection

	docs := make([]chromem.Document, 0, len(chunks))
	for _, chunk := range chunks {
		docs = append(docs, chromem.Document{
			ID:      fmt.Sprintf("chunk-%04d", chunk.Index),
			Content: chunk.Content,
			Metadata: map[string]string{
				"importance_score":       strconv.Itoa(chunk.ImportanceScore),
				"chunk_index":            strconv.Itoa(chunk.Index),
				"contains_license_terms": strconv.FormatBool(chunk.HasDomainTerms),
			},
		})
	}

	log.Info().Int("documents", len(docs)).Str("path", ix.path).Msg("embedding and storing chunks")
	if err := ix.collection.AddDocuments(ctx, docs, runtime.NumCPU()); err != nil {
		return fmt.Errorf("adding documents: %w", err)
	}
	return nil
}

// Search embeds the query and returns the k nearest chunks. k defaults
// to DefaultTopK and is clamped to the collection size.
func (ix *Index) Search(ctx context.Context, query string, k int) ([]models.SearchResult, error) {
	if k <= 0 {
		k = DefaultTopK
	}
	if n := ix.collection.Count(); k > n {
		k = n
	}
	if k == 0 {
		return nil, nil
	}

	results, err := ix.collection.Query(ctx, query, k, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("similarity query: %w", err)
	}

	out := make([]models.SearchResult, 0, len(results))
	for _, r := range results {
		out = append(out, models.SearchResult{
			Content:    r.Content,
			Similarity: r.Similarity,
			Metadata:   r.Metadata,
		})
	}
	return out, nil
}

// Count returns the number of indexed documents.
func (ix *Index) Count() int {
	return ix.collection.Count()
}
