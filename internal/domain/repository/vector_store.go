package repository

import (
	"context"

	"github.com/IrfanArv/dms-ai/internal/domain/entity"
)

// VectorStore persists chunks with their embeddings and supports
// nearest-neighbor similarity search. Scores follow the cosine similarity
// convention: higher is more relevant.
type VectorStore interface {
	// Add embeds and persists the given chunks. Blank chunks are filtered
	// out before the embedder is called; adding only blank chunks stores
	// nothing and performs no remote call.
	Add(ctx context.Context, chunks []entity.Chunk, meta entity.DocumentMetadata) error

	// SimilaritySearch embeds the query and returns up to k results,
	// best match first.
	SimilaritySearch(ctx context.Context, query string, k int) ([]entity.RetrievalResult, error)

	// Count returns the total number of stored records.
	Count(ctx context.Context) (int, error)
}
