package repository

import "context"

// Embedder converts text into fixed-dimension vectors via a remote model.
// Implementations must return an error when the remote model yields no
// embedding for non-empty input; a silently substituted default vector
// would corrupt the similarity geometry.
type Embedder interface {
	// EmbedDocuments embeds a batch of texts. An empty batch returns an
	// empty result without a remote call.
	EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error)

	// EmbedQuery embeds a single query. An empty query returns a nil
	// vector without a remote call; callers must treat a nil vector as a
	// non-retrievable query.
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}
