package chromem

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/philippgille/chromem-go"

	"github.com/IrfanArv/dms-ai/internal/domain/entity"
	"github.com/IrfanArv/dms-ai/internal/domain/repository"
)

// Store persists chunk embeddings in an embedded chromem-go collection.
// The collection uses cosine distance; reported scores are cosine
// similarity, higher is more relevant.
type Store struct {
	collection *chromem.Collection
	embedder   repository.Embedder
}

// NewStore opens (or creates) a persistent collection under dbPath.
func NewStore(dbPath, collectionName string, embedder repository.Embedder) (*Store, error) {
	db, err := chromem.NewPersistentDB(dbPath, false)
	if err != nil {
		return nil, fmt.Errorf("failed to open vector db: %w", err)
	}
	return newStore(db, collectionName, embedder)
}

// NewMemoryStore creates a non-persistent store, used in tests.
func NewMemoryStore(collectionName string, embedder repository.Embedder) (*Store, error) {
	return newStore(chromem.NewDB(), collectionName, embedder)
}

func newStore(db *chromem.DB, collectionName string, embedder repository.Embedder) (*Store, error) {
	metadata := map[string]string{
		"hnsw:space": "cosine",
	}
	collection, err := db.GetOrCreateCollection(collectionName, metadata, noRemoteEmbedding)
	if err != nil {
		return nil, fmt.Errorf("failed to create collection: %w", err)
	}
	return &Store{collection: collection, embedder: embedder}, nil
}

// noRemoteEmbedding guards against chromem computing embeddings itself;
// all vectors are supplied explicitly through the Embedder.
func noRemoteEmbedding(ctx context.Context, text string) ([]float32, error) {
	return nil, fmt.Errorf("embedding must be provided explicitly")
}

// Add embeds and stores the given chunks. Blank chunks are dropped before
// the embedder is called; an all-blank batch stores nothing.
func (s *Store) Add(ctx context.Context, chunks []entity.Chunk, meta entity.DocumentMetadata) error {
	kept := make([]entity.Chunk, 0, len(chunks))
	texts := make([]string, 0, len(chunks))
	for _, chunk := range chunks {
		if strings.TrimSpace(chunk.Text) == "" {
			continue
		}
		kept = append(kept, chunk)
		texts = append(texts, chunk.Text)
	}
	if len(kept) == 0 {
		return nil
	}

	vectors, err := s.embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		return fmt.Errorf("failed to embed chunks: %w", err)
	}
	if len(vectors) != len(kept) {
		return fmt.Errorf("embedding count mismatch: got %d for %d chunks", len(vectors), len(kept))
	}

	entitiesJSON, err := json.Marshal(meta.Entities)
	if err != nil {
		return fmt.Errorf("failed to serialize entities: %w", err)
	}

	ids := make([]string, len(kept))
	metadatas := make([]map[string]string, len(kept))
	for i, chunk := range kept {
		ids[i] = recordID(meta.Filename, chunk.Text, chunk.Index)
		metadatas[i] = map[string]string{
			"chunk_index": strconv.Itoa(chunk.Index),
			"file_type":   meta.FileType,
			"source":      meta.Filename,
			"entities":    string(entitiesJSON),
		}
	}

	if err := s.collection.Add(ctx, ids, vectors, metadatas, texts); err != nil {
		return fmt.Errorf("failed to store chunks: %w", err)
	}
	return nil
}

// SimilaritySearch embeds the query and returns up to k results, best
// match first. An empty query or an empty collection yields no results.
func (s *Store) SimilaritySearch(ctx context.Context, query string, k int) ([]entity.RetrievalResult, error) {
	if k < 1 {
		k = 1
	}

	vector, err := s.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}
	if len(vector) == 0 {
		return []entity.RetrievalResult{}, nil
	}

	total := s.collection.Count()
	if total == 0 {
		return []entity.RetrievalResult{}, nil
	}
	if k > total {
		k = total
	}

	found, err := s.collection.QueryEmbedding(ctx, vector, k, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("similarity search failed: %w", err)
	}

	results := make([]entity.RetrievalResult, 0, len(found))
	for _, res := range found {
		results = append(results, entity.RetrievalResult{
			Chunk: chunkFromRecord(res.Content, res.Metadata),
			Score: float64(res.Similarity),
		})
	}
	return results, nil
}

// Count returns the number of stored records.
func (s *Store) Count(ctx context.Context) (int, error) {
	return s.collection.Count(), nil
}

func chunkFromRecord(content string, metadata map[string]string) entity.Chunk {
	chunk := entity.Chunk{Text: content}
	if metadata == nil {
		return chunk
	}

	chunk.Index, _ = strconv.Atoi(metadata["chunk_index"])
	chunk.Metadata.Filename = metadata["source"]
	chunk.Metadata.FileType = metadata["file_type"]
	if raw := metadata["entities"]; raw != "" {
		json.Unmarshal([]byte(raw), &chunk.Metadata.Entities)
	}
	return chunk
}

// recordID derives a globally unique record id from the source filename,
// the chunk content and its position, so concurrent ingests of different
// documents can never overwrite each other's records.
func recordID(filename, text string, index int) string {
	h := sha256.Sum256([]byte(filename + "\x00" + text))
	return hex.EncodeToString(h[:8]) + "_" + strconv.Itoa(index)
}
