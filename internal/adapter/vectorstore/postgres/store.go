package postgres

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pgvector/pgvector-go"

	"github.com/IrfanArv/dms-ai/internal/domain/entity"
	"github.com/IrfanArv/dms-ai/internal/domain/repository"
)

// Store persists chunk embeddings in a pgvector-enabled Postgres table.
// Scores are cosine similarity (1 - cosine distance), higher is more
// relevant. A colliding chunk key overwrites the prior record.
type Store struct {
	db       *sqlx.DB
	embedder repository.Embedder
}

func NewStore(db *sqlx.DB, embedder repository.Embedder) *Store {
	return &Store{db: db, embedder: embedder}
}

// Add embeds and stores the given chunks in one transaction. Blank chunks
// are dropped before the embedder is called.
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

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	query := `
		INSERT INTO chunks (id, chunk_key, chunk_index, content, embedding, source, file_type, entities, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (chunk_key) DO UPDATE
		SET content = EXCLUDED.content,
			embedding = EXCLUDED.embedding,
			entities = EXCLUDED.entities,
			created_at = EXCLUDED.created_at
	`

	now := time.Now()
	for i, chunk := range kept {
		_, err := tx.ExecContext(ctx, query,
			uuid.New().String(),
			chunkKey(meta.Filename, chunk.Text, chunk.Index),
			chunk.Index,
			chunk.Text,
			pgvector.NewVector(vectors[i]),
			meta.Filename,
			meta.FileType,
			string(entitiesJSON),
			now,
		)
		if err != nil {
			return fmt.Errorf("failed to store chunk %d: %w", chunk.Index, err)
		}
	}

	return tx.Commit()
}

// SimilaritySearch embeds the query and scans stored vectors by cosine
// distance, best match first.
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

	stmt := `
		SELECT content, chunk_index, source, file_type, entities,
			1 - (embedding <=> $1) AS similarity
		FROM chunks
		ORDER BY embedding <=> $1
		LIMIT $2
	`

	rows, err := s.db.QueryContext(ctx, stmt, pgvector.NewVector(vector), k)
	if err != nil {
		return nil, fmt.Errorf("similarity search failed: %w", err)
	}
	defer rows.Close()

	results := make([]entity.RetrievalResult, 0, k)
	for rows.Next() {
		var (
			chunk       entity.Chunk
			entitiesRaw string
			score       float64
		)
		if err := rows.Scan(&chunk.Text, &chunk.Index, &chunk.Metadata.Filename,
			&chunk.Metadata.FileType, &entitiesRaw, &score); err != nil {
			return nil, err
		}
		if entitiesRaw != "" {
			json.Unmarshal([]byte(entitiesRaw), &chunk.Metadata.Entities)
		}
		results = append(results, entity.RetrievalResult{Chunk: chunk, Score: score})
	}
	return results, rows.Err()
}

// Count returns the number of stored records.
func (s *Store) Count(ctx context.Context) (int, error) {
	var count int
	if err := s.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM chunks`); err != nil {
		return 0, fmt.Errorf("failed to count chunks: %w", err)
	}
	return count, nil
}

// chunkKey derives a globally unique record key from the source filename,
// the chunk content and its position.
func chunkKey(filename, text string, index int) string {
	h := sha256.Sum256([]byte(filename + "\x00" + text))
	return hex.EncodeToString(h[:8]) + "_" + strconv.Itoa(index)
}
