package ingest

import (
	"context"
	"fmt"
	"log"

	"github.com/IrfanArv/dms-ai/internal/domain/entity"
	"github.com/IrfanArv/dms-ai/internal/domain/repository"
	"github.com/IrfanArv/dms-ai/pkg/uploads"
)

// Service runs the ingest pipeline: persist the raw upload, extract text,
// chunk it and hand the chunks to the vector store.
type Service struct {
	store     repository.VectorStore
	extractor repository.TextExtractor
	uploads   *uploads.Dir
	chunker   *Chunker
}

// Result reports what a single ingest produced.
type Result struct {
	Filename    string                  `json:"filename"`
	Metadata    entity.DocumentMetadata `json:"metadata"`
	ChunksCount int                     `json:"chunks_count"`
}

// BatchItem reports the outcome for one file of a batch ingest.
type BatchItem struct {
	Filename    string                   `json:"filename"`
	Status      string                   `json:"status"`
	Metadata    *entity.DocumentMetadata `json:"metadata,omitempty"`
	ChunksCount int                      `json:"chunks_count,omitempty"`
	Error       string                   `json:"error,omitempty"`
}

// File is one uploaded file handed to the batch ingest.
type File struct {
	Name string
	Data []byte
}

func NewService(
	store repository.VectorStore,
	extractor repository.TextExtractor,
	uploadDir *uploads.Dir,
	chunkSize, chunkOverlap int,
) *Service {
	return &Service{
		store:     store,
		extractor: extractor,
		uploads:   uploadDir,
		chunker:   NewChunker(chunkSize, chunkOverlap),
	}
}

// IngestFile processes a single uploaded file end to end.
func (s *Service) IngestFile(ctx context.Context, filename string, data []byte) (*Result, error) {
	// 1 save raw file
	if _, err := s.uploads.Save(filename, data); err != nil {
		return nil, fmt.Errorf("failed to save file: %w", err)
	}

	// 2 extract text and metadata
	text, meta, err := s.extractor.Extract(filename, data)
	if err != nil {
		return nil, fmt.Errorf("extraction error: %w", err)
	}
	log.Printf("Extracted %d characters from %s", len(text), filename)

	// 3 chunk
	textChunks := s.chunker.ChunkText(text)
	chunks := make([]entity.Chunk, len(textChunks))
	for i, content := range textChunks {
		chunks[i] = entity.Chunk{
			Text:     content,
			Index:    i,
			Metadata: meta,
		}
	}
	log.Printf("Generated %d chunks from %s", len(chunks), filename)

	// 4 embed and store
	if err := s.store.Add(ctx, chunks, meta); err != nil {
		return nil, fmt.Errorf("failed to store chunks: %w", err)
	}
	log.Printf("Stored %d chunks for %s", len(chunks), filename)

	return &Result{
		Filename:    filename,
		Metadata:    meta,
		ChunksCount: len(chunks),
	}, nil
}

// IngestBatch processes files independently; one failing file does not
// abort the rest.
func (s *Service) IngestBatch(ctx context.Context, files []File) []BatchItem {
	items := make([]BatchItem, 0, len(files))
	for _, f := range files {
		result, err := s.IngestFile(ctx, f.Name, f.Data)
		if err != nil {
			log.Printf("Error ingesting %s: %v", f.Name, err)
			items = append(items, BatchItem{
				Filename: f.Name,
				Status:   "error",
				Error:    err.Error(),
			})
			continue
		}
		items = append(items, BatchItem{
			Filename:    result.Filename,
			Status:      "success",
			Metadata:    &result.Metadata,
			ChunksCount: result.ChunksCount,
		})
	}
	return items
}
