package rag

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/IrfanArv/dms-ai/internal/domain/entity"
	"github.com/IrfanArv/dms-ai/internal/domain/repository"
	"github.com/IrfanArv/dms-ai/pkg/uploads"
)

// Service orchestrates a chat request: similarity retrieval, prompt
// construction, generation and response assembly with source attribution.
// It only reads from the vector store and never mutates shared state.
type Service struct {
	store     repository.VectorStore
	generator repository.Generator
	uploads   *uploads.Dir

	defaultContextWindow int
	defaultTemperature   float32
}

// Request is one chat query. ContextWindow and Temperature fall back to
// the configured defaults when left at zero.
type Request struct {
	Query         string
	ContextWindow int
	Temperature   float32
}

// Answer is the non-streaming response shape.
type Answer struct {
	Response string             `json:"response"`
	Sources  []entity.SourceRef `json:"sources"`
}

func NewService(
	store repository.VectorStore,
	generator repository.Generator,
	uploadDir *uploads.Dir,
	defaultContextWindow int,
	defaultTemperature float32,
) *Service {
	if defaultContextWindow < 1 {
		defaultContextWindow = 5
	}
	return &Service{
		store:                store,
		generator:            generator,
		uploads:              uploadDir,
		defaultContextWindow: defaultContextWindow,
		defaultTemperature:   defaultTemperature,
	}
}

// Answer runs the pipeline and returns the concatenated response. A
// generation failure aborts the whole request; partial answers are only a
// streaming concern.
func (s *Service) Answer(ctx context.Context, req Request) (*Answer, error) {
	results, prompt, err := s.retrieveAndPrompt(ctx, req)
	if err != nil {
		return nil, err
	}

	fragments, err := s.generator.Generate(ctx, prompt, s.temperature(req))
	if err != nil {
		return nil, fmt.Errorf("failed to start generation: %w", err)
	}

	var sb strings.Builder
	for f := range fragments {
		if f.Err != nil {
			return nil, f.Err
		}
		sb.WriteString(f.Text)
	}

	return &Answer{
		Response: sb.String(),
		Sources:  sources(results),
	}, nil
}

// AnswerStream runs the pipeline and emits one event per generated
// fragment, then a final sources event. Any failure before generation
// produces a single terminal error event; a mid-generation failure
// arrives as an error event after the fragments already delivered.
func (s *Service) AnswerStream(ctx context.Context, req Request) <-chan entity.StreamEvent {
	events := make(chan entity.StreamEvent)

	go func() {
		defer close(events)

		results, prompt, err := s.retrieveAndPrompt(ctx, req)
		if err != nil {
			emit(ctx, events, entity.StreamEvent{Err: err})
			return
		}

		fragments, err := s.generator.Generate(ctx, prompt, s.temperature(req))
		if err != nil {
			emit(ctx, events, entity.StreamEvent{Err: fmt.Errorf("failed to start generation: %w", err)})
			return
		}

		for f := range fragments {
			if f.Err != nil {
				emit(ctx, events, entity.StreamEvent{Err: f.Err})
				return
			}
			if !emit(ctx, events, entity.StreamEvent{Text: f.Text}) {
				return
			}
		}

		emit(ctx, events, entity.StreamEvent{Sources: sources(results)})
	}()

	return events
}

// retrieveAndPrompt performs similarity search and builds the grounded
// prompt. An empty corpus yields an empty context block; the model is
// still invoked.
func (s *Service) retrieveAndPrompt(ctx context.Context, req Request) ([]entity.RetrievalResult, string, error) {
	k := req.ContextWindow
	if k < 1 {
		k = s.defaultContextWindow
	}

	results, err := s.store.SimilaritySearch(ctx, req.Query, k)
	if err != nil {
		return nil, "", fmt.Errorf("retrieval failed: %w", err)
	}

	stats, err := s.uploads.Stats()
	if err != nil {
		log.Printf("Failed to gather upload stats: %v", err)
		stats = uploads.Stats{LastUploadDate: "-"}
	}

	return results, buildPrompt(s.docCount(ctx), stats, results, req.Query), nil
}

// docCount prefers the store's record count. When the store backend is
// unavailable it falls back to counting raw uploaded files, which is an
// approximation (file count != chunk count), and says so in the log.
func (s *Service) docCount(ctx context.Context) int {
	count, err := s.store.Count(ctx)
	if err == nil {
		return count
	}
	log.Printf("Vector store count unavailable (%v); falling back to upload file count (approximate)", err)

	files, err := s.uploads.Count()
	if err != nil {
		return 0
	}
	return files
}

func (s *Service) temperature(req Request) float32 {
	if req.Temperature <= 0 {
		return s.defaultTemperature
	}
	return req.Temperature
}

func sources(results []entity.RetrievalResult) []entity.SourceRef {
	refs := make([]entity.SourceRef, 0, len(results))
	for _, r := range results {
		refs = append(refs, entity.SourceRef{
			Metadata: entity.SourceMetadata{
				Source:   r.Chunk.Metadata.Filename,
				FileType: r.Chunk.Metadata.FileType,
			},
			Score: r.Score,
		})
	}
	return refs
}

func emit(ctx context.Context, ch chan<- entity.StreamEvent, ev entity.StreamEvent) bool {
	select {
	case ch <- ev:
		return true
	case <-ctx.Done():
		return false
	}
}
