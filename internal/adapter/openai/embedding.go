package openai

import (
	"context"
	"fmt"

	openai "github.com/sashabaranov/go-openai"
)

type EmbeddingClient struct {
	client *openai.Client
	model  string
}

// NewEmbeddingClient creates a new OpenAI embedding client
func NewEmbeddingClient(apiKey, model string) *EmbeddingClient {
	return &EmbeddingClient{
		client: openai.NewClient(apiKey),
		model:  model,
	}
}

// EmbedDocuments embeds all texts in one batch request. An empty batch
// performs no remote call.
func (c *EmbeddingClient) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	resp, err := c.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: texts,
		Model: openai.EmbeddingModel(c.model),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create embeddings: %w", err)
	}
	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("embedding count mismatch: got %d for %d texts", len(resp.Data), len(texts))
	}

	vectors := make([][]float32, len(resp.Data))
	for i, data := range resp.Data {
		if len(data.Embedding) == 0 {
			return nil, fmt.Errorf("empty embedding returned for document %d", i)
		}
		vectors[i] = data.Embedding
	}
	return vectors, nil
}

// EmbedQuery embeds a single query as a size-1 batch. An empty query
// returns a nil vector without a remote call.
func (c *EmbeddingClient) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	if text == "" {
		return nil, nil
	}

	vectors, err := c.EmbedDocuments(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}
