package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

type EmbeddingClient struct {
	baseURL string
	model   string
	client  *http.Client
}

// NewEmbeddingClient creates a new Ollama embedding client
func NewEmbeddingClient(baseURL, model string) *EmbeddingClient {
	return &EmbeddingClient{
		baseURL: baseURL,
		model:   model,
		client:  &http.Client{Timeout: 60 * time.Second},
	}
}

// EmbedDocuments embeds each text with one call per text; the Ollama
// embeddings endpoint takes a single prompt at a time. An empty batch
// performs no remote call.
func (c *EmbeddingClient) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	vectors := make([][]float32, 0, len(texts))
	for i, text := range texts {
		vector, err := c.embed(ctx, text)
		if err != nil {
			return nil, fmt.Errorf("failed to embed document %d: %w", i, err)
		}
		if len(vector) == 0 {
			return nil, fmt.Errorf("empty embedding returned for document %d", i)
		}
		vectors = append(vectors, vector)
	}
	return vectors, nil
}

// EmbedQuery embeds a single query text. An empty query returns a nil
// vector without a remote call.
func (c *EmbeddingClient) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	if text == "" {
		return nil, nil
	}

	vector, err := c.embed(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}
	if len(vector) == 0 {
		return nil, fmt.Errorf("empty embedding returned for query")
	}
	return vector, nil
}

func (c *EmbeddingClient) embed(ctx context.Context, text string) ([]float32, error) {
	payload, err := json.Marshal(map[string]any{
		"model":  c.model,
		"prompt": text,
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/embeddings", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("ollama embeddings failed: %s: %s", resp.Status, bytes.TrimSpace(body))
	}

	var out struct {
		Embedding []float32 `json:"embedding"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to decode embedding response: %w", err)
	}
	return out.Embedding, nil
}
