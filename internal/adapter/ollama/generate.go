package ollama

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/IrfanArv/dms-ai/internal/domain/entity"
)

type GenerateClient struct {
	baseURL string
	model   string
	client  *http.Client
}

// NewGenerateClient creates a streaming client for the Ollama generate
// endpoint. The underlying http.Client carries no timeout because the
// connection stays open for the whole generation.
func NewGenerateClient(baseURL, model string) *GenerateClient {
	return &GenerateClient{
		baseURL: baseURL,
		model:   model,
		client:  &http.Client{},
	}
}

// Generate streams text fragments for the given prompt. Setup failures
// (connection, non-2xx status) are returned as an error; failures after
// streaming has begun are delivered as a final Fragment with Err set and
// the channel is closed, so consumers always see a clean end of stream.
func (c *GenerateClient) Generate(ctx context.Context, prompt string, temperature float32) (<-chan entity.Fragment, error) {
	payload, err := json.Marshal(map[string]any{
		"model":       c.model,
		"prompt":      prompt,
		"stream":      true,
		"temperature": temperature,
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/generate", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to open generation stream: %w", err)
	}
	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		resp.Body.Close()
		return nil, fmt.Errorf("ollama generate failed: %s: %s", resp.Status, bytes.TrimSpace(body))
	}

	fragments := make(chan entity.Fragment)
	go c.stream(ctx, resp.Body, fragments)
	return fragments, nil
}

// stream scans the NDJSON body line by line. Malformed or non-text lines
// are skipped without aborting the stream.
func (c *GenerateClient) stream(ctx context.Context, body io.ReadCloser, fragments chan<- entity.Fragment) {
	defer close(fragments)
	defer body.Close()

	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}

		var chunk struct {
			Text     string `json:"text"`
			Response string `json:"response"`
			Done     bool   `json:"done"`
		}
		if err := json.Unmarshal(line, &chunk); err != nil {
			continue
		}

		if chunk.Text != "" {
			if !send(ctx, fragments, entity.Fragment{Text: chunk.Text}) {
				return
			}
		}
		if chunk.Response != "" {
			if !send(ctx, fragments, entity.Fragment{Text: chunk.Response}) {
				return
			}
		}
		if chunk.Done {
			return
		}
	}

	if err := scanner.Err(); err != nil && ctx.Err() == nil {
		send(ctx, fragments, entity.Fragment{Err: fmt.Errorf("generation stream interrupted: %w", err)})
	}
}

func send(ctx context.Context, ch chan<- entity.Fragment, f entity.Fragment) bool {
	select {
	case ch <- f:
		return true
	case <-ctx.Done():
		return false
	}
}
