package openai

import (
	"context"
	"errors"
	"fmt"
	"io"

	openai "github.com/sashabaranov/go-openai"

	"github.com/IrfanArv/dms-ai/internal/domain/entity"
)

type ChatClient struct {
	client *openai.Client
	model  string
}

func NewChatClient(apiKey, model string) *ChatClient {
	return &ChatClient{
		client: openai.NewClient(apiKey),
		model:  model,
	}
}

// Generate streams completion deltas for the prompt. Setup failures are
// returned directly; a failure after streaming has begun is delivered as a
// final Fragment with Err set before the channel closes.
func (c *ChatClient) Generate(ctx context.Context, prompt string, temperature float32) (<-chan entity.Fragment, error) {
	stream, err := c.client.CreateChatCompletionStream(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleUser,
				Content: prompt,
			},
		},
		Temperature: temperature,
		Stream:      true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open completion stream: %w", err)
	}

	fragments := make(chan entity.Fragment)
	go func() {
		defer close(fragments)
		defer stream.Close()

		for {
			resp, err := stream.Recv()
			if errors.Is(err, io.EOF) {
				return
			}
			if err != nil {
				if ctx.Err() == nil {
					select {
					case fragments <- entity.Fragment{Err: fmt.Errorf("generation stream interrupted: %w", err)}:
					case <-ctx.Done():
					}
				}
				return
			}
			if len(resp.Choices) == 0 || resp.Choices[0].Delta.Content == "" {
				continue
			}
			select {
			case fragments <- entity.Fragment{Text: resp.Choices[0].Delta.Content}:
			case <-ctx.Done():
				return
			}
		}
	}()
	return fragments, nil
}
