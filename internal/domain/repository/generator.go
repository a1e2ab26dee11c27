package repository

import (
	"context"

	"github.com/IrfanArv/dms-ai/internal/domain/entity"
)

// Generator streams text fragments from a remote language model. The
// returned channel is closed when generation completes; a mid-stream
// failure delivers one Fragment with Err set and then closes the channel,
// so consumers always observe a clean end of stream. Cancelling the
// context stops the stream.
type Generator interface {
	Generate(ctx context.Context, prompt string, temperature float32) (<-chan entity.Fragment, error)
}
