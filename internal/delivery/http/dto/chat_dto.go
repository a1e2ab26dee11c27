package dto

import "github.com/IrfanArv/dms-ai/internal/domain/entity"

type ChatRequest struct {
	Query         string  `json:"query"`
	ContextWindow int     `json:"context_window"`
	Temperature   float32 `json:"temperature"`
}

type ChatResponse struct {
	Response string             `json:"response"`
	Sources  []entity.SourceRef `json:"sources"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}
