package handler

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/valyala/fasthttp"

	"github.com/IrfanArv/dms-ai/internal/delivery/http/dto"
	"github.com/IrfanArv/dms-ai/internal/domain/entity"
	"github.com/IrfanArv/dms-ai/internal/usecase/rag"
	"github.com/IrfanArv/dms-ai/pkg/uploads"
)

type ChatHandler struct {
	ragSvc  *rag.Service
	uploads *uploads.Dir
}

func NewChatHandler(ragSvc *rag.Service, uploadDir *uploads.Dir) *ChatHandler {
	return &ChatHandler{ragSvc: ragSvc, uploads: uploadDir}
}

// Chat answers a query without streaming: full concatenated response plus
// source attribution.
func (h *ChatHandler) Chat(c *fiber.Ctx) error {
	req, err := parseChatRequest(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: err.Error()})
	}

	answer, err := h.ragSvc.Answer(c.Context(), req)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Error: err.Error()})
	}

	return c.Status(fiber.StatusOK).JSON(dto.ChatResponse{
		Response: answer.Response,
		Sources:  answer.Sources,
	})
}

// ChatStream answers a query over server-sent events: one {"text": ...}
// record per fragment, a final {"sources": [...]} record, or a single
// {"error": ...} record replacing the remainder on failure.
func (h *ChatHandler) ChatStream(c *fiber.Ctx) error {
	req, err := parseChatRequest(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: err.Error()})
	}

	c.Set(fiber.HeaderContentType, "text/event-stream")
	c.Set(fiber.HeaderCacheControl, "no-cache")
	c.Set(fiber.HeaderConnection, "keep-alive")

	svc := h.ragSvc
	c.Context().SetBodyStreamWriter(fasthttp.StreamWriter(func(w *bufio.Writer) {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		for ev := range svc.AnswerStream(ctx, req) {
			fmt.Fprintf(w, "data: %s\n\n", marshalEvent(ev))
			if err := w.Flush(); err != nil {
				// client went away; stop emitting and tear down the stream
				return
			}
		}
	}))
	return nil
}

// GetDocument serves a raw uploaded file back to the client.
func (h *ChatHandler) GetDocument(c *fiber.Ctx) error {
	filename := c.Params("filename")

	path, err := h.uploads.Open(filename)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Error: "File not found"})
	}

	return c.SendFile(path)
}

func parseChatRequest(c *fiber.Ctx) (rag.Request, error) {
	var body dto.ChatRequest
	if err := c.BodyParser(&body); err != nil {
		return rag.Request{}, fmt.Errorf("invalid request body")
	}
	if body.Query == "" {
		return rag.Request{}, fmt.Errorf("query is required")
	}
	return rag.Request{
		Query:         body.Query,
		ContextWindow: body.ContextWindow,
		Temperature:   body.Temperature,
	}, nil
}

func marshalEvent(ev entity.StreamEvent) []byte {
	var payload []byte
	switch {
	case ev.Err != nil:
		payload, _ = json.Marshal(fiber.Map{"error": ev.Err.Error()})
	case ev.Sources != nil:
		payload, _ = json.Marshal(fiber.Map{"sources": ev.Sources})
	default:
		payload, _ = json.Marshal(fiber.Map{"text": ev.Text})
	}
	return payload
}
