package handler

import (
	"io"
	"mime/multipart"

	"github.com/gofiber/fiber/v2"

	"github.com/IrfanArv/dms-ai/internal/delivery/http/dto"
	"github.com/IrfanArv/dms-ai/internal/usecase/ingest"
)

type UploadHandler struct {
	ingestSvc *ingest.Service
}

func NewUploadHandler(ingestSvc *ingest.Service) *UploadHandler {
	return &UploadHandler{ingestSvc: ingestSvc}
}

// Upload ingests a single document: save, extract, chunk, embed, store.
func (h *UploadHandler) Upload(c *fiber.Ctx) error {
	file, err := c.FormFile("file")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "Failed to get file"})
	}

	data, err := readUpload(file)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Error: "failed to read file"})
	}

	result, err := h.ingestSvc.IngestFile(c.Context(), file.Filename, data)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: err.Error()})
	}

	return c.Status(fiber.StatusOK).JSON(dto.UploadResponse{
		Filename:    result.Filename,
		Metadata:    result.Metadata,
		ChunksCount: result.ChunksCount,
	})
}

// UploadBatch ingests multiple documents independently and reports the
// outcome per file.
func (h *UploadHandler) UploadBatch(c *fiber.Ctx) error {
	form, err := c.MultipartForm()
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "Failed to parse form"})
	}

	headers := form.File["files"]
	if len(headers) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "No files provided"})
	}

	files := make([]ingest.File, 0, len(headers))
	for _, header := range headers {
		data, err := readUpload(header)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Error: "failed to read file"})
		}
		files = append(files, ingest.File{Name: header.Filename, Data: data})
	}

	results := h.ingestSvc.IngestBatch(c.Context(), files)

	return c.Status(fiber.StatusOK).JSON(dto.BatchUploadResponse{
		TotalFiles:     len(files),
		ProcessedFiles: len(results),
		Results:        results,
	})
}

func readUpload(header *multipart.FileHeader) ([]byte, error) {
	f, err := header.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}
