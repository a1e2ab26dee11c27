package dto

import (
	"github.com/IrfanArv/dms-ai/internal/domain/entity"
	"github.com/IrfanArv/dms-ai/internal/usecase/ingest"
)

type UploadResponse struct {
	Filename    string                  `json:"filename"`
	Metadata    entity.DocumentMetadata `json:"metadata"`
	ChunksCount int                     `json:"chunks_count"`
}

type BatchUploadResponse struct {
	TotalFiles     int                `json:"total_files"`
	ProcessedFiles int                `json:"processed_files"`
	Results        []ingest.BatchItem `json:"results"`
}
