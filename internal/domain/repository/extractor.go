package repository

import "github.com/IrfanArv/dms-ai/internal/domain/entity"

// TextExtractor pulls plain text and metadata out of an uploaded file.
// Per-format extraction is an external concern; the ingest pipeline only
// depends on this contract.
type TextExtractor interface {
	Extract(filename string, data []byte) (string, entity.DocumentMetadata, error)
}
