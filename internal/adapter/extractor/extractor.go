package extractor

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/IrfanArv/dms-ai/internal/domain/entity"
)

// Extractor pulls plain text out of uploaded files by extension.
// Entity extraction is an external concern; the metadata it returns
// carries an empty entity list for upstream enrichment.
type Extractor struct{}

func New() *Extractor {
	return &Extractor{}
}

func (e *Extractor) Extract(filename string, data []byte) (string, entity.DocumentMetadata, error) {
	fileType := strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), "."))
	meta := entity.DocumentMetadata{
		Filename: filename,
		FileType: fileType,
	}

	switch fileType {
	case "pdf":
		text, err := extractPDF(data)
		if err != nil {
			return "", meta, err
		}
		return text, meta, nil
	case "txt", "md", "csv", "log":
		return string(data), meta, nil
	default:
		return "", meta, fmt.Errorf("unsupported file type: %q", fileType)
	}
}

func extractPDF(data []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("failed to create PDF reader: %w", err)
	}

	var sb strings.Builder
	numPages := reader.NumPage()

	for i := 1; i <= numPages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}

		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}

		sb.WriteString(text)
		sb.WriteString("\n")
	}

	return sb.String(), nil
}
