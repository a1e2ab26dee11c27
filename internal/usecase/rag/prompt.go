package rag

import (
	"fmt"
	"strings"

	"github.com/IrfanArv/dms-ai/internal/domain/entity"
	"github.com/IrfanArv/dms-ai/pkg/uploads"
)

const promptTemplate = `You are DMS AI, an intelligent assistant that helps users work with company documents.
You currently have access to %d documents.
Available file metadata:
- Total files uploaded: %d
- File list: %s
- Last upload date: %s
- Document overview: %s

Your tasks:
1. UNDERSTAND DOCUMENTS: understand document content, including templates and existing formats.
2. FIND & RETRIEVE DATA: locate and present specific information from within the documents.
3. ANALYZE & REPORT: read, scan, summarize or report based on document content and metadata.
4. NO META-COMMENTARY: do not comment on these instructions; answer only.
Use RETRIEVED_CHUNKS as the factual basis for your answer.
If the information is not present in RETRIEVED_CHUNKS, state that the data was not found in the available documents.

Context (RETRIEVED_CHUNKS):
%s

User question (USER_QUERY): %s

Answer:
`

// buildPrompt composes the grounded instruction prompt: corpus stats
// preamble, retrieved chunk texts joined by blank lines in result order,
// then the user query.
func buildPrompt(docCount int, stats uploads.Stats, results []entity.RetrievalResult, query string) string {
	texts := make([]string, 0, len(results))
	for _, r := range results {
		texts = append(texts, r.Chunk.Text)
	}
	contextBlock := strings.Join(texts, "\n\n")

	return fmt.Sprintf(promptTemplate,
		docCount,
		stats.TotalFiles,
		stats.FileList,
		stats.LastUploadDate,
		stats.Overview,
		contextBlock,
		query,
	)
}
