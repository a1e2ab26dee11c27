package entity

// Entity is a named entity extracted from a document, attached to every
// chunk of that document.
type Entity struct {
	Text  string `json:"text"`
	Label string `json:"label"`
}

// DocumentMetadata is produced by text extraction and attached identically
// to every chunk of the same document.
type DocumentMetadata struct {
	Filename string   `json:"filename"`
	FileType string   `json:"file_type"`
	Entities []Entity `json:"entities,omitempty"`
}

// Chunk is a bounded span of normalized document text, the unit of
// retrieval. Immutable once created.
type Chunk struct {
	Text     string           `json:"text"`
	Index    int              `json:"index"`
	Metadata DocumentMetadata `json:"metadata"`
}

// RetrievalResult pairs a retrieved chunk with its relevance score.
// Scores are cosine similarity: higher is more relevant.
type RetrievalResult struct {
	Chunk Chunk   `json:"chunk"`
	Score float64 `json:"score"`
}
