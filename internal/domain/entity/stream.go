package entity

// Fragment is one incremental piece of generated text. A mid-stream
// failure is delivered as a single Fragment with Err set, after which the
// stream channel is closed.
type Fragment struct {
	Text string
	Err  error
}

// SourceRef identifies the document a retrieved chunk came from, paired
// with its relevance score. Emitted after generation completes.
type SourceRef struct {
	Metadata SourceMetadata `json:"metadata"`
	Score    float64        `json:"score"`
}

type SourceMetadata struct {
	Source   string `json:"source"`
	FileType string `json:"file_type"`
}

// StreamEvent is one record of the chat streaming protocol. Exactly one of
// Text, Sources or Err is set per event. Sources is the final event of a
// successful stream; Err is terminal.
type StreamEvent struct {
	Text    string
	Sources []SourceRef
	Err     error
}
