package ingest

import (
	"strings"
	"unicode"
)

// separator priority: paragraph breaks, line breaks, sentence ends, words.
// Whitespace normalization removes line structure up front, but the full
// priority list is kept so pre-normalized callers still split sanely.
var separators = []string{"\n\n", "\n", ". ", "! ", "? ", " "}

type Chunker struct {
	chunkSize    int
	chunkOverlap int
}

// NewChunker creates a new chunker
func NewChunker(chunkSize, chunkOverlap int) *Chunker {
	if chunkSize <= 0 {
		chunkSize = 1000
	}
	if chunkOverlap < 0 || chunkOverlap >= chunkSize {
		chunkOverlap = chunkSize / 5
	}
	return &Chunker{
		chunkSize:    chunkSize,
		chunkOverlap: chunkOverlap,
	}
}

// ChunkText splits text into overlapping bounded-size chunks. Whitespace
// runs are collapsed to single spaces first, so original line structure is
// not preserved. The size bound is advisory: an indivisible run longer
// than chunkSize is emitted whole.
func (c *Chunker) ChunkText(text string) []string {
	text = strings.TrimSpace(cleanText(text))
	if len(text) == 0 {
		return []string{}
	}
	return c.merge(c.atomize(text, separators))
}

// atomize recursively splits text on the separator priority list until
// every piece fits chunkSize, keeping semantically coherent boundaries
// where possible. A piece with no separator left is returned whole.
func (c *Chunker) atomize(text string, seps []string) []string {
	if len(text) <= c.chunkSize {
		return []string{text}
	}
	for i, sep := range seps {
		if !strings.Contains(text, sep) {
			continue
		}
		var atoms []string
		for _, piece := range splitKeep(text, sep) {
			if len(piece) > c.chunkSize {
				atoms = append(atoms, c.atomize(piece, seps[i+1:])...)
			} else {
				atoms = append(atoms, piece)
			}
		}
		return atoms
	}
	return []string{text}
}

// merge packs atoms into chunks up to chunkSize, carrying up to
// chunkOverlap characters of trailing atoms into the next chunk to
// preserve context continuity across boundaries.
func (c *Chunker) merge(atoms []string) []string {
	var chunks []string
	var window []string
	total := 0

	for _, atom := range atoms {
		if total+len(atom) > c.chunkSize && len(window) > 0 {
			if chunk := strings.TrimSpace(strings.Join(window, "")); chunk != "" {
				chunks = append(chunks, chunk)
			}
			// drop leading atoms until the retained tail fits the overlap
			// budget and leaves room for the incoming atom
			for total > c.chunkOverlap || (total+len(atom) > c.chunkSize && total > 0) {
				total -= len(window[0])
				window = window[1:]
			}
		}
		window = append(window, atom)
		total += len(atom)
	}

	if len(window) > 0 {
		if chunk := strings.TrimSpace(strings.Join(window, "")); chunk != "" {
			chunks = append(chunks, chunk)
		}
	}

	return chunks
}

// splitKeep splits text on sep, keeping the separator attached to the
// piece that precedes it so no characters are lost between atoms.
func splitKeep(text, sep string) []string {
	parts := strings.Split(text, sep)
	out := make([]string, 0, len(parts))
	for i, p := range parts {
		if i < len(parts)-1 {
			p += sep
		}
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func cleanText(text string) string {
	// remove multiple whitespace
	var result strings.Builder
	prevSpace := false

	for _, r := range text {
		if unicode.IsSpace(r) {
			if !prevSpace {
				result.WriteRune(' ')
				prevSpace = true
			}
		} else {
			result.WriteRune(r)
			prevSpace = false
		}
	}

	return result.String()
}
