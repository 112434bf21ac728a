// Package chunker splits extracted document text into overlapping retrieval
// units.
package chunker

import (
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/textsplitter"

	"github.com/kailas-cloud/curriqa/internal/domain"
	"github.com/kailas-cloud/curriqa/internal/loader"
)

const (
	// DefaultChunkSize is the target chunk size in characters.
	DefaultChunkSize = 1000
	// DefaultChunkOverlap is the overlap between neighboring chunks in characters.
	DefaultChunkOverlap = 200
)

// Chunker splits page text into chunks using recursive character splitting,
// which prefers paragraph then sentence boundaries before hard cuts.
type Chunker struct {
	splitter textsplitter.RecursiveCharacter
}

// New creates a chunker with the given size and overlap. Non-positive values
// fall back to the defaults.
func New(size, overlap int) *Chunker {
	if size <= 0 {
		size = DefaultChunkSize
	}
	if overlap <= 0 {
		overlap = DefaultChunkOverlap
	}
	return &Chunker{
		splitter: textsplitter.NewRecursiveCharacter(
			textsplitter.WithChunkSize(size),
			textsplitter.WithChunkOverlap(overlap),
		),
	}
}

// Split turns per-page extracted text into ordered chunks for one document.
// Empty input text yields zero chunks, not an error.
func (c *Chunker) Split(doc domain.Document, pages []loader.Page) ([]domain.Chunk, error) {
	var chunks []domain.Chunk
	seq := 0

	for _, page := range pages {
		if strings.TrimSpace(page.Text) == "" {
			continue
		}

		parts, err := c.splitter.SplitText(page.Text)
		if err != nil {
			return nil, fmt.Errorf("split page %d: %w", page.Number, err)
		}

		for _, part := range parts {
			if strings.TrimSpace(part) == "" {
				continue
			}
			chunks = append(chunks, domain.Chunk{
				DocumentID: doc.ID,
				Source:     doc.Filename,
				Page:       page.Number,
				Seq:        seq,
				Text:       part,
			})
			seq++
		}
	}

	return chunks, nil
}
