package domain

import (
	"fmt"
	"time"
)

// Document is a registered curriculum document. The registry row is the
// source of truth for ownership: every indexed chunk carries the document ID
// in its metadata.
type Document struct {
	ID              int64
	Filename        string
	UploadTimestamp time.Time
}

// Chunk is a bounded span of extracted document text stored and embedded as
// one retrieval unit. Once indexed it is immutable until the parent document
// is deleted.
type Chunk struct {
	DocumentID int64
	Source     string // original filename
	Page       int    // 1-based page the span starts on
	Seq        int    // position in document reading order
	Text       string // raw extracted text, pre-contextualization
	Context    string // LLM-generated context summary, empty before annotation
}

// ID returns the stable vector store identifier for the chunk.
func (c Chunk) ID() string {
	return fmt.Sprintf("%d-%d", c.DocumentID, c.Seq)
}

// Embeddable returns the text that gets embedded and stored: the context
// annotation prepended to the original chunk text. Without an annotation the
// raw text goes in as is.
func (c Chunk) Embeddable() string {
	if c.Context == "" {
		return c.Text
	}
	return "Context: " + c.Context + "\n\nContent: " + c.Text
}
