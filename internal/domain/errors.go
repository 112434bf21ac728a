package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrUnsupportedFileType signals an upload with a non-PDF extension.
	ErrUnsupportedFileType = errors.New("unsupported file type")
	// ErrDocumentNotFound signals a missing document registry record.
	ErrDocumentNotFound = errors.New("document not found")
	// ErrIndexingFailed signals a failure anywhere in the indexing pipeline.
	ErrIndexingFailed = errors.New("indexing failed")
	// ErrPartialDelete signals a half-completed document deletion.
	ErrPartialDelete = errors.New("partial delete")
	// ErrEmbeddingProviderError signals an embedding provider failure.
	ErrEmbeddingProviderError = errors.New("embedding provider error")
	// ErrLLMProviderError signals a chat completion provider failure.
	ErrLLMProviderError = errors.New("llm provider error")
	// ErrRerankProviderError signals a reranking provider failure.
	ErrRerankProviderError = errors.New("rerank provider error")
	// ErrUnknownModel signals a chat request naming an unsupported model.
	ErrUnknownModel = errors.New("unknown model")
)

// DeleteSide identifies which half of a document deletion failed.
type DeleteSide string

const (
	// DeleteSideIndex is the vector index half of a document deletion.
	DeleteSideIndex DeleteSide = "vector index"
	// DeleteSideRegistry is the registry half of a document deletion.
	DeleteSideRegistry DeleteSide = "registry"
)

// PartialDeleteError wraps ErrPartialDelete with the side that failed.
// The index and registry deletions are not transactional; the caller needs
// to know which side to reconcile manually.
type PartialDeleteError struct {
	DocumentID int64
	Failed     DeleteSide
	Cause      error
}

func (e *PartialDeleteError) Error() string {
	return fmt.Sprintf("%s: document %d: %s deletion failed: %v",
		ErrPartialDelete.Error(), e.DocumentID, e.Failed, e.Cause)
}

func (e *PartialDeleteError) Unwrap() error { return ErrPartialDelete }

// NewPartialDelete creates a partial delete error for the given side.
func NewPartialDelete(documentID int64, failed DeleteSide, cause error) error {
	return &PartialDeleteError{DocumentID: documentID, Failed: failed, Cause: cause}
}
