// Package indexing orchestrates the document lifecycle: upload through
// extraction, chunking, contextual annotation and vector indexing, plus
// listing and two-sided deletion.
package indexing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/curriqa/internal/domain"
	"github.com/kailas-cloud/curriqa/internal/loader"
	"github.com/kailas-cloud/curriqa/internal/logger"
	"github.com/kailas-cloud/curriqa/internal/metrics"
)

// Registry is the consumer interface for the document registry (ISP).
type Registry interface {
	InsertDocument(ctx context.Context, filename string) (domain.Document, error)
	DeleteDocument(ctx context.Context, id int64) error
	ListDocuments(ctx context.Context) ([]domain.Document, error)
}

// VectorIndex is the consumer interface for chunk storage.
type VectorIndex interface {
	Index(ctx context.Context, chunks []domain.Chunk) error
	Delete(ctx context.Context, documentID int64) (int, error)
}

// Annotator adds contextual summaries to a chunk batch.
type Annotator interface {
	Annotate(ctx context.Context, chunks []domain.Chunk) ([]domain.Chunk, error)
}

// Splitter turns extracted pages into ordered chunks.
type Splitter interface {
	Split(doc domain.Document, pages []loader.Page) ([]domain.Chunk, error)
}

// LoadFunc extracts per-page text from a document on disk.
type LoadFunc func(path string) ([]loader.Page, error)

// Service implements the document lifecycle operations.
type Service struct {
	registry  Registry
	index     VectorIndex
	annotator Annotator
	splitter  Splitter
	load      LoadFunc
}

// New creates an indexing service.
func New(registry Registry, index VectorIndex, annotator Annotator, splitter Splitter, load LoadFunc) *Service {
	return &Service{
		registry:  registry,
		index:     index,
		annotator: annotator,
		splitter:  splitter,
		load:      load,
	}
}

// UploadResult reports a successful ingest.
type UploadResult struct {
	Document domain.Document
	Chunks   int
}

// Upload registers a document and runs the full indexing pipeline over the
// file at path. Any pipeline failure rolls the registry record back and
// returns domain.ErrIndexingFailed so no orphaned registry entries survive.
func (s *Service) Upload(ctx context.Context, filename, path string) (UploadResult, error) {
	log := logger.FromContext(ctx)
	started := time.Now()

	if !loader.SupportedExt(filename) {
		return UploadResult{}, fmt.Errorf("%s: %w", filename, domain.ErrUnsupportedFileType)
	}

	doc, err := s.registry.InsertDocument(ctx, filename)
	if err != nil {
		return UploadResult{}, fmt.Errorf("register document: %w", err)
	}

	chunks, err := s.indexDocument(ctx, doc, path)
	if err != nil {
		metrics.DocumentsIndexedTotal.WithLabelValues("error").Inc()
		log.Error("Indexing failed, rolling back registry record",
			zap.Int64("document_id", doc.ID),
			zap.String("filename", filename),
			zap.Error(err),
		)
		if rbErr := s.registry.DeleteDocument(ctx, doc.ID); rbErr != nil {
			log.Error("Registry rollback failed",
				zap.Int64("document_id", doc.ID),
				zap.Error(rbErr),
			)
		}
		return UploadResult{}, fmt.Errorf("%w: %s: %w", domain.ErrIndexingFailed, filename, err)
	}

	metrics.DocumentsIndexedTotal.WithLabelValues("success").Inc()
	metrics.IndexingDuration.Observe(time.Since(started).Seconds())
	log.Info("Document indexed",
		zap.Int64("document_id", doc.ID),
		zap.String("filename", filename),
		zap.Int("chunks", chunks),
		zap.Duration("took", time.Since(started)),
	)

	return UploadResult{Document: doc, Chunks: chunks}, nil
}

// indexDocument runs extract, split, annotate, index for one registered
// document and returns the stored chunk count.
func (s *Service) indexDocument(ctx context.Context, doc domain.Document, path string) (int, error) {
	pages, err := s.load(path)
	if err != nil {
		return 0, fmt.Errorf("extract text: %w", err)
	}

	chunks, err := s.splitter.Split(doc, pages)
	if err != nil {
		return 0, fmt.Errorf("split: %w", err)
	}

	annotated, err := s.annotator.Annotate(ctx, chunks)
	if err != nil {
		return 0, fmt.Errorf("annotate: %w", err)
	}

	if err := s.index.Index(ctx, annotated); err != nil {
		return 0, fmt.Errorf("index: %w", err)
	}
	return len(annotated), nil
}

// DeleteResult reports a completed document deletion.
type DeleteResult struct {
	DocumentID  int64
	ChunksFound int
}

// Delete removes a document from the vector index first, then the registry.
// Deleting an id with nothing left to remove is a no-op reporting zero
// chunks found, so repeating a delete succeeds. A failure after the index
// side has been cleared surfaces as a PartialDeleteError naming the side
// left behind.
func (s *Service) Delete(ctx context.Context, documentID int64) (DeleteResult, error) {
	found, err := s.index.Delete(ctx, documentID)
	if err != nil {
		return DeleteResult{}, domain.NewPartialDelete(documentID, domain.DeleteSideIndex, err)
	}

	if err := s.registry.DeleteDocument(ctx, documentID); err != nil && !errors.Is(err, domain.ErrDocumentNotFound) {
		return DeleteResult{}, domain.NewPartialDelete(documentID, domain.DeleteSideRegistry, err)
	}

	logger.FromContext(ctx).Info("Document deleted",
		zap.Int64("document_id", documentID),
		zap.Int("chunks_found", found),
	)
	return DeleteResult{DocumentID: documentID, ChunksFound: found}, nil
}

// List returns the registry contents, most recent upload first.
func (s *Service) List(ctx context.Context) ([]domain.Document, error) {
	return s.registry.ListDocuments(ctx)
}
