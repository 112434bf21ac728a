package indexing

import (
	"context"

	"github.com/kailas-cloud/curriqa/internal/domain"
	"github.com/kailas-cloud/curriqa/internal/loader"
)

// mockRegistry implements Registry for tests.
type mockRegistry struct {
	insertFn func(ctx context.Context, filename string) (domain.Document, error)
	deleteFn func(ctx context.Context, id int64) error
	listFn   func(ctx context.Context) ([]domain.Document, error)

	deleted []int64
}

func (m *mockRegistry) InsertDocument(ctx context.Context, filename string) (domain.Document, error) {
	if m.insertFn != nil {
		return m.insertFn(ctx, filename)
	}
	return domain.Document{ID: 1, Filename: filename}, nil
}

func (m *mockRegistry) DeleteDocument(ctx context.Context, id int64) error {
	m.deleted = append(m.deleted, id)
	if m.deleteFn != nil {
		return m.deleteFn(ctx, id)
	}
	return nil
}

func (m *mockRegistry) ListDocuments(ctx context.Context) ([]domain.Document, error) {
	if m.listFn != nil {
		return m.listFn(ctx)
	}
	return nil, nil
}

// mockIndex implements VectorIndex for tests.
type mockIndex struct {
	indexFn  func(ctx context.Context, chunks []domain.Chunk) error
	deleteFn func(ctx context.Context, documentID int64) (int, error)

	indexed [][]domain.Chunk
}

func (m *mockIndex) Index(ctx context.Context, chunks []domain.Chunk) error {
	m.indexed = append(m.indexed, chunks)
	if m.indexFn != nil {
		return m.indexFn(ctx, chunks)
	}
	return nil
}

func (m *mockIndex) Delete(ctx context.Context, documentID int64) (int, error) {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, documentID)
	}
	return 0, nil
}

// mockAnnotator implements Annotator for tests.
type mockAnnotator struct {
	annotateFn func(ctx context.Context, chunks []domain.Chunk) ([]domain.Chunk, error)
}

func (m *mockAnnotator) Annotate(ctx context.Context, chunks []domain.Chunk) ([]domain.Chunk, error) {
	if m.annotateFn != nil {
		return m.annotateFn(ctx, chunks)
	}
	out := make([]domain.Chunk, len(chunks))
	for i, ch := range chunks {
		ch.Context = "annotated"
		out[i] = ch
	}
	return out, nil
}

// mockSplitter implements Splitter for tests.
type mockSplitter struct {
	splitFn func(doc domain.Document, pages []loader.Page) ([]domain.Chunk, error)
}

func (m *mockSplitter) Split(doc domain.Document, pages []loader.Page) ([]domain.Chunk, error) {
	if m.splitFn != nil {
		return m.splitFn(doc, pages)
	}
	chunks := make([]domain.Chunk, len(pages))
	for i, p := range pages {
		chunks[i] = domain.Chunk{DocumentID: doc.ID, Source: doc.Filename, Page: p.Number, Seq: i, Text: p.Text}
	}
	return chunks, nil
}

func pagesLoader(pages []loader.Page, err error) LoadFunc {
	return func(string) ([]loader.Page, error) {
		return pages, err
	}
}
