package chi

import (
	"context"
	"errors"

	"github.com/kailas-cloud/curriqa/internal/domain"
	"github.com/kailas-cloud/curriqa/internal/loader"
)

// --- chat service stubs ---

type stubLog struct {
	turns []domain.Turn
}

func (s *stubLog) History(context.Context, string) ([]domain.Turn, error) { return nil, nil }

func (s *stubLog) InsertTurn(_ context.Context, turn domain.Turn) error {
	s.turns = append(s.turns, turn)
	return nil
}

type stubRetriever struct {
	candidates []domain.Candidate
	err        error
}

func (s *stubRetriever) Retrieve(context.Context, string, int) ([]domain.Candidate, error) {
	return s.candidates, s.err
}

type stubReranker struct{}

func (stubReranker) Rerank(_ context.Context, _ string, candidates []domain.Candidate, topN int) ([]domain.Candidate, error) {
	if len(candidates) > topN {
		candidates = candidates[:topN]
	}
	return candidates, nil
}

type stubModel struct {
	out string
	err error
}

func (m *stubModel) Generate(context.Context, []domain.Message) (string, error) {
	return m.out, m.err
}

func allowOnly(allowed string, model domain.ChatModel) func(string) (domain.ChatModel, error) {
	return func(name string) (domain.ChatModel, error) {
		if name != "" && name != allowed {
			return nil, domain.ErrUnknownModel
		}
		return model, nil
	}
}

// --- indexing service stubs ---

type stubRegistry struct {
	docs    []domain.Document
	nextID  int64
	deleted []int64
	delErr  error
}

func (s *stubRegistry) InsertDocument(_ context.Context, filename string) (domain.Document, error) {
	s.nextID++
	doc := domain.Document{ID: s.nextID, Filename: filename}
	s.docs = append(s.docs, doc)
	return doc, nil
}

func (s *stubRegistry) DeleteDocument(_ context.Context, id int64) error {
	s.deleted = append(s.deleted, id)
	return s.delErr
}

func (s *stubRegistry) ListDocuments(context.Context) ([]domain.Document, error) {
	return s.docs, nil
}

type stubIndex struct {
	indexErr error
	found    int
	delErr   error
}

func (s *stubIndex) Index(context.Context, []domain.Chunk) error { return s.indexErr }

func (s *stubIndex) Delete(context.Context, int64) (int, error) { return s.found, s.delErr }

type passthroughAnnotator struct{}

func (passthroughAnnotator) Annotate(_ context.Context, chunks []domain.Chunk) ([]domain.Chunk, error) {
	return chunks, nil
}

type pageSplitter struct{}

func (pageSplitter) Split(doc domain.Document, pages []loader.Page) ([]domain.Chunk, error) {
	chunks := make([]domain.Chunk, len(pages))
	for i, p := range pages {
		chunks[i] = domain.Chunk{DocumentID: doc.ID, Source: doc.Filename, Page: p.Number, Seq: i, Text: p.Text}
	}
	return chunks, nil
}

func fixedLoader(pages []loader.Page, err error) func(string) ([]loader.Page, error) {
	return func(string) ([]loader.Page, error) { return pages, err }
}

// --- health stubs ---

type stubPinger struct {
	err error
}

func (s *stubPinger) Ping(context.Context) error { return s.err }

var errDown = errors.New("down")
