package vecindex

import (
	"context"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/kailas-cloud/curriqa/internal/domain"
)

// keywordEmbedder maps texts to fixed axis-aligned vectors so similarity
// ranking in tests is deterministic.
type keywordEmbedder struct {
	calls int
}

func (e *keywordEmbedder) Embed(_ context.Context, text string) (domain.EmbeddingResult, error) {
	e.calls++
	vec := []float32{0.1, 0.1, 0.1}
	switch {
	case strings.Contains(strings.ToLower(text), "arduino"):
		vec = []float32{1, 0, 0}
	case strings.Contains(strings.ToLower(text), "sensor"):
		vec = []float32{0, 1, 0}
	case strings.Contains(strings.ToLower(text), "deployment"):
		vec = []float32{0, 0, 1}
	}
	return domain.EmbeddingResult{Embedding: vec, TotalTokens: 1}, nil
}

func newTestIndex(t *testing.T) (*Index, *keywordEmbedder) {
	t.Helper()
	emb := &keywordEmbedder{}
	ix, err := New(Config{
		Collection:    "curriculum",
		DocEmbedder:   emb,
		QueryEmbedder: emb,
		Logger:        zap.NewNop(),
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return ix, emb
}

func testChunks() []domain.Chunk {
	return []domain.Chunk{
		{DocumentID: 1, Source: "module1.pdf", Page: 1, Seq: 0, Text: "Arduino IDE setup and board selection"},
		{DocumentID: 1, Source: "module1.pdf", Page: 2, Seq: 1, Text: "Reading a sensor over I2C"},
		{DocumentID: 2, Source: "module2.pdf", Page: 1, Seq: 0, Text: "Model deployment to the ESP32"},
	}
}

func TestIndexAndRetrieve(t *testing.T) {
	ix, _ := newTestIndex(t)
	ctx := context.Background()

	if err := ix.Index(ctx, testChunks()); err != nil {
		t.Fatalf("Index() error = %v", err)
	}

	got, err := ix.Retrieve(ctx, "how do I install the arduino toolchain", 2)
	if err != nil {
		t.Fatalf("Retrieve() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("Retrieve() returned %d candidates, want 2", len(got))
	}
	if got[0].ChunkID != "1-0" {
		t.Errorf("top candidate = %s, want 1-0", got[0].ChunkID)
	}
	if got[0].Source != "module1.pdf" {
		t.Errorf("top candidate source = %s, want module1.pdf", got[0].Source)
	}
	if got[0].Score <= got[1].Score {
		t.Errorf("candidates not sorted by score: %f <= %f", got[0].Score, got[1].Score)
	}
}

func TestRetrieveClampsToCollectionSize(t *testing.T) {
	ix, _ := newTestIndex(t)
	ctx := context.Background()

	if err := ix.Index(ctx, testChunks()); err != nil {
		t.Fatalf("Index() error = %v", err)
	}

	got, err := ix.Retrieve(ctx, "sensor wiring", 50)
	if err != nil {
		t.Fatalf("Retrieve() error = %v", err)
	}
	if len(got) != 3 {
		t.Errorf("Retrieve() returned %d candidates, want all 3", len(got))
	}
}

func TestRetrieveEmptyCollection(t *testing.T) {
	ix, emb := newTestIndex(t)

	got, err := ix.Retrieve(context.Background(), "anything", 10)
	if err != nil {
		t.Fatalf("Retrieve() error = %v", err)
	}
	if got != nil {
		t.Errorf("Retrieve() = %v, want nil", got)
	}
	if emb.calls != 0 {
		t.Errorf("query was embedded against an empty collection, calls = %d", emb.calls)
	}
}

func TestDeleteByDocument(t *testing.T) {
	ix, _ := newTestIndex(t)
	ctx := context.Background()

	if err := ix.Index(ctx, testChunks()); err != nil {
		t.Fatalf("Index() error = %v", err)
	}

	found, err := ix.Delete(ctx, 1)
	if err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if found != 2 {
		t.Errorf("Delete() found = %d, want 2", found)
	}

	got, err := ix.Retrieve(ctx, "deployment", 10)
	if err != nil {
		t.Fatalf("Retrieve() after delete error = %v", err)
	}
	if len(got) != 1 || got[0].ChunkID != "2-0" {
		t.Errorf("remaining candidates = %v, want only 2-0", got)
	}
}

func TestDeleteUnknownDocumentIsNoOp(t *testing.T) {
	ix, _ := newTestIndex(t)

	found, err := ix.Delete(context.Background(), 99)
	if err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if found != 0 {
		t.Errorf("Delete() found = %d, want 0", found)
	}
}

func TestIndexEmptyBatch(t *testing.T) {
	ix, emb := newTestIndex(t)

	if err := ix.Index(context.Background(), nil); err != nil {
		t.Fatalf("Index() error = %v", err)
	}
	if emb.calls != 0 {
		t.Errorf("embedder called %d times for empty batch", emb.calls)
	}
}
