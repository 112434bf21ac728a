// Package vecindex is the vector index gateway. It stores contextualized
// chunks in an embedded chromem-go collection and answers similarity queries.
package vecindex

import (
	"context"
	"fmt"
	"runtime"
	"strconv"

	"github.com/philippgille/chromem-go"
	"go.uber.org/zap"

	"github.com/kailas-cloud/curriqa/internal/domain"
	"github.com/kailas-cloud/curriqa/internal/metrics"
)

// Metadata field names on stored chunks.
const (
	metaDocumentID     = "document_id"
	metaSource         = "source_document"
	metaPage           = "page"
	metaContextSummary = "context_summary"
)

// Index wraps a chromem collection with document-level operations.
type Index struct {
	db            *chromem.DB
	collection    *chromem.Collection
	docEmbedder   domain.Embedder
	queryEmbedder domain.Embedder
	logger        *zap.Logger
}

// Config holds vector index settings.
type Config struct {
	Path          string // persistence dir; empty means in-memory
	Collection    string
	DocEmbedder   domain.Embedder
	QueryEmbedder domain.Embedder
	Logger        *zap.Logger
}

// New opens (or creates) the vector index.
func New(cfg Config) (*Index, error) {
	var db *chromem.DB
	var err error
	if cfg.Path == "" {
		db = chromem.NewDB()
	} else {
		db, err = chromem.NewPersistentDB(cfg.Path, false)
		if err != nil {
			return nil, fmt.Errorf("open vector db: %w", err)
		}
	}

	// Embeddings are computed upstream through the domain.Embedder chain;
	// chromem must never fall back to its own embedding func.
	noEmbed := func(_ context.Context, _ string) ([]float32, error) {
		return nil, fmt.Errorf("embedding requested from the store itself")
	}

	collection, err := db.GetOrCreateCollection(cfg.Collection, nil, noEmbed)
	if err != nil {
		return nil, fmt.Errorf("get or create collection: %w", err)
	}

	return &Index{
		db:            db,
		collection:    collection,
		docEmbedder:   cfg.DocEmbedder,
		queryEmbedder: cfg.QueryEmbedder,
		logger:        cfg.Logger,
	}, nil
}

// Index embeds and stores a batch of contextualized chunks. All-or-nothing:
// any embedding or storage error leaves the caller responsible for rolling
// back the document registry entry.
func (ix *Index) Index(ctx context.Context, chunks []domain.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	texts := make([]string, len(chunks))
	for i, ch := range chunks {
		texts[i] = ch.Embeddable()
	}

	var batch domain.BatchEmbeddingResult
	var err error
	if be, ok := ix.docEmbedder.(domain.BatchEmbedder); ok {
		batch, err = be.BatchEmbed(ctx, texts)
	} else {
		batch, err = domain.BatchFallback(ctx, ix.docEmbedder, texts)
	}
	if err != nil {
		return fmt.Errorf("embed chunks: %w", err)
	}

	docs := make([]chromem.Document, len(chunks))
	for i, ch := range chunks {
		docs[i] = chromem.Document{
			ID:      ch.ID(),
			Content: texts[i],
			Metadata: map[string]string{
				metaDocumentID:     strconv.FormatInt(ch.DocumentID, 10),
				metaSource:         ch.Source,
				metaPage:           strconv.Itoa(ch.Page),
				metaContextSummary: ch.Context,
			},
			Embedding: batch.Embeddings[i],
		}
	}

	if err := ix.collection.AddDocuments(ctx, docs, runtime.NumCPU()); err != nil {
		return fmt.Errorf("store chunks: %w", err)
	}

	metrics.ChunksIndexedTotal.Add(float64(len(docs)))
	return nil
}

// Delete removes every chunk whose metadata matches the document id and
// reports how many chunks were found prior to deletion. Deleting a document
// with no chunks is a successful no-op (count 0).
func (ix *Index) Delete(ctx context.Context, documentID int64) (int, error) {
	before := ix.collection.Count()

	where := map[string]string{metaDocumentID: strconv.FormatInt(documentID, 10)}
	if err := ix.collection.Delete(ctx, where, nil); err != nil {
		return 0, fmt.Errorf("delete chunks for document %d: %w", documentID, err)
	}

	found := before - ix.collection.Count()
	ix.logger.Info("Deleted document chunks from vector index",
		zap.Int64("document_id", documentID),
		zap.Int("chunks_found", found),
	)
	return found, nil
}

// Retrieve returns up to k nearest chunks by embedding similarity. No
// metadata filter is applied at query time.
func (ix *Index) Retrieve(ctx context.Context, query string, k int) ([]domain.Candidate, error) {
	n := ix.collection.Count()
	if n == 0 {
		return nil, nil
	}
	if k > n {
		k = n
	}

	emb, err := ix.queryEmbedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	results, err := ix.collection.QueryEmbedding(ctx, emb.Embedding, k, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("query collection: %w", err)
	}

	candidates := make([]domain.Candidate, len(results))
	for i, r := range results {
		candidates[i] = domain.Candidate{
			ChunkID: r.ID,
			Content: r.Content,
			Source:  r.Metadata[metaSource],
			Score:   float64(r.Similarity),
		}
	}
	return candidates, nil
}
