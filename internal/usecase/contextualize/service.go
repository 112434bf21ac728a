// Package contextualize implements contextual retrieval annotation: each
// chunk gets a short LLM-written description of its place in the source
// document before it is embedded.
package contextualize

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/kailas-cloud/curriqa/internal/domain"
)

// Service annotates chunk batches in two phases: one whole-document summary
// call, then one context call per chunk.
type Service struct {
	llm    domain.ChatModel
	logger *zap.Logger
}

// New creates a contextualizer backed by the given chat model.
func New(llm domain.ChatModel, logger *zap.Logger) *Service {
	return &Service{llm: llm, logger: logger}
}

// Annotate fills the Context field of every chunk. All-or-nothing: any
// provider failure aborts the batch and no partially annotated chunks are
// returned.
func (s *Service) Annotate(ctx context.Context, chunks []domain.Chunk) ([]domain.Chunk, error) {
	if len(chunks) == 0 {
		return nil, nil
	}

	summary, err := s.summarize(ctx, chunks)
	if err != nil {
		return nil, fmt.Errorf("document summary: %w", err)
	}

	annotated := make([]domain.Chunk, len(chunks))
	for i, ch := range chunks {
		chunkCtx, err := s.chunkContext(ctx, summary, ch.Text)
		if err != nil {
			return nil, fmt.Errorf("context for chunk %d of %d: %w", i+1, len(chunks), err)
		}
		ch.Context = chunkCtx
		annotated[i] = ch
	}

	s.logger.Info("Annotated chunk batch", zap.Int("chunks", len(annotated)))
	return annotated, nil
}

// summarize produces the whole-document summary the per-chunk calls anchor to.
func (s *Service) summarize(ctx context.Context, chunks []domain.Chunk) (string, error) {
	texts := make([]string, len(chunks))
	for i, ch := range chunks {
		texts[i] = ch.Text
	}
	fullText := strings.Join(texts, " ")

	return s.llm.Generate(ctx, []domain.Message{
		{Role: domain.RoleUser, Content: summaryPromptPrefix + fullText},
	})
}

func (s *Service) chunkContext(ctx context.Context, summary, chunkText string) (string, error) {
	prompt := fmt.Sprintf(chunkContextTemplate, summary, chunkText)
	out, err := s.llm.Generate(ctx, []domain.Message{
		{Role: domain.RoleUser, Content: prompt},
	})
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}
