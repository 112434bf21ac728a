package chat

import (
	"context"
	"strings"

	"github.com/kailas-cloud/curriqa/internal/domain"
)

// mockLog implements Log for tests.
type mockLog struct {
	historyFn func(ctx context.Context, sessionID string) ([]domain.Turn, error)
	insertFn  func(ctx context.Context, turn domain.Turn) error

	inserted []domain.Turn
}

func (m *mockLog) History(ctx context.Context, sessionID string) ([]domain.Turn, error) {
	if m.historyFn != nil {
		return m.historyFn(ctx, sessionID)
	}
	return nil, nil
}

func (m *mockLog) InsertTurn(ctx context.Context, turn domain.Turn) error {
	m.inserted = append(m.inserted, turn)
	if m.insertFn != nil {
		return m.insertFn(ctx, turn)
	}
	return nil
}

// mockRetriever implements Retriever for tests.
type mockRetriever struct {
	retrieveFn func(ctx context.Context, query string, k int) ([]domain.Candidate, error)

	queries []string
}

func (m *mockRetriever) Retrieve(ctx context.Context, query string, k int) ([]domain.Candidate, error) {
	m.queries = append(m.queries, query)
	if m.retrieveFn != nil {
		return m.retrieveFn(ctx, query, k)
	}
	return nil, nil
}

// mockReranker implements domain.Reranker for tests.
type mockReranker struct {
	rerankFn func(ctx context.Context, query string, candidates []domain.Candidate, topN int) ([]domain.Candidate, error)

	gotPool []domain.Candidate
}

func (m *mockReranker) Rerank(ctx context.Context, query string, candidates []domain.Candidate, topN int) ([]domain.Candidate, error) {
	m.gotPool = candidates
	if m.rerankFn != nil {
		return m.rerankFn(ctx, query, candidates, topN)
	}
	if len(candidates) > topN {
		candidates = candidates[:topN]
	}
	return candidates, nil
}

// routedModel answers rewrite, expansion and synthesis prompts by keyword.
type routedModel struct {
	rewriteOut string
	expandOut  string
	expandErr  error
	answerOut  string
	answerErr  error

	synthSystem  string
	synthHistory int
	calls        []string
}

func (m *routedModel) Generate(_ context.Context, messages []domain.Message) (string, error) {
	system := ""
	if messages[0].Role == domain.RoleSystem {
		system = messages[0].Content
	}
	switch {
	case strings.Contains(system, "standalone question"):
		m.calls = append(m.calls, "rewrite")
		return m.rewriteOut, nil
	case strings.Contains(messages[len(messages)-1].Content, "Original question:"):
		m.calls = append(m.calls, "expand")
		return m.expandOut, m.expandErr
	default:
		m.calls = append(m.calls, "synthesize")
		m.synthSystem = system
		m.synthHistory = len(messages) - 2
		return m.answerOut, m.answerErr
	}
}

func resolverFor(model domain.ChatModel) ModelResolver {
	return func(name string) (domain.ChatModel, error) {
		if name == "unknown-model" {
			return nil, domain.ErrUnknownModel
		}
		return model, nil
	}
}
