// Package chat implements the question answering pipeline. Every request
// walks the same explicit stage sequence: rewrite against session history,
// expand into query variants, retrieval fan-out, rerank, answer synthesis,
// session log append.
package chat

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/curriqa/internal/domain"
	"github.com/kailas-cloud/curriqa/internal/logger"
	"github.com/kailas-cloud/curriqa/internal/metrics"
)

// Log is the consumer interface for the session conversation log (ISP).
type Log interface {
	InsertTurn(ctx context.Context, turn domain.Turn) error
	History(ctx context.Context, sessionID string) ([]domain.Turn, error)
}

// Retriever is the consumer interface for vector similarity search.
type Retriever interface {
	Retrieve(ctx context.Context, query string, k int) ([]domain.Candidate, error)
}

// ModelResolver returns a chat model bound to the requested model name.
// Unknown names map to domain.ErrUnknownModel.
type ModelResolver func(name string) (domain.ChatModel, error)

// Config holds the retrieval tuning knobs.
type Config struct {
	PoolK       int // candidates fetched per query variant
	MaxVariants int // alternative phrasings requested from the expander
	TopN        int // candidates surviving the rerank
}

// Service runs the pipeline.
type Service struct {
	log       Log
	retriever Retriever
	reranker  domain.Reranker
	resolve   ModelResolver
	cfg       Config
}

// New creates a chat service.
func New(log Log, retriever Retriever, reranker domain.Reranker, resolve ModelResolver, cfg Config) *Service {
	return &Service{
		log:       log,
		retriever: retriever,
		reranker:  reranker,
		resolve:   resolve,
		cfg:       cfg,
	}
}

// Request is one question against a session.
type Request struct {
	SessionID string
	Question  string
	Model     string
}

// Response carries the grounded answer and the distinct source documents the
// surviving candidates came from.
type Response struct {
	SessionID string
	Model     string
	Answer    string
	Sources   []string
}

// Ask answers a question. Provider failures in rewrite, rerank or synthesis
// abort the request; only expansion degrades gracefully to the original
// query.
func (s *Service) Ask(ctx context.Context, req Request) (Response, error) {
	log := logger.FromContext(ctx)
	started := time.Now()

	model, err := s.resolve(req.Model)
	if err != nil {
		return Response{}, err
	}

	history, err := s.log.History(ctx, req.SessionID)
	if err != nil {
		return Response{}, fmt.Errorf("load history: %w", err)
	}

	standalone, err := s.rewrite(ctx, model, history, req.Question)
	if err != nil {
		return Response{}, fmt.Errorf("rewrite: %w", err)
	}

	variants := s.expand(ctx, model, standalone)

	pool, err := s.retrieve(ctx, variants)
	if err != nil {
		return Response{}, fmt.Errorf("retrieve: %w", err)
	}

	top, err := s.reranker.Rerank(ctx, standalone, pool, s.cfg.TopN)
	if err != nil {
		return Response{}, fmt.Errorf("rerank: %w", err)
	}

	answer, err := s.synthesize(ctx, model, history, req.Question, top)
	if err != nil {
		return Response{}, fmt.Errorf("synthesize: %w", err)
	}

	turn := domain.Turn{
		SessionID: req.SessionID,
		Question:  req.Question,
		Answer:    answer.Text,
		Model:     req.Model,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.log.InsertTurn(ctx, turn); err != nil {
		return Response{}, fmt.Errorf("log turn: %w", err)
	}

	log.Info("Question answered",
		zap.String("session_id", req.SessionID),
		zap.String("model", req.Model),
		zap.Int("pool", len(pool)),
		zap.Int("reranked", len(top)),
		zap.Duration("took", time.Since(started)),
	)

	return Response{
		SessionID: req.SessionID,
		Model:     req.Model,
		Answer:    answer.Text,
		Sources:   answer.Sources,
	}, nil
}

// rewrite folds session history into the question so retrieval sees a
// standalone query. Empty history passes the question through untouched.
func (s *Service) rewrite(ctx context.Context, model domain.ChatModel, history []domain.Turn, question string) (string, error) {
	if len(history) == 0 {
		return question, nil
	}

	messages := make([]domain.Message, 0, 2*len(history)+2)
	messages = append(messages, domain.Message{Role: domain.RoleSystem, Content: rewritePrompt})
	messages = append(messages, historyMessages(history)...)
	messages = append(messages, domain.Message{Role: domain.RoleUser, Content: question})

	out, err := model.Generate(ctx, messages)
	if err != nil {
		return "", err
	}
	out = strings.TrimSpace(out)
	if out == "" {
		return question, nil
	}
	return out, nil
}

// expand asks for alternative phrasings. The original query always stays
// first; any expansion failure degrades to the original query alone.
func (s *Service) expand(ctx context.Context, model domain.ChatModel, query string) []string {
	if s.cfg.MaxVariants <= 0 {
		return []string{query}
	}

	prompt := fmt.Sprintf(expandPromptTemplate, s.cfg.MaxVariants, query)
	out, err := model.Generate(ctx, []domain.Message{
		{Role: domain.RoleUser, Content: prompt},
	})
	if err != nil {
		logger.FromContext(ctx).Warn("Query expansion failed, using original query", zap.Error(err))
		return []string{query}
	}

	variants := []string{query}
	seen := map[string]bool{normalizeQuery(query): true}
	for _, line := range strings.Split(out, "\n") {
		v := stripNumbering(line)
		if v == "" {
			continue
		}
		if seen[normalizeQuery(v)] {
			continue
		}
		seen[normalizeQuery(v)] = true
		variants = append(variants, v)
		if len(variants) == s.cfg.MaxVariants+1 {
			break
		}
	}
	return variants
}

// retrieve fans the variants out and merges the pools in first-seen order,
// deduplicated by chunk id.
func (s *Service) retrieve(ctx context.Context, variants []string) ([]domain.Candidate, error) {
	var pool []domain.Candidate
	seen := make(map[string]bool)

	for _, v := range variants {
		candidates, err := s.retriever.Retrieve(ctx, v, s.cfg.PoolK)
		if err != nil {
			return nil, fmt.Errorf("variant %q: %w", v, err)
		}
		for _, c := range candidates {
			if seen[c.ChunkID] {
				continue
			}
			seen[c.ChunkID] = true
			pool = append(pool, c)
		}
	}

	metrics.RetrievalPoolSize.Observe(float64(len(pool)))
	return pool, nil
}

// synthesize produces the grounded answer with the distinct source documents
// of the surviving candidates. An empty candidate list still runs: the
// persona prompt makes the model refuse out-of-scope questions on its own.
func (s *Service) synthesize(ctx context.Context, model domain.ChatModel, history []domain.Turn, question string, top []domain.Candidate) (domain.Answer, error) {
	contents := make([]string, len(top))
	for i, c := range top {
		contents[i] = c.Content
	}
	system := fmt.Sprintf(personaPromptTemplate, strings.Join(contents, "\n\n"))

	messages := make([]domain.Message, 0, 2*len(history)+2)
	messages = append(messages, domain.Message{Role: domain.RoleSystem, Content: system})
	messages = append(messages, historyMessages(history)...)
	messages = append(messages, domain.Message{Role: domain.RoleUser, Content: question})

	text, err := model.Generate(ctx, messages)
	if err != nil {
		return domain.Answer{}, err
	}
	return domain.Answer{Text: text, Sources: sources(top)}, nil
}

func historyMessages(history []domain.Turn) []domain.Message {
	messages := make([]domain.Message, 0, 2*len(history))
	for _, t := range history {
		messages = append(messages,
			domain.Message{Role: domain.RoleUser, Content: t.Question},
			domain.Message{Role: domain.RoleAssistant, Content: t.Answer},
		)
	}
	return messages
}

// sources collects the distinct source documents of the surviving
// candidates, first-seen order.
func sources(top []domain.Candidate) []string {
	var out []string
	seen := make(map[string]bool)
	for _, c := range top {
		if c.Source == "" || seen[c.Source] {
			continue
		}
		seen[c.Source] = true
		out = append(out, c.Source)
	}
	return out
}

// stripNumbering removes list markers the expansion model tends to prepend.
// Questions that genuinely start with a digit are left alone.
func stripNumbering(line string) string {
	v := strings.TrimSpace(line)
	rest := strings.TrimLeft(v, "0123456789")
	if len(rest) < len(v) && (strings.HasPrefix(rest, ".") || strings.HasPrefix(rest, ")")) {
		v = strings.TrimLeft(rest, ".)")
	}
	return strings.TrimSpace(strings.TrimLeft(strings.TrimSpace(v), "-*"))
}

func normalizeQuery(q string) string {
	return strings.ToLower(strings.TrimSpace(q))
}
