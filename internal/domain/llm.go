package domain

import "context"

// Message roles, mirroring the chat completion wire format.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one chat completion message.
type Message struct {
	Role    string
	Content string
}

// ChatModel is the chat completion contract. All pipeline stages that need
// an LLM (summaries, chunk annotation, query rewriting, expansion, answer
// synthesis) speak through it.
type ChatModel interface {
	Generate(ctx context.Context, messages []Message) (string, error)
}

// Reranker reorders candidates by relevance to the query and truncates to
// topN. Always returns min(topN, len(candidates)) results, highest score
// first.
type Reranker interface {
	Rerank(ctx context.Context, query string, candidates []Candidate, topN int) ([]Candidate, error)
}
