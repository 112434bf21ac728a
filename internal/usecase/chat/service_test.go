package chat

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/kailas-cloud/curriqa/internal/domain"
	"github.com/kailas-cloud/curriqa/internal/metrics"
)

func TestMain(m *testing.M) {
	metrics.Register()
	m.Run()
}

func testConfig() Config {
	return Config{PoolK: 10, MaxVariants: 3, TopN: 3}
}

func poolFor(query string) []domain.Candidate {
	switch {
	case strings.Contains(query, "driver"):
		return []domain.Candidate{
			{ChunkID: "1-0", Content: "Install the CH340 driver.", Source: "module1.pdf", Score: 0.9},
			{ChunkID: "1-1", Content: "Select the COM port.", Source: "module1.pdf", Score: 0.7},
		}
	case strings.Contains(query, "serial"):
		return []domain.Candidate{
			{ChunkID: "1-1", Content: "Select the COM port.", Source: "module1.pdf", Score: 0.8},
			{ChunkID: "2-0", Content: "Set the baud rate to 115200.", Source: "module2.pdf", Score: 0.6},
		}
	default:
		return nil
	}
}

func TestAskFullPipeline(t *testing.T) {
	log := &mockLog{}
	retriever := &mockRetriever{
		retrieveFn: func(_ context.Context, query string, k int) ([]domain.Candidate, error) {
			if k != 10 {
				t.Errorf("retrieve k = %d, want 10", k)
			}
			return poolFor(query), nil
		},
	}
	reranker := &mockReranker{}
	model := &routedModel{
		expandOut: "1. Why does the driver fail to install\n2. serial port not detected",
		answerOut: "Install the **CH340** driver first.",
	}
	svc := New(log, retriever, reranker, resolverFor(model), testConfig())

	res, err := svc.Ask(context.Background(), Request{
		SessionID: "s1",
		Question:  "my driver install fails",
		Model:     "gpt-4o-mini",
	})
	if err != nil {
		t.Fatalf("Ask() error = %v", err)
	}

	// No history: the rewrite stage must not call the model.
	for _, c := range model.calls {
		if c == "rewrite" {
			t.Error("rewrite stage called the model with empty history")
		}
	}

	// Original query first, then parsed variants.
	if len(retriever.queries) != 3 {
		t.Fatalf("retrieval fan-out = %v, want 3 queries", retriever.queries)
	}
	if retriever.queries[0] != "my driver install fails" {
		t.Errorf("first retrieved query = %q, want the original", retriever.queries[0])
	}
	if retriever.queries[1] != "Why does the driver fail to install" {
		t.Errorf("numbering not stripped: %q", retriever.queries[1])
	}

	// Cross-variant duplicate 1-1 collapses; first-seen order preserved.
	gotIDs := make([]string, len(reranker.gotPool))
	for i, c := range reranker.gotPool {
		gotIDs[i] = c.ChunkID
	}
	wantIDs := []string{"1-0", "1-1", "2-0"}
	if strings.Join(gotIDs, ",") != strings.Join(wantIDs, ",") {
		t.Errorf("rerank pool = %v, want %v", gotIDs, wantIDs)
	}

	if res.Answer != "Install the **CH340** driver first." {
		t.Errorf("Answer = %q", res.Answer)
	}
	if strings.Join(res.Sources, ",") != "module1.pdf,module2.pdf" {
		t.Errorf("Sources = %v", res.Sources)
	}
	if len(log.inserted) != 1 || log.inserted[0].SessionID != "s1" || log.inserted[0].Model != "gpt-4o-mini" {
		t.Errorf("logged turn = %+v", log.inserted)
	}
}

func TestAskRewritesWithHistory(t *testing.T) {
	log := &mockLog{
		historyFn: func(context.Context, string) ([]domain.Turn, error) {
			return []domain.Turn{{Question: "how do I flash the ESP32", Answer: "Use the upload button."}}, nil
		},
	}
	retriever := &mockRetriever{}
	model := &routedModel{
		rewriteOut: "why does flashing the ESP32 fail",
		expandOut:  "",
		answerOut:  "answer",
	}
	svc := New(log, retriever, &mockReranker{}, resolverFor(model), testConfig())

	_, err := svc.Ask(context.Background(), Request{SessionID: "s1", Question: "why does it fail", Model: "m"})
	if err != nil {
		t.Fatalf("Ask() error = %v", err)
	}
	if model.calls[0] != "rewrite" {
		t.Errorf("stage order = %v, want rewrite first", model.calls)
	}
	if retriever.queries[0] != "why does flashing the ESP32 fail" {
		t.Errorf("retrieval used %q, want the rewritten question", retriever.queries[0])
	}
	// Synthesis sees the history but the user's original question wording.
	if model.synthHistory != 2 {
		t.Errorf("synthesis history messages = %d, want 2", model.synthHistory)
	}
}

func TestAskExpansionFailureFallsBackToOriginal(t *testing.T) {
	retriever := &mockRetriever{}
	model := &routedModel{
		expandErr: errors.New("rate limited"),
		answerOut: "answer",
	}
	svc := New(&mockLog{}, retriever, &mockReranker{}, resolverFor(model), testConfig())

	_, err := svc.Ask(context.Background(), Request{SessionID: "s", Question: "driver question", Model: "m"})
	if err != nil {
		t.Fatalf("Ask() error = %v, expansion failure must not abort", err)
	}
	if len(retriever.queries) != 1 || retriever.queries[0] != "driver question" {
		t.Errorf("queries = %v, want only the original", retriever.queries)
	}
}

func TestAskRerankFailureAborts(t *testing.T) {
	retriever := &mockRetriever{
		retrieveFn: func(_ context.Context, q string, _ int) ([]domain.Candidate, error) {
			return []domain.Candidate{{ChunkID: "1-0", Content: "x"}}, nil
		},
	}
	reranker := &mockReranker{
		rerankFn: func(context.Context, string, []domain.Candidate, int) ([]domain.Candidate, error) {
			return nil, domain.ErrRerankProviderError
		},
	}
	log := &mockLog{}
	model := &routedModel{expandOut: "", answerOut: "answer"}
	svc := New(log, retriever, reranker, resolverFor(model), testConfig())

	_, err := svc.Ask(context.Background(), Request{SessionID: "s", Question: "q", Model: "m"})
	if !errors.Is(err, domain.ErrRerankProviderError) {
		t.Fatalf("Ask() error = %v, want rerank provider error", err)
	}
	if len(log.inserted) != 0 {
		t.Errorf("turn was logged despite pipeline abort")
	}
}

func TestAskEmptyPoolStillSynthesizes(t *testing.T) {
	model := &routedModel{expandOut: "", answerOut: RefusalSentence}
	svc := New(&mockLog{}, &mockRetriever{}, &mockReranker{}, resolverFor(model), testConfig())

	res, err := svc.Ask(context.Background(), Request{SessionID: "s", Question: "unrelated python question", Model: "m"})
	if err != nil {
		t.Fatalf("Ask() error = %v, empty retrieval is not an error", err)
	}
	if res.Answer != RefusalSentence {
		t.Errorf("Answer = %q", res.Answer)
	}
	if len(res.Sources) != 0 {
		t.Errorf("Sources = %v, want none", res.Sources)
	}
}

func TestAskUnknownModel(t *testing.T) {
	svc := New(&mockLog{}, &mockRetriever{}, &mockReranker{}, resolverFor(&routedModel{}), testConfig())

	_, err := svc.Ask(context.Background(), Request{SessionID: "s", Question: "q", Model: "unknown-model"})
	if !errors.Is(err, domain.ErrUnknownModel) {
		t.Errorf("Ask() error = %v, want ErrUnknownModel", err)
	}
}

func TestAskSynthesisPromptCarriesContext(t *testing.T) {
	retriever := &mockRetriever{
		retrieveFn: func(_ context.Context, q string, _ int) ([]domain.Candidate, error) {
			return []domain.Candidate{
				{ChunkID: "1-0", Content: "Install the CH340 driver.", Source: "module1.pdf"},
			}, nil
		},
	}
	model := &routedModel{expandOut: "", answerOut: "done"}
	svc := New(&mockLog{}, retriever, &mockReranker{}, resolverFor(model), testConfig())

	if _, err := svc.Ask(context.Background(), Request{SessionID: "s", Question: "q", Model: "m"}); err != nil {
		t.Fatalf("Ask() error = %v", err)
	}
	if !strings.Contains(model.synthSystem, "Install the CH340 driver.") {
		t.Errorf("synthesis system prompt missing candidate content")
	}
	if !strings.Contains(model.synthSystem, "Edge AI Curriculum Support Specialist") {
		t.Errorf("synthesis system prompt missing persona")
	}
}

func TestStripNumbering(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"1. What is a COM port", "What is a COM port"},
		{"2) Baud rate basics", "Baud rate basics"},
		{"- dashed variant", "dashed variant"},
		{"plain question", "plain question"},
		{"3 tips for Arduino setup", "3 tips for Arduino setup"},
		{"  ", ""},
	}
	for _, tt := range tests {
		if got := stripNumbering(tt.in); got != tt.want {
			t.Errorf("stripNumbering(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
