// Package rerank implements domain.Reranker against a hosted cross-encoder
// API (Cohere/Jina wire shape: query + documents in, scored indices out).
package rerank

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/curriqa/internal/domain"
	"github.com/kailas-cloud/curriqa/internal/metrics"
)

// Client is a hosted reranker client.
type Client struct {
	baseURL string
	apiKey  string
	model   string
	http    *http.Client
	logger  *zap.Logger
}

// Config holds reranker provider settings.
type Config struct {
	BaseURL string
	APIKey  string
	Model   string
	Timeout time.Duration
	Logger  *zap.Logger
}

// NewClient creates a reranker client.
func NewClient(cfg *Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		model:   cfg.Model,
		http:    &http.Client{Timeout: timeout},
		logger:  cfg.Logger,
	}
}

type rerankRequest struct {
	Model     string   `json:"model"`
	Query     string   `json:"query"`
	Documents []string `json:"documents"`
	TopN      int      `json:"top_n"`
}

type rerankResponse struct {
	Results []struct {
		Index          int     `json:"index"`
		RelevanceScore float64 `json:"relevance_score"`
	} `json:"results"`
}

// Rerank implements domain.Reranker. Returns min(topN, len(candidates))
// candidates ordered by descending relevance score.
func (c *Client) Rerank(
	ctx context.Context, query string, candidates []domain.Candidate, topN int,
) ([]domain.Candidate, error) {
	if len(candidates) == 0 {
		return nil, nil
	}
	if topN > len(candidates) {
		topN = len(candidates)
	}

	docs := make([]string, len(candidates))
	for i, cand := range candidates {
		docs[i] = cand.Content
	}

	body, err := json.Marshal(rerankRequest{
		Model:     c.model,
		Query:     query,
		Documents: docs,
		TopN:      topN,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal rerank request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build rerank request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		metrics.RerankRequestsTotal.WithLabelValues(c.model, "error").Inc()
		return nil, fmt.Errorf("rerank request: %v: %w", err, domain.ErrRerankProviderError)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		metrics.RerankRequestsTotal.WithLabelValues(c.model, "error").Inc()
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("rerank API error %d: %s: %w",
			resp.StatusCode, string(raw), domain.ErrRerankProviderError)
	}

	var parsed rerankResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		metrics.RerankRequestsTotal.WithLabelValues(c.model, "error").Inc()
		return nil, fmt.Errorf("decode rerank response: %v: %w", err, domain.ErrRerankProviderError)
	}

	metrics.RerankRequestsTotal.WithLabelValues(c.model, "success").Inc()

	ranked := make([]domain.Candidate, 0, topN)
	for _, r := range parsed.Results {
		if r.Index < 0 || r.Index >= len(candidates) {
			return nil, fmt.Errorf("rerank result index %d out of range: %w",
				r.Index, domain.ErrRerankProviderError)
		}
		cand := candidates[r.Index]
		cand.Score = r.RelevanceScore
		ranked = append(ranked, cand)
	}

	// Providers return results ordered, but the contract here is explicit.
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].Score > ranked[j].Score })

	if len(ranked) > topN {
		ranked = ranked[:topN]
	}
	return ranked, nil
}
