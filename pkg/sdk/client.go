// Package sdk is a thin Go client for the curriqa HTTP API.
package sdk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"
	"time"
)

const defaultTimeout = 5 * time.Minute

// Транспорт подменяется в тестах.
type httpDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client talks to a curriqa server.
type Client struct {
	baseURL string
	apiKey  string
	http    httpDoer
}

// Option configures the client.
type Option func(*Client)

// WithAPIKey sets the Bearer token sent with every request.
func WithAPIKey(key string) Option {
	return func(c *Client) { c.apiKey = key }
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// New creates a client for the given base URL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: defaultTimeout},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Chat asks a question. An empty SessionID starts a new session; the reply
// carries the server-assigned id to continue it.
func (c *Client) Chat(ctx context.Context, req ChatRequest) (ChatResponse, error) {
	var out ChatResponse
	err := c.postJSON(ctx, "/chat", req, &out)
	return out, err
}

// UploadDoc uploads one PDF and waits for it to be indexed.
func (c *Client) UploadDoc(ctx context.Context, filename string, content io.Reader) (UploadResult, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", filepath.Base(filename))
	if err != nil {
		return UploadResult{}, fmt.Errorf("sdk: build multipart: %w", err)
	}
	if _, err := io.Copy(fw, content); err != nil {
		return UploadResult{}, fmt.Errorf("sdk: write multipart: %w", err)
	}
	if err := mw.Close(); err != nil {
		return UploadResult{}, fmt.Errorf("sdk: close multipart: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/upload-doc", &buf)
	if err != nil {
		return UploadResult{}, fmt.Errorf("sdk: build request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	var out UploadResult
	err = c.do(req, &out)
	return out, err
}

// ListDocs returns the registered documents, most recent upload first.
func (c *Client) ListDocs(ctx context.Context) ([]DocumentInfo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/list-docs", http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("sdk: build request: %w", err)
	}

	var out []DocumentInfo
	err = c.do(req, &out)
	return out, err
}

// DeleteDoc removes a document from the index and the registry.
func (c *Client) DeleteDoc(ctx context.Context, fileID int64) (DeleteResult, error) {
	var out DeleteResult
	err := c.postJSON(ctx, "/delete-doc", map[string]int64{"file_id": fileID}, &out)
	return out, err
}

// Health reports the server's component health.
func (c *Client) Health(ctx context.Context) (HealthStatus, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", http.NoBody)
	if err != nil {
		return HealthStatus{}, fmt.Errorf("sdk: build request: %w", err)
	}

	var out HealthStatus
	err = c.do(req, &out)
	return out, err
}

func (c *Client) postJSON(ctx context.Context, path string, body, out any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("sdk: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("sdk: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("sdk: %s %s: %w", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return parseAPIError(resp)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("sdk: decode response: %w", err)
	}
	return nil
}

func parseAPIError(resp *http.Response) error {
	apiErr := &APIError{StatusCode: resp.StatusCode}
	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err == nil {
		_ = json.Unmarshal(body, apiErr)
	}
	if apiErr.Message == "" {
		apiErr.Message = http.StatusText(resp.StatusCode)
	}
	return apiErr
}
