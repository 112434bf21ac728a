// Package chi is the HTTP transport: request decoding, domain error to
// status mapping, and the route table.
package chi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/curriqa/internal/domain"
	chatuc "github.com/kailas-cloud/curriqa/internal/usecase/chat"
	healthuc "github.com/kailas-cloud/curriqa/internal/usecase/health"
	indexinguc "github.com/kailas-cloud/curriqa/internal/usecase/indexing"
)

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// UploadConfig limits how uploads are spooled to disk.
type UploadConfig struct {
	TempDir  string // empty means os.TempDir
	MaxBytes int64
}

// Server wires the use case services to the HTTP surface.
type Server struct {
	chat          *chatuc.Service
	documents     *indexinguc.Service
	health        *healthuc.Service
	upload        UploadConfig
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(
	chat *chatuc.Service,
	documents *indexinguc.Service,
	health *healthuc.Service,
	upload UploadConfig,
	logger *zap.Logger,
) *Server {
	s := &Server{
		chat:      chat,
		documents: documents,
		health:    health,
		upload:    upload,
		logger:    logger,
	}
	s.errorHandlers = []errorHandler{
		partialDeleteHandler,
		sentinelHandler(domain.ErrUnsupportedFileType, http.StatusBadRequest, codeUnsupportedFileType),
		sentinelHandler(domain.ErrUnknownModel, http.StatusBadRequest, codeUnknownModel),
		sentinelHandler(domain.ErrIndexingFailed, http.StatusInternalServerError, codeIndexingFailed),
		sentinelHandler(domain.ErrEmbeddingProviderError, http.StatusBadGateway, codeProviderError),
		sentinelHandler(domain.ErrLLMProviderError, http.StatusBadGateway, codeProviderError),
		sentinelHandler(domain.ErrRerankProviderError, http.StatusBadGateway, codeProviderError),
	}
	return s
}

// Mount registers the API routes on the router.
func (s *Server) Mount(r chi.Router) {
	r.Post("/chat", s.PostChat)
	r.Post("/upload-doc", s.PostUploadDoc)
	r.Get("/list-docs", s.GetListDocs)
	r.Post("/delete-doc", s.PostDeleteDoc)
	r.Get("/health", s.GetHealth)
	r.Get("/metrics", s.Metrics)
}

// PostChat handles POST /chat.
func (s *Server) PostChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	if req.Question == "" {
		writeError(w, http.StatusBadRequest, codeValidationFailed, "Question is required")
		return
	}

	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	res, err := s.chat.Ask(r.Context(), chatuc.Request{
		SessionID: sessionID,
		Question:  req.Question,
		Model:     req.Model,
	})
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	sources := res.Sources
	if sources == nil {
		sources = []string{}
	}

	writeJSON(w, http.StatusOK, chatResponse{
		Answer:    res.Answer,
		SessionID: res.SessionID,
		Model:     res.Model,
		Sources:   sources,
	})
}

// PostUploadDoc handles POST /upload-doc. The multipart file is spooled to a
// temp file that is removed on every path out of the handler.
func (s *Server) PostUploadDoc(w http.ResponseWriter, r *http.Request) {
	if s.upload.MaxBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, s.upload.MaxBytes)
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Missing file field: "+err.Error())
		return
	}
	defer file.Close()

	filename := filepath.Base(header.Filename)
	if filename == "" || filename == "." {
		writeError(w, http.StatusBadRequest, codeValidationFailed, "Filename is required")
		return
	}

	tmpPath, err := s.spool(file)
	if err != nil {
		s.logger.Error("Failed to spool upload", zap.Error(err))
		writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
		return
	}
	defer func() { _ = os.Remove(tmpPath) }()

	res, err := s.documents.Upload(r.Context(), filename, tmpPath)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, uploadResponse{
		Message: fmt.Sprintf("File %s has been successfully uploaded and indexed.", filename),
		FileID:  res.Document.ID,
		Chunks:  res.Chunks,
	})
}

// GetListDocs handles GET /list-docs.
func (s *Server) GetListDocs(w http.ResponseWriter, r *http.Request) {
	docs, err := s.documents.List(r.Context())
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	items := make([]documentInfo, len(docs))
	for i, d := range docs {
		items[i] = documentToInfo(d)
	}
	writeJSON(w, http.StatusOK, items)
}

// PostDeleteDoc handles POST /delete-doc.
func (s *Server) PostDeleteDoc(w http.ResponseWriter, r *http.Request) {
	var req deleteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if req.FileID <= 0 {
		writeError(w, http.StatusBadRequest, codeValidationFailed, "file_id must be a positive integer")
		return
	}

	res, err := s.documents.Delete(r.Context(), req.FileID)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, deleteResponse{
		Message:     fmt.Sprintf("Successfully deleted document with file_id %d from the system.", req.FileID),
		FileID:      res.DocumentID,
		ChunksFound: res.ChunksFound,
	})
}

// GetHealth handles GET /health.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, healthResponse{
		Status: string(report.Status),
		Checks: checks,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

// spool writes the uploaded file to a temp file and returns its path.
func (s *Server) spool(file io.Reader) (string, error) {
	tmp, err := os.CreateTemp(s.upload.TempDir, "upload-*.pdf")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}

	if _, err := io.Copy(tmp, file); err != nil {
		tmp.Close()
		_ = os.Remove(tmp.Name())
		return "", fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return "", fmt.Errorf("close temp file: %w", err)
	}
	return tmp.Name(), nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{
		Code:    code,
		Message: message,
	})
}

// safeDomainMessage returns a sentinel error message for the client without exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrUnsupportedFileType,
		domain.ErrUnknownModel,
		domain.ErrIndexingFailed,
		domain.ErrPartialDelete,
		domain.ErrEmbeddingProviderError,
		domain.ErrLLMProviderError,
		domain.ErrRerankProviderError,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code string) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

// partialDeleteHandler reports which side of a two-sided delete was left
// behind so operators can reconcile by hand.
func partialDeleteHandler(w http.ResponseWriter, err error, msg string) bool {
	if !errors.Is(err, domain.ErrPartialDelete) {
		return false
	}
	var pde *domain.PartialDeleteError
	if errors.As(err, &pde) {
		writeJSON(w, http.StatusInternalServerError, map[string]any{
			"code":        codePartialDelete,
			"message":     fmt.Sprintf("document %d: %s deletion failed", pde.DocumentID, pde.Failed),
			"file_id":     pde.DocumentID,
			"failed_side": string(pde.Failed),
		})
		return true
	}
	writeError(w, http.StatusInternalServerError, codePartialDelete, msg)
	return true
}

func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	s.logger.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
}
