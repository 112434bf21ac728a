package chi

import (
	"time"

	"github.com/kailas-cloud/curriqa/internal/domain"
)

// Error codes returned to clients.
const (
	codeBadRequest          = "bad_request"
	codeValidationFailed    = "validation_failed"
	codeUnsupportedFileType = "unsupported_file_type"
	codeUnknownModel        = "unknown_model"
	codeIndexingFailed      = "indexing_failed"
	codePartialDelete       = "partial_delete"
	codeProviderError       = "provider_error"
	codeInternalError       = "internal_error"
)

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type chatRequest struct {
	Question  string `json:"question"`
	SessionID string `json:"session_id,omitempty"`
	Model     string `json:"model,omitempty"`
}

type chatResponse struct {
	Answer    string   `json:"answer"`
	SessionID string   `json:"session_id"`
	Model     string   `json:"model"`
	Sources   []string `json:"sources"`
}

type uploadResponse struct {
	Message string `json:"message"`
	FileID  int64  `json:"file_id"`
	Chunks  int    `json:"chunks"`
}

type documentInfo struct {
	ID              int64     `json:"id"`
	Filename        string    `json:"filename"`
	UploadTimestamp time.Time `json:"upload_timestamp"`
}

type deleteRequest struct {
	FileID int64 `json:"file_id"`
}

type deleteResponse struct {
	Message     string `json:"message"`
	FileID      int64  `json:"file_id"`
	ChunksFound int    `json:"chunks_found"`
}

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

func documentToInfo(d domain.Document) documentInfo {
	return documentInfo{
		ID:              d.ID,
		Filename:        d.Filename,
		UploadTimestamp: d.UploadTimestamp,
	}
}
