package sdk

import "fmt"

// Error codes returned by the server.
const (
	CodeUnsupportedFileType = "unsupported_file_type"
	CodeUnknownModel        = "unknown_model"
	CodeIndexingFailed      = "indexing_failed"
	CodePartialDelete       = "partial_delete"
	CodeProviderError       = "provider_error"
)

// APIError is a non-2xx response from the server.
// Use errors.As() and check Code.
type APIError struct {
	StatusCode int    `json:"-"`
	Code       string `json:"code"`
	Message    string `json:"message"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("curriqa api: %d %s: %s", e.StatusCode, e.Code, e.Message)
}
