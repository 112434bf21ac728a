package sdk

import "time"

// ChatRequest is one question against a session.
type ChatRequest struct {
	Question  string `json:"question"`
	SessionID string `json:"session_id,omitempty"`
	Model     string `json:"model,omitempty"`
}

// ChatResponse carries the grounded answer and its source documents.
type ChatResponse struct {
	Answer    string   `json:"answer"`
	SessionID string   `json:"session_id"`
	Model     string   `json:"model"`
	Sources   []string `json:"sources"`
}

// UploadResult reports a completed upload and index run.
type UploadResult struct {
	Message string `json:"message"`
	FileID  int64  `json:"file_id"`
	Chunks  int    `json:"chunks"`
}

// DocumentInfo is one registered document.
type DocumentInfo struct {
	ID              int64     `json:"id"`
	Filename        string    `json:"filename"`
	UploadTimestamp time.Time `json:"upload_timestamp"`
}

// DeleteResult reports a completed document deletion.
type DeleteResult struct {
	Message     string `json:"message"`
	FileID      int64  `json:"file_id"`
	ChunksFound int    `json:"chunks_found"`
}

// HealthStatus represents the aggregated system health.
type HealthStatus struct {
	Status string            `json:"status"`            // "ok", "degraded", "error"
	Checks map[string]string `json:"checks,omitempty"` // component -> "ok"/"error"
}
