// Package protocol defines the API request/response types.
package protocol

import "github.com/simviewer/simviewer/pkg/models"

// ScanResponse is returned by GET /api/scan
type ScanResponse struct {
	Success    bool                `json:"success"`
	RootFolder string              `json:"root_folder"`
	Files      []*models.FileEntry `json:"files"`
	Count      int                 `json:"count"`
}

// ErrorResponse is returned on API errors.
type ErrorResponse struct {
	Success    bool   `json:"success"`
	Error      string `json:"error"`
	StatusCode int    `json:"status_code"`
}

// HealthResponse is returned by GET /api/health
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}

// Change event types.
const (
	EventCreate = "create"
	EventModify = "modify"
	EventDelete = "delete"
)

// ChangeEvent is sent on the GET /api/events stream when a sim-requests
// file under the watched root appears, changes or disappears.
type ChangeEvent struct {
	Type         string  `json:"type"`
	RelativePath string  `json:"relativePath"`
	FullPath     string  `json:"fullPath"`
	DisplayName  string  `json:"displayName"`
	RunID        *string `json:"runId"`
	Instance     string  `json:"instance"`
	Size         int64   `json:"size,omitempty"`
	Timestamp    int64   `json:"timestamp"`
}
