// Package models contains the data types shared by the server packages.
package models

// FileEntry describes one discovered sim-requests file.
type FileEntry struct {
	FullPath     string  `json:"fullPath"`
	RelativePath string  `json:"relativePath"`
	DisplayName  string  `json:"displayName"`
	RunID        *string `json:"runId"`
	Instance     string  `json:"instance"`
	Size         int64   `json:"size"`
	Modified     float64 `json:"modified"` // seconds since epoch
}
