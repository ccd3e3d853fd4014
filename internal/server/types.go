package server

import "github.com/tagcask/tagcask/internal/index"

// API response types. Typed structs instead of map[string]interface{}.

// HealthResponse represents the health check response
type HealthResponse struct {
	Status  string            `json:"status"`
	Version string            `json:"version"`
	Checks  map[string]string `json:"checks"`
}

// FileResponse represents one indexed file
type FileResponse struct {
	Hash       string   `json:"hash"`
	Name       string   `json:"name"`
	Tags       []string `json:"tags"`
	Notes      string   `json:"notes,omitempty"`
	Transcript string   `json:"transcript,omitempty"`
	UploadedAt int64    `json:"uploaded_at"`
}

func fileResponse(file *index.File) FileResponse {
	return FileResponse{
		Hash:       file.Hash,
		Name:       file.Name,
		Tags:       file.TagList(),
		Notes:      file.Notes,
		Transcript: file.Transcript,
		UploadedAt: file.UploadedAt.Unix(),
	}
}

// SearchResponse represents the result of a tag query
type SearchResponse struct {
	Query  string   `json:"query"`
	Count  int      `json:"count"`
	Hashes []string `json:"hashes"`
}

// TagListResponse represents autocomplete buckets for a prefix
type TagListResponse struct {
	Prefix  string            `json:"prefix"`
	Buckets []index.TagBucket `json:"buckets"`
}

// TagSyncResponse represents the result of a counter resync
type TagSyncResponse struct {
	Tag   string `json:"tag"`
	Count int64  `json:"count"`
}

// DeleteResponse represents the result of a file removal
type DeleteResponse struct {
	Status string `json:"status"`
	Hash   string `json:"hash"`
}
