package model

import "time"

// UploadOptions object upload options
type UploadOptions struct {
	CacheControl string
	ContentType  string
	Upsert       bool
}

// StoredObject metadata of an object in a storage bucket
type StoredObject struct {
	Bucket       string    `json:"bucket"`
	Path         string    `json:"path"`
	Size         int64     `json:"size"`
	ContentType  string    `json:"content_type"`
	CacheControl string    `json:"cache_control"`
	UploadedAt   time.Time `json:"uploaded_at"`
}

// UpdateProfileRequest settings page update
type UpdateProfileRequest struct {
	DisplayName string `json:"display_name" binding:"required,max=100"`
}
