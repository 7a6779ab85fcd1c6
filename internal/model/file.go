package model

import "time"

// File is an assembled upload as recorded in the registry.
// It carries no persistence tags so every layer can share it.
type File struct {
	ID          string    `json:"id"`
	Filename    string    `json:"filename"`
	Size        int64     `json:"size"`
	ContentType string    `json:"content_type"`
	Chunks      int       `json:"chunks"`
	CreatedAt   time.Time `json:"created_at"`
}

// FileInfo describes a stored file for the content-info endpoint.
// Chunks and CreatedAt come from the registry and are omitted without one.
type FileInfo struct {
	Filename    string     `json:"filename"`
	Size        int64      `json:"size"`
	SizeHuman   string     `json:"size_human"`
	ContentType string     `json:"content_type"`
	IsVideo     bool       `json:"is_video"`
	StreamURL   string     `json:"stream_url"`
	Chunks      int        `json:"chunks,omitempty"`
	CreatedAt   *time.Time `json:"created_at,omitempty"`
}
