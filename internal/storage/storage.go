package storage

import (
	"context"
	"errors"
	"io"
	"time"
)

// ErrNotFound is returned when a file ID is unknown.
var ErrNotFound = errors.New("file not found")

// FileInfo describes a stored upload.
type FileInfo struct {
	ID          string    `json:"id"`
	Filename    string    `json:"filename"`
	ContentType string    `json:"content_type"`
	Size        int64     `json:"size"`
	Path        string    `json:"path"`
	Encrypted   bool      `json:"encrypted,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// Storage is the interface for uploaded source documents.
type Storage interface {
	// Save stores a file and returns its metadata.
	Save(ctx context.Context, filename string, contentType string, reader io.Reader) (*FileInfo, error)
	// Get retrieves a file by ID.
	Get(ctx context.Context, id string) (*FileInfo, io.ReadCloser, error)
	// Delete removes a file by ID.
	Delete(ctx context.Context, id string) error
	// List returns all stored files, oldest first.
	List(ctx context.Context) ([]FileInfo, error)
	// PurgeOlderThan deletes files created before cutoff and returns how many were removed.
	PurgeOlderThan(ctx context.Context, cutoff time.Time) (int, error)
}
