package storage

import (
	"context"
	"errors"
	"io"
	"strings"
	"time"
)

// Package storage holds assembled files. Two backends exist: the local
// filesystem and an S3-compatible object store (MinIO). Both stream; neither
// buffers a whole file in memory.

var (
	// ErrNotFound is returned when no object exists under the key.
	ErrNotFound = errors.New("object not found")
	// ErrInvalidKey is returned for keys that could escape the store.
	ErrInvalidKey = errors.New("invalid object key")
	// ErrExists is returned by an exclusive Put when the key is already taken.
	ErrExists = errors.New("object already exists")
)

// PutObjectOptions define optional parameters for uploading objects.
// Size should be the exact number of bytes if known; if unknown, set to -1 and the implementation
// will buffer/chunk as supported by the backend.
// ContentType and Metadata are optional.
// Exclusive makes Put fail with ErrExists instead of replacing an existing object.
type PutObjectOptions struct {
	Size        int64
	ContentType string
	Metadata    map[string]string
	Exclusive   bool
}

// ObjectInfo contains basic information about an object in storage.
type ObjectInfo struct {
	Key          string
	Size         int64
	ETag         string
	ContentType  string
	LastModified time.Time
	Metadata     map[string]string
}

// Storage is the assembled-file store.
// Put must be atomic from a reader's point of view: a failed Put leaves nothing under key.
type Storage interface {
	// Put stores the content of r under key.
	Put(ctx context.Context, key string, r io.Reader, opt PutObjectOptions) (ObjectInfo, error)
	// Open returns a seekable reader over the object. The caller closes it.
	Open(ctx context.Context, key string) (io.ReadSeekCloser, ObjectInfo, error)
	// Stat returns object info without opening content.
	Stat(ctx context.Context, key string) (ObjectInfo, error)
	// Delete removes an object by key. Missing objects are not an error.
	Delete(ctx context.Context, key string) error
	// Ping checks that the backend is reachable.
	Ping(ctx context.Context) error
}

// ValidKey reports whether key is a single, non-hidden path element.
func ValidKey(key string) bool {
	if key == "" || len(key) > 255 || strings.HasPrefix(key, ".") {
		return false
	}
	return !strings.ContainsAny(key, "/\\\x00")
}
