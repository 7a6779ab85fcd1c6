package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

// localStorage keeps objects as plain files in one directory.
type localStorage struct {
	root string
}

// NewLocal returns a Storage rooted at dir, creating it if needed.
func NewLocal(dir string) (Storage, error) {
	if dir == "" {
		return nil, fmt.Errorf("upload directory is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &localStorage{root: dir}, nil
}

// Put writes into a hidden temp file and renames it into place once complete,
// so readers never observe a partial file. An exclusive Put hard-links the temp
// file instead, which fails atomically when the key already exists.
func (l *localStorage) Put(ctx context.Context, key string, r io.Reader, opt PutObjectOptions) (ObjectInfo, error) {
	if !ValidKey(key) {
		return ObjectInfo{}, ErrInvalidKey
	}
	if err := ctx.Err(); err != nil {
		return ObjectInfo{}, err
	}

	tmp, err := os.CreateTemp(l.root, ".partial-*")
	if err != nil {
		return ObjectInfo{}, fmt.Errorf("create temp file: %w", err)
	}
	n, copyErr := io.Copy(tmp, &ctxReader{ctx: ctx, r: r})
	if copyErr == nil && opt.Size >= 0 && n != opt.Size {
		copyErr = fmt.Errorf("size mismatch: wrote %d of %d bytes", n, opt.Size)
	}
	closeErr := tmp.Close()
	if err := errors.Join(copyErr, closeErr); err != nil {
		_ = os.Remove(tmp.Name())
		return ObjectInfo{}, err
	}

	dest := filepath.Join(l.root, key)
	if err := commit(tmp.Name(), dest, opt.Exclusive); err != nil {
		return ObjectInfo{}, err
	}
	fi, err := os.Stat(dest)
	if err != nil {
		return ObjectInfo{}, err
	}
	return ObjectInfo{
		Key:          key,
		Size:         n,
		ContentType:  opt.ContentType,
		LastModified: fi.ModTime(),
		Metadata:     opt.Metadata,
	}, nil
}

func commit(tmp, dest string, exclusive bool) error {
	if !exclusive {
		if err := os.Rename(tmp, dest); err != nil {
			_ = os.Remove(tmp)
			return fmt.Errorf("commit %s: %w", filepath.Base(dest), err)
		}
		return nil
	}
	err := os.Link(tmp, dest)
	_ = os.Remove(tmp)
	switch {
	case errors.Is(err, fs.ErrExist):
		return ErrExists
	case err != nil:
		return fmt.Errorf("commit %s: %w", filepath.Base(dest), err)
	}
	return nil
}

func (l *localStorage) Open(_ context.Context, key string) (io.ReadSeekCloser, ObjectInfo, error) {
	if !ValidKey(key) {
		return nil, ObjectInfo{}, ErrInvalidKey
	}
	f, err := os.Open(filepath.Join(l.root, key))
	if err != nil {
		return nil, ObjectInfo{}, mapFSError(err)
	}
	fi, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, ObjectInfo{}, err
	}
	if !fi.Mode().IsRegular() {
		f.Close()
		return nil, ObjectInfo{}, ErrNotFound
	}
	return f, infoFromFile(key, fi), nil
}

func (l *localStorage) Stat(_ context.Context, key string) (ObjectInfo, error) {
	if !ValidKey(key) {
		return ObjectInfo{}, ErrInvalidKey
	}
	fi, err := os.Stat(filepath.Join(l.root, key))
	if err != nil {
		return ObjectInfo{}, mapFSError(err)
	}
	if !fi.Mode().IsRegular() {
		return ObjectInfo{}, ErrNotFound
	}
	return infoFromFile(key, fi), nil
}

func (l *localStorage) Delete(_ context.Context, key string) error {
	if !ValidKey(key) {
		return ErrInvalidKey
	}
	err := os.Remove(filepath.Join(l.root, key))
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

func (l *localStorage) Ping(_ context.Context) error {
	fi, err := os.Stat(l.root)
	if err != nil {
		return err
	}
	if !fi.IsDir() {
		return fmt.Errorf("%s is not a directory", l.root)
	}
	return nil
}

func infoFromFile(key string, fi fs.FileInfo) ObjectInfo {
	return ObjectInfo{Key: key, Size: fi.Size(), LastModified: fi.ModTime()}
}

func mapFSError(err error) error {
	if errors.Is(err, fs.ErrNotExist) {
		return ErrNotFound
	}
	return err
}

// ctxReader stops a copy once ctx is done.
type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (c *ctxReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}
