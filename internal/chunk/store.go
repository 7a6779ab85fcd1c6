package chunk

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"chunkvault/internal/apperr"
)

const (
	metadataFile = "original_filename.txt"
	chunkPrefix  = "chunk_"
	tempPattern  = ".incoming-*"
)

var sessionIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,128}$`)

// ValidSessionID reports whether id is usable as a session directory name.
func ValidSessionID(id string) bool {
	return sessionIDPattern.MatchString(id)
}

// Part is one stored chunk of a session.
type Part struct {
	Index int
	Size  int64
	path  string
}

// Store keeps upload sessions on the local filesystem, one directory per session:
//
//	<root>/<session>/original_filename.txt
//	<root>/<session>/chunk_<index>
//
// Writes to distinct (session, index) pairs are independent and may run concurrently.
type Store struct {
	root string
}

// NewStore creates root if needed and returns a Store rooted there.
func NewStore(root string) (*Store, error) {
	if root == "" {
		return nil, fmt.Errorf("chunk root directory is required")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create chunk root: %w", err)
	}
	return &Store{root: root}, nil
}

// Root returns the directory holding all sessions.
func (s *Store) Root() string { return s.root }

// Put stores one chunk. The first chunk of a session also records the
// sanitized original filename; later calls leave that record untouched.
// Re-sending an index replaces the previous payload.
func (s *Store) Put(ctx context.Context, sessionID string, index int, originalFilename string, r io.Reader) error {
	const op = "chunk.Put"
	if !ValidSessionID(sessionID) {
		return apperr.E(op, apperr.KindInvalidRequest, "invalid session key")
	}
	if index < 0 {
		return apperr.E(op, apperr.KindInvalidRequest, "chunk index must be >= 0")
	}
	if err := ctx.Err(); err != nil {
		return apperr.Internal(op, err)
	}

	dir := s.sessionDir(sessionID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return apperr.Internal(op, fmt.Errorf("create session dir: %w", err))
	}
	if err := writeOnce(filepath.Join(dir, metadataFile), Sanitize(originalFilename)); err != nil {
		return apperr.Internal(op, fmt.Errorf("write metadata: %w", err))
	}

	tmp, err := os.CreateTemp(dir, tempPattern)
	if err != nil {
		return apperr.Internal(op, fmt.Errorf("create temp chunk: %w", err))
	}
	_, copyErr := io.Copy(tmp, r)
	closeErr := tmp.Close()
	if err := errors.Join(copyErr, closeErr); err != nil {
		_ = os.Remove(tmp.Name())
		return apperr.Internal(op, fmt.Errorf("write chunk %d: %w", index, err))
	}
	if err := os.Rename(tmp.Name(), filepath.Join(dir, chunkPrefix+strconv.Itoa(index))); err != nil {
		_ = os.Remove(tmp.Name())
		return apperr.Internal(op, fmt.Errorf("commit chunk %d: %w", index, err))
	}
	return nil
}

// Stat fails with KindSessionNotFound when the session has no storage.
func (s *Store) Stat(_ context.Context, sessionID string) error {
	const op = "chunk.Stat"
	if !ValidSessionID(sessionID) {
		return apperr.E(op, apperr.KindSessionNotFound, "no chunks folder found")
	}
	fi, err := os.Stat(s.sessionDir(sessionID))
	if errors.Is(err, fs.ErrNotExist) || (err == nil && !fi.IsDir()) {
		return apperr.E(op, apperr.KindSessionNotFound, "no chunks folder found")
	}
	if err != nil {
		return apperr.Internal(op, err)
	}
	return nil
}

// Metadata returns the sanitized filename recorded by the session's first chunk.
func (s *Store) Metadata(ctx context.Context, sessionID string) (string, error) {
	const op = "chunk.Metadata"
	if err := s.Stat(ctx, sessionID); err != nil {
		return "", err
	}
	b, err := os.ReadFile(filepath.Join(s.sessionDir(sessionID), metadataFile))
	if errors.Is(err, fs.ErrNotExist) {
		return "", apperr.E(op, apperr.KindMetadataMissing, "missing metadata for original filename")
	}
	if err != nil {
		return "", apperr.Internal(op, err)
	}
	name := strings.TrimSpace(string(b))
	if name == "" {
		return "", apperr.E(op, apperr.KindMetadataMissing, "missing metadata for original filename")
	}
	return name, nil
}

// Chunks lists the session's chunks sorted by numeric index, so chunk_10
// comes after chunk_2. Entries that are not committed chunks are skipped.
func (s *Store) Chunks(ctx context.Context, sessionID string) ([]Part, error) {
	const op = "chunk.Chunks"
	if err := s.Stat(ctx, sessionID); err != nil {
		return nil, err
	}
	dir := s.sessionDir(sessionID)
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, apperr.Internal(op, err)
	}

	parts := make([]Part, 0, len(entries))
	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}
		idx, ok := parseIndex(e.Name())
		if !ok {
			continue
		}
		info, err := e.Info()
		if err != nil {
			return nil, apperr.Internal(op, err)
		}
		parts = append(parts, Part{Index: idx, Size: info.Size(), path: filepath.Join(dir, e.Name())})
	}
	slices.SortFunc(parts, func(a, b Part) int { return a.Index - b.Index })
	return parts, nil
}

// Reader concatenates parts in the given order. Chunk files are opened one at
// a time as the reader advances.
func (s *Store) Reader(parts []Part) io.ReadCloser {
	return &sequentialReader{parts: parts}
}

// Remove deletes the session directory and everything in it.
func (s *Store) Remove(_ context.Context, sessionID string) error {
	if !ValidSessionID(sessionID) {
		return apperr.E("chunk.Remove", apperr.KindInvalidRequest, "invalid session key")
	}
	if err := os.RemoveAll(s.sessionDir(sessionID)); err != nil {
		return apperr.Internal("chunk.Remove", err)
	}
	return nil
}

func (s *Store) sessionDir(sessionID string) string {
	return filepath.Join(s.root, sessionID)
}

func parseIndex(name string) (int, bool) {
	rest, ok := strings.CutPrefix(name, chunkPrefix)
	if !ok || rest == "" {
		return 0, false
	}
	idx, err := strconv.Atoi(rest)
	if err != nil || idx < 0 {
		return 0, false
	}
	return idx, true
}

// writeOnce creates path with content unless it already exists.
func writeOnce(path, content string) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if errors.Is(err, fs.ErrExist) {
		return nil
	}
	if err != nil {
		return err
	}
	_, werr := f.WriteString(content)
	cerr := f.Close()
	if err := errors.Join(werr, cerr); err != nil {
		// leave no half-written record so the next chunk can retry
		_ = os.Remove(path)
		return err
	}
	return nil
}

type sequentialReader struct {
	parts []Part
	next  int
	cur   *os.File
}

func (r *sequentialReader) Read(p []byte) (int, error) {
	for {
		if r.cur == nil {
			if r.next >= len(r.parts) {
				return 0, io.EOF
			}
			f, err := os.Open(r.parts[r.next].path)
			if err != nil {
				return 0, fmt.Errorf("open chunk %d: %w", r.parts[r.next].Index, err)
			}
			r.cur = f
			r.next++
		}
		n, err := r.cur.Read(p)
		if errors.Is(err, io.EOF) {
			_ = r.cur.Close()
			r.cur = nil
			if n > 0 {
				return n, nil
			}
			continue
		}
		return n, err
	}
}

func (r *sequentialReader) Close() error {
	if r.cur == nil {
		return nil
	}
	err := r.cur.Close()
	r.cur = nil
	r.next = len(r.parts)
	return err
}
