package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"chunkvault/internal/apperr"
	"chunkvault/internal/logging"
	"chunkvault/internal/metrics"
	"chunkvault/internal/model"
	"chunkvault/internal/repository"
	"chunkvault/internal/storage"
	"chunkvault/internal/stream"
)

// MergeResult is returned to the client after a successful merge.
type MergeResult struct {
	Filename string `json:"filename"`
	URL      string `json:"url"`
	Size     int64  `json:"size"`
	// ManageToken authorises deleting the file. It is not part of URL.
	ManageToken string `json:"manage_token"`
}

// UploadService defines the chunked upload use cases.
type UploadService interface {
	// StoreChunk persists one chunk of a session. size is informational and
	// only used for metrics.
	StoreChunk(ctx context.Context, sessionID string, index int, originalFilename string, r io.Reader, size int64) error

	// Merge assembles the session's chunks in numeric order into one stored
	// file, records it, removes the session and returns a tokenized URL.
	// Merges of one session are serialised; the assembled name is never
	// overwritten. Merge must not run while chunk writes for the same session
	// are in flight.
	Merge(ctx context.Context, sessionID string) (*MergeResult, error)
}

type uploadService struct {
	chunks  ChunkStore
	store   storage.Storage
	repo    repository.FileRepository
	tokens  Tokens
	metrics *metrics.Recorder
	log     *logging.Logger
	now     func() time.Time

	sessions keyedMutex
}

// NewUploadService constructs a new UploadService. rec and log may be nil.
func NewUploadService(chunks ChunkStore, store storage.Storage, repo repository.FileRepository, tokens Tokens, rec *metrics.Recorder, log *logging.Logger) UploadService {
	if log == nil {
		log = logging.Nop()
	}
	return &uploadService{
		chunks:  chunks,
		store:   store,
		repo:    repo,
		tokens:  tokens,
		metrics: rec,
		log:     log.With(map[string]any{"component": "upload"}),
		now:     time.Now,
	}
}

func (s *uploadService) StoreChunk(ctx context.Context, sessionID string, index int, originalFilename string, r io.Reader, size int64) (err error) {
	ctx, span := tracer.Start(ctx, "UploadService.StoreChunk", trace.WithAttributes(
		attribute.String("upload.session", sessionID),
		attribute.Int("upload.chunk_index", index),
		attribute.Int64("upload.chunk_size", size),
	))
	defer func() { endSpan(span, err) }()

	if r == nil {
		return apperr.E("service.StoreChunk", apperr.KindInvalidRequest, "chunk payload is required")
	}
	err = s.chunks.Put(ctx, sessionID, index, originalFilename, r)
	s.metrics.ChunkStored(size, err)
	return err
}

func (s *uploadService) Merge(ctx context.Context, sessionID string) (res *MergeResult, err error) {
	ctx, span := tracer.Start(ctx, "UploadService.Merge", trace.WithAttributes(
		attribute.String("upload.session", sessionID),
	))
	defer func() { endSpan(span, err) }()

	start := s.now()
	res, err = s.merge(ctx, sessionID)
	var size int64
	if res != nil {
		size = res.Size
	}
	s.metrics.Merged(s.now().Sub(start).Seconds(), size, err)
	return res, err
}

func (s *uploadService) merge(ctx context.Context, sessionID string) (*MergeResult, error) {
	const op = "service.Merge"

	unlock := s.sessions.Lock(sessionID)
	defer unlock()

	// Preconditions, in order: session, metadata, at least one chunk.
	if err := s.chunks.Stat(ctx, sessionID); err != nil {
		return nil, err
	}
	name, err := s.chunks.Metadata(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	parts, err := s.chunks.Chunks(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if len(parts) == 0 {
		return nil, apperr.E(op, apperr.KindNoChunks, "no chunks to merge")
	}

	var total int64
	for _, p := range parts {
		total += p.Size
	}
	contentType := stream.ContentType(name)

	src := s.chunks.Reader(parts)
	info, err := s.store.Put(ctx, name, src, storage.PutObjectOptions{
		Size:        total,
		ContentType: contentType,
		Metadata: map[string]string{
			"upload-session": sessionID,
			"chunk-count":    strconv.Itoa(len(parts)),
		},
		Exclusive: true,
	})
	_ = src.Close()
	// A failed Put leaves nothing under name, and ErrExists means the object
	// belongs to someone else: neither case is cleaned up here.
	if errors.Is(err, storage.ErrExists) {
		return nil, &apperr.Error{Op: op, Kind: apperr.KindConflict, Msg: "file already assembled", Err: err}
	}
	if err != nil {
		return nil, apperr.Internal(op, fmt.Errorf("write assembled file: %w", err))
	}

	file := &model.File{
		ID:          uuid.NewString(),
		Filename:    name,
		Size:        info.Size,
		ContentType: contentType,
		Chunks:      len(parts),
		CreatedAt:   s.now().UTC(),
	}
	if _, err := s.repo.Create(ctx, file); err != nil {
		// the exclusive Put above created this object, so it is ours to remove
		if delErr := s.store.Delete(ctx, name); delErr != nil {
			return nil, apperr.Internal(op, fmt.Errorf("record file failed: %v; rollback delete failed: %v", err, delErr))
		}
		return nil, apperr.Internal(op, fmt.Errorf("record file failed: %w", err))
	}

	if err := s.chunks.Remove(ctx, sessionID); err != nil {
		s.log.Warn("session_cleanup_failed", map[string]any{
			"session": sessionID,
			"error":   err.Error(),
		})
	}

	tok, err := s.tokens.Issue(name)
	if err != nil {
		return nil, apperr.Internal(op, err)
	}
	manage, err := s.tokens.IssueManage(name)
	if err != nil {
		return nil, apperr.Internal(op, err)
	}

	s.log.Info("merge_complete", map[string]any{
		"session":  sessionID,
		"filename": name,
		"chunks":   len(parts),
		"size":     info.Size,
	})

	return &MergeResult{
		Filename:    name,
		URL:         ContentURL(name, tok),
		Size:        info.Size,
		ManageToken: manage,
	}, nil
}

// ContentURL is the content-info URL for name carrying tok.
func ContentURL(name, tok string) string {
	return "/content/" + url.PathEscape(name) + "?token=" + url.QueryEscape(tok)
}

// StreamURL is the stream URL for name carrying tok.
func StreamURL(name, tok string) string {
	return "/stream/" + url.PathEscape(name) + "?token=" + url.QueryEscape(tok)
}
