package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/dustin/go-humanize"
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

const (
	defaultListLimit = 10
	maxListLimit     = 100
)

// FileListResult is the service-level DTO for paginated files.
type FileListResult struct {
	Items []model.File `json:"data"`
	Total int          `json:"total"`
}

// ContentService defines the read side: token-gated info, streaming and deletion.
type ContentService interface {
	// Info returns descriptive metadata for filename after verifying token.
	Info(ctx context.Context, filename, token string) (*model.FileInfo, error)

	// Stream verifies token and prepares a full or partial response for
	// filename. The caller must drain or close the returned body.
	Stream(ctx context.Context, filename, token, rangeHeader string) (*stream.Response, error)

	// List returns recorded files using limit/offset and a total count.
	List(ctx context.Context, limit, offset int) (*FileListResult, error)

	// Delete removes filename from storage and the registry. token must be the
	// manage token returned by Merge; read tokens are refused.
	Delete(ctx context.Context, filename, token string) error
}

type contentService struct {
	store    storage.Storage
	repo     repository.FileRepository
	tokens   Tokens
	streamer *stream.Streamer
	metrics  *metrics.Recorder
	log      *logging.Logger
}

// NewContentService constructs a new ContentService. rec and log may be nil.
func NewContentService(store storage.Storage, repo repository.FileRepository, tokens Tokens, streamer *stream.Streamer, rec *metrics.Recorder, log *logging.Logger) ContentService {
	if log == nil {
		log = logging.Nop()
	}
	if streamer == nil {
		streamer = stream.New(0)
	}
	return &contentService{
		store:    store,
		repo:     repo,
		tokens:   tokens,
		streamer: streamer,
		metrics:  rec,
		log:      log.With(map[string]any{"component": "content"}),
	}
}

func (s *contentService) Info(ctx context.Context, filename, token string) (_ *model.FileInfo, err error) {
	const op = "service.Info"
	ctx, span := tracer.Start(ctx, "ContentService.Info", trace.WithAttributes(
		attribute.String("file.name", filename),
	))
	defer func() { endSpan(span, err) }()

	if err := s.verify(filename, token); err != nil {
		return nil, err
	}
	info, err := s.store.Stat(ctx, filename)
	if err != nil {
		return nil, mapStorageError(op, err)
	}
	out := &model.FileInfo{
		Filename:    filename,
		Size:        info.Size,
		SizeHuman:   humanize.IBytes(uint64(max(info.Size, 0))),
		ContentType: stream.ContentType(filename),
		IsVideo:     stream.IsVideo(filename),
		StreamURL:   StreamURL(filename, token),
	}

	// the stored object is authoritative; the registry only adds detail
	rec, err := s.repo.FindByFilename(ctx, filename)
	switch {
	case err == nil:
		created := rec.CreatedAt
		out.Chunks = rec.Chunks
		out.CreatedAt = &created
	case !errors.Is(err, repository.ErrNotFound):
		s.log.Warn("registry_lookup_failed", map[string]any{
			"filename": filename,
			"error":    err.Error(),
		})
	}
	return out, nil
}

func (s *contentService) Stream(ctx context.Context, filename, token, rangeHeader string) (_ *stream.Response, err error) {
	const op = "service.Stream"
	ctx, span := tracer.Start(ctx, "ContentService.Stream", trace.WithAttributes(
		attribute.String("file.name", filename),
		attribute.String("http.range", rangeHeader),
	))
	defer func() { endSpan(span, err) }()

	if err := s.verify(filename, token); err != nil {
		return nil, err
	}
	src, info, err := s.store.Open(ctx, filename)
	if err != nil {
		return nil, mapStorageError(op, err)
	}
	resp, err := s.streamer.Prepare(src, filename, info.Size, rangeHeader)
	if err != nil {
		if apperr.Is(err, apperr.KindRangeNotSatisfiable) {
			s.metrics.Streamed(strconv.Itoa(416), 0)
		}
		return nil, err
	}
	s.metrics.Streamed(strconv.Itoa(resp.Status), resp.Length)
	return resp, nil
}

// List returns paginated files without exposing repository types.
func (s *contentService) List(ctx context.Context, limit, offset int) (*FileListResult, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	if offset < 0 {
		offset = 0
	}

	res, err := s.repo.List(ctx, repository.PageQuery{Limit: limit, Offset: offset})
	if err != nil {
		return nil, apperr.Internal("service.List", err)
	}
	return &FileListResult{Items: res.Items, Total: res.Total}, nil
}

// Delete removes the stored object first, then its record.
func (s *contentService) Delete(ctx context.Context, filename, token string) (err error) {
	const op = "service.Delete"
	ctx, span := tracer.Start(ctx, "ContentService.Delete", trace.WithAttributes(
		attribute.String("file.name", filename),
	))
	defer func() { endSpan(span, err) }()

	if err := s.tokens.VerifyManage(token, filename); err != nil {
		s.metrics.TokenRejected(apperr.KindOf(err).String())
		return err
	}
	if _, err := s.store.Stat(ctx, filename); err != nil {
		return mapStorageError(op, err)
	}
	// if this fails, keep the record so the file can still be found
	if err := s.store.Delete(ctx, filename); err != nil {
		return apperr.Internal(op, fmt.Errorf("delete storage: %w", err))
	}
	if err := s.repo.Delete(ctx, filename); err != nil {
		return apperr.Internal(op, fmt.Errorf("delete record: %w", err))
	}
	s.log.Info("file_deleted", map[string]any{"filename": filename})
	return nil
}

func (s *contentService) verify(filename, token string) error {
	err := s.tokens.Verify(token, filename)
	if err != nil {
		s.metrics.TokenRejected(apperr.KindOf(err).String())
	}
	return err
}

func mapStorageError(op string, err error) error {
	if errors.Is(err, storage.ErrNotFound) || errors.Is(err, storage.ErrInvalidKey) {
		return &apperr.Error{Op: op, Kind: apperr.KindFileNotFound, Msg: "file not found", Err: err}
	}
	return apperr.Internal(op, err)
}
