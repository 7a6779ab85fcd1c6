package service

import (
	"context"
	"io"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"chunkvault/internal/chunk"
)

var tracer = otel.Tracer("chunkvault/internal/service")

// ChunkStore is the session store the upload use cases depend on.
// *chunk.Store satisfies it.
type ChunkStore interface {
	Put(ctx context.Context, sessionID string, index int, originalFilename string, r io.Reader) error
	Stat(ctx context.Context, sessionID string) error
	Metadata(ctx context.Context, sessionID string) (string, error)
	Chunks(ctx context.Context, sessionID string) ([]chunk.Part, error)
	Reader(parts []chunk.Part) io.ReadCloser
	Remove(ctx context.Context, sessionID string) error
}

// Tokens issues and verifies capability tokens. *token.Service satisfies it.
// Read tokens travel in shareable URLs; manage tokens also authorise deletion.
type Tokens interface {
	Issue(filename string) (string, error)
	IssueManage(filename string) (string, error)
	Verify(raw, filename string) error
	VerifyManage(raw, filename string) error
}

var _ ChunkStore = (*chunk.Store)(nil)

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
