package stream

import (
	"context"
	"errors"
	"io"
	"iter"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"

	"chunkvault/internal/apperr"
)

// DefaultBufferSize is the read size used while streaming.
const DefaultBufferSize = 1 << 20

// ErrBodyConsumed is yielded when a Body is iterated a second time.
var ErrBodyConsumed = errors.New("stream body already consumed")

// Response is what the HTTP layer needs to answer a stream request.
type Response struct {
	Status int
	Header map[string]string
	Length int64
	Body   *Body
}

// Streamer prepares full or partial responses over seekable sources.
type Streamer struct {
	bufSize int
}

// New returns a Streamer reading through a buffer of bufSize bytes
// (DefaultBufferSize when bufSize <= 0).
func New(bufSize int) *Streamer {
	if bufSize <= 0 {
		bufSize = DefaultBufferSize
	}
	return &Streamer{bufSize: bufSize}
}

// Prepare builds the response for src, which holds size bytes of the file
// called name. rangeHeader is the raw Range request header, empty if absent.
// Prepare takes ownership of src: it is closed on error, otherwise when the
// returned Body is drained or closed.
func (s *Streamer) Prepare(src io.ReadSeekCloser, name string, size int64, rangeHeader string) (*Response, error) {
	header := map[string]string{
		"Accept-Ranges": "bytes",
		"Content-Type":  ContentType(name),
	}

	if rangeHeader == "" {
		header["Content-Length"] = strconv.FormatInt(size, 10)
		return &Response{
			Status: http.StatusOK,
			Header: header,
			Length: size,
			Body:   newBody(src, 0, size, s.bufSize),
		}, nil
	}

	r, err := ParseRange(rangeHeader, size)
	if err != nil {
		_ = src.Close()
		return nil, err
	}
	header["Content-Range"] = "bytes " + strconv.FormatInt(r.Start, 10) + "-" + strconv.FormatInt(r.End, 10) + "/" + strconv.FormatInt(size, 10)
	header["Content-Length"] = strconv.FormatInt(r.Length(), 10)
	return &Response{
		Status: http.StatusPartialContent,
		Header: header,
		Length: r.Length(),
		Body:   newBody(src, r.Start, r.Length(), s.bufSize),
	}, nil
}

// Body is a single-use, lazily read slice of a source.
type Body struct {
	src     io.ReadSeekCloser
	offset  int64
	length  int64
	bufSize int

	used      atomic.Bool
	closeOnce sync.Once
	closeErr  error
}

func newBody(src io.ReadSeekCloser, offset, length int64, bufSize int) *Body {
	return &Body{src: src, offset: offset, length: length, bufSize: bufSize}
}

// Len is the number of bytes the body will produce unless the source ends early.
func (b *Body) Len() int64 { return b.length }

// Chunks yields the body in buffers of at most the configured size. A yielded
// slice is only valid until the next iteration. Iteration stops when the
// remaining count reaches zero, the source ends early (not an error), ctx is
// done, or the consumer stops; the source is closed in every case.
func (b *Body) Chunks(ctx context.Context) iter.Seq2[[]byte, error] {
	return func(yield func([]byte, error) bool) {
		if !b.used.CompareAndSwap(false, true) {
			yield(nil, ErrBodyConsumed)
			return
		}
		defer b.Close()

		if _, err := b.src.Seek(b.offset, io.SeekStart); err != nil {
			yield(nil, apperr.Internal("stream.Seek", err))
			return
		}

		buf := make([]byte, max(min(int64(b.bufSize), b.length), 1))
		remaining := b.length
		for remaining > 0 {
			if err := ctx.Err(); err != nil {
				yield(nil, err)
				return
			}
			n, err := io.ReadFull(b.src, buf[:min(int64(len(buf)), remaining)])
			if n > 0 {
				remaining -= int64(n)
				if !yield(buf[:n], nil) {
					return
				}
			}
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				return
			}
			if err != nil {
				yield(nil, apperr.Internal("stream.Read", err))
				return
			}
		}
	}
}

// Reader adapts the body to an io.ReadCloser. Closing the reader before it is
// drained stops the iteration and releases the source.
func (b *Body) Reader(ctx context.Context) io.ReadCloser {
	next, stop := iter.Pull2(b.Chunks(ctx))
	return &bodyReader{body: b, next: next, stop: stop}
}

// Close releases the source. It is safe to call more than once.
func (b *Body) Close() error {
	b.closeOnce.Do(func() {
		b.closeErr = b.src.Close()
	})
	return b.closeErr
}

type bodyReader struct {
	body    *Body
	next    func() ([]byte, error, bool)
	stop    func()
	pending []byte
	err     error
}

func (r *bodyReader) Read(p []byte) (int, error) {
	for len(r.pending) == 0 {
		if r.err != nil {
			return 0, r.err
		}
		chunk, err, ok := r.next()
		switch {
		case !ok:
			r.err = io.EOF
		case err != nil:
			r.err = err
		default:
			r.pending = chunk
		}
	}
	n := copy(p, r.pending)
	r.pending = r.pending[n:]
	return n, nil
}

func (r *bodyReader) Close() error {
	r.stop()
	return r.body.Close()
}
