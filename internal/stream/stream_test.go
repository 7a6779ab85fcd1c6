package stream

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chunkvault/internal/apperr"
)

// trackingSource is an in-memory io.ReadSeekCloser that records Close calls
// and how many bytes were read.
type trackingSource struct {
	*bytes.Reader
	closed    int
	readBytes int
}

func newSource(data []byte) *trackingSource {
	return &trackingSource{Reader: bytes.NewReader(data)}
}

func (s *trackingSource) Read(p []byte) (int, error) {
	n, err := s.Reader.Read(p)
	s.readBytes += n
	return n, err
}

func (s *trackingSource) Close() error {
	s.closed++
	return nil
}

func payload(n int) []byte {
	b := make([]byte, n)
	for i := range b {
		b[i] = byte(i % 251)
	}
	return b
}

func drain(t *testing.T, body *Body) []byte {
	t.Helper()
	var out []byte
	for chunk, err := range body.Chunks(context.Background()) {
		require.NoError(t, err)
		out = append(out, chunk...)
	}
	return out
}

func TestParseRange(t *testing.T) {
	tests := []struct {
		name    string
		header  string
		want    Range
		wantErr bool
	}{
		{name: "explicit", header: "bytes=0-99", want: Range{0, 99}},
		{name: "open end", header: "bytes=900-", want: Range{900, 999}},
		{name: "open start", header: "bytes=-99", want: Range{0, 99}},
		{name: "both empty", header: "bytes=-", want: Range{0, 999}},
		{name: "end clamped", header: "bytes=10-5000", want: Range{10, 999}},
		{name: "single byte", header: "bytes=999-999", want: Range{999, 999}},
		{name: "start after end", header: "bytes=500-100", wantErr: true},
		{name: "start past size", header: "bytes=1000-", wantErr: true},
		{name: "wrong unit", header: "items=0-1", wantErr: true},
		{name: "no dash", header: "bytes=12", wantErr: true},
		{name: "non numeric", header: "bytes=a-b", wantErr: true},
		{name: "multi range", header: "bytes=0-1,5-6", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseRange(tt.header, 1000)
			if tt.wantErr {
				assert.Equal(t, apperr.KindRangeNotSatisfiable, apperr.KindOf(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPrepare_PartialContent(t *testing.T) {
	data := payload(1000)
	src := newSource(data)

	resp, err := New(0).Prepare(src, "movie.mp4", 1000, "bytes=0-99")
	require.NoError(t, err)

	assert.Equal(t, http.StatusPartialContent, resp.Status)
	assert.Equal(t, "bytes 0-99/1000", resp.Header["Content-Range"])
	assert.Equal(t, "bytes", resp.Header["Accept-Ranges"])
	assert.Equal(t, "100", resp.Header["Content-Length"])
	assert.Equal(t, "video/mp4", resp.Header["Content-Type"])
	assert.Equal(t, int64(100), resp.Length)

	assert.Equal(t, data[:100], drain(t, resp.Body))
	assert.Equal(t, 1, src.closed)
}

func TestPrepare_FullContent(t *testing.T) {
	data := payload(1000)
	src := newSource(data)

	resp, err := New(0).Prepare(src, "blob.unknownext", 1000, "")
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.Status)
	assert.Equal(t, "1000", resp.Header["Content-Length"])
	assert.Equal(t, "bytes", resp.Header["Accept-Ranges"])
	assert.NotContains(t, resp.Header, "Content-Range")
	assert.Equal(t, "application/octet-stream", resp.Header["Content-Type"])

	assert.Equal(t, data, drain(t, resp.Body))
}

func TestPrepare_MiddleRangeSmallBuffer(t *testing.T) {
	data := payload(1000)
	src := newSource(data)

	resp, err := New(64).Prepare(src, "a.bin", 1000, "bytes=500-")
	require.NoError(t, err)

	var sizes []int
	var out []byte
	for chunk, err := range resp.Body.Chunks(context.Background()) {
		require.NoError(t, err)
		sizes = append(sizes, len(chunk))
		out = append(out, chunk...)
	}
	assert.Equal(t, data[500:], out)
	for _, n := range sizes {
		assert.LessOrEqual(t, n, 64)
	}
}

func TestPrepare_RangeNotSatisfiableClosesSource(t *testing.T) {
	src := newSource(payload(1000))

	resp, err := New(0).Prepare(src, "a.mp4", 1000, "bytes=500-100")
	assert.Nil(t, resp)
	assert.Equal(t, apperr.KindRangeNotSatisfiable, apperr.KindOf(err))
	assert.Equal(t, 1, src.closed)
}

func TestBody_EarlyEndOfSource(t *testing.T) {
	// size claims more bytes than the source holds
	src := newSource(payload(300))

	resp, err := New(128).Prepare(src, "a.bin", 1000, "")
	require.NoError(t, err)

	assert.Len(t, drain(t, resp.Body), 300)
	assert.Equal(t, 1, src.closed)
}

func TestBody_SingleUse(t *testing.T) {
	src := newSource(payload(10))
	resp, err := New(0).Prepare(src, "a.bin", 10, "")
	require.NoError(t, err)

	_ = drain(t, resp.Body)

	var gotErr error
	for _, err := range resp.Body.Chunks(context.Background()) {
		gotErr = err
	}
	assert.ErrorIs(t, gotErr, ErrBodyConsumed)
}

func TestBody_ConsumerStopReleasesSource(t *testing.T) {
	src := newSource(payload(1 << 16))
	resp, err := New(1024).Prepare(src, "a.bin", 1<<16, "")
	require.NoError(t, err)

	for range resp.Body.Chunks(context.Background()) {
		break
	}
	assert.Equal(t, 1, src.closed)
	assert.Equal(t, 1024, src.readBytes)
}

func TestBody_ContextCancelStopsReading(t *testing.T) {
	src := newSource(payload(1 << 16))
	resp, err := New(1024).Prepare(src, "a.bin", 1<<16, "")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	var gotErr error
	chunks := 0
	for _, err := range resp.Body.Chunks(ctx) {
		if err != nil {
			gotErr = err
			break
		}
		chunks++
		cancel()
	}
	assert.Equal(t, 1, chunks)
	assert.ErrorIs(t, gotErr, context.Canceled)
	assert.Equal(t, 1, src.closed)
}

func TestBody_Reader(t *testing.T) {
	data := payload(5000)

	t.Run("drains fully", func(t *testing.T) {
		src := newSource(data)
		resp, err := New(700).Prepare(src, "a.bin", 5000, "bytes=1000-3999")
		require.NoError(t, err)

		r := resp.Body.Reader(context.Background())
		got, err := io.ReadAll(r)
		require.NoError(t, err)
		require.NoError(t, r.Close())

		assert.Equal(t, data[1000:4000], got)
		assert.Equal(t, 1, src.closed)
	})

	t.Run("close before drain releases source", func(t *testing.T) {
		src := newSource(data)
		resp, err := New(700).Prepare(src, "a.bin", 5000, "")
		require.NoError(t, err)

		r := resp.Body.Reader(context.Background())
		buf := make([]byte, 10)
		_, err = r.Read(buf)
		require.NoError(t, err)
		require.NoError(t, r.Close())

		assert.Equal(t, 1, src.closed)
		assert.Equal(t, 700, src.readBytes)
	})

	t.Run("close without reading releases source", func(t *testing.T) {
		src := newSource(data)
		resp, err := New(700).Prepare(src, "a.bin", 5000, "")
		require.NoError(t, err)

		require.NoError(t, resp.Body.Reader(context.Background()).Close())
		assert.Equal(t, 1, src.closed)
		assert.Equal(t, 0, src.readBytes)
	})
}

func TestContentType(t *testing.T) {
	assert.Equal(t, "video/mp4", ContentType("x.MP4"))
	assert.Equal(t, "video/x-matroska", ContentType("x.mkv"))
	assert.Equal(t, "application/octet-stream", ContentType("noext"))
	assert.Equal(t, "application/octet-stream", ContentType("x.zzzunknown"))
	assert.True(t, IsVideo("a.webm"))
	assert.False(t, IsVideo("a.pdf"))
}
