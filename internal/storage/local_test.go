package storage

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidKey(t *testing.T) {
	assert.True(t, ValidKey("clip_0123.mp4"))
	for _, k := range []string{"", "../x", "a/b", `a\b`, ".hidden", "..", "a\x00b", strings.Repeat("x", 256)} {
		assert.False(t, ValidKey(k), k)
	}
}

func TestLocalStorage_PutOpenStat(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	st, err := NewLocal(dir)
	require.NoError(t, err)

	info, err := st.Put(ctx, "a.txt", strings.NewReader("hello world"), PutObjectOptions{Size: 11, ContentType: "text/plain"})
	require.NoError(t, err)
	assert.Equal(t, int64(11), info.Size)
	assert.Equal(t, "text/plain", info.ContentType)

	rc, oi, err := st.Open(ctx, "a.txt")
	require.NoError(t, err)
	defer rc.Close()
	assert.Equal(t, int64(11), oi.Size)

	_, err = rc.Seek(6, io.SeekStart)
	require.NoError(t, err)
	b, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "world", string(b))

	si, err := st.Stat(ctx, "a.txt")
	require.NoError(t, err)
	assert.Equal(t, int64(11), si.Size)

	require.NoError(t, st.Ping(ctx))
}

func TestLocalStorage_FailedPutLeavesNothing(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	st, err := NewLocal(dir)
	require.NoError(t, err)

	_, err = st.Put(ctx, "broken.bin", io.MultiReader(strings.NewReader("partial"), errReader{}), PutObjectOptions{Size: -1})
	require.Error(t, err)

	_, err = st.Put(ctx, "short.bin", strings.NewReader("abc"), PutObjectOptions{Size: 10})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "size mismatch")

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestLocalStorage_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	st, err := NewLocal(t.TempDir())
	require.NoError(t, err)

	_, err = st.Put(ctx, "x.bin", strings.NewReader("x"), PutObjectOptions{Size: -1})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestLocalStorage_NotFoundAndInvalidKeys(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	st, err := NewLocal(dir)
	require.NoError(t, err)

	_, _, err = st.Open(ctx, "missing.mp4")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = st.Stat(ctx, "missing.mp4")
	assert.ErrorIs(t, err, ErrNotFound)

	_, _, err = st.Open(ctx, "../secret")
	assert.ErrorIs(t, err, ErrInvalidKey)

	_, err = st.Put(ctx, "a/b", strings.NewReader("x"), PutObjectOptions{Size: 1})
	assert.ErrorIs(t, err, ErrInvalidKey)

	require.NoError(t, os.Mkdir(filepath.Join(dir, "subdir"), 0o755))
	_, err = st.Stat(ctx, "subdir")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLocalStorage_Delete(t *testing.T) {
	ctx := context.Background()
	st, err := NewLocal(t.TempDir())
	require.NoError(t, err)

	_, err = st.Put(ctx, "del.txt", strings.NewReader("x"), PutObjectOptions{Size: 1})
	require.NoError(t, err)

	require.NoError(t, st.Delete(ctx, "del.txt"))
	require.NoError(t, st.Delete(ctx, "del.txt"))

	_, err = st.Stat(ctx, "del.txt")
	assert.True(t, errors.Is(err, ErrNotFound))
}

type errReader struct{}

func (errReader) Read([]byte) (int, error) { return 0, errors.New("read failed") }

func TestLocalStorage_ExclusivePut(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	st, err := NewLocal(dir)
	require.NoError(t, err)

	_, err = st.Put(ctx, "clip.mp4", strings.NewReader("first"), PutObjectOptions{Size: 5, Exclusive: true})
	require.NoError(t, err)

	_, err = st.Put(ctx, "clip.mp4", strings.NewReader("second"), PutObjectOptions{Size: 6, Exclusive: true})
	assert.ErrorIs(t, err, ErrExists)

	got, err := os.ReadFile(filepath.Join(dir, "clip.mp4"))
	require.NoError(t, err)
	assert.Equal(t, "first", string(got))

	// no temp files are left behind by the refused write
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)

	// a plain Put still replaces
	_, err = st.Put(ctx, "clip.mp4", strings.NewReader("third"), PutObjectOptions{Size: 5})
	require.NoError(t, err)
	got, err = os.ReadFile(filepath.Join(dir, "clip.mp4"))
	require.NoError(t, err)
	assert.Equal(t, "third", string(got))
}
