package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoggerWritesJSONLines(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, time.UTC)

	l.Info("chunk_stored", map[string]any{"session": "abc", "index": 3})
	l.Error("merge_failed", errors.New("disk full"), nil)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)

	var first map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &first))
	assert.Equal(t, "info", first["level"])
	assert.Equal(t, "chunk_stored", first["msg"])
	assert.Equal(t, "abc", first["session"])
	assert.Equal(t, float64(3), first["index"])
	assert.NotEmpty(t, first["ts"])

	var second map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &second))
	assert.Equal(t, "error", second["level"])
	assert.Equal(t, "disk full", second["error"])
}

func TestLoggerWith(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, nil).With(map[string]any{"component": "assembler"})

	l.Warn("cleanup_failed", map[string]any{"session": "s1"})

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "assembler", entry["component"])
	assert.Equal(t, "warn", entry["level"])
}

func TestLoggerTimestampLocation(t *testing.T) {
	loc := time.FixedZone("WIB", 7*60*60)
	var buf bytes.Buffer
	New(&buf, loc).Info("tick", nil)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	ts, err := time.Parse(time.RFC3339Nano, entry["ts"].(string))
	require.NoError(t, err)
	_, offset := ts.Zone()
	assert.Equal(t, 7*60*60, offset)
	assert.NotContains(t, entry, "time")
}

func TestLoggerErrorLeavesCallerFieldsAlone(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, time.UTC)

	fields := map[string]any{"filename": "a.mp4"}
	l.Error("merge_failed", errors.New("disk full"), fields)
	l.Info("merge_retry", fields)

	assert.Equal(t, map[string]any{"filename": "a.mp4"}, fields)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	var retry map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &retry))
	assert.NotContains(t, retry, "error")
}
