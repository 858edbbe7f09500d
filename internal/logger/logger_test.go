package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parseLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry), "log output should be valid JSON")
	return entry
}

func TestNewWithWriterJSONKeys(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter("info", &buf)
	log.Info("hello")

	entry := parseLine(t, &buf)
	assert.Equal(t, "hello", entry["message"])
	assert.Equal(t, "info", entry["level"])
	assert.Contains(t, entry, "timestamp")
}

func TestWarnLevelRenamed(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter("debug", &buf)
	log.Warn("careful")

	entry := parseLine(t, &buf)
	assert.Equal(t, "warning", entry["level"])
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter("warn", &buf)
	log.Info("dropped")
	assert.Zero(t, buf.Len())

	log.Error("kept")
	assert.NotZero(t, buf.Len())
}

func TestWithModuleAndSession(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter("info", &buf)
	log.WithModule("agent").WithSessionID("abc-123").Info("turn started")

	entry := parseLine(t, &buf)
	assert.Equal(t, "agent", entry["module"])
	assert.Equal(t, "abc-123", entry["session_id"])
}

func TestWithFields(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter("info", &buf)
	log.WithFields(map[string]any{"step": 3, "tool": "get_curriculum"}).Info("tool call")

	entry := parseLine(t, &buf)
	assert.Equal(t, float64(3), entry["step"])
	assert.Equal(t, "get_curriculum", entry["tool"])
}

func TestNewWithBetterstackEmptyToken(t *testing.T) {
	log := NewWithBetterstack("info", "", "")
	require.NotNil(t, log)
	log.Info("stdout only")
}

func TestMultiHandlerFanout(t *testing.T) {
	var a, b bytes.Buffer
	ha := slog.NewJSONHandler(&a, nil)
	hb := slog.NewJSONHandler(&b, nil)

	log := slog.New(NewMultiHandler(ha, hb))
	log.Info("both")

	assert.NotZero(t, a.Len())
	assert.NotZero(t, b.Len())
}

func TestMultiHandlerSkipsNil(t *testing.T) {
	var buf bytes.Buffer
	h := NewMultiHandler(slog.NewJSONHandler(&buf, nil), nil)

	require.True(t, h.Enabled(context.Background(), slog.LevelInfo))
	slog.New(h).Info("ok")
	assert.NotZero(t, buf.Len())
}
