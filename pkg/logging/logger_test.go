package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBufferedLogger(level LogLevel) (*Logger, *bytes.Buffer) {
	buf := &bytes.Buffer{}
	cfg := DefaultConfig("scheduler-test")
	cfg.Level = level
	cfg.Format = "json"
	cfg.Output = buf
	return New(cfg), buf
}

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	return entry
}

func TestParseLevel(t *testing.T) {
	tests := map[string]LogLevel{
		"DEBUG":   LevelDebug,
		"warning": LevelWarn,
		" error ": LevelError,
		"info":    LevelInfo,
		"verbose": LevelInfo,
		"":        LevelInfo,
	}
	for in, want := range tests {
		assert.Equal(t, want, ParseLevel(in), in)
	}
}

func TestLogger_BaseAttributes(t *testing.T) {
	logger, buf := newBufferedLogger(LevelInfo)

	logger.Info("hello")

	entry := decodeLine(t, buf)
	assert.Equal(t, "scheduler-test", entry["service"])
	assert.Equal(t, "hello", entry["msg"])
	assert.Equal(t, "scheduler-test", logger.ServiceName())
}

func TestLogger_LevelFiltering(t *testing.T) {
	logger, buf := newBufferedLogger(LevelWarn)

	logger.Info("dropped")
	assert.Zero(t, buf.Len())

	logger.Warn("kept")
	assert.NotZero(t, buf.Len())
}

func TestLogger_TextFormat(t *testing.T) {
	buf := &bytes.Buffer{}
	cfg := DefaultConfig("scheduler-test")
	cfg.Format = "text"
	cfg.Output = buf

	New(cfg).Info("plain")

	assert.Contains(t, buf.String(), "msg=plain")
	assert.Contains(t, buf.String(), "service=scheduler-test")
}

func TestLogger_WithErrorAndContext(t *testing.T) {
	logger, buf := newBufferedLogger(LevelInfo)

	ctx := ContextWithUserID(ContextWithRequestID(context.Background(), "req-1"), "user-9")
	logger.WithContext(ctx).WithError(errors.New("boom")).Error("failed")

	entry := decodeLine(t, buf)
	assert.Equal(t, "boom", entry["error"])
	assert.Equal(t, "req-1", entry["requestId"])
	assert.Equal(t, "user-9", entry["userId"])
	assert.NotContains(t, entry, "correlationId")
}

func TestLogger_WithContextWithoutFields(t *testing.T) {
	logger, _ := newBufferedLogger(LevelInfo)
	assert.Same(t, logger, logger.WithContext(context.Background()))
	assert.Same(t, logger, logger.WithError(nil))
}

func TestLogger_Audit(t *testing.T) {
	logger, buf := newBufferedLogger(LevelInfo)

	logger.Audit(context.Background(), AuditRecord{
		Action:     "RELEASE",
		Resource:   "wave",
		ResourceID: "WAVE-1",
		UserID:     "user-1",
		Details:    map[string]any{"tasks": 4},
	})

	entry := decodeLine(t, buf)
	assert.Equal(t, "Audit event", entry["msg"])

	audit, ok := entry["audit"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "RELEASE", audit["action"])
	assert.Equal(t, "WAVE-1", audit["resourceId"])
	assert.EqualValues(t, 4, audit["details"].(map[string]any)["tasks"])
}

func TestLogger_PublishedFailureIsError(t *testing.T) {
	logger, buf := newBufferedLogger(LevelInfo)

	logger.Published(context.Background(), "wms.waves.events", "wms.wave.released", nil, time.Millisecond)
	assert.Zero(t, buf.Len())

	logger.Published(context.Background(), "wms.waves.events", "wms.wave.released", errors.New("broker down"), 3*time.Millisecond)
	entry := decodeLine(t, buf)
	assert.Equal(t, "ERROR", entry["level"])
	assert.Equal(t, "broker down", entry["error"])
	assert.EqualValues(t, 3, entry["durationMs"])
}
