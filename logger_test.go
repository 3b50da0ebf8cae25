package pieceset

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func newBufferLogger(buf *bytes.Buffer) *Logger {
	return NewLogger(slog.NewTextHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func TestLogger_Fields(t *testing.T) {
	var buf bytes.Buffer
	l := newBufferLogger(&buf).WithName("ubuntu.iso").WithCap(128)

	l.LogSave(context.Background(), "ubuntu.iso", 12, 40, nil)

	out := buf.String()
	assert.Contains(t, out, "checkpoint saved")
	assert.Contains(t, out, "name=ubuntu.iso")
	assert.Contains(t, out, "cap=128")
	assert.Contains(t, out, "pieces=12")
	assert.Contains(t, out, "bytes=40")
}

func TestLogger_Errors(t *testing.T) {
	var buf bytes.Buffer
	l := newBufferLogger(&buf)
	ctx := context.Background()
	boom := errors.New("boom")

	l.LogLoad(ctx, "a", 0, boom)
	l.LogLoadAll(ctx, 3, boom)
	l.LogDelete(ctx, "a", boom)
	l.LogPeerUpdate(ctx, "peer-1", 0, boom)

	out := buf.String()
	assert.Contains(t, out, "level=ERROR msg=\"checkpoint load failed\"")
	assert.Contains(t, out, "level=WARN msg=\"batch checkpoint load failed\"")
	assert.Contains(t, out, "level=ERROR msg=\"checkpoint delete failed\"")
	assert.Contains(t, out, "level=WARN msg=\"rejected peer update\"")
	assert.Contains(t, out, "error=boom")
}

func TestNoopLogger(t *testing.T) {
	l := NoopLogger()
	assert.False(t, l.Enabled(context.Background(), slog.LevelError))
	l.LogSave(context.Background(), "x", 1, 1, nil)
}
