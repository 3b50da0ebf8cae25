package pieceset

import (
	"context"
	"log/slog"
	"os"
)

// Logger wraps slog.Logger with pieceset-specific context.
// This provides structured logging with consistent field names.
type Logger struct {
	*slog.Logger
}

// NewLogger creates a new Logger with the given handler.
// If handler is nil, uses default text handler to stderr.
func NewLogger(handler slog.Handler) *Logger {
	if handler == nil {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	}
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewJSONLogger creates a Logger that outputs JSON-formatted logs.
func NewJSONLogger(level slog.Level) *Logger {
	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewTextLogger creates a Logger that outputs human-readable text logs.
func NewTextLogger(level slog.Level) *Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NoopLogger creates a Logger that discards all log output.
func NoopLogger() *Logger {
	return &Logger{
		Logger: slog.New(slog.DiscardHandler),
	}
}

// WithName adds a checkpoint or peer name field to the logger.
func (l *Logger) WithName(name string) *Logger {
	return &Logger{
		Logger: l.Logger.With("name", name),
	}
}

// WithCap adds a set capacity field to the logger.
func (l *Logger) WithCap(capacity int) *Logger {
	return &Logger{
		Logger: l.Logger.With("cap", capacity),
	}
}

// LogSave logs a checkpoint save.
func (l *Logger) LogSave(ctx context.Context, name string, pieces, bytes int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "checkpoint save failed",
			"name", name,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "checkpoint saved",
			"name", name,
			"pieces", pieces,
			"bytes", bytes,
		)
	}
}

// LogLoad logs a checkpoint load.
func (l *Logger) LogLoad(ctx context.Context, name string, pieces int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "checkpoint load failed",
			"name", name,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "checkpoint loaded",
			"name", name,
			"pieces", pieces,
		)
	}
}

// LogLoadAll logs a batch load.
func (l *Logger) LogLoadAll(ctx context.Context, count int, err error) {
	if err != nil {
		l.WarnContext(ctx, "batch checkpoint load failed",
			"count", count,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "batch checkpoint load completed",
			"count", count,
		)
	}
}

// LogDelete logs a checkpoint delete.
func (l *Logger) LogDelete(ctx context.Context, name string, err error) {
	if err != nil {
		l.ErrorContext(ctx, "checkpoint delete failed",
			"name", name,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "checkpoint deleted",
			"name", name,
		)
	}
}

// LogPeerUpdate logs a change to a peer's advertised pieces.
func (l *Logger) LogPeerUpdate(ctx context.Context, peer string, pieces int, err error) {
	if err != nil {
		l.WarnContext(ctx, "rejected peer update",
			"peer", peer,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "peer updated",
			"peer", peer,
			"pieces", pieces,
		)
	}
}
