package common

import (
	"context"
	"encoding/json"
	"io"
	"os"
	"sync"
	"time"
)

// RunLogger records events scoped to a single planning run
type RunLogger interface {
	Log(level, message string, metadata map[string]interface{})
}

// Context keys for passing logger through context
type contextKey int

const (
	loggerKey contextKey = iota
)

// WithLogger adds a logger to the context
func WithLogger(ctx context.Context, logger RunLogger) context.Context {
	return context.WithValue(ctx, loggerKey, logger)
}

// LoggerFromContext extracts the logger from context, or returns a no-op logger if not found
func LoggerFromContext(ctx context.Context) RunLogger {
	if logger, ok := ctx.Value(loggerKey).(RunLogger); ok {
		return logger
	}
	return &noOpLogger{}
}

// noOpLogger is a logger that does nothing (fallback when no logger in context)
type noOpLogger struct{}

func (l *noOpLogger) Log(level, message string, metadata map[string]interface{}) {
	// Do nothing
}

// Log levels in ascending severity
const (
	LevelDebug = "debug"
	LevelInfo  = "info"
	LevelWarn  = "warn"
	LevelError = "error"
)

var levelRank = map[string]int{
	LevelDebug: 0,
	LevelInfo:  1,
	LevelWarn:  2,
	LevelError: 3,
}

// JSONLineLogger writes one JSON object per event. Unknown levels log as info.
type JSONLineLogger struct {
	mu       sync.Mutex
	out      io.Writer
	minLevel int
	now      func() time.Time
}

// NewJSONLineLogger creates a logger writing to out, dropping events below
// minLevel. A nil out defaults to stdout.
func NewJSONLineLogger(out io.Writer, minLevel string) *JSONLineLogger {
	if out == nil {
		out = os.Stdout
	}
	rank, ok := levelRank[minLevel]
	if !ok {
		rank = levelRank[LevelInfo]
	}
	return &JSONLineLogger{out: out, minLevel: rank, now: time.Now}
}

func (l *JSONLineLogger) Log(level, message string, metadata map[string]interface{}) {
	rank, ok := levelRank[level]
	if !ok {
		level, rank = LevelInfo, levelRank[LevelInfo]
	}
	if rank < l.minLevel {
		return
	}

	event := make(map[string]interface{}, len(metadata)+3)
	for k, v := range metadata {
		event[k] = v
	}
	event["time"] = l.now().UTC().Format(time.RFC3339)
	event["level"] = level
	event["message"] = message

	line, err := json.Marshal(event)
	if err != nil {
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.out.Write(append(line, '\n'))
}
