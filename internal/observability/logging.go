// Package observability provides structured logging for the client.
package observability

import (
	"context"
	"log/slog"
	"os"
)

// Logger wraps slog.Logger to provide specialized logging methods.
type Logger struct {
	*slog.Logger
}

// GlobalLogger is the default logger instance for the client.
var GlobalLogger *Logger

func init() {
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})
	GlobalLogger = &Logger{Logger: slog.New(handler)}
}

// OpLogger provides structured logging for remote operations issued by a
// single component (feed store, comment controller, composer).
type OpLogger struct {
	component string
	logger    *Logger
}

// NewOpLogger creates an OpLogger for the given component name.
func NewOpLogger(component string) *OpLogger {
	return &OpLogger{component: component, logger: GlobalLogger}
}

// LogStart logs the start of a remote operation.
func (l *OpLogger) LogStart(ctx context.Context, operation string, fields map[string]interface{}) {
	attrs := []any{
		slog.String("component", l.component),
		slog.String("operation", operation),
		slog.String("type", "op_start"),
	}
	for k, v := range fields {
		attrs = append(attrs, slog.Any(k, v))
	}
	l.logger.InfoContext(ctx, "operation started", attrs...)
}

// LogEnd logs the successful completion of a remote operation.
func (l *OpLogger) LogEnd(ctx context.Context, operation string, fields map[string]interface{}) {
	attrs := []any{
		slog.String("component", l.component),
		slog.String("operation", operation),
		slog.String("type", "op_end"),
	}
	for k, v := range fields {
		attrs = append(attrs, slog.Any(k, v))
	}
	l.logger.InfoContext(ctx, "operation completed", attrs...)
}

// LogError logs a failed remote operation.
func (l *OpLogger) LogError(ctx context.Context, operation string, err error, fields map[string]interface{}) {
	attrs := []any{
		slog.String("component", l.component),
		slog.String("operation", operation),
		slog.String("type", "op_error"),
		slog.String("error", err.Error()),
	}
	for k, v := range fields {
		attrs = append(attrs, slog.Any(k, v))
	}
	l.logger.ErrorContext(ctx, "operation failed", attrs...)
}

// LogStale logs a late response that was discarded because a newer request
// superseded it.
func (l *OpLogger) LogStale(ctx context.Context, operation string, fields map[string]interface{}) {
	attrs := []any{
		slog.String("component", l.component),
		slog.String("operation", operation),
		slog.String("type", "op_stale"),
	}
	for k, v := range fields {
		attrs = append(attrs, slog.Any(k, v))
	}
	l.logger.InfoContext(ctx, "stale response discarded", attrs...)
}
