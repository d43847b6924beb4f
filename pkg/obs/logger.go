package obs

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"go.opentelemetry.io/otel/trace"
)

type contextKey string

const (
	positionKey  contextKey = "position"
	partitionKey contextKey = "partition_id"
	valueTypeKey contextKey = "value_type"

	StatusOK       = "ok"
	StatusError    = "error"
	StatusRetrying = "retrying"
	StatusSkipped  = "skipped"
)

// Logger is a slog.Logger that picks up trace and record correlation
// attributes from the context of every call.
type Logger struct {
	*slog.Logger
}

func NewLogger(config Config) *Logger {
	level := parseLogLevel(config.LogLevel)

	opts := &slog.HandlerOptions{
		Level:     level,
		AddSource: level == slog.LevelDebug,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey {
				return slog.String(slog.TimeKey, a.Value.Time().Format(time.RFC3339Nano))
			}
			return a
		},
	}

	var out io.Writer = os.Stdout
	if config.LogOutput != nil {
		out = config.LogOutput
	}

	var handler slog.Handler
	if config.LogPretty {
		handler = slog.NewTextHandler(out, opts)
	} else {
		handler = slog.NewJSONHandler(out, opts)
	}

	hostname, _ := os.Hostname()

	return &Logger{
		Logger: slog.New(handler).With(
			"service", config.ServiceName,
			"version", config.ServiceVersion,
			"env", config.Environment,
			"hostname", hostname,
			"git_sha", gitSHA(),
		),
	}
}

// NopLogger discards everything.
func NopLogger() *Logger {
	return &Logger{Logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func gitSHA() string {
	if sha := os.Getenv("GIT_SHA"); sha != "" {
		return sha
	}
	if sha := os.Getenv("COMMIT_SHA"); sha != "" {
		return sha
	}
	return "unknown"
}

// WithRecord attaches the coordinates of the record being handled so every
// log line written with the returned context carries them.
func WithRecord(ctx context.Context, position int64, partitionID int32, valueType string) context.Context {
	ctx = context.WithValue(ctx, positionKey, position)
	ctx = context.WithValue(ctx, partitionKey, partitionID)
	if valueType != "" {
		ctx = context.WithValue(ctx, valueTypeKey, valueType)
	}
	return ctx
}

func correlationAttrs(ctx context.Context) []any {
	var attrs []any
	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		attrs = append(attrs, "trace_id", sc.TraceID().String(), "span_id", sc.SpanID().String())
	}
	if position, ok := ctx.Value(positionKey).(int64); ok {
		attrs = append(attrs, "position", position)
	}
	if partitionID, ok := ctx.Value(partitionKey).(int32); ok {
		attrs = append(attrs, "partition_id", partitionID)
	}
	if valueType, ok := ctx.Value(valueTypeKey).(string); ok {
		attrs = append(attrs, "value_type", valueType)
	}
	return attrs
}

func (l *Logger) Log(ctx context.Context, level slog.Level, msg string, attrs ...any) {
	if ctx == nil {
		ctx = context.Background()
	}
	if extra := correlationAttrs(ctx); len(extra) > 0 {
		attrs = append(extra, attrs...)
	}
	l.Logger.Log(ctx, level, msg, attrs...)
}

func (l *Logger) Debug(ctx context.Context, msg string, attrs ...any) {
	l.Log(ctx, slog.LevelDebug, msg, attrs...)
}

func (l *Logger) Info(ctx context.Context, msg string, attrs ...any) {
	l.Log(ctx, slog.LevelInfo, msg, attrs...)
}

func (l *Logger) Warn(ctx context.Context, msg string, attrs ...any) {
	l.Log(ctx, slog.LevelWarn, msg, attrs...)
}

func (l *Logger) Error(ctx context.Context, msg string, err error, attrs ...any) {
	if err != nil {
		attrs = append(attrs, "error", err.Error())
	}
	l.Log(ctx, slog.LevelError, msg, attrs...)
}

func (l *Logger) Event(ctx context.Context, event, status string, attrs ...any) {
	attrs = append([]any{"event", event, "status", status}, attrs...)
	l.Info(ctx, event, attrs...)
}

func (l *Logger) EventWithLatency(ctx context.Context, event, status string, latency time.Duration, attrs ...any) {
	attrs = append([]any{
		"event", event,
		"status", status,
		"latency_ms", latency.Milliseconds(),
	}, attrs...)
	l.Info(ctx, event, attrs...)
}

func StartTimer() func() time.Duration {
	start := time.Now()
	return func() time.Duration {
		return time.Since(start)
	}
}
