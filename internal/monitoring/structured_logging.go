package monitoring

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"runtime/debug"
	"strings"
	"time"
)

// LogLevel represents the severity level of a log message
type LogLevel int

const (
	LevelDebug LogLevel = iota
	LevelInfo
	LevelWarn
	LevelError
	LevelFatal
)

const levelFatal = slog.LevelError + 4

func (l LogLevel) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	case LevelFatal:
		return "FATAL"
	default:
		return "UNKNOWN"
	}
}

func (l LogLevel) slogLevel() slog.Level {
	switch l {
	case LevelDebug:
		return slog.LevelDebug
	case LevelWarn:
		return slog.LevelWarn
	case LevelError:
		return slog.LevelError
	case LevelFatal:
		return levelFatal
	default:
		return slog.LevelInfo
	}
}

// ParseLogLevel accepts debug, info, warn and error in any case.
func ParseLogLevel(s string) (LogLevel, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug, nil
	case "info", "":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	default:
		return LevelInfo, fmt.Errorf("unknown log level %q", s)
	}
}

// LogFormat represents the output format for logs
type LogFormat int

const (
	FormatJSON LogFormat = iota
	FormatText
	FormatConsole
)

// ParseLogFormat accepts json, text and console in any case.
func ParseLogFormat(s string) (LogFormat, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "json", "":
		return FormatJSON, nil
	case "text":
		return FormatText, nil
	case "console":
		return FormatConsole, nil
	default:
		return FormatJSON, fmt.Errorf("unknown log format %q", s)
	}
}

// ContextKey names the context values WithContext copies into log fields.
type ContextKey string

const (
	TraceIDKey     ContextKey = "trace_id"
	RequestIDKey   ContextKey = "request_id"
	DocumentKeyKey ContextKey = "document_key"
)

var contextKeys = []ContextKey{TraceIDKey, RequestIDKey, DocumentKeyKey}

// StructuredLogger wraps slog with fixed fields and printf-style messages.
type StructuredLogger struct {
	logger    *slog.Logger
	level     LogLevel
	fields    map[string]any
	component string
}

type LoggerConfig struct {
	Level     LogLevel
	Format    LogFormat
	Output    io.Writer
	Component string
	Fields    map[string]any
}

func NewStructuredLogger(config LoggerConfig) *StructuredLogger {
	if config.Output == nil {
		config.Output = os.Stderr
	}
	fields := make(map[string]any, len(config.Fields)+3)
	for k, v := range config.Fields {
		fields[k] = v
	}

	opts := &slog.HandlerOptions{
		Level:     config.Level.slogLevel(),
		AddSource: config.Level == LevelDebug,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey {
				a.Value = slog.StringValue(a.Value.Time().Format(time.RFC3339Nano))
			}
			return a
		},
	}

	var handler slog.Handler
	switch config.Format {
	case FormatText:
		handler = slog.NewTextHandler(config.Output, opts)
	case FormatConsole:
		handler = NewConsoleHandler(config.Output, opts)
	default:
		handler = slog.NewJSONHandler(config.Output, opts)
	}

	if config.Component != "" {
		fields["component"] = config.Component
	}
	fields["service"] = "exprjson"
	fields["version"] = buildVersion()

	return &StructuredLogger{
		logger:    slog.New(handler),
		level:     config.Level,
		fields:    fields,
		component: config.Component,
	}
}

// buildVersion reports the main module version from the build info.
func buildVersion() string {
	info, ok := debug.ReadBuildInfo()
	if !ok || info.Main.Version == "" {
		return "devel"
	}
	return info.Main.Version
}

// WithFields returns a new logger with additional fields
func (l *StructuredLogger) WithFields(fields map[string]any) *StructuredLogger {
	merged := make(map[string]any, len(l.fields)+len(fields))
	for k, v := range l.fields {
		merged[k] = v
	}
	for k, v := range fields {
		merged[k] = v
	}
	return &StructuredLogger{
		logger:    l.logger,
		level:     l.level,
		fields:    merged,
		component: l.component,
	}
}

// WithContext copies the known context values into the log fields.
func (l *StructuredLogger) WithContext(ctx context.Context) *StructuredLogger {
	fields := make(map[string]any)
	for _, key := range contextKeys {
		if v := ctx.Value(key); v != nil {
			fields[string(key)] = v
		}
	}
	if len(fields) == 0 {
		return l
	}
	return l.WithFields(fields)
}

func (l *StructuredLogger) Debug(msg string, args ...any) {
	l.log(context.Background(), LevelDebug, msg, args...)
}

func (l *StructuredLogger) Info(msg string, args ...any) {
	l.log(context.Background(), LevelInfo, msg, args...)
}

func (l *StructuredLogger) Warn(msg string, args ...any) {
	l.log(context.Background(), LevelWarn, msg, args...)
}

func (l *StructuredLogger) Error(msg string, args ...any) {
	l.log(context.Background(), LevelError, msg, args...)
}

// Fatal logs a fatal level message and exits
func (l *StructuredLogger) Fatal(msg string, args ...any) {
	l.log(context.Background(), LevelFatal, msg, args...)
	os.Exit(1)
}

func (l *StructuredLogger) log(ctx context.Context, level LogLevel, msg string, args ...any) {
	if level < l.level {
		return
	}
	attrs := make([]any, 0, 2*len(l.fields)+2)
	for k, v := range l.fields {
		attrs = append(attrs, k, v)
	}
	if level >= LevelError {
		if _, file, line, ok := runtime.Caller(2); ok {
			attrs = append(attrs, "caller", fmt.Sprintf("%s:%d", filepath.Base(file), line))
		}
	}
	if len(args) > 0 {
		msg = fmt.Sprintf(msg, args...)
	}
	l.logger.With(attrs...).Log(ctx, level.slogLevel(), msg)
}

// LogCodecOperation logs one finished encode or decode.
func (l *StructuredLogger) LogCodecOperation(ctx context.Context, operation string, duration time.Duration, err error, metadata map[string]any) {
	fields := map[string]any{
		"operation":   operation,
		"duration":    duration.String(),
		"duration_ms": duration.Milliseconds(),
	}
	for k, v := range metadata {
		fields[k] = v
	}
	if err != nil {
		fields["error"] = err.Error()
		fields["error_family"] = ErrorFamily(err)
		l.WithContext(ctx).WithFields(fields).Error("codec operation failed")
		return
	}
	l.WithContext(ctx).WithFields(fields).Info("codec operation completed")
}

// LogStoreOperation logs a document store read or write.
func (l *StructuredLogger) LogStoreOperation(ctx context.Context, operation, store, key string, size int, err error) {
	logger := l.WithContext(ctx).WithFields(map[string]any{
		"operation": operation,
		"store":     store,
		"key":       key,
		"bytes":     size,
	})
	if err != nil {
		logger.WithFields(map[string]any{"error": err.Error()}).Error("store operation failed")
		return
	}
	logger.Debug("store operation completed")
}

// ConsoleHandler provides colorized console output
type ConsoleHandler struct {
	handler slog.Handler
	output  io.Writer
	attrs   []slog.Attr
}

func NewConsoleHandler(output io.Writer, opts *slog.HandlerOptions) *ConsoleHandler {
	return &ConsoleHandler{
		handler: slog.NewTextHandler(output, opts),
		output:  output,
	}
}

func (h *ConsoleHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.handler.Enabled(ctx, level)
}

func (h *ConsoleHandler) Handle(ctx context.Context, record slog.Record) error {
	var levelStr string
	switch {
	case record.Level >= levelFatal:
		levelStr = "\033[35mFATAL\033[0m"
	case record.Level >= slog.LevelError:
		levelStr = "\033[31mERROR\033[0m"
	case record.Level >= slog.LevelWarn:
		levelStr = "\033[33mWARN\033[0m"
	case record.Level >= slog.LevelInfo:
		levelStr = "\033[32mINFO\033[0m"
	default:
		levelStr = "\033[36mDEBUG\033[0m"
	}

	fmt.Fprintf(h.output, "%s [%s] %s", record.Time.Format("15:04:05.000"), levelStr, record.Message)
	for _, a := range h.attrs {
		fmt.Fprintf(h.output, " %s=%s", a.Key, a.Value)
	}
	record.Attrs(func(a slog.Attr) bool {
		if a.Key != slog.TimeKey && a.Key != slog.LevelKey {
			fmt.Fprintf(h.output, " %s=%s", a.Key, a.Value)
		}
		return true
	})
	fmt.Fprintln(h.output)
	return nil
}

func (h *ConsoleHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &ConsoleHandler{
		handler: h.handler.WithAttrs(attrs),
		output:  h.output,
		attrs:   append(append([]slog.Attr(nil), h.attrs...), attrs...),
	}
}

func (h *ConsoleHandler) WithGroup(name string) slog.Handler {
	return &ConsoleHandler{
		handler: h.handler.WithGroup(name),
		output:  h.output,
		attrs:   h.attrs,
	}
}

// NewProductionLogger reads EXPRJSON_LOG_LEVEL and EXPRJSON_LOG_FORMAT and
// falls back to info level JSON.
func NewProductionLogger(component string) *StructuredLogger {
	level, err := ParseLogLevel(os.Getenv("EXPRJSON_LOG_LEVEL"))
	if err != nil {
		level = LevelInfo
	}
	format, err := ParseLogFormat(os.Getenv("EXPRJSON_LOG_FORMAT"))
	if err != nil {
		format = FormatJSON
	}
	return NewStructuredLogger(LoggerConfig{
		Level:     level,
		Format:    format,
		Component: component,
		Fields: map[string]any{
			"pid": os.Getpid(),
		},
	})
}

// NewDevelopmentLogger logs everything to the console.
func NewDevelopmentLogger(component string) *StructuredLogger {
	return NewStructuredLogger(LoggerConfig{
		Level:     LevelDebug,
		Format:    FormatConsole,
		Component: component,
	})
}
