package monitoring

import (
	"context"
	"errors"
	"time"

	"github.com/hengadev/exprjson/internal/exprerr"
)

// Operation names reported to hooks.
const (
	OperationEncode      = "encode"
	OperationDecode      = "decode"
	OperationEncodeValue = "encode_value"
	OperationDecodeValue = "decode_value"
	OperationValidate    = "validate"
)

// Metric names emitted by MetricsObservabilityHook.
const (
	MetricProcessStarted   = "exprjson.process.started"
	MetricProcessSucceeded = "exprjson.process.succeeded"
	MetricProcessFailed    = "exprjson.process.failed"
	MetricProcessDuration  = "exprjson.process.duration"
	MetricErrors           = "exprjson.errors"
	MetricDocumentBytes    = "exprjson.document.bytes"
	MetricDocumentSize     = "exprjson.document.size"
)

// ObservabilityHook receives the lifecycle of every codec operation.
type ObservabilityHook interface {
	// Called before processing starts
	OnProcessStart(ctx context.Context, operation string, metadata map[string]any)

	// Called after processing completes (success or failure)
	OnProcessComplete(ctx context.Context, operation string, duration time.Duration, err error, metadata map[string]any)

	// Called when errors occur
	OnError(ctx context.Context, operation string, err error, metadata map[string]any)

	// Called once the document text of an operation is known
	OnDocument(ctx context.Context, operation string, size int, metadata map[string]any)
}

// ErrorFamily classifies err as "structural", "semantic" or "other".
func ErrorFamily(err error) string {
	switch {
	case errors.Is(err, exprerr.ErrStructural):
		return "structural"
	case errors.Is(err, exprerr.ErrSemantic):
		return "semantic"
	default:
		return "other"
	}
}

// NoOpObservabilityHook is a no-op implementation of ObservabilityHook
type NoOpObservabilityHook struct{}

func (n *NoOpObservabilityHook) OnProcessStart(ctx context.Context, operation string, metadata map[string]any) {
}
func (n *NoOpObservabilityHook) OnProcessComplete(ctx context.Context, operation string, duration time.Duration, err error, metadata map[string]any) {
}
func (n *NoOpObservabilityHook) OnError(ctx context.Context, operation string, err error, metadata map[string]any) {
}
func (n *NoOpObservabilityHook) OnDocument(ctx context.Context, operation string, size int, metadata map[string]any) {
}

// Logger is the printf-style surface the logging hook writes to.
type Logger interface {
	Info(msg string, args ...any)
	Error(msg string, args ...any)
	Debug(msg string, args ...any)
}

// LoggingObservabilityHook logs all operations
type LoggingObservabilityHook struct {
	logger Logger
}

// NewLoggingObservabilityHook falls back to a production StructuredLogger
// when logger is nil.
func NewLoggingObservabilityHook(logger Logger) *LoggingObservabilityHook {
	if logger == nil {
		logger = NewProductionLogger("codec")
	}
	return &LoggingObservabilityHook{
		logger: logger,
	}
}

func (l *LoggingObservabilityHook) OnProcessStart(ctx context.Context, operation string, metadata map[string]any) {
	l.logger.Debug("%s started, metadata: %v", operation, metadata)
}

func (l *LoggingObservabilityHook) OnProcessComplete(ctx context.Context, operation string, duration time.Duration, err error, metadata map[string]any) {
	if err != nil {
		l.logger.Error("%s failed after %v: %v", operation, duration, err)
		return
	}
	l.logger.Info("%s completed in %v, metadata: %v", operation, duration, metadata)
}

func (l *LoggingObservabilityHook) OnError(ctx context.Context, operation string, err error, metadata map[string]any) {
	l.logger.Error("%s %s error: %v", operation, ErrorFamily(err), err)
}

func (l *LoggingObservabilityHook) OnDocument(ctx context.Context, operation string, size int, metadata map[string]any) {
	l.logger.Debug("%s document of %d bytes", operation, size)
}

// MetricsObservabilityHook collects metrics for operations
type MetricsObservabilityHook struct {
	collector MetricsCollector
}

func NewMetricsObservabilityHook(collector MetricsCollector) *MetricsObservabilityHook {
	if collector == nil {
		collector = &NoOpMetricsCollector{}
	}
	return &MetricsObservabilityHook{
		collector: collector,
	}
}

func (m *MetricsObservabilityHook) OnProcessStart(ctx context.Context, operation string, metadata map[string]any) {
	m.collector.IncrementCounter(MetricProcessStarted, map[string]string{"operation": operation})
}

func (m *MetricsObservabilityHook) OnProcessComplete(ctx context.Context, operation string, duration time.Duration, err error, metadata map[string]any) {
	tags := map[string]string{"operation": operation, "status": "success"}
	name := MetricProcessSucceeded
	if err != nil {
		tags["status"] = "error"
		name = MetricProcessFailed
	}
	m.collector.IncrementCounter(name, tags)
	m.collector.RecordTiming(MetricProcessDuration, duration, tags)
}

func (m *MetricsObservabilityHook) OnError(ctx context.Context, operation string, err error, metadata map[string]any) {
	m.collector.IncrementCounter(MetricErrors, map[string]string{
		"operation": operation,
		"family":    ErrorFamily(err),
	})
}

func (m *MetricsObservabilityHook) OnDocument(ctx context.Context, operation string, size int, metadata map[string]any) {
	tags := map[string]string{"operation": operation}
	m.collector.IncrementCounterBy(MetricDocumentBytes, int64(size), tags)
	m.collector.RecordValue(MetricDocumentSize, float64(size), tags)
}

// CompositeObservabilityHook fans every event out to its hooks in order.
type CompositeObservabilityHook struct {
	hooks []ObservabilityHook
}

func NewCompositeObservabilityHook(hooks ...ObservabilityHook) *CompositeObservabilityHook {
	return &CompositeObservabilityHook{
		hooks: hooks,
	}
}

func (c *CompositeObservabilityHook) OnProcessStart(ctx context.Context, operation string, metadata map[string]any) {
	for _, hook := range c.hooks {
		hook.OnProcessStart(ctx, operation, metadata)
	}
}

func (c *CompositeObservabilityHook) OnProcessComplete(ctx context.Context, operation string, duration time.Duration, err error, metadata map[string]any) {
	for _, hook := range c.hooks {
		hook.OnProcessComplete(ctx, operation, duration, err, metadata)
	}
}

func (c *CompositeObservabilityHook) OnError(ctx context.Context, operation string, err error, metadata map[string]any) {
	for _, hook := range c.hooks {
		hook.OnError(ctx, operation, err, metadata)
	}
}

func (c *CompositeObservabilityHook) OnDocument(ctx context.Context, operation string, size int, metadata map[string]any) {
	for _, hook := range c.hooks {
		hook.OnDocument(ctx, operation, size, metadata)
	}
}
