package exprjson

import (
	"io"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/hengadev/exprjson/internal/monitoring"
)

type (
	MetricsCollector  = monitoring.MetricsCollector
	ObservabilityHook = monitoring.ObservabilityHook

	NoOpMetricsCollector       = monitoring.NoOpMetricsCollector
	NoOpObservabilityHook      = monitoring.NoOpObservabilityHook
	InMemoryMetricsCollector   = monitoring.InMemoryMetricsCollector
	PrometheusMetricsCollector = monitoring.PrometheusMetricsCollector
	StructuredLogger           = monitoring.StructuredLogger
)

// Operation names reported to hooks.
const (
	OperationEncode      = monitoring.OperationEncode
	OperationDecode      = monitoring.OperationDecode
	OperationEncodeValue = monitoring.OperationEncodeValue
	OperationDecodeValue = monitoring.OperationDecodeValue
)

// NewInMemoryMetricsCollector keeps every observation in memory.
func NewInMemoryMetricsCollector() *InMemoryMetricsCollector {
	return monitoring.NewInMemoryMetricsCollector()
}

// NewPrometheusMetricsCollector registers codec metrics into reg, or into a
// fresh registry when reg is nil.
func NewPrometheusMetricsCollector(reg *prometheus.Registry) *PrometheusMetricsCollector {
	return monitoring.NewPrometheusMetricsCollector(reg)
}

// NewLoggingObservabilityHook logs every operation to logger, or to a
// production logger when logger is nil.
func NewLoggingObservabilityHook(logger *StructuredLogger) ObservabilityHook {
	if logger == nil {
		return monitoring.NewLoggingObservabilityHook(nil)
	}
	return monitoring.NewLoggingObservabilityHook(logger)
}

// NewProductionLogger reads EXPRJSON_LOG_LEVEL and EXPRJSON_LOG_FORMAT.
func NewProductionLogger(component string) *StructuredLogger {
	return monitoring.NewProductionLogger(component)
}

// NewDiscardLogger drops everything; stores and tests use it to stay quiet.
func NewDiscardLogger() *StructuredLogger {
	return monitoring.NewStructuredLogger(monitoring.LoggerConfig{
		Level:  monitoring.LevelError,
		Output: io.Discard,
	})
}
