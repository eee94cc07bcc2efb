package monitoring

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/hengadev/exprjson/internal/exprerr"
)

type mockLogger struct {
	mock.Mock
}

func (m *mockLogger) Info(msg string, args ...any)  { m.Called(fmt.Sprintf(msg, args...)) }
func (m *mockLogger) Error(msg string, args ...any) { m.Called(fmt.Sprintf(msg, args...)) }
func (m *mockLogger) Debug(msg string, args ...any) { m.Called(fmt.Sprintf(msg, args...)) }

func TestErrorFamily(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"structural", exprerr.NewUnknownLabelError("$.expression.loop", "loop", exprerr.Decode), "structural"},
		{"semantic", exprerr.NewUnknownTypeError("$.type", "Widget", exprerr.Decode), "semantic"},
		{"other", errors.New("disk full"), "other"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ErrorFamily(tt.err))
		})
	}
}

func TestMetricsObservabilityHook(t *testing.T) {
	collector := NewInMemoryMetricsCollector()
	hook := NewMetricsObservabilityHook(collector)
	ctx := context.Background()

	hook.OnProcessStart(ctx, OperationEncode, nil)
	hook.OnDocument(ctx, OperationEncode, 300, nil)
	hook.OnProcessComplete(ctx, OperationEncode, 5*time.Millisecond, nil, nil)

	failure := exprerr.NewMissingFieldError("$", "expression", exprerr.Decode)
	hook.OnProcessStart(ctx, OperationDecode, nil)
	hook.OnError(ctx, OperationDecode, failure, nil)
	hook.OnProcessComplete(ctx, OperationDecode, time.Millisecond, failure, nil)

	assert.Equal(t, int64(1), collector.GetCounter(MetricProcessStarted, map[string]string{"operation": OperationEncode}))
	assert.Equal(t, int64(1), collector.GetCounter(MetricProcessSucceeded, map[string]string{"operation": OperationEncode, "status": "success"}))
	assert.Equal(t, int64(300), collector.GetCounter(MetricDocumentBytes, map[string]string{"operation": OperationEncode}))
	assert.Equal(t, []float64{300}, collector.GetValues(MetricDocumentSize, map[string]string{"operation": OperationEncode}))
	assert.Equal(t, int64(1), collector.GetCounter(MetricProcessFailed, map[string]string{"operation": OperationDecode, "status": "error"}))
	assert.Equal(t, int64(1), collector.GetCounter(MetricErrors, map[string]string{"operation": OperationDecode, "family": "structural"}))
	assert.Len(t, collector.GetTimings(MetricProcessDuration, map[string]string{"operation": OperationDecode, "status": "error"}), 1)
}

func TestMetricsObservabilityHook_NilCollector(t *testing.T) {
	hook := NewMetricsObservabilityHook(nil)
	assert.NotPanics(t, func() {
		hook.OnProcessComplete(context.Background(), OperationEncode, 0, nil, nil)
	})
}

func TestLoggingObservabilityHook(t *testing.T) {
	logger := &mockLogger{}
	logger.On("Debug", "encode started, metadata: map[]").Once()
	logger.On("Debug", "encode document of 42 bytes").Once()
	logger.On("Info", "encode completed in 2ms, metadata: map[]").Once()
	logger.On("Error", mock.MatchedBy(func(msg string) bool {
		return bytes.HasPrefix([]byte(msg), []byte("decode semantic error: "))
	})).Once()

	hook := NewLoggingObservabilityHook(logger)
	ctx := context.Background()
	hook.OnProcessStart(ctx, OperationEncode, map[string]any{})
	hook.OnDocument(ctx, OperationEncode, 42, nil)
	hook.OnProcessComplete(ctx, OperationEncode, 2*time.Millisecond, nil, map[string]any{})
	hook.OnError(ctx, OperationDecode, exprerr.NewNumericParseError("$.int64", "1x", "int64"), nil)

	logger.AssertExpectations(t)
}

func TestCompositeObservabilityHook(t *testing.T) {
	first := NewInMemoryMetricsCollector()
	second := NewInMemoryMetricsCollector()
	hook := NewCompositeObservabilityHook(
		NewMetricsObservabilityHook(first),
		&NoOpObservabilityHook{},
		NewMetricsObservabilityHook(second),
	)

	hook.OnProcessStart(context.Background(), OperationValidate, nil)
	hook.OnError(context.Background(), OperationValidate, errors.New("bad"), nil)

	for _, c := range []*InMemoryMetricsCollector{first, second} {
		assert.Equal(t, int64(1), c.GetCounter(MetricProcessStarted, map[string]string{"operation": OperationValidate}))
		assert.Equal(t, int64(1), c.GetCounter(MetricErrors, map[string]string{"operation": OperationValidate, "family": "other"}))
	}
}

func TestStructuredLogger_JSON(t *testing.T) {
	var buf bytes.Buffer
	logger := NewStructuredLogger(LoggerConfig{
		Level:     LevelInfo,
		Format:    FormatJSON,
		Output:    &buf,
		Component: "cli",
	})

	logger.Debug("hidden")
	assert.Zero(t, buf.Len())

	ctx := context.WithValue(context.Background(), DocumentKeyKey, "exprs/sum.json")
	logger.LogCodecOperation(ctx, OperationDecode, 3*time.Millisecond, nil, map[string]any{"bytes": 120})

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "codec operation completed", entry["msg"])
	assert.Equal(t, "INFO", entry["level"])
	assert.Equal(t, "exprjson", entry["service"])
	assert.Equal(t, "cli", entry["component"])
	assert.Equal(t, OperationDecode, entry["operation"])
	assert.Equal(t, "exprs/sum.json", entry["document_key"])
	assert.EqualValues(t, 120, entry["bytes"])
}

func TestStructuredLogger_ErrorCarriesFamily(t *testing.T) {
	var buf bytes.Buffer
	logger := NewStructuredLogger(LoggerConfig{Level: LevelInfo, Format: FormatJSON, Output: &buf})

	err := exprerr.NewDanglingReferenceError("$.expression.parameterRef", "P9")
	logger.LogCodecOperation(context.Background(), OperationDecode, time.Millisecond, err, nil)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "ERROR", entry["level"])
	assert.Equal(t, "structural", entry["error_family"])
	assert.Contains(t, entry["error"], "P9")
	assert.Contains(t, entry, "caller")
}

func TestStructuredLogger_Console(t *testing.T) {
	var buf bytes.Buffer
	logger := NewStructuredLogger(LoggerConfig{Level: LevelDebug, Format: FormatConsole, Output: &buf})
	logger.WithFields(map[string]any{"key": "a.json"}).Debug("stored %d bytes", 10)

	out := buf.String()
	assert.Contains(t, out, "DEBUG")
	assert.Contains(t, out, "stored 10 bytes")
	assert.Contains(t, out, "key=a.json")
}

func TestParseLogLevelAndFormat(t *testing.T) {
	level, err := ParseLogLevel("WARN")
	require.NoError(t, err)
	assert.Equal(t, LevelWarn, level)

	_, err = ParseLogLevel("loud")
	assert.Error(t, err)

	format, err := ParseLogFormat("console")
	require.NoError(t, err)
	assert.Equal(t, FormatConsole, format)

	_, err = ParseLogFormat("xml")
	assert.Error(t, err)
}
