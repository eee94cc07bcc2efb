package exprjson

import (
	"bytes"
	"context"
	"testing"

	"github.com/goccy/go-json"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hengadev/exprjson/ast"
	"github.com/hengadev/exprjson/internal/monitoring"
)

func TestPrometheusCollector_WithCodec(t *testing.T) {
	reg := prometheus.NewRegistry()
	collector := NewPrometheusMetricsCollector(reg)
	c := newTestCodec(t, WithMetricsCollector(collector))

	for i := 0; i < 3; i++ {
		_, err := c.Marshal(ast.NewConstant(i))
		require.NoError(t, err)
	}
	_, err := c.Unmarshal([]byte("{"))
	require.Error(t, err)

	families, err := reg.Gather()
	require.NoError(t, err)
	names := make([]string, 0, len(families))
	encoded := 0.0
	for _, f := range families {
		names = append(names, f.GetName())
		if f.GetName() != "exprjson_process_succeeded" {
			continue
		}
		for _, m := range f.GetMetric() {
			for _, label := range m.GetLabel() {
				if label.GetName() == "operation" && label.GetValue() == OperationEncode {
					encoded += m.GetCounter().GetValue()
				}
			}
		}
	}
	assert.Contains(t, names, "exprjson_process_succeeded")
	assert.Contains(t, names, "exprjson_process_failed")
	assert.Contains(t, names, "exprjson_errors")
	assert.Equal(t, 3.0, encoded)
	assert.Same(t, reg, collector.Registry())
}

func TestLoggingObservabilityHook_WithCodec(t *testing.T) {
	var buf bytes.Buffer
	logger := monitoring.NewStructuredLogger(monitoring.LoggerConfig{
		Level:     monitoring.LevelDebug,
		Format:    monitoring.FormatJSON,
		Output:    &buf,
		Component: "codec",
	})
	c := newTestCodec(t, WithObservabilityHook(NewLoggingObservabilityHook(logger)))

	_, err := c.Unmarshal([]byte(`{"$schema":"nope","expression":{}}`))
	require.Error(t, err)

	var failed map[string]any
	for _, line := range bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n")) {
		var entry map[string]any
		require.NoError(t, json.Unmarshal(line, &entry))
		if entry["level"] == "ERROR" {
			failed = entry
			break
		}
	}
	require.NotNil(t, failed, buf.String())
	assert.Equal(t, "codec", failed["component"])
	assert.Contains(t, failed["msg"], "decode")
}

func TestNoOpMonitoring(t *testing.T) {
	c, err := New(
		WithMetricsCollector(&NoOpMetricsCollector{}),
		WithObservabilityHook(&NoOpObservabilityHook{}),
	)
	require.NoError(t, err)

	data, err := c.Marshal(ast.NewConstant("quiet"))
	require.NoError(t, err)
	_, err = c.Decode(context.Background(), bytes.NewReader(data))
	assert.NoError(t, err)
}

func TestNewLoggingObservabilityHook_NilLogger(t *testing.T) {
	t.Setenv(EnvLogLevel, "error")
	hook := NewLoggingObservabilityHook(nil)
	require.NotNil(t, hook)
	assert.NotPanics(t, func() {
		hook.OnProcessStart(context.Background(), OperationEncode, nil)
	})
}
