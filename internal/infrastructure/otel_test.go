package infrastructure

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kotfilip/ds-consulting-project/internal/config"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

// TestOTelDisabled verifies no-op providers when both signals are off
func TestOTelDisabled(t *testing.T) {
	providers, err := InitializeOTel(&OTelConfig{ServiceName: ServiceName}, discardLogger())
	require.NoError(t, err)
	require.NotNil(t, providers)

	assert.Nil(t, providers.TracerProvider)
	assert.Nil(t, providers.MeterProvider)
	assert.NotNil(t, providers.Tracer)
	assert.NotNil(t, providers.Meter)

	metrics, err := CreatePipelineMetrics(providers.Meter)
	require.NoError(t, err)
	RecordStepMetrics(context.Background(), metrics, "ingest", time.Second, true)

	assert.NoError(t, providers.Shutdown(context.Background()))
}

// TestOTelFiles verifies spans and metrics land in their files
func TestOTelFiles(t *testing.T) {
	dir := t.TempDir()
	cfg := &OTelConfig{
		ServiceName:    ServiceName,
		ServiceVersion: "test",
		RunID:          GenerateTraceID(),
		EnableTracing:  true,
		EnableMetrics:  true,
		TraceFile:      filepath.Join(dir, "logs", "trace.json"),
		MetricsFile:    filepath.Join(dir, "reports", "panel.prom"),
		SampleRatio:    1.0,
	}

	providers, err := InitializeOTel(cfg, discardLogger())
	require.NoError(t, err)
	require.NotNil(t, providers.TracerProvider)
	require.NotNil(t, providers.Registry)

	ctx, span := providers.Tracer.Start(context.Background(), "pipeline.test")
	assert.NotEmpty(t, TraceIDFromContext(ctx))
	AddSpanEvent(ctx, "rows_loaded", map[string]interface{}{"rows": 12, "file": "data.csv"})
	SetSpanAttributes(ctx, map[string]interface{}{"ratio": 0.5, "ok": true})
	RecordError(ctx, errors.New("boom"))
	span.End()

	metrics, err := CreatePipelineMetrics(providers.Meter)
	require.NoError(t, err)
	RecordStepMetrics(ctx, metrics, "model", 250*time.Millisecond, true)
	RecordRows(ctx, metrics, "raw", 12)
	RecordModelFit(ctx, metrics, true, map[string]float64{"within": 0.8})

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, providers.Shutdown(ctxShutdown))

	traces, err := os.ReadFile(cfg.TraceFile)
	require.NoError(t, err)
	assert.Contains(t, string(traces), "pipeline.test")

	prom, err := os.ReadFile(cfg.MetricsFile)
	require.NoError(t, err)
	assert.Contains(t, string(prom), "panel_step_executions")
	assert.Contains(t, string(prom), "panel_rows")
}

func TestOTelTracingRequiresFile(t *testing.T) {
	_, err := InitializeOTel(&OTelConfig{EnableTracing: true, SampleRatio: 1}, discardLogger())
	assert.Error(t, err)
}

func TestNewOTelConfig(t *testing.T) {
	tc := config.Default().Telemetry
	tc.EnableMetrics = true

	cfg := NewOTelConfig(tc, "run-1", func(p string) string { return filepath.Join("/base", p) })
	assert.Equal(t, ServiceName, cfg.ServiceName)
	assert.Equal(t, "run-1", cfg.RunID)
	assert.True(t, cfg.EnableMetrics)
	assert.False(t, cfg.EnableTracing)
	assert.Equal(t, filepath.Join("/base", config.MetricsFile), cfg.MetricsFile)
}

func TestRecordHelpersNilSafe(t *testing.T) {
	ctx := context.Background()
	assert.NotPanics(t, func() {
		RecordStepMetrics(ctx, nil, "x", time.Second, false)
		RecordRows(ctx, nil, "raw", 1)
		RecordModelFit(ctx, nil, false, nil)
		RecordError(ctx, errors.New("no span"))
		AddSpanEvent(ctx, "noop", nil)
	})
}
