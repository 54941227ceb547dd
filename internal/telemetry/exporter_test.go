package telemetry

import (
	"bufio"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/zjrosen/reclaim/internal/config"
)

func disabledConfig() config.TracingConfig {
	return config.TracingConfig{Exporter: "file", SampleRate: 1.0}
}

// readSpanRecords parses every line of a JSONL trace file.
func readSpanRecords(t *testing.T, path string) []SpanRecord {
	t.Helper()
	file, err := os.Open(path)
	require.NoError(t, err)
	defer file.Close()

	var records []SpanRecord
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		var rec SpanRecord
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &rec))
		records = append(records, rec)
	}
	require.NoError(t, scanner.Err())
	return records
}

func TestFileExporter_WritesJSONL(t *testing.T) {
	path := filepath.Join(t.TempDir(), "traces", "traces.jsonl")

	exporter, err := NewFileExporter(path)
	require.NoError(t, err)

	provider := sdktrace.NewTracerProvider(
		sdktrace.WithSyncer(exporter),
	)
	tracer := provider.Tracer("test")

	_, span := tracer.Start(context.Background(), "recycling.exchange")
	span.SetAttributes(attribute.String("recycling.class_id", "pet-bottle"))
	span.SetStatus(codes.Error, "not owner")
	span.End()

	require.NoError(t, provider.Shutdown(context.Background()))

	records := readSpanRecords(t, path)
	require.Len(t, records, 1)
	require.Equal(t, "recycling.exchange", records[0].Name)
	require.Equal(t, "ERROR", records[0].Status)
	require.Equal(t, "not owner", records[0].StatusMsg)
	require.Equal(t, "pet-bottle", records[0].Attributes["recycling.class_id"])
	require.NotEmpty(t, records[0].TraceID)
	require.NotEmpty(t, records[0].SpanID)
	require.Empty(t, records[0].ParentSpanID, "a root span has no parent")
}

func TestFileExporter_ParentSpan(t *testing.T) {
	path := filepath.Join(t.TempDir(), "traces.jsonl")

	exporter, err := NewFileExporter(path)
	require.NoError(t, err)

	provider := sdktrace.NewTracerProvider(
		sdktrace.WithSyncer(exporter),
	)
	tracer := provider.Tracer("test")

	ctx, parent := tracer.Start(context.Background(), "recycling.batch")
	_, child := tracer.Start(ctx, "recycling.exchange")
	child.End()
	parent.End()

	require.NoError(t, provider.Shutdown(context.Background()))

	records := readSpanRecords(t, path)
	require.Len(t, records, 2)
	require.Equal(t, "recycling.exchange", records[0].Name)
	require.Equal(t, records[1].SpanID, records[0].ParentSpanID)
	require.Equal(t, records[1].TraceID, records[0].TraceID)
}

func TestFileExporter_AppendsAcrossSessions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "traces.jsonl")

	for i := 0; i < 2; i++ {
		exporter, err := NewFileExporter(path)
		require.NoError(t, err)
		provider := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
		_, span := provider.Tracer("test").Start(context.Background(), "recycling.exchange")
		span.End()
		require.NoError(t, provider.Shutdown(context.Background()))
	}

	require.Len(t, readSpanRecords(t, path), 2)
}

func TestNewProvider_Disabled(t *testing.T) {
	provider, err := NewProvider(disabledConfig())
	require.NoError(t, err)
	require.False(t, provider.Enabled())
	require.NotNil(t, provider.Tracer(), "disabled tracing still hands out a usable tracer")
	require.NoError(t, provider.Shutdown(context.Background()))
}

func TestNewProvider_FileExporter(t *testing.T) {
	cfg := disabledConfig()
	cfg.Enabled = true
	cfg.Exporter = "file"
	cfg.FilePath = filepath.Join(t.TempDir(), "traces.jsonl")

	provider, err := NewProvider(cfg)
	require.NoError(t, err)
	require.True(t, provider.Enabled())

	_, span := provider.Tracer().Start(context.Background(), "recycling.exchange")
	span.End()
	require.NoError(t, provider.Shutdown(context.Background()))

	require.NotEmpty(t, readSpanRecords(t, cfg.FilePath))
}

func TestNewProvider_UnknownExporter(t *testing.T) {
	cfg := disabledConfig()
	cfg.Enabled = true
	cfg.Exporter = "jaeger"

	_, err := NewProvider(cfg)
	require.Error(t, err)
}
