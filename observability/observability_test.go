package observability

import (
	"context"
	"fmt"
	"testing"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestDefaultTracerConfig(t *testing.T) {
	cfg := DefaultTracerConfig("blobctl")
	if cfg.ServiceName != "blobctl" || cfg.Endpoint != "localhost:4318" {
		t.Errorf("unexpected config %+v", cfg)
	}
	if cfg.SampleRate != 1.0 || !cfg.Insecure {
		t.Errorf("unexpected sampling/security defaults %+v", cfg)
	}
}

func TestDefaultMeterConfig(t *testing.T) {
	cfg := DefaultMeterConfig("blobctl")
	if cfg.Interval != 15*time.Second {
		t.Errorf("expected Interval 15s, got %v", cfg.Interval)
	}
}

func TestSamplerFor(t *testing.T) {
	tests := []struct {
		rate float64
		want string
	}{
		{1.0, "AlwaysOnSampler"},
		{2.0, "AlwaysOnSampler"},
		{0, "AlwaysOffSampler"},
		{-1, "AlwaysOffSampler"},
		{0.5, "TraceIDRatioBased{0.5}"},
	}
	for _, tc := range tests {
		t.Run(fmt.Sprint(tc.rate), func(t *testing.T) {
			if got := samplerFor(tc.rate).Description(); got != tc.want {
				t.Errorf("samplerFor(%v) = %q, want %q", tc.rate, got, tc.want)
			}
		})
	}
}

func TestNewMetrics_Noop(t *testing.T) {
	metrics, err := NewMetrics(noop.NewMeterProvider().Meter("test"))
	if err != nil {
		t.Fatalf("unexpected error creating metrics: %v", err)
	}
	ctx := context.Background()
	metrics.RecordOperation(ctx, "upload", "ok", 50*time.Millisecond)
	metrics.RecordError(ctx, "NOT_FOUND", "stream")
	metrics.RecordCacheLookup(ctx, "assets", true)
}

func TestMetrics_NilReceiver(t *testing.T) {
	var m *Metrics
	ctx := context.Background()
	m.RecordOperation(ctx, "upload", "ok", time.Millisecond)
	m.RecordError(ctx, "x", "y")
	m.RecordCacheLookup(ctx, "assets", false)
}

func sumCounter(t *testing.T, reader *sdkmetric.ManualReader, name string) int64 {
	t.Helper()
	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("collect: %v", err)
	}
	var total int64
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != name {
				continue
			}
			sum, ok := m.Data.(metricdata.Sum[int64])
			if !ok {
				t.Fatalf("%s: unexpected data type %T", name, m.Data)
			}
			for _, dp := range sum.DataPoints {
				total += dp.Value
			}
		}
	}
	return total
}

func TestMetrics_CacheLookups(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	defer mp.Shutdown(context.Background())

	metrics, err := NewMetrics(mp.Meter("test"))
	if err != nil {
		t.Fatalf("NewMetrics: %v", err)
	}

	ctx := context.Background()
	metrics.RecordCacheLookup(ctx, "assets", false)
	metrics.RecordCacheLookup(ctx, "assets", true)
	metrics.RecordCacheLookup(ctx, "assets", true)

	if got := sumCounter(t, reader, "storage.container.cache.hits"); got != 2 {
		t.Errorf("hits = %d, want 2", got)
	}
	if got := sumCounter(t, reader, "storage.container.cache.misses"); got != 1 {
		t.Errorf("misses = %d, want 1", got)
	}
}

func TestStartSpan_RecordsAttributesAndErrors(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	defer otel.SetTracerProvider(prev)

	ctx, span := StartSpan(context.Background(), SpanUpload)
	SetSpanAttribute(ctx, AttrContainer, "assets")
	SetSpanAttribute(ctx, AttrCacheHit, true)
	SetSpanAttribute(ctx, "size", int64(5))
	SetSpanAttribute(ctx, "ttl", 5*time.Second)
	SetSpanError(ctx, fmt.Errorf("boom"))
	span.End()

	ended := recorder.Ended()
	if len(ended) != 1 {
		t.Fatalf("expected 1 span, got %d", len(ended))
	}
	s := ended[0]
	if s.Name() != SpanUpload {
		t.Errorf("span name = %q", s.Name())
	}
	attrs := map[string]string{}
	for _, kv := range s.Attributes() {
		attrs[string(kv.Key)] = kv.Value.Emit()
	}
	if len(attrs) != 4 {
		t.Errorf("expected 4 attributes, got %v", attrs)
	}
	if attrs["ttl"] != "5s" {
		t.Errorf("ttl = %q, want fmt representation", attrs["ttl"])
	}
	if len(s.Events()) != 1 {
		t.Errorf("expected recorded error event, got %v", s.Events())
	}
}

func TestSpanHelpers_NoSpan(t *testing.T) {
	ctx := context.Background()
	SetSpanAttribute(ctx, "key", "value")
	SetSpanError(ctx, fmt.Errorf("ignored"))
	if SpanFromContext(ctx).IsRecording() {
		t.Error("background context should not carry a recording span")
	}
}

func TestNewResource(t *testing.T) {
	res, err := newResource("blobctl", "1.0.0", "test")
	if err != nil {
		t.Skipf("resource merge failed (schema conflict): %v", err)
	}
	found := false
	for _, kv := range res.Attributes() {
		if string(kv.Key) == "service.name" && kv.Value.AsString() == "blobctl" {
			found = true
		}
	}
	if !found {
		t.Errorf("service.name missing from %v", res.Attributes())
	}
}
