package trace

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/zap"
)

func stubConstructors(t *testing.T) {
	t.Helper()
	origRes, origHTTP, origGRPC := newResource, newOTLPTraceHTTP, newOTLPTraceGRPC
	prevTP := otel.GetTracerProvider()
	t.Cleanup(func() {
		newResource, newOTLPTraceHTTP, newOTLPTraceGRPC = origRes, origHTTP, origGRPC
		otel.SetTracerProvider(prevTP)
	})
	newResource = func(context.Context, ...resource.Option) (*resource.Resource, error) {
		return resource.Default(), nil
	}
	newOTLPTraceHTTP = func(context.Context, ...otlptracehttp.Option) (*otlptrace.Exporter, error) {
		return nil, nil
	}
	newOTLPTraceGRPC = func(context.Context, ...otlptracegrpc.Option) (*otlptrace.Exporter, error) {
		return nil, nil
	}
}

func TestInitTracing_Disabled(t *testing.T) {
	shutdown, err := InitTracing(context.Background(), &Config{}, zap.NewNop())
	require.NoError(t, err)
	assert.NoError(t, shutdown(context.Background()))

	shutdown, err = InitTracing(context.Background(), nil, zap.NewNop())
	require.NoError(t, err)
	assert.NoError(t, shutdown(context.Background()))
}

func TestInitTracing_Protocols(t *testing.T) {
	for _, protocol := range []string{"http", "grpc", ""} {
		t.Run("protocol="+protocol, func(t *testing.T) {
			stubConstructors(t)
			cfg := &Config{
				Enabled:     true,
				ServiceName: "apphub-test",
				Protocol:    protocol,
				Insecure:    true,
				SamplerRate: 2.5,
				Headers:     map[string]string{"x-test": "1"},
			}
			shutdown, err := InitTracing(context.Background(), cfg, zap.NewNop())
			require.NoError(t, err)
			require.NotNil(t, shutdown)
			assert.NoError(t, shutdown(context.Background()))
		})
	}
}

func TestInitTracing_ErrorPaths(t *testing.T) {
	t.Run("resource", func(t *testing.T) {
		stubConstructors(t)
		newResource = func(context.Context, ...resource.Option) (*resource.Resource, error) {
			return nil, errors.New("boom")
		}
		_, err := InitTracing(context.Background(), &Config{Enabled: true}, zap.NewNop())
		assert.ErrorContains(t, err, "create resource")
	})

	t.Run("exporter", func(t *testing.T) {
		stubConstructors(t)
		newOTLPTraceHTTP = func(context.Context, ...otlptracehttp.Option) (*otlptrace.Exporter, error) {
			return nil, errors.New("boom")
		}
		_, err := InitTracing(context.Background(), &Config{Enabled: true, Protocol: "http"}, zap.NewNop())
		assert.ErrorContains(t, err, "create exporter")
	})
}

func TestBuilder_WithInMemoryProvider(t *testing.T) {
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSpanProcessor(sr),
		sdktrace.WithResource(resource.Empty()),
	)
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() {
		otel.SetTracerProvider(prev)
		_ = tp.Shutdown(context.Background())
	})

	scope := Tracer("trace-test").Start(context.Background(), "op").WithAttrs(attribute.String("k", "v"))
	scope.RecordError(errors.New("failed"))
	scope.End()

	spans := sr.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "op", spans[0].Name())
	assert.Equal(t, codes.Error, spans[0].Status().Code)

	found := false
	for _, a := range spans[0].Attributes() {
		if a.Key == "k" && a.Value.AsString() == "v" {
			found = true
		}
	}
	assert.True(t, found)
}

func TestSpanScope_NilSafe(t *testing.T) {
	var s *SpanScope
	assert.Nil(t, s.WithAttrs(attribute.String("k", "v")))
	s.RecordError(errors.New("x"))
	s.End()
}
