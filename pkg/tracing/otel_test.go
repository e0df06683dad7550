package tracing

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"
)

func TestInitializeDisabled(t *testing.T) {
	tp, err := Initialize(context.Background(), DefaultConfig("fee-test"))
	require.NoError(t, err)

	assert.False(t, tp.Enabled())
	assert.NotNil(t, tp.Tracer())
	assert.NoError(t, tp.Shutdown(context.Background()))
}

func TestSamplerFor(t *testing.T) {
	assert.Equal(t, sdktrace.AlwaysSample().Description(), samplerFor(1).Description())
	assert.Equal(t, sdktrace.NeverSample().Description(), samplerFor(0).Description())
	assert.Equal(t, sdktrace.TraceIDRatioBased(0.5).Description(), samplerFor(0.5).Description())
}

func TestTracedOperation(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tracer := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder)).Tracer("fee-test")

	got, err := TracedOperation(context.Background(), tracer, "fee.calculate", func(ctx context.Context, span trace.Span) (int64, error) {
		assert.NotEmpty(t, GetTraceID(ctx))
		span.SetAttributes(attribute.Int64("fee.cents", 710))
		return 710, nil
	})
	require.NoError(t, err)
	assert.Equal(t, int64(710), got)

	_, err = TracedOperation(context.Background(), tracer, "fee.fail", func(ctx context.Context, span trace.Span) (int64, error) {
		return 0, errors.New("boom")
	})
	require.Error(t, err)

	spans := recorder.Ended()
	require.Len(t, spans, 2)
	assert.Equal(t, codes.Ok, spans[0].Status().Code)
	assert.Equal(t, codes.Error, spans[1].Status().Code)
}

func TestGetTraceIDWithoutSpan(t *testing.T) {
	assert.Empty(t, GetTraceID(context.Background()))
}
