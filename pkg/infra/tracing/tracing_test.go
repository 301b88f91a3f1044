package tracing

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestNewProvider_Disabled(t *testing.T) {
	p, err := NewProvider(context.Background(), NewOptions(), "test")
	require.NoError(t, err)
	assert.NoError(t, p.Shutdown(context.Background()))
}

func TestOptions_Validate(t *testing.T) {
	o := NewOptions()
	assert.Empty(t, o.Validate(), "disabled tracing is always valid")

	o.Enabled = true
	o.ExporterType = "zipkin"
	o.SamplerRatio = 2
	assert.Len(t, o.Validate(), 2)
}

func TestStartSpanAndEnd(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() { otel.SetTracerProvider(prev) })

	ctx, span := StartSpan(context.Background(), "rag.ask", attribute.String("query", "q"))
	assert.NotEmpty(t, TraceID(ctx))
	End(span, errors.New("boom"))

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "rag.ask", spans[0].Name())
	assert.Equal(t, codes.Error, spans[0].Status().Code)
	assert.Empty(t, TraceID(context.Background()))
}
