package tracing

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

const (
	sampleTraceParent = "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01"
	sampleTraceID     = "4bf92f3577b34da6a3ce929d0e0e4736"
	sampleTraceState  = "vendor=opaque"
)

func setTestTracer(t *testing.T) {
	t.Helper()
	provider := sdktrace.NewTracerProvider()
	SetTracer(provider.Tracer("test"))
	t.Cleanup(func() { SetTracer(nil) })
}

func TestContextWithTraceParentJoinsRemoteTrace(t *testing.T) {
	ctx := ContextWithTraceParent(context.Background(), sampleTraceParent, sampleTraceState)

	sc := trace.SpanContextFromContext(ctx)
	require.True(t, sc.IsValid())
	assert.True(t, sc.IsRemote())
	assert.Equal(t, sampleTraceID, sc.TraceID().String())
	assert.Equal(t, sampleTraceState, sc.TraceState().String())
}

func TestContextWithTraceParentEmptyIsNoop(t *testing.T) {
	ctx := context.Background()
	assert.Equal(t, ctx, ContextWithTraceParent(ctx, "", ""))
}

func TestTraceParentRoundTrip(t *testing.T) {
	setTestTracer(t)

	ctx := ContextWithTraceParent(context.Background(), sampleTraceParent, sampleTraceState)

	assert.Equal(t, sampleTraceParent, GetTraceParent(ctx))
	assert.Equal(t, sampleTraceState, GetTraceState(ctx))
	assert.Equal(t, sampleTraceID, GetTraceID(ctx))
}

func TestSpansContinueRemoteTrace(t *testing.T) {
	setTestTracer(t)

	ctx := ContextWithTraceParent(context.Background(), sampleTraceParent, "")
	ctx, span := StartSpan(ctx, "tracing.test")
	defer span.End()

	assert.Equal(t, sampleTraceID, span.SpanContext().TraceID().String())
	assert.Equal(t, sampleTraceID, GetTraceID(ctx))
}

func TestGetTraceParentWithoutTracer(t *testing.T) {
	assert.Empty(t, GetTraceParent(context.Background()))
	assert.Empty(t, GetTraceState(context.Background()))
}
