package observability

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

func setupTracingTest(t *testing.T) *tracetest.InMemoryExporter {
	t.Helper()
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))

	original := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	tracer = otel.Tracer(TracerName)

	t.Cleanup(func() {
		otel.SetTracerProvider(original)
		tracer = otel.Tracer(TracerName)
		_ = tp.Shutdown(context.Background())
	})
	return exporter
}

func attrValue(attrs []attribute.KeyValue, key string) string {
	for _, kv := range attrs {
		if string(kv.Key) == key {
			return kv.Value.AsString()
		}
	}
	return ""
}

func TestSpanManager_TurnAndNodeSpans(t *testing.T) {
	exporter := setupTracingTest(t)
	sm := NewSpanManager()

	ctx, turn := sm.StartTurnSpan(context.Background(), "careerflow", "conv/1")
	nodeCtx, node := sm.StartNodeSpan(ctx, "Supervisor")
	sm.AddSpanEvent(nodeCtx, "routed", attribute.String("next", "Counsellor"))
	sm.EndSpanWithError(node, nil)
	sm.EndSpanWithError(turn, errors.New("boom"))

	spans := exporter.GetSpans()
	require.Len(t, spans, 2)

	nodeSpan, turnSpan := spans[0], spans[1]
	assert.Equal(t, "careerflow.node.Supervisor", nodeSpan.Name)
	assert.Equal(t, "Supervisor", attrValue(nodeSpan.Attributes, "node.id"))
	assert.Equal(t, codes.Ok, nodeSpan.Status.Code)
	require.Len(t, nodeSpan.Events, 1)
	assert.Equal(t, "routed", nodeSpan.Events[0].Name)
	assert.Equal(t, turnSpan.SpanContext.SpanID(), nodeSpan.Parent.SpanID())

	assert.Equal(t, "careerflow.turn", turnSpan.Name)
	assert.Equal(t, "conv/1", attrValue(turnSpan.Attributes, "run.id"))
	assert.Equal(t, codes.Error, turnSpan.Status.Code)
	assert.Equal(t, "boom", turnSpan.Status.Description)
}

func TestEndSpanWithError_NilSpan(t *testing.T) {
	assert.NotPanics(t, func() { NewSpanManager().EndSpanWithError(nil, nil) })
}

func TestNoopSpanManager(t *testing.T) {
	var sm SpanManager = NoopSpanManager{}
	ctx := context.Background()

	got, span := sm.StartTurnSpan(ctx, "g", "r")
	assert.Equal(t, ctx, got)
	assert.False(t, span.IsRecording())

	got, span = sm.StartNodeSpan(ctx, "n")
	assert.Equal(t, ctx, got)
	assert.NotPanics(t, func() {
		sm.EndSpanWithError(span, errors.New("x"))
		sm.AddSpanEvent(ctx, "e")
	})
}
