package otel_test

import (
	"context"
	"errors"
	"testing"

	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/easyops/helloagents-tools/pkg/otel"
)

func TestNoopTracer_Start(t *testing.T) {
	tracer := otel.NewNoopTracer()

	ctx, span := tracer.Start(context.Background(), "tool.invoke", otel.WithSpanKind(otel.SpanKindInternal))
	if ctx == nil {
		t.Fatal("expected non-nil context")
	}
	if span == nil {
		t.Fatal("expected non-nil span")
	}

	// 空实现的所有方法都不应 panic
	span.SetAttributes(otel.ToolName("calculator"))
	span.SetStatus(otel.StatusOK, "ok")
	span.AddEvent("event")
	span.RecordError(errors.New("test error"))
	span.End()

	if sc := span.SpanContext(); sc.TraceID != "" {
		t.Fatal("expected empty trace ID for noop span")
	}
	if otel.SpanFromContext(ctx) != nil {
		t.Fatal("expected no recording span in context")
	}
}

func TestSpanOptions(t *testing.T) {
	cfg := &otel.SpanConfig{}
	otel.WithSpanKind(otel.SpanKindClient)(cfg)
	otel.WithAttributes(otel.ToolName("a"), otel.ToolActivity("b"))(cfg)

	if cfg.Kind != otel.SpanKindClient {
		t.Fatalf("expected SpanKindClient, got %d", cfg.Kind)
	}
	if len(cfg.Attributes) != 2 {
		t.Fatalf("expected 2 attributes, got %d", len(cfg.Attributes))
	}
}

func TestStatusCodeConstants(t *testing.T) {
	if otel.StatusUnset != 0 || otel.StatusOK != 1 || otel.StatusError != 2 {
		t.Fatalf("unexpected status codes: %d %d %d", otel.StatusUnset, otel.StatusOK, otel.StatusError)
	}
}

func TestOTelTracer_RecordsSpan(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	defer tp.Shutdown(context.Background())

	tracer := otel.NewTracer(tp.Tracer("test"))
	ctx, span := tracer.Start(context.Background(), "tool.invoke",
		otel.WithAttributes(otel.ToolName("calculator"), otel.ToolActivity("calculate")),
	)
	span.SetAttributes(otel.ToolResultKind("error"))
	span.SetStatus(otel.StatusError, "division by zero")

	sc := span.SpanContext()
	if sc.TraceID == "" || sc.SpanID == "" {
		t.Fatal("expected recorded span to have trace and span IDs")
	}
	if got := otel.SpanFromContext(ctx).SpanContext(); got.SpanID != sc.SpanID {
		t.Fatalf("expected span from context %s, got %s", sc.SpanID, got.SpanID)
	}
	span.End()

	ended := recorder.Ended()
	if len(ended) != 1 {
		t.Fatalf("expected 1 ended span, got %d", len(ended))
	}
	if ended[0].Name() != "tool.invoke" {
		t.Fatalf("expected span name tool.invoke, got %s", ended[0].Name())
	}
	if ended[0].Status().Code != codes.Error {
		t.Fatalf("expected error status, got %v", ended[0].Status().Code)
	}

	found := false
	for _, kv := range ended[0].Attributes() {
		if string(kv.Key) == otel.AttrToolName && kv.Value.AsString() == "calculator" {
			found = true
		}
	}
	if !found {
		t.Fatal("expected tool.name attribute on span")
	}
}
