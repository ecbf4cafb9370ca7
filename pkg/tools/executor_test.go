package tools_test

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/easyops/helloagents-tools/pkg/artifacts"
	"github.com/easyops/helloagents-tools/pkg/core/errors"
	"github.com/easyops/helloagents-tools/pkg/otel"
	"github.com/easyops/helloagents-tools/pkg/tools"
)

func newDispatcher(t *testing.T, extra []tools.Activity, opts ...tools.DispatcherOption) *tools.Dispatcher {
	t.Helper()
	stub := newStubTool("stub")
	for _, a := range extra {
		withActivity(stub, a)
	}
	registry := tools.NewRegistry()
	require.NoError(t, registry.Register(stub))
	return tools.NewDispatcher(registry, opts...)
}

func values(kv map[string]any) tools.Params {
	return tools.NewParams(kv)
}

func TestDispatcher_Invoke(t *testing.T) {
	d := newDispatcher(t, nil)

	result := d.Invoke(context.Background(), "stub", "echo", values(map[string]any{"text": "hello"}))

	require.IsType(t, &artifacts.TextArtifact{}, result)
	assert.Equal(t, "hello", result.String())
}

func TestDispatcher_InvokeErrors(t *testing.T) {
	d := newDispatcher(t, []tools.Activity{
		{
			Name:    "panic",
			Handler: func(context.Context, tools.Params) artifacts.Artifact { panic("boom") },
		},
		{
			Name:    "nothing",
			Handler: func(context.Context, tools.Params) artifacts.Artifact { return nil },
		},
	})

	tests := []struct {
		name     string
		tool     string
		activity string
		params   tools.Params
		contains string
	}{
		{"unknown tool", "missing", "echo", values(nil), "error invoking missing.echo: tool not found"},
		{"unknown activity", "stub", "shout", values(nil), "error invoking stub.shout: activity not found"},
		{"missing parameter", "stub", "echo", values(nil), "error validating parameters"},
		{"extra parameter", "stub", "echo", values(map[string]any{"text": "a", "loud": "yes"}), "error validating parameters"},
		{"wrong type", "stub", "echo", values(map[string]any{"text": 42}), "error validating parameters"},
		{"panic", "stub", "panic", values(nil), "tool panicked: boom"},
		{"nil result", "stub", "nothing", values(nil), "handler returned no result"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := d.Invoke(context.Background(), tt.tool, tt.activity, tt.params)
			require.NotNil(t, result)
			require.True(t, artifacts.IsError(result), "expected error artifact, got %q", result.String())
			assert.Contains(t, result.String(), tt.contains)
		})
	}
}

func TestDispatcher_Timeout(t *testing.T) {
	d := newDispatcher(t, []tools.Activity{
		{
			Name: "slow",
			Handler: func(ctx context.Context, _ tools.Params) artifacts.Artifact {
				select {
				case <-ctx.Done():
					return artifacts.FromError("error waiting", ctx.Err())
				case <-time.After(5 * time.Second):
					return artifacts.NewText("done")
				}
			},
		},
	}, tools.WithTimeout(20*time.Millisecond))

	result := d.Invoke(context.Background(), "stub", "slow", values(nil))

	assert.True(t, artifacts.IsError(result))
	assert.Equal(t, "error waiting: context deadline exceeded", result.String())
}

func TestDispatcher_CanceledContext(t *testing.T) {
	d := newDispatcher(t, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result := d.Invoke(ctx, "stub", "echo", values(map[string]any{"text": "hi"}))

	assert.Equal(t, "error invoking stub.echo: context canceled", result.String())
}

func TestDispatcher_InvokeRaw(t *testing.T) {
	d := newDispatcher(t, nil)

	result := d.InvokeRaw(context.Background(), "stub", "echo", json.RawMessage(`{"values": {"text": "raw"}}`))
	assert.Equal(t, "raw", result.String())
	assert.False(t, artifacts.IsError(result))

	result = d.InvokeRaw(context.Background(), "stub", "echo", json.RawMessage(`{"values": `))
	assert.True(t, artifacts.IsError(result))
	assert.Contains(t, result.String(), "error decoding parameters")
}

func TestDispatcher_InvokeBatch(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	d := newDispatcher(t, []tools.Activity{
		{
			Name: "stop",
			Handler: func(context.Context, tools.Params) artifacts.Artifact {
				cancel()
				return artifacts.NewText("stopped")
			},
		},
	})

	results := d.InvokeBatch(ctx, []tools.Call{
		{Tool: "stub", Activity: "echo", Params: values(map[string]any{"text": "one"})},
		{Tool: "stub", Activity: "stop", Params: values(nil)},
		{Tool: "stub", Activity: "echo", Params: values(map[string]any{"text": "three"})},
	})

	require.Len(t, results, 3)
	assert.Equal(t, "one", results[0].String())
	assert.Equal(t, "stopped", results[1].String())
	assert.True(t, artifacts.IsError(results[2]))
	assert.Equal(t, "error invoking stub.echo: context canceled", results[2].String())
}

func TestDispatcher_Metrics(t *testing.T) {
	metrics := otel.NewInMemoryMetrics()
	d := newDispatcher(t, nil, tools.WithMetrics(metrics))

	d.Invoke(context.Background(), "stub", "echo", values(map[string]any{"text": "a"}))
	d.Invoke(context.Background(), "stub", "echo", values(nil))

	assert.Equal(t, int64(2), metrics.GetCounterValue(otel.MetricToolCalls))
	assert.Equal(t, int64(1), metrics.GetCounterValue(otel.MetricToolErrors))
	assert.Len(t, metrics.GetHistogramValues(otel.MetricToolCallDuration), 2)
	assert.Equal(t, 0.0, metrics.GetGaugeValue(otel.MetricToolInFlight))
}

func TestDispatcher_Tracing(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	defer tp.Shutdown(context.Background())

	d := newDispatcher(t, nil, tools.WithTracer(otel.NewTracer(tp.Tracer("test"))))
	d.Invoke(context.Background(), "stub", "echo", values(nil))

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "tool.invoke", spans[0].Name())

	attrs := map[string]string{}
	for _, kv := range spans[0].Attributes() {
		attrs[string(kv.Key)] = kv.Value.Emit()
	}
	assert.Equal(t, "stub", attrs[otel.AttrToolName])
	assert.Equal(t, "echo", attrs[otel.AttrToolActivity])
	assert.Equal(t, "error", attrs[otel.AttrToolResultKind])
	assert.NotEmpty(t, attrs[otel.AttrToolCallID])
}

func TestDispatcher_RevalidatesAfterReRegister(t *testing.T) {
	registry := tools.NewRegistry()
	require.NoError(t, registry.Register(newStubTool("stub")))
	d := tools.NewDispatcher(registry)

	result := d.Invoke(context.Background(), "stub", "echo", values(map[string]any{"text": "hi"}))
	require.False(t, artifacts.IsError(result))

	replaced := &stubTool{
		name: "stub",
		activities: []tools.Activity{
			{
				Name:        "echo",
				Description: "Echo the message back",
				Schema:      tools.Schema{tools.StringParam("message", "Message to echo")},
				Handler: func(_ context.Context, p tools.Params) artifacts.Artifact {
					v, _ := p.String("message")
					return artifacts.NewText(v)
				},
			},
		},
	}
	require.NoError(t, registry.Unregister("stub"))
	require.NoError(t, registry.Register(replaced))

	result = d.Invoke(context.Background(), "stub", "echo", values(map[string]any{"message": "hello"}))
	require.IsType(t, &artifacts.TextArtifact{}, result)
	assert.Equal(t, "hello", result.String())

	result = d.Invoke(context.Background(), "stub", "echo", values(map[string]any{"text": "hi"}))
	assert.True(t, artifacts.IsError(result))
	assert.Contains(t, result.String(), "error validating parameters")
}

func TestDispatcher_LogsMisconfigurationAtErrorLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := otel.NewSlogLogger(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))

	d := newDispatcher(t, []tools.Activity{
		{
			Name: "misconfigured",
			Handler: func(context.Context, tools.Params) artifacts.Artifact {
				return artifacts.FromError("error executing SQL",
					errors.WrapError(errors.ErrUnsupportedEngine, stderrors.New("oracle")))
			},
		},
		{
			Name: "failing",
			Handler: func(context.Context, tools.Params) artifacts.Artifact {
				return artifacts.FromError("error executing SQL",
					errors.WrapError(errors.ErrQueryFailed, stderrors.New("no such table: users")))
			},
		},
	}, tools.WithLogger(logger))

	result := d.Invoke(context.Background(), "stub", "misconfigured", values(nil))
	assert.Equal(t, "error executing SQL: unsupported engine: oracle", result.String())
	assert.Contains(t, buf.String(), "level=ERROR")
	assert.Contains(t, buf.String(), "activity failed on misconfiguration")

	buf.Reset()
	d.Invoke(context.Background(), "stub", "failing", values(nil))
	assert.Contains(t, buf.String(), "level=WARN")
	assert.NotContains(t, buf.String(), "level=ERROR")
}
