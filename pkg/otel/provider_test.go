package otel_test

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"

	"github.com/easyops/helloagents-tools/pkg/otel"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"INFO":    slog.LevelInfo,
		"warn":    slog.LevelWarn,
		"error":   slog.LevelError,
		"fatal":   otel.LevelFatal,
		"unknown": slog.LevelInfo,
	}
	for in, want := range tests {
		if got := otel.ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestNewSlog_JSONFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := otel.NewSlogLogger(otel.NewSlog(otel.LoggingConfig{Level: "debug", Format: "json"}, &buf))

	logger.WithFields(map[string]any{"tool": "calculator"}).Info("activity completed")

	out := buf.String()
	if !strings.Contains(out, `"msg":"activity completed"`) || !strings.Contains(out, `"tool":"calculator"`) {
		t.Fatalf("unexpected log output: %s", out)
	}
}

func TestNewSlog_FatalLevelSuppresses(t *testing.T) {
	var buf bytes.Buffer
	logger := otel.NewSlog(otel.LoggingConfig{Level: "fatal"}, &buf)

	logger.Error("recoverable parser warning")

	if buf.Len() != 0 {
		t.Fatalf("expected no output at fatal level, got %s", buf.String())
	}
}

func TestNewProvider_Disabled(t *testing.T) {
	p, err := otel.NewProvider(context.Background(), otel.DefaultConfig())
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	defer p.Shutdown(context.Background())

	if _, ok := p.Tracer().(*otel.NoopTracer); !ok {
		t.Fatalf("expected NoopTracer, got %T", p.Tracer())
	}
	if _, ok := p.Metrics().(*otel.NoopMetrics); !ok {
		t.Fatalf("expected NoopMetrics, got %T", p.Metrics())
	}
	if p.Logger() == nil {
		t.Fatal("expected logger to be configured")
	}
}

func TestNewProvider_InProcessMetrics(t *testing.T) {
	cfg := otel.DefaultConfig()
	cfg.Enabled = true
	cfg.Metrics.Enabled = true

	p, err := otel.NewProvider(context.Background(), cfg)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	defer p.Shutdown(context.Background())

	if _, ok := p.Metrics().(*otel.InMemoryMetrics); !ok {
		t.Fatalf("expected InMemoryMetrics, got %T", p.Metrics())
	}
}

func TestNewProvider_InvalidConfig(t *testing.T) {
	cfg := otel.DefaultConfig()
	cfg.Tracing.SampleRate = otel.Ratio(2)

	if _, err := otel.NewProvider(context.Background(), cfg); err == nil {
		t.Fatal("expected error for invalid sample rate")
	}
}
