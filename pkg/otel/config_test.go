package otel_test

import (
	"testing"
	"time"

	"github.com/easyops/helloagents-tools/pkg/otel"
)

func TestDefaultConfig(t *testing.T) {
	cfg := otel.DefaultConfig()

	if cfg.Enabled {
		t.Fatal("expected Enabled to be false by default")
	}
	if cfg.ServiceName != "helloagents-tools" {
		t.Fatalf("expected ServiceName 'helloagents-tools', got %s", cfg.ServiceName)
	}
	if cfg.Tracing.Exporter != otel.ExporterOTLPGRPC {
		t.Fatalf("expected Tracing.Exporter otlp-grpc, got %s", cfg.Tracing.Exporter)
	}
	if cfg.Tracing.Endpoint != "localhost:4317" {
		t.Fatalf("expected Tracing.Endpoint 'localhost:4317', got %s", cfg.Tracing.Endpoint)
	}
	if cfg.Tracing.Sampling() != 1.0 {
		t.Fatalf("expected Tracing.SampleRate 1.0, got %f", cfg.Tracing.Sampling())
	}
	if cfg.Metrics.Exporter != "" {
		t.Fatalf("expected empty Metrics.Exporter (in-process metrics), got %s", cfg.Metrics.Exporter)
	}
	if cfg.Metrics.Interval != 60*time.Second {
		t.Fatalf("expected Metrics.Interval 60s, got %s", cfg.Metrics.Interval)
	}
	if cfg.Logging.Level != "info" || cfg.Logging.Format != "text" {
		t.Fatalf("expected info/text logging, got %s/%s", cfg.Logging.Level, cfg.Logging.Format)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name      string
		config    otel.Config
		expectErr bool
	}{
		{
			name:   "default config",
			config: otel.DefaultConfig(),
		},
		{
			name:   "zero config",
			config: otel.Config{},
		},
		{
			name:      "negative sample rate",
			config:    otel.Config{Tracing: otel.TracingConfig{SampleRate: otel.Ratio(-0.1)}},
			expectErr: true,
		},
		{
			name:      "sample rate above one",
			config:    otel.Config{Tracing: otel.TracingConfig{SampleRate: otel.Ratio(1.5)}},
			expectErr: true,
		},
		{
			name:   "stdout exporters",
			config: otel.Config{Tracing: otel.TracingConfig{Exporter: otel.ExporterStdout}, Metrics: otel.MetricsConfig{Exporter: otel.ExporterStdout}},
		},
		{
			name:      "unknown trace exporter",
			config:    otel.Config{Tracing: otel.TracingConfig{Exporter: "zipkin"}},
			expectErr: true,
		},
		{
			name:      "unknown metric exporter",
			config:    otel.Config{Metrics: otel.MetricsConfig{Exporter: "prometheus"}},
			expectErr: true,
		},
		{
			name:      "unknown log format",
			config:    otel.Config{Logging: otel.LoggingConfig{Format: "xml"}},
			expectErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.expectErr && err == nil {
				t.Fatal("expected error, got nil")
			}
			if !tt.expectErr && err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
		})
	}
}

func TestConfig_WithDefaults(t *testing.T) {
	cfg := otel.Config{
		ServiceName: "my-service",
		Tracing:     otel.TracingConfig{Endpoint: "custom:4317"},
	}.WithDefaults()

	if cfg.ServiceName != "my-service" {
		t.Fatalf("expected ServiceName 'my-service', got %s", cfg.ServiceName)
	}
	if cfg.Tracing.Endpoint != "custom:4317" {
		t.Fatalf("expected Tracing.Endpoint 'custom:4317', got %s", cfg.Tracing.Endpoint)
	}
	if cfg.ServiceVersion != "0.1.0" {
		t.Fatalf("expected ServiceVersion '0.1.0', got %s", cfg.ServiceVersion)
	}
	if cfg.Tracing.Exporter != otel.ExporterOTLPGRPC {
		t.Fatalf("expected default exporter, got %s", cfg.Tracing.Exporter)
	}
	if cfg.Logging.Format != "text" {
		t.Fatalf("expected default log format, got %s", cfg.Logging.Format)
	}
	if cfg.Tracing.Sampling() != 1.0 {
		t.Fatalf("expected unset sample rate to default to 1.0, got %f", cfg.Tracing.Sampling())
	}
}

func TestConfig_WithDefaultsKeepsZeroSampleRate(t *testing.T) {
	cfg := otel.Config{
		Tracing: otel.TracingConfig{SampleRate: otel.Ratio(0)},
	}.WithDefaults()

	if cfg.Tracing.SampleRate == nil {
		t.Fatal("expected explicit sample rate to be kept")
	}
	if cfg.Tracing.Sampling() != 0 {
		t.Fatalf("expected sample rate 0, got %f", cfg.Tracing.Sampling())
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected zero sample rate to be valid, got %v", err)
	}
}
