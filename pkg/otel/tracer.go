// Package otel 提供 OpenTelemetry 可观测性支持
//
// 为活动调度器提供追踪、指标和结构化日志。工具处理函数通过
// SpanFromContext 取得调度器创建的 Span，补充引擎、URL 等属性。
package otel

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Tracer 追踪器接口
type Tracer interface {
	// Start 开始一个新的 Span，返回携带该 Span 的上下文
	Start(ctx context.Context, name string, opts ...SpanOption) (context.Context, Span)
}

// Span 单次调用的追踪片段
type Span interface {
	End()
	SetAttributes(attrs ...attribute.KeyValue)
	AddEvent(name string, attrs ...attribute.KeyValue)
	RecordError(err error)
	SetStatus(code StatusCode, description string)
	SpanContext() SpanContext
}

// SpanContext Span 标识
type SpanContext struct {
	TraceID string
	SpanID  string
}

// StatusCode Span 状态码
type StatusCode int

const (
	// StatusUnset 未设置
	StatusUnset StatusCode = iota
	// StatusOK 活动返回 TextArtifact
	StatusOK
	// StatusError 活动返回 ErrorArtifact
	StatusError
)

var statusCodes = map[StatusCode]codes.Code{
	StatusUnset: codes.Unset,
	StatusOK:    codes.Ok,
	StatusError: codes.Error,
}

// SpanKind Span 类型
type SpanKind int

const (
	// SpanKindInternal 进程内调度
	SpanKindInternal SpanKind = iota
	// SpanKindServer 处理外部协议请求（如 MCP）
	SpanKindServer
	// SpanKindClient 访问外部资源（数据库、网页）
	SpanKindClient
)

var spanKinds = map[SpanKind]trace.SpanKind{
	SpanKindInternal: trace.SpanKindInternal,
	SpanKindServer:   trace.SpanKindServer,
	SpanKindClient:   trace.SpanKindClient,
}

// SpanOption Span 配置选项
type SpanOption func(*SpanConfig)

// SpanConfig Span 配置
type SpanConfig struct {
	Kind       SpanKind
	Attributes []attribute.KeyValue
}

// WithSpanKind 设置 Span 类型
func WithSpanKind(kind SpanKind) SpanOption {
	return func(cfg *SpanConfig) {
		cfg.Kind = kind
	}
}

// WithAttributes 设置 Span 属性
func WithAttributes(attrs ...attribute.KeyValue) SpanOption {
	return func(cfg *SpanConfig) {
		cfg.Attributes = append(cfg.Attributes, attrs...)
	}
}

// OTelTracer 基于 trace.Tracer 的实现
type OTelTracer struct {
	tracer trace.Tracer
}

// NewTracer 创建 OpenTelemetry 追踪器
func NewTracer(tracer trace.Tracer) *OTelTracer {
	return &OTelTracer{tracer: tracer}
}

// Start 开始一个新的 Span
func (t *OTelTracer) Start(ctx context.Context, name string, opts ...SpanOption) (context.Context, Span) {
	var cfg SpanConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	kind, ok := spanKinds[cfg.Kind]
	if !ok {
		kind = trace.SpanKindInternal
	}
	ctx, span := t.tracer.Start(ctx, name,
		trace.WithSpanKind(kind),
		trace.WithAttributes(cfg.Attributes...),
	)
	return ctx, &OTelSpan{span: span}
}

// SpanFromContext 返回上下文中正在记录的 Span，没有时返回 nil
//
// 追踪关闭（NoopTracer）时始终返回 nil，调用方据此跳过属性设置。
func SpanFromContext(ctx context.Context) Span {
	if ctx == nil {
		return nil
	}
	span := trace.SpanFromContext(ctx)
	if !span.SpanContext().IsValid() {
		return nil
	}
	return &OTelSpan{span: span}
}

// OTelSpan trace.Span 的包装
type OTelSpan struct {
	span trace.Span
}

func (s *OTelSpan) End() { s.span.End() }

func (s *OTelSpan) SetAttributes(attrs ...attribute.KeyValue) { s.span.SetAttributes(attrs...) }

func (s *OTelSpan) AddEvent(name string, attrs ...attribute.KeyValue) {
	s.span.AddEvent(name, trace.WithAttributes(attrs...))
}

func (s *OTelSpan) RecordError(err error) { s.span.RecordError(err) }

// SetStatus 设置状态，未知状态码按 Unset 处理
func (s *OTelSpan) SetStatus(code StatusCode, description string) {
	s.span.SetStatus(statusCodes[code], description)
}

// SpanContext 返回十六进制编码的 Trace ID 与 Span ID
func (s *OTelSpan) SpanContext() SpanContext {
	sc := s.span.SpanContext()
	return SpanContext{
		TraceID: sc.TraceID().String(),
		SpanID:  sc.SpanID().String(),
	}
}

// NoopTracer 追踪关闭时使用
type NoopTracer struct{}

// NewNoopTracer 创建空实现追踪器
func NewNoopTracer() *NoopTracer {
	return &NoopTracer{}
}

// Start 原样返回上下文
func (t *NoopTracer) Start(ctx context.Context, name string, opts ...SpanOption) (context.Context, Span) {
	return ctx, NoopSpan{}
}

// NoopSpan 空实现 Span
type NoopSpan struct{}

func (NoopSpan) End()                                    {}
func (NoopSpan) SetAttributes(...attribute.KeyValue)     {}
func (NoopSpan) AddEvent(string, ...attribute.KeyValue)  {}
func (NoopSpan) RecordError(error)                       {}
func (NoopSpan) SetStatus(StatusCode, string)            {}
func (NoopSpan) SpanContext() SpanContext                { return SpanContext{} }

var (
	_ Tracer = (*OTelTracer)(nil)
	_ Tracer = (*NoopTracer)(nil)
	_ Span   = (*OTelSpan)(nil)
	_ Span   = NoopSpan{}
)
