package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/google/uuid"

	"github.com/easyops/helloagents-tools/pkg/artifacts"
	"github.com/easyops/helloagents-tools/pkg/core/errors"
	"github.com/easyops/helloagents-tools/pkg/otel"
)

// Dispatcher 活动调度器
//
// 根据工具名和活动名查找处理函数，按参数 Schema 校验后调用。
// 每次调用都只返回一个 Artifact，错误、panic 和 nil 结果都会被转换为 ErrorArtifact。
// 调度器不做重试，失败由编排器自行决定是否重试。
type Dispatcher struct {
	registry *Registry
	timeout  time.Duration
	tracer   otel.Tracer
	metrics  otel.Metrics
	logger   otel.Logger

	schemas  sync.Map // key -> resolvedSchema
	inFlight atomic.Int64
}

// DispatcherOption 调度器配置选项
type DispatcherOption func(*Dispatcher)

// NewDispatcher 创建活动调度器
func NewDispatcher(registry *Registry, opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{
		registry: registry,
		tracer:   otel.NewNoopTracer(),
		metrics:  otel.NewNoopMetrics(),
		logger:   otel.NewNoopLogger(),
	}
	WithProvider(otel.Global())(d)

	for _, opt := range opts {
		opt(d)
	}

	return d
}

// WithTimeout 设置调用方超时时间，0 表示不限制
func WithTimeout(timeout time.Duration) DispatcherOption {
	return func(d *Dispatcher) {
		d.timeout = timeout
	}
}

// WithTracer 设置追踪器
func WithTracer(tracer otel.Tracer) DispatcherOption {
	return func(d *Dispatcher) {
		if tracer != nil {
			d.tracer = tracer
		}
	}
}

// WithMetrics 设置指标收集器
func WithMetrics(metrics otel.Metrics) DispatcherOption {
	return func(d *Dispatcher) {
		if metrics != nil {
			d.metrics = metrics
		}
	}
}

// WithLogger 设置日志器
func WithLogger(logger otel.Logger) DispatcherOption {
	return func(d *Dispatcher) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// WithProvider 从可观测性提供者获取追踪、指标和日志
func WithProvider(p *otel.Provider) DispatcherOption {
	return func(d *Dispatcher) {
		if p == nil {
			return
		}
		d.tracer = p.Tracer()
		d.metrics = p.Metrics()
		d.logger = p.Logger()
	}
}

// Invoke 调用活动
//
// 参数:
//   - ctx: 上下文
//   - toolName: 工具名称
//   - activity: 活动名称
//   - params: 调用参数
//
// 返回:
//   - artifacts.Artifact: TextArtifact 或 ErrorArtifact，永不为 nil
func (d *Dispatcher) Invoke(ctx context.Context, toolName, activity string, params Params) artifacts.Artifact {
	callID := uuid.NewString()
	start := time.Now()

	ctx, span := d.tracer.Start(ctx, "tool.invoke",
		otel.WithSpanKind(otel.SpanKindInternal),
		otel.WithAttributes(
			otel.ToolName(toolName),
			otel.ToolActivity(activity),
			otel.ToolCallID(callID),
		),
	)
	defer span.End()

	d.metrics.Gauge(otel.MetricToolInFlight).Set(ctx, float64(d.inFlight.Add(1)))
	defer func() {
		d.metrics.Gauge(otel.MetricToolInFlight).Set(ctx, float64(d.inFlight.Add(-1)))
	}()

	result := d.invoke(ctx, toolName, activity, params)

	elapsed := time.Since(start)
	attrs := []otel.Attr{
		otel.NewAttr(otel.AttrToolName, toolName),
		otel.NewAttr(otel.AttrToolActivity, activity),
	}
	d.metrics.Counter(otel.MetricToolCalls).Add(ctx, 1, attrs...)
	d.metrics.Histogram(otel.MetricToolCallDuration).Record(ctx, float64(elapsed.Milliseconds()), attrs...)

	span.SetAttributes(
		otel.ToolResultKind(string(result.Kind())),
		otel.ToolDuration(elapsed.Milliseconds()),
	)

	log := d.logger.WithContext(ctx).WithFields(map[string]any{
		"tool":     toolName,
		"activity": activity,
		"call_id":  callID,
	})
	if artifacts.IsError(result) {
		d.metrics.Counter(otel.MetricToolErrors).Add(ctx, 1, attrs...)
		span.AddEvent("activity.error", otel.ErrorAttrs("artifact", result.String())...)
		span.SetStatus(otel.StatusError, result.String())
		if ea, ok := result.(*artifacts.ErrorArtifact); ok && errors.IsFatal(ea) {
			log.Error("activity failed on misconfiguration", "error", result.String(), "duration", elapsed)
		} else {
			log.Warn("activity returned error", "error", result.String(), "duration", elapsed)
		}
	} else {
		span.SetStatus(otel.StatusOK, "")
		log.Debug("activity completed", "duration", elapsed, "bytes", len(result.String()))
	}

	return result
}

func (d *Dispatcher) invoke(ctx context.Context, toolName, activity string, params Params) (result artifacts.Artifact) {
	tool, a, err := d.registry.Activity(toolName, activity)
	if err != nil {
		return artifacts.FromError(fmt.Sprintf("error invoking %s.%s", toolName, activity), err)
	}

	if err := d.validate(tool, a, params); err != nil {
		return artifacts.FromError("error validating parameters",
			errors.WrapError(errors.ErrInvalidActivityArgs, err))
	}

	if d.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.timeout)
		defer cancel()
	}

	select {
	case <-ctx.Done():
		return artifacts.FromError("error invoking "+toolName+"."+activity, errors.ErrContextCanceled)
	default:
	}

	defer func() {
		if r := recover(); r != nil {
			result = artifacts.FromError("error invoking "+toolName+"."+activity,
				fmt.Errorf("%w: %v", errors.ErrToolPanicked, r))
		}
	}()

	result = a.Handler(ctx, params)
	if result == nil {
		result = artifacts.NewErrorf("error invoking %s.%s: handler returned no result", toolName, activity)
	}
	return result
}

// resolvedSchema 缓存的解析结果，gen 为解析时的注册表代数
type resolvedSchema struct {
	gen      uint64
	resolved *jsonschema.Resolved
}

// validate 按活动 Schema 校验参数
//
// 解析后的 Schema 按活动缓存，注册表发生变更后重新解析。
func (d *Dispatcher) validate(tool Tool, a Activity, params Params) error {
	key := tool.Name() + "." + a.Name
	gen := d.registry.Generation()

	var resolved *jsonschema.Resolved
	if cached, ok := d.schemas.Load(key); ok && cached.(resolvedSchema).gen == gen {
		resolved = cached.(resolvedSchema).resolved
	} else {
		rs, err := a.Schema.JSONSchema().Resolve(nil)
		if err != nil {
			return err
		}
		d.schemas.Store(key, resolvedSchema{gen: gen, resolved: rs})
		resolved = rs
	}

	values := params.Values
	if values == nil {
		values = map[string]any{}
	}
	return resolved.Validate(values)
}

// InvokeRaw 使用 JSON 编码的 {"values": {...}} 参数调用活动
func (d *Dispatcher) InvokeRaw(ctx context.Context, toolName, activity string, raw json.RawMessage) artifacts.Artifact {
	var params Params
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &params); err != nil {
			return artifacts.FromError("error decoding parameters",
				errors.WrapError(errors.ErrInvalidActivityArgs, err))
		}
	}
	return d.Invoke(ctx, toolName, activity, params)
}

// Call 活动调用请求
type Call struct {
	// ID 调用唯一标识
	ID string
	// Tool 工具名称
	Tool string
	// Activity 活动名称
	Activity string
	// Params 参数
	Params Params
}

// InvokeBatch 批量调用活动
//
// 按顺序执行，上下文取消后剩余调用均返回取消错误。
func (d *Dispatcher) InvokeBatch(ctx context.Context, calls []Call) []artifacts.Artifact {
	results := make([]artifacts.Artifact, len(calls))

	for i, call := range calls {
		select {
		case <-ctx.Done():
			for j := i; j < len(calls); j++ {
				results[j] = artifacts.FromError("error invoking "+calls[j].Tool+"."+calls[j].Activity,
					errors.ErrContextCanceled)
			}
			return results
		default:
			results[i] = d.Invoke(ctx, call.Tool, call.Activity, call.Params)
		}
	}

	return results
}
