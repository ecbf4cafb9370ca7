package otel

// 预定义的指标名称
// 遵循 OpenTelemetry 语义约定
const (
	MetricToolCalls        = "tool.calls"         // 计数器: 活动调用次数
	MetricToolCallDuration = "tool.call.duration" // 直方图: 活动调用时间(ms)
	MetricToolErrors       = "tool.errors"        // 计数器: 返回 ErrorArtifact 的次数
	MetricToolInFlight     = "tool.in_flight"     // 仪表: 正在执行的调用数
)

// MetricUnit 指标单位
type MetricUnit string

const (
	UnitNone         MetricUnit = ""
	UnitMilliseconds MetricUnit = "ms"
	UnitCount        MetricUnit = "1"
)

// MetricDescription 指标描述
type MetricDescription struct {
	Name        string
	Description string
	Unit        MetricUnit
	Type        string // counter, histogram, gauge
}

// PredefinedMetrics 预定义指标列表
var PredefinedMetrics = []MetricDescription{
	{MetricToolCalls, "Number of activity invocations", UnitCount, "counter"},
	{MetricToolCallDuration, "Duration of activity invocations", UnitMilliseconds, "histogram"},
	{MetricToolErrors, "Number of invocations returning an error artifact", UnitCount, "counter"},
	{MetricToolInFlight, "Number of invocations currently running", UnitCount, "gauge"},
}

// describe 查找预定义指标描述
func describe(name string) (MetricDescription, bool) {
	for _, d := range PredefinedMetrics {
		if d.Name == name {
			return d, true
		}
	}
	return MetricDescription{}, false
}
