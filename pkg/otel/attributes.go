package otel

import "go.opentelemetry.io/otel/attribute"

// 预定义的语义属性键
const (
	// 工具调用相关属性
	AttrToolName       = "tool.name"
	AttrToolActivity   = "tool.activity"
	AttrToolCallID     = "tool.call_id"
	AttrToolResultKind = "tool.result_kind"
	AttrToolDuration   = "tool.duration_ms"

	// 外部依赖相关属性
	AttrDBDriver = "db.system"
	AttrHTTPURL  = "http.url"

	// Error 相关属性
	AttrErrorType    = "error.type"
	AttrErrorMessage = "error.message"
)

// ToolName 创建工具名称属性
func ToolName(name string) attribute.KeyValue {
	return attribute.String(AttrToolName, name)
}

// ToolActivity 创建活动名称属性
func ToolActivity(name string) attribute.KeyValue {
	return attribute.String(AttrToolActivity, name)
}

// ToolCallID 创建调用 ID 属性
func ToolCallID(id string) attribute.KeyValue {
	return attribute.String(AttrToolCallID, id)
}

// ToolResultKind 创建结果类型属性
func ToolResultKind(kind string) attribute.KeyValue {
	return attribute.String(AttrToolResultKind, kind)
}

// ToolDuration 创建工具执行时间属性（毫秒）
func ToolDuration(ms int64) attribute.KeyValue {
	return attribute.Int64(AttrToolDuration, ms)
}

// DBDriver 创建数据库驱动属性
func DBDriver(driver string) attribute.KeyValue {
	return attribute.String(AttrDBDriver, driver)
}

// HTTPURL 创建 URL 属性
func HTTPURL(url string) attribute.KeyValue {
	return attribute.String(AttrHTTPURL, url)
}

// ErrorAttrs 创建错误属性
func ErrorAttrs(errType, message string) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(AttrErrorType, errType),
		attribute.String(AttrErrorMessage, message),
	}
}
