// Package tools 提供工具与活动的接口定义、注册表和调度器
package tools

import (
	"context"

	"github.com/easyops/helloagents-tools/pkg/artifacts"
)

// Tool 定义工具的核心接口
//
// 一个工具对外暴露一个或多个具名活动（Activity）。外部编排器读取
// 活动定义决定何时调用哪个活动，并按参数 Schema 构造参数。
type Tool interface {
	// Name 返回工具唯一名称
	Name() string

	// Activities 返回工具声明的全部活动
	// 活动定义在注册时确定，此后不再改变
	Activities() []Activity
}

// TemplatedTool 活动描述中包含模板变量的工具
//
// Activity.Description 会作为 text/template 渲染，模板数据由 TemplateArgs 提供。
type TemplatedTool interface {
	Tool
	// TemplateArgs 返回描述模板的渲染参数
	TemplateArgs() map[string]any
}

// Handler 活动处理函数
//
// 处理函数不得返回 nil，任何失败都应转换为 ErrorArtifact 返回。
type Handler func(ctx context.Context, params Params) artifacts.Artifact

// Activity 活动描述符
type Activity struct {
	// Name 活动名称，在工具内唯一
	Name string
	// Description 活动描述（可为模板）
	Description string
	// Schema 参数 Schema
	Schema Schema
	// Handler 处理函数
	Handler Handler
}

// Params 单次调用的参数
//
// 对应编排器传入的 {"values": {...}} 结构。
type Params struct {
	Values map[string]any `json:"values"`
}

// NewParams 由键值对创建参数
func NewParams(values map[string]any) Params {
	if values == nil {
		values = map[string]any{}
	}
	return Params{Values: values}
}

// String 读取字符串参数
func (p Params) String(name string) (string, bool) {
	v, ok := p.Values[name]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// findActivity 在工具中查找活动
func findActivity(t Tool, name string) (Activity, bool) {
	for _, a := range t.Activities() {
		if a.Name == name {
			return a, true
		}
	}
	return Activity{}, false
}
