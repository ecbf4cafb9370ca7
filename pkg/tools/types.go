package tools

import (
	"fmt"

	"github.com/google/jsonschema-go/jsonschema"
)

// 参数基础类型
const (
	TypeString  = "string"
	TypeNumber  = "number"
	TypeInteger = "integer"
	TypeBoolean = "boolean"
)

// Parameter 单个参数声明
type Parameter struct {
	// Name 参数名（字面量键）
	Name string `json:"name"`
	// Description 参数描述
	Description string `json:"description,omitempty"`
	// Type 基础类型: "string", "number", "integer", "boolean"
	Type string `json:"type"`
}

// Schema 有序的参数列表
//
// 所有声明的参数均为必需参数，不允许出现未声明的参数。
type Schema []Parameter

// StringParam 创建字符串参数声明
func StringParam(name, description string) Parameter {
	return Parameter{Name: name, Description: description, Type: TypeString}
}

// Names 返回按声明顺序排列的参数名
func (s Schema) Names() []string {
	names := make([]string, 0, len(s))
	for _, p := range s {
		names = append(names, p.Name)
	}
	return names
}

// JSONSchema 转换为 JSON Schema 对象描述
func (s Schema) JSONSchema() *jsonschema.Schema {
	props := make(map[string]*jsonschema.Schema, len(s))
	for _, p := range s {
		props[p.Name] = &jsonschema.Schema{
			Type:        p.Type,
			Description: p.Description,
		}
	}
	return &jsonschema.Schema{
		Type:       "object",
		Properties: props,
		Required:   s.Names(),
		// 序列化时按声明顺序输出 properties
		PropertyOrder: s.Names(),
		// false schema: 禁止额外属性
		AdditionalProperties: &jsonschema.Schema{Not: &jsonschema.Schema{}},
	}
}

// validate 检查参数声明本身是否合法
func (s Schema) validate() error {
	seen := make(map[string]struct{}, len(s))
	for _, p := range s {
		if p.Name == "" {
			return fmt.Errorf("parameter name is empty")
		}
		if _, dup := seen[p.Name]; dup {
			return fmt.Errorf("duplicate parameter: %s", p.Name)
		}
		seen[p.Name] = struct{}{}
		switch p.Type {
		case TypeString, TypeNumber, TypeInteger, TypeBoolean:
		default:
			return fmt.Errorf("parameter %s: unsupported type %q", p.Name, p.Type)
		}
	}
	return nil
}

// ActivityDefinition 活动定义（用于序列化给编排器）
type ActivityDefinition struct {
	// Tool 所属工具名称
	Tool string `json:"tool"`
	// Name 活动名称
	Name string `json:"name"`
	// Description 渲染后的活动描述
	Description string `json:"description"`
	// Parameters 有序参数列表
	Parameters Schema `json:"parameters"`
}

// JSONSchema 返回活动参数的 JSON Schema
func (d ActivityDefinition) JSONSchema() *jsonschema.Schema {
	return d.Parameters.JSONSchema()
}

// ToDefinitions 将工具的全部活动转换为定义列表
func ToDefinitions(t Tool) []ActivityDefinition {
	activities := t.Activities()
	defs := make([]ActivityDefinition, 0, len(activities))
	for _, a := range activities {
		defs = append(defs, ActivityDefinition{
			Tool:        t.Name(),
			Name:        a.Name,
			Description: RenderDescription(t, a),
			Parameters:  a.Schema,
		})
	}
	return defs
}
