package tools

import (
	"fmt"
	"strings"
	"text/template"
)

// RenderDescription 渲染活动描述
//
// 描述按 text/template 解析，模板数据来自 TemplatedTool.TemplateArgs。
// 模板解析或执行失败时返回原始描述。
func RenderDescription(t Tool, a Activity) string {
	if !strings.Contains(a.Description, "{{") {
		return a.Description
	}

	var data map[string]any
	if tt, ok := t.(TemplatedTool); ok {
		data = tt.TemplateArgs()
	}

	tmpl, err := template.New(a.Name).Option("missingkey=zero").Parse(a.Description)
	if err != nil {
		return a.Description
	}

	var sb strings.Builder
	if err := tmpl.Execute(&sb, data); err != nil {
		return a.Description
	}
	return sb.String()
}

// DescribeTools 生成工具列表的描述
func DescribeTools(tools []Tool) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("Available Tools (%d):\n\n", len(tools)))

	for i, tool := range tools {
		sb.WriteString(fmt.Sprintf("%d. %s\n", i+1, tool.Name()))

		for _, def := range ToDefinitions(tool) {
			sb.WriteString(fmt.Sprintf("   - %s: %s\n", def.Name, def.Description))
			for _, p := range def.Parameters {
				sb.WriteString(fmt.Sprintf("     * %s (%s): %s\n", p.Name, p.Type, p.Description))
			}
		}
		sb.WriteString("\n")
	}

	return sb.String()
}
