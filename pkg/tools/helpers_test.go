package tools_test

import (
	"context"

	"github.com/easyops/helloagents-tools/pkg/artifacts"
	"github.com/easyops/helloagents-tools/pkg/tools"
)

// stubTool 测试用工具，echo 活动原样返回 text 参数
type stubTool struct {
	name       string
	activities []tools.Activity
	args       map[string]any
}

func (s *stubTool) Name() string { return s.name }
func (s *stubTool) Activities() []tools.Activity { return s.activities }
func (s *stubTool) TemplateArgs() map[string]any { return s.args }

func echo(_ context.Context, p tools.Params) artifacts.Artifact {
	v, _ := p.String("text")
	return artifacts.NewText(v)
}

func newStubTool(name string) *stubTool {
	return &stubTool{
		name: name,
		activities: []tools.Activity{
			{
				Name:        "echo",
				Description: "Echo the text back",
				Schema:      tools.Schema{tools.StringParam("text", "Text to echo")},
				Handler:     echo,
			},
		},
	}
}

func withActivity(t *stubTool, a tools.Activity) *stubTool {
	t.activities = append(t.activities, a)
	return t
}
