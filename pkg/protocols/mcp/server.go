// Package mcp 将工具注册表以 MCP 协议暴露给外部客户端
//
// 每个活动注册为一个名为 "<tool>_<activity>" 的 MCP 工具，
// 调用通过 Dispatcher 执行：TextArtifact 映射为文本结果，
// ErrorArtifact 映射为 isError 结果。
//
// 使用示例:
//
//	reg, _ := builtin.NewRegistry(cfg)
//	srv := mcp.NewServer(reg, tools.NewDispatcher(reg), "helloagents-tools", "1.0.0")
//	srv.ServeStdio(ctx)
package mcp

import (
	"context"
	"encoding/json"
	"os"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/easyops/helloagents-tools/pkg/artifacts"
	"github.com/easyops/helloagents-tools/pkg/protocols"
	"github.com/easyops/helloagents-tools/pkg/tools"
)

// Server MCP 服务器
type Server struct {
	protocols.BaseProtocol

	mcp        *server.MCPServer
	dispatcher *tools.Dispatcher
	names      []string
}

// ToolName 返回活动对应的 MCP 工具名
func ToolName(tool, activity string) string {
	return tool + "_" + activity
}

// NewServer 创建 MCP 服务器并注册注册表中的全部活动
func NewServer(registry *tools.Registry, dispatcher *tools.Dispatcher, name, version string) *Server {
	s := &Server{
		BaseProtocol: protocols.NewBaseProtocol(protocols.ProtocolMCP, version),
		mcp:          server.NewMCPServer(name, version, server.WithToolCapabilities(false)),
		dispatcher:   dispatcher,
	}

	for _, def := range registry.Definitions() {
		s.addActivity(def)
	}
	return s
}

// addActivity 注册单个活动
func (s *Server) addActivity(def tools.ActivityDefinition) {
	opts := []mcp.ToolOption{mcp.WithDescription(def.Description)}
	for _, p := range def.Parameters {
		propOpts := []mcp.PropertyOption{mcp.Required(), mcp.Description(p.Description)}
		switch p.Type {
		case tools.TypeNumber, tools.TypeInteger:
			opts = append(opts, mcp.WithNumber(p.Name, propOpts...))
		case tools.TypeBoolean:
			opts = append(opts, mcp.WithBoolean(p.Name, propOpts...))
		default:
			opts = append(opts, mcp.WithString(p.Name, propOpts...))
		}
	}

	name := ToolName(def.Tool, def.Name)
	toolName, activity := def.Tool, def.Name
	s.mcp.AddTool(mcp.NewTool(name, opts...), func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		params := tools.NewParams(req.GetArguments())
		return toResult(s.dispatcher.Invoke(ctx, toolName, activity, params)), nil
	})
	s.names = append(s.names, name)
}

// toResult 将 Artifact 转换为 MCP 工具结果
func toResult(a artifacts.Artifact) *mcp.CallToolResult {
	if artifacts.IsError(a) {
		msg := "error: empty result"
		if a != nil {
			msg = a.String()
		}
		return mcp.NewToolResultError(msg)
	}
	return mcp.NewToolResultText(a.String())
}

// ToolNames 返回已注册的 MCP 工具名（按活动定义顺序）
func (s *Server) ToolNames() []string {
	out := make([]string, len(s.names))
	copy(out, s.names)
	return out
}

// HandleMessage 处理单条 JSON-RPC 消息
func (s *Server) HandleMessage(ctx context.Context, msg json.RawMessage) mcp.JSONRPCMessage {
	return s.mcp.HandleMessage(ctx, msg)
}

// ServeStdio 在标准输入输出上提供服务，直到 ctx 取消或输入结束
func (s *Server) ServeStdio(ctx context.Context) error {
	return server.NewStdioServer(s.mcp).Listen(ctx, os.Stdin, os.Stdout)
}

var _ protocols.Protocol = (*Server)(nil)
