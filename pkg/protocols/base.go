// Package protocols 提供将工具注册表暴露给外部编排器的协议适配
//
// 目前支持：
//   - MCP (Model Context Protocol): 每个活动映射为一个 MCP 工具
package protocols

// ProtocolType 协议类型枚举
type ProtocolType string

const (
	// ProtocolMCP Model Context Protocol
	ProtocolMCP ProtocolType = "mcp"
)

// String 返回协议类型的字符串表示
func (p ProtocolType) String() string {
	return string(p)
}

// Protocol 协议基础接口
type Protocol interface {
	// ProtocolName 返回协议名称
	ProtocolName() string
	// Version 返回协议版本
	Version() string
}

// BaseProtocol 协议基类，可嵌入到具体协议实现中
type BaseProtocol struct {
	protocolType ProtocolType
	version      string
}

// NewBaseProtocol 创建协议基类
func NewBaseProtocol(pt ProtocolType, version string) BaseProtocol {
	return BaseProtocol{
		protocolType: pt,
		version:      version,
	}
}

// ProtocolName 返回协议名称
func (p BaseProtocol) ProtocolName() string {
	return p.protocolType.String()
}

// Version 返回协议版本
func (p BaseProtocol) Version() string {
	return p.version
}
