// Package artifacts 定义工具活动的返回结果
//
// 每次活动调用都只产生一个 Artifact：成功时为 TextArtifact，
// 失败时为 ErrorArtifact。错误不会以 error 或 panic 的形式越过工具边界。
package artifacts

import (
	"encoding/json"
	"fmt"
)

// Kind 结果类型标签
type Kind string

const (
	// KindText 成功的文本结果
	KindText Kind = "text"
	// KindError 错误结果
	KindError Kind = "error"
)

// Artifact 活动执行结果
//
// 只有 TextArtifact 和 ErrorArtifact 两种实现，调用方必须按类型分支处理。
type Artifact interface {
	// Kind 返回结果类型
	Kind() Kind
	// String 返回结果载荷
	String() string

	sealed()
}

// TextArtifact 成功的文本结果
type TextArtifact struct {
	Value string
}

// NewText 创建文本结果
func NewText(value string) *TextArtifact {
	return &TextArtifact{Value: value}
}

func (a *TextArtifact) Kind() Kind     { return KindText }
func (a *TextArtifact) String() string { return a.Value }
func (a *TextArtifact) sealed()        {}

// MarshalJSON 序列化为 {"type":"text","value":...}
func (a *TextArtifact) MarshalJSON() ([]byte, error) {
	return json.Marshal(envelope{Type: KindText, Value: a.Value})
}

// ErrorArtifact 错误结果，携带人类可读的错误信息
type ErrorArtifact struct {
	Value string

	// cause 由 FromError 记录的原始错误，不参与序列化
	cause error
}

// NewError 创建错误结果
func NewError(msg string) *ErrorArtifact {
	return &ErrorArtifact{Value: msg}
}

// NewErrorf 按格式创建错误结果
func NewErrorf(format string, args ...any) *ErrorArtifact {
	return &ErrorArtifact{Value: fmt.Sprintf(format, args...)}
}

// FromError 将 error 转换为错误结果，prefix 非空时作为消息前缀
func FromError(prefix string, err error) *ErrorArtifact {
	if err == nil {
		return NewError(prefix)
	}
	msg := err.Error()
	if prefix != "" {
		msg = prefix + ": " + msg
	}
	return &ErrorArtifact{Value: msg, cause: err}
}

func (a *ErrorArtifact) Kind() Kind     { return KindError }
func (a *ErrorArtifact) String() string { return a.Value }
func (a *ErrorArtifact) sealed()        {}

// Error 使 ErrorArtifact 可以作为 error 使用
func (a *ErrorArtifact) Error() string { return a.Value }

// Unwrap 返回原始错误，使 errors.Is 可以匹配错误类别
func (a *ErrorArtifact) Unwrap() error { return a.cause }

// MarshalJSON 序列化为 {"type":"error","value":...}
func (a *ErrorArtifact) MarshalJSON() ([]byte, error) {
	return json.Marshal(envelope{Type: KindError, Value: a.Value})
}

type envelope struct {
	Type  Kind   `json:"type"`
	Value string `json:"value"`
}

// IsError 判断结果是否为错误
func IsError(a Artifact) bool {
	return a == nil || a.Kind() == KindError
}

// Unmarshal 从 JSON 还原 Artifact
func Unmarshal(data []byte) (Artifact, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, err
	}
	switch env.Type {
	case KindText:
		return NewText(env.Value), nil
	case KindError:
		return NewError(env.Value), nil
	default:
		return nil, fmt.Errorf("unknown artifact type: %q", env.Type)
	}
}

// compile-time interface check
var _ Artifact = (*TextArtifact)(nil)
var _ Artifact = (*ErrorArtifact)(nil)
