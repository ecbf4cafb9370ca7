// Package errors 定义工具库的通用错误类型
package errors

import (
	"errors"
	"fmt"
)

// 通用错误
var (
	// ErrInvalidConfig 配置无效
	ErrInvalidConfig = errors.New("invalid configuration")
	// ErrContextCanceled 上下文被取消
	ErrContextCanceled = errors.New("context canceled")
)

// Tool 相关错误
var (
	// ErrToolNotFound 工具未找到
	ErrToolNotFound = errors.New("tool not found")
	// ErrActivityNotFound 活动未找到
	ErrActivityNotFound = errors.New("activity not found")
	// ErrInvalidActivityArgs 活动参数无效
	ErrInvalidActivityArgs = errors.New("invalid activity arguments")
	// ErrToolAlreadyRegistered 工具已注册
	ErrToolAlreadyRegistered = errors.New("tool already registered")
	// ErrInvalidTool 无效的工具
	ErrInvalidTool = errors.New("invalid tool")
	// ErrInvalidActivity 无效的活动定义
	ErrInvalidActivity = errors.New("invalid activity")
	// ErrToolPanicked 工具执行过程中发生 panic
	ErrToolPanicked = errors.New("tool panicked")
)

// 计算器错误
var (
	// ErrEvaluationFailed 表达式解析或求值失败
	ErrEvaluationFailed = errors.New("evaluation failed")
)

// SQL 相关错误
var (
	// ErrUnsupportedEngine 不支持的数据库引擎
	ErrUnsupportedEngine = errors.New("unsupported engine")
	// ErrConnectionFailed 数据库连接失败
	ErrConnectionFailed = errors.New("connection failed")
	// ErrQueryFailed 语句执行失败
	ErrQueryFailed = errors.New("query failed")
)

// Web 相关错误
var (
	// ErrFetchFailed 页面无法访问
	ErrFetchFailed = errors.New("fetch failed")
	// ErrExtractionFailed 页面内容无法解析
	ErrExtractionFailed = errors.New("extraction failed")
)

// WrapError 用错误类别包装底层错误，消息形如 "<类别>: <原因>"
//
// 返回的错误同时匹配 kind 和 cause，cause 为 nil 时返回 kind。
func WrapError(kind, cause error) error {
	if cause == nil {
		return kind
	}
	return fmt.Errorf("%w: %w", kind, cause)
}

// IsFatal 判断错误是否为致命错误（调用方无法通过重试恢复）
func IsFatal(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, ErrInvalidConfig) ||
		errors.Is(err, ErrUnsupportedEngine) ||
		errors.Is(err, ErrInvalidTool)
}

// Is 是标准库 errors.Is 的别名，避免调用方同时导入两个 errors 包
func Is(err, target error) bool {
	return errors.Is(err, target)
}
