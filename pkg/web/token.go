package web

import (
	"strings"

	"github.com/pkoukk/tiktoken-go"
)

// TokenCounter Token 计数接口
type TokenCounter interface {
	// Count 返回文本的 Token 数量
	Count(text string) int
}

// TiktokenCounter 使用 tiktoken 精确计数
type TiktokenCounter struct {
	encoding *tiktoken.Tiktoken
	model    string
}

// TiktokenOption 配置 TiktokenCounter
type TiktokenOption func(*TiktokenCounter)

// WithModel 设置编码对应的模型，如 gpt-4o、gpt-3.5-turbo
func WithModel(model string) TiktokenOption {
	return func(c *TiktokenCounter) {
		c.model = model
	}
}

// NewTiktokenCounter 创建 TiktokenCounter
//
// 未知模型降级到 cl100k_base 编码。编码表首次使用时需要联网下载。
func NewTiktokenCounter(opts ...TiktokenOption) (*TiktokenCounter, error) {
	c := &TiktokenCounter{model: "gpt-4o"}
	for _, opt := range opts {
		opt(c)
	}

	encoding, err := tiktoken.EncodingForModel(c.model)
	if err != nil {
		encoding, err = tiktoken.GetEncoding("cl100k_base")
		if err != nil {
			return nil, err
		}
	}

	c.encoding = encoding
	return c, nil
}

// Count 返回 Token 数量
func (c *TiktokenCounter) Count(text string) int {
	if c.encoding == nil {
		return NewEstimatedCounter().Count(text)
	}
	return len(c.encoding.Encode(text, nil, nil))
}

// EstimatedCounter 按字符数估算，tiktoken 不可用时使用
type EstimatedCounter struct {
	// CharsPerToken 每个 Token 的平均字符数，默认 4
	CharsPerToken float64
}

// NewEstimatedCounter 创建 EstimatedCounter
func NewEstimatedCounter() *EstimatedCounter {
	return &EstimatedCounter{CharsPerToken: 4.0}
}

// Count 返回估算的 Token 数量
func (c *EstimatedCounter) Count(text string) int {
	per := c.CharsPerToken
	if per <= 0 {
		per = 4.0
	}
	return int(float64(len(text)) / per)
}

// DefaultTokenCounter 优先使用 tiktoken，不可用时降级为估算
func DefaultTokenCounter() TokenCounter {
	counter, err := NewTiktokenCounter()
	if err != nil {
		return NewEstimatedCounter()
	}
	return counter
}

// Truncate 将文本截断到 maxTokens 以内，按行保留
//
// maxTokens <= 0 表示不限制。单行超出预算时按字符比例截断该行。
func Truncate(counter TokenCounter, text string, maxTokens int) string {
	if maxTokens <= 0 || counter.Count(text) <= maxTokens {
		return text
	}

	var kept []string
	used := 0
	for _, line := range strings.Split(text, "\n") {
		n := counter.Count(line + "\n")
		if used+n <= maxTokens {
			kept = append(kept, line)
			used += n
			continue
		}
		if remain := maxTokens - used; remain > 0 && n > 0 {
			runes := []rune(line)
			cut := len(runes) * remain / n
			if cut > 0 {
				kept = append(kept, string(runes[:cut]))
			}
		}
		break
	}
	return strings.Join(kept, "\n")
}

var _ TokenCounter = (*TiktokenCounter)(nil)
var _ TokenCounter = (*EstimatedCounter)(nil)
