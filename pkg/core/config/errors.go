package config

import (
	"fmt"

	"github.com/easyops/helloagents-tools/pkg/core/errors"
)

// 配置验证相关错误
var (
	// ErrUnsupportedFormat 配置文件格式不支持
	ErrUnsupportedFormat = fmt.Errorf("%w: unsupported config file format", errors.ErrInvalidConfig)
	// ErrInvalidFetcher 抓取器类型无效
	ErrInvalidFetcher = fmt.Errorf("%w: fetcher must be http or browser", errors.ErrInvalidConfig)
	// ErrInvalidMaxTokens Token 数无效
	ErrInvalidMaxTokens = fmt.Errorf("%w: max content tokens must not be negative", errors.ErrInvalidConfig)
	// ErrInvalidTimeout 超时时间无效
	ErrInvalidTimeout = fmt.Errorf("%w: invalid timeout value", errors.ErrInvalidConfig)
)
