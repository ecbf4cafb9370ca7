// Package config 提供配置加载和管理功能
//
// 加载顺序（后者覆盖前者）：内置默认值 → 配置文件 → HELLOAGENTS_TOOLS_ 前缀环境变量
// → 工具约定的裸环境变量（ENGINE_URL、ENGINE_NAME、INCLUDE_LINKS）。
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/easyops/helloagents-tools/pkg/otel"
)

// EnvPrefix 环境变量前缀
const EnvPrefix = "HELLOAGENTS_TOOLS_"

// 抓取器类型
const (
	FetcherHTTP    = "http"
	FetcherBrowser = "browser"
)

// Config 全局配置结构
type Config struct {
	// SQL SQL 客户端配置
	SQL SQLConfig `koanf:"sql"`
	// WebScraper 网页抓取配置
	WebScraper WebScraperConfig `koanf:"web_scraper"`
	// Dispatch 调度配置
	Dispatch DispatchConfig `koanf:"dispatch"`
	// Observability 可观测性配置
	Observability otel.Config `koanf:"observability"`
}

// SQLConfig SQL 客户端配置
type SQLConfig struct {
	// EngineURL 引擎 URL，如 sqlite:///data.db、postgresql://u:p@host/db
	EngineURL string `koanf:"engine_url"`
	// EngineName 引擎名称，仅用于活动描述
	EngineName string `koanf:"engine_name"`
}

// WebScraperConfig 网页抓取配置
type WebScraperConfig struct {
	// IncludeLinks 正文是否保留超链接
	IncludeLinks bool `koanf:"include_links"`
	// Fetcher 抓取器类型（http, browser）
	Fetcher string `koanf:"fetcher"`
	// UserAgent HTTP 抓取使用的 User-Agent
	UserAgent string `koanf:"user_agent"`
	// BrowserBin 浏览器可执行文件路径，为空时自动查找
	BrowserBin string `koanf:"browser_bin"`
	// MaxContentTokens get_content 的最大 Token 数，0 表示不限制
	MaxContentTokens int `koanf:"max_content_tokens"`
}

// DispatchConfig 调度配置
type DispatchConfig struct {
	// Timeout 单次调用超时，0 表示不限制
	Timeout time.Duration `koanf:"timeout"`
}

// Default 返回默认配置
func Default() *Config {
	return &Config{
		WebScraper: WebScraperConfig{
			IncludeLinks: true,
			Fetcher:      FetcherHTTP,
		},
		Observability: otel.DefaultConfig(),
	}
}

// defaults koanf 形式的默认值
func defaults() map[string]any {
	obs := otel.DefaultConfig()
	return map[string]any{
		"web_scraper.include_links":              true,
		"web_scraper.fetcher":                    FetcherHTTP,
		"observability.enabled":                  obs.Enabled,
		"observability.service_name":             obs.ServiceName,
		"observability.service_version":          obs.ServiceVersion,
		"observability.environment":              obs.Environment,
		"observability.tracing.enabled":          obs.Tracing.Enabled,
		"observability.tracing.exporter":         string(obs.Tracing.Exporter),
		"observability.tracing.endpoint":         obs.Tracing.Endpoint,
		"observability.tracing.insecure":         obs.Tracing.Insecure,
		"observability.tracing.sample_rate":      obs.Tracing.Sampling(),
		"observability.tracing.timeout":          obs.Tracing.Timeout.String(),
		"observability.metrics.enabled":          obs.Metrics.Enabled,
		"observability.metrics.endpoint":         obs.Metrics.Endpoint,
		"observability.metrics.insecure":         obs.Metrics.Insecure,
		"observability.metrics.interval":         obs.Metrics.Interval.String(),
		"observability.logging.level":            obs.Logging.Level,
		"observability.logging.format":           obs.Logging.Format,
		"observability.logging.include_trace_id": obs.Logging.IncludeTraceID,
	}
}

// sections 环境变量名前缀到配置键前缀的映射，较长前缀在前
var sections = []struct{ env, key string }{
	{"observability_tracing_", "observability.tracing."},
	{"observability_metrics_", "observability.metrics."},
	{"observability_logging_", "observability.logging."},
	{"observability_", "observability."},
	{"web_scraper_", "web_scraper."},
	{"dispatch_", "dispatch."},
	{"sql_", "sql."},
}

// toolEnv 工具约定的裸环境变量
var toolEnv = map[string]string{
	"ENGINE_URL":    "sql.engine_url",
	"ENGINE_NAME":   "sql.engine_name",
	"INCLUDE_LINKS": "web_scraper.include_links",
}

// Loader 配置加载器
type Loader struct {
	k *koanf.Koanf
}

// NewLoader 创建配置加载器
func NewLoader() *Loader {
	return &Loader{
		k: koanf.New("."),
	}
}

// LoadDefaults 加载内置默认值
func (l *Loader) LoadDefaults() error {
	return l.k.Load(confmap.Provider(defaults(), "."), nil)
}

// LoadFile 从文件加载配置
func (l *Loader) LoadFile(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil // 文件不存在不报错，使用默认值
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return l.k.Load(file.Provider(path), yaml.Parser())
	case ".json":
		return l.k.Load(file.Provider(path), json.Parser())
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}
}

// LoadEnv 从带前缀的环境变量加载配置
func (l *Loader) LoadEnv(prefix string) error {
	return l.k.Load(env.Provider(prefix, ".", func(s string) string {
		// HELLOAGENTS_TOOLS_SQL_ENGINE_URL -> sql.engine_url
		return envKey(strings.TrimPrefix(s, prefix))
	}), nil)
}

// LoadToolEnv 加载工具约定的裸环境变量
func (l *Loader) LoadToolEnv() error {
	return l.k.Load(env.Provider("", ".", func(s string) string {
		return toolEnv[s]
	}), nil)
}

// envKey 将去掉前缀的环境变量名转换为配置键，未知分段返回空串（忽略）
func envKey(s string) string {
	s = strings.ToLower(s)
	for _, sec := range sections {
		if strings.HasPrefix(s, sec.env) && len(s) > len(sec.env) {
			return sec.key + s[len(sec.env):]
		}
	}
	return ""
}

// Unmarshal 解析配置到结构体
func (l *Loader) Unmarshal(cfg *Config) error {
	return l.k.Unmarshal("", cfg)
}

// Get 获取配置值
func (l *Loader) Get(key string) any {
	return l.k.Get(key)
}

// GetString 获取字符串配置值
func (l *Loader) GetString(key string) string {
	return l.k.String(key)
}

// GetBool 获取布尔配置值
func (l *Loader) GetBool(key string) bool {
	return l.k.Bool(key)
}

// Load 加载完整配置
func Load(configPath string) (*Config, error) {
	loader := NewLoader()

	if err := loader.LoadDefaults(); err != nil {
		return nil, err
	}

	if configPath != "" {
		if err := loader.LoadFile(configPath); err != nil {
			return nil, err
		}
	}

	// 环境变量优先级更高
	if err := loader.LoadEnv(EnvPrefix); err != nil {
		return nil, err
	}
	if err := loader.LoadToolEnv(); err != nil {
		return nil, err
	}

	cfg := &Config{}
	if err := loader.Unmarshal(cfg); err != nil {
		return nil, err
	}

	applyDefaults(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyDefaults 应用默认配置值
func applyDefaults(cfg *Config) {
	if cfg.WebScraper.Fetcher == "" {
		cfg.WebScraper.Fetcher = FetcherHTTP
	}
	cfg.Observability = cfg.Observability.WithDefaults()
}

// Validate 验证配置
func (c *Config) Validate() error {
	switch c.WebScraper.Fetcher {
	case FetcherHTTP, FetcherBrowser:
	default:
		return fmt.Errorf("%w: %q", ErrInvalidFetcher, c.WebScraper.Fetcher)
	}
	if c.WebScraper.MaxContentTokens < 0 {
		return ErrInvalidMaxTokens
	}
	if c.Dispatch.Timeout < 0 {
		return ErrInvalidTimeout
	}
	if err := c.Observability.Validate(); err != nil {
		return fmt.Errorf("observability: %w", err)
	}
	return nil
}
