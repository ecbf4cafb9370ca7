// Package web 提供网页抓取与正文抽取能力
//
// Fetcher 负责取回页面 HTML，Extractor 对 HTML 做一次抽取，
// 得到标题、作者、正文等字段，供网页抓取工具的各个活动共享。
package web

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"golang.org/x/net/html/charset"

	"github.com/easyops/helloagents-tools/pkg/core/errors"
)

// DefaultUserAgent 默认 User-Agent
const DefaultUserAgent = "Mozilla/5.0 (compatible; helloagents-tools/1.0; +https://github.com/easyops/helloagents-tools)"

// maxBodyBytes 单个页面读取的最大字节数
const maxBodyBytes = 10 << 20

// Document 抓取到的页面
type Document struct {
	// URL 最终地址（跟随重定向之后）
	URL string
	// HTML 页面源码（已转为 UTF-8）
	HTML string
}

// Fetcher 页面抓取接口
type Fetcher interface {
	// Fetch 取回页面，任何网络错误或非 2xx 状态都返回 ErrFetchFailed
	Fetch(ctx context.Context, rawURL string) (*Document, error)
}

// HTTPFetcher 基于 net/http 的抓取器
//
// 客户端本身不设置超时，调用时长由 ctx 决定。
type HTTPFetcher struct {
	client    *http.Client
	userAgent string
}

// HTTPOption HTTPFetcher 选项
type HTTPOption func(*HTTPFetcher)

// WithHTTPClient 设置 HTTP 客户端
func WithHTTPClient(c *http.Client) HTTPOption {
	return func(f *HTTPFetcher) {
		f.client = c
	}
}

// WithUserAgent 设置 User-Agent
func WithUserAgent(ua string) HTTPOption {
	return func(f *HTTPFetcher) {
		if ua != "" {
			f.userAgent = ua
		}
	}
}

// NewHTTPFetcher 创建 HTTP 抓取器
func NewHTTPFetcher(opts ...HTTPOption) *HTTPFetcher {
	f := &HTTPFetcher{
		client:    &http.Client{},
		userAgent: DefaultUserAgent,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch 取回页面
func (f *HTTPFetcher) Fetch(ctx context.Context, rawURL string) (*Document, error) {
	u, err := ValidateURL(rawURL)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, errors.WrapError(errors.ErrFetchFailed, err)
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml;q=0.9,*/*;q=0.8")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, errors.WrapError(errors.ErrFetchFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: status %d", errors.ErrFetchFailed, resp.StatusCode)
	}

	body, err := charset.NewReader(io.LimitReader(resp.Body, maxBodyBytes), resp.Header.Get("Content-Type"))
	if err != nil {
		return nil, errors.WrapError(errors.ErrFetchFailed, err)
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return nil, errors.WrapError(errors.ErrFetchFailed, err)
	}

	return &Document{
		URL:  resp.Request.URL.String(),
		HTML: string(data),
	}, nil
}

// ValidateURL 检查 URL 是否为绝对 http(s) 地址
func ValidateURL(rawURL string) (*url.URL, error) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return nil, errors.WrapError(errors.ErrFetchFailed, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("%w: unsupported scheme %q", errors.ErrFetchFailed, u.Scheme)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("%w: missing host", errors.ErrFetchFailed)
	}
	return u, nil
}

var _ Fetcher = (*HTTPFetcher)(nil)
