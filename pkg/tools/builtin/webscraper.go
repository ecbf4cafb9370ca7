package builtin

import (
	"context"
	"io"

	"github.com/easyops/helloagents-tools/pkg/artifacts"
	"github.com/easyops/helloagents-tools/pkg/core/errors"
	"github.com/easyops/helloagents-tools/pkg/otel"
	"github.com/easyops/helloagents-tools/pkg/tools"
	"github.com/easyops/helloagents-tools/pkg/web"
)

// 网页抓取错误消息
const (
	msgCantAccess  = "error: can't access URL"
	msgCantExtract = "error: can't extract content from URL"
)

// WebScraper 网页抓取工具
//
// 三个活动共享同一套抓取与抽取流程，只是返回的字段不同。
type WebScraper struct {
	fetcher          web.Fetcher
	includeLinks     bool
	maxContentTokens int
	counter          web.TokenCounter
	logger           otel.Logger
}

// WebScraperOption 网页抓取工具选项
type WebScraperOption func(*WebScraper)

// WithFetcher 设置页面抓取器，默认 HTTPFetcher
func WithFetcher(f web.Fetcher) WebScraperOption {
	return func(w *WebScraper) {
		w.fetcher = f
	}
}

// WithIncludeLinks 设置正文是否保留超链接（默认保留）
func WithIncludeLinks(include bool) WebScraperOption {
	return func(w *WebScraper) {
		w.includeLinks = include
	}
}

// WithMaxContentTokens 限制 get_content 返回的 Token 数，0 表示不限制
func WithMaxContentTokens(n int, counter web.TokenCounter) WebScraperOption {
	return func(w *WebScraper) {
		w.maxContentTokens = n
		w.counter = counter
	}
}

// WithScraperLogger 设置抽取诊断日志
func WithScraperLogger(logger otel.Logger) WebScraperOption {
	return func(w *WebScraper) {
		w.logger = logger
	}
}

// NewWebScraper 创建网页抓取工具
func NewWebScraper(opts ...WebScraperOption) *WebScraper {
	w := &WebScraper{includeLinks: true}
	for _, opt := range opts {
		opt(w)
	}
	if w.fetcher == nil {
		w.fetcher = web.NewHTTPFetcher()
	}
	if w.maxContentTokens > 0 && w.counter == nil {
		w.counter = web.DefaultTokenCounter()
	}
	return w
}

// Name 返回工具名称
func (w *WebScraper) Name() string {
	return "web_scraper"
}

// Activities 返回活动列表
func (w *WebScraper) Activities() []tools.Activity {
	schema := tools.Schema{tools.StringParam("url", "Valid HTTP URL")}
	return []tools.Activity{
		{
			Name:        "get_title",
			Description: "Can be used to get the title of a web page",
			Schema:      schema,
			Handler:     w.field(func(p *web.Page) string { return p.Title }),
		},
		{
			Name:        "get_content",
			Description: "Can be used to get all text content of a web page",
			Schema:      schema,
			Handler: w.field(func(p *web.Page) string {
				if w.maxContentTokens > 0 {
					return web.Truncate(w.counter, p.Text, w.maxContentTokens)
				}
				return p.Text
			}),
		},
		{
			Name:        "get_author",
			Description: "Can be used to get web page author",
			Schema:      schema,
			Handler:     w.field(func(p *web.Page) string { return p.Author }),
		},
	}
}

// Scrape 抓取并抽取页面
func (w *WebScraper) Scrape(ctx context.Context, url string) (*web.Page, error) {
	doc, err := w.fetcher.Fetch(ctx, url)
	if err != nil {
		return nil, err
	}

	var opts []web.ExtractorOption
	opts = append(opts, web.WithLinks(w.includeLinks))
	if w.logger != nil {
		opts = append(opts, web.WithExtractorLogger(w.logger))
	}
	return web.NewExtractor(opts...).Extract(doc)
}

// Close 释放抓取器持有的资源，如浏览器进程
func (w *WebScraper) Close() error {
	if c, ok := w.fetcher.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// field 生成返回页面某个字段的处理函数
func (w *WebScraper) field(get func(*web.Page) string) tools.Handler {
	return func(ctx context.Context, params tools.Params) artifacts.Artifact {
		url, ok := params.String("url")
		if !ok {
			return artifacts.NewError(msgCantAccess)
		}

		if span := otel.SpanFromContext(ctx); span != nil {
			span.SetAttributes(otel.HTTPURL(url))
		}

		page, err := w.Scrape(ctx, url)
		switch {
		case err == nil:
			return artifacts.NewText(get(page))
		case errors.Is(err, errors.ErrExtractionFailed):
			return artifacts.NewError(msgCantExtract)
		default:
			return artifacts.NewError(msgCantAccess)
		}
	}
}
