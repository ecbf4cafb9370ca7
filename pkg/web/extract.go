package web

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/easyops/helloagents-tools/pkg/core/errors"
	"github.com/easyops/helloagents-tools/pkg/otel"
)

// Page 一次抽取得到的结构化结果
type Page struct {
	URL         string `json:"url"`
	Hostname    string `json:"hostname,omitempty"`
	Title       string `json:"title"`
	Author      string `json:"author"`
	Text        string `json:"text"`
	Description string `json:"description,omitempty"`
	Sitename    string `json:"sitename,omitempty"`
	Date        string `json:"date,omitempty"`
}

// boilerplate 抽取正文前移除的元素
const boilerplate = "script, style, noscript, template, iframe, svg, canvas, nav, header, footer, aside, form, button, [hidden], [aria-hidden=true]"

// blockTags 渲染时前后换行的元素
var blockTags = map[string]bool{
	"address": true, "article": true, "blockquote": true, "dd": true, "div": true,
	"dl": true, "dt": true, "figcaption": true, "figure": true, "h1": true,
	"h2": true, "h3": true, "h4": true, "h5": true, "h6": true, "hr": true,
	"li": true, "main": true, "ol": true, "p": true, "pre": true, "section": true,
	"table": true, "tr": true, "ul": true, "summary": true, "details": true,
}

// titleSeparator 标题中站点名前的分隔符
var titleSeparator = regexp.MustCompile(`\s+[|–—·•»]\s+|\s+-\s+`)

// Extractor HTML 抽取器
type Extractor struct {
	includeLinks bool
	logger       otel.Logger
}

// ExtractorOption Extractor 选项
type ExtractorOption func(*Extractor)

// WithLinks 设置正文是否保留超链接，保留时渲染为 [text](href)
func WithLinks(include bool) ExtractorOption {
	return func(e *Extractor) {
		e.includeLinks = include
	}
}

// WithExtractorLogger 设置抽取诊断日志
func WithExtractorLogger(logger otel.Logger) ExtractorOption {
	return func(e *Extractor) {
		e.logger = logger
	}
}

// NewExtractor 创建抽取器
//
// 默认保留超链接；诊断日志默认只输出致命级别，即全部屏蔽。
func NewExtractor(opts ...ExtractorOption) *Extractor {
	e := &Extractor{
		includeLinks: true,
		logger: otel.NewSlogLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: otel.LevelFatal,
		}))),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// IncludeLinks 返回是否保留超链接
func (e *Extractor) IncludeLinks() bool {
	return e.includeLinks
}

// Extract 抽取页面
//
// 标题与正文均为空时返回 ErrExtractionFailed。
func (e *Extractor) Extract(doc *Document) (*Page, error) {
	if doc == nil {
		return nil, fmt.Errorf("%w: empty document", errors.ErrExtractionFailed)
	}

	gq, err := goquery.NewDocumentFromReader(strings.NewReader(doc.HTML))
	if err != nil {
		e.logger.Warn("html parse failed", "url", doc.URL, "error", err)
		return nil, errors.WrapError(errors.ErrExtractionFailed, err)
	}

	base, err := url.Parse(doc.URL)
	if err != nil {
		e.logger.Debug("invalid document url", "url", doc.URL, "error", err)
		base = &url.URL{}
	}
	if href, ok := gq.Find("base[href]").First().Attr("href"); ok {
		if ref, err := base.Parse(href); err == nil {
			base = ref
		}
	}

	page := &Page{
		URL:         doc.URL,
		Hostname:    base.Hostname(),
		Title:       e.title(gq),
		Author:      e.author(gq),
		Description: firstMeta(gq, `meta[name="description"]`, `meta[property="og:description"]`),
		Sitename:    firstMeta(gq, `meta[property="og:site_name"]`, `meta[name="application-name"]`),
		Date:        date(gq),
	}
	page.Text = e.text(gq, base)

	if page.Title == "" && page.Text == "" {
		e.logger.Debug("nothing extracted", "url", doc.URL)
		return nil, fmt.Errorf("%w: no title or text found", errors.ErrExtractionFailed)
	}
	return page, nil
}

// title og:title → <title>（去掉站点后缀）→ 第一个 <h1>
func (e *Extractor) title(gq *goquery.Document) string {
	if t := firstMeta(gq, `meta[property="og:title"]`, `meta[name="twitter:title"]`); t != "" {
		return t
	}
	if t := normalizeSpace(gq.Find("title").First().Text()); t != "" {
		if parts := titleSeparator.Split(t, 2); len(parts) == 2 && parts[0] != "" {
			return parts[0]
		}
		return t
	}
	return normalizeSpace(gq.Find("h1").First().Text())
}

// author 依次尝试 meta、JSON-LD、rel=author 与 itemprop=author
func (e *Extractor) author(gq *goquery.Document) string {
	if a := firstMeta(gq, `meta[name="author"]`, `meta[property="article:author"]`, `meta[name="byl"]`); a != "" {
		return strings.TrimPrefix(a, "By ")
	}

	var names []string
	gq.Find(`script[type="application/ld+json"]`).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		var data any
		if err := json.Unmarshal([]byte(s.Text()), &data); err != nil {
			e.logger.Debug("invalid json-ld", "error", err)
			return true
		}
		names = jsonLDAuthors(data)
		return len(names) == 0
	})
	if len(names) > 0 {
		return strings.Join(names, "; ")
	}

	if a := normalizeSpace(gq.Find(`[rel="author"]`).First().Text()); a != "" {
		return a
	}

	sel := gq.Find(`[itemprop="author"]`).First()
	if name := sel.Find(`[itemprop="name"]`).First(); name.Length() > 0 {
		return normalizeSpace(name.Text())
	}
	if c, ok := sel.Attr("content"); ok {
		return normalizeSpace(c)
	}
	return normalizeSpace(sel.Text())
}

// jsonLDAuthors 从 JSON-LD 中收集作者名称
func jsonLDAuthors(data any) []string {
	switch v := data.(type) {
	case []any:
		for _, item := range v {
			if names := jsonLDAuthors(item); len(names) > 0 {
				return names
			}
		}
	case map[string]any:
		if author, ok := v["author"]; ok {
			return authorNames(author)
		}
		if graph, ok := v["@graph"]; ok {
			return jsonLDAuthors(graph)
		}
	}
	return nil
}

func authorNames(v any) []string {
	switch a := v.(type) {
	case string:
		if s := normalizeSpace(a); s != "" {
			return []string{s}
		}
	case map[string]any:
		if name, ok := a["name"].(string); ok && normalizeSpace(name) != "" {
			return []string{normalizeSpace(name)}
		}
	case []any:
		var names []string
		for _, item := range a {
			names = append(names, authorNames(item)...)
		}
		return names
	}
	return nil
}

// date 发布日期
func date(gq *goquery.Document) string {
	if d := firstMeta(gq, `meta[property="article:published_time"]`, `meta[name="date"]`, `meta[itemprop="datePublished"]`); d != "" {
		return d
	}
	if d, ok := gq.Find("time[datetime]").First().Attr("datetime"); ok {
		return strings.TrimSpace(d)
	}
	return ""
}

// text 渲染正文
func (e *Extractor) text(gq *goquery.Document, base *url.URL) string {
	gq.Find(boilerplate).Remove()

	var root *goquery.Selection
	for _, sel := range []string{"article", "main", `[role="main"]`, "body"} {
		if s := gq.Find(sel).First(); s.Length() > 0 {
			root = s
			break
		}
	}
	if root == nil {
		root = gq.Selection
	}

	var sb strings.Builder
	for _, n := range root.Nodes {
		e.render(&sb, n, base)
	}

	var lines []string
	for _, line := range strings.Split(sb.String(), "\n") {
		if line = normalizeSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, "\n")
}

// render 深度优先输出节点文本
func (e *Extractor) render(sb *strings.Builder, n *html.Node, base *url.URL) {
	switch n.Type {
	case html.TextNode:
		if inPre(n) {
			sb.WriteString(n.Data)
		} else {
			sb.WriteString(sourceBreaks.Replace(n.Data))
		}
		return
	case html.ElementNode, html.DocumentNode:
	default:
		return
	}

	switch n.Data {
	case "br":
		sb.WriteByte('\n')
		return
	case "a":
		if e.includeLinks {
			e.renderLink(sb, n, base)
			return
		}
	}

	block := blockTags[n.Data]
	if block {
		sb.WriteByte('\n')
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		e.render(sb, c, base)
	}
	if block {
		sb.WriteByte('\n')
	} else if n.Data == "td" || n.Data == "th" {
		sb.WriteByte(' ')
	}
}

// renderLink 输出 [text](href)，无文本或无地址时只输出文本
func (e *Extractor) renderLink(sb *strings.Builder, n *html.Node, base *url.URL) {
	var inner strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		e.render(&inner, c, base)
	}
	text := normalizeSpace(inner.String())

	href := ""
	for _, attr := range n.Attr {
		if attr.Key == "href" {
			href = strings.TrimSpace(attr.Val)
			break
		}
	}
	if text == "" {
		return
	}
	if href == "" || strings.HasPrefix(href, "#") || strings.HasPrefix(strings.ToLower(href), "javascript:") {
		sb.WriteString(text)
		return
	}
	if ref, err := base.Parse(href); err == nil {
		href = ref.String()
	}
	fmt.Fprintf(sb, "[%s](%s)", text, href)
}

// sourceBreaks 源码中的换行只是空白，不产生新行
var sourceBreaks = strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ")

func inPre(n *html.Node) bool {
	for p := n.Parent; p != nil; p = p.Parent {
		if p.Type == html.ElementNode && p.Data == "pre" {
			return true
		}
	}
	return false
}

// firstMeta 返回第一个非空的 meta content
func firstMeta(gq *goquery.Document, selectors ...string) string {
	for _, sel := range selectors {
		if c, ok := gq.Find(sel).First().Attr("content"); ok {
			if c = normalizeSpace(c); c != "" {
				return c
			}
		}
	}
	return ""
}

func normalizeSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
