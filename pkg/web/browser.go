package web

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"

	"github.com/easyops/helloagents-tools/pkg/core/errors"
)

// BrowserFetcher 基于无头 Chrome 的抓取器，用于需要执行脚本才能渲染的页面
//
// 浏览器在首次 Fetch 时启动，之后复用；每次抓取使用独立标签页。
type BrowserFetcher struct {
	mu       sync.Mutex
	browser  *rod.Browser
	launcher *launcher.Launcher
	bin      string
	settle   time.Duration
}

// BrowserOption BrowserFetcher 选项
type BrowserOption func(*BrowserFetcher)

// WithBrowserBin 指定浏览器可执行文件路径
func WithBrowserBin(path string) BrowserOption {
	return func(f *BrowserFetcher) {
		f.bin = path
	}
}

// WithSettle 设置页面加载后等待 DOM 稳定的时长
func WithSettle(d time.Duration) BrowserOption {
	return func(f *BrowserFetcher) {
		f.settle = d
	}
}

// NewBrowserFetcher 创建浏览器抓取器
func NewBrowserFetcher(opts ...BrowserOption) *BrowserFetcher {
	f := &BrowserFetcher{settle: time.Second}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// ensureBrowser 按需启动浏览器
func (f *BrowserFetcher) ensureBrowser() (*rod.Browser, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.browser != nil {
		return f.browser, nil
	}

	bin := f.bin
	if bin == "" {
		bin, _ = launcher.LookPath()
	}
	l := launcher.New().Bin(bin).Headless(true)

	controlURL, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("%w: launch browser: %v", errors.ErrFetchFailed, err)
	}

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		l.Kill()
		return nil, fmt.Errorf("%w: connect browser: %v", errors.ErrFetchFailed, err)
	}

	f.browser = browser
	f.launcher = l
	return browser, nil
}

// Fetch 在新标签页中打开 URL 并返回渲染后的 HTML
func (f *BrowserFetcher) Fetch(ctx context.Context, rawURL string) (*Document, error) {
	u, err := ValidateURL(rawURL)
	if err != nil {
		return nil, err
	}

	browser, err := f.ensureBrowser()
	if err != nil {
		return nil, err
	}

	page, err := browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		return nil, errors.WrapError(errors.ErrFetchFailed, err)
	}
	defer page.Close()

	page = page.Context(ctx)
	if err := page.Navigate(u.String()); err != nil {
		return nil, errors.WrapError(errors.ErrFetchFailed, err)
	}
	if err := page.WaitLoad(); err != nil {
		return nil, errors.WrapError(errors.ErrFetchFailed, err)
	}
	// 稳定等待失败不影响已加载的内容
	_ = page.WaitStable(f.settle)

	html, err := page.HTML()
	if err != nil {
		return nil, errors.WrapError(errors.ErrFetchFailed, err)
	}

	finalURL := u.String()
	if info, err := page.Info(); err == nil && info.URL != "" {
		finalURL = info.URL
	}

	return &Document{URL: finalURL, HTML: html}, nil
}

// Close 关闭浏览器
func (f *BrowserFetcher) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.browser == nil {
		return nil
	}
	err := f.browser.Close()
	f.launcher.Kill()
	f.browser = nil
	f.launcher = nil
	return err
}

var _ Fetcher = (*BrowserFetcher)(nil)
