package builtin

import (
	"errors"
	"io"

	"github.com/easyops/helloagents-tools/pkg/core/config"
	"github.com/easyops/helloagents-tools/pkg/tools"
	"github.com/easyops/helloagents-tools/pkg/web"
)

// NewTools 按配置创建全部内置工具
func NewTools(cfg *config.Config) []tools.Tool {
	if cfg == nil {
		cfg = config.Default()
	}

	var fetcher web.Fetcher
	switch cfg.WebScraper.Fetcher {
	case config.FetcherBrowser:
		fetcher = web.NewBrowserFetcher(web.WithBrowserBin(cfg.WebScraper.BrowserBin))
	default:
		fetcher = web.NewHTTPFetcher(web.WithUserAgent(cfg.WebScraper.UserAgent))
	}

	scraperOpts := []WebScraperOption{
		WithFetcher(fetcher),
		WithIncludeLinks(cfg.WebScraper.IncludeLinks),
	}
	if cfg.WebScraper.MaxContentTokens > 0 {
		scraperOpts = append(scraperOpts, WithMaxContentTokens(cfg.WebScraper.MaxContentTokens, nil))
	}

	return []tools.Tool{
		NewCalculator(),
		NewSQLClient(cfg.SQL.EngineURL, WithEngineName(cfg.SQL.EngineName)),
		NewWebScraper(scraperOpts...),
	}
}

// Close 释放注册表中工具持有的资源
func Close(reg *tools.Registry) error {
	var errs []error
	for _, t := range reg.All() {
		if c, ok := t.(io.Closer); ok {
			if err := c.Close(); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}

// NewRegistry 创建并注册全部内置工具
func NewRegistry(cfg *config.Config) (*tools.Registry, error) {
	reg := tools.NewRegistry()
	if err := reg.RegisterAll(NewTools(cfg)...); err != nil {
		return nil, err
	}
	return reg, nil
}
