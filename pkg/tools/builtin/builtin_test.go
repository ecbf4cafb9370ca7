package builtin_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/easyops/helloagents-tools/pkg/core/config"
	"github.com/easyops/helloagents-tools/pkg/tools/builtin"
)

func TestNewRegistry(t *testing.T) {
	reg, err := builtin.NewRegistry(nil)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"calculator", "sql_client", "web_scraper"}, reg.List())

	var names []string
	for _, def := range reg.Definitions() {
		names = append(names, def.Tool+"."+def.Name)
	}
	assert.ElementsMatch(t, []string{
		"calculator.calculate",
		"sql_client.query",
		"web_scraper.get_title",
		"web_scraper.get_content",
		"web_scraper.get_author",
	}, names)
}

func TestNewTools_FromConfig(t *testing.T) {
	cfg := config.Default()
	cfg.SQL.EngineURL = "sqlite:///orders.db"
	cfg.WebScraper.Fetcher = config.FetcherBrowser

	reg, err := builtin.NewRegistry(cfg)
	require.NoError(t, err)

	_, activity, err := reg.Activity("sql_client", "query")
	require.NoError(t, err)
	assert.Equal(t, "query", activity.Name)

	for _, def := range reg.Definitions() {
		if def.Tool == "sql_client" {
			assert.Equal(t, "Can be used to execute SQL queries in sqlite:///orders.db", def.Description)
		}
	}

	// 浏览器尚未启动，关闭是空操作
	assert.NoError(t, builtin.Close(reg))
}
