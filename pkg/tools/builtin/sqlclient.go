package builtin

import (
	"context"

	"github.com/easyops/helloagents-tools/pkg/artifacts"
	"github.com/easyops/helloagents-tools/pkg/otel"
	"github.com/easyops/helloagents-tools/pkg/pyfmt"
	"github.com/easyops/helloagents-tools/pkg/sqlengine"
	"github.com/easyops/helloagents-tools/pkg/tools"
)

// SQLClient SQL 客户端工具
//
// 每次调用都会新建连接，执行完毕后立即关闭，不在调用之间复用连接池。
type SQLClient struct {
	engineURL  string
	engineName string
}

// SQLClientOption SQL 客户端选项
type SQLClientOption func(*SQLClient)

// WithEngineName 设置引擎名称，仅用于活动描述
func WithEngineName(name string) SQLClientOption {
	return func(c *SQLClient) {
		c.engineName = name
	}
}

// NewSQLClient 创建 SQL 客户端工具
func NewSQLClient(engineURL string, opts ...SQLClientOption) *SQLClient {
	c := &SQLClient{engineURL: engineURL}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Name 返回工具名称
func (c *SQLClient) Name() string {
	return "sql_client"
}

// TemplateArgs 返回描述模板参数
func (c *SQLClient) TemplateArgs() map[string]any {
	engine := c.engineURL
	if engine == "" {
		engine = c.engineName
	}
	return map[string]any{"engine": engine}
}

// Activities 返回活动列表
func (c *SQLClient) Activities() []tools.Activity {
	return []tools.Activity{
		{
			Name:        "query",
			Description: "Can be used to execute SQL queries{{if .engine}} in {{.engine}}{{end}}",
			Schema: tools.Schema{
				tools.StringParam("query",
					"SQL query to execute. For example, SELECT, CREATE, INSERT, DROP, DELETE, etc."),
			},
			Handler: c.query,
		},
	}
}

func (c *SQLClient) query(ctx context.Context, params tools.Params) artifacts.Artifact {
	query, ok := params.String("query")
	if !ok {
		return artifacts.NewError("error executing SQL: missing required parameter: query")
	}

	db, engine, err := sqlengine.Open(ctx, c.engineURL)
	if span := otel.SpanFromContext(ctx); span != nil && engine.Dialect != "" {
		span.SetAttributes(otel.DBDriver(engine.Dialect))
	}
	if err != nil {
		return artifacts.FromError("error executing SQL", err)
	}
	defer db.Close()

	res, err := sqlengine.Execute(ctx, db, query)
	if err != nil {
		return artifacts.FromError("error executing SQL", err)
	}
	engine.Normalize(res)

	if !res.ReturnsRows() {
		return artifacts.NewText("query successfully executed")
	}
	return artifacts.NewText(pyfmt.Rows(res.Rows))
}
