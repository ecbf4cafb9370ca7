// Package sqlengine 将 SQLAlchemy 风格的引擎 URL 映射到 database/sql 驱动
//
// 支持的 URL:
//
//	sqlite://                  内存数据库（modernc.org/sqlite）
//	sqlite:///relative.db      相对路径
//	sqlite:////abs/path.db     绝对路径
//	sqlite3:///x.db            使用 mattn/go-sqlite3（也可写作 sqlite+mattn://）
//	postgresql://u:p@host/db   使用 pgx
//	mysql://u:p@host:3306/db   使用 go-sql-driver/mysql
//
// 两个 SQLite 驱动对 BOOLEAN 列的扫描结果不同，Execute 的调用方应通过
// Engine.Normalize 统一为整数。mattn 驱动会把 BOOLEAN 列中大于 0 的值都
// 转换为 true，因此该列中除 0/1 以外的值在两个驱动下仍可能不同。
package sqlengine

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"strings"

	"github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/mattn/go-sqlite3"
	_ "modernc.org/sqlite"

	"github.com/easyops/helloagents-tools/pkg/core/errors"
)

// 驱动名称
const (
	DriverSQLite     = "sqlite"  // modernc.org/sqlite，纯 Go 实现
	DriverSQLiteCGO  = "sqlite3" // mattn/go-sqlite3，依赖 cgo
	DriverPostgreSQL = "pgx"
	DriverMySQL      = "mysql"
)

// Engine 解析后的引擎描述
type Engine struct {
	// Dialect SQL 方言（sqlite, postgresql, mysql）
	Dialect string
	// Driver database/sql 驱动名称
	Driver string
	// DSN 驱动连接串
	DSN string
}

// Parse 解析引擎 URL
func Parse(engineURL string) (Engine, error) {
	engineURL = strings.TrimSpace(engineURL)
	idx := strings.Index(engineURL, "://")
	if idx <= 0 {
		return Engine{}, fmt.Errorf("%w: malformed engine URL", errors.ErrUnsupportedEngine)
	}

	scheme := strings.ToLower(engineURL[:idx])
	rest := engineURL[idx+3:]
	dialect, variant, _ := strings.Cut(scheme, "+")

	switch dialect {
	case "sqlite", "sqlite3":
		driver := DriverSQLite
		if dialect == "sqlite3" || variant == "mattn" || variant == "cgo" {
			driver = DriverSQLiteCGO
		}
		return Engine{Dialect: "sqlite", Driver: driver, DSN: sqliteDSN(rest)}, nil

	case "postgres", "postgresql", "pgx":
		return Engine{Dialect: "postgresql", Driver: DriverPostgreSQL, DSN: "postgres://" + rest}, nil

	case "mysql", "mariadb":
		dsn, err := mysqlDSN(rest)
		if err != nil {
			return Engine{}, err
		}
		return Engine{Dialect: "mysql", Driver: DriverMySQL, DSN: dsn}, nil

	default:
		return Engine{}, fmt.Errorf("%w: %s", errors.ErrUnsupportedEngine, scheme)
	}
}

// sqliteDSN 将 URL 中 "://" 之后的部分转换为数据库路径
//
// 与 SQLAlchemy 一致：空路径为内存库，"/x.db" 为相对路径，"//x.db" 为绝对路径。
func sqliteDSN(rest string) string {
	path, query, _ := strings.Cut(rest, "?")
	path = strings.TrimPrefix(path, "/")
	if path == "" {
		path = ":memory:"
	}
	if query != "" {
		if !strings.HasPrefix(path, "file:") {
			path = "file:" + path
		}
		return path + "?" + query
	}
	return path
}

// mysqlDSN 将 URL 形式转换为 go-sql-driver/mysql 的 DSN
func mysqlDSN(rest string) (string, error) {
	u, err := url.Parse("mysql://" + rest)
	if err != nil {
		return "", errors.WrapError(errors.ErrUnsupportedEngine, err)
	}

	cfg := mysql.NewConfig()
	cfg.Net = "tcp"
	cfg.Addr = u.Host
	cfg.DBName = strings.TrimPrefix(u.Path, "/")
	if u.User != nil {
		cfg.User = u.User.Username()
		cfg.Passwd, _ = u.User.Password()
	}
	if q := u.Query(); len(q) > 0 {
		cfg.Params = make(map[string]string, len(q))
		for k := range q {
			cfg.Params[k] = q.Get(k)
		}
	}
	return cfg.FormatDSN(), nil
}

// Open 打开引擎并验证连接
//
// 连接仅服务于单次调用，调用方负责 Close。
func Open(ctx context.Context, engineURL string) (*sql.DB, Engine, error) {
	engine, err := Parse(engineURL)
	if err != nil {
		return nil, Engine{}, err
	}

	db, err := sql.Open(engine.Driver, engine.DSN)
	if err != nil {
		return nil, engine, errors.WrapError(errors.ErrConnectionFailed, err)
	}
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, engine, errors.WrapError(errors.ErrConnectionFailed, err)
	}

	return db, engine, nil
}
