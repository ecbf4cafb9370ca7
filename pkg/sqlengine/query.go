package sqlengine

import (
	"context"
	"database/sql"

	"github.com/easyops/helloagents-tools/pkg/core/errors"
)

// Result 单条语句的执行结果
type Result struct {
	// Columns 结果列名，语句不返回结果集时为空
	Columns []string
	// Rows 结果行
	Rows [][]any
}

// ReturnsRows 语句是否返回结果集
func (r *Result) ReturnsRows() bool {
	return len(r.Columns) > 0
}

// Execute 执行单条语句并读取全部结果行
//
// 统一使用 QueryContext：不返回结果集的语句（DDL/DML）列数为 0。
// 即使没有结果列也会推进一次游标，部分驱动在此时才真正执行语句。
func Execute(ctx context.Context, db *sql.DB, query string) (*Result, error) {
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, errors.WrapError(errors.ErrQueryFailed, err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, errors.WrapError(errors.ErrQueryFailed, err)
	}

	res := &Result{Columns: cols}
	for rows.Next() {
		if len(cols) == 0 {
			continue
		}
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, errors.WrapError(errors.ErrQueryFailed, err)
		}
		res.Rows = append(res.Rows, values)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.WrapError(errors.ErrQueryFailed, err)
	}

	return res, nil
}

// Normalize 统一同一方言下不同驱动的扫描结果
//
// SQLite 以 0/1 存储 BOOLEAN 列，modernc 驱动原样返回整数，
// mattn 驱动则按声明类型转换为 bool；这里统一还原为整数。
func (e Engine) Normalize(res *Result) {
	if e.Dialect != "sqlite" || res == nil {
		return
	}
	for _, row := range res.Rows {
		for i, v := range row {
			if b, ok := v.(bool); ok {
				row[i] = boolToInt(b)
			}
		}
	}
}

func boolToInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}
