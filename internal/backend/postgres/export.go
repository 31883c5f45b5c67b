package postgres

import (
	"context"
	"strconv"

	"github.com/Jylpah/blitzstats/internal/backend"
)

// ObjsExport streams a table as untyped rows, the generic path the
// columnar exporter (C16) and the text/csv/json exporters (internal/
// exportfmt) both consume so neither needs a driver-specific row type.
func (b *Backend) ObjsExport(ctx context.Context, table string, sample backend.Sample, batchSize int) (<-chan backend.Result[map[string]any], error) {
	if batchSize <= 0 {
		batchSize = 1000
	}
	sqlStr := "SELECT * FROM " + table
	if !sample.IsZero() && !sample.IsFraction() {
		sqlStr += " LIMIT " + strconv.FormatInt(int64(sample.Value), 10)
	}
	rows, err := b.pool.Query(ctx, sqlStr)
	if err != nil {
		return nil, wrapErr("ObjsExport", err)
	}
	fields := rows.FieldDescriptions()

	out := make(chan backend.Result[map[string]any], batchSize)
	go func() {
		defer close(out)
		defer rows.Close()
		for rows.Next() {
			vals, err := rows.Values()
			if err != nil {
				out <- backend.Result[map[string]any]{Err: wrapErr("ObjsExport.Values", err)}
				return
			}
			rec := make(map[string]any, len(fields))
			for i, f := range fields {
				rec[string(f.Name)] = vals[i]
			}
			out <- backend.Result[map[string]any]{Value: rec}
		}
		if err := rows.Err(); err != nil {
			out <- backend.Result[map[string]any]{Err: wrapErr("ObjsExport.rows", err)}
		}
	}()
	return out, nil
}
