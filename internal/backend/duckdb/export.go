package duckdb

import (
	"context"
	"database/sql"
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
	rows, err := b.db.QueryContext(ctx, "SELECT * FROM "+table+" "+sampleSuffix(sample))
	if err != nil {
		return nil, wrapErr("ObjsExport", err)
	}
	cols, err := rows.Columns()
	if err != nil {
		rows.Close()
		return nil, wrapErr("ObjsExport.Columns", err)
	}

	out := make(chan backend.Result[map[string]any], batchSize)
	go func() {
		defer close(out)
		defer rows.Close()
		for rows.Next() {
			vals := make([]any, len(cols))
			ptrs := make([]any, len(cols))
			for i := range vals {
				ptrs[i] = &vals[i]
			}
			if err := rows.Scan(ptrs...); err != nil {
				out <- backend.Result[map[string]any]{Err: wrapErr("ObjsExport.Scan", err)}
				return
			}
			rec := make(map[string]any, len(cols))
			for i, c := range cols {
				rec[c] = normalizeValue(vals[i])
			}
			out <- backend.Result[map[string]any]{Value: rec}
		}
		if err := rows.Err(); err != nil {
			out <- backend.Result[map[string]any]{Err: wrapErr("ObjsExport.rows", err)}
		}
	}()
	return out, nil
}

func sampleSuffix(s backend.Sample) string {
	if s.IsZero() || s.IsFraction() {
		return ""
	}
	return "LIMIT " + strconv.FormatInt(int64(s.Value), 10)
}

// normalizeValue unwraps the driver's []byte-for-text convention back to
// a plain string, so callers that JSON-encode the map get readable
// output rather than base64.
func normalizeValue(v any) any {
	if b, ok := v.([]byte); ok {
		return string(b)
	}
	if ns, ok := v.(sql.NullString); ok {
		if ns.Valid {
			return ns.String
		}
		return nil
	}
	return v
}
