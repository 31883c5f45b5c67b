package mongo

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/Jylpah/blitzstats/internal/backend"
)

// ObjsExport streams a collection as untyped rows, the generic path the
// columnar exporter (C16) and the text/csv/json exporters (internal/
// exportfmt) both consume so neither needs a driver-specific row type.
func (b *Backend) ObjsExport(ctx context.Context, table string, sample backend.Sample, batchSize int) (<-chan backend.Result[map[string]any], error) {
	if batchSize <= 0 {
		batchSize = 1000
	}
	opts := options.Find().SetBatchSize(int32(batchSize))
	if !sample.IsZero() && !sample.IsFraction() {
		opts.SetLimit(int64(sample.Value))
	}
	cur, err := b.coll(table).Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, wrapErr("ObjsExport", err)
	}
	out := make(chan backend.Result[map[string]any], batchSize)
	go func() {
		defer close(out)
		defer cur.Close(ctx)
		for cur.Next(ctx) {
			var rec map[string]any
			if err := cur.Decode(&rec); err != nil {
				out <- backend.Result[map[string]any]{Err: wrapErr("ObjsExport.Decode", err)}
				return
			}
			out <- backend.Result[map[string]any]{Value: rec}
		}
		if err := cur.Err(); err != nil {
			out <- backend.Result[map[string]any]{Err: wrapErr("ObjsExport.cursor", err)}
		}
	}()
	return out, nil
}
