package mongo

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/Jylpah/blitzstats/internal/backend"
	"github.com/Jylpah/blitzstats/internal/models"
)

func (b *Backend) StatsToDeleteInsert(ctx context.Context, batch []models.StatsToDelete) (int, error) {
	if len(batch) == 0 {
		return 0, nil
	}
	docs := make([]any, len(batch))
	for i, s := range batch {
		docs[i] = s
	}
	res, err := b.coll(backend.TableStatsToDelete).InsertMany(ctx, docs)
	if err != nil {
		return len(res.InsertedIDs), wrapErr("StatsToDeleteInsert", err)
	}
	return len(res.InsertedIDs), nil
}

func (b *Backend) StatsToDeleteGet(ctx context.Context, statsType string, limit int) (<-chan backend.Result[models.StatsToDelete], error) {
	opts := options.Find()
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}
	cur, err := b.coll(backend.TableStatsToDelete).Find(ctx, bson.M{"type": statsType}, opts)
	if err != nil {
		return nil, wrapErr("StatsToDeleteGet", err)
	}
	out := make(chan backend.Result[models.StatsToDelete], 32)
	go func() {
		defer close(out)
		defer cur.Close(ctx)
		for cur.Next(ctx) {
			var s models.StatsToDelete
			if err := cur.Decode(&s); err != nil {
				out <- backend.Result[models.StatsToDelete]{Err: wrapErr("StatsToDeleteGet.Decode", err)}
				return
			}
			out <- backend.Result[models.StatsToDelete]{Value: s}
		}
		if err := cur.Err(); err != nil {
			out <- backend.Result[models.StatsToDelete]{Err: wrapErr("StatsToDeleteGet.cursor", err)}
		}
	}()
	return out, nil
}

func (b *Backend) StatsToDeleteRemove(ctx context.Context, statsType string, ids []string) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res, err := b.coll(backend.TableStatsToDelete).DeleteMany(ctx, bson.M{"type": statsType, "id": bson.M{"$in": ids}})
	if err != nil {
		return 0, wrapErr("StatsToDeleteRemove", err)
	}
	return int(res.DeletedCount), nil
}

func (b *Backend) StatsToDeleteReset(ctx context.Context, statsType string) (int, error) {
	res, err := b.coll(backend.TableStatsToDelete).DeleteMany(ctx, bson.M{"type": statsType})
	if err != nil {
		return 0, wrapErr("StatsToDeleteReset", err)
	}
	return int(res.DeletedCount), nil
}
