package mongo

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/Jylpah/blitzstats/internal/backend"
	"github.com/Jylpah/blitzstats/internal/models"
)

func (b *Backend) ReplayGet(ctx context.Context, id string) (models.Replay, bool, error) {
	var r models.Replay
	err := b.coll(backend.TableReplays).FindOne(ctx, bson.M{"_id": id}).Decode(&r)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return models.Replay{}, false, nil
		}
		return models.Replay{}, false, wrapErr("ReplayGet", err)
	}
	return r, true, nil
}

func (b *Backend) ReplayInsert(ctx context.Context, r models.Replay) error {
	_, err := b.coll(backend.TableReplays).InsertOne(ctx, r)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil
		}
		return wrapErr("ReplayInsert", err)
	}
	return nil
}

func (b *Backend) ReplaysExport(ctx context.Context, sample backend.Sample) (<-chan backend.Result[models.Replay], error) {
	opts := options.Find()
	if !sample.IsZero() && !sample.IsFraction() {
		opts.SetLimit(int64(sample.Value))
	}
	cur, err := b.coll(backend.TableReplays).Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, wrapErr("ReplaysExport", err)
	}
	out := make(chan backend.Result[models.Replay], 32)
	go func() {
		defer close(out)
		defer cur.Close(ctx)
		for cur.Next(ctx) {
			var r models.Replay
			if err := cur.Decode(&r); err != nil {
				out <- backend.Result[models.Replay]{Err: wrapErr("ReplaysExport.Decode", err)}
				return
			}
			out <- backend.Result[models.Replay]{Value: r}
		}
		if err := cur.Err(); err != nil {
			out <- backend.Result[models.Replay]{Err: wrapErr("ReplaysExport.cursor", err)}
		}
	}()
	return out, nil
}
