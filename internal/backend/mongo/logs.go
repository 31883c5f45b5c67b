package mongo

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/Jylpah/blitzstats/internal/backend"
	"github.com/Jylpah/blitzstats/internal/models"
)

func (b *Backend) UpdateLogAppend(ctx context.Context, e models.UpdateLogEntry) error {
	opts := options.Replace().SetUpsert(true)
	_, err := b.coll(backend.TableUpdateLog).ReplaceOne(ctx, bson.M{"_id": e.ID}, e, opts)
	if err != nil {
		return wrapErr("UpdateLogAppend", err)
	}
	return nil
}

func (b *Backend) ErrorLogAppend(ctx context.Context, e models.ErrorLogEntry) error {
	_, err := b.coll(backend.TableErrorLog).InsertOne(ctx, e)
	if err != nil {
		return wrapErr("ErrorLogAppend", err)
	}
	return nil
}
