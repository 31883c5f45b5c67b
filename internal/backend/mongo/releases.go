package mongo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/Jylpah/blitzstats/internal/backend"
	"github.com/Jylpah/blitzstats/internal/models"
)

func (b *Backend) ReleaseGet(ctx context.Context, release string) (models.Release, error) {
	var r models.Release
	err := b.coll(backend.TableReleases).FindOne(ctx, bson.M{"_id": release}).Decode(&r)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return models.Release{}, wrapErr("ReleaseGet", fmt.Errorf("release %q: %w", release, err))
		}
		return models.Release{}, wrapErr("ReleaseGet", err)
	}
	return r, nil
}

func (b *Backend) ReleasesGet(ctx context.Context) ([]models.Release, error) {
	cur, err := b.coll(backend.TableReleases).Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "launch_time", Value: 1}}))
	if err != nil {
		return nil, wrapErr("ReleasesGet", err)
	}
	defer cur.Close(ctx)
	var out []models.Release
	if err := cur.All(ctx, &out); err != nil {
		return nil, wrapErr("ReleasesGet.Decode", err)
	}
	return out, nil
}

func (b *Backend) ReleaseUpsert(ctx context.Context, r models.Release) error {
	opts := options.Replace().SetUpsert(true)
	_, err := b.coll(backend.TableReleases).ReplaceOne(ctx, bson.M{"_id": r.Release}, r, opts)
	if err != nil {
		return wrapErr("ReleaseUpsert", err)
	}
	return nil
}

func (b *Backend) TankopediaGetMany(ctx context.Context, ids []int64) ([]models.Tank, error) {
	filter := bson.M{}
	if len(ids) > 0 {
		filter["_id"] = bson.M{"$in": ids}
	}
	cur, err := b.coll(backend.TableTankopedia).Find(ctx, filter)
	if err != nil {
		return nil, wrapErr("TankopediaGetMany", err)
	}
	defer cur.Close(ctx)
	var out []models.Tank
	if err := cur.All(ctx, &out); err != nil {
		return nil, wrapErr("TankopediaGetMany.Decode", err)
	}
	return out, nil
}

func (b *Backend) TankopediaCount(ctx context.Context) (int64, error) {
	n, err := b.coll(backend.TableTankopedia).CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, wrapErr("TankopediaCount", err)
	}
	return n, nil
}

func (b *Backend) TankopediaUpsert(ctx context.Context, batch []models.Tank) (int, error) {
	if len(batch) == 0 {
		return 0, nil
	}
	coll := b.coll(backend.TableTankopedia)
	opts := options.Replace().SetUpsert(true)
	n := 0
	for _, t := range batch {
		if _, err := coll.ReplaceOne(ctx, bson.M{"_id": t.TankID}, t, opts); err != nil {
			return n, wrapErr("TankopediaUpsert", err)
		}
		n++
	}
	return n, nil
}
