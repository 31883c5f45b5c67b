package mongo

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/Jylpah/blitzstats/internal/backend"
	"github.com/Jylpah/blitzstats/internal/models"
)

func (b *Backend) AchievementsCount(ctx context.Context, f backend.StatsFilters) (int64, error) {
	n, err := b.coll(backend.TablePlayerAchievements).CountDocuments(ctx, statsFilter(f, "updated"))
	if err != nil {
		return 0, wrapErr("AchievementsCount", err)
	}
	return n, nil
}

func (b *Backend) AchievementsGet(ctx context.Context, f backend.StatsFilters, sort backend.SortOrder) (<-chan backend.Result[models.PlayerAchievement], error) {
	cur, err := b.coll(backend.TablePlayerAchievements).Find(ctx, statsFilter(f, "updated"),
		findOptions(sort, "updated", f.Sample))
	if err != nil {
		return nil, wrapErr("AchievementsGet", err)
	}
	out := make(chan backend.Result[models.PlayerAchievement], 32)
	go func() {
		defer close(out)
		defer cur.Close(ctx)
		for cur.Next(ctx) {
			var a models.PlayerAchievement
			if err := cur.Decode(&a); err != nil {
				out <- backend.Result[models.PlayerAchievement]{Err: wrapErr("AchievementsGet.Decode", err)}
				return
			}
			out <- backend.Result[models.PlayerAchievement]{Value: a}
		}
		if err := cur.Err(); err != nil {
			out <- backend.Result[models.PlayerAchievement]{Err: wrapErr("AchievementsGet.cursor", err)}
		}
	}()
	return out, nil
}

func (b *Backend) AchievementsInsert(ctx context.Context, batch []models.PlayerAchievement, force bool) (int, int, error) {
	if len(batch) == 0 {
		return 0, 0, nil
	}
	coll := b.coll(backend.TablePlayerAchievements)
	inserted, skipped := 0, 0
	for _, a := range batch {
		if force {
			filter := bson.M{"account_id": a.AccountID, "updated": a.Updated}
			res, err := coll.ReplaceOne(ctx, filter, a, options.Replace().SetUpsert(true))
			if err != nil {
				return inserted, skipped, wrapErr("AchievementsInsert.Replace", err)
			}
			if res.UpsertedCount > 0 || res.ModifiedCount > 0 {
				inserted++
			} else {
				skipped++
			}
			continue
		}
		_, err := coll.InsertOne(ctx, a)
		if err == nil {
			inserted++
			continue
		}
		if mongo.IsDuplicateKeyError(err) {
			skipped++
			continue
		}
		return inserted, skipped, wrapErr("AchievementsInsert.Insert", err)
	}
	return inserted, skipped, nil
}

func (b *Backend) AchievementUpdate(ctx context.Context, row models.PlayerAchievement, fields []string) error {
	all := bson.M{
		"release": row.Release,
		"region":  string(row.Region),
		"medals":  row.Medals,
	}
	set := bson.M{}
	for _, f := range fields {
		if v, ok := all[f]; ok {
			set[f] = v
		}
	}
	if len(set) == 0 {
		return nil
	}
	filter := bson.M{"account_id": row.AccountID, "updated": row.Updated}
	_, err := b.coll(backend.TablePlayerAchievements).UpdateOne(ctx, filter, bson.M{"$set": set})
	if err != nil {
		return wrapErr("AchievementUpdate", err)
	}
	return nil
}

func (b *Backend) AchievementDelete(ctx context.Context, key models.PlayerAchievementIdentityKey, updated int64) error {
	filter := bson.M{"account_id": key.AccountID, "updated": updated}
	_, err := b.coll(backend.TablePlayerAchievements).DeleteOne(ctx, filter)
	if err != nil {
		return wrapErr("AchievementDelete", err)
	}
	return nil
}

func (b *Backend) AchievementsDuplicates(ctx context.Context, release string, regions []models.Region, sample backend.Sample) (<-chan backend.Result[models.PlayerAchievement], error) {
	coll := b.coll(backend.TablePlayerAchievements)
	match := bson.M{}
	if release != "" {
		match["release"] = release
	}
	if len(regions) > 0 {
		strs := make([]string, len(regions))
		for i, r := range regions {
			strs[i] = string(r)
		}
		match["region"] = bson.M{"$in": strs}
	}
	pipeline := mongo.Pipeline{}
	if len(match) > 0 {
		pipeline = append(pipeline, bson.D{{Key: "$match", Value: match}})
	}
	pipeline = append(pipeline,
		bson.D{{Key: "$group", Value: bson.M{"_id": "$account_id", "count": bson.M{"$sum": 1}}}},
		bson.D{{Key: "$match", Value: bson.M{"count": bson.M{"$gt": 1}}}},
	)
	if !sample.IsZero() && !sample.IsFraction() {
		pipeline = append(pipeline, bson.D{{Key: "$limit", Value: int64(sample.Value)}})
	}

	cur, err := coll.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, wrapErr("AchievementsDuplicates.Aggregate", err)
	}
	var groups []struct {
		ID int64 `bson:"_id"`
	}
	if err := cur.All(ctx, &groups); err != nil {
		return nil, wrapErr("AchievementsDuplicates.Decode", err)
	}

	out := make(chan backend.Result[models.PlayerAchievement], 32)
	go func() {
		defer close(out)
		for _, g := range groups {
			rowCur, err := coll.Find(ctx, bson.M{"account_id": g.ID})
			if err != nil {
				out <- backend.Result[models.PlayerAchievement]{Err: wrapErr("AchievementsDuplicates.Find", err)}
				return
			}
			for rowCur.Next(ctx) {
				var a models.PlayerAchievement
				if err := rowCur.Decode(&a); err != nil {
					rowCur.Close(ctx)
					out <- backend.Result[models.PlayerAchievement]{Err: wrapErr("AchievementsDuplicates.RowDecode", err)}
					return
				}
				out <- backend.Result[models.PlayerAchievement]{Value: a}
			}
			rowCur.Close(ctx)
		}
	}()
	return out, nil
}
