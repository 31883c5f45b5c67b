package mongo

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/Jylpah/blitzstats/internal/backend"
	"github.com/Jylpah/blitzstats/internal/models"
)

func statsFilter(f backend.StatsFilters, timestampField string) bson.M {
	m := bson.M{}
	if f.Release != "" {
		m["release"] = f.Release
	}
	if len(f.Regions) > 0 {
		regions := make([]string, len(f.Regions))
		for i, r := range f.Regions {
			regions[i] = string(r)
		}
		m["region"] = bson.M{"$in": regions}
	}
	if len(f.Accounts) > 0 {
		m["account_id"] = bson.M{"$in": f.Accounts}
	}
	if len(f.Tanks) > 0 {
		m["tank_id"] = bson.M{"$in": f.Tanks}
	}
	if f.Since > 0 {
		m[timestampField] = bson.M{"$gte": f.Since}
	}
	if f.AccountIDMin > 0 || f.AccountIDMax > 0 {
		rng := bson.M{}
		if f.AccountIDMin > 0 {
			rng["$gte"] = f.AccountIDMin
		}
		if f.AccountIDMax > 0 {
			rng["$lt"] = f.AccountIDMax
		}
		m["account_id"] = rng
	}
	return m
}

func findOptions(sort backend.SortOrder, sortField string, sample backend.Sample) *options.FindOptions {
	opts := options.Find()
	switch sort {
	case backend.SortTimestampAsc:
		opts.SetSort(bson.D{{Key: sortField, Value: 1}})
	case backend.SortTimestampDesc:
		opts.SetSort(bson.D{{Key: sortField, Value: -1}})
	}
	if !sample.IsZero() && !sample.IsFraction() {
		opts.SetLimit(int64(sample.Value))
	}
	return opts
}

func (b *Backend) TankStatsCount(ctx context.Context, f backend.StatsFilters) (int64, error) {
	n, err := b.coll(backend.TableTankStats).CountDocuments(ctx, statsFilter(f, "last_battle_time"))
	if err != nil {
		return 0, wrapErr("TankStatsCount", err)
	}
	return n, nil
}

func (b *Backend) TankStatsGet(ctx context.Context, f backend.StatsFilters, sort backend.SortOrder) (<-chan backend.Result[models.TankStat], error) {
	cur, err := b.coll(backend.TableTankStats).Find(ctx, statsFilter(f, "last_battle_time"),
		findOptions(sort, "last_battle_time", f.Sample))
	if err != nil {
		return nil, wrapErr("TankStatsGet", err)
	}
	out := make(chan backend.Result[models.TankStat], 32)
	go func() {
		defer close(out)
		defer cur.Close(ctx)
		for cur.Next(ctx) {
			var s models.TankStat
			if err := cur.Decode(&s); err != nil {
				out <- backend.Result[models.TankStat]{Err: wrapErr("TankStatsGet.Decode", err)}
				return
			}
			out <- backend.Result[models.TankStat]{Value: s}
		}
		if err := cur.Err(); err != nil {
			out <- backend.Result[models.TankStat]{Err: wrapErr("TankStatsGet.cursor", err)}
		}
	}()
	return out, nil
}

func (b *Backend) TankStatsInsert(ctx context.Context, batch []models.TankStat, force bool) (int, int, error) {
	if len(batch) == 0 {
		return 0, 0, nil
	}
	coll := b.coll(backend.TableTankStats)
	inserted, skipped := 0, 0
	for _, s := range batch {
		if force {
			filter := bson.M{"account_id": s.AccountID, "tank_id": s.TankID, "last_battle_time": s.LastBattleTime}
			res, err := coll.ReplaceOne(ctx, filter, s, options.Replace().SetUpsert(true))
			if err != nil {
				return inserted, skipped, wrapErr("TankStatsInsert.Replace", err)
			}
			if res.UpsertedCount > 0 || res.ModifiedCount > 0 {
				inserted++
			} else {
				skipped++
			}
			continue
		}
		_, err := coll.InsertOne(ctx, s)
		if err == nil {
			inserted++
			continue
		}
		if mongo.IsDuplicateKeyError(err) {
			skipped++
			continue
		}
		return inserted, skipped, wrapErr("TankStatsInsert.Insert", err)
	}
	return inserted, skipped, nil
}

func (b *Backend) TankStatUpdate(ctx context.Context, row models.TankStat, fields []string) error {
	all := bson.M{
		"release":      row.Release,
		"region":       string(row.Region),
		"battles":      row.Battles,
		"wins":         row.Wins,
		"losses":       row.Losses,
		"damage_dealt": row.DamageDealt,
		"frags":        row.Frags,
		"spotted":      row.SpottedEnemies,
		"win_rate":     row.WinRate,
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
	filter := bson.M{"account_id": row.AccountID, "tank_id": row.TankID, "last_battle_time": row.LastBattleTime}
	_, err := b.coll(backend.TableTankStats).UpdateOne(ctx, filter, bson.M{"$set": set})
	if err != nil {
		return wrapErr("TankStatUpdate", err)
	}
	return nil
}

func (b *Backend) TankStatDelete(ctx context.Context, key models.TankStatIdentityKey, lastBattleTime int64) error {
	filter := bson.M{"account_id": key.AccountID, "tank_id": key.TankID, "last_battle_time": lastBattleTime}
	_, err := b.coll(backend.TableTankStats).DeleteOne(ctx, filter)
	if err != nil {
		return wrapErr("TankStatDelete", err)
	}
	return nil
}

func (b *Backend) TankStatsDuplicates(ctx context.Context, tank int64, release string, regions []models.Region, sample backend.Sample) (<-chan backend.Result[models.TankStat], error) {
	coll := b.coll(backend.TableTankStats)
	group := bson.D{
		{Key: "$group", Value: bson.M{
			"_id":   bson.M{"account_id": "$account_id", "tank_id": "$tank_id"},
			"count": bson.M{"$sum": 1},
		}},
	}
	match := bson.M{}
	if tank > 0 {
		match["tank_id"] = tank
	}
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
	pipeline = append(pipeline, group, bson.D{{Key: "$match", Value: bson.M{"count": bson.M{"$gt": 1}}}})
	if !sample.IsZero() && !sample.IsFraction() {
		pipeline = append(pipeline, bson.D{{Key: "$limit", Value: int64(sample.Value)}})
	}

	cur, err := coll.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, wrapErr("TankStatsDuplicates.Aggregate", err)
	}

	type key struct {
		AccountID int64 `bson:"account_id"`
		TankID    int64 `bson:"tank_id"`
	}
	var groups []struct {
		ID key `bson:"_id"`
	}
	if err := cur.All(ctx, &groups); err != nil {
		return nil, wrapErr("TankStatsDuplicates.Decode", err)
	}

	out := make(chan backend.Result[models.TankStat], 32)
	go func() {
		defer close(out)
		for _, g := range groups {
			rowCur, err := coll.Find(ctx, bson.M{"account_id": g.ID.AccountID, "tank_id": g.ID.TankID})
			if err != nil {
				out <- backend.Result[models.TankStat]{Err: wrapErr("TankStatsDuplicates.Find", err)}
				return
			}
			for rowCur.Next(ctx) {
				var s models.TankStat
				if err := rowCur.Decode(&s); err != nil {
					rowCur.Close(ctx)
					out <- backend.Result[models.TankStat]{Err: wrapErr("TankStatsDuplicates.RowDecode", err)}
					return
				}
				out <- backend.Result[models.TankStat]{Value: s}
			}
			rowCur.Close(ctx)
		}
	}()
	return out, nil
}

func (b *Backend) TankStatsUnique(ctx context.Context, field string, f backend.StatsFilters) ([]any, error) {
	vals, err := b.coll(backend.TableTankStats).Distinct(ctx, field, statsFilter(f, "last_battle_time"))
	if err != nil {
		return nil, wrapErr("TankStatsUnique", err)
	}
	return vals, nil
}

func (b *Backend) TankStatsExport(ctx context.Context, sample backend.Sample) (<-chan backend.Result[models.TankStat], error) {
	opts := options.Find()
	if !sample.IsZero() && !sample.IsFraction() {
		opts.SetLimit(int64(sample.Value))
	}
	cur, err := b.coll(backend.TableTankStats).Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, wrapErr("TankStatsExport", err)
	}
	out := make(chan backend.Result[models.TankStat], 32)
	go func() {
		defer close(out)
		defer cur.Close(ctx)
		for cur.Next(ctx) {
			var s models.TankStat
			if err := cur.Decode(&s); err != nil {
				out <- backend.Result[models.TankStat]{Err: wrapErr("TankStatsExport.Decode", err)}
				return
			}
			out <- backend.Result[models.TankStat]{Value: s}
		}
		if err := cur.Err(); err != nil {
			out <- backend.Result[models.TankStat]{Err: wrapErr("TankStatsExport.cursor", err)}
		}
	}()
	return out, nil
}
