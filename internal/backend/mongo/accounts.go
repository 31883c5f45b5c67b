package mongo

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/Jylpah/blitzstats/internal/backend"
	"github.com/Jylpah/blitzstats/internal/models"
)

func accountFilter(f backend.AccountFilters) bson.M {
	m := bson.M{}
	if len(f.Regions) > 0 {
		regions := make([]string, len(f.Regions))
		for i, r := range f.Regions {
			regions[i] = string(r)
		}
		m["region"] = bson.M{"$in": regions}
	}
	if f.Disabled != nil {
		m["disabled"] = *f.Disabled
	}
	if f.Inactive != nil {
		m["inactive"] = *f.Inactive
	}
	if f.CacheValid > 0 {
		m["last_battle_time"] = bson.M{"$lt": f.CacheValid}
	}
	return m
}

func (b *Backend) AccountsCount(ctx context.Context, f backend.AccountFilters) (int64, error) {
	n, err := b.coll(backend.TableAccounts).CountDocuments(ctx, accountFilter(f))
	if err != nil {
		return 0, wrapErr("AccountsCount", err)
	}
	return n, nil
}

func (b *Backend) AccountsGet(ctx context.Context, f backend.AccountFilters) (<-chan backend.Result[models.Account], error) {
	opts := options.Find()
	if !f.Sample.IsZero() && !f.Sample.IsFraction() {
		opts.SetLimit(int64(f.Sample.Value))
	}
	cur, err := b.coll(backend.TableAccounts).Find(ctx, accountFilter(f), opts)
	if err != nil {
		return nil, wrapErr("AccountsGet", err)
	}
	out := make(chan backend.Result[models.Account], 32)
	go func() {
		defer close(out)
		defer cur.Close(ctx)
		for cur.Next(ctx) {
			var a models.Account
			if err := cur.Decode(&a); err != nil {
				out <- backend.Result[models.Account]{Err: wrapErr("AccountsGet.Decode", err)}
				return
			}
			if !f.Distributed.Match(a.ID) {
				continue
			}
			out <- backend.Result[models.Account]{Value: a}
		}
		if err := cur.Err(); err != nil {
			out <- backend.Result[models.Account]{Err: wrapErr("AccountsGet.cursor", err)}
		}
	}()
	return out, nil
}

// AccountsInsert is idempotent on _id: a duplicate-key error from a
// previously archived account is counted as skipped, not an error,
// matching the same contract every Backend driver shares.
func (b *Backend) AccountsInsert(ctx context.Context, batch []models.Account) (int, int, error) {
	if len(batch) == 0 {
		return 0, 0, nil
	}
	coll := b.coll(backend.TableAccounts)
	inserted, skipped := 0, 0
	for _, a := range batch {
		_, err := coll.InsertOne(ctx, a)
		if err == nil {
			inserted++
			continue
		}
		if mongo.IsDuplicateKeyError(err) {
			skipped++
			continue
		}
		return inserted, skipped, wrapErr("AccountsInsert", err)
	}
	return inserted, skipped, nil
}

func (b *Backend) AccountUpdate(ctx context.Context, a models.Account, fields models.AccountFields) error {
	set := bson.M{}
	if fields.LastBattleTime {
		set["last_battle_time"] = a.LastBattleTime
	}
	if fields.Disabled {
		set["disabled"] = a.Disabled
	}
	if fields.Inactive {
		set["inactive"] = a.Inactive
	}
	if fields.StatsUpdated != "" {
		set["stats_updated."+string(fields.StatsUpdated)] = a.StatsUpdated[fields.StatsUpdated]
	}
	if len(set) == 0 {
		return nil
	}
	_, err := b.coll(backend.TableAccounts).UpdateOne(ctx, bson.M{"_id": a.ID}, bson.M{"$set": set})
	if err != nil {
		return wrapErr("AccountUpdate", err)
	}
	return nil
}

func (b *Backend) AccountReplace(ctx context.Context, a models.Account, upsert bool) error {
	opts := options.Replace().SetUpsert(upsert)
	_, err := b.coll(backend.TableAccounts).ReplaceOne(ctx, bson.M{"_id": a.ID}, a, opts)
	if err != nil {
		return wrapErr("AccountReplace", err)
	}
	return nil
}

func (b *Backend) AccountGet(ctx context.Context, id int64) (models.Account, error) {
	var a models.Account
	err := b.coll(backend.TableAccounts).FindOne(ctx, bson.M{"_id": id}).Decode(&a)
	if err != nil {
		return models.Account{}, wrapErr("AccountGet", err)
	}
	return a, nil
}

func (b *Backend) AccountsDelete(ctx context.Context, ids []int64) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res, err := b.coll(backend.TableAccounts).DeleteMany(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return 0, wrapErr("AccountsDelete", err)
	}
	return int(res.DeletedCount), nil
}
