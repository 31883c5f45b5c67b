package mongo

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/Jylpah/blitzstats/internal/backend"
	"github.com/Jylpah/blitzstats/internal/models"
)

// TankStatsArchiveGet mirrors TankStatsGet against the
// TankStats_Archive collection, the source the snapshotter merges from.
func (b *Backend) TankStatsArchiveGet(ctx context.Context, f backend.StatsFilters, sort backend.SortOrder) (<-chan backend.Result[models.TankStat], error) {
	cur, err := b.coll(backend.TableTankStatsArchive).Find(ctx, statsFilter(f, "last_battle_time"),
		findOptions(sort, "last_battle_time", f.Sample))
	if err != nil {
		return nil, wrapErr("TankStatsArchiveGet", err)
	}
	out := make(chan backend.Result[models.TankStat], 32)
	go func() {
		defer close(out)
		defer cur.Close(ctx)
		for cur.Next(ctx) {
			var s models.TankStat
			if err := cur.Decode(&s); err != nil {
				out <- backend.Result[models.TankStat]{Err: wrapErr("TankStatsArchiveGet.Decode", err)}
				return
			}
			out <- backend.Result[models.TankStat]{Value: s}
		}
		if err := cur.Err(); err != nil {
			out <- backend.Result[models.TankStat]{Err: wrapErr("TankStatsArchiveGet.cursor", err)}
		}
	}()
	return out, nil
}

func (b *Backend) TankStatArchiveHas(ctx context.Context, key models.TankStatIdentityKey, lastBattleTime int64) (bool, error) {
	n, err := b.coll(backend.TableTankStatsArchive).CountDocuments(ctx, bson.M{
		"account_id": key.AccountID, "tank_id": key.TankID, "last_battle_time": lastBattleTime,
	})
	if err != nil {
		return false, wrapErr("TankStatArchiveHas", err)
	}
	return n > 0, nil
}

func (b *Backend) AchievementsArchiveGet(ctx context.Context, f backend.StatsFilters, sort backend.SortOrder) (<-chan backend.Result[models.PlayerAchievement], error) {
	cur, err := b.coll(backend.TablePlayerAchievementsArchive).Find(ctx, statsFilter(f, "updated"),
		findOptions(sort, "updated", f.Sample))
	if err != nil {
		return nil, wrapErr("AchievementsArchiveGet", err)
	}
	out := make(chan backend.Result[models.PlayerAchievement], 32)
	go func() {
		defer close(out)
		defer cur.Close(ctx)
		for cur.Next(ctx) {
			var a models.PlayerAchievement
			if err := cur.Decode(&a); err != nil {
				out <- backend.Result[models.PlayerAchievement]{Err: wrapErr("AchievementsArchiveGet.Decode", err)}
				return
			}
			out <- backend.Result[models.PlayerAchievement]{Value: a}
		}
		if err := cur.Err(); err != nil {
			out <- backend.Result[models.PlayerAchievement]{Err: wrapErr("AchievementsArchiveGet.cursor", err)}
		}
	}()
	return out, nil
}

func (b *Backend) AchievementArchiveHas(ctx context.Context, key models.PlayerAchievementIdentityKey, updated int64) (bool, error) {
	n, err := b.coll(backend.TablePlayerAchievementsArchive).CountDocuments(ctx, bson.M{
		"account_id": key.AccountID, "updated": updated,
	})
	if err != nil {
		return false, wrapErr("AchievementArchiveHas", err)
	}
	return n > 0, nil
}
