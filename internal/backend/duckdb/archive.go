package duckdb

import (
	"context"
	"fmt"

	"github.com/Jylpah/blitzstats/internal/backend"
	"github.com/Jylpah/blitzstats/internal/backend/sqlutil"
	"github.com/Jylpah/blitzstats/internal/models"
)

// TankStatsArchiveGet streams the TankStats_Archive superset for one
// partition, the source the snapshotter merges from. Sorted descending by
// last_battle_time, the caller can reduce to "newest per identity key" by
// keeping only the first occurrence of each (account_id, tank_id) it sees.
func (b *Backend) TankStatsArchiveGet(ctx context.Context, f backend.StatsFilters, sort backend.SortOrder) (<-chan backend.Result[models.TankStat], error) {
	q := statsFilterBuilder(f)
	sqlStr := fmt.Sprintf(`SELECT account_id, tank_id, last_battle_time, release, region,
		battles, wins, losses, damage_dealt, frags, spotted, win_rate
		FROM %s %s %s %s`,
		backend.TableTankStatsArchive, q.Where(), orderBy("last_battle_time", sort), sqlutil.SampleClause(f.Sample))

	rows, err := b.db.QueryContext(ctx, sqlStr, q.Args...)
	if err != nil {
		return nil, wrapErr("TankStatsArchiveGet", err)
	}
	out := make(chan backend.Result[models.TankStat], 32)
	go func() {
		defer close(out)
		defer rows.Close()
		for rows.Next() {
			s, err := scanTankStat(rows)
			if err != nil {
				out <- backend.Result[models.TankStat]{Err: wrapErr("TankStatsArchiveGet.Scan", err)}
				return
			}
			out <- backend.Result[models.TankStat]{Value: s}
		}
		if err := rows.Err(); err != nil {
			out <- backend.Result[models.TankStat]{Err: wrapErr("TankStatsArchiveGet.rows", err)}
		}
	}()
	return out, nil
}

// TankStatArchiveHas reports whether the exact identity+timestamp exists
// in the archive, the pruner's safety check before deleting from the hot
// collection.
func (b *Backend) TankStatArchiveHas(ctx context.Context, key models.TankStatIdentityKey, lastBattleTime int64) (bool, error) {
	var exists bool
	err := b.db.QueryRowContext(ctx, fmt.Sprintf(
		"SELECT EXISTS(SELECT 1 FROM %s WHERE account_id = ? AND tank_id = ? AND last_battle_time = ?)",
		backend.TableTankStatsArchive), key.AccountID, key.TankID, lastBattleTime).Scan(&exists)
	if err != nil {
		return false, wrapErr("TankStatArchiveHas", err)
	}
	return exists, nil
}

// AchievementsArchiveGet is TankStatsArchiveGet's achievements analogue.
func (b *Backend) AchievementsArchiveGet(ctx context.Context, f backend.StatsFilters, sort backend.SortOrder) (<-chan backend.Result[models.PlayerAchievement], error) {
	q := achievementsFilterBuilder(f)
	sqlStr := fmt.Sprintf("SELECT account_id, updated, release, region, medals FROM %s %s %s %s",
		backend.TablePlayerAchievementsArchive, q.Where(), orderBy("updated", sort), sqlutil.SampleClause(f.Sample))

	rows, err := b.db.QueryContext(ctx, sqlStr, q.Args...)
	if err != nil {
		return nil, wrapErr("AchievementsArchiveGet", err)
	}
	out := make(chan backend.Result[models.PlayerAchievement], 32)
	go func() {
		defer close(out)
		defer rows.Close()
		for rows.Next() {
			a, err := scanAchievement(rows)
			if err != nil {
				out <- backend.Result[models.PlayerAchievement]{Err: wrapErr("AchievementsArchiveGet.Scan", err)}
				return
			}
			out <- backend.Result[models.PlayerAchievement]{Value: a}
		}
		if err := rows.Err(); err != nil {
			out <- backend.Result[models.PlayerAchievement]{Err: wrapErr("AchievementsArchiveGet.rows", err)}
		}
	}()
	return out, nil
}

func (b *Backend) AchievementArchiveHas(ctx context.Context, key models.PlayerAchievementIdentityKey, updated int64) (bool, error) {
	var exists bool
	err := b.db.QueryRowContext(ctx, fmt.Sprintf(
		"SELECT EXISTS(SELECT 1 FROM %s WHERE account_id = ? AND updated = ?)",
		backend.TablePlayerAchievementsArchive), key.AccountID, updated).Scan(&exists)
	if err != nil {
		return false, wrapErr("AchievementArchiveHas", err)
	}
	return exists, nil
}
