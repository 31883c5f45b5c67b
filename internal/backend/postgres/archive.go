package postgres

import (
	"context"
	"fmt"

	"github.com/Jylpah/blitzstats/internal/backend"
	"github.com/Jylpah/blitzstats/internal/backend/sqlutil"
	"github.com/Jylpah/blitzstats/internal/models"
)

// TankStatsArchiveGet is the Postgres driver's half of the duckdb
// driver's TankStatsArchiveGet: see that doc comment.
func (b *Backend) TankStatsArchiveGet(ctx context.Context, f backend.StatsFilters, sort backend.SortOrder) (<-chan backend.Result[models.TankStat], error) {
	q := statsFilterBuilder(f)
	sqlStr := fmt.Sprintf(`SELECT account_id, tank_id, last_battle_time, release, region,
		battles, wins, losses, damage_dealt, frags, spotted, win_rate
		FROM %s %s %s %s`,
		backend.TableTankStatsArchive, q.Where(), orderBy("last_battle_time", sort), sqlutil.SampleClause(f.Sample))

	rows, err := b.pool.Query(ctx, sqlStr, q.Args...)
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

func (b *Backend) TankStatArchiveHas(ctx context.Context, key models.TankStatIdentityKey, lastBattleTime int64) (bool, error) {
	var exists bool
	err := b.pool.QueryRow(ctx, fmt.Sprintf(
		"SELECT EXISTS(SELECT 1 FROM %s WHERE account_id = $1 AND tank_id = $2 AND last_battle_time = $3)",
		backend.TableTankStatsArchive), key.AccountID, key.TankID, lastBattleTime).Scan(&exists)
	if err != nil {
		return false, wrapErr("TankStatArchiveHas", err)
	}
	return exists, nil
}

func (b *Backend) AchievementsArchiveGet(ctx context.Context, f backend.StatsFilters, sort backend.SortOrder) (<-chan backend.Result[models.PlayerAchievement], error) {
	q := achievementsFilterBuilder(f)
	sqlStr := fmt.Sprintf("SELECT account_id, updated, release, region, medals FROM %s %s %s %s",
		backend.TablePlayerAchievementsArchive, q.Where(), orderBy("updated", sort), sqlutil.SampleClause(f.Sample))

	rows, err := b.pool.Query(ctx, sqlStr, q.Args...)
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
	err := b.pool.QueryRow(ctx, fmt.Sprintf(
		"SELECT EXISTS(SELECT 1 FROM %s WHERE account_id = $1 AND updated = $2)",
		backend.TablePlayerAchievementsArchive), key.AccountID, updated).Scan(&exists)
	if err != nil {
		return false, wrapErr("AchievementArchiveHas", err)
	}
	return exists, nil
}
