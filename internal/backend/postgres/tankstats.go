package postgres

import (
	"context"
	"fmt"

	"github.com/Jylpah/blitzstats/internal/backend"
	"github.com/Jylpah/blitzstats/internal/backend/sqlutil"
	"github.com/Jylpah/blitzstats/internal/models"
)

func (b *Backend) TankStatsCount(ctx context.Context, f backend.StatsFilters) (int64, error) {
	q := statsFilterBuilder(f)
	sqlStr := fmt.Sprintf("SELECT COUNT(*) FROM %s %s", backend.TableTankStats, q.Where())
	var n int64
	if err := b.pool.QueryRow(ctx, sqlStr, q.Args...).Scan(&n); err != nil {
		return 0, wrapErr("TankStatsCount", err)
	}
	return n, nil
}

func scanTankStat(rows interface{ Scan(...any) error }) (models.TankStat, error) {
	var s models.TankStat
	var release, region *string
	err := rows.Scan(&s.AccountID, &s.TankID, &s.LastBattleTime, &release, &region,
		&s.Battles, &s.Wins, &s.Losses, &s.DamageDealt, &s.Frags, &s.SpottedEnemies, &s.WinRate)
	if release != nil {
		s.Release = *release
	}
	if region != nil {
		s.Region = models.Region(*region)
	}
	return s, err
}

func (b *Backend) TankStatsGet(ctx context.Context, f backend.StatsFilters, sort backend.SortOrder) (<-chan backend.Result[models.TankStat], error) {
	q := statsFilterBuilder(f)
	sqlStr := fmt.Sprintf(`SELECT account_id, tank_id, last_battle_time, release, region,
		battles, wins, losses, damage_dealt, frags, spotted, win_rate
		FROM %s %s %s %s`,
		backend.TableTankStats, q.Where(), orderBy("last_battle_time", sort), sqlutil.SampleClause(f.Sample))

	rows, err := b.pool.Query(ctx, sqlStr, q.Args...)
	if err != nil {
		return nil, wrapErr("TankStatsGet", err)
	}
	out := make(chan backend.Result[models.TankStat], 32)
	go func() {
		defer close(out)
		defer rows.Close()
		for rows.Next() {
			s, err := scanTankStat(rows)
			if err != nil {
				out <- backend.Result[models.TankStat]{Err: wrapErr("TankStatsGet.Scan", err)}
				return
			}
			out <- backend.Result[models.TankStat]{Value: s}
		}
		if err := rows.Err(); err != nil {
			out <- backend.Result[models.TankStat]{Err: wrapErr("TankStatsGet.rows", err)}
		}
	}()
	return out, nil
}

func (b *Backend) TankStatsInsert(ctx context.Context, batch []models.TankStat, force bool) (int, int, error) {
	if len(batch) == 0 {
		return 0, 0, nil
	}
	tx, err := b.pool.Begin(ctx)
	if err != nil {
		return 0, 0, wrapErr("TankStatsInsert.Begin", err)
	}
	defer tx.Rollback(ctx)

	conflict := "DO NOTHING"
	if force {
		conflict = `DO UPDATE SET release=EXCLUDED.release, region=EXCLUDED.region,
			battles=EXCLUDED.battles, wins=EXCLUDED.wins, losses=EXCLUDED.losses,
			damage_dealt=EXCLUDED.damage_dealt, frags=EXCLUDED.frags,
			spotted=EXCLUDED.spotted, win_rate=EXCLUDED.win_rate`
	}
	inserted, skipped := 0, 0
	for _, s := range batch {
		tag, err := tx.Exec(ctx, fmt.Sprintf(`
			INSERT INTO %s (account_id, tank_id, last_battle_time, release, region,
				battles, wins, losses, damage_dealt, frags, spotted, win_rate)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
			ON CONFLICT (account_id, tank_id, last_battle_time) %s`, backend.TableTankStats, conflict),
			s.AccountID, s.TankID, s.LastBattleTime, s.Release, string(s.Region),
			s.Battles, s.Wins, s.Losses, s.DamageDealt, s.Frags, s.SpottedEnemies, s.WinRate)
		if err != nil {
			return inserted, skipped, wrapErr("TankStatsInsert.Exec", err)
		}
		if tag.RowsAffected() > 0 {
			inserted++
		} else {
			skipped++
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return inserted, skipped, wrapErr("TankStatsInsert.Commit", err)
	}
	return inserted, skipped, nil
}

func (b *Backend) TankStatUpdate(ctx context.Context, row models.TankStat, fields []string) error {
	set := sqlutil.NewBuilder(sqlutil.DialectPostgres)
	args := map[string]any{
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
	for _, f := range fields {
		v, ok := args[f]
		if !ok {
			continue
		}
		set.Clauses = append(set.Clauses, fmt.Sprintf("%s = %s", f, set.Next()))
		set.Args = append(set.Args, v)
	}
	if len(set.Clauses) == 0 {
		return nil
	}
	sqlStr := fmt.Sprintf("UPDATE %s SET %s WHERE account_id = %s AND tank_id = %s AND last_battle_time = %s",
		backend.TableTankStats, joinSet(set.Clauses), set.Next(), set.Next(), set.Next())
	set.Args = append(set.Args, row.AccountID, row.TankID, row.LastBattleTime)
	if _, err := b.pool.Exec(ctx, sqlStr, set.Args...); err != nil {
		return wrapErr("TankStatUpdate", err)
	}
	return nil
}

func (b *Backend) TankStatDelete(ctx context.Context, key models.TankStatIdentityKey, lastBattleTime int64) error {
	_, err := b.pool.Exec(ctx, fmt.Sprintf(
		"DELETE FROM %s WHERE account_id = $1 AND tank_id = $2 AND last_battle_time = $3", backend.TableTankStats),
		key.AccountID, key.TankID, lastBattleTime)
	if err != nil {
		return wrapErr("TankStatDelete", err)
	}
	return nil
}

func (b *Backend) TankStatsDuplicates(ctx context.Context, tank int64, release string, regions []models.Region, sample backend.Sample) (<-chan backend.Result[models.TankStat], error) {
	q := sqlutil.NewBuilder(sqlutil.DialectPostgres)
	if tank > 0 {
		q.Int64In("tank_id", []int64{tank})
	}
	q.Release("release", release)
	q.Regions("region", regions)
	sqlStr := fmt.Sprintf(`SELECT account_id, tank_id, last_battle_time, release, region,
		battles, wins, losses, damage_dealt, frags, spotted, win_rate
		FROM %s WHERE (account_id, tank_id) IN (
			SELECT account_id, tank_id FROM %s GROUP BY account_id, tank_id HAVING COUNT(*) > 1
		) %s %s`,
		backend.TableTankStats, backend.TableTankStats,
		strippedAnd(q.Where()), sqlutil.SampleClause(sample))

	rows, err := b.pool.Query(ctx, sqlStr, q.Args...)
	if err != nil {
		return nil, wrapErr("TankStatsDuplicates", err)
	}
	out := make(chan backend.Result[models.TankStat], 32)
	go func() {
		defer close(out)
		defer rows.Close()
		for rows.Next() {
			s, err := scanTankStat(rows)
			if err != nil {
				out <- backend.Result[models.TankStat]{Err: wrapErr("TankStatsDuplicates.Scan", err)}
				return
			}
			out <- backend.Result[models.TankStat]{Value: s}
		}
		if err := rows.Err(); err != nil {
			out <- backend.Result[models.TankStat]{Err: wrapErr("TankStatsDuplicates.rows", err)}
		}
	}()
	return out, nil
}

func (b *Backend) TankStatsUnique(ctx context.Context, field string, f backend.StatsFilters) ([]any, error) {
	q := statsFilterBuilder(f)
	sqlStr := fmt.Sprintf("SELECT DISTINCT %s FROM %s %s", field, backend.TableTankStats, q.Where())
	rows, err := b.pool.Query(ctx, sqlStr, q.Args...)
	if err != nil {
		return nil, wrapErr("TankStatsUnique", err)
	}
	defer rows.Close()
	var out []any
	for rows.Next() {
		var v any
		if err := rows.Scan(&v); err != nil {
			return nil, wrapErr("TankStatsUnique.Scan", err)
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

func (b *Backend) TankStatsExport(ctx context.Context, sample backend.Sample) (<-chan backend.Result[models.TankStat], error) {
	sqlStr := fmt.Sprintf(`SELECT account_id, tank_id, last_battle_time, release, region,
		battles, wins, losses, damage_dealt, frags, spotted, win_rate
		FROM %s %s`, backend.TableTankStats, sqlutil.SampleClause(sample))
	rows, err := b.pool.Query(ctx, sqlStr)
	if err != nil {
		return nil, wrapErr("TankStatsExport", err)
	}
	out := make(chan backend.Result[models.TankStat], 32)
	go func() {
		defer close(out)
		defer rows.Close()
		for rows.Next() {
			s, err := scanTankStat(rows)
			if err != nil {
				out <- backend.Result[models.TankStat]{Err: wrapErr("TankStatsExport.Scan", err)}
				return
			}
			out <- backend.Result[models.TankStat]{Value: s}
		}
		if err := rows.Err(); err != nil {
			out <- backend.Result[models.TankStat]{Err: wrapErr("TankStatsExport.rows", err)}
		}
	}()
	return out, nil
}
