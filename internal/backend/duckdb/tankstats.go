package duckdb

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Jylpah/blitzstats/internal/backend"
	"github.com/Jylpah/blitzstats/internal/backend/sqlutil"
	"github.com/Jylpah/blitzstats/internal/models"
)

func statsFilterBuilder(f backend.StatsFilters) *sqlutil.Builder {
	q := sqlutil.NewBuilder(sqlutil.DialectDuckDB)
	q.Release("release", f.Release)
	q.Regions("region", f.Regions)
	q.Int64In("account_id", f.Accounts)
	q.Int64In("tank_id", f.Tanks)
	q.Since("last_battle_time", f.Since)
	q.Range("account_id", f.AccountIDMin, f.AccountIDMax)
	return q
}

func orderBy(column string, sort backend.SortOrder) string {
	switch sort {
	case backend.SortTimestampAsc:
		return fmt.Sprintf("ORDER BY %s ASC", column)
	case backend.SortTimestampDesc:
		return fmt.Sprintf("ORDER BY %s DESC", column)
	default:
		return ""
	}
}

func (b *Backend) TankStatsCount(ctx context.Context, f backend.StatsFilters) (int64, error) {
	q := statsFilterBuilder(f)
	sqlStr := fmt.Sprintf("SELECT COUNT(*) FROM %s %s", backend.TableTankStats, q.Where())
	var n int64
	if err := b.db.QueryRowContext(ctx, sqlStr, q.Args...).Scan(&n); err != nil {
		return 0, wrapErr("TankStatsCount", err)
	}
	return n, nil
}

func scanTankStat(rows interface{ Scan(...any) error }) (models.TankStat, error) {
	var s models.TankStat
	var release, region sql.NullString
	err := rows.Scan(&s.AccountID, &s.TankID, &s.LastBattleTime, &release, &region,
		&s.Battles, &s.Wins, &s.Losses, &s.DamageDealt, &s.Frags, &s.SpottedEnemies, &s.WinRate)
	s.Release = release.String
	s.Region = models.Region(region.String)
	return s, err
}

func (b *Backend) TankStatsGet(ctx context.Context, f backend.StatsFilters, sort backend.SortOrder) (<-chan backend.Result[models.TankStat], error) {
	q := statsFilterBuilder(f)
	sqlStr := fmt.Sprintf(`SELECT account_id, tank_id, last_battle_time, release, region,
		battles, wins, losses, damage_dealt, frags, spotted, win_rate
		FROM %s %s %s %s`,
		backend.TableTankStats, q.Where(), orderBy("last_battle_time", sort), sqlutil.SampleClause(f.Sample))

	rows, err := b.db.QueryContext(ctx, sqlStr, q.Args...)
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

// TankStatsInsert is idempotent on (account_id, tank_id, last_battle_time):
// a row already on file is skipped unless force asks the caller to
// overwrite it, matching spec.md §4.2's "re-running a fetch is a no-op"
// invariant.
func (b *Backend) TankStatsInsert(ctx context.Context, batch []models.TankStat, force bool) (int, int, error) {
	if len(batch) == 0 {
		return 0, 0, nil
	}
	tx, err := b.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, 0, wrapErr("TankStatsInsert.Begin", err)
	}
	defer tx.Rollback()

	conflict := "DO NOTHING"
	if force {
		conflict = `DO UPDATE SET release=EXCLUDED.release, region=EXCLUDED.region,
			battles=EXCLUDED.battles, wins=EXCLUDED.wins, losses=EXCLUDED.losses,
			damage_dealt=EXCLUDED.damage_dealt, frags=EXCLUDED.frags,
			spotted=EXCLUDED.spotted, win_rate=EXCLUDED.win_rate`
	}
	stmt, err := tx.PrepareContext(ctx, fmt.Sprintf(`
		INSERT INTO %s (account_id, tank_id, last_battle_time, release, region,
			battles, wins, losses, damage_dealt, frags, spotted, win_rate)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (account_id, tank_id, last_battle_time) %s`, backend.TableTankStats, conflict))
	if err != nil {
		return 0, 0, wrapErr("TankStatsInsert.Prepare", err)
	}
	defer stmt.Close()

	inserted, skipped := 0, 0
	for _, s := range batch {
		res, err := stmt.ExecContext(ctx, s.AccountID, s.TankID, s.LastBattleTime, s.Release, string(s.Region),
			s.Battles, s.Wins, s.Losses, s.DamageDealt, s.Frags, s.SpottedEnemies, s.WinRate)
		if err != nil {
			return inserted, skipped, wrapErr("TankStatsInsert.Exec", err)
		}
		if n, _ := res.RowsAffected(); n > 0 {
			inserted++
		} else {
			skipped++
		}
	}
	if err := tx.Commit(); err != nil {
		return inserted, skipped, wrapErr("TankStatsInsert.Commit", err)
	}
	return inserted, skipped, nil
}

func (b *Backend) TankStatUpdate(ctx context.Context, row models.TankStat, fields []string) error {
	set := sqlutil.NewBuilder(sqlutil.DialectDuckDB)
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
	if _, err := b.db.ExecContext(ctx, sqlStr, set.Args...); err != nil {
		return wrapErr("TankStatUpdate", err)
	}
	return nil
}

func (b *Backend) TankStatDelete(ctx context.Context, key models.TankStatIdentityKey, lastBattleTime int64) error {
	_, err := b.db.ExecContext(ctx, fmt.Sprintf(
		"DELETE FROM %s WHERE account_id = ? AND tank_id = ? AND last_battle_time = ?", backend.TableTankStats),
		key.AccountID, key.TankID, lastBattleTime)
	if err != nil {
		return wrapErr("TankStatDelete", err)
	}
	return nil
}

// TankStatsDuplicates streams every row sharing an (account_id, tank_id)
// pair with more than one last_battle_time on file, the candidate set the
// dedupe task (C10) narrows down with its own keep-latest rule.
func (b *Backend) TankStatsDuplicates(ctx context.Context, tank int64, release string, regions []models.Region, sample backend.Sample) (<-chan backend.Result[models.TankStat], error) {
	q := sqlutil.NewBuilder(sqlutil.DialectDuckDB)
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

	rows, err := b.db.QueryContext(ctx, sqlStr, q.Args...)
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

// strippedAnd turns a Builder.Where() result into an "AND ..." continuation
// for appending to a WHERE clause that already opened with a subquery
// predicate, or "" if the builder carried no extra filters.
func strippedAnd(where string) string {
	if where == "" {
		return ""
	}
	return "AND " + where[len("WHERE "):]
}

func (b *Backend) TankStatsUnique(ctx context.Context, field string, f backend.StatsFilters) ([]any, error) {
	q := statsFilterBuilder(f)
	sqlStr := fmt.Sprintf("SELECT DISTINCT %s FROM %s %s", field, backend.TableTankStats, q.Where())
	rows, err := b.db.QueryContext(ctx, sqlStr, q.Args...)
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
	rows, err := b.db.QueryContext(ctx, sqlStr)
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
