package duckdb

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/Jylpah/blitzstats/internal/backend"
	"github.com/Jylpah/blitzstats/internal/backend/sqlutil"
	"github.com/Jylpah/blitzstats/internal/models"
)

func marshalStatsUpdated(m map[models.StatsKind]int64) string {
	if len(m) == 0 {
		return "{}"
	}
	b, _ := json.Marshal(m)
	return string(b)
}

func unmarshalStatsUpdated(s sql.NullString) map[models.StatsKind]int64 {
	out := map[models.StatsKind]int64{}
	if !s.Valid || s.String == "" {
		return out
	}
	_ = json.Unmarshal([]byte(s.String), &out)
	return out
}

func (b *Backend) AccountsCount(ctx context.Context, f backend.AccountFilters) (int64, error) {
	q := sqlutil.NewBuilder(sqlutil.DialectDuckDB)
	q.Regions("region", f.Regions)
	q.Bool("disabled", f.Disabled)
	if f.Inactive != nil {
		q.Bool("inactive", f.Inactive)
	}
	q.Lt("last_battle_time", f.CacheValid)
	sqlStr := fmt.Sprintf("SELECT COUNT(*) FROM Accounts %s", q.Where())
	var n int64
	if err := b.db.QueryRowContext(ctx, sqlStr, q.Args...).Scan(&n); err != nil {
		return 0, wrapErr("AccountsCount", err)
	}
	return n, nil
}

func (b *Backend) AccountsGet(ctx context.Context, f backend.AccountFilters) (<-chan backend.Result[models.Account], error) {
	q := sqlutil.NewBuilder(sqlutil.DialectDuckDB)
	q.Regions("region", f.Regions)
	q.Bool("disabled", f.Disabled)
	if f.Inactive != nil {
		q.Bool("inactive", f.Inactive)
	}
	q.Lt("last_battle_time", f.CacheValid)
	sqlStr := fmt.Sprintf("SELECT id, region, added, last_battle_time, disabled, inactive, stats_updated FROM Accounts %s %s",
		q.Where(), sqlutil.SampleClause(f.Sample))

	rows, err := b.db.QueryContext(ctx, sqlStr, q.Args...)
	if err != nil {
		return nil, wrapErr("AccountsGet", err)
	}

	out := make(chan backend.Result[models.Account], 32)
	go func() {
		defer close(out)
		defer rows.Close()
		for rows.Next() {
			var a models.Account
			var region sql.NullString
			var lbt sql.NullInt64
			var statsUpdated sql.NullString
			if err := rows.Scan(&a.ID, &region, &a.Added, &lbt, &a.Disabled, &a.Inactive, &statsUpdated); err != nil {
				out <- backend.Result[models.Account]{Err: wrapErr("AccountsGet.Scan", err)}
				return
			}
			a.Region = models.Region(region.String)
			a.LastBattleTime = lbt.Int64
			a.StatsUpdated = unmarshalStatsUpdated(statsUpdated)
			if !f.Distributed.Match(a.ID) {
				continue
			}
			out <- backend.Result[models.Account]{Value: a}
		}
		if err := rows.Err(); err != nil {
			out <- backend.Result[models.Account]{Err: wrapErr("AccountsGet.rows", err)}
		}
	}()
	return out, nil
}

func (b *Backend) AccountsInsert(ctx context.Context, batch []models.Account) (int, int, error) {
	if len(batch) == 0 {
		return 0, 0, nil
	}
	tx, err := b.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, 0, wrapErr("AccountsInsert.Begin", err)
	}
	defer tx.Rollback()

	inserted, skipped := 0, 0
	for _, a := range batch {
		res, err := tx.ExecContext(ctx, `
			INSERT INTO Accounts (id, region, added, last_battle_time, disabled, inactive, stats_updated)
			VALUES (?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT (id) DO NOTHING`,
			a.ID, string(a.Region), a.Added, a.LastBattleTime, a.Disabled, a.Inactive, marshalStatsUpdated(a.StatsUpdated))
		if err != nil {
			return inserted, skipped, wrapErr("AccountsInsert.Exec", err)
		}
		if n, _ := res.RowsAffected(); n > 0 {
			inserted++
		} else {
			skipped++
		}
	}
	if err := tx.Commit(); err != nil {
		return inserted, skipped, wrapErr("AccountsInsert.Commit", err)
	}
	return inserted, skipped, nil
}

func (b *Backend) AccountUpdate(ctx context.Context, a models.Account, fields models.AccountFields) error {
	set := sqlutil.NewBuilder(sqlutil.DialectDuckDB)
	if fields.LastBattleTime {
		set.Clauses = append(set.Clauses, fmt.Sprintf("last_battle_time = %s", set.Next()))
		set.Args = append(set.Args, a.LastBattleTime)
	}
	if fields.Disabled {
		set.Clauses = append(set.Clauses, fmt.Sprintf("disabled = %s", set.Next()))
		set.Args = append(set.Args, a.Disabled)
	}
	if fields.Inactive {
		set.Clauses = append(set.Clauses, fmt.Sprintf("inactive = %s", set.Next()))
		set.Args = append(set.Args, a.Inactive)
	}
	if fields.StatsUpdated != "" {
		set.Clauses = append(set.Clauses, fmt.Sprintf("stats_updated = %s", set.Next()))
		set.Args = append(set.Args, marshalStatsUpdated(a.StatsUpdated))
	}
	if len(set.Clauses) == 0 {
		return nil
	}
	sqlStr := fmt.Sprintf("UPDATE Accounts SET %s WHERE id = %s",
		joinSet(set.Clauses), set.Next())
	set.Args = append(set.Args, a.ID)
	if _, err := b.db.ExecContext(ctx, sqlStr, set.Args...); err != nil {
		return wrapErr("AccountUpdate", err)
	}
	return nil
}

func joinSet(clauses []string) string {
	out := ""
	for i, c := range clauses {
		if i > 0 {
			out += ", "
		}
		out += c
	}
	return out
}

func (b *Backend) AccountReplace(ctx context.Context, a models.Account, upsert bool) error {
	conflict := "DO NOTHING"
	if upsert {
		conflict = `DO UPDATE SET region=EXCLUDED.region, added=EXCLUDED.added,
			last_battle_time=EXCLUDED.last_battle_time, disabled=EXCLUDED.disabled,
			inactive=EXCLUDED.inactive, stats_updated=EXCLUDED.stats_updated`
	}
	sqlStr := fmt.Sprintf(`
		INSERT INTO Accounts (id, region, added, last_battle_time, disabled, inactive, stats_updated)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) %s`, conflict)
	_, err := b.db.ExecContext(ctx, sqlStr,
		a.ID, string(a.Region), a.Added, a.LastBattleTime, a.Disabled, a.Inactive, marshalStatsUpdated(a.StatsUpdated))
	if err != nil {
		return wrapErr("AccountReplace", err)
	}
	return nil
}

func (b *Backend) AccountGet(ctx context.Context, id int64) (models.Account, error) {
	var a models.Account
	var region sql.NullString
	var lbt sql.NullInt64
	var statsUpdated sql.NullString
	row := b.db.QueryRowContext(ctx, `
		SELECT id, region, added, last_battle_time, disabled, inactive, stats_updated
		FROM Accounts WHERE id = ?`, id)
	if err := row.Scan(&a.ID, &region, &a.Added, &lbt, &a.Disabled, &a.Inactive, &statsUpdated); err != nil {
		if err == sql.ErrNoRows {
			return models.Account{}, wrapErr("AccountGet", fmt.Errorf("account %d: %w", id, err))
		}
		return models.Account{}, wrapErr("AccountGet", err)
	}
	a.Region = models.Region(region.String)
	a.LastBattleTime = lbt.Int64
	a.StatsUpdated = unmarshalStatsUpdated(statsUpdated)
	return a, nil
}

func (b *Backend) AccountsDelete(ctx context.Context, ids []int64) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	q := sqlutil.NewBuilder(sqlutil.DialectDuckDB)
	q.Int64In("id", ids)
	res, err := b.db.ExecContext(ctx, fmt.Sprintf("DELETE FROM Accounts %s", q.Where()), q.Args...)
	if err != nil {
		return 0, wrapErr("AccountsDelete", err)
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}
