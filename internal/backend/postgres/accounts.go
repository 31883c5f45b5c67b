package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"

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

func unmarshalStatsUpdated(s *string) map[models.StatsKind]int64 {
	out := map[models.StatsKind]int64{}
	if s == nil || *s == "" {
		return out
	}
	_ = json.Unmarshal([]byte(*s), &out)
	return out
}

func (b *Backend) AccountsCount(ctx context.Context, f backend.AccountFilters) (int64, error) {
	q := sqlutil.NewBuilder(sqlutil.DialectPostgres)
	q.Regions("region", f.Regions)
	q.Bool("disabled", f.Disabled)
	if f.Inactive != nil {
		q.Bool("inactive", f.Inactive)
	}
	q.Lt("last_battle_time", f.CacheValid)
	sqlStr := fmt.Sprintf("SELECT COUNT(*) FROM %s %s", backend.TableAccounts, q.Where())
	var n int64
	if err := b.pool.QueryRow(ctx, sqlStr, q.Args...).Scan(&n); err != nil {
		return 0, wrapErr("AccountsCount", err)
	}
	return n, nil
}

func (b *Backend) AccountsGet(ctx context.Context, f backend.AccountFilters) (<-chan backend.Result[models.Account], error) {
	q := sqlutil.NewBuilder(sqlutil.DialectPostgres)
	q.Regions("region", f.Regions)
	q.Bool("disabled", f.Disabled)
	if f.Inactive != nil {
		q.Bool("inactive", f.Inactive)
	}
	q.Lt("last_battle_time", f.CacheValid)
	sqlStr := fmt.Sprintf("SELECT id, region, added, last_battle_time, disabled, inactive, stats_updated FROM %s %s %s",
		backend.TableAccounts, q.Where(), sqlutil.SampleClause(f.Sample))

	rows, err := b.pool.Query(ctx, sqlStr, q.Args...)
	if err != nil {
		return nil, wrapErr("AccountsGet", err)
	}

	out := make(chan backend.Result[models.Account], 32)
	go func() {
		defer close(out)
		defer rows.Close()
		for rows.Next() {
			var a models.Account
			var region, statsUpdated *string
			var lbt *int64
			if err := rows.Scan(&a.ID, &region, &a.Added, &lbt, &a.Disabled, &a.Inactive, &statsUpdated); err != nil {
				out <- backend.Result[models.Account]{Err: wrapErr("AccountsGet.Scan", err)}
				return
			}
			if region != nil {
				a.Region = models.Region(*region)
			}
			if lbt != nil {
				a.LastBattleTime = *lbt
			}
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
	tx, err := b.pool.Begin(ctx)
	if err != nil {
		return 0, 0, wrapErr("AccountsInsert.Begin", err)
	}
	defer tx.Rollback(ctx)

	inserted, skipped := 0, 0
	for _, a := range batch {
		tag, err := tx.Exec(ctx, `
			INSERT INTO `+backend.TableAccounts+` (id, region, added, last_battle_time, disabled, inactive, stats_updated)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			ON CONFLICT (id) DO NOTHING`,
			a.ID, string(a.Region), a.Added, a.LastBattleTime, a.Disabled, a.Inactive, marshalStatsUpdated(a.StatsUpdated))
		if err != nil {
			return inserted, skipped, wrapErr("AccountsInsert.Exec", err)
		}
		if tag.RowsAffected() > 0 {
			inserted++
		} else {
			skipped++
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return inserted, skipped, wrapErr("AccountsInsert.Commit", err)
	}
	return inserted, skipped, nil
}

func (b *Backend) AccountUpdate(ctx context.Context, a models.Account, fields models.AccountFields) error {
	set := sqlutil.NewBuilder(sqlutil.DialectPostgres)
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
	sqlStr := fmt.Sprintf("UPDATE %s SET %s WHERE id = %s",
		backend.TableAccounts, joinSet(set.Clauses), set.Next())
	set.Args = append(set.Args, a.ID)
	if _, err := b.pool.Exec(ctx, sqlStr, set.Args...); err != nil {
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
		INSERT INTO %s (id, region, added, last_battle_time, disabled, inactive, stats_updated)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) %s`, backend.TableAccounts, conflict)
	_, err := b.pool.Exec(ctx, sqlStr,
		a.ID, string(a.Region), a.Added, a.LastBattleTime, a.Disabled, a.Inactive, marshalStatsUpdated(a.StatsUpdated))
	if err != nil {
		return wrapErr("AccountReplace", err)
	}
	return nil
}

func (b *Backend) AccountGet(ctx context.Context, id int64) (models.Account, error) {
	var a models.Account
	var region, statsUpdated *string
	var lbt *int64
	row := b.pool.QueryRow(ctx, fmt.Sprintf(
		"SELECT id, region, added, last_battle_time, disabled, inactive, stats_updated FROM %s WHERE id = $1",
		backend.TableAccounts), id)
	if err := row.Scan(&a.ID, &region, &a.Added, &lbt, &a.Disabled, &a.Inactive, &statsUpdated); err != nil {
		if err == pgx.ErrNoRows {
			return models.Account{}, wrapErr("AccountGet", fmt.Errorf("account %d: %w", id, err))
		}
		return models.Account{}, wrapErr("AccountGet", err)
	}
	if region != nil {
		a.Region = models.Region(*region)
	}
	if lbt != nil {
		a.LastBattleTime = *lbt
	}
	a.StatsUpdated = unmarshalStatsUpdated(statsUpdated)
	return a, nil
}

func (b *Backend) AccountsDelete(ctx context.Context, ids []int64) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	q := sqlutil.NewBuilder(sqlutil.DialectPostgres)
	q.Int64In("id", ids)
	tag, err := b.pool.Exec(ctx, fmt.Sprintf("DELETE FROM %s %s", backend.TableAccounts, q.Where()), q.Args...)
	if err != nil {
		return 0, wrapErr("AccountsDelete", err)
	}
	return int(tag.RowsAffected()), nil
}
