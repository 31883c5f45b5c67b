package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/Jylpah/blitzstats/internal/backend"
	"github.com/Jylpah/blitzstats/internal/backend/sqlutil"
	"github.com/Jylpah/blitzstats/internal/models"
)

func marshalMedals(m map[string]int) string {
	if len(m) == 0 {
		return "{}"
	}
	b, _ := json.Marshal(m)
	return string(b)
}

func unmarshalMedals(s *string) map[string]int {
	out := map[string]int{}
	if s == nil || *s == "" {
		return out
	}
	_ = json.Unmarshal([]byte(*s), &out)
	return out
}

func achievementsFilterBuilder(f backend.StatsFilters) *sqlutil.Builder {
	q := sqlutil.NewBuilder(sqlutil.DialectPostgres)
	q.Release("release", f.Release)
	q.Regions("region", f.Regions)
	q.Int64In("account_id", f.Accounts)
	q.Since("updated", f.Since)
	q.Range("account_id", f.AccountIDMin, f.AccountIDMax)
	return q
}

func (b *Backend) AchievementsCount(ctx context.Context, f backend.StatsFilters) (int64, error) {
	q := achievementsFilterBuilder(f)
	sqlStr := fmt.Sprintf("SELECT COUNT(*) FROM %s %s", backend.TablePlayerAchievements, q.Where())
	var n int64
	if err := b.pool.QueryRow(ctx, sqlStr, q.Args...).Scan(&n); err != nil {
		return 0, wrapErr("AchievementsCount", err)
	}
	return n, nil
}

func scanAchievement(rows interface{ Scan(...any) error }) (models.PlayerAchievement, error) {
	var a models.PlayerAchievement
	var release, region, medals *string
	err := rows.Scan(&a.AccountID, &a.Updated, &release, &region, &medals)
	if release != nil {
		a.Release = *release
	}
	if region != nil {
		a.Region = models.Region(*region)
	}
	a.Medals = unmarshalMedals(medals)
	return a, err
}

func (b *Backend) AchievementsGet(ctx context.Context, f backend.StatsFilters, sort backend.SortOrder) (<-chan backend.Result[models.PlayerAchievement], error) {
	q := achievementsFilterBuilder(f)
	sqlStr := fmt.Sprintf("SELECT account_id, updated, release, region, medals FROM %s %s %s %s",
		backend.TablePlayerAchievements, q.Where(), orderBy("updated", sort), sqlutil.SampleClause(f.Sample))

	rows, err := b.pool.Query(ctx, sqlStr, q.Args...)
	if err != nil {
		return nil, wrapErr("AchievementsGet", err)
	}
	out := make(chan backend.Result[models.PlayerAchievement], 32)
	go func() {
		defer close(out)
		defer rows.Close()
		for rows.Next() {
			a, err := scanAchievement(rows)
			if err != nil {
				out <- backend.Result[models.PlayerAchievement]{Err: wrapErr("AchievementsGet.Scan", err)}
				return
			}
			out <- backend.Result[models.PlayerAchievement]{Value: a}
		}
		if err := rows.Err(); err != nil {
			out <- backend.Result[models.PlayerAchievement]{Err: wrapErr("AchievementsGet.rows", err)}
		}
	}()
	return out, nil
}

func (b *Backend) AchievementsInsert(ctx context.Context, batch []models.PlayerAchievement, force bool) (int, int, error) {
	if len(batch) == 0 {
		return 0, 0, nil
	}
	tx, err := b.pool.Begin(ctx)
	if err != nil {
		return 0, 0, wrapErr("AchievementsInsert.Begin", err)
	}
	defer tx.Rollback(ctx)

	conflict := "DO NOTHING"
	if force {
		conflict = `DO UPDATE SET release=EXCLUDED.release, region=EXCLUDED.region, medals=EXCLUDED.medals`
	}
	inserted, skipped := 0, 0
	for _, a := range batch {
		tag, err := tx.Exec(ctx, fmt.Sprintf(`
			INSERT INTO %s (account_id, updated, release, region, medals)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (account_id, updated) %s`, backend.TablePlayerAchievements, conflict),
			a.AccountID, a.Updated, a.Release, string(a.Region), marshalMedals(a.Medals))
		if err != nil {
			return inserted, skipped, wrapErr("AchievementsInsert.Exec", err)
		}
		if tag.RowsAffected() > 0 {
			inserted++
		} else {
			skipped++
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return inserted, skipped, wrapErr("AchievementsInsert.Commit", err)
	}
	return inserted, skipped, nil
}

func (b *Backend) AchievementUpdate(ctx context.Context, row models.PlayerAchievement, fields []string) error {
	set := sqlutil.NewBuilder(sqlutil.DialectPostgres)
	args := map[string]any{
		"release": row.Release,
		"region":  string(row.Region),
		"medals":  marshalMedals(row.Medals),
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
	sqlStr := fmt.Sprintf("UPDATE %s SET %s WHERE account_id = %s AND updated = %s",
		backend.TablePlayerAchievements, joinSet(set.Clauses), set.Next(), set.Next())
	set.Args = append(set.Args, row.AccountID, row.Updated)
	if _, err := b.pool.Exec(ctx, sqlStr, set.Args...); err != nil {
		return wrapErr("AchievementUpdate", err)
	}
	return nil
}

func (b *Backend) AchievementDelete(ctx context.Context, key models.PlayerAchievementIdentityKey, updated int64) error {
	_, err := b.pool.Exec(ctx, fmt.Sprintf(
		"DELETE FROM %s WHERE account_id = $1 AND updated = $2", backend.TablePlayerAchievements),
		key.AccountID, updated)
	if err != nil {
		return wrapErr("AchievementDelete", err)
	}
	return nil
}

func (b *Backend) AchievementsDuplicates(ctx context.Context, release string, regions []models.Region, sample backend.Sample) (<-chan backend.Result[models.PlayerAchievement], error) {
	q := sqlutil.NewBuilder(sqlutil.DialectPostgres)
	q.Release("release", release)
	q.Regions("region", regions)
	sqlStr := fmt.Sprintf(`SELECT account_id, updated, release, region, medals
		FROM %s WHERE account_id IN (
			SELECT account_id FROM %s GROUP BY account_id HAVING COUNT(*) > 1
		) %s %s`,
		backend.TablePlayerAchievements, backend.TablePlayerAchievements,
		strippedAnd(q.Where()), sqlutil.SampleClause(sample))

	rows, err := b.pool.Query(ctx, sqlStr, q.Args...)
	if err != nil {
		return nil, wrapErr("AchievementsDuplicates", err)
	}
	out := make(chan backend.Result[models.PlayerAchievement], 32)
	go func() {
		defer close(out)
		defer rows.Close()
		for rows.Next() {
			a, err := scanAchievement(rows)
			if err != nil {
				out <- backend.Result[models.PlayerAchievement]{Err: wrapErr("AchievementsDuplicates.Scan", err)}
				return
			}
			out <- backend.Result[models.PlayerAchievement]{Value: a}
		}
		if err := rows.Err(); err != nil {
			out <- backend.Result[models.PlayerAchievement]{Err: wrapErr("AchievementsDuplicates.rows", err)}
		}
	}()
	return out, nil
}
