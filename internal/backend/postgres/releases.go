package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/Jylpah/blitzstats/internal/backend"
	"github.com/Jylpah/blitzstats/internal/models"
)

func (b *Backend) ReleaseGet(ctx context.Context, release string) (models.Release, error) {
	var r models.Release
	row := b.pool.QueryRow(ctx,
		fmt.Sprintf("SELECT release, launch_time, cutoff_time FROM %s WHERE release = $1", backend.TableReleases), release)
	if err := row.Scan(&r.Release, &r.LaunchTime, &r.CutoffTime); err != nil {
		if err == pgx.ErrNoRows {
			return models.Release{}, wrapErr("ReleaseGet", fmt.Errorf("release %q: %w", release, err))
		}
		return models.Release{}, wrapErr("ReleaseGet", err)
	}
	return r, nil
}

func (b *Backend) ReleasesGet(ctx context.Context) ([]models.Release, error) {
	rows, err := b.pool.Query(ctx,
		fmt.Sprintf("SELECT release, launch_time, cutoff_time FROM %s ORDER BY launch_time ASC", backend.TableReleases))
	if err != nil {
		return nil, wrapErr("ReleasesGet", err)
	}
	defer rows.Close()
	var out []models.Release
	for rows.Next() {
		var r models.Release
		if err := rows.Scan(&r.Release, &r.LaunchTime, &r.CutoffTime); err != nil {
			return nil, wrapErr("ReleasesGet.Scan", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (b *Backend) ReleaseUpsert(ctx context.Context, r models.Release) error {
	_, err := b.pool.Exec(ctx, fmt.Sprintf(`
		INSERT INTO %s (release, launch_time, cutoff_time) VALUES ($1, $2, $3)
		ON CONFLICT (release) DO UPDATE SET launch_time=EXCLUDED.launch_time, cutoff_time=EXCLUDED.cutoff_time`,
		backend.TableReleases), r.Release, r.LaunchTime, r.CutoffTime)
	if err != nil {
		return wrapErr("ReleaseUpsert", err)
	}
	return nil
}

func (b *Backend) TankopediaGetMany(ctx context.Context, ids []int64) ([]models.Tank, error) {
	sqlStr := fmt.Sprintf("SELECT tank_id, name, nation, tier, type, is_premium FROM %s", backend.TableTankopedia)
	var args []any
	if len(ids) > 0 {
		placeholders := ""
		for i, id := range ids {
			if i > 0 {
				placeholders += ", "
			}
			placeholders += fmt.Sprintf("$%d", i+1)
			args = append(args, id)
		}
		sqlStr += fmt.Sprintf(" WHERE tank_id IN (%s)", placeholders)
	}
	rows, err := b.pool.Query(ctx, sqlStr, args...)
	if err != nil {
		return nil, wrapErr("TankopediaGetMany", err)
	}
	defer rows.Close()
	var out []models.Tank
	for rows.Next() {
		var t models.Tank
		if err := rows.Scan(&t.TankID, &t.Name, &t.Nation, &t.Tier, &t.Type, &t.IsPremium); err != nil {
			return nil, wrapErr("TankopediaGetMany.Scan", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (b *Backend) TankopediaCount(ctx context.Context) (int64, error) {
	var n int64
	err := b.pool.QueryRow(ctx, fmt.Sprintf("SELECT COUNT(*) FROM %s", backend.TableTankopedia)).Scan(&n)
	if err != nil {
		return 0, wrapErr("TankopediaCount", err)
	}
	return n, nil
}

func (b *Backend) TankopediaUpsert(ctx context.Context, batch []models.Tank) (int, error) {
	if len(batch) == 0 {
		return 0, nil
	}
	tx, err := b.pool.Begin(ctx)
	if err != nil {
		return 0, wrapErr("TankopediaUpsert.Begin", err)
	}
	defer tx.Rollback(ctx)

	n := 0
	for _, t := range batch {
		_, err := tx.Exec(ctx, fmt.Sprintf(`
			INSERT INTO %s (tank_id, name, nation, tier, type, is_premium) VALUES ($1, $2, $3, $4, $5, $6)
			ON CONFLICT (tank_id) DO UPDATE SET name=EXCLUDED.name, nation=EXCLUDED.nation,
				tier=EXCLUDED.tier, type=EXCLUDED.type, is_premium=EXCLUDED.is_premium`, backend.TableTankopedia),
			t.TankID, t.Name, t.Nation, t.Tier, t.Type, t.IsPremium)
		if err != nil {
			return n, wrapErr("TankopediaUpsert.Exec", err)
		}
		n++
	}
	if err := tx.Commit(ctx); err != nil {
		return n, wrapErr("TankopediaUpsert.Commit", err)
	}
	return n, nil
}
