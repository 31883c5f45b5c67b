package postgres

import (
	"context"
	"fmt"

	"github.com/Jylpah/blitzstats/internal/backend"
	"github.com/Jylpah/blitzstats/internal/models"
)

func (b *Backend) StatsToDeleteInsert(ctx context.Context, batch []models.StatsToDelete) (int, error) {
	if len(batch) == 0 {
		return 0, nil
	}
	tx, err := b.pool.Begin(ctx)
	if err != nil {
		return 0, wrapErr("StatsToDeleteInsert.Begin", err)
	}
	defer tx.Rollback(ctx)

	n := 0
	for _, s := range batch {
		_, err := tx.Exec(ctx, fmt.Sprintf(
			"INSERT INTO %s (type, id, release) VALUES ($1, $2, $3)", backend.TableStatsToDelete),
			s.Type, s.ID, s.Release)
		if err != nil {
			return n, wrapErr("StatsToDeleteInsert.Exec", err)
		}
		n++
	}
	if err := tx.Commit(ctx); err != nil {
		return n, wrapErr("StatsToDeleteInsert.Commit", err)
	}
	return n, nil
}

func (b *Backend) StatsToDeleteGet(ctx context.Context, statsType string, limit int) (<-chan backend.Result[models.StatsToDelete], error) {
	sqlStr := fmt.Sprintf("SELECT type, id, release FROM %s WHERE type = $1", backend.TableStatsToDelete)
	args := []any{statsType}
	if limit > 0 {
		sqlStr += " LIMIT $2"
		args = append(args, limit)
	}
	rows, err := b.pool.Query(ctx, sqlStr, args...)
	if err != nil {
		return nil, wrapErr("StatsToDeleteGet", err)
	}
	out := make(chan backend.Result[models.StatsToDelete], 32)
	go func() {
		defer close(out)
		defer rows.Close()
		for rows.Next() {
			var s models.StatsToDelete
			if err := rows.Scan(&s.Type, &s.ID, &s.Release); err != nil {
				out <- backend.Result[models.StatsToDelete]{Err: wrapErr("StatsToDeleteGet.Scan", err)}
				return
			}
			out <- backend.Result[models.StatsToDelete]{Value: s}
		}
		if err := rows.Err(); err != nil {
			out <- backend.Result[models.StatsToDelete]{Err: wrapErr("StatsToDeleteGet.rows", err)}
		}
	}()
	return out, nil
}

func (b *Backend) StatsToDeleteRemove(ctx context.Context, statsType string, ids []string) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	placeholders := ""
	args := []any{statsType}
	for i, id := range ids {
		if i > 0 {
			placeholders += ", "
		}
		placeholders += fmt.Sprintf("$%d", i+2)
		args = append(args, id)
	}
	sqlStr := fmt.Sprintf("DELETE FROM %s WHERE type = $1 AND id IN (%s)", backend.TableStatsToDelete, placeholders)
	tag, err := b.pool.Exec(ctx, sqlStr, args...)
	if err != nil {
		return 0, wrapErr("StatsToDeleteRemove", err)
	}
	return int(tag.RowsAffected()), nil
}

func (b *Backend) StatsToDeleteReset(ctx context.Context, statsType string) (int, error) {
	tag, err := b.pool.Exec(ctx, fmt.Sprintf("DELETE FROM %s WHERE type = $1", backend.TableStatsToDelete), statsType)
	if err != nil {
		return 0, wrapErr("StatsToDeleteReset", err)
	}
	return int(tag.RowsAffected()), nil
}
