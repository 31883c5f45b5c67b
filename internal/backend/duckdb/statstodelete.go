package duckdb

import (
	"context"
	"fmt"

	"github.com/Jylpah/blitzstats/internal/backend"
	"github.com/Jylpah/blitzstats/internal/models"
)

// StatsToDeleteInsert appends staging rows unconditionally: the same
// (type, id) pair may legitimately be queued twice across repeated
// `dedupe analyze` runs, and the pruner treats duplicates as a no-op via
// StatsToDeleteRemove, so no uniqueness constraint is enforced here.
func (b *Backend) StatsToDeleteInsert(ctx context.Context, batch []models.StatsToDelete) (int, error) {
	if len(batch) == 0 {
		return 0, nil
	}
	tx, err := b.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, wrapErr("StatsToDeleteInsert.Begin", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, fmt.Sprintf(
		"INSERT INTO %s (type, id, release) VALUES (?, ?, ?)", backend.TableStatsToDelete))
	if err != nil {
		return 0, wrapErr("StatsToDeleteInsert.Prepare", err)
	}
	defer stmt.Close()

	n := 0
	for _, s := range batch {
		if _, err := stmt.ExecContext(ctx, s.Type, s.ID, s.Release); err != nil {
			return n, wrapErr("StatsToDeleteInsert.Exec", err)
		}
		n++
	}
	if err := tx.Commit(); err != nil {
		return n, wrapErr("StatsToDeleteInsert.Commit", err)
	}
	return n, nil
}

func (b *Backend) StatsToDeleteGet(ctx context.Context, statsType string, limit int) (<-chan backend.Result[models.StatsToDelete], error) {
	sqlStr := fmt.Sprintf("SELECT type, id, release FROM %s WHERE type = ?", backend.TableStatsToDelete)
	args := []any{statsType}
	if limit > 0 {
		sqlStr += " LIMIT ?"
		args = append(args, limit)
	}
	rows, err := b.db.QueryContext(ctx, sqlStr, args...)
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
		placeholders += "?"
		args = append(args, id)
	}
	sqlStr := fmt.Sprintf("DELETE FROM %s WHERE type = ? AND id IN (%s)", backend.TableStatsToDelete, placeholders)
	res, err := b.db.ExecContext(ctx, sqlStr, args...)
	if err != nil {
		return 0, wrapErr("StatsToDeleteRemove", err)
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

func (b *Backend) StatsToDeleteReset(ctx context.Context, statsType string) (int, error) {
	res, err := b.db.ExecContext(ctx, fmt.Sprintf("DELETE FROM %s WHERE type = ?", backend.TableStatsToDelete), statsType)
	if err != nil {
		return 0, wrapErr("StatsToDeleteReset", err)
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}
