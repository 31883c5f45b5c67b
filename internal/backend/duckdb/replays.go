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

func (b *Backend) ReplayGet(ctx context.Context, id string) (models.Replay, bool, error) {
	var data sql.NullString
	row := b.db.QueryRowContext(ctx, fmt.Sprintf("SELECT data FROM %s WHERE id = ?", backend.TableReplays), id)
	if err := row.Scan(&data); err != nil {
		if err == sql.ErrNoRows {
			return models.Replay{}, false, nil
		}
		return models.Replay{}, false, wrapErr("ReplayGet", err)
	}
	r := models.Replay{ID: id}
	if data.Valid && data.String != "" {
		if err := json.Unmarshal([]byte(data.String), &r.Data); err != nil {
			return models.Replay{}, false, wrapErr("ReplayGet.Unmarshal", err)
		}
	}
	return r, true, nil
}

// ReplayInsert is idempotent on id: replays the crawler has already
// archived are skipped silently, matching its "already seen" dedup rule
// (C17).
func (b *Backend) ReplayInsert(ctx context.Context, r models.Replay) error {
	payload, err := json.Marshal(r.Data)
	if err != nil {
		return wrapErr("ReplayInsert.Marshal", err)
	}
	_, err = b.db.ExecContext(ctx, fmt.Sprintf(
		"INSERT INTO %s (id, data) VALUES (?, ?) ON CONFLICT (id) DO NOTHING", backend.TableReplays),
		r.ID, string(payload))
	if err != nil {
		return wrapErr("ReplayInsert", err)
	}
	return nil
}

func (b *Backend) ReplaysExport(ctx context.Context, sample backend.Sample) (<-chan backend.Result[models.Replay], error) {
	sqlStr := fmt.Sprintf("SELECT id, data FROM %s %s", backend.TableReplays, sqlutil.SampleClause(sample))
	rows, err := b.db.QueryContext(ctx, sqlStr)
	if err != nil {
		return nil, wrapErr("ReplaysExport", err)
	}
	out := make(chan backend.Result[models.Replay], 32)
	go func() {
		defer close(out)
		defer rows.Close()
		for rows.Next() {
			var id string
			var data sql.NullString
			if err := rows.Scan(&id, &data); err != nil {
				out <- backend.Result[models.Replay]{Err: wrapErr("ReplaysExport.Scan", err)}
				return
			}
			r := models.Replay{ID: id}
			if data.Valid && data.String != "" {
				if err := json.Unmarshal([]byte(data.String), &r.Data); err != nil {
					out <- backend.Result[models.Replay]{Err: wrapErr("ReplaysExport.Unmarshal", err)}
					return
				}
			}
			out <- backend.Result[models.Replay]{Value: r}
		}
		if err := rows.Err(); err != nil {
			out <- backend.Result[models.Replay]{Err: wrapErr("ReplaysExport.rows", err)}
		}
	}()
	return out, nil
}
