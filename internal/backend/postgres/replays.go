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

func (b *Backend) ReplayGet(ctx context.Context, id string) (models.Replay, bool, error) {
	var data *string
	row := b.pool.QueryRow(ctx, fmt.Sprintf("SELECT data FROM %s WHERE id = $1", backend.TableReplays), id)
	if err := row.Scan(&data); err != nil {
		if err == pgx.ErrNoRows {
			return models.Replay{}, false, nil
		}
		return models.Replay{}, false, wrapErr("ReplayGet", err)
	}
	r := models.Replay{ID: id}
	if data != nil && *data != "" {
		if err := json.Unmarshal([]byte(*data), &r.Data); err != nil {
			return models.Replay{}, false, wrapErr("ReplayGet.Unmarshal", err)
		}
	}
	return r, true, nil
}

func (b *Backend) ReplayInsert(ctx context.Context, r models.Replay) error {
	payload, err := json.Marshal(r.Data)
	if err != nil {
		return wrapErr("ReplayInsert.Marshal", err)
	}
	_, err = b.pool.Exec(ctx, fmt.Sprintf(
		"INSERT INTO %s (id, data) VALUES ($1, $2) ON CONFLICT (id) DO NOTHING", backend.TableReplays),
		r.ID, string(payload))
	if err != nil {
		return wrapErr("ReplayInsert", err)
	}
	return nil
}

func (b *Backend) ReplaysExport(ctx context.Context, sample backend.Sample) (<-chan backend.Result[models.Replay], error) {
	sqlStr := fmt.Sprintf("SELECT id, data FROM %s %s", backend.TableReplays, sqlutil.SampleClause(sample))
	rows, err := b.pool.Query(ctx, sqlStr)
	if err != nil {
		return nil, wrapErr("ReplaysExport", err)
	}
	out := make(chan backend.Result[models.Replay], 32)
	go func() {
		defer close(out)
		defer rows.Close()
		for rows.Next() {
			var id string
			var data *string
			if err := rows.Scan(&id, &data); err != nil {
				out <- backend.Result[models.Replay]{Err: wrapErr("ReplaysExport.Scan", err)}
				return
			}
			r := models.Replay{ID: id}
			if data != nil && *data != "" {
				if err := json.Unmarshal([]byte(*data), &r.Data); err != nil {
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
