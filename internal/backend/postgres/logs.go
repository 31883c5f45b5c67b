package postgres

import (
	"context"
	"fmt"

	"github.com/Jylpah/blitzstats/internal/backend"
	"github.com/Jylpah/blitzstats/internal/models"
)

func (b *Backend) UpdateLogAppend(ctx context.Context, e models.UpdateLogEntry) error {
	_, err := b.pool.Exec(ctx, fmt.Sprintf(`
		INSERT INTO %s (id, action, stat_kind, release, at) VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE SET action=EXCLUDED.action, stat_kind=EXCLUDED.stat_kind,
			release=EXCLUDED.release, at=EXCLUDED.at`, backend.TableUpdateLog),
		e.ID, string(e.Action), string(e.Kind), e.Release, e.At)
	if err != nil {
		return wrapErr("UpdateLogAppend", err)
	}
	return nil
}

func (b *Backend) ErrorLogAppend(ctx context.Context, e models.ErrorLogEntry) error {
	_, err := b.pool.Exec(ctx, fmt.Sprintf(
		"INSERT INTO %s (id, account_id, type, message, time) VALUES ($1, $2, $3, $4, $5)", backend.TableErrorLog),
		e.ID, e.AccountID, e.Type, e.Message, e.At)
	if err != nil {
		return wrapErr("ErrorLogAppend", err)
	}
	return nil
}
