package remap

import (
	"context"

	"github.com/google/uuid"

	"github.com/Jylpah/blitzstats/internal/backend"
	"github.com/Jylpah/blitzstats/internal/counter"
	"github.com/Jylpah/blitzstats/internal/logging"
	"github.com/Jylpah/blitzstats/internal/models"
	"github.com/Jylpah/blitzstats/internal/releases"
)

// Config scopes one remap pass.
type Config struct {
	Backend backend.Backend
	Mapper  *releases.Mapper
	Filter  backend.StatsFilters
	// Commit persists the corrected release; false is a dry run that only
	// logs what would change.
	Commit bool
}

// TankStats streams TankStats matching cfg.Filter, recomputes each
// row's release, and either logs or persists a mismatch.
func TankStats(ctx context.Context, cfg Config) (*counter.EventCounter, error) {
	stats := counter.New("remap:tank_stats")

	ch, err := cfg.Backend.TankStatsGet(ctx, cfg.Filter, backend.SortNone)
	if err != nil {
		return stats, err
	}

	for res := range ch {
		if res.Err != nil {
			stats.Log("errors", 1)
			continue
		}
		row := res.Value
		stats.Log("rows scanned", 1)

		correct, err := releases.Assign(cfg.Mapper, row)
		if err != nil {
			stats.Log("unmappable", 1)
			continue
		}
		if correct == row.Release {
			stats.Log("unchanged", 1)
			continue
		}

		if !cfg.Commit {
			logging.Info().Int64("account_id", row.AccountID).Int64("tank_id", row.TankID).
				Str("from", row.Release).Str("to", correct).Msg("remap: would change release")
			stats.Log("would change", 1)
			continue
		}

		updated := row.WithRelease(correct)
		if err := cfg.Backend.TankStatUpdate(ctx, updated, []string{"release"}); err != nil {
			stats.Log("errors", 1)
			_ = cfg.Backend.ErrorLogAppend(ctx, models.ErrorLogEntry{
				ID: uuid.NewString(), AccountID: row.AccountID, Type: "remap:tank_stats", Message: err.Error(),
			})
			continue
		}
		stats.Log("changed", 1)
	}

	if stats.Get("errors") == 0 && cfg.Commit {
		_ = cfg.Backend.UpdateLogAppend(ctx, models.UpdateLogEntry{
			ID: "remap:tank_stats:" + cfg.Filter.Release, Action: models.ActionRemap,
			Kind: models.StatsKindTankStats, Release: cfg.Filter.Release,
		})
	}
	return stats, nil
}

// Achievements is TankStats's PlayerAchievement analogue.
func Achievements(ctx context.Context, cfg Config) (*counter.EventCounter, error) {
	stats := counter.New("remap:player_achievements")

	ch, err := cfg.Backend.AchievementsGet(ctx, cfg.Filter, backend.SortNone)
	if err != nil {
		return stats, err
	}

	for res := range ch {
		if res.Err != nil {
			stats.Log("errors", 1)
			continue
		}
		row := res.Value
		stats.Log("rows scanned", 1)

		correct, err := releases.Assign(cfg.Mapper, row)
		if err != nil {
			stats.Log("unmappable", 1)
			continue
		}
		if correct == row.Release {
			stats.Log("unchanged", 1)
			continue
		}

		if !cfg.Commit {
			logging.Info().Int64("account_id", row.AccountID).
				Str("from", row.Release).Str("to", correct).Msg("remap: would change release")
			stats.Log("would change", 1)
			continue
		}

		updated := row.WithRelease(correct)
		if err := cfg.Backend.AchievementUpdate(ctx, updated, []string{"release"}); err != nil {
			stats.Log("errors", 1)
			_ = cfg.Backend.ErrorLogAppend(ctx, models.ErrorLogEntry{
				ID: uuid.NewString(), AccountID: row.AccountID, Type: "remap:player_achievements", Message: err.Error(),
			})
			continue
		}
		stats.Log("changed", 1)
	}

	if stats.Get("errors") == 0 && cfg.Commit {
		_ = cfg.Backend.UpdateLogAppend(ctx, models.UpdateLogEntry{
			ID: "remap:player_achievements:" + cfg.Filter.Release, Action: models.ActionRemap,
			Kind: models.StatsKindPlayerAchievement, Release: cfg.Filter.Release,
		})
	}
	return stats, nil
}
