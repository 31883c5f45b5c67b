package dedupe

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Jylpah/blitzstats/internal/backend"
	"github.com/Jylpah/blitzstats/internal/counter"
	"github.com/Jylpah/blitzstats/internal/logging"
	"github.com/Jylpah/blitzstats/internal/models"
)

// PruneConfig scopes one prune run. ArchiveCheck gates the optional
// safety check: before deleting from the hot collection, confirm the
// row is also present in the archive collection, so a prune can never
// lose data the archive hasn't captured yet.
type PruneConfig struct {
	Backend      backend.Backend
	StatsType    string
	Batch        int
	ArchiveCheck bool
}

// PruneTankStats deletes every candidate in candidates (already vetted
// by CheckTankStats) and removes them from the staging collection. A
// batch whose ArchiveCheck fails for any row aborts entirely rather
// than partially deleting it, so a retry sees the same candidate set.
func PruneTankStats(ctx context.Context, cfg PruneConfig, candidates []models.StatsToDelete) (*counter.EventCounter, error) {
	stats := counter.New("dedupe:prune:tank_stats")
	if len(candidates) == 0 {
		return stats, nil
	}

	if cfg.ArchiveCheck {
		for _, c := range candidates {
			key, lastBattleTime, err := models.DecodeTankStatID(c.ID)
			if err != nil {
				stats.Log("errors", 1)
				return stats, err
			}
			ok, err := cfg.Backend.TankStatArchiveHas(ctx, key, lastBattleTime)
			if err != nil {
				stats.Log("errors", 1)
				return stats, err
			}
			if !ok {
				stats.Log("archive check failed", 1)
				return stats, errArchiveCheckFailed
			}
		}
	}

	var deletedIDs []string
	for _, c := range candidates {
		key, lastBattleTime, err := models.DecodeTankStatID(c.ID)
		if err != nil {
			stats.Log("errors", 1)
			continue
		}
		if err := cfg.Backend.TankStatDelete(ctx, key, lastBattleTime); err != nil {
			stats.Log("errors", 1)
			_ = cfg.Backend.ErrorLogAppend(ctx, models.ErrorLogEntry{
				ID: uuid.NewString(), AccountID: key.AccountID, Type: "dedupe:prune:tank_stats",
				Message: err.Error(), At: time.Now().Unix(),
			})
			continue
		}
		stats.Log("pruned", 1)
		deletedIDs = append(deletedIDs, c.ID)
	}

	if len(deletedIDs) > 0 {
		n, err := cfg.Backend.StatsToDeleteRemove(ctx, cfg.StatsType, deletedIDs)
		if err != nil {
			logging.Warn().Err(err).Msg("failed to clear pruned staging rows")
			stats.Log("errors", 1)
		} else {
			stats.Log("staging rows cleared", int64(n))
		}
	}

	if stats.Get("errors") == 0 {
		_ = cfg.Backend.UpdateLogAppend(ctx, models.UpdateLogEntry{
			ID: "prune:" + cfg.StatsType, Action: models.ActionPrune,
			Kind: statsKindOf(cfg.StatsType), At: time.Now().Unix(),
		})
	}
	return stats, nil
}

// PruneAchievements is PruneTankStats's PlayerAchievement analogue.
func PruneAchievements(ctx context.Context, cfg PruneConfig, candidates []models.StatsToDelete) (*counter.EventCounter, error) {
	stats := counter.New("dedupe:prune:player_achievements")
	if len(candidates) == 0 {
		return stats, nil
	}

	if cfg.ArchiveCheck {
		for _, c := range candidates {
			key, updated, err := models.DecodeAchievementID(c.ID)
			if err != nil {
				stats.Log("errors", 1)
				return stats, err
			}
			ok, err := cfg.Backend.AchievementArchiveHas(ctx, key, updated)
			if err != nil {
				stats.Log("errors", 1)
				return stats, err
			}
			if !ok {
				stats.Log("archive check failed", 1)
				return stats, errArchiveCheckFailed
			}
		}
	}

	var deletedIDs []string
	for _, c := range candidates {
		key, updated, err := models.DecodeAchievementID(c.ID)
		if err != nil {
			stats.Log("errors", 1)
			continue
		}
		if err := cfg.Backend.AchievementDelete(ctx, key, updated); err != nil {
			stats.Log("errors", 1)
			_ = cfg.Backend.ErrorLogAppend(ctx, models.ErrorLogEntry{
				ID: uuid.NewString(), AccountID: key.AccountID, Type: "dedupe:prune:player_achievements",
				Message: err.Error(), At: time.Now().Unix(),
			})
			continue
		}
		stats.Log("pruned", 1)
		deletedIDs = append(deletedIDs, c.ID)
	}

	if len(deletedIDs) > 0 {
		n, err := cfg.Backend.StatsToDeleteRemove(ctx, cfg.StatsType, deletedIDs)
		if err != nil {
			logging.Warn().Err(err).Msg("failed to clear pruned staging rows")
			stats.Log("errors", 1)
		} else {
			stats.Log("staging rows cleared", int64(n))
		}
	}

	if stats.Get("errors") == 0 {
		_ = cfg.Backend.UpdateLogAppend(ctx, models.UpdateLogEntry{
			ID: "prune:" + cfg.StatsType, Action: models.ActionPrune,
			Kind: statsKindOf(cfg.StatsType), At: time.Now().Unix(),
		})
	}
	return stats, nil
}

var errArchiveCheckFailed = pruneErr("archive check failed: candidate missing from archive collection")

type pruneErr string

func (e pruneErr) Error() string { return string(e) }

// statsKindOf strips an optional archive suffix off a StatsToDelete.Type.
func statsKindOf(statsType string) models.StatsKind {
	return models.StatsKind(strings.TrimSuffix(statsType, models.ArchiveSuffix))
}
