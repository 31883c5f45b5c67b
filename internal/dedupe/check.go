package dedupe

import (
	"context"

	"github.com/Jylpah/blitzstats/internal/backend"
	"github.com/Jylpah/blitzstats/internal/counter"
	"github.com/Jylpah/blitzstats/internal/models"
)

// CheckResult classifies one StatsToDelete candidate inspected by the
// check phase, before the pruner is trusted to delete anything.
type CheckResult int

const (
	// CheckOK means the row at the identity key still exists and its
	// timestamp is strictly older than the newest one on file, i.e. it is
	// safe to prune.
	CheckOK CheckResult = iota
	// CheckNotFound means the row no longer exists (already pruned by an
	// earlier run, or never existed) - skip it, don't treat it as an error.
	CheckNotFound
	// CheckInvalid means the candidate's own timestamp IS the newest on
	// file, so pruning it would delete the row the analyzer meant to
	// keep. This only happens if the hot collection changed between
	// analyze and check; the pruner must never touch this row.
	CheckInvalid
)

func (r CheckResult) String() string {
	switch r {
	case CheckOK:
		return "ok"
	case CheckNotFound:
		return "not_found"
	case CheckInvalid:
		return "invalid"
	default:
		return "unknown"
	}
}

// CheckConfig scopes a check run over one statsType's staged candidates.
type CheckConfig struct {
	Backend   backend.Backend
	StatsType string
	Batch     int
}

// CheckTankStats re-reads the current newest row for each staged
// tank-stat candidate and classifies it, returning the subset that is
// safe to prune (CheckOK) alongside the classification counts.
func CheckTankStats(ctx context.Context, cfg CheckConfig) ([]models.StatsToDelete, *counter.EventCounter, error) {
	stats := counter.New("dedupe:check:tank_stats")
	if cfg.Batch <= 0 {
		cfg.Batch = 500
	}

	ch, err := cfg.Backend.StatsToDeleteGet(ctx, cfg.StatsType, cfg.Batch)
	if err != nil {
		return nil, stats, err
	}

	var safe []models.StatsToDelete
	for res := range ch {
		if res.Err != nil {
			stats.Log("errors", 1)
			continue
		}
		candidate := res.Value
		key, lastBattleTime, err := models.DecodeTankStatID(candidate.ID)
		if err != nil {
			stats.Log("errors", 1)
			continue
		}

		result := classifyTankStat(ctx, cfg.Backend, key, lastBattleTime)
		stats.Log(result.String(), 1)
		if result == CheckOK {
			safe = append(safe, candidate)
		}
	}
	return safe, stats, nil
}

func classifyTankStat(ctx context.Context, be backend.Backend, key models.TankStatIdentityKey, lastBattleTime int64) CheckResult {
	f := backend.StatsFilters{Accounts: []int64{key.AccountID}, Tanks: []int64{key.TankID}}
	ch, err := be.TankStatsGet(ctx, f, backend.SortTimestampDesc)
	if err != nil {
		return CheckNotFound
	}
	var newest *models.TankStat
	for res := range ch {
		if res.Err != nil {
			continue
		}
		row := res.Value
		if newest == nil {
			r := row
			newest = &r
		}
	}
	if newest == nil {
		return CheckNotFound
	}
	if newest.LastBattleTime == lastBattleTime {
		return CheckInvalid
	}
	return CheckOK
}

// CheckAchievements is CheckTankStats's PlayerAchievement analogue.
func CheckAchievements(ctx context.Context, cfg CheckConfig) ([]models.StatsToDelete, *counter.EventCounter, error) {
	stats := counter.New("dedupe:check:player_achievements")
	if cfg.Batch <= 0 {
		cfg.Batch = 500
	}

	ch, err := cfg.Backend.StatsToDeleteGet(ctx, cfg.StatsType, cfg.Batch)
	if err != nil {
		return nil, stats, err
	}

	var safe []models.StatsToDelete
	for res := range ch {
		if res.Err != nil {
			stats.Log("errors", 1)
			continue
		}
		candidate := res.Value
		key, updated, err := models.DecodeAchievementID(candidate.ID)
		if err != nil {
			stats.Log("errors", 1)
			continue
		}

		result := classifyAchievement(ctx, cfg.Backend, key, updated)
		stats.Log(result.String(), 1)
		if result == CheckOK {
			safe = append(safe, candidate)
		}
	}
	return safe, stats, nil
}

func classifyAchievement(ctx context.Context, be backend.Backend, key models.PlayerAchievementIdentityKey, updated int64) CheckResult {
	f := backend.StatsFilters{Accounts: []int64{key.AccountID}}
	ch, err := be.AchievementsGet(ctx, f, backend.SortTimestampDesc)
	if err != nil {
		return CheckNotFound
	}
	var newest *models.PlayerAchievement
	for res := range ch {
		if res.Err != nil {
			continue
		}
		row := res.Value
		if newest == nil {
			r := row
			newest = &r
		}
	}
	if newest == nil {
		return CheckNotFound
	}
	if newest.Updated == updated {
		return CheckInvalid
	}
	return CheckOK
}
