package fetcher

import (
	"context"

	"github.com/Jylpah/blitzstats/internal/backend"
	"github.com/Jylpah/blitzstats/internal/counter"
	"github.com/Jylpah/blitzstats/internal/models"
	"github.com/Jylpah/blitzstats/internal/queue"
	"github.com/Jylpah/blitzstats/internal/releases"
	"github.com/Jylpah/blitzstats/internal/upstream"
)

// TankStatsConfig builds a Config[models.TankStat] wired against client
// and be, matching spec.md §4.7's "tank-stats update" command.
func TankStatsConfig(client *upstream.Client, be backend.Backend, mapper *releases.Mapper, workers int) Config[models.TankStat] {
	return Config[models.TankStat]{
		Backend: be,
		Mapper:  mapper,
		Kind:    models.StatsKindTankStats,
		Workers: workers,
		Fetch: func(ctx context.Context, accountID int64, region models.Region) ([]models.TankStat, error) {
			return client.GetTankStats(ctx, accountID, region)
		},
		Insert: func(ctx context.Context, batch []models.TankStat, force bool) (int, int, error) {
			return be.TankStatsInsert(ctx, batch, force)
		},
	}
}

// PlayerAchievementsConfig builds a Config[models.PlayerAchievement] wired
// against client and be, matching spec.md §4.7's "player-achievements
// update" command. Each fetched account yields at most one row, so Fetch
// wraps the single-value upstream call in a one-element (or empty) slice.
func PlayerAchievementsConfig(client *upstream.Client, be backend.Backend, mapper *releases.Mapper, workers int) Config[models.PlayerAchievement] {
	return Config[models.PlayerAchievement]{
		Backend: be,
		Mapper:  mapper,
		Kind:    models.StatsKindPlayerAchievement,
		Workers: workers,
		Fetch: func(ctx context.Context, accountID int64, region models.Region) ([]models.PlayerAchievement, error) {
			a, err := client.GetPlayerAchievements(ctx, accountID, region)
			if err != nil {
				return nil, err
			}
			if a == nil {
				return nil, nil
			}
			return []models.PlayerAchievement{*a}, nil
		},
		Insert: func(ctx context.Context, batch []models.PlayerAchievement, force bool) (int, int, error) {
			return be.AchievementsInsert(ctx, batch, force)
		},
	}
}

// RunTankStats fetches and stores tank stats for every account on accountQ.
func RunTankStats(ctx context.Context, client *upstream.Client, be backend.Backend, mapper *releases.Mapper, workers int, accountQ *queue.Queue[models.Account], totalAccounts int) (*counter.EventCounter, error) {
	return Run(ctx, TankStatsConfig(client, be, mapper, workers), accountQ, totalAccounts)
}

// RunPlayerAchievements fetches and stores achievement counters for every
// account on accountQ.
func RunPlayerAchievements(ctx context.Context, client *upstream.Client, be backend.Backend, mapper *releases.Mapper, workers int, accountQ *queue.Queue[models.Account], totalAccounts int) (*counter.EventCounter, error) {
	return Run(ctx, PlayerAchievementsConfig(client, be, mapper, workers), accountQ, totalAccounts)
}
