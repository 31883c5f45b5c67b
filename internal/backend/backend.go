// Package backend defines the persistence contract the ingestion core
// consumes (spec.md §4.4). Every operation is asynchronous (context-aware,
// streaming where the result set can be large) and fails with either
// ErrTransient (retriable) or ErrFatal. Concrete drivers live in
// sibling packages (duckdb, postgres, mongo); none of this package's
// callers import a driver package directly, only backend.Backend.
package backend

import (
	"context"

	"github.com/Jylpah/blitzstats/internal/models"
)

// Result carries one streamed row or the terminal error a stream ended
// with. A stream is exhausted when its channel closes; the last Result
// observed may carry a non-nil Err describing why iteration stopped
// early.
type Result[T any] struct {
	Value T
	Err   error
}

// Driver identifies a concrete Backend implementation for logging, plus
// the physical URIs of its collections/tables.
type Driver interface {
	Name() string
	URIs() map[string]string
}

// Backend is the full persistence contract. All batch inserts are
// idempotent by identity key; *_get streams tolerate the caller pausing
// (simply not reading from the returned channel for a while); a driver
// may reorder results unless a non-zero SortOrder is given.
type Backend interface {
	Driver

	// Accounts
	AccountsCount(ctx context.Context, f AccountFilters) (int64, error)
	AccountsGet(ctx context.Context, f AccountFilters) (<-chan Result[models.Account], error)
	AccountsInsert(ctx context.Context, batch []models.Account) (inserted, skipped int, err error)
	AccountUpdate(ctx context.Context, a models.Account, fields models.AccountFields) error
	AccountReplace(ctx context.Context, a models.Account, upsert bool) error
	AccountGet(ctx context.Context, id int64) (models.Account, error)
	AccountsDelete(ctx context.Context, ids []int64) (int, error)

	// TankStats
	TankStatsCount(ctx context.Context, f StatsFilters) (int64, error)
	TankStatsGet(ctx context.Context, f StatsFilters, sort SortOrder) (<-chan Result[models.TankStat], error)
	TankStatsInsert(ctx context.Context, batch []models.TankStat, force bool) (inserted, skipped int, err error)
	TankStatUpdate(ctx context.Context, row models.TankStat, fields []string) error
	TankStatDelete(ctx context.Context, key models.TankStatIdentityKey, lastBattleTime int64) error
	TankStatsDuplicates(ctx context.Context, tank int64, release string, regions []models.Region, sample Sample) (<-chan Result[models.TankStat], error)
	TankStatsUnique(ctx context.Context, field string, f StatsFilters) ([]any, error)
	TankStatsExport(ctx context.Context, sample Sample) (<-chan Result[models.TankStat], error)
	// TankStatsArchiveGet reads the TankStats_Archive superset (every row
	// ever observed, not just the newest per key), used by the
	// snapshotter's per-partition merge.
	TankStatsArchiveGet(ctx context.Context, f StatsFilters, sort SortOrder) (<-chan Result[models.TankStat], error)
	// TankStatArchiveHas reports whether the archive collection holds the
	// given identity, used by the pruner's optional archive safety check
	// before deleting from the hot collection.
	TankStatArchiveHas(ctx context.Context, key models.TankStatIdentityKey, lastBattleTime int64) (bool, error)

	// PlayerAchievements
	AchievementsCount(ctx context.Context, f StatsFilters) (int64, error)
	AchievementsGet(ctx context.Context, f StatsFilters, sort SortOrder) (<-chan Result[models.PlayerAchievement], error)
	AchievementsInsert(ctx context.Context, batch []models.PlayerAchievement, force bool) (inserted, skipped int, err error)
	AchievementUpdate(ctx context.Context, row models.PlayerAchievement, fields []string) error
	AchievementDelete(ctx context.Context, key models.PlayerAchievementIdentityKey, updated int64) error
	AchievementsDuplicates(ctx context.Context, release string, regions []models.Region, sample Sample) (<-chan Result[models.PlayerAchievement], error)
	AchievementsArchiveGet(ctx context.Context, f StatsFilters, sort SortOrder) (<-chan Result[models.PlayerAchievement], error)
	AchievementArchiveHas(ctx context.Context, key models.PlayerAchievementIdentityKey, updated int64) (bool, error)

	// Replays
	ReplayGet(ctx context.Context, id string) (models.Replay, bool, error)
	ReplayInsert(ctx context.Context, r models.Replay) error
	ReplaysExport(ctx context.Context, sample Sample) (<-chan Result[models.Replay], error)

	// Releases / Tankopedia
	ReleaseGet(ctx context.Context, release string) (models.Release, error)
	ReleasesGet(ctx context.Context) ([]models.Release, error)
	ReleaseUpsert(ctx context.Context, r models.Release) error
	TankopediaGetMany(ctx context.Context, ids []int64) ([]models.Tank, error)
	TankopediaCount(ctx context.Context) (int64, error)
	TankopediaUpsert(ctx context.Context, batch []models.Tank) (int, error)

	// StatsToDelete
	StatsToDeleteInsert(ctx context.Context, batch []models.StatsToDelete) (int, error)
	StatsToDeleteGet(ctx context.Context, statsType string, limit int) (<-chan Result[models.StatsToDelete], error)
	StatsToDeleteRemove(ctx context.Context, statsType string, ids []string) (int, error)
	StatsToDeleteReset(ctx context.Context, statsType string) (int, error)

	// Logs
	UpdateLogAppend(ctx context.Context, e models.UpdateLogEntry) error
	ErrorLogAppend(ctx context.Context, e models.ErrorLogEntry) error

	// Import helpers
	ObjsExport(ctx context.Context, table string, sample Sample, batchSize int) (<-chan Result[map[string]any], error)

	// Schema bootstrap (the "setup" CLI verb).
	EnsureSchema(ctx context.Context) error

	Close(ctx context.Context) error
}
