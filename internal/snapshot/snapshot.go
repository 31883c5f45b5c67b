package snapshot

import (
	"context"
	"sync"

	"github.com/Jylpah/blitzstats/internal/backend"
	"github.com/Jylpah/blitzstats/internal/counter"
	"github.com/Jylpah/blitzstats/internal/dedupe"
	"github.com/Jylpah/blitzstats/internal/metrics"
	"github.com/Jylpah/blitzstats/internal/models"
	"github.com/Jylpah/blitzstats/internal/queue"
)

// Config scopes one snapshot run over a set of partitions.
type Config struct {
	Backend       backend.Backend
	Release       string
	Regions       []models.Region
	Partitions    []dedupe.Partition
	Workers       int
	QueueCapacity int
	InsertBatch   int
}

func (c Config) withDefaults() Config {
	if c.Workers <= 0 {
		c.Workers = 4
	}
	if c.QueueCapacity <= 0 {
		c.QueueCapacity = 100
	}
	if c.InsertBatch <= 0 {
		c.InsertBatch = 500
	}
	return c
}

// RunTankStats merges the TankStats archive into the hot collection,
// one partition at a time.
func RunTankStats(ctx context.Context, cfg Config) (*counter.EventCounter, error) {
	cfg = cfg.withDefaults()

	partitionQ := queue.New[dedupe.Partition](cfg.QueueCapacity, true)
	partitionQ.AddProducer()
	go func() {
		defer partitionQ.Finish()
		for _, p := range dedupe.Shuffle(cfg.Partitions, int64(len(cfg.Partitions))) {
			if err := partitionQ.Put(ctx, p); err != nil {
				return
			}
		}
	}()

	stats := counter.New("snapshot:tank_stats")
	var wg sync.WaitGroup
	for i := 0; i < cfg.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			stats.MergeChild(mergeTankStatsPartition(ctx, cfg, partitionQ))
		}()
	}
	wg.Wait()

	if stats.Get("errors") == 0 {
		_ = cfg.Backend.UpdateLogAppend(ctx, models.UpdateLogEntry{
			ID: "snapshot:tank_stats:" + cfg.Release, Action: models.ActionSnapshot,
			Kind: models.StatsKindTankStats, Release: cfg.Release,
		})
	}
	return stats, nil
}

func mergeTankStatsPartition(ctx context.Context, cfg Config, partitionQ *queue.Queue[dedupe.Partition]) *counter.EventCounter {
	stats := counter.New("snapshot-worker")
	for {
		p, err := partitionQ.Get(ctx)
		if err != nil {
			return stats
		}
		func() {
			defer partitionQ.TaskDone()

			f := backend.StatsFilters{
				Release: cfg.Release, Regions: cfg.Regions,
				AccountIDMin: p.AccountIDMin, AccountIDMax: p.AccountIDMax,
			}
			if p.TankID > 0 {
				f.Tanks = []int64{p.TankID}
			}

			ch, err := cfg.Backend.TankStatsArchiveGet(ctx, f, backend.SortTimestampDesc)
			if err != nil {
				stats.Log("errors", 1)
				return
			}

			seen := map[models.TankStatIdentityKey]bool{}
			batch := make([]models.TankStat, 0, cfg.InsertBatch)
			flush := func() {
				if len(batch) == 0 {
					return
				}
				inserted, skipped, err := cfg.Backend.TankStatsInsert(ctx, batch, false)
				if err != nil {
					stats.Log("errors", 1)
				} else {
					stats.Log("merged", int64(inserted))
					stats.Log("already present", int64(skipped))
				}
				batch = batch[:0]
			}

			for res := range ch {
				if res.Err != nil {
					stats.Log("errors", 1)
					continue
				}
				row := res.Value
				stats.Log("rows scanned", 1)
				key := row.Identity()
				if seen[key] {
					continue
				}
				seen[key] = true
				batch = append(batch, row)
				if len(batch) >= cfg.InsertBatch {
					flush()
				}
			}
			flush()
			metrics.SnapshotPartitionsMerged.Inc()
		}()
	}
}

// RunAchievements is RunTankStats's PlayerAchievement analogue.
func RunAchievements(ctx context.Context, cfg Config) (*counter.EventCounter, error) {
	cfg = cfg.withDefaults()

	partitionQ := queue.New[dedupe.Partition](cfg.QueueCapacity, true)
	partitionQ.AddProducer()
	go func() {
		defer partitionQ.Finish()
		for _, p := range dedupe.Shuffle(cfg.Partitions, int64(len(cfg.Partitions))) {
			if err := partitionQ.Put(ctx, p); err != nil {
				return
			}
		}
	}()

	stats := counter.New("snapshot:player_achievements")
	var wg sync.WaitGroup
	for i := 0; i < cfg.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			stats.MergeChild(mergeAchievementsPartition(ctx, cfg, partitionQ))
		}()
	}
	wg.Wait()

	if stats.Get("errors") == 0 {
		_ = cfg.Backend.UpdateLogAppend(ctx, models.UpdateLogEntry{
			ID: "snapshot:player_achievements:" + cfg.Release, Action: models.ActionSnapshot,
			Kind: models.StatsKindPlayerAchievement, Release: cfg.Release,
		})
	}
	return stats, nil
}

func mergeAchievementsPartition(ctx context.Context, cfg Config, partitionQ *queue.Queue[dedupe.Partition]) *counter.EventCounter {
	stats := counter.New("snapshot-worker")
	for {
		p, err := partitionQ.Get(ctx)
		if err != nil {
			return stats
		}
		func() {
			defer partitionQ.TaskDone()

			f := backend.StatsFilters{
				Release: cfg.Release, Regions: cfg.Regions,
				AccountIDMin: p.AccountIDMin, AccountIDMax: p.AccountIDMax,
			}

			ch, err := cfg.Backend.AchievementsArchiveGet(ctx, f, backend.SortTimestampDesc)
			if err != nil {
				stats.Log("errors", 1)
				return
			}

			seen := map[models.PlayerAchievementIdentityKey]bool{}
			batch := make([]models.PlayerAchievement, 0, cfg.InsertBatch)
			flush := func() {
				if len(batch) == 0 {
					return
				}
				inserted, skipped, err := cfg.Backend.AchievementsInsert(ctx, batch, false)
				if err != nil {
					stats.Log("errors", 1)
				} else {
					stats.Log("merged", int64(inserted))
					stats.Log("already present", int64(skipped))
				}
				batch = batch[:0]
			}

			for res := range ch {
				if res.Err != nil {
					stats.Log("errors", 1)
					continue
				}
				row := res.Value
				stats.Log("rows scanned", 1)
				key := row.Identity()
				if seen[key] {
					continue
				}
				seen[key] = true
				batch = append(batch, row)
				if len(batch) >= cfg.InsertBatch {
					flush()
				}
			}
			flush()
			metrics.SnapshotPartitionsMerged.Inc()
		}()
	}
}
