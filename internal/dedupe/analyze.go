package dedupe

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Jylpah/blitzstats/internal/backend"
	"github.com/Jylpah/blitzstats/internal/counter"
	"github.com/Jylpah/blitzstats/internal/logging"
	"github.com/Jylpah/blitzstats/internal/metrics"
	"github.com/Jylpah/blitzstats/internal/models"
	"github.com/Jylpah/blitzstats/internal/queue"
)

// AnalyzeConfig scopes one analyze run: a release window, a region
// filter, and the set of account-range x tank partitions to scan.
type AnalyzeConfig struct {
	Backend       backend.Backend
	Release       string
	Regions       []models.Region
	Partitions    []Partition
	Archive       bool // scan TankStats_Archive/PlayerAchievements_Archive instead of the hot collection
	Workers       int
	QueueCapacity int
	SaveBatch     int
	// now is overridable by tests; production callers leave it nil and
	// get time.Now().Unix().
	now func() int64
}

func (c AnalyzeConfig) withDefaults() AnalyzeConfig {
	if c.Workers <= 0 {
		c.Workers = 4
	}
	if c.QueueCapacity <= 0 {
		c.QueueCapacity = 100
	}
	if c.SaveBatch <= 0 {
		c.SaveBatch = 200
	}
	if c.now == nil {
		c.now = func() int64 { return time.Now().Unix() }
	}
	return c
}

// AnalyzeTankStats runs the analyze phase over TankStats (or its
// archive): for each partition, stream rows newest-first, and every row
// after the first occurrence of its (account_id, tank_id) identity is a
// duplicate, staged into StatsToDelete.
func AnalyzeTankStats(ctx context.Context, cfg AnalyzeConfig) (*counter.EventCounter, error) {
	cfg = cfg.withDefaults()
	statsType := models.NewStatsToDeleteType(models.StatsKindTankStats, cfg.Archive)

	partitionQ := queue.New[Partition](cfg.QueueCapacity, true)
	partitionQ.AddProducer()
	go func() {
		defer partitionQ.Finish()
		for _, p := range Shuffle(cfg.Partitions, int64(len(cfg.Partitions))) {
			if err := partitionQ.Put(ctx, p); err != nil {
				return
			}
		}
	}()

	saveQ := queue.New[models.StatsToDelete](cfg.QueueCapacity, false)
	var saveWG sync.WaitGroup
	saveWG.Add(1)
	var saveStats *counter.EventCounter
	go func() {
		defer saveWG.Done()
		saveStats = runSaveWorker(ctx, cfg.Backend, saveQ, cfg.SaveBatch)
	}()

	stats := counter.New("dedupe:analyze:tank_stats")
	var wg sync.WaitGroup
	for i := 0; i < cfg.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			stats.MergeChild(analyzeTankStatsWorker(ctx, cfg, partitionQ, saveQ))
		}()
	}
	wg.Wait()
	saveQ.Finish()
	saveWG.Wait()
	stats.MergeChild(saveStats)

	metrics.DedupeDuplicatesFound.WithLabelValues("tank_stats").Add(float64(stats.Get("duplicates found")))

	if stats.Get("errors") == 0 {
		_ = cfg.Backend.UpdateLogAppend(ctx, models.UpdateLogEntry{
			ID: fmt.Sprintf("analyze:%s:%s:%d", statsType, cfg.Release, cfg.now()),
			Action: models.ActionAnalyze, Kind: models.StatsKindTankStats, Release: cfg.Release, At: cfg.now(),
		})
	}
	return stats, nil
}

func analyzeTankStatsWorker(ctx context.Context, cfg AnalyzeConfig, partitionQ *queue.Queue[Partition], saveQ *queue.Queue[models.StatsToDelete]) *counter.EventCounter {
	stats := counter.New("analyze-worker")
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

			var ch <-chan backend.Result[models.TankStat]
			var getErr error
			if cfg.Archive {
				ch, getErr = cfg.Backend.TankStatsArchiveGet(ctx, f, backend.SortTimestampDesc)
			} else {
				ch, getErr = cfg.Backend.TankStatsGet(ctx, f, backend.SortTimestampDesc)
			}
			if getErr != nil {
				stats.Log("errors", 1)
				return
			}

			seen := map[models.TankStatIdentityKey]bool{}
			stype := models.NewStatsToDeleteType(models.StatsKindTankStats, cfg.Archive)
			for res := range ch {
				if res.Err != nil {
					stats.Log("errors", 1)
					continue
				}
				row := res.Value
				stats.Log("rows scanned", 1)
				key := row.Identity()
				if !seen[key] {
					seen[key] = true
					continue
				}
				stats.Log("duplicates found", 1)
				id := models.EncodeTankStatID(key, row.LastBattleTime)
				if err := saveQ.Put(ctx, models.StatsToDelete{Type: stype, ID: id, Release: cfg.Release}); err != nil {
					stats.Log("errors", 1)
				}
			}
		}()
	}
}

// AnalyzeAchievements is AnalyzeTankStats's PlayerAchievement analogue;
// achievements have no sub-entity, so Partition.TankID is ignored.
func AnalyzeAchievements(ctx context.Context, cfg AnalyzeConfig) (*counter.EventCounter, error) {
	cfg = cfg.withDefaults()
	statsType := models.NewStatsToDeleteType(models.StatsKindPlayerAchievement, cfg.Archive)

	partitionQ := queue.New[Partition](cfg.QueueCapacity, true)
	partitionQ.AddProducer()
	go func() {
		defer partitionQ.Finish()
		for _, p := range Shuffle(cfg.Partitions, int64(len(cfg.Partitions))) {
			if err := partitionQ.Put(ctx, p); err != nil {
				return
			}
		}
	}()

	saveQ := queue.New[models.StatsToDelete](cfg.QueueCapacity, false)
	var saveWG sync.WaitGroup
	saveWG.Add(1)
	var saveStats *counter.EventCounter
	go func() {
		defer saveWG.Done()
		saveStats = runSaveWorker(ctx, cfg.Backend, saveQ, cfg.SaveBatch)
	}()

	stats := counter.New("dedupe:analyze:player_achievements")
	var wg sync.WaitGroup
	for i := 0; i < cfg.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			stats.MergeChild(analyzeAchievementsWorker(ctx, cfg, partitionQ, saveQ))
		}()
	}
	wg.Wait()
	saveQ.Finish()
	saveWG.Wait()
	stats.MergeChild(saveStats)

	metrics.DedupeDuplicatesFound.WithLabelValues("player_achievements").Add(float64(stats.Get("duplicates found")))

	if stats.Get("errors") == 0 {
		_ = cfg.Backend.UpdateLogAppend(ctx, models.UpdateLogEntry{
			ID: fmt.Sprintf("analyze:%s:%s:%d", statsType, cfg.Release, cfg.now()),
			Action: models.ActionAnalyze, Kind: models.StatsKindPlayerAchievement, Release: cfg.Release, At: cfg.now(),
		})
	}
	return stats, nil
}

func analyzeAchievementsWorker(ctx context.Context, cfg AnalyzeConfig, partitionQ *queue.Queue[Partition], saveQ *queue.Queue[models.StatsToDelete]) *counter.EventCounter {
	stats := counter.New("analyze-worker")
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

			var ch <-chan backend.Result[models.PlayerAchievement]
			var getErr error
			if cfg.Archive {
				ch, getErr = cfg.Backend.AchievementsArchiveGet(ctx, f, backend.SortTimestampDesc)
			} else {
				ch, getErr = cfg.Backend.AchievementsGet(ctx, f, backend.SortTimestampDesc)
			}
			if getErr != nil {
				stats.Log("errors", 1)
				return
			}

			seen := map[models.PlayerAchievementIdentityKey]bool{}
			stype := models.NewStatsToDeleteType(models.StatsKindPlayerAchievement, cfg.Archive)
			for res := range ch {
				if res.Err != nil {
					stats.Log("errors", 1)
					continue
				}
				row := res.Value
				stats.Log("rows scanned", 1)
				key := row.Identity()
				if !seen[key] {
					seen[key] = true
					continue
				}
				stats.Log("duplicates found", 1)
				id := models.EncodeAchievementID(key, row.Updated)
				if err := saveQ.Put(ctx, models.StatsToDelete{Type: stype, ID: id, Release: cfg.Release}); err != nil {
					stats.Log("errors", 1)
				}
			}
		}()
	}
}

// runSaveWorker batches StatsToDelete records off saveQ and flushes them
// to the backend, the spec's "a save worker persists them in batches".
func runSaveWorker(ctx context.Context, be backend.Backend, saveQ *queue.Queue[models.StatsToDelete], batchSize int) *counter.EventCounter {
	stats := counter.New("save-worker")
	batch := make([]models.StatsToDelete, 0, batchSize)

	flush := func() {
		if len(batch) == 0 {
			return
		}
		n, err := be.StatsToDeleteInsert(ctx, batch)
		if err != nil {
			logging.Warn().Err(err).Msg("failed to save duplicate batch")
			stats.Log("errors", 1)
		} else {
			stats.Log("saved", int64(n))
		}
		batch = batch[:0]
	}

	for {
		item, err := saveQ.Get(ctx)
		if err != nil {
			flush()
			return stats
		}
		batch = append(batch, item)
		if len(batch) >= batchSize {
			flush()
		}
		saveQ.TaskDone()
	}
}
