package fetcher

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/Jylpah/blitzstats/internal/backend"
	"github.com/Jylpah/blitzstats/internal/counter"
	"github.com/Jylpah/blitzstats/internal/logging"
	"github.com/Jylpah/blitzstats/internal/models"
	"github.com/Jylpah/blitzstats/internal/queue"
	"github.com/Jylpah/blitzstats/internal/releases"
)

// Stat is the self-referencing constraint TankStat and PlayerAchievement
// satisfy: a row the release mapper can stamp (Assignable) and that
// returns a release-stamped copy of itself (WithRelease). A plain
// WithRelease(string) any signature would not be satisfied by either
// concrete type, since both return their own named type.
type Stat[T any] interface {
	releases.Assignable
	WithRelease(release string) T
}

// FetchFunc calls the upstream client for one account, returning a nil
// slice and nil error for "upstream has no data" (spec.md §4.5's "None").
type FetchFunc[T any] func(ctx context.Context, accountID int64, region models.Region) ([]T, error)

// InsertFunc batch-inserts into the backend, matching Backend's
// *_insert(batch, force) -> (inserted, skipped) contract.
type InsertFunc[T any] func(ctx context.Context, batch []T, force bool) (inserted, skipped int, err error)

// Config wires one stat kind's pipeline.
type Config[T Stat[T]] struct {
	Backend backend.Backend
	Mapper  *releases.Mapper
	Fetch   FetchFunc[T]
	Insert  InsertFunc[T]
	Kind    models.StatsKind

	// Workers is the configured worker count ceiling; the pipeline uses
	// min(Workers, ceil(accounts/4)) per spec.md §4.7.
	Workers int
	// InactivityThreshold: an account that got no new rows this run and
	// whose last_battle_time is older than this is marked inactive.
	InactivityThreshold time.Duration
	// QueueCapacity sizes the internal stats/retry queues.
	QueueCapacity int
}

func (c Config[T]) withDefaults() Config[T] {
	if c.Workers <= 0 {
		c.Workers = 4
	}
	if c.InactivityThreshold <= 0 {
		c.InactivityThreshold = 30 * 24 * time.Hour
	}
	if c.QueueCapacity <= 0 {
		c.QueueCapacity = 100
	}
	return c
}

// countName turns a StatsKind ("tank_stats") into the space-separated
// form the fixed counter names use ("tank stats").
func countName(kind models.StatsKind) string {
	return strings.ReplaceAll(string(kind), "_", " ")
}

// workerCount implements spec.md §4.7's formula: fewer workers than
// accounts avoids rate-limit bursts on a nearly-empty queue.
func workerCount(configured, accounts int) int {
	if configured < 1 {
		configured = 1
	}
	if accounts <= 0 {
		return 1
	}
	need := (accounts + 3) / 4 // ceil(accounts/4)
	if need < 1 {
		need = 1
	}
	if need > configured {
		return configured
	}
	return need
}

// statsBatch carries one account's fetched rows alongside the account
// itself, so the writer can update last_battle_time/inactive without a
// second account lookup.
type statsBatch[T any] struct {
	account models.Account
	rows    []T
}

// Run drives the full two-pass pipeline: accountQ -> fetch workers ->
// statsQ -> writer, with a second fetch pass over accounts the first pass
// got no data for. totalAccounts sizes the first pass's worker pool; the
// retry pass recomputes its own pool size from the actual retry count.
// accountQ's AddProducer/Finish pair belongs to the caller (typically
// internal/accountsource.Compose); Run only consumes it.
func Run[T Stat[T]](ctx context.Context, cfg Config[T], accountQ *queue.Queue[models.Account], totalAccounts int) (*counter.EventCounter, error) {
	cfg = cfg.withDefaults()
	stats := counter.New(fmt.Sprintf("fetcher:%s", cfg.Kind))

	statsQ := queue.New[statsBatch[T]](cfg.QueueCapacity, false)
	retryQ := queue.New[models.Account](cfg.QueueCapacity, true)

	// statsQ spans both fetch passes, so Run (not runFetchPass) owns its
	// single producer registration; otherwise the producer count would
	// hit zero and close the channel at the end of the first pass, and
	// the second pass's Put would panic on a closed channel.
	statsQ.AddProducer()

	var writerWG sync.WaitGroup
	writerWG.Add(1)
	go func() {
		defer writerWG.Done()
		stats.MergeChild(runWriter(ctx, cfg, statsQ))
	}()

	firstPassWorkers := workerCount(cfg.Workers, totalAccounts)
	firstPass := runFetchPass(ctx, cfg, accountQ, statsQ, retryQ, firstPassWorkers)

	retryCount := int(retryQ.Count())
	if retryCount > 0 {
		// Every re-queued account was already counted once by the first
		// pass's fetchWorker; back that out here so the retry pass's own
		// count is the only one that survives for these accounts.
		firstPass.Log("accounts total", -int64(retryCount))
		stats.MergeChild(firstPass)
		secondPassWorkers := workerCount(cfg.Workers, retryCount)
		stats.MergeChild(runFetchPass(ctx, cfg, retryQ, statsQ, nil, secondPassWorkers))
	} else {
		stats.MergeChild(firstPass)
	}

	statsQ.Finish()
	writerWG.Wait()

	return stats, nil
}

// runFetchPass spawns workers consuming src until it reports done,
// fetching each account's stats and routing the result to statsQ (on
// success) or retryQ (on "no data", first pass only — a nil retryQ means
// this is the retry pass itself, where "no data" disables the account
// instead of re-queuing it). statsQ's producer is owned by Run, which
// spans both passes; this function only registers/finishes retryQ, the
// queue it alone produces into.
func runFetchPass[T Stat[T]](ctx context.Context, cfg Config[T], src *queue.Queue[models.Account], statsQ *queue.Queue[statsBatch[T]], retryQ *queue.Queue[models.Account], workers int) *counter.EventCounter {
	label := "fetch"
	if retryQ == nil {
		label = "re-try"
	}
	merged := counter.New(label)

	if retryQ != nil {
		retryQ.AddProducer()
	}

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			merged.MergeChild(fetchWorker(ctx, cfg, src, statsQ, retryQ))
		}()
	}
	wg.Wait()

	if retryQ != nil {
		retryQ.Finish()
	}
	return merged
}

// fetchWorker is the direct Go analogue of original_source's
// fetch_api_worker: dequeue an account, call upstream, and route the
// result.
func fetchWorker[T Stat[T]](ctx context.Context, cfg Config[T], src *queue.Queue[models.Account], statsQ *queue.Queue[statsBatch[T]], retryQ *queue.Queue[models.Account]) *counter.EventCounter {
	stats := counter.New("fetch-worker")
	for {
		account, err := src.Get(ctx)
		if err != nil {
			return stats
		}

		func() {
			defer src.TaskDone()
			stats.Log("accounts total", 1)

			rows, err := cfg.Fetch(ctx, account.ID, account.Region)
			if err != nil {
				stats.Log("errors", 1)
				return
			}

			if len(rows) == 0 {
				if retryQ != nil {
					stats.Log("accounts to re-try", 1)
					if err := retryQ.Put(ctx, account); err != nil {
						stats.Log("errors", 1)
					}
					return
				}
				stats.Log("accounts w/o stats", 1)
				if !account.Disabled {
					account.Disabled = true
					if err := cfg.Backend.AccountUpdate(ctx, account, models.AccountFields{Disabled: true}); err != nil {
						logging.Warn().Int64("account_id", account.ID).Err(err).Msg("failed to mark account disabled")
						stats.Log("errors", 1)
					}
					stats.Log("accounts disabled", 1)
				}
				return
			}

			stats.Log(countName(cfg.Kind)+" fetched", int64(len(rows)))
			stats.Log("accounts /w stats", 1)
			if err := statsQ.Put(ctx, statsBatch[T]{account: account, rows: rows}); err != nil {
				stats.Log("errors", 1)
				return
			}
			if account.Disabled {
				account.Disabled = false
				if err := cfg.Backend.AccountUpdate(ctx, account, models.AccountFields{Disabled: true}); err != nil {
					logging.Warn().Int64("account_id", account.ID).Err(err).Msg("failed to clear disabled flag")
					stats.Log("errors", 1)
				} else {
					stats.Log("accounts enabled", 1)
				}
			}
		}()
	}
}

// runWriter is the single serializer for backend writes: it stamps each
// row's release, inserts the batch, and updates the owning account's
// last_battle_time/inactive flag, mirroring original_source's
// fetch_backend_worker.
func runWriter[T Stat[T]](ctx context.Context, cfg Config[T], statsQ *queue.Queue[statsBatch[T]]) *counter.EventCounter {
	stats := counter.New("writer")
	for {
		batch, err := statsQ.Get(ctx)
		if err != nil {
			return stats
		}

		func() {
			defer statsQ.TaskDone()

			rows := make([]T, 0, len(batch.rows))
			var maxBattleTime int64
			for _, row := range batch.rows {
				release, err := releases.Assign(cfg.Mapper, row)
				if err != nil {
					logging.Debug().Err(err).Msg("no release mapped for row timestamp")
				}
				rows = append(rows, row.WithRelease(release))
				if ts := row.Timestamp(); ts > maxBattleTime {
					maxBattleTime = ts
				}
			}

			inserted, skipped, err := cfg.Insert(ctx, rows, false)
			if err != nil {
				stats.Log("errors", 1)
				return
			}
			stats.Log(countName(cfg.Kind)+" added", int64(inserted))
			stats.Log("old "+countName(cfg.Kind)+" found", int64(skipped))
			if inserted > 0 {
				stats.Log("accounts /w new stats", 1)
			} else {
				stats.Log("accounts w/o new stats", 1)
			}

			account := batch.account
			fields := models.AccountFields{StatsUpdated: cfg.Kind}
			if maxBattleTime > account.LastBattleTime {
				account.LastBattleTime = maxBattleTime
				fields.LastBattleTime = true
			}

			wasInactive := account.Inactive
			stale := time.Since(time.Unix(account.LastBattleTime, 0)) > cfg.InactivityThreshold
			account.Inactive = inserted == 0 && stale
			if account.Inactive != wasInactive {
				fields.Inactive = true
				if account.Inactive {
					stats.Log("accounts marked inactive", 1)
				} else {
					stats.Log("accounts marked active", 1)
				}
			}

			if err := cfg.Backend.AccountUpdate(ctx, account, fields); err != nil {
				logging.Warn().Int64("account_id", account.ID).Err(err).Msg("failed to update account after stats write")
				stats.Log("errors", 1)
			}
		}()
	}
}
