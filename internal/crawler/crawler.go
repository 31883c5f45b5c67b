package crawler

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Jylpah/blitzstats/internal/backend"
	"github.com/Jylpah/blitzstats/internal/counter"
	"github.com/Jylpah/blitzstats/internal/logging"
	"github.com/Jylpah/blitzstats/internal/metrics"
	"github.com/Jylpah/blitzstats/internal/models"
	"github.com/Jylpah/blitzstats/internal/queue"
	"github.com/Jylpah/blitzstats/internal/upstream"
)

// State is the crawler's explicit lifecycle, replacing the early-stop
// exception with a plain state transition plus a guard check on each
// page iteration.
type State int32

const (
	StateSpidering State = iota
	StateFetching
	StateDraining
)

func (s State) String() string {
	switch s {
	case StateSpidering:
		return "spidering"
	case StateFetching:
		return "fetching"
	case StateDraining:
		return "draining"
	default:
		return "unknown"
	}
}

// Config scopes one crawl session.
type Config struct {
	Backend  backend.Backend
	Upstream *upstream.Client

	// SeenCache, if set, is consulted before Backend.ReplayGet and
	// updated alongside it; nil disables the local cache entirely.
	SeenCache *SeenCache

	StartPage     int
	MaxPages      int
	MaxOldReplays int
	Force         bool // when true, the old-replays cutoff never triggers Draining

	Workers       int
	QueueCapacity int
}

func (c Config) withDefaults() Config {
	if c.Workers <= 0 {
		c.Workers = 4
	}
	if c.QueueCapacity <= 0 {
		c.QueueCapacity = 200
	}
	if c.MaxPages <= 0 {
		c.MaxPages = 1
	}
	return c
}

// Crawler runs one crawl session: Spidering discovers replay IDs,
// Fetching resolves them into account IDs pushed onto AccountOut.
type Crawler struct {
	cfg   Config
	state atomic.Int32
}

func New(cfg Config) *Crawler {
	return &Crawler{cfg: cfg.withDefaults()}
}

// State returns the crawler's current lifecycle position.
func (cr *Crawler) State() State {
	return State(cr.state.Load())
}

func (cr *Crawler) setState(s State) {
	cr.state.Store(int32(s))
	metrics.CrawlerState.Set(float64(s))
}

// Run executes the full Spidering -> Fetching -> Draining session,
// pushing discovered account IDs onto accountOut as they are found.
// accountOut is closed (via Finish) once every fetch worker has
// drained.
func (cr *Crawler) Run(ctx context.Context, accountOut *queue.Queue[models.Account]) (*counter.EventCounter, error) {
	stats := counter.New("crawler")
	cr.setState(StateSpidering)

	replayQ := queue.New[string](cr.cfg.QueueCapacity, true)
	replayQ.AddProducer()

	var spiderStats *counter.EventCounter
	spiderDone := make(chan struct{})
	go func() {
		defer close(spiderDone)
		defer replayQ.Finish()
		spiderStats = cr.spider(ctx, replayQ)
	}()

	accountOut.AddProducer()
	var wg sync.WaitGroup
	fetchStats := make([]*counter.EventCounter, cr.cfg.Workers)
	for i := 0; i < cr.cfg.Workers; i++ {
		wg.Add(1)
		idx := i
		go func() {
			defer wg.Done()
			fetchStats[idx] = cr.fetchWorker(ctx, replayQ, accountOut)
		}()
	}

	<-spiderDone
	cr.setState(StateFetching)
	wg.Wait()
	accountOut.Finish()
	cr.setState(StateDraining)

	stats.MergeChild(spiderStats)
	for _, s := range fetchStats {
		stats.MergeChild(s)
	}
	return stats, nil
}

// spider is the single Spidering producer: pages the listing in
// [start_page, start_page+max_pages), stopping early once
// old_replays >= max_old_replays unless force is set.
func (cr *Crawler) spider(ctx context.Context, replayQ *queue.Queue[string]) *counter.EventCounter {
	stats := counter.New("crawler:spider")
	oldReplays := 0

	for page := cr.cfg.StartPage; page < cr.cfg.StartPage+cr.cfg.MaxPages; page++ {
		if cr.State() == StateDraining {
			return stats
		}

		html, err := cr.cfg.Upstream.GetReplayListingPage(ctx, page)
		if err != nil {
			stats.Log("pages failed", 1)
			continue
		}
		stats.Log("pages fetched", 1)

		ids := upstream.ParseReplayIDs(html)
		for id := range ids {
			if cr.cfg.SeenCache != nil && cr.cfg.SeenCache.Has(id) {
				oldReplays++
				stats.Log("old replays (cache)", 1)
				metrics.CrawlerReplaysSeen.WithLabelValues("old").Inc()
				continue
			}

			_, found, err := cr.cfg.Backend.ReplayGet(ctx, id)
			if err == nil && found {
				oldReplays++
				stats.Log("old replays", 1)
				metrics.CrawlerReplaysSeen.WithLabelValues("old").Inc()
				if cr.cfg.SeenCache != nil {
					_ = cr.cfg.SeenCache.Mark(id)
				}
				continue
			}
			metrics.CrawlerReplaysSeen.WithLabelValues("new").Inc()
			if err := replayQ.Put(ctx, id); err != nil {
				return stats
			}
			if cr.cfg.SeenCache != nil {
				_ = cr.cfg.SeenCache.Mark(id)
			}
			stats.Log("replays enqueued", 1)
		}

		if !cr.cfg.Force && oldReplays >= cr.cfg.MaxOldReplays && cr.cfg.MaxOldReplays > 0 {
			logging.Info().Int("page", page).Int("old_replays", oldReplays).Msg("crawler: old replays threshold reached, draining")
			cr.setState(StateDraining)
			return stats
		}
	}
	return stats
}

// fetchWorker pops replay IDs, resolves each into player account IDs,
// and persists the replay. Runs until replayQ reports done or ctx is
// cancelled.
func (cr *Crawler) fetchWorker(ctx context.Context, replayQ *queue.Queue[string], accountOut *queue.Queue[models.Account]) *counter.EventCounter {
	stats := counter.New("crawler:fetch")
	for {
		id, err := replayQ.Get(ctx)
		if err != nil {
			return stats
		}
		func() {
			defer replayQ.TaskDone()

			replay, found, err := cr.cfg.Upstream.GetReplayJSON(ctx, id)
			if err != nil {
				stats.Log("errors", 1)
				return
			}
			if !found {
				stats.Log("replays not found", 1)
				return
			}

			if err := cr.cfg.Backend.ReplayInsert(ctx, replay); err != nil {
				stats.Log("errors", 1)
			} else {
				stats.Log("replays inserted", 1)
			}

			for _, accountID := range replay.PlayerIDs() {
				account, err := models.NewAccount(accountID, time.Now().Unix())
				if err != nil {
					stats.Log("unmappable account ids", 1)
					continue
				}
				if err := accountOut.Put(ctx, account); err != nil {
					return
				}
				stats.Log("accounts discovered", 1)
			}
		}()
	}
}
