package accountsource

import (
	"context"
	"errors"

	"github.com/Jylpah/blitzstats/internal/counter"
	"github.com/Jylpah/blitzstats/internal/models"
	"github.com/Jylpah/blitzstats/internal/queue"
)

// SplitByRegion fans src out into dstByRegion keyed on each account's
// region, mirroring original_source's split_accountQ_by_region. Accounts
// whose region has no destination queue are counted under "excluded
// region: <name>" rather than dropped silently. Every destination queue
// gets exactly one AddProducer/Finish pair.
func SplitByRegion(ctx context.Context, src *queue.Queue[models.Account], dstByRegion map[models.Region]*queue.Queue[models.Account]) (*counter.EventCounter, error) {
	stats := counter.New("accountsource.split")

	for _, q := range dstByRegion {
		q.AddProducer()
	}
	defer func() {
		for _, q := range dstByRegion {
			q.Finish()
		}
	}()

	for {
		a, err := src.Get(ctx)
		if err != nil {
			if errors.Is(err, queue.ErrDone) {
				return stats, nil
			}
			return stats, err
		}
		src.TaskDone()

		dst, ok := dstByRegion[a.Region]
		if !ok {
			stats.Log("excluded region: "+string(a.Region), 1)
			continue
		}
		if err := dst.Put(ctx, a); err != nil {
			stats.Log("errors", 1)
			continue
		}
		stats.Log(string(a.Region), 1)
	}
}
