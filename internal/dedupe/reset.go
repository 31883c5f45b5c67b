package dedupe

import (
	"context"

	"github.com/Jylpah/blitzstats/internal/backend"
)

// Reset clears every staged candidate of statsType without pruning
// anything, the escape hatch for re-running analyze from scratch after
// a bad run.
func Reset(ctx context.Context, be backend.Backend, statsType string) (int, error) {
	return be.StatsToDeleteReset(ctx, statsType)
}
