package cli

import (
	"context"
	"fmt"

	"github.com/Jylpah/blitzstats/internal/accountsource"
	"github.com/Jylpah/blitzstats/internal/app"
	"github.com/Jylpah/blitzstats/internal/backend"
	"github.com/Jylpah/blitzstats/internal/models"
	"github.com/Jylpah/blitzstats/internal/queue"
	"github.com/Jylpah/blitzstats/internal/releases"
)

// streamAccounts starts accountsource.Compose in the background and
// returns the queue it feeds plus a best-effort total used to size the
// fetch pipeline's worker pool. The total is exact for --accounts/--file
// sources and an upfront backend.AccountsCount otherwise.
func streamAccounts(ctx context.Context, a *app.Context, opts accountsource.Options) (*queue.Queue[models.Account], int, <-chan error) {
	total := len(opts.Accounts)
	if opts.File != "" {
		if rows, err := accountsource.ParseFile(opts.File); err == nil {
			total = len(rows)
		}
	} else if len(opts.Accounts) == 0 {
		if n, err := a.Backend.AccountsCount(ctx, opts.Filters); err == nil {
			total = int(n)
		}
	}

	q := queue.New[models.Account](200, false)
	errCh := make(chan error, 1)
	go func() {
		defer close(errCh)
		_, err := accountsource.Compose(ctx, q, opts)
		errCh <- err
	}()
	return q, total, errCh
}

// buildMapper loads every release from the backend and builds the
// timestamp -> release lookup the fetch/remap/snapshot pipelines need.
func buildMapper(ctx context.Context, be backend.Backend) (*releases.Mapper, error) {
	rs, err := be.ReleasesGet(ctx)
	if err != nil {
		return nil, fmt.Errorf("load releases: %w", err)
	}
	m, err := releases.NewMapper(rs)
	if err != nil {
		return nil, fmt.Errorf("build release mapper: %w", err)
	}
	return m, nil
}
