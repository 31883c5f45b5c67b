package cli

import (
	"context"

	"github.com/Jylpah/blitzstats/internal/app"
)

// runSetup creates the backend's schema/indexes. It takes no sub-verb:
// `blitzstats setup` is the whole command.
func runSetup(ctx context.Context, a *app.Context, _ string, _ []string) error {
	return a.Backend.EnsureSchema(ctx)
}
