package app

import (
	"context"
	"fmt"

	"github.com/Jylpah/blitzstats/internal/backend"
	"github.com/Jylpah/blitzstats/internal/backend/duckdb"
	"github.com/Jylpah/blitzstats/internal/backend/mongo"
	"github.com/Jylpah/blitzstats/internal/backend/postgres"
	"github.com/Jylpah/blitzstats/internal/config"
	"github.com/Jylpah/blitzstats/internal/upstream"
)

// Context is the explicit dependency set every CLI command's Run
// receives, built once by New and never replaced by a package-level
// singleton.
type Context struct {
	Config   *config.Config
	Backend  backend.Backend
	Upstream *upstream.Client
}

// New opens the backend selected by cfg.General.Backend and builds the
// upstream client, in the same sequential, fail-fast order the
// teacher's main() constructs its components.
func New(ctx context.Context, cfg *config.Config) (*Context, error) {
	be, err := openBackend(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("app: open backend: %w", err)
	}

	up := upstream.New(upstream.Config{
		WGAppID:               cfg.WG.AppID,
		WGRateLimit:           cfg.WG.RateLimit,
		WGAPIWorkers:          cfg.WG.APIWorkers,
		WoTInspectorRateLimit: cfg.WoT.RateLimit,
		WoTInspectorMaxPages:  cfg.WoT.MaxPages,
		WoTInspectorWorkers:   cfg.WoT.Workers,
		WoTInspectorAuthToken: cfg.WoT.AuthToken,
	})

	return &Context{Config: cfg, Backend: be, Upstream: up}, nil
}

// openBackend dispatches on cfg.General.Backend; spec.md §6's three
// names map onto this module's three driver packages (files -> the
// embedded duckdb driver).
func openBackend(ctx context.Context, cfg *config.Config) (backend.Backend, error) {
	switch cfg.General.Backend {
	case "postgresql":
		return postgres.Open(ctx, cfg.Database.DSN)
	case "mongodb":
		return mongo.Open(ctx, cfg.Database.DSN, cfg.Database.Database)
	case "files", "":
		return duckdb.Open(ctx, cfg.Database.DSN)
	default:
		return nil, fmt.Errorf("unknown backend %q (want mongodb, postgresql, or files)", cfg.General.Backend)
	}
}

// Close releases the backend connection. Safe to call on a zero-value
// Context (Backend nil), which the tests exercise directly.
func (c *Context) Close(ctx context.Context) error {
	if c.Backend == nil {
		return nil
	}
	return c.Backend.Close(ctx)
}
