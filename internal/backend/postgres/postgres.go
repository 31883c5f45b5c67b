// Package postgres is the PostgreSQL Backend driver (spec.md §6's
// `--backend postgresql`). It talks to the pool directly through pgx
// rather than database/sql, the same choice the rest of the pack's
// Postgres consumers make (joaofoltran-pg-migrator, LumenPrima-tr-engine,
// MOHCentral-opm-stats-api all import jackc/pgx/v5 directly).
package postgres

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Jylpah/blitzstats/internal/backend"
)

// Backend is the PostgreSQL-backed driver. It satisfies backend.Backend.
type Backend struct {
	pool *pgxpool.Pool
	dsn  string
}

// Open establishes a connection pool against dsn ("postgres://...").
func Open(ctx context.Context, dsn string) (*Backend, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, &backend.ErrFatal{Op: "postgres.Open", Err: err}
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, &backend.ErrFatal{Op: "postgres.Ping", Err: err}
	}
	return &Backend{pool: pool, dsn: dsn}, nil
}

func (b *Backend) Name() string { return "postgresql" }

func (b *Backend) URIs() map[string]string {
	return map[string]string{"postgresql": redactDSN(b.dsn)}
}

func (b *Backend) Close(ctx context.Context) error {
	b.pool.Close()
	return nil
}

// redactDSN strips the password component so URIs() is safe to log.
func redactDSN(dsn string) string {
	u, err := url.Parse(dsn)
	if err != nil {
		return dsn
	}
	if u.User != nil {
		u.User = url.UserPassword(u.User.Username(), "***")
	}
	return u.String()
}

// wrapErr classifies a pgx error as transient (connection/pool-level) or
// fatal (constraint violations, bad SQL, everything else), matching
// spec.md §7's taxonomy.
func wrapErr(op string, err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return &backend.ErrFatal{Op: op, Err: err}
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return &backend.ErrFatal{Op: op, Err: err}
	}
	return &backend.ErrTransient{Op: op, Err: err}
}

// EnsureSchema creates every table and index spec.md §6 requires, if they
// do not already exist. Safe to call repeatedly.
func (b *Backend) EnsureSchema(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS Accounts (
			id BIGINT PRIMARY KEY,
			region VARCHAR(8),
			added BIGINT,
			last_battle_time BIGINT,
			disabled BOOLEAN NOT NULL DEFAULT false,
			inactive BOOLEAN NOT NULL DEFAULT false,
			stats_updated TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS TankStats (
			account_id BIGINT, tank_id BIGINT, last_battle_time BIGINT,
			release VARCHAR(16), region VARCHAR(8),
			battles BIGINT, wins BIGINT, losses BIGINT,
			damage_dealt BIGINT, frags BIGINT, spotted BIGINT, win_rate DOUBLE PRECISION,
			PRIMARY KEY (account_id, tank_id, last_battle_time)
		)`,
		`CREATE TABLE IF NOT EXISTS TankStats_Archive (
			account_id BIGINT, tank_id BIGINT, last_battle_time BIGINT,
			release VARCHAR(16), region VARCHAR(8),
			battles BIGINT, wins BIGINT, losses BIGINT,
			damage_dealt BIGINT, frags BIGINT, spotted BIGINT, win_rate DOUBLE PRECISION,
			PRIMARY KEY (account_id, tank_id, last_battle_time)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_tankstats_acct_tank ON TankStats(account_id, tank_id, last_battle_time DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_tankstats_tank ON TankStats(tank_id, last_battle_time DESC)`,
		`CREATE TABLE IF NOT EXISTS PlayerAchievements (
			account_id BIGINT, updated BIGINT, release VARCHAR(16), region VARCHAR(8), medals TEXT,
			PRIMARY KEY (account_id, updated)
		)`,
		`CREATE TABLE IF NOT EXISTS PlayerAchievements_Archive (
			account_id BIGINT, updated BIGINT, release VARCHAR(16), region VARCHAR(8), medals TEXT,
			PRIMARY KEY (account_id, updated)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_achievements_acct ON PlayerAchievements(account_id, updated DESC)`,
		`CREATE TABLE IF NOT EXISTS Replays (id VARCHAR(64) PRIMARY KEY, data TEXT)`,
		`CREATE TABLE IF NOT EXISTS Releases (
			release VARCHAR(16) PRIMARY KEY, launch_time BIGINT, cutoff_time BIGINT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_releases_launch ON Releases(launch_time ASC)`,
		`CREATE TABLE IF NOT EXISTS Tankopedia (
			tank_id BIGINT PRIMARY KEY, name VARCHAR(128), nation VARCHAR(32), tier INTEGER, type VARCHAR(32), is_premium BOOLEAN
		)`,
		`CREATE TABLE IF NOT EXISTS StatsToDelete (type VARCHAR(32), id VARCHAR(64), release VARCHAR(16))`,
		`CREATE INDEX IF NOT EXISTS idx_stats_to_delete ON StatsToDelete(type, id)`,
		`CREATE TABLE IF NOT EXISTS UpdateLog (
			id VARCHAR(64) PRIMARY KEY, action VARCHAR(16), stat_kind VARCHAR(32), release VARCHAR(16), at BIGINT
		)`,
		`CREATE TABLE IF NOT EXISTS ErrorLog (
			id VARCHAR(64) PRIMARY KEY, account_id BIGINT, type VARCHAR(32), message TEXT, time BIGINT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_errorlog ON ErrorLog(account_id, time DESC, type)`,
	}
	for _, s := range stmts {
		if _, err := b.pool.Exec(ctx, s); err != nil {
			return wrapErr(fmt.Sprintf("EnsureSchema(%.40s)", s), err)
		}
	}
	return nil
}
