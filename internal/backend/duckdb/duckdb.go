package duckdb

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/duckdb/duckdb-go/v2"

	"github.com/Jylpah/blitzstats/internal/backend"
)

// Backend is the DuckDB-backed reference driver. It satisfies
// backend.Backend.
type Backend struct {
	db   *sql.DB
	path string
}

// Open opens (creating if absent) a DuckDB file at path. Passing ":memory:"
// opens a private in-memory database, used by tests.
func Open(ctx context.Context, path string) (*Backend, error) {
	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, &backend.ErrFatal{Op: "duckdb.Open", Err: err}
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, &backend.ErrFatal{Op: "duckdb.Ping", Err: err}
	}
	return &Backend{db: db, path: path}, nil
}

func (b *Backend) Name() string { return "duckdb" }

func (b *Backend) URIs() map[string]string {
	return map[string]string{"duckdb": b.path}
}

func (b *Backend) Close(ctx context.Context) error {
	return b.db.Close()
}

// wrapErr classifies a database/sql error as transient (connection-level)
// or fatal (everything else), matching spec.md §7's taxonomy.
func wrapErr(op string, err error) error {
	if err == nil {
		return nil
	}
	if err == sql.ErrConnDone || err == sql.ErrTxDone {
		return &backend.ErrTransient{Op: op, Err: err}
	}
	return &backend.ErrFatal{Op: op, Err: err}
}

// EnsureSchema creates every table and index spec.md §6 requires, if they
// do not already exist. Safe to call repeatedly.
func (b *Backend) EnsureSchema(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS Accounts (
			id BIGINT PRIMARY KEY,
			region VARCHAR,
			added BIGINT,
			last_battle_time BIGINT,
			disabled BOOLEAN DEFAULT false,
			inactive BOOLEAN DEFAULT false,
			stats_updated VARCHAR
		)`,
		`CREATE TABLE IF NOT EXISTS TankStats (
			account_id BIGINT, tank_id BIGINT, last_battle_time BIGINT,
			release VARCHAR, region VARCHAR,
			battles BIGINT, wins BIGINT, losses BIGINT,
			damage_dealt BIGINT, frags BIGINT, spotted BIGINT, win_rate DOUBLE,
			PRIMARY KEY (account_id, tank_id, last_battle_time)
		)`,
		`CREATE TABLE IF NOT EXISTS TankStats_Archive (
			account_id BIGINT, tank_id BIGINT, last_battle_time BIGINT,
			release VARCHAR, region VARCHAR,
			battles BIGINT, wins BIGINT, losses BIGINT,
			damage_dealt BIGINT, frags BIGINT, spotted BIGINT, win_rate DOUBLE,
			PRIMARY KEY (account_id, tank_id, last_battle_time)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_tankstats_acct_tank ON TankStats(account_id, tank_id, last_battle_time DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_tankstats_tank ON TankStats(tank_id, last_battle_time DESC)`,
		`CREATE TABLE IF NOT EXISTS PlayerAchievements (
			account_id BIGINT, updated BIGINT, release VARCHAR, region VARCHAR, medals VARCHAR,
			PRIMARY KEY (account_id, updated)
		)`,
		`CREATE TABLE IF NOT EXISTS PlayerAchievements_Archive (
			account_id BIGINT, updated BIGINT, release VARCHAR, region VARCHAR, medals VARCHAR,
			PRIMARY KEY (account_id, updated)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_achievements_acct ON PlayerAchievements(account_id, updated DESC)`,
		`CREATE TABLE IF NOT EXISTS Replays (id VARCHAR PRIMARY KEY, data VARCHAR)`,
		`CREATE TABLE IF NOT EXISTS Releases (
			release VARCHAR PRIMARY KEY, launch_time BIGINT, cutoff_time BIGINT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_releases_launch ON Releases(launch_time ASC)`,
		`CREATE TABLE IF NOT EXISTS Tankopedia (
			tank_id BIGINT PRIMARY KEY, name VARCHAR, nation VARCHAR, tier INTEGER, type VARCHAR, is_premium BOOLEAN
		)`,
		`CREATE TABLE IF NOT EXISTS StatsToDelete (type VARCHAR, id VARCHAR, release VARCHAR)`,
		`CREATE INDEX IF NOT EXISTS idx_stats_to_delete ON StatsToDelete(type, id)`,
		`CREATE TABLE IF NOT EXISTS UpdateLog (
			id VARCHAR PRIMARY KEY, action VARCHAR, stat_kind VARCHAR, release VARCHAR, at BIGINT
		)`,
		`CREATE TABLE IF NOT EXISTS ErrorLog (
			id VARCHAR PRIMARY KEY, account_id BIGINT, type VARCHAR, message VARCHAR, time BIGINT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_errorlog ON ErrorLog(account_id, time DESC, type)`,
	}
	for _, s := range stmts {
		if _, err := b.db.ExecContext(ctx, s); err != nil {
			return wrapErr(fmt.Sprintf("EnsureSchema(%.40s)", s), err)
		}
	}
	return nil
}
