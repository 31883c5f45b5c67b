// Package postgres is the PostgreSQL Backend driver used by `--backend
// postgresql`. It shares its WHERE-clause construction with the duckdb
// driver via internal/backend/sqlutil, selecting DialectPostgres so
// placeholders render as `$1, $2, ...` instead of duckdb's `?`.
package postgres
