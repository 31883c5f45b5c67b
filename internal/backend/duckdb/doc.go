// Package duckdb is the reference Backend driver (spec.md §4.4), backing
// the CLI's "--backend files" option with a single embedded DuckDB file.
// Connection handling and the transaction-wrapped batch-insert idiom follow
// the teacher's internal/eventprocessor/duckdb_store.go and
// duckdb_consumer.go: one *sql.DB, schema created once via EnsureSchema,
// prepared statements reused on hot paths.
package duckdb
