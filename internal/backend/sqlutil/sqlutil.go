// Package sqlutil builds the WHERE-clause fragments shared by the duckdb
// and postgres drivers, so the two SQL backends express identical filter
// semantics (region/release/since/account-range) without duplicating the
// predicate logic. Placeholder rendering is dialect-aware: DuckDB accepts
// plain `?` (matching the teacher's own queryBuilder in
// internal/database/query_helpers.go), Postgres requires numbered `$n`.
package sqlutil

import (
	"fmt"
	"strings"

	"github.com/Jylpah/blitzstats/internal/backend"
	"github.com/Jylpah/blitzstats/internal/models"
)

// Dialect selects the placeholder syntax a Builder renders.
type Dialect int

const (
	DialectDuckDB Dialect = iota
	DialectPostgres
)

// Placeholder renders the positional placeholder for the nth (0-based)
// bound argument in the given dialect.
func (d Dialect) Placeholder(n int) string {
	if d == DialectPostgres {
		return fmt.Sprintf("$%d", n+1)
	}
	return "?"
}

// Builder accumulates WHERE-clause fragments and their bound arguments in
// lockstep, so callers never have to hand-count placeholder indices.
type Builder struct {
	Dialect Dialect
	Clauses []string
	Args    []any
}

// NewBuilder constructs a Builder for the given dialect.
func NewBuilder(d Dialect) *Builder {
	return &Builder{Dialect: d}
}

func (b *Builder) ph(n int) string { return b.Dialect.Placeholder(n) }

func (b *Builder) add(clause string, args ...any) {
	b.Clauses = append(b.Clauses, clause)
	b.Args = append(b.Args, args...)
}

// Regions appends a `column IN (...)` clause when regions is non-empty.
func (b *Builder) Regions(column string, regions []models.Region) {
	if len(regions) == 0 {
		return
	}
	placeholders := make([]string, len(regions))
	for i, r := range regions {
		placeholders[i] = b.ph(len(b.Args) + i)
		b.Args = append(b.Args, string(r))
	}
	b.Clauses = append(b.Clauses, fmt.Sprintf("%s IN (%s)", column, strings.Join(placeholders, ", ")))
}

// Since appends a `column >= ?` clause when since is positive.
func (b *Builder) Since(column string, since int64) {
	if since <= 0 {
		return
	}
	b.add(fmt.Sprintf("%s >= %s", column, b.ph(len(b.Args))), since)
}

// Release appends a `column = ?` clause when release is non-empty.
func (b *Builder) Release(column, release string) {
	if release == "" {
		return
	}
	b.add(fmt.Sprintf("%s = %s", column, b.ph(len(b.Args))), release)
}

// Int64In appends a `column IN (...)` clause when values is non-empty.
func (b *Builder) Int64In(column string, values []int64) {
	if len(values) == 0 {
		return
	}
	placeholders := make([]string, len(values))
	for i, v := range values {
		placeholders[i] = b.ph(len(b.Args) + i)
		b.Args = append(b.Args, v)
	}
	b.Clauses = append(b.Clauses, fmt.Sprintf("%s IN (%s)", column, strings.Join(placeholders, ", ")))
}

// Bool appends a `column = ?` clause when v is non-nil.
func (b *Builder) Bool(column string, v *bool) {
	if v == nil {
		return
	}
	b.add(fmt.Sprintf("%s = %s", column, b.ph(len(b.Args))), *v)
}

// Lt appends a `column < ?` clause when threshold is positive.
func (b *Builder) Lt(column string, threshold int64) {
	if threshold <= 0 {
		return
	}
	b.add(fmt.Sprintf("%s < %s", column, b.ph(len(b.Args))), threshold)
}

// Range appends `column >= ?` / `column < ?` clauses for a half-open
// [min, max) partition bound, skipping either side that is zero. Used by
// the dedupe analyzer and snapshotter to scope a query to one
// account-id-range partition without a full table scan.
func (b *Builder) Range(column string, min, max int64) {
	if min > 0 {
		b.add(fmt.Sprintf("%s >= %s", column, b.ph(len(b.Args))), min)
	}
	if max > 0 {
		b.add(fmt.Sprintf("%s < %s", column, b.ph(len(b.Args))), max)
	}
}

// Where renders the accumulated clauses as a "WHERE a AND b AND c" string,
// or "" if nothing was added.
func (b *Builder) Where() string {
	if len(b.Clauses) == 0 {
		return ""
	}
	return "WHERE " + strings.Join(b.Clauses, " AND ")
}

// Next returns the next placeholder for a value the caller appends
// itself (e.g. a final `id = ?` clause built outside the Builder's
// helper methods).
func (b *Builder) Next() string {
	return b.ph(len(b.Args))
}

// SampleClause renders the absolute-count variant of `--sample S` as a
// `LIMIT n` suffix. A fractional sample renders "" and no driver applies
// it anywhere else, so a query with a fractional sample returns every
// matching row.
func SampleClause(s backend.Sample) string {
	if s.IsZero() || s.IsFraction() {
		return ""
	}
	return fmt.Sprintf("LIMIT %d", int64(s.Value))
}
