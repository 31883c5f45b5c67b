package postgres

import (
	"fmt"

	"github.com/Jylpah/blitzstats/internal/backend"
	"github.com/Jylpah/blitzstats/internal/backend/sqlutil"
)

func statsFilterBuilder(f backend.StatsFilters) *sqlutil.Builder {
	q := sqlutil.NewBuilder(sqlutil.DialectPostgres)
	q.Release("release", f.Release)
	q.Regions("region", f.Regions)
	q.Int64In("account_id", f.Accounts)
	q.Int64In("tank_id", f.Tanks)
	q.Since("last_battle_time", f.Since)
	q.Range("account_id", f.AccountIDMin, f.AccountIDMax)
	return q
}

func orderBy(column string, sort backend.SortOrder) string {
	switch sort {
	case backend.SortTimestampAsc:
		return fmt.Sprintf("ORDER BY %s ASC", column)
	case backend.SortTimestampDesc:
		return fmt.Sprintf("ORDER BY %s DESC", column)
	default:
		return ""
	}
}

// strippedAnd turns a Builder.Where() result into an "AND ..." continuation
// for appending to a WHERE clause that already opened with a subquery
// predicate, or "" if the builder carried no extra filters.
func strippedAnd(where string) string {
	if where == "" {
		return ""
	}
	return "AND " + where[len("WHERE "):]
}
