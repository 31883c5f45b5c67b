package backend

import "github.com/Jylpah/blitzstats/internal/models"

// AccountKind scopes an account query to a particular provenance, mostly
// relevant for accounts_count's reporting breakdowns.
type AccountKind string

const (
	AccountKindAll      AccountKind = "all"
	AccountKindImported AccountKind = "imported"
	AccountKindCrawled  AccountKind = "crawled"
)

// Sample expresses the spec's `--sample S` rule: a fraction in (0,1) or an
// absolute row count when S >= 1.
type Sample struct {
	Value float64
}

// IsFraction reports whether the sample should be interpreted as a
// fraction of matching rows rather than an absolute count.
func (s Sample) IsFraction() bool { return s.Value > 0 && s.Value < 1 }

// IsZero reports whether no sampling was requested.
func (s Sample) IsZero() bool { return s.Value == 0 }

// Distributed expresses `--distributed I:N`: process only rows where
// id mod N == I.
type Distributed struct {
	I, N int
}

// Enabled reports whether distributed sharding was requested.
func (d Distributed) Enabled() bool { return d.N > 0 }

// Match reports whether id belongs to this shard.
func (d Distributed) Match(id int64) bool {
	if !d.Enabled() {
		return true
	}
	return id%int64(d.N) == int64(d.I)
}

// AccountFilters scopes Accounts{Count,Get}.
type AccountFilters struct {
	Kind        AccountKind
	Regions     []models.Region
	Inactive    *bool // nil = don't filter
	Disabled    *bool
	Sample      Sample
	CacheValid  int64 // when positive, match only accounts with last_battle_time (unix seconds) below this value
	Distributed Distributed
}

// StatsFilters scopes TankStats/PlayerAchievements queries. Tanks is only
// meaningful for TankStats. AccountIDMin/Max express the dedupe/snapshot
// partitioning scheme (spec.md §4.10/§4.11's "account-range x tank"
// partitions): both zero means unbounded, otherwise rows with
// AccountIDMin <= account_id < AccountIDMax match.
type StatsFilters struct {
	Release      string // empty = all releases
	Regions      []models.Region
	Accounts     []int64
	Tanks        []int64
	Since        int64 // unix seconds, 0 = no lower bound
	Sample       Sample
	AccountIDMin int64
	AccountIDMax int64
}

// ExportModel names the kind of typed row an export handles.
type ExportModel string

const (
	ExportAccounts          ExportModel = "accounts"
	ExportTankStats         ExportModel = "tank_stats"
	ExportPlayerAchievement ExportModel = "player_achievements"
	ExportReplays           ExportModel = "replays"
)

// SortOrder controls *_get ordering when the caller needs it; drivers may
// otherwise reorder results freely.
type SortOrder int

const (
	SortNone SortOrder = iota
	SortTimestampAsc
	SortTimestampDesc
)
