package dedupe

import "github.com/Jylpah/blitzstats/internal/models"

// Partition is one unit of analyze/prune/snapshot work: an account-id
// range crossed with a tank id (TankID == 0 for achievements, which have
// no sub-entity to partition by). Bounding the account-id range lets the
// analyzer and snapshotter work table-chunk by table-chunk instead of
// loading an entire release's worth of rows into memory at once.
type Partition struct {
	AccountIDMin int64
	AccountIDMax int64
	TankID       int64
}

// defaultRangeSize chunks the full account id space (spec.md §3's
// RegionFromAccountID maps ids below 3.1e9) into ~45 partitions by
// default, a reasonable balance between parallelism and per-partition
// query cost for a single run.
const defaultRangeSize = 70_000_000

// accountIDCeiling is the first id outside every known region band;
// partitions never need to extend past it.
const accountIDCeiling = 3_100_000_000

// BuildAccountRanges splits [0, accountIDCeiling) into half-open
// [min, max) ranges of rangeSize ids each. rangeSize <= 0 uses the
// package default.
func BuildAccountRanges(rangeSize int64) []Partition {
	if rangeSize <= 0 {
		rangeSize = defaultRangeSize
	}
	var out []Partition
	for lo := int64(0); lo < accountIDCeiling; lo += rangeSize {
		hi := lo + rangeSize
		if hi > accountIDCeiling {
			hi = accountIDCeiling
		}
		out = append(out, Partition{AccountIDMin: lo, AccountIDMax: hi})
	}
	return out
}

// BuildTankPartitions crosses each account-id range with each tank id, the
// TankStats partitioning scheme. When tanks is empty, TankID stays 0 and
// the analyzer treats that as "every tank", matching a wildcard partition.
func BuildTankPartitions(rangeSize int64, tanks []int64) []Partition {
	ranges := BuildAccountRanges(rangeSize)
	if len(tanks) == 0 {
		return ranges
	}
	out := make([]Partition, 0, len(ranges)*len(tanks))
	for _, r := range ranges {
		for _, tank := range tanks {
			out = append(out, Partition{AccountIDMin: r.AccountIDMin, AccountIDMax: r.AccountIDMax, TankID: tank})
		}
	}
	return out
}

// Shuffle returns a copy of ps in a deterministic-but-scrambled order
// (Fisher-Yates driven by an explicit seed, never time.Now/math/rand's
// global source) so a run's ETA stabilizes quickly instead of being
// skewed by partitions processed in id order (spec.md §4.11 "partitions
// are shuffled before execution to stabilize ETA estimates").
func Shuffle(ps []Partition, seed int64) []Partition {
	out := make([]Partition, len(ps))
	copy(out, ps)
	rng := newLCG(seed)
	for i := len(out) - 1; i > 0; i-- {
		j := int(rng.next() % uint64(i+1))
		out[i], out[j] = out[j], out[i]
	}
	return out
}

// lcg is a minimal deterministic PRNG so Shuffle's output only depends
// on seed, never on math/rand's global source or wall-clock time.
type lcg struct{ state uint64 }

func newLCG(seed int64) *lcg { return &lcg{state: uint64(seed) ^ 0x9E3779B97F4A7C15} }

func (g *lcg) next() uint64 {
	g.state = g.state*6364136223846793005 + 1442695040888963407
	return g.state
}

// Region returns the region models.RegionFromAccountID derives for id, or
// "" when id falls outside every known band.
func Region(id int64) models.Region {
	r, _ := models.RegionFromAccountID(id)
	return r
}
