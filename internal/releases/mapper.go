// Package releases implements the bucket mapper (an ordered
// start-key -> release index with O(log n) lookup) and the online half of
// the release mapper: assigning a timestamp to the release whose window
// contains it.
package releases

import (
	"fmt"
	"sort"

	"github.com/Jylpah/blitzstats/internal/models"
)

// Mapper is an ordered, read-only-after-construction index from
// LaunchTime to Release, supporting "greatest start <= key" lookups.
type Mapper struct {
	releases []models.Release // sorted ascending by LaunchTime
}

// ErrNoReleases is returned by NewMapper when given an empty release
// table; a mapper cannot be built from nothing.
var ErrNoReleases = fmt.Errorf("releases: no releases to build a mapper from")

// ErrGap is returned by NewMapper when two adjacent releases are not
// contiguous (CutoffTime[k] != LaunchTime[k+1]), violating the spec's
// "no gaps" invariant.
type ErrGap struct {
	Prev, Next models.Release
}

func (e ErrGap) Error() string {
	return fmt.Sprintf("releases: gap between %s (cutoff=%d) and %s (launch=%d)",
		e.Prev.Release, e.Prev.CutoffTime, e.Next.Release, e.Next.LaunchTime)
}

// NewMapper builds a Mapper from an unordered slice of releases, sorting
// them by LaunchTime and validating the no-gaps invariant.
func NewMapper(rs []models.Release) (*Mapper, error) {
	if len(rs) == 0 {
		return nil, ErrNoReleases
	}
	sorted := make([]models.Release, len(rs))
	copy(sorted, rs)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].LaunchTime < sorted[j].LaunchTime })

	for i := 1; i < len(sorted); i++ {
		if sorted[i-1].CutoffTime != sorted[i].LaunchTime {
			return nil, ErrGap{Prev: sorted[i-1], Next: sorted[i]}
		}
	}
	return &Mapper{releases: sorted}, nil
}

// ErrNotFound is returned by Get when key precedes every release's
// LaunchTime.
var ErrNotFound = fmt.Errorf("releases: no release covers this timestamp")

// Get returns the release whose window contains key under
// launch_time < t <= cutoff_time. A timestamp exactly equal to a
// release's LaunchTime belongs to the *previous* release (it is that
// release's cutoff instant), except for the very first release, whose
// LaunchTime is its own window's inclusive start.
func (m *Mapper) Get(key int64) (models.Release, error) {
	// sort.Search finds the first index whose LaunchTime >= key; the
	// release we want is the one just before it, unless key lands
	// exactly on the first release's own LaunchTime.
	idx := sort.Search(len(m.releases), func(i int) bool {
		return m.releases[i].LaunchTime >= key
	})
	if idx == 0 {
		if len(m.releases) > 0 && m.releases[0].LaunchTime == key {
			return m.releases[0], nil
		}
		return models.Release{}, ErrNotFound
	}
	return m.releases[idx-1], nil
}

// Len returns the number of releases in the mapper.
func (m *Mapper) Len() int {
	return len(m.releases)
}

// All returns a copy of the releases backing the mapper, in ascending
// LaunchTime order.
func (m *Mapper) All() []models.Release {
	out := make([]models.Release, len(m.releases))
	copy(out, m.releases)
	return out
}

// Assignable is satisfied by TankStat and PlayerAchievement: anything the
// online release mapper can stamp a Release onto given its Timestamp.
type Assignable interface {
	Timestamp() int64
}

// Assign looks up the release covering v's timestamp and returns its
// Release string, or "" plus ErrNotFound/ErrUnmappableAccountID-style
// DataInvariant if none covers it.
func Assign[T Assignable](m *Mapper, v T) (string, error) {
	r, err := m.Get(v.Timestamp())
	if err != nil {
		return "", err
	}
	return r.Release, nil
}
