package releases

import (
	"errors"
	"testing"

	"github.com/Jylpah/blitzstats/internal/models"
)

func testReleases() []models.Release {
	return []models.Release{
		{Release: "6.0", LaunchTime: 100, CutoffTime: 200},
		{Release: "6.1", LaunchTime: 200, CutoffTime: 300},
		{Release: "6.2", LaunchTime: 300, CutoffTime: 1 << 40},
	}
}

// TestS1ReleaseMapping is scenario S1 from spec.md §8.
func TestS1ReleaseMapping(t *testing.T) {
	m, err := NewMapper(testReleases())
	if err != nil {
		t.Fatal(err)
	}
	cases := []struct {
		key  int64
		want string
	}{
		{100, "6.0"},
		{200, "6.0"},
		{201, "6.1"},
		{350, "6.2"},
	}
	for _, c := range cases {
		r, err := m.Get(c.key)
		if err != nil {
			t.Fatalf("Get(%d): %v", c.key, err)
		}
		if r.Release != c.want {
			t.Errorf("Get(%d) = %s, want %s", c.key, r.Release, c.want)
		}
	}
}

func TestGetBeforeFirstLaunchIsNotFound(t *testing.T) {
	m, err := NewMapper(testReleases())
	if err != nil {
		t.Fatal(err)
	}
	if _, err := m.Get(50); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Get(50) err = %v, want ErrNotFound", err)
	}
}

func TestNewMapperRejectsGaps(t *testing.T) {
	rs := []models.Release{
		{Release: "6.0", LaunchTime: 100, CutoffTime: 200},
		{Release: "6.1", LaunchTime: 250, CutoffTime: 300}, // gap: 200 != 250
	}
	_, err := NewMapper(rs)
	var gapErr ErrGap
	if !errors.As(err, &gapErr) {
		t.Fatalf("err = %v, want ErrGap", err)
	}
}

func TestNewMapperRejectsEmpty(t *testing.T) {
	if _, err := NewMapper(nil); !errors.Is(err, ErrNoReleases) {
		t.Fatalf("err = %v, want ErrNoReleases", err)
	}
}

func TestNewMapperSortsUnorderedInput(t *testing.T) {
	rs := testReleases()
	// reverse input order
	shuffled := []models.Release{rs[2], rs[0], rs[1]}
	m, err := NewMapper(shuffled)
	if err != nil {
		t.Fatal(err)
	}
	r, err := m.Get(250)
	if err != nil {
		t.Fatal(err)
	}
	if r.Release != "6.1" {
		t.Fatalf("Get(250) = %s, want 6.1", r.Release)
	}
}

// TestTotalAndUnique is the property-based check (spec.md §8 invariant 1):
// for any timestamp in the spanned range, exactly one release matches and
// the mapper returns it.
func TestTotalAndUnique(t *testing.T) {
	m, err := NewMapper(testReleases())
	if err != nil {
		t.Fatal(err)
	}
	for ts := int64(101); ts <= 300; ts++ {
		r, err := m.Get(ts)
		if err != nil {
			t.Fatalf("Get(%d): %v", ts, err)
		}
		matches := 0
		for _, rel := range m.All() {
			if rel.Contains(ts) {
				matches++
				if rel.Release != r.Release {
					t.Fatalf("Get(%d) = %s but Contains() says %s", ts, r.Release, rel.Release)
				}
			}
		}
		if matches != 1 {
			t.Fatalf("ts=%d matched %d releases, want exactly 1", ts, matches)
		}
	}
}

type fakeTimestamped struct{ ts int64 }

func (f fakeTimestamped) Timestamp() int64 { return f.ts }

func TestAssignGeneric(t *testing.T) {
	m, err := NewMapper(testReleases())
	if err != nil {
		t.Fatal(err)
	}
	rel, err := Assign(m, fakeTimestamped{ts: 250})
	if err != nil {
		t.Fatal(err)
	}
	if rel != "6.1" {
		t.Fatalf("Assign = %s, want 6.1", rel)
	}
}
