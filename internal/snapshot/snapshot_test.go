package snapshot

import (
	"context"
	"sort"
	"sync"
	"testing"

	"github.com/Jylpah/blitzstats/internal/backend"
	"github.com/Jylpah/blitzstats/internal/dedupe"
	"github.com/Jylpah/blitzstats/internal/models"
)

type fakeBackend struct {
	backend.Backend
	mu      sync.Mutex
	archive []models.TankStat
	hot     []models.TankStat
	logs    []models.UpdateLogEntry
}

func (f *fakeBackend) TankStatsArchiveGet(ctx context.Context, filter backend.StatsFilters, s backend.SortOrder) (<-chan backend.Result[models.TankStat], error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var matched []models.TankStat
	for _, row := range f.archive {
		if filter.AccountIDMin > 0 && row.AccountID < filter.AccountIDMin {
			continue
		}
		if filter.AccountIDMax > 0 && row.AccountID >= filter.AccountIDMax {
			continue
		}
		matched = append(matched, row)
	}
	if s == backend.SortTimestampDesc {
		sort.Slice(matched, func(i, j int) bool { return matched[i].LastBattleTime > matched[j].LastBattleTime })
	}
	out := make(chan backend.Result[models.TankStat], len(matched))
	for _, row := range matched {
		out <- backend.Result[models.TankStat]{Value: row}
	}
	close(out)
	return out, nil
}

func (f *fakeBackend) TankStatsInsert(ctx context.Context, batch []models.TankStat, force bool) (int, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	inserted := 0
outer:
	for _, row := range batch {
		for _, existing := range f.hot {
			if existing.Identity() == row.Identity() {
				continue outer
			}
		}
		f.hot = append(f.hot, row)
		inserted++
	}
	return inserted, len(batch) - inserted, nil
}

func (f *fakeBackend) UpdateLogAppend(ctx context.Context, e models.UpdateLogEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.logs = append(f.logs, e)
	return nil
}

func TestRunTankStats_MergesNewestPerKeyOnly(t *testing.T) {
	ctx := context.Background()
	be := &fakeBackend{
		archive: []models.TankStat{
			{AccountID: 1, TankID: 10, LastBattleTime: 300, Battles: 3},
			{AccountID: 1, TankID: 10, LastBattleTime: 200, Battles: 2},
			{AccountID: 1, TankID: 10, LastBattleTime: 100, Battles: 1},
			{AccountID: 2, TankID: 10, LastBattleTime: 150, Battles: 5},
		},
	}

	cfg := Config{
		Backend:    be,
		Release:    "1.0",
		Partitions: []dedupe.Partition{{AccountIDMin: 0, AccountIDMax: 1000}},
		Workers:    1,
	}

	stats, err := RunTankStats(ctx, cfg)
	if err != nil {
		t.Fatalf("RunTankStats: %v", err)
	}
	if got := stats.Get("merged"); got != 2 {
		t.Errorf("merged = %d, want 2", got)
	}

	be.mu.Lock()
	defer be.mu.Unlock()
	if len(be.hot) != 2 {
		t.Fatalf("hot collection size = %d, want 2", len(be.hot))
	}
	for _, row := range be.hot {
		if row.AccountID == 1 && row.LastBattleTime != 300 {
			t.Errorf("expected newest row (300) for account 1, got %d", row.LastBattleTime)
		}
	}
	if len(be.logs) != 1 || be.logs[0].Action != models.ActionSnapshot {
		t.Errorf("expected one snapshot update log entry, got %+v", be.logs)
	}
}

func TestRunTankStats_NoopOnEmptyArchive(t *testing.T) {
	ctx := context.Background()
	be := &fakeBackend{}
	cfg := Config{
		Backend:    be,
		Release:    "1.0",
		Partitions: []dedupe.Partition{{AccountIDMin: 0, AccountIDMax: 1000}},
		Workers:    1,
	}
	stats, err := RunTankStats(ctx, cfg)
	if err != nil {
		t.Fatalf("RunTankStats: %v", err)
	}
	if got := stats.Get("merged"); got != 0 {
		t.Errorf("merged = %d, want 0", got)
	}
}
