package remap

import (
	"context"
	"sync"
	"testing"

	"github.com/Jylpah/blitzstats/internal/backend"
	"github.com/Jylpah/blitzstats/internal/models"
	"github.com/Jylpah/blitzstats/internal/releases"
)

type fakeBackend struct {
	backend.Backend
	mu      sync.Mutex
	rows    []models.TankStat
	updated []models.TankStat
	logs    []models.UpdateLogEntry
}

func (f *fakeBackend) TankStatsGet(ctx context.Context, filter backend.StatsFilters, s backend.SortOrder) (<-chan backend.Result[models.TankStat], error) {
	out := make(chan backend.Result[models.TankStat], len(f.rows))
	for _, r := range f.rows {
		out <- backend.Result[models.TankStat]{Value: r}
	}
	close(out)
	return out, nil
}

func (f *fakeBackend) TankStatUpdate(ctx context.Context, row models.TankStat, fields []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updated = append(f.updated, row)
	return nil
}

func (f *fakeBackend) UpdateLogAppend(ctx context.Context, e models.UpdateLogEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.logs = append(f.logs, e)
	return nil
}

func (f *fakeBackend) ErrorLogAppend(ctx context.Context, e models.ErrorLogEntry) error { return nil }

func testMapper(t *testing.T) *releases.Mapper {
	t.Helper()
	m, err := releases.NewMapper([]models.Release{
		{Release: "1.0", LaunchTime: 0, CutoffTime: 1_000_000_000},
		{Release: "1.1", LaunchTime: 1_000_000_000, CutoffTime: 2_000_000_000},
	})
	if err != nil {
		t.Fatalf("NewMapper: %v", err)
	}
	return m
}

func TestTankStats_DryRunDoesNotPersist(t *testing.T) {
	be := &fakeBackend{rows: []models.TankStat{
		{AccountID: 1, TankID: 1, LastBattleTime: 1_500_000_000, Release: "1.0"}, // should be 1.1
		{AccountID: 2, TankID: 1, LastBattleTime: 500_000_000, Release: "1.0"},   // already correct
	}}

	stats, err := TankStats(context.Background(), Config{Backend: be, Mapper: testMapper(t), Commit: false})
	if err != nil {
		t.Fatalf("TankStats: %v", err)
	}
	if got := stats.Get("would change"); got != 1 {
		t.Errorf("would change = %d, want 1", got)
	}
	if got := stats.Get("unchanged"); got != 1 {
		t.Errorf("unchanged = %d, want 1", got)
	}
	if len(be.updated) != 0 {
		t.Errorf("dry run must not call TankStatUpdate, got %d calls", len(be.updated))
	}
}

func TestTankStats_CommitPersistsAndLogs(t *testing.T) {
	be := &fakeBackend{rows: []models.TankStat{
		{AccountID: 1, TankID: 1, LastBattleTime: 1_500_000_000, Release: "1.0"},
	}}

	stats, err := TankStats(context.Background(), Config{Backend: be, Mapper: testMapper(t), Commit: true})
	if err != nil {
		t.Fatalf("TankStats: %v", err)
	}
	if got := stats.Get("changed"); got != 1 {
		t.Errorf("changed = %d, want 1", got)
	}
	if len(be.updated) != 1 || be.updated[0].Release != "1.1" {
		t.Fatalf("expected one update to release 1.1, got %+v", be.updated)
	}
	if len(be.logs) != 1 {
		t.Errorf("expected one update log entry, got %d", len(be.logs))
	}
}
