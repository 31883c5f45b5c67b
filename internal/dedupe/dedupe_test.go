package dedupe

import (
	"context"
	"sort"
	"sync"
	"testing"

	"github.com/Jylpah/blitzstats/internal/backend"
	"github.com/Jylpah/blitzstats/internal/models"
)

// fakeBackend embeds backend.Backend (nil) so it satisfies the
// interface without implementing every method, following the pattern
// established for the fetcher pipeline tests.
type fakeBackend struct {
	backend.Backend
	mu sync.Mutex

	hot     []models.TankStat
	archive []models.TankStat
	staged  []models.StatsToDelete
	deleted []models.TankStatIdentityKey
	logs    []models.UpdateLogEntry
}

func matchesTankFilter(s models.TankStat, f backend.StatsFilters) bool {
	if f.AccountIDMin > 0 && s.AccountID < f.AccountIDMin {
		return false
	}
	if f.AccountIDMax > 0 && s.AccountID >= f.AccountIDMax {
		return false
	}
	if len(f.Accounts) > 0 {
		found := false
		for _, a := range f.Accounts {
			if a == s.AccountID {
				found = true
			}
		}
		if !found {
			return false
		}
	}
	if len(f.Tanks) > 0 {
		found := false
		for _, tk := range f.Tanks {
			if tk == s.TankID {
				found = true
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func streamTankStats(rows []models.TankStat, f backend.StatsFilters, sort_ backend.SortOrder) <-chan backend.Result[models.TankStat] {
	var matched []models.TankStat
	for _, s := range rows {
		if matchesTankFilter(s, f) {
			matched = append(matched, s)
		}
	}
	if sort_ == backend.SortTimestampDesc {
		sort.Slice(matched, func(i, j int) bool { return matched[i].LastBattleTime > matched[j].LastBattleTime })
	}
	out := make(chan backend.Result[models.TankStat], len(matched))
	for _, s := range matched {
		out <- backend.Result[models.TankStat]{Value: s}
	}
	close(out)
	return out
}

func (f *fakeBackend) TankStatsGet(ctx context.Context, filter backend.StatsFilters, s backend.SortOrder) (<-chan backend.Result[models.TankStat], error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return streamTankStats(f.hot, filter, s), nil
}

func (f *fakeBackend) TankStatsArchiveGet(ctx context.Context, filter backend.StatsFilters, s backend.SortOrder) (<-chan backend.Result[models.TankStat], error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return streamTankStats(f.archive, filter, s), nil
}

func (f *fakeBackend) TankStatArchiveHas(ctx context.Context, key models.TankStatIdentityKey, lastBattleTime int64) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, s := range f.archive {
		if s.Identity() == key && s.LastBattleTime == lastBattleTime {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeBackend) TankStatDelete(ctx context.Context, key models.TankStatIdentityKey, lastBattleTime int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := f.hot[:0]
	for _, s := range f.hot {
		if s.Identity() == key && s.LastBattleTime == lastBattleTime {
			f.deleted = append(f.deleted, key)
			continue
		}
		out = append(out, s)
	}
	f.hot = out
	return nil
}

func (f *fakeBackend) StatsToDeleteInsert(ctx context.Context, batch []models.StatsToDelete) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.staged = append(f.staged, batch...)
	return len(batch), nil
}

func (f *fakeBackend) StatsToDeleteGet(ctx context.Context, statsType string, limit int) (<-chan backend.Result[models.StatsToDelete], error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var matched []models.StatsToDelete
	for _, s := range f.staged {
		if s.Type == statsType {
			matched = append(matched, s)
		}
	}
	out := make(chan backend.Result[models.StatsToDelete], len(matched))
	for _, s := range matched {
		out <- backend.Result[models.StatsToDelete]{Value: s}
	}
	close(out)
	return out, nil
}

func (f *fakeBackend) StatsToDeleteRemove(ctx context.Context, statsType string, ids []string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	toRemove := make(map[string]bool, len(ids))
	for _, id := range ids {
		toRemove[id] = true
	}
	out := f.staged[:0]
	n := 0
	for _, s := range f.staged {
		if s.Type == statsType && toRemove[s.ID] {
			n++
			continue
		}
		out = append(out, s)
	}
	f.staged = out
	return n, nil
}

func (f *fakeBackend) UpdateLogAppend(ctx context.Context, e models.UpdateLogEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.logs = append(f.logs, e)
	return nil
}

func (f *fakeBackend) ErrorLogAppend(ctx context.Context, e models.ErrorLogEntry) error {
	return nil
}

func TestAnalyzeTankStats_FindsOlderDuplicates(t *testing.T) {
	ctx := context.Background()
	be := &fakeBackend{
		hot: []models.TankStat{
			{AccountID: 1, TankID: 10, LastBattleTime: 300, Battles: 3},
			{AccountID: 1, TankID: 10, LastBattleTime: 200, Battles: 2},
			{AccountID: 1, TankID: 10, LastBattleTime: 100, Battles: 1},
			{AccountID: 2, TankID: 10, LastBattleTime: 150, Battles: 1},
		},
	}

	cfg := AnalyzeConfig{
		Backend:    be,
		Release:    "1.0",
		Partitions: []Partition{{AccountIDMin: 0, AccountIDMax: 1000}},
		Workers:    1,
		now:        func() int64 { return 42 },
	}

	stats, err := AnalyzeTankStats(ctx, cfg)
	if err != nil {
		t.Fatalf("AnalyzeTankStats: %v", err)
	}
	if got := stats.Get("duplicates found"); got != 2 {
		t.Errorf("duplicates found = %d, want 2", got)
	}
	if got := stats.Get("rows scanned"); got != 4 {
		t.Errorf("rows scanned = %d, want 4", got)
	}

	be.mu.Lock()
	defer be.mu.Unlock()
	if len(be.staged) != 2 {
		t.Fatalf("staged = %d, want 2", len(be.staged))
	}
	for _, s := range be.staged {
		key, lastBattleTime, err := models.DecodeTankStatID(s.ID)
		if err != nil {
			t.Fatalf("DecodeTankStatID(%q): %v", s.ID, err)
		}
		if key.AccountID != 1 || key.TankID != 10 {
			t.Errorf("unexpected staged key %+v", key)
		}
		if lastBattleTime != 200 && lastBattleTime != 100 {
			t.Errorf("unexpected staged timestamp %d", lastBattleTime)
		}
	}
	if len(be.logs) != 1 || be.logs[0].Action != models.ActionAnalyze {
		t.Errorf("expected one analyze update log entry, got %+v", be.logs)
	}
}

func TestCheckTankStats_ClassifiesCandidates(t *testing.T) {
	ctx := context.Background()
	be := &fakeBackend{
		hot: []models.TankStat{
			{AccountID: 1, TankID: 10, LastBattleTime: 300},
			{AccountID: 1, TankID: 10, LastBattleTime: 200}, // stale dup, safe to prune
		},
		staged: []models.StatsToDelete{
			{Type: "tank_stats", ID: models.EncodeTankStatID(models.TankStatIdentityKey{AccountID: 1, TankID: 10}, 200)},
			{Type: "tank_stats", ID: models.EncodeTankStatID(models.TankStatIdentityKey{AccountID: 1, TankID: 10}, 300)}, // would be CheckInvalid: this IS newest
			{Type: "tank_stats", ID: models.EncodeTankStatID(models.TankStatIdentityKey{AccountID: 9, TankID: 1}, 50)},  // CheckNotFound
		},
	}

	safe, stats, err := CheckTankStats(ctx, CheckConfig{Backend: be, StatsType: "tank_stats"})
	if err != nil {
		t.Fatalf("CheckTankStats: %v", err)
	}
	if len(safe) != 1 {
		t.Fatalf("safe candidates = %d, want 1", len(safe))
	}
	if stats.Get("ok") != 1 || stats.Get("invalid") != 1 || stats.Get("not_found") != 1 {
		t.Errorf("unexpected classification counts: ok=%d invalid=%d not_found=%d",
			stats.Get("ok"), stats.Get("invalid"), stats.Get("not_found"))
	}
}

func TestPruneTankStats_DeletesAndClearsStaging(t *testing.T) {
	ctx := context.Background()
	key := models.TankStatIdentityKey{AccountID: 1, TankID: 10}
	be := &fakeBackend{
		hot:     []models.TankStat{{AccountID: 1, TankID: 10, LastBattleTime: 200}},
		archive: []models.TankStat{{AccountID: 1, TankID: 10, LastBattleTime: 200}},
		staged:  []models.StatsToDelete{{Type: "tank_stats", ID: models.EncodeTankStatID(key, 200)}},
	}

	stats, err := PruneTankStats(ctx, PruneConfig{Backend: be, StatsType: "tank_stats", ArchiveCheck: true}, be.staged)
	if err != nil {
		t.Fatalf("PruneTankStats: %v", err)
	}
	if stats.Get("pruned") != 1 {
		t.Errorf("pruned = %d, want 1", stats.Get("pruned"))
	}
	if len(be.hot) != 0 {
		t.Errorf("expected hot collection emptied, got %+v", be.hot)
	}
	if len(be.staged) != 0 {
		t.Errorf("expected staging cleared, got %+v", be.staged)
	}
}

func TestPruneTankStats_AbortsWholeBatchOnFailedArchiveCheck(t *testing.T) {
	ctx := context.Background()
	key := models.TankStatIdentityKey{AccountID: 1, TankID: 10}
	be := &fakeBackend{
		hot:    []models.TankStat{{AccountID: 1, TankID: 10, LastBattleTime: 200}},
		staged: []models.StatsToDelete{{Type: "tank_stats", ID: models.EncodeTankStatID(key, 200)}},
		// archive intentionally empty: the safety check must fail
	}

	_, err := PruneTankStats(ctx, PruneConfig{Backend: be, StatsType: "tank_stats", ArchiveCheck: true}, be.staged)
	if err == nil {
		t.Fatal("expected an error when the archive check fails")
	}
	if len(be.hot) != 1 {
		t.Errorf("expected no rows deleted on a failed archive check, got %+v", be.hot)
	}
	if len(be.staged) != 1 {
		t.Errorf("expected staging left untouched on a failed archive check, got %+v", be.staged)
	}
}
