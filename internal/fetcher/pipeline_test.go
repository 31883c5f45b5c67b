package fetcher

import (
	"context"
	"sync"
	"testing"

	"github.com/Jylpah/blitzstats/internal/backend"
	"github.com/Jylpah/blitzstats/internal/models"
	"github.com/Jylpah/blitzstats/internal/queue"
	"github.com/Jylpah/blitzstats/internal/releases"
)

func TestWorkerCount(t *testing.T) {
	cases := []struct {
		configured, accounts, want int
	}{
		{4, 0, 1},
		{4, 1, 1},
		{4, 4, 1},
		{4, 5, 2},
		{4, 100, 4},
		{0, 8, 1},
	}
	for _, c := range cases {
		if got := workerCount(c.configured, c.accounts); got != c.want {
			t.Errorf("workerCount(%d, %d) = %d, want %d", c.configured, c.accounts, got, c.want)
		}
	}
}

func TestCountName(t *testing.T) {
	if got := countName(models.StatsKindTankStats); got != "tank stats" {
		t.Errorf("countName(tank_stats) = %q", got)
	}
	if got := countName(models.StatsKindPlayerAchievement); got != "player achievements" {
		t.Errorf("countName(player_achievements) = %q", got)
	}
}

// fakeBackend embeds backend.Backend (nil) so it satisfies the interface
// without implementing every method; only AccountUpdate is exercised by
// the pipeline.
type fakeBackend struct {
	backend.Backend
	mu      sync.Mutex
	updates []models.Account
}

func (f *fakeBackend) AccountUpdate(ctx context.Context, a models.Account, fields models.AccountFields) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updates = append(f.updates, a)
	return nil
}

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

func TestRun_FetchInsertAndNoData(t *testing.T) {
	ctx := context.Background()
	be := &fakeBackend{}

	accounts := []models.Account{
		{ID: 600_000_001, Region: models.RegionEU},
		{ID: 600_000_002, Region: models.RegionEU}, // will have no data -> disabled
	}
	accountQ := queue.New[models.Account](8, true)
	accountQ.AddProducer()
	go func() {
		defer accountQ.Finish()
		for _, a := range accounts {
			_ = accountQ.Put(ctx, a)
		}
	}()

	cfg := Config[models.TankStat]{
		Backend: be,
		Mapper:  testMapper(t),
		Kind:    models.StatsKindTankStats,
		Workers: 2,
		Fetch: func(ctx context.Context, accountID int64, region models.Region) ([]models.TankStat, error) {
			if accountID == 600_000_002 {
				return nil, nil
			}
			return []models.TankStat{{AccountID: accountID, TankID: 1, LastBattleTime: 1_500_000_000, Battles: 10}}, nil
		},
		Insert: func(ctx context.Context, batch []models.TankStat, force bool) (int, int, error) {
			return len(batch), 0, nil
		},
	}

	stats, err := Run(ctx, cfg, accountQ, len(accounts))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if got := stats.Get("accounts total"); got != 2 {
		t.Errorf("accounts total = %d, want 2", got)
	}
	if got := stats.Get("accounts w/o stats"); got != 1 {
		t.Errorf("accounts w/o stats = %d, want 1", got)
	}
	if got := stats.Get("tank stats added"); got != 1 {
		t.Errorf("tank stats added = %d, want 1", got)
	}
	if got := stats.Get("accounts /w new stats"); got != 1 {
		t.Errorf("accounts /w new stats = %d, want 1", got)
	}

	be.mu.Lock()
	defer be.mu.Unlock()
	foundDisabled := false
	for _, a := range be.updates {
		if a.ID == 600_000_002 && a.Disabled {
			foundDisabled = true
		}
	}
	if !foundDisabled {
		t.Error("expected account 600000002 to be marked disabled")
	}
}

func TestRun_RetryPassReEnablesAccount(t *testing.T) {
	ctx := context.Background()
	be := &fakeBackend{}

	account := models.Account{ID: 600_000_003, Region: models.RegionEU, Disabled: true}
	accountQ := queue.New[models.Account](4, true)
	accountQ.AddProducer()
	go func() {
		defer accountQ.Finish()
		_ = accountQ.Put(ctx, account)
	}()

	var calls int
	var mu sync.Mutex
	cfg := Config[models.TankStat]{
		Backend: be,
		Mapper:  testMapper(t),
		Kind:    models.StatsKindTankStats,
		Workers: 1,
		Fetch: func(ctx context.Context, accountID int64, region models.Region) ([]models.TankStat, error) {
			mu.Lock()
			calls++
			n := calls
			mu.Unlock()
			if n == 1 {
				return nil, nil // first pass: no data, goes to retry
			}
			return []models.TankStat{{AccountID: accountID, TankID: 1, LastBattleTime: 1_500_000_000}}, nil
		},
		Insert: func(ctx context.Context, batch []models.TankStat, force bool) (int, int, error) {
			return len(batch), 0, nil
		},
	}

	stats, err := Run(ctx, cfg, accountQ, 1)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got := stats.Get("accounts to re-try"); got != 1 {
		t.Errorf("accounts to re-try = %d, want 1", got)
	}
	if got := stats.Get("accounts enabled"); got != 1 {
		t.Errorf("accounts enabled = %d, want 1", got)
	}
}
