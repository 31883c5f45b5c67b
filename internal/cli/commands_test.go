package cli

import (
	"context"
	"testing"

	"github.com/Jylpah/blitzstats/internal/app"
	"github.com/Jylpah/blitzstats/internal/config"
)

func testContext() *app.Context {
	return &app.Context{Config: &config.Config{}}
}

func TestAccountsExport_RequiresFile(t *testing.T) {
	if err := accountsExport(context.Background(), testContext(), nil); err == nil {
		t.Fatal("expected error for missing --file")
	}
}

func TestAccountsRemove_RequiresAccounts(t *testing.T) {
	if err := accountsRemove(context.Background(), testContext(), nil); err == nil {
		t.Fatal("expected error for missing --accounts")
	}
}

func TestAccountsImport_RequiresFile(t *testing.T) {
	if err := accountsImport(context.Background(), testContext(), nil); err == nil {
		t.Fatal("expected error for missing --file")
	}
}

func TestTankStatsExport_RequiresFile(t *testing.T) {
	if err := tankStatsExport(context.Background(), testContext(), nil); err == nil {
		t.Fatal("expected error for missing --file")
	}
}

func TestTankStatsExportData_RequiresDir(t *testing.T) {
	if err := tankStatsExportData(context.Background(), testContext(), nil); err == nil {
		t.Fatal("expected error for missing --dir")
	}
}

func TestTankStatsImport_RequiresFile(t *testing.T) {
	if err := tankStatsImport(context.Background(), testContext(), nil); err == nil {
		t.Fatal("expected error for missing --file")
	}
}

func TestAchievementsExport_RequiresFile(t *testing.T) {
	if err := achievementsExport(context.Background(), testContext(), nil); err == nil {
		t.Fatal("expected error for missing --file")
	}
}

func TestAchievementsImport_RequiresFile(t *testing.T) {
	if err := achievementsImport(context.Background(), testContext(), nil); err == nil {
		t.Fatal("expected error for missing --file")
	}
}

func TestReplaysExport_RequiresFile(t *testing.T) {
	if err := replaysExport(context.Background(), testContext(), nil); err == nil {
		t.Fatal("expected error for missing --file")
	}
}

func TestTankopediaExport_RequiresFile(t *testing.T) {
	if err := tankopediaExport(context.Background(), testContext(), nil); err == nil {
		t.Fatal("expected error for missing --file")
	}
}

func TestTankopediaImport_RequiresFile(t *testing.T) {
	if err := tankopediaImport(context.Background(), testContext(), nil); err == nil {
		t.Fatal("expected error for missing --file")
	}
}

func TestReleasesAdd_RequiresRelease(t *testing.T) {
	if err := releasesAdd(context.Background(), testContext(), nil); err == nil {
		t.Fatal("expected error for missing --release")
	}
}

func TestReleasesAdd_RejectsCutoffBeforeLaunch(t *testing.T) {
	args := []string{"--release", "1.20", "--launch-time", "100", "--cutoff-time", "50"}
	if err := releasesAdd(context.Background(), testContext(), args); err == nil {
		t.Fatal("expected error for cutoff before launch")
	}
}

func TestReleasesExport_RequiresFile(t *testing.T) {
	if err := releasesExport(context.Background(), testContext(), nil); err == nil {
		t.Fatal("expected error for missing --file")
	}
}

func TestRun_DispatchesUnknownVerbPerNoun(t *testing.T) {
	for _, noun := range []string{"accounts", "tank-stats", "player-achievements", "replays", "tankopedia", "releases"} {
		if err := Run(context.Background(), testContext(), []string{noun, "bogus-verb"}); err == nil {
			t.Errorf("%s: expected error for unknown verb", noun)
		}
	}
}
