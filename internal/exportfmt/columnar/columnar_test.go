package columnar

import (
	"path/filepath"
	"sort"
	"testing"

	"github.com/Jylpah/blitzstats/internal/models"
)

func TestWriteReadTankStats_RoundTripsPerReleaseTankID(t *testing.T) {
	dir := t.TempDir()
	rows := []models.TankStat{
		{AccountID: 1, TankID: 10, LastBattleTime: 100, Release: "1.0", Region: "eu", Battles: 5, Wins: 3, WinRate: 0.6},
		{AccountID: 2, TankID: 10, LastBattleTime: 200, Release: "1.0", Region: "na", Battles: 8, Wins: 4, WinRate: 0.5},
		{AccountID: 3, TankID: 20, LastBattleTime: 300, Release: "1.1", Region: "eu", Battles: 2, Wins: 1, WinRate: 0.5},
	}

	paths, err := WriteTankStats(dir, rows)
	if err != nil {
		t.Fatalf("WriteTankStats: %v", err)
	}
	if len(paths) != 2 {
		t.Fatalf("expected one file per (release, tank_id) group, got %d: %v", len(paths), paths)
	}

	want := map[string][]int64{
		filepath.Join(dir, FileName("1.0", 10)): {1, 2},
		filepath.Join(dir, FileName("1.1", 20)): {3},
	}
	for path, wantIDs := range want {
		got, err := ReadTankStats(path)
		if err != nil {
			t.Fatalf("ReadTankStats(%s): %v", path, err)
		}
		var gotIDs []int64
		for _, r := range got {
			gotIDs = append(gotIDs, r.AccountID)
		}
		sort.Slice(gotIDs, func(i, j int) bool { return gotIDs[i] < gotIDs[j] })
		if len(gotIDs) != len(wantIDs) {
			t.Fatalf("file %s: got %d rows, want %d", path, len(gotIDs), len(wantIDs))
		}
		for i := range wantIDs {
			if gotIDs[i] != wantIDs[i] {
				t.Errorf("file %s: account ids = %v, want %v", path, gotIDs, wantIDs)
			}
		}
	}
}

func TestReadTankStats_MissingFileErrors(t *testing.T) {
	if _, err := ReadTankStats(filepath.Join(t.TempDir(), "missing.bin.lz4")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
