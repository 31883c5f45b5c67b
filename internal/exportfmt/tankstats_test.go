package exportfmt

import (
	"bytes"
	"testing"

	"github.com/Jylpah/blitzstats/internal/models"
)

func sampleTankStats() []models.TankStat {
	return []models.TankStat{
		{AccountID: 1, TankID: 10, LastBattleTime: 100, Release: "1.0", Region: "eu", Battles: 5, Wins: 3, Losses: 2, DamageDealt: 1000, Frags: 4, SpottedEnemies: 2, WinRate: 0.6},
		{AccountID: 2, TankID: 20, LastBattleTime: 200, Release: "1.1", Region: "na", Battles: 10, Wins: 7, Losses: 3, DamageDealt: 2000, Frags: 8, SpottedEnemies: 5, WinRate: 0.7},
	}
}

func TestWriteReadTankStats_RoundTripsAllFormats(t *testing.T) {
	for _, format := range []Format{FormatTxt, FormatCSV, FormatJSON} {
		t.Run(string(format), func(t *testing.T) {
			want := sampleTankStats()
			var buf bytes.Buffer
			if err := WriteTankStats(&buf, format, want); err != nil {
				t.Fatalf("WriteTankStats: %v", err)
			}
			got, err := ReadTankStats(&buf, format)
			if err != nil {
				t.Fatalf("ReadTankStats: %v", err)
			}
			if len(got) != len(want) {
				t.Fatalf("got %d rows, want %d", len(got), len(want))
			}
			for i := range want {
				if got[i] != want[i] {
					t.Errorf("row %d = %+v, want %+v", i, got[i], want[i])
				}
			}
		})
	}
}

func TestDetectFormat_RejectsUnknownExtension(t *testing.T) {
	if _, err := DetectFormat("stats.parquet"); err == nil {
		t.Fatal("expected error for unsupported extension")
	}
}

func TestReadTankStats_CSVMissingColumnErrors(t *testing.T) {
	var buf bytes.Buffer
	buf.WriteString("account_id,tank_id\n1,2\n")
	if _, err := ReadTankStats(&buf, FormatCSV); err == nil {
		t.Fatal("expected error for csv missing required columns")
	}
}
