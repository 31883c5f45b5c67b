package exportfmt

import (
	"bytes"
	"reflect"
	"testing"

	"github.com/Jylpah/blitzstats/internal/models"
)

func sampleAchievements() []models.PlayerAchievement {
	return []models.PlayerAchievement{
		{AccountID: 1, Updated: 100, Release: "1.0", Region: "eu", Medals: map[string]int{"medalKolobanov": 2, "medalRadleyWalters": 1}},
		{AccountID: 2, Updated: 200, Release: "1.1", Region: "na"},
	}
}

func TestWriteReadAchievements_RoundTripsAllFormats(t *testing.T) {
	for _, format := range []Format{FormatTxt, FormatCSV, FormatJSON} {
		t.Run(string(format), func(t *testing.T) {
			want := sampleAchievements()
			var buf bytes.Buffer
			if err := WriteAchievements(&buf, format, want); err != nil {
				t.Fatalf("WriteAchievements: %v", err)
			}
			got, err := ReadAchievements(&buf, format)
			if err != nil {
				t.Fatalf("ReadAchievements: %v", err)
			}
			if len(got) != len(want) {
				t.Fatalf("got %d rows, want %d", len(got), len(want))
			}
			for i := range want {
				if !reflect.DeepEqual(got[i], want[i]) {
					t.Errorf("row %d = %+v, want %+v", i, got[i], want[i])
				}
			}
		})
	}
}

func TestEncodeDecodeMedals_RoundTrips(t *testing.T) {
	medals := map[string]int{"b": 2, "a": 1}
	s := encodeMedals(medals)
	if s != "a=1,b=2" {
		t.Fatalf("encodeMedals = %q, want deterministic sorted order a=1,b=2", s)
	}
	got, err := decodeMedals(s)
	if err != nil {
		t.Fatalf("decodeMedals: %v", err)
	}
	if !reflect.DeepEqual(got, medals) {
		t.Errorf("decodeMedals = %+v, want %+v", got, medals)
	}
}
