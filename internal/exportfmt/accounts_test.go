package exportfmt

import (
	"bytes"
	"strings"
	"testing"

	"github.com/Jylpah/blitzstats/internal/models"
)

func sampleAccounts() []models.Account {
	return []models.Account{
		{ID: 1, Region: "eu", Added: 100, LastBattleTime: 200},
		{ID: 2, Region: "na", Added: 300, LastBattleTime: 400, Inactive: true},
	}
}

func TestWriteAccounts_TxtIsOneIDPerLine(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteAccounts(&buf, FormatTxt, sampleAccounts()); err != nil {
		t.Fatalf("WriteAccounts: %v", err)
	}
	lines := strings.Fields(buf.String())
	if len(lines) != 2 || lines[0] != "1" || lines[1] != "2" {
		t.Fatalf("got lines %v, want [1 2]", lines)
	}
}

func TestWriteAccounts_CSVHasIDColumnAccountsourceCanParse(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteAccounts(&buf, FormatCSV, sampleAccounts()); err != nil {
		t.Fatalf("WriteAccounts: %v", err)
	}
	if !strings.HasPrefix(buf.String(), "id,region,") {
		t.Fatalf("csv header = %q, want it to start with id,region,", strings.SplitN(buf.String(), "\n", 2)[0])
	}
}

func TestWriteAccounts_JSONRoundTripsIDsAndRegion(t *testing.T) {
	var buf bytes.Buffer
	want := sampleAccounts()
	if err := WriteAccounts(&buf, FormatJSON, want); err != nil {
		t.Fatalf("WriteAccounts: %v", err)
	}
	if !strings.Contains(buf.String(), `"id": 1`) || !strings.Contains(buf.String(), `"region": "na"`) {
		t.Fatalf("json output missing expected fields: %s", buf.String())
	}
}
