package cli

import "testing"

func TestParseRegions_SplitsAndValidates(t *testing.T) {
	got, err := parseRegions("eu, com")
	if err != nil {
		t.Fatalf("parseRegions: %v", err)
	}
	if len(got) != 2 || got[0] != "eu" || got[1] != "com" {
		t.Errorf("got %v", got)
	}
	if _, err := parseRegions("atlantis"); err == nil {
		t.Error("expected error for unknown region")
	}
	if got, err := parseRegions(""); err != nil || got != nil {
		t.Errorf("empty input should return nil, nil; got %v, %v", got, err)
	}
}

func TestParseSample_FractionAndAbsolute(t *testing.T) {
	s, err := parseSample("0.5")
	if err != nil || !s.IsFraction() {
		t.Fatalf("parseSample(0.5): %v, %+v", err, s)
	}
	s, err = parseSample("100")
	if err != nil || s.IsFraction() {
		t.Fatalf("parseSample(100): %v, %+v", err, s)
	}
	if _, err := parseSample("-1"); err == nil {
		t.Error("expected error for negative sample")
	}
}

func TestParseDistributed_ValidatesShardBounds(t *testing.T) {
	d, err := parseDistributed("1:4")
	if err != nil || d.I != 1 || d.N != 4 {
		t.Fatalf("parseDistributed(1:4): %v, %+v", err, d)
	}
	for _, bad := range []string{"4:4", "-1:4", "abc", "1"} {
		if _, err := parseDistributed(bad); err == nil {
			t.Errorf("parseDistributed(%q): expected error", bad)
		}
	}
}

func TestParseAccountIDs_SkipsBlanksAndRejectsBadIDs(t *testing.T) {
	got, err := parseAccountIDs("1, 2,,3")
	if err != nil {
		t.Fatalf("parseAccountIDs: %v", err)
	}
	if len(got) != 3 || got[2] != 3 {
		t.Errorf("got %v", got)
	}
	if _, err := parseAccountIDs("1,x"); err == nil {
		t.Error("expected error for non-numeric id")
	}
}

func TestResolveFormat_ExplicitWinsOverExtension(t *testing.T) {
	f, err := resolveFormat("out.csv", "json")
	if err != nil || f != "json" {
		t.Fatalf("resolveFormat: %v, %v", err, f)
	}
	f, err = resolveFormat("out.csv", "")
	if err != nil || f != "csv" {
		t.Fatalf("resolveFormat fallback: %v, %v", err, f)
	}
}
