package upstream

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Jylpah/blitzstats/internal/models"
)

func testConfig(wgURL, wivURL string) Config {
	return Config{
		WGAppID:               "demo",
		WGBaseURL:             wgURL + "/%s",
		WGRateLimit:           1000,
		WoTInspectorBaseURL:   wivURL,
		WoTInspectorRateLimit: 1000,
		HTTPTimeout:           2 * time.Second,
		MaxRetries:            1,
	}
}

func TestGetTankStats_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status":"ok","data":{"123":[
			{"tank_id":1,"last_battle_time":1700000000,"all":{"battles":10,"wins":6}}
		]}}`))
	}))
	defer srv.Close()

	c := New(testConfig(srv.URL, srv.URL))
	stats, err := c.GetTankStats(context.Background(), 123, models.RegionEU)
	if err != nil {
		t.Fatalf("GetTankStats: %v", err)
	}
	if len(stats) != 1 || stats[0].TankID != 1 || stats[0].Battles != 10 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
}

func TestGetTankStats_NoData(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		env := wgEnvelope{Status: "ok", Data: json.RawMessage(`{}`)}
		_ = json.NewEncoder(w).Encode(env)
	}))
	defer srv.Close()

	c := New(testConfig(srv.URL, srv.URL))
	stats, err := c.GetTankStats(context.Background(), 999, models.RegionEU)
	if err != nil {
		t.Fatalf("GetTankStats: %v", err)
	}
	if stats != nil {
		t.Fatalf("expected nil stats for no-data account, got %+v", stats)
	}
}

func TestGetTankStats_NotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := New(testConfig(srv.URL, srv.URL))
	stats, err := c.GetTankStats(context.Background(), 1, models.RegionEU)
	if err != nil {
		t.Fatalf("expected nil error on 404, got %v", err)
	}
	if stats != nil {
		t.Fatalf("expected nil stats, got %+v", stats)
	}
}

func TestGetTankStats_RetriesExhausted(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := New(testConfig(srv.URL, srv.URL))
	_, err := c.GetTankStats(context.Background(), 1, models.RegionEU)
	if err == nil {
		t.Fatal("expected error after retry exhaustion on a 5xx response")
	}
}

func TestParseReplayIDs(t *testing.T) {
	html := `<a href="/en/download/1a2b3c4d5e6f7890">replay</a> <a href="/en/download/deadbeefcafef00d">another</a>`
	ids := ParseReplayIDs(html)
	if len(ids) != 2 {
		t.Fatalf("expected 2 ids, got %d: %v", len(ids), ids)
	}
	if _, ok := ids["1a2b3c4d5e6f7890"]; !ok {
		t.Error("missing first id")
	}
}

func TestGetReplayJSON_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"summary":{"allies":[1,2],"enemies":[3]}}`))
	}))
	defer srv.Close()

	c := New(testConfig(srv.URL, srv.URL))
	replay, found, err := c.GetReplayJSON(context.Background(), "abc123")
	if err != nil {
		t.Fatalf("GetReplayJSON: %v", err)
	}
	if !found {
		t.Fatal("expected found=true")
	}
	ids := replay.PlayerIDs()
	if len(ids) != 3 {
		t.Fatalf("expected 3 player ids, got %v", ids)
	}
}

func TestGetReplayJSON_NotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := New(testConfig(srv.URL, srv.URL))
	_, found, err := c.GetReplayJSON(context.Background(), "missing")
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if found {
		t.Fatal("expected found=false")
	}
}
