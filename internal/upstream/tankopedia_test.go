package upstream

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Jylpah/blitzstats/internal/models"
)

func TestGetTankopediaPage_DecodesRowsAndPageTotal(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"ok","meta":{"page_total":3},"data":{
			"1": {"name":"T-34","nation":"ussr","tier":5,"type":"mediumTank","is_premium":false},
			"2": {"name":"Tiger I","nation":"germany","tier":7,"type":"heavyTank","is_premium":false}
		}}`))
	}))
	defer srv.Close()

	c := New(Config{WGAppID: "demo", WGBaseURL: srv.URL + "/%s"})
	tanks, pageTotal, err := c.GetTankopediaPage(context.Background(), models.Region("eu"), 1)
	if err != nil {
		t.Fatalf("GetTankopediaPage: %v", err)
	}
	if pageTotal != 3 {
		t.Errorf("page_total = %d, want 3", pageTotal)
	}
	if len(tanks) != 2 {
		t.Fatalf("got %d tanks, want 2", len(tanks))
	}
}

func TestGetTankopediaPage_ErrorStatusReturnsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"error","error":{"message":"INVALID_APPLICATION_ID"}}`))
	}))
	defer srv.Close()

	c := New(Config{WGAppID: "bad", WGBaseURL: srv.URL + "/%s"})
	if _, _, err := c.GetTankopediaPage(context.Background(), models.Region("eu"), 1); err == nil {
		t.Fatal("expected error for non-ok status")
	}
}
