package crawler

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/Jylpah/blitzstats/internal/backend"
	"github.com/Jylpah/blitzstats/internal/models"
	"github.com/Jylpah/blitzstats/internal/queue"
	"github.com/Jylpah/blitzstats/internal/upstream"
)

type fakeBackend struct {
	backend.Backend
	mu      sync.Mutex
	seen    map[string]bool
	replays []models.Replay
}

func newFakeBackend(existing ...string) *fakeBackend {
	seen := make(map[string]bool, len(existing))
	for _, id := range existing {
		seen[id] = true
	}
	return &fakeBackend{seen: seen}
}

func (f *fakeBackend) ReplayGet(ctx context.Context, id string) (models.Replay, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.seen[id] {
		return models.Replay{ID: id}, true, nil
	}
	return models.Replay{}, false, nil
}

func (f *fakeBackend) ReplayInsert(ctx context.Context, r models.Replay) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.replays = append(f.replays, r)
	return nil
}

// testServer fakes WoTInspector: one listing page with listingIDs embedded
// as download links, and a JSON replay body for every id.
func testServer(t *testing.T, listingIDs []string) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/en/", func(w http.ResponseWriter, r *http.Request) {
		var sb strings.Builder
		for _, id := range listingIDs {
			sb.WriteString(fmt.Sprintf(`<a href="/en/download/%s">dl</a>`, id))
		}
		w.Write([]byte(sb.String()))
	})
	mux.HandleFunc("/api/replay/", func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimPrefix(r.URL.Path, "/api/replay/")
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"summary":{"allies":[%d],"enemies":[%d]}}`, 600_000_001, 600_000_002)
		_ = id
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestCrawler_DiscoversNewReplaysAndAccounts(t *testing.T) {
	ctx := context.Background()
	srv := testServer(t, []string{"aaaaaaaa", "bbbbbbbb"})

	up := upstream.New(upstream.Config{WoTInspectorBaseURL: srv.URL, WoTInspectorRateLimit: 1000})
	be := newFakeBackend() // nothing seen yet, both replays are new

	cr := New(Config{
		Backend: be, Upstream: up,
		StartPage: 1, MaxPages: 1, MaxOldReplays: 3,
		Workers: 2, QueueCapacity: 10,
	})

	accountQ := queue.New[models.Account](10, true)
	stats, err := cr.Run(ctx, accountQ)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got := stats.Get("replays enqueued"); got != 2 {
		t.Errorf("replays enqueued = %d, want 2", got)
	}
	if got := stats.Get("replays inserted"); got != 2 {
		t.Errorf("replays inserted = %d, want 2", got)
	}
	if got := stats.Get("accounts discovered"); got != 4 {
		t.Errorf("accounts discovered = %d, want 4", got)
	}
	if cr.State() != StateDraining {
		t.Errorf("state = %v, want Draining", cr.State())
	}
}

func TestCrawler_StopsOnOldReplaysThreshold(t *testing.T) {
	ctx := context.Background()
	srv := testServer(t, []string{"aaaaaaaa", "bbbbbbbb", "cccccccc"})

	up := upstream.New(upstream.Config{WoTInspectorBaseURL: srv.URL, WoTInspectorRateLimit: 1000})
	be := newFakeBackend("aaaaaaaa", "bbbbbbbb", "cccccccc") // all already known

	cr := New(Config{
		Backend: be, Upstream: up,
		StartPage: 1, MaxPages: 5, MaxOldReplays: 3, Force: false,
		Workers: 1, QueueCapacity: 10,
	})

	accountQ := queue.New[models.Account](10, true)
	stats, err := cr.Run(ctx, accountQ)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got := stats.Get("old replays"); got != 3 {
		t.Errorf("old replays = %d, want 3", got)
	}
	if got := stats.Get("pages fetched"); got != 1 {
		t.Errorf("pages fetched = %d, want 1 (should stop after first page)", got)
	}
	if got := stats.Get("replays enqueued"); got != 0 {
		t.Errorf("replays enqueued = %d, want 0", got)
	}
}

func TestCrawler_ForceIgnoresOldReplaysThreshold(t *testing.T) {
	ctx := context.Background()
	srv := testServer(t, []string{"aaaaaaaa"})

	up := upstream.New(upstream.Config{WoTInspectorBaseURL: srv.URL, WoTInspectorRateLimit: 1000})
	be := newFakeBackend("aaaaaaaa")

	cr := New(Config{
		Backend: be, Upstream: up,
		StartPage: 1, MaxPages: 3, MaxOldReplays: 1, Force: true,
		Workers: 1, QueueCapacity: 10,
	})

	accountQ := queue.New[models.Account](10, true)
	stats, err := cr.Run(ctx, accountQ)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got := stats.Get("pages fetched"); got != 3 {
		t.Errorf("pages fetched = %d, want 3 (force should ignore the threshold)", got)
	}
}
