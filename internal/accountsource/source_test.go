package accountsource

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/Jylpah/blitzstats/internal/models"
	"github.com/Jylpah/blitzstats/internal/queue"
)

func drain(t *testing.T, q *queue.Queue[models.Account]) []models.Account {
	t.Helper()
	var out []models.Account
	ctx := context.Background()
	for {
		a, err := q.Get(ctx)
		if err != nil {
			return out
		}
		q.TaskDone()
		out = append(out, a)
	}
}

func TestCompose_ExplicitAccounts(t *testing.T) {
	q := queue.New[models.Account](8, true)
	stats, err := Compose(context.Background(), q, Options{Accounts: []int64{600_000_000, 1_500_000_000}})
	if err != nil {
		t.Fatalf("Compose: %v", err)
	}
	got := drain(t, q)
	if len(got) != 2 {
		t.Fatalf("expected 2 accounts, got %d", len(got))
	}
	if stats.Get("read") != 2 {
		t.Errorf("read = %d, want 2", stats.Get("read"))
	}
}

func TestCompose_File_Txt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ids.txt")
	if err := os.WriteFile(path, []byte("600000000\n1500000000\n\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	q := queue.New[models.Account](8, true)
	if _, err := Compose(context.Background(), q, Options{File: path}); err != nil {
		t.Fatalf("Compose: %v", err)
	}
	got := drain(t, q)
	if len(got) != 2 {
		t.Fatalf("expected 2 accounts, got %d", len(got))
	}
}

func TestCompose_File_CSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ids.csv")
	content := "id,region\n600000000,eu\n2100000000,asia\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	q := queue.New[models.Account](8, true)
	if _, err := Compose(context.Background(), q, Options{File: path}); err != nil {
		t.Fatalf("Compose: %v", err)
	}
	got := drain(t, q)
	if len(got) != 2 {
		t.Fatalf("expected 2 accounts, got %d", len(got))
	}
}

func TestCompose_File_JSON_IDList(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ids.json")
	if err := os.WriteFile(path, []byte(`[600000000, 1500000000]`), 0o644); err != nil {
		t.Fatal(err)
	}
	q := queue.New[models.Account](8, true)
	if _, err := Compose(context.Background(), q, Options{File: path}); err != nil {
		t.Fatalf("Compose: %v", err)
	}
	got := drain(t, q)
	if len(got) != 2 {
		t.Fatalf("expected 2 accounts, got %d", len(got))
	}
}

func TestCompose_File_JSON_Objects(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ids.json")
	if err := os.WriteFile(path, []byte(`[{"id":600000000,"region":"eu"}]`), 0o644); err != nil {
		t.Fatal(err)
	}
	q := queue.New[models.Account](8, true)
	if _, err := Compose(context.Background(), q, Options{File: path}); err != nil {
		t.Fatalf("Compose: %v", err)
	}
	got := drain(t, q)
	if len(got) != 1 || got[0].Region != models.RegionEU {
		t.Fatalf("unexpected result: %+v", got)
	}
}

func TestCompose_UnsupportedExtension(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ids.xml")
	if err := os.WriteFile(path, []byte("600000000"), 0o644); err != nil {
		t.Fatal(err)
	}
	q := queue.New[models.Account](8, true)
	if _, err := Compose(context.Background(), q, Options{File: path}); err == nil {
		t.Fatal("expected error for unsupported file extension")
	}
}

func TestCompose_NoSource(t *testing.T) {
	q := queue.New[models.Account](8, true)
	if _, err := Compose(context.Background(), q, Options{}); err == nil {
		t.Fatal("expected error when no source is given")
	}
}

func TestSplitByRegion(t *testing.T) {
	src := queue.New[models.Account](8, true)
	src.AddProducer()

	euAccount, _ := models.NewAccount(600_000_000, 0)
	asiaAccount, _ := models.NewAccount(2_100_000_000, 0)
	ruAccount, _ := models.NewAccount(1, 0)

	ctx := context.Background()
	_ = src.Put(ctx, euAccount)
	_ = src.Put(ctx, asiaAccount)
	_ = src.Put(ctx, ruAccount) // no destination queue for ru below
	src.Finish()

	dst := map[models.Region]*queue.Queue[models.Account]{
		models.RegionEU:   queue.New[models.Account](4, true),
		models.RegionAsia: queue.New[models.Account](4, true),
	}

	stats, err := SplitByRegion(ctx, src, dst)
	if err != nil {
		t.Fatalf("SplitByRegion: %v", err)
	}
	if got := drain(t, dst[models.RegionEU]); len(got) != 1 {
		t.Fatalf("eu queue: got %d accounts", len(got))
	}
	if got := drain(t, dst[models.RegionAsia]); len(got) != 1 {
		t.Fatalf("asia queue: got %d accounts", len(got))
	}
	if stats.Get("excluded region: ru") != 1 {
		t.Errorf("expected 1 excluded ru account, got %d", stats.Get("excluded region: ru"))
	}
}
