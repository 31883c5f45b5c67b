//go:build integration

package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/Jylpah/blitzstats/internal/models"
)

// Usage: go test -tags integration -run TestBackend_Integration ./internal/backend/postgres/...
func TestBackend_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	container, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("blitzstats"),
		tcpostgres.WithUsername("blitzstats"),
		tcpostgres.WithPassword("blitzstats"),
		testcontainers.WithWaitStrategy(wait.ForLog("database system is ready to accept connections").WithOccurrence(2)),
	)
	if err != nil {
		t.Fatalf("start postgres container: %v", err)
	}
	defer func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("warning: failed to terminate container: %v", err)
		}
	}()

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("connection string: %v", err)
	}

	b, err := Open(ctx, dsn)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer b.Close(ctx)

	if err := b.EnsureSchema(ctx); err != nil {
		t.Fatalf("EnsureSchema: %v", err)
	}

	acct, err := models.NewAccount(1, time.Now().Unix())
	if err != nil {
		t.Fatalf("NewAccount: %v", err)
	}
	inserted, skipped, err := b.AccountsInsert(ctx, []models.Account{acct})
	if err != nil {
		t.Fatalf("AccountsInsert: %v", err)
	}
	if inserted != 1 || skipped != 0 {
		t.Fatalf("AccountsInsert = (%d, %d), want (1, 0)", inserted, skipped)
	}

	got, err := b.AccountGet(ctx, acct.ID)
	if err != nil {
		t.Fatalf("AccountGet: %v", err)
	}
	if got.ID != acct.ID || got.Region != acct.Region {
		t.Fatalf("AccountGet = %+v, want %+v", got, acct)
	}

	// Re-inserting the same account is a no-op, matching the idempotent
	// batch-insert contract every Backend driver shares.
	inserted, skipped, err = b.AccountsInsert(ctx, []models.Account{acct})
	if err != nil {
		t.Fatalf("AccountsInsert (dup): %v", err)
	}
	if inserted != 0 || skipped != 1 {
		t.Fatalf("AccountsInsert (dup) = (%d, %d), want (0, 1)", inserted, skipped)
	}
}
