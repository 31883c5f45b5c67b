package cli

import (
	"context"
	"testing"

	"github.com/Jylpah/blitzstats/internal/app"
	"github.com/Jylpah/blitzstats/internal/backend"
)

// noopBackend embeds backend.Backend (nil) so it satisfies the
// interface for tests that only exercise one method, following the
// pattern established for the dedupe/remap/snapshot pipeline tests.
type noopBackend struct {
	backend.Backend
}

func (noopBackend) EnsureSchema(ctx context.Context) error { return nil }

func TestRun_RejectsUnknownNoun(t *testing.T) {
	if err := Run(context.Background(), &app.Context{}, []string{"spaceships", "launch"}); err == nil {
		t.Fatal("expected error for unknown noun")
	}
}

func TestRun_RejectsEmptyArgs(t *testing.T) {
	if err := Run(context.Background(), &app.Context{}, nil); err == nil {
		t.Fatal("expected error for no arguments")
	}
}

func TestRun_RejectsMissingVerb(t *testing.T) {
	if err := Run(context.Background(), &app.Context{}, []string{"accounts"}); err == nil {
		t.Fatal("expected error for missing verb")
	}
}

func TestRun_SetupTakesNoVerb(t *testing.T) {
	a := &app.Context{Backend: &noopBackend{}}
	if err := Run(context.Background(), a, []string{"setup"}); err != nil {
		t.Fatalf("setup: %v", err)
	}
}
