package app

import (
	"context"
	"testing"

	"github.com/Jylpah/blitzstats/internal/config"
)

func TestOpenBackend_RejectsUnknownName(t *testing.T) {
	cfg := &config.Config{}
	cfg.General.Backend = "oracle"

	if _, err := openBackend(context.Background(), cfg); err == nil {
		t.Fatal("expected error for unrecognized backend name")
	}
}

func TestContext_CloseIsSafeWithNilBackend(t *testing.T) {
	c := &Context{}
	if err := c.Close(context.Background()); err != nil {
		t.Fatalf("Close on nil backend field: %v", err)
	}
}
