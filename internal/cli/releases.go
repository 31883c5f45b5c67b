package cli

import (
	"context"
	"flag"
	"fmt"

	"github.com/Jylpah/blitzstats/internal/app"
	"github.com/Jylpah/blitzstats/internal/models"
)

func runReleases(ctx context.Context, a *app.Context, verb string, args []string) error {
	switch verb {
	case "add", "edit":
		return releasesAdd(ctx, a, args)
	case "export":
		return releasesExport(ctx, a, args)
	default:
		return fmt.Errorf("releases: unknown verb %q (want add, edit, or export)", verb)
	}
}

// releasesAdd inserts or edits one release. Both verbs map to the same
// upsert: "edit" is just "add" applied to an existing release string.
func releasesAdd(ctx context.Context, a *app.Context, args []string) error {
	fs := flag.NewFlagSet("releases add", flag.ContinueOnError)
	release := fs.String("release", "", "release string, e.g. 1.20")
	launch := fs.Int64("launch-time", 0, "unix seconds this release's window starts")
	cutoff := fs.Int64("cutoff-time", 0, "unix seconds this release's window ends")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *release == "" {
		return fmt.Errorf("releases add: --release is required")
	}
	if _, _, err := models.ParseReleaseVersion(*release); err != nil {
		return fmt.Errorf("releases add: %w", err)
	}
	if *cutoff <= *launch {
		return fmt.Errorf("releases add: --cutoff-time must be after --launch-time")
	}

	r := models.Release{Release: *release, LaunchTime: *launch, CutoffTime: *cutoff}
	if err := a.Backend.ReleaseUpsert(ctx, r); err != nil {
		return fmt.Errorf("releases add: %w", err)
	}
	fmt.Printf("release %s: launch=%d cutoff=%d\n", r.Release, r.LaunchTime, r.CutoffTime)
	return nil
}

func releasesExport(ctx context.Context, a *app.Context, args []string) error {
	fs := flag.NewFlagSet("releases export", flag.ContinueOnError)
	file := fs.String("file", "", "output json file")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *file == "" {
		return fmt.Errorf("releases export: --file is required")
	}

	rows, err := a.Backend.ReleasesGet(ctx)
	if err != nil {
		return fmt.Errorf("releases export: %w", err)
	}
	if err := writeJSONFile(*file, rows); err != nil {
		return fmt.Errorf("releases export: write: %w", err)
	}
	fmt.Printf("wrote %d releases to %s\n", len(rows), *file)
	return nil
}
