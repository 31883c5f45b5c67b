package cli

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/Jylpah/blitzstats/internal/app"
	"github.com/Jylpah/blitzstats/internal/crawler"
	"github.com/Jylpah/blitzstats/internal/models"
	"github.com/Jylpah/blitzstats/internal/queue"
)

func runReplays(ctx context.Context, a *app.Context, verb string, args []string) error {
	switch verb {
	case "fetch", "update":
		return replaysFetch(ctx, a, args)
	case "export":
		return replaysExport(ctx, a, args)
	default:
		return fmt.Errorf("replays: unknown verb %q (want fetch or export)", verb)
	}
}

// replaysFetch crawls the replay listing and persists every replay
// found, discarding the discovered account stream (use `accounts fetch`
// to both crawl and register accounts in one pass).
func replaysFetch(ctx context.Context, a *app.Context, args []string) error {
	fs := flag.NewFlagSet("replays fetch", flag.ContinueOnError)
	startPage := fs.Int("start-page", 0, "first replay listing page")
	maxPages := fs.Int("max-pages", a.Config.WoT.MaxPages, "number of listing pages to crawl")
	maxOld := fs.Int("max-old-replays", 50, "stop early once this many already-seen replays are found")
	force := fs.Bool("force", false, "never stop early on the old-replays threshold")
	workers := fs.Int("workers", a.Config.WoT.Workers, "fetch worker count")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cr := crawler.New(crawler.Config{
		Backend:       a.Backend,
		Upstream:      a.Upstream,
		StartPage:     *startPage,
		MaxPages:      *maxPages,
		MaxOldReplays: *maxOld,
		Force:         *force,
		Workers:       *workers,
	})

	accountQ := queue.New[models.Account](200, false)
	drained := make(chan struct{})
	go func() {
		defer close(drained)
		for {
			_, err := accountQ.Get(ctx)
			if err != nil {
				return
			}
			accountQ.TaskDone()
		}
	}()

	stats, err := cr.Run(ctx, accountQ)
	<-drained
	if err != nil {
		return err
	}
	fmt.Print(stats.Report())
	return nil
}

func replaysExport(ctx context.Context, a *app.Context, args []string) error {
	fs := flag.NewFlagSet("replays export", flag.ContinueOnError)
	file := fs.String("file", "", "output json file")
	sample := fs.String("sample", "", "fraction (0,1) or absolute row count")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *file == "" {
		return fmt.Errorf("replays export: --file is required")
	}
	sam, err := parseSample(*sample)
	if err != nil {
		return err
	}

	ch, err := a.Backend.ReplaysExport(ctx, sam)
	if err != nil {
		return fmt.Errorf("replays export: %w", err)
	}
	var rows []models.Replay
	for res := range ch {
		if res.Err != nil {
			return fmt.Errorf("replays export: stream: %w", res.Err)
		}
		rows = append(rows, res.Value)
	}

	f, err := os.Create(*file)
	if err != nil {
		return err
	}
	defer f.Close()
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(rows); err != nil {
		return fmt.Errorf("replays export: write: %w", err)
	}
	fmt.Printf("wrote %d replays to %s\n", len(rows), *file)
	return nil
}
