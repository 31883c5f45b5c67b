package cli

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/Jylpah/blitzstats/internal/accountsource"
	"github.com/Jylpah/blitzstats/internal/app"
	"github.com/Jylpah/blitzstats/internal/backend"
	"github.com/Jylpah/blitzstats/internal/crawler"
	"github.com/Jylpah/blitzstats/internal/exportfmt"
	"github.com/Jylpah/blitzstats/internal/logging"
	"github.com/Jylpah/blitzstats/internal/models"
	"github.com/Jylpah/blitzstats/internal/queue"
)

func runAccounts(ctx context.Context, a *app.Context, verb string, args []string) error {
	switch verb {
	case "fetch", "update":
		return accountsFetch(ctx, a, args)
	case "export":
		return accountsExport(ctx, a, args)
	case "import":
		return accountsImport(ctx, a, args)
	case "remove":
		return accountsRemove(ctx, a, args)
	default:
		return fmt.Errorf("accounts: unknown verb %q (want fetch, export, import, or remove)", verb)
	}
}

// accountsFetch runs one crawl session, discovering accounts from the
// replay listing and inserting them into the backend.
func accountsFetch(ctx context.Context, a *app.Context, args []string) error {
	fs := flag.NewFlagSet("accounts fetch", flag.ContinueOnError)
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
	done := make(chan struct{})
	var insertStats struct{ inserted, skipped int }
	go func() {
		defer close(done)
		for {
			acc, err := accountQ.Get(ctx)
			if err != nil {
				return
			}
			ins, skip, err := a.Backend.AccountsInsert(ctx, []models.Account{acc})
			if err != nil {
				logging.Warn().Int64("account_id", acc.ID).Err(err).Msg("failed to insert discovered account")
			}
			insertStats.inserted += ins
			insertStats.skipped += skip
			accountQ.TaskDone()
		}
	}()

	stats, err := cr.Run(ctx, accountQ)
	<-done
	if err != nil {
		return err
	}
	fmt.Print(stats.Report())
	fmt.Printf("accounts inserted: %d, already known: %d\n", insertStats.inserted, insertStats.skipped)
	return nil
}

func accountsExport(ctx context.Context, a *app.Context, args []string) error {
	fs := flag.NewFlagSet("accounts export", flag.ContinueOnError)
	file := fs.String("file", a.Config.Accounts.ExportFile, "output file (extension selects format unless --format is given)")
	format := fs.String("format", a.Config.Accounts.ExportFormat, "txt, csv, or json")
	region := fs.String("region", "", "comma-separated region filter")
	sample := fs.String("sample", "", "fraction (0,1) or absolute row count")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *file == "" {
		return fmt.Errorf("accounts export: --file is required")
	}

	regions, err := parseRegions(*region)
	if err != nil {
		return err
	}
	sam, err := parseSample(*sample)
	if err != nil {
		return err
	}

	fmtVal, err := resolveFormat(*file, *format)
	if err != nil {
		return err
	}

	ch, err := a.Backend.AccountsGet(ctx, backend.AccountFilters{Regions: regions, Sample: sam})
	if err != nil {
		return fmt.Errorf("accounts export: %w", err)
	}
	var rows []models.Account
	for res := range ch {
		if res.Err != nil {
			return fmt.Errorf("accounts export: stream: %w", res.Err)
		}
		rows = append(rows, res.Value)
	}

	f, err := os.Create(*file)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := exportfmt.WriteAccounts(f, fmtVal, rows); err != nil {
		return fmt.Errorf("accounts export: write: %w", err)
	}
	fmt.Printf("wrote %d accounts to %s\n", len(rows), *file)
	return nil
}

func accountsImport(ctx context.Context, a *app.Context, args []string) error {
	fs := flag.NewFlagSet("accounts import", flag.ContinueOnError)
	file := fs.String("file", "", "input file (.txt, .csv, or .json)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *file == "" {
		return fmt.Errorf("accounts import: --file is required")
	}

	rows, err := accountsource.ParseFile(*file)
	if err != nil {
		return fmt.Errorf("accounts import: %w", err)
	}
	inserted, skipped, err := a.Backend.AccountsInsert(ctx, rows)
	if err != nil {
		return fmt.Errorf("accounts import: %w", err)
	}
	fmt.Printf("accounts inserted: %d, already known: %d\n", inserted, skipped)
	return nil
}

func accountsRemove(ctx context.Context, a *app.Context, args []string) error {
	fs := flag.NewFlagSet("accounts remove", flag.ContinueOnError)
	accounts := fs.String("accounts", "", "comma-separated account ids to remove")
	if err := fs.Parse(args); err != nil {
		return err
	}
	ids, err := parseAccountIDs(*accounts)
	if err != nil {
		return err
	}
	if len(ids) == 0 {
		return fmt.Errorf("accounts remove: --accounts is required")
	}
	n, err := a.Backend.AccountsDelete(ctx, ids)
	if err != nil {
		return fmt.Errorf("accounts remove: %w", err)
	}
	fmt.Printf("accounts removed: %d\n", n)
	return nil
}
