package cli

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/Jylpah/blitzstats/internal/accountsource"
	"github.com/Jylpah/blitzstats/internal/app"
	"github.com/Jylpah/blitzstats/internal/backend"
	"github.com/Jylpah/blitzstats/internal/dedupe"
	"github.com/Jylpah/blitzstats/internal/exportfmt"
	"github.com/Jylpah/blitzstats/internal/fetcher"
	"github.com/Jylpah/blitzstats/internal/models"
)

func runPlayerAchievements(ctx context.Context, a *app.Context, verb string, args []string) error {
	switch verb {
	case "update", "fetch":
		return achievementsUpdate(ctx, a, args)
	case "export":
		return achievementsExport(ctx, a, args)
	case "import":
		return achievementsImport(ctx, a, args)
	case "prune":
		return achievementsPrune(ctx, a, args)
	default:
		return fmt.Errorf("player-achievements: unknown verb %q (want update, export, import, or prune)", verb)
	}
}

func achievementsUpdate(ctx context.Context, a *app.Context, args []string) error {
	fs := flag.NewFlagSet("player-achievements update", flag.ContinueOnError)
	accountsFlag := fs.String("accounts", "", "comma-separated explicit account ids")
	file := fs.String("file", "", "account id file (.txt, .csv, or .json)")
	region := fs.String("region", "", "comma-separated region filter (backend source only)")
	workers := fs.Int("workers", a.Config.WG.APIWorkers, "fetch worker ceiling")
	if err := fs.Parse(args); err != nil {
		return err
	}
	ids, err := parseAccountIDs(*accountsFlag)
	if err != nil {
		return err
	}
	regions, err := parseRegions(*region)
	if err != nil {
		return err
	}

	mapper, err := buildMapper(ctx, a.Backend)
	if err != nil {
		return err
	}

	accountQ, total, srcErr := streamAccounts(ctx, a, accountsource.Options{
		Accounts: ids,
		File:     *file,
		Backend:  a.Backend,
		Filters:  backend.AccountFilters{Regions: regions},
	})

	stats, err := fetcher.RunPlayerAchievements(ctx, a.Upstream, a.Backend, mapper, *workers, accountQ, total)
	if err != nil {
		return err
	}
	if err := <-srcErr; err != nil {
		return fmt.Errorf("player-achievements update: account source: %w", err)
	}
	fmt.Print(stats.Report())
	return nil
}

func achievementsExport(ctx context.Context, a *app.Context, args []string) error {
	fs := flag.NewFlagSet("player-achievements export", flag.ContinueOnError)
	file := fs.String("file", "", "output file")
	format := fs.String("format", "", "txt, csv, or json")
	release := fs.String("release", "", "release filter, empty for all")
	region := fs.String("region", "", "comma-separated region filter")
	sample := fs.String("sample", "", "fraction (0,1) or absolute row count")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *file == "" {
		return fmt.Errorf("player-achievements export: --file is required")
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

	ch, err := a.Backend.AchievementsGet(ctx, backend.StatsFilters{Release: *release, Regions: regions, Sample: sam}, backend.SortNone)
	if err != nil {
		return fmt.Errorf("player-achievements export: %w", err)
	}
	var rows []models.PlayerAchievement
	for res := range ch {
		if res.Err != nil {
			return fmt.Errorf("player-achievements export: stream: %w", res.Err)
		}
		rows = append(rows, res.Value)
	}

	f, err := os.Create(*file)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := exportfmt.WriteAchievements(f, fmtVal, rows); err != nil {
		return fmt.Errorf("player-achievements export: write: %w", err)
	}
	fmt.Printf("wrote %d player achievements to %s\n", len(rows), *file)
	return nil
}

func achievementsImport(ctx context.Context, a *app.Context, args []string) error {
	fs := flag.NewFlagSet("player-achievements import", flag.ContinueOnError)
	file := fs.String("file", "", "input file (.txt, .csv, or .json)")
	force := fs.Bool("force", false, "overwrite rows that already exist")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *file == "" {
		return fmt.Errorf("player-achievements import: --file is required")
	}
	rows, err := exportfmt.ReadAchievementsFile(*file)
	if err != nil {
		return fmt.Errorf("player-achievements import: %w", err)
	}
	inserted, skipped, err := a.Backend.AchievementsInsert(ctx, rows, *force)
	if err != nil {
		return fmt.Errorf("player-achievements import: %w", err)
	}
	fmt.Printf("player achievements inserted: %d, already known: %d\n", inserted, skipped)
	return nil
}

func achievementsPrune(ctx context.Context, a *app.Context, args []string) error {
	fs := flag.NewFlagSet("player-achievements prune", flag.ContinueOnError)
	release := fs.String("release", "", "release filter, empty for all")
	region := fs.String("region", "", "comma-separated region filter")
	archive := fs.Bool("archive", false, "scan the archive collection instead of the hot one")
	archiveCheck := fs.Bool("archive-check", true, "require archive presence before deleting")
	if err := fs.Parse(args); err != nil {
		return err
	}
	regions, err := parseRegions(*region)
	if err != nil {
		return err
	}

	partitions := dedupe.Shuffle(dedupe.BuildAccountRanges(0), 1)
	analyzeStats, err := dedupe.AnalyzeAchievements(ctx, dedupe.AnalyzeConfig{
		Backend: a.Backend, Release: *release, Regions: regions, Partitions: partitions, Archive: *archive,
	})
	if err != nil {
		return fmt.Errorf("player-achievements prune: analyze: %w", err)
	}
	fmt.Print(analyzeStats.Report())

	statsType := models.NewStatsToDeleteType(models.StatsKindPlayerAchievement, *archive)
	candidates, checkStats, err := dedupe.CheckAchievements(ctx, dedupe.CheckConfig{Backend: a.Backend, StatsType: statsType})
	if err != nil {
		return fmt.Errorf("player-achievements prune: check: %w", err)
	}
	fmt.Print(checkStats.Report())

	pruneStats, err := dedupe.PruneAchievements(ctx, dedupe.PruneConfig{
		Backend: a.Backend, StatsType: statsType, ArchiveCheck: *archiveCheck,
	}, candidates)
	if err != nil {
		return fmt.Errorf("player-achievements prune: prune: %w", err)
	}
	fmt.Print(pruneStats.Report())
	return nil
}
