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
	"github.com/Jylpah/blitzstats/internal/exportfmt/columnar"
	"github.com/Jylpah/blitzstats/internal/fetcher"
	"github.com/Jylpah/blitzstats/internal/models"
)

func runTankStats(ctx context.Context, a *app.Context, verb string, args []string) error {
	switch verb {
	case "update", "fetch":
		return tankStatsUpdate(ctx, a, args)
	case "export":
		return tankStatsExport(ctx, a, args)
	case "export-data":
		return tankStatsExportData(ctx, a, args)
	case "import":
		return tankStatsImport(ctx, a, args)
	case "prune":
		return tankStatsPrune(ctx, a, args)
	default:
		return fmt.Errorf("tank-stats: unknown verb %q (want update, export, export-data, import, or prune)", verb)
	}
}

func tankStatsUpdate(ctx context.Context, a *app.Context, args []string) error {
	fs := flag.NewFlagSet("tank-stats update", flag.ContinueOnError)
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

	stats, err := fetcher.RunTankStats(ctx, a.Upstream, a.Backend, mapper, *workers, accountQ, total)
	if err != nil {
		return err
	}
	if err := <-srcErr; err != nil {
		return fmt.Errorf("tank-stats update: account source: %w", err)
	}
	fmt.Print(stats.Report())
	return nil
}

func tankStatsExport(ctx context.Context, a *app.Context, args []string) error {
	fs := flag.NewFlagSet("tank-stats export", flag.ContinueOnError)
	file := fs.String("file", a.Config.TankStats.ExportFile, "output file")
	format := fs.String("format", a.Config.TankStats.ExportFormat, "txt, csv, or json")
	release := fs.String("release", "", "release filter, empty for all")
	region := fs.String("region", "", "comma-separated region filter")
	tanks := fs.String("tanks", "", "comma-separated tank id filter")
	sample := fs.String("sample", "", "fraction (0,1) or absolute row count")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *file == "" {
		return fmt.Errorf("tank-stats export: --file is required")
	}
	regions, err := parseRegions(*region)
	if err != nil {
		return err
	}
	tankIDs, err := parseTankIDs(*tanks)
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

	ch, err := a.Backend.TankStatsGet(ctx, backend.StatsFilters{
		Release: *release, Regions: regions, Tanks: tankIDs, Sample: sam,
	}, backend.SortNone)
	if err != nil {
		return fmt.Errorf("tank-stats export: %w", err)
	}
	var rows []models.TankStat
	for res := range ch {
		if res.Err != nil {
			return fmt.Errorf("tank-stats export: stream: %w", res.Err)
		}
		rows = append(rows, res.Value)
	}

	f, err := os.Create(*file)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := exportfmt.WriteTankStats(f, fmtVal, rows); err != nil {
		return fmt.Errorf("tank-stats export: write: %w", err)
	}
	fmt.Printf("wrote %d tank stats to %s\n", len(rows), *file)
	return nil
}

// tankStatsExportData writes the columnar binary format, one
// per-(release,tank) file under --dir, for downstream analytics jobs
// spec.md §4.9 describes as a separate surface from the text export.
func tankStatsExportData(ctx context.Context, a *app.Context, args []string) error {
	fs := flag.NewFlagSet("tank-stats export-data", flag.ContinueOnError)
	dir := fs.String("dir", a.Config.TankStats.ExportDataFile, "output directory")
	release := fs.String("release", "", "release filter, empty for all")
	region := fs.String("region", "", "comma-separated region filter")
	sample := fs.String("sample", "", "fraction (0,1) or absolute row count")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *dir == "" {
		return fmt.Errorf("tank-stats export-data: --dir is required")
	}
	regions, err := parseRegions(*region)
	if err != nil {
		return err
	}
	sam, err := parseSample(*sample)
	if err != nil {
		return err
	}

	ch, err := a.Backend.TankStatsGet(ctx, backend.StatsFilters{Release: *release, Regions: regions, Sample: sam}, backend.SortNone)
	if err != nil {
		return fmt.Errorf("tank-stats export-data: %w", err)
	}
	var rows []models.TankStat
	for res := range ch {
		if res.Err != nil {
			return fmt.Errorf("tank-stats export-data: stream: %w", res.Err)
		}
		rows = append(rows, res.Value)
	}

	if err := os.MkdirAll(*dir, 0o755); err != nil {
		return err
	}
	files, err := columnar.WriteTankStats(*dir, rows)
	if err != nil {
		return fmt.Errorf("tank-stats export-data: %w", err)
	}
	fmt.Printf("wrote %d tank stats across %d files under %s\n", len(rows), len(files), *dir)
	return nil
}

func tankStatsImport(ctx context.Context, a *app.Context, args []string) error {
	fs := flag.NewFlagSet("tank-stats import", flag.ContinueOnError)
	file := fs.String("file", "", "input file (.txt, .csv, or .json)")
	force := fs.Bool("force", false, "overwrite rows that already exist")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *file == "" {
		return fmt.Errorf("tank-stats import: --file is required")
	}
	rows, err := exportfmt.ReadTankStatsFile(*file)
	if err != nil {
		return fmt.Errorf("tank-stats import: %w", err)
	}
	inserted, skipped, err := a.Backend.TankStatsInsert(ctx, rows, *force)
	if err != nil {
		return fmt.Errorf("tank-stats import: %w", err)
	}
	fmt.Printf("tank stats inserted: %d, already known: %d\n", inserted, skipped)
	return nil
}

// tankStatsPrune runs the full analyze -> check -> prune dedupe pipeline
// over the tank stats collection.
func tankStatsPrune(ctx context.Context, a *app.Context, args []string) error {
	fs := flag.NewFlagSet("tank-stats prune", flag.ContinueOnError)
	release := fs.String("release", "", "release filter, empty for all")
	region := fs.String("region", "", "comma-separated region filter")
	tanks := fs.String("tanks", "", "comma-separated tank id filter")
	archive := fs.Bool("archive", false, "scan the archive collection instead of the hot one")
	archiveCheck := fs.Bool("archive-check", true, "require archive presence before deleting")
	if err := fs.Parse(args); err != nil {
		return err
	}
	regions, err := parseRegions(*region)
	if err != nil {
		return err
	}
	tankIDs, err := parseTankIDs(*tanks)
	if err != nil {
		return err
	}

	partitions := dedupe.Shuffle(dedupe.BuildTankPartitions(0, tankIDs), 1)
	analyzeStats, err := dedupe.AnalyzeTankStats(ctx, dedupe.AnalyzeConfig{
		Backend: a.Backend, Release: *release, Regions: regions, Partitions: partitions, Archive: *archive,
	})
	if err != nil {
		return fmt.Errorf("tank-stats prune: analyze: %w", err)
	}
	fmt.Print(analyzeStats.Report())

	statsType := models.NewStatsToDeleteType(models.StatsKindTankStats, *archive)
	candidates, checkStats, err := dedupe.CheckTankStats(ctx, dedupe.CheckConfig{Backend: a.Backend, StatsType: statsType})
	if err != nil {
		return fmt.Errorf("tank-stats prune: check: %w", err)
	}
	fmt.Print(checkStats.Report())

	pruneStats, err := dedupe.PruneTankStats(ctx, dedupe.PruneConfig{
		Backend: a.Backend, StatsType: statsType, ArchiveCheck: *archiveCheck,
	}, candidates)
	if err != nil {
		return fmt.Errorf("tank-stats prune: prune: %w", err)
	}
	fmt.Print(pruneStats.Report())
	return nil
}
