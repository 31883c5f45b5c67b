package cli

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/Jylpah/blitzstats/internal/app"
	"github.com/Jylpah/blitzstats/internal/models"
)

func runTankopedia(ctx context.Context, a *app.Context, verb string, args []string) error {
	switch verb {
	case "update", "fetch":
		return tankopediaUpdate(ctx, a, args)
	case "export":
		return tankopediaExport(ctx, a, args)
	case "import":
		return tankopediaImport(ctx, a, args)
	default:
		return fmt.Errorf("tankopedia: unknown verb %q (want update, export, or import)", verb)
	}
}

// tankopediaUpdate pages through the WG vehicle encyclopedia for one
// region until page_total is exhausted, upserting every tank found.
func tankopediaUpdate(ctx context.Context, a *app.Context, args []string) error {
	fs := flag.NewFlagSet("tankopedia update", flag.ContinueOnError)
	region := fs.String("region", "eu", "WG region to fetch the encyclopedia from")
	if err := fs.Parse(args); err != nil {
		return err
	}

	var all []models.Tank
	for page := 1; ; page++ {
		tanks, pageTotal, err := a.Upstream.GetTankopediaPage(ctx, models.Region(*region), page)
		if err != nil {
			return fmt.Errorf("tankopedia update: page %d: %w", page, err)
		}
		all = append(all, tanks...)
		if page >= pageTotal {
			break
		}
	}

	n, err := a.Backend.TankopediaUpsert(ctx, all)
	if err != nil {
		return fmt.Errorf("tankopedia update: %w", err)
	}
	fmt.Printf("tanks upserted: %d\n", n)
	return nil
}

func tankopediaExport(ctx context.Context, a *app.Context, args []string) error {
	fs := flag.NewFlagSet("tankopedia export", flag.ContinueOnError)
	file := fs.String("file", "", "output json file")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *file == "" {
		return fmt.Errorf("tankopedia export: --file is required")
	}

	// TankopediaGetMany takes explicit ids; every backend driver treats a
	// nil slice as "every tank".
	tanks, err := a.Backend.TankopediaGetMany(ctx, nil)
	if err != nil {
		return fmt.Errorf("tankopedia export: %w", err)
	}
	if err := writeJSONFile(*file, tanks); err != nil {
		return fmt.Errorf("tankopedia export: write: %w", err)
	}
	fmt.Printf("wrote %d tanks to %s\n", len(tanks), *file)
	return nil
}

func tankopediaImport(ctx context.Context, a *app.Context, args []string) error {
	fs := flag.NewFlagSet("tankopedia import", flag.ContinueOnError)
	file := fs.String("file", "", "input json file")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *file == "" {
		return fmt.Errorf("tankopedia import: --file is required")
	}

	data, err := os.ReadFile(*file)
	if err != nil {
		return err
	}
	var tanks []models.Tank
	if err := json.Unmarshal(data, &tanks); err != nil {
		return fmt.Errorf("tankopedia import: decode: %w", err)
	}
	n, err := a.Backend.TankopediaUpsert(ctx, tanks)
	if err != nil {
		return fmt.Errorf("tankopedia import: %w", err)
	}
	fmt.Printf("tanks upserted: %d\n", n)
	return nil
}

func writeJSONFile(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
