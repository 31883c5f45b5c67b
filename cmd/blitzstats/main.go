// Command blitzstats is the single CLI binary: one noun per domain
// entity, each taking a sub-verb and its own flags. Global flags
// (--debug, --verbose, --silent, --log, --config, --backend) must
// precede the noun.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/Jylpah/blitzstats/internal/app"
	"github.com/Jylpah/blitzstats/internal/cli"
	"github.com/Jylpah/blitzstats/internal/config"
	"github.com/Jylpah/blitzstats/internal/logging"
	"github.com/Jylpah/blitzstats/internal/metrics"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	fs := flag.NewFlagSet("blitzstats", flag.ContinueOnError)
	debug := fs.Bool("debug", false, "set log level to debug")
	verbose := fs.Bool("verbose", false, "set log level to trace")
	silent := fs.Bool("silent", false, "suppress info/warn logging")
	logFile := fs.String("log", "", "also write logs to this file")
	configFile := fs.String("config", "", "INI config file path")
	backendFlag := fs.String("backend", "", "override the configured backend (mongodb, postgresql, or files)")
	metricsAddr := fs.String("metrics-addr", "", "if set, serve Prometheus metrics on this address (e.g. :9090)")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	if err := logging.Init(logging.Config{Debug: *debug, Verbose: *verbose, Silent: *silent, File: *logFile}); err != nil {
		fmt.Fprintf(os.Stderr, "blitzstats: init logging: %v\n", err)
		return 1
	}

	cfg, err := config.Load(*configFile)
	if err != nil {
		logging.Error().Err(err).Msg("blitzstats: load config")
		return 1
	}
	if *backendFlag != "" {
		cfg.General.Backend = *backendFlag
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	appCtx, err := app.New(ctx, cfg)
	if err != nil {
		logging.Error().Err(err).Msg("blitzstats: init")
		return 1
	}
	defer func() {
		if err := appCtx.Close(context.Background()); err != nil {
			logging.Warn().Err(err).Msg("blitzstats: close backend")
		}
	}()

	if *metricsAddr != "" {
		srv := metrics.Serve(ctx, *metricsAddr)
		defer srv.Close()
	}

	if err := cli.Run(ctx, appCtx, fs.Args()); err != nil {
		logging.Error().Err(err).Msg("blitzstats: command failed")
		return 1
	}
	return 0
}
