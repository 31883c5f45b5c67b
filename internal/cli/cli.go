package cli

import (
	"context"
	"fmt"

	"github.com/Jylpah/blitzstats/internal/app"
)

// nounRun is the signature every noun file implements: verb is the
// sub-command (e.g. "update", "export"), args is everything after it.
type nounRun func(ctx context.Context, a *app.Context, verb string, args []string) error

var nouns = map[string]nounRun{
	"accounts":            runAccounts,
	"tank-stats":          runTankStats,
	"player-achievements": runPlayerAchievements,
	"replays":             runReplays,
	"tankopedia":          runTankopedia,
	"releases":            runReleases,
	"setup":               runSetup,
}

// Run dispatches args[0] (the noun) and args[1] (the sub-verb, where
// applicable) to the matching command. It is the sole entry point main
// calls once global flags have been stripped off args.
func Run(ctx context.Context, a *app.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: blitzstats <accounts|tank-stats|player-achievements|replays|tankopedia|releases|setup> <verb> [flags]")
	}

	noun := args[0]
	fn, ok := nouns[noun]
	if !ok {
		return fmt.Errorf("unknown command %q", noun)
	}

	var verb string
	rest := args[1:]
	if noun != "setup" {
		if len(rest) == 0 {
			return fmt.Errorf("%s: missing verb", noun)
		}
		verb = rest[0]
		rest = rest[1:]
	}

	return fn(ctx, a, verb, rest)
}
