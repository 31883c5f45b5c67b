// Package cli implements the verb/noun command surface: one noun per
// domain entity (accounts, tank-stats, player-achievements, replays,
// tankopedia, releases, setup), each taking a sub-verb and its own flag
// set. Run is the single entry point main calls after building an
// app.Context.
package cli
