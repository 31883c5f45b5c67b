// Package dedupe implements the duplicate analyzer and pruner (spec.md
// §4.10): for a given release window, find every row that is not the
// newest for its identity key and remove it. The phases are distinct and
// sequential (analyze -> check -> prune); the optional archive check runs
// inside prune before any delete. Analyze and prune append an
// UpdateLogEntry when they logged no errors; check appends none.
package dedupe
