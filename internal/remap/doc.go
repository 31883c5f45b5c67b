// Package remap implements the offline half of the release mapper
// (spec.md §4.9): stream existing rows, recompute the release each one
// should belong to under the current release table, and either report
// what would change (dry run) or persist the correction.
package remap
