// Package exportfmt reads and writes TankStat and PlayerAchievement rows
// in the three text formats spec.md §6 recognizes, auto-detected by file
// extension: colon-delimited one-row-per-line txt, header-row csv, and a json array of
// objects. It mirrors internal/accountsource's ParseFile shape for the
// stats domain rather than accounts.
package exportfmt
