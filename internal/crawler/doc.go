// Package crawler implements the replay crawler (spec.md §4.8): a
// single-producer "Spidering" stage pages the listing, a pool of
// "Fetching" workers resolve each replay ID into player account IDs,
// and "Draining" lets in-flight work finish before the process exits.
// The page loop's early-stop condition ("enough old replays already
// seen") is an explicit state transition, never a panic/recover
// control-flow trick.
package crawler
