// Package fetcher implements the account-queue -> fetch-workers ->
// stats-queue -> writer-worker pipeline (spec.md §4.7), generic over the
// two stat kinds (tank stats, player achievements) original_source
// implements as separate but structurally identical modules
// (tank_stats.py's fetch_api_worker/fetch_backend_worker and
// player_achievements.py's equivalents).
package fetcher
