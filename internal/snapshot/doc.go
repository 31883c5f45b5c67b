// Package snapshot implements the archive-to-latest merge (spec.md
// §4.11): TankStats_Archive and PlayerAchievements_Archive hold every
// row ever fetched, while the hot TankStats/PlayerAchievements
// collections should hold only the newest row per identity key. A
// snapshot run reduces one partition of the archive down to its
// newest-per-key rows and upserts them into the hot collection with
// keepExisting semantics, so a row the hot collection already has isn't
// clobbered by a stale archive read racing a concurrent fetch.
package snapshot
