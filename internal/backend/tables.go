package backend

// Table/collection names, shared verbatim by every driver so the
// persisted state layout in spec.md §6 stays identical regardless of the
// backing engine.
const (
	TableAccounts                  = "Accounts"
	TableTankStats                 = "TankStats"
	TableTankStatsArchive          = "TankStats_Archive"
	TablePlayerAchievements        = "PlayerAchievements"
	TablePlayerAchievementsArchive = "PlayerAchievements_Archive"
	TableReplays                   = "Replays"
	TableReleases                  = "Releases"
	TableTankopedia                = "Tankopedia"
	TableStatsToDelete              = "StatsToDelete"
	TableUpdateLog                  = "UpdateLog"
	TableErrorLog                   = "ErrorLog"
)
