package models

// TankStat is one snapshot of a player's performance on one tank as of
// LastBattleTime. Its identity key is (AccountID, TankID, LastBattleTime).
type TankStat struct {
	AccountID      int64   `json:"account_id" bson:"account_id"`
	TankID         int64   `json:"tank_id" bson:"tank_id"`
	LastBattleTime int64   `json:"last_battle_time" bson:"last_battle_time"`
	Release        string  `json:"release,omitempty" bson:"release,omitempty"`
	Region         Region  `json:"region,omitempty" bson:"region,omitempty"`
	Battles        int64   `json:"battles" bson:"battles"`
	Wins           int64   `json:"wins" bson:"wins"`
	Losses         int64   `json:"losses" bson:"losses"`
	DamageDealt    int64   `json:"damage_dealt" bson:"damage_dealt"`
	Frags          int64   `json:"frags" bson:"frags"`
	SpottedEnemies int64   `json:"spotted" bson:"spotted"`
	WinRate        float64 `json:"win_rate" bson:"win_rate"`
}

// IdentityKey is the tuple that uniquely names this row, excluding the
// timestamp component used for versioning.
type TankStatIdentityKey struct {
	AccountID int64
	TankID    int64
}

func (s TankStat) Identity() TankStatIdentityKey {
	return TankStatIdentityKey{AccountID: s.AccountID, TankID: s.TankID}
}

// Timestamp satisfies the releases.Assignable interface used by the release
// mapper and remap task.
func (s TankStat) Timestamp() int64 { return s.LastBattleTime }

// WithRelease returns a copy of s with Release set, used by the writer
// worker and the offline remap task so neither mutates a shared value.
func (s TankStat) WithRelease(release string) TankStat {
	s.Release = release
	return s
}

// PlayerAchievement is one snapshot of a player's achievement counters as
// of Updated. Its identity key is (AccountID,) — it is versioned only by
// timestamp, there is no sub-entity like TankStat's TankID.
type PlayerAchievement struct {
	AccountID int64          `json:"account_id" bson:"account_id"`
	Updated   int64          `json:"updated" bson:"updated"`
	Release   string         `json:"release,omitempty" bson:"release,omitempty"`
	Region    Region         `json:"region,omitempty" bson:"region,omitempty"`
	Medals    map[string]int `json:"medals,omitempty" bson:"medals,omitempty"`
}

type PlayerAchievementIdentityKey struct {
	AccountID int64
}

func (a PlayerAchievement) Identity() PlayerAchievementIdentityKey {
	return PlayerAchievementIdentityKey{AccountID: a.AccountID}
}

func (a PlayerAchievement) Timestamp() int64 { return a.Updated }

func (a PlayerAchievement) WithRelease(release string) PlayerAchievement {
	a.Release = release
	return a
}
