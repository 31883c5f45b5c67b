package models

// StatsKind identifies which per-account stats stream a timestamp belongs
// to, used as the key in Account.StatsUpdated and in StatsToDelete.Type.
type StatsKind string

const (
	StatsKindTankStats         StatsKind = "tank_stats"
	StatsKindPlayerAchievement StatsKind = "player_achievements"
)

// Account is a player account discovered by the crawler or imported in
// bulk. Its id is the primary key and its region is invariant once set.
type Account struct {
	ID             int64               `json:"id" bson:"_id"`
	Region         Region              `json:"region,omitempty" bson:"region,omitempty"`
	Added          int64               `json:"added" bson:"added"`
	LastBattleTime int64               `json:"last_battle_time,omitempty" bson:"last_battle_time,omitempty"`
	Disabled       bool                `json:"disabled" bson:"disabled"`
	Inactive       bool                `json:"inactive" bson:"inactive"`
	StatsUpdated   map[StatsKind]int64 `json:"stats_updated,omitempty" bson:"stats_updated,omitempty"`
}

// AccountFields enumerates the mutable fields a partial AccountUpdate may
// touch, so the backend can build a minimal `SET` clause.
type AccountFields struct {
	LastBattleTime bool
	Disabled       bool
	Inactive       bool
	StatsUpdated   StatsKind // non-empty means "update StatsUpdated[StatsUpdated] = time.Now"
}

// NewAccount builds an Account with its region derived from id. The
// caller is responsible for treating ErrUnmappableAccountID as a
// DataInvariant (count and skip), not a fatal error.
func NewAccount(id int64, added int64) (Account, error) {
	region, err := RegionFromAccountID(id)
	if err != nil {
		return Account{}, err
	}
	return Account{
		ID:     id,
		Region: region,
		Added:  added,
	}, nil
}
