package models

import "fmt"

// ImportSchema is a closed set of the untyped record shapes the import
// path can recognize, used instead of runtime dispatch by string name.
type ImportSchema int

const (
	SchemaUnknown ImportSchema = iota
	SchemaWGTankStat
	SchemaWGAchievements
	SchemaBSAccount
)

// DetectSchema inspects the keys of an untyped import record and returns
// the ImportSchema it matches, or SchemaUnknown if none do. Detection is
// deliberately conservative: it looks for a small set of fields that are
// present in exactly one schema.
func DetectSchema(rec map[string]any) ImportSchema {
	_, hasTank := rec["tank_id"]
	_, hasLBT := rec["last_battle_time"]
	_, hasUpdated := rec["updated"]
	_, hasAdded := rec["added"]

	switch {
	case hasTank && hasLBT:
		return SchemaWGTankStat
	case hasUpdated && !hasTank:
		return SchemaWGAchievements
	case hasAdded:
		return SchemaBSAccount
	default:
		return SchemaUnknown
	}
}

// ErrUnrecognizedSchema is returned by Transform when DetectSchema could
// not classify the record; callers treat this as a DataInvariant: count
// and skip.
var ErrUnrecognizedSchema = fmt.Errorf("import record matches no known schema")

func asInt64(v any) int64 {
	switch n := v.(type) {
	case int64:
		return n
	case int:
		return int64(n)
	case float64:
		return int64(n)
	default:
		return 0
	}
}

func asFloat64(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case int64:
		return float64(n)
	case int:
		return float64(n)
	default:
		return 0
	}
}

func asString(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}

// TransformTankStat maps an untyped import record into a TankStat. The
// caller must have already confirmed DetectSchema(rec) == SchemaWGTankStat.
func TransformTankStat(rec map[string]any) (TankStat, error) {
	if DetectSchema(rec) != SchemaWGTankStat {
		return TankStat{}, ErrUnrecognizedSchema
	}
	return TankStat{
		AccountID:      asInt64(rec["account_id"]),
		TankID:         asInt64(rec["tank_id"]),
		LastBattleTime: asInt64(rec["last_battle_time"]),
		Battles:        asInt64(rec["battles"]),
		Wins:           asInt64(rec["wins"]),
		Losses:         asInt64(rec["losses"]),
		DamageDealt:    asInt64(rec["damage_dealt"]),
		Frags:          asInt64(rec["frags"]),
		SpottedEnemies: asInt64(rec["spotted"]),
		WinRate:        asFloat64(rec["win_rate"]),
	}, nil
}

// TransformAchievement maps an untyped import record into a
// PlayerAchievement. The caller must have already confirmed
// DetectSchema(rec) == SchemaWGAchievements.
func TransformAchievement(rec map[string]any) (PlayerAchievement, error) {
	if DetectSchema(rec) != SchemaWGAchievements {
		return PlayerAchievement{}, ErrUnrecognizedSchema
	}
	medals := map[string]int{}
	if m, ok := rec["medals"].(map[string]any); ok {
		for k, v := range m {
			medals[k] = int(asInt64(v))
		}
	}
	return PlayerAchievement{
		AccountID: asInt64(rec["account_id"]),
		Updated:   asInt64(rec["updated"]),
		Medals:    medals,
	}, nil
}

// TransformAccount maps an untyped import record into an Account. The
// caller must have already confirmed DetectSchema(rec) == SchemaBSAccount.
func TransformAccount(rec map[string]any) (Account, error) {
	if DetectSchema(rec) != SchemaBSAccount {
		return Account{}, ErrUnrecognizedSchema
	}
	id := asInt64(rec["id"])
	acct, err := NewAccount(id, asInt64(rec["added"]))
	if err != nil {
		return Account{}, err
	}
	acct.LastBattleTime = asInt64(rec["last_battle_time"])
	if b, ok := rec["disabled"].(bool); ok {
		acct.Disabled = b
	}
	return acct, nil
}

// DBView is the identity-plus-canonical-fields view of a TankStat, as
// opposed to SrcView's full flattened record.
func (s TankStat) DBView() map[string]any {
	return map[string]any{
		"account_id":       s.AccountID,
		"tank_id":          s.TankID,
		"last_battle_time": s.LastBattleTime,
		"release":          s.Release,
	}
}

// SrcView returns the full flattened record of a TankStat.
func (s TankStat) SrcView() map[string]any {
	return map[string]any{
		"account_id":       s.AccountID,
		"tank_id":          s.TankID,
		"last_battle_time": s.LastBattleTime,
		"release":          s.Release,
		"region":           string(s.Region),
		"battles":          s.Battles,
		"wins":             s.Wins,
		"losses":           s.Losses,
		"damage_dealt":     s.DamageDealt,
		"frags":            s.Frags,
		"spotted":          s.SpottedEnemies,
		"win_rate":         s.WinRate,
	}
}
