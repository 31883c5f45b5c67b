package models

import (
	"fmt"
	"strconv"
	"strings"
)

// StatsToDelete is a staging record written by the dedupe analyzer and
// consumed by the pruner. Type carries the stats kind, with an optional
// "-archive" suffix meaning "this id lives in the archive collection, not
// the hot one".
type StatsToDelete struct {
	Type    string `json:"type" bson:"type"`
	ID      string `json:"id" bson:"id"`
	Release string `json:"release,omitempty" bson:"release,omitempty"`
}

// ArchiveSuffix marks a StatsToDelete.Type as referring to the archive
// collection rather than the hot one.
const ArchiveSuffix = "-archive"

// NewStatsToDeleteType builds the Type string for a given stats kind and
// archive flag.
func NewStatsToDeleteType(kind StatsKind, archive bool) string {
	if archive {
		return string(kind) + ArchiveSuffix
	}
	return string(kind)
}

// IsArchiveType reports whether a StatsToDelete.Type refers to the archive
// collection.
func IsArchiveType(t string) bool {
	return len(t) > len(ArchiveSuffix) && t[len(t)-len(ArchiveSuffix):] == ArchiveSuffix
}

// EncodeTankStatID renders a TankStat's full identity (including the
// versioning timestamp) as the opaque StatsToDelete.ID string the
// analyzer writes and the pruner parses back.
func EncodeTankStatID(key TankStatIdentityKey, lastBattleTime int64) string {
	return fmt.Sprintf("%d:%d:%d", key.AccountID, key.TankID, lastBattleTime)
}

// DecodeTankStatID is EncodeTankStatID's inverse.
func DecodeTankStatID(id string) (key TankStatIdentityKey, lastBattleTime int64, err error) {
	parts := strings.Split(id, ":")
	if len(parts) != 3 {
		return key, 0, fmt.Errorf("malformed tank stat id %q", id)
	}
	key.AccountID, err = strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return key, 0, fmt.Errorf("malformed tank stat id %q: %w", id, err)
	}
	key.TankID, err = strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return key, 0, fmt.Errorf("malformed tank stat id %q: %w", id, err)
	}
	lastBattleTime, err = strconv.ParseInt(parts[2], 10, 64)
	if err != nil {
		return key, 0, fmt.Errorf("malformed tank stat id %q: %w", id, err)
	}
	return key, lastBattleTime, nil
}

// EncodeAchievementID is EncodeTankStatID's PlayerAchievement analogue.
func EncodeAchievementID(key PlayerAchievementIdentityKey, updated int64) string {
	return fmt.Sprintf("%d:%d", key.AccountID, updated)
}

// DecodeAchievementID is EncodeAchievementID's inverse.
func DecodeAchievementID(id string) (key PlayerAchievementIdentityKey, updated int64, err error) {
	parts := strings.Split(id, ":")
	if len(parts) != 2 {
		return key, 0, fmt.Errorf("malformed achievement id %q", id)
	}
	key.AccountID, err = strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return key, 0, fmt.Errorf("malformed achievement id %q: %w", id, err)
	}
	updated, err = strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return key, 0, fmt.Errorf("malformed achievement id %q: %w", id, err)
	}
	return key, updated, nil
}

// UpdateLogAction enumerates the phases the dedupe/snapshot/remap
// pipelines record on success. A failed phase writes nothing.
type UpdateLogAction string

const (
	ActionAnalyze  UpdateLogAction = "analyze"
	ActionCheck    UpdateLogAction = "check"
	ActionPrune    UpdateLogAction = "prune"
	ActionSnapshot UpdateLogAction = "snapshot"
	ActionRemap    UpdateLogAction = "remap"
)

// UpdateLogEntry is the cross-component protocol C10 uses to record a
// completed phase.
type UpdateLogEntry struct {
	ID      string          `json:"id" bson:"_id"`
	Action  UpdateLogAction `json:"action" bson:"action"`
	Kind    StatsKind       `json:"stat_kind" bson:"stat_kind"`
	Release string          `json:"release,omitempty" bson:"release,omitempty"`
	At      int64           `json:"at" bson:"at"`
}

// ErrorLogEntry records a per-item failure for later inspection; it is
// never consulted by the pipeline itself, only appended to.
type ErrorLogEntry struct {
	ID        string `json:"id" bson:"_id"`
	AccountID int64  `json:"account_id,omitempty" bson:"account_id,omitempty"`
	Type      string `json:"type" bson:"type"`
	Message   string `json:"message" bson:"message"`
	At        int64  `json:"time" bson:"time"`
}

func (e ErrorLogEntry) String() string {
	return fmt.Sprintf("[%s] account=%d: %s", e.Type, e.AccountID, e.Message)
}
