package columnar

import (
	"encoding/gob"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pierrec/lz4/v4"

	"github.com/Jylpah/blitzstats/internal/models"
)

// schema is the struct-of-arrays layout induced from models.TankStat's
// fields, one slice per column, all the same length.
type schema struct {
	Release        string
	TankID         int64
	AccountID      []int64
	LastBattleTime []int64
	Region         []string
	Battles        []int64
	Wins           []int64
	Losses         []int64
	DamageDealt    []int64
	Frags          []int64
	SpottedEnemies []int64
	WinRate        []float64
}

func toSchema(release string, tankID int64, rows []models.TankStat) schema {
	s := schema{
		Release: release,
		TankID:  tankID,
	}
	for _, r := range rows {
		s.AccountID = append(s.AccountID, r.AccountID)
		s.LastBattleTime = append(s.LastBattleTime, r.LastBattleTime)
		s.Region = append(s.Region, string(r.Region))
		s.Battles = append(s.Battles, r.Battles)
		s.Wins = append(s.Wins, r.Wins)
		s.Losses = append(s.Losses, r.Losses)
		s.DamageDealt = append(s.DamageDealt, r.DamageDealt)
		s.Frags = append(s.Frags, r.Frags)
		s.SpottedEnemies = append(s.SpottedEnemies, r.SpottedEnemies)
		s.WinRate = append(s.WinRate, r.WinRate)
	}
	return s
}

func (s schema) toRows() []models.TankStat {
	rows := make([]models.TankStat, len(s.AccountID))
	for i := range rows {
		rows[i] = models.TankStat{
			AccountID:      s.AccountID[i],
			TankID:         s.TankID,
			LastBattleTime: s.LastBattleTime[i],
			Release:        s.Release,
			Region:         models.Region(s.Region[i]),
			Battles:        s.Battles[i],
			Wins:           s.Wins[i],
			Losses:         s.Losses[i],
			DamageDealt:    s.DamageDealt[i],
			Frags:          s.Frags[i],
			SpottedEnemies: s.SpottedEnemies[i],
			WinRate:        s.WinRate[i],
		}
	}
	return rows
}

// FileName returns the one-file-per-release/tank-id name this package
// writes, relative to a destination directory.
func FileName(release string, tankID int64) string {
	return fmt.Sprintf("tank_stats_%s_%d.bin.lz4", release, tankID)
}

// WriteTankStats splits rows by (Release, TankID) and writes one
// LZ4-framed columnar file per group into dir, returning the paths
// written in no particular order.
func WriteTankStats(dir string, rows []models.TankStat) ([]string, error) {
	type key struct {
		release string
		tankID  int64
	}
	groups := make(map[key][]models.TankStat)
	for _, r := range rows {
		k := key{r.Release, r.TankID}
		groups[k] = append(groups[k], r)
	}

	var paths []string
	for k, group := range groups {
		path := filepath.Join(dir, FileName(k.release, k.tankID))
		if err := writeFile(path, toSchema(k.release, k.tankID, group)); err != nil {
			return paths, fmt.Errorf("columnar: write %s: %w", path, err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}

func writeFile(path string, s schema) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	lw := lz4.NewWriter(f)
	defer lw.Close()

	if err := gob.NewEncoder(lw).Encode(s); err != nil {
		return err
	}
	return lw.Close()
}

// ReadTankStats decodes a single file written by WriteTankStats back
// into row form.
func ReadTankStats(path string) ([]models.TankStat, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var s schema
	if err := gob.NewDecoder(lz4.NewReader(f)).Decode(&s); err != nil {
		return nil, fmt.Errorf("columnar: decode %s: %w", path, err)
	}
	return s.toRows(), nil
}
