package exportfmt

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/Jylpah/blitzstats/internal/models"
)

var tankStatCSVHeader = []string{
	"account_id", "tank_id", "last_battle_time", "release", "region",
	"battles", "wins", "losses", "damage_dealt", "frags", "spotted", "win_rate",
}

// WriteTankStats writes rows to w in format. txt is colon-delimited
// fields one row per line, matching the colon encoding models.StatsToDelete
// already uses for tank stat identities.
func WriteTankStats(w io.Writer, format Format, rows []models.TankStat) error {
	switch format {
	case FormatTxt:
		for _, r := range rows {
			if _, err := fmt.Fprintf(w, "%d:%d:%d:%s:%s:%d:%d:%d:%d:%d:%d:%g\n",
				r.AccountID, r.TankID, r.LastBattleTime, r.Release, r.Region,
				r.Battles, r.Wins, r.Losses, r.DamageDealt, r.Frags, r.SpottedEnemies, r.WinRate); err != nil {
				return err
			}
		}
		return nil

	case FormatCSV:
		cw := csv.NewWriter(w)
		if err := cw.Write(tankStatCSVHeader); err != nil {
			return err
		}
		for _, r := range rows {
			row := []string{
				strconv.FormatInt(r.AccountID, 10), strconv.FormatInt(r.TankID, 10),
				strconv.FormatInt(r.LastBattleTime, 10), r.Release, string(r.Region),
				strconv.FormatInt(r.Battles, 10), strconv.FormatInt(r.Wins, 10),
				strconv.FormatInt(r.Losses, 10), strconv.FormatInt(r.DamageDealt, 10),
				strconv.FormatInt(r.Frags, 10), strconv.FormatInt(r.SpottedEnemies, 10),
				strconv.FormatFloat(r.WinRate, 'g', -1, 64),
			}
			if err := cw.Write(row); err != nil {
				return err
			}
		}
		cw.Flush()
		return cw.Error()

	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(rows)

	default:
		return fmt.Errorf("exportfmt: unsupported format %q", format)
	}
}

// ReadTankStatsFile reads rows from path, auto-detecting format by extension.
func ReadTankStatsFile(path string) ([]models.TankStat, error) {
	format, err := DetectFormat(path)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadTankStats(f, format)
}

// ReadTankStats is WriteTankStats's inverse.
func ReadTankStats(r io.Reader, format Format) ([]models.TankStat, error) {
	switch format {
	case FormatTxt:
		return readTankStatsTxt(r)
	case FormatCSV:
		return readTankStatsCSV(r)
	case FormatJSON:
		var rows []models.TankStat
		if err := json.NewDecoder(r).Decode(&rows); err != nil {
			return nil, fmt.Errorf("decode json tank stats: %w", err)
		}
		return rows, nil
	default:
		return nil, fmt.Errorf("exportfmt: unsupported format %q", format)
	}
}

func readTankStatsTxt(r io.Reader) ([]models.TankStat, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	var out []models.TankStat
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		parts := strings.Split(line, ":")
		if len(parts) != 12 {
			return nil, fmt.Errorf("malformed tank stat line %q: want 12 colon-delimited fields, got %d", line, len(parts))
		}
		row, err := tankStatFromFields(parts)
		if err != nil {
			return nil, fmt.Errorf("malformed tank stat line %q: %w", line, err)
		}
		out = append(out, row)
	}
	return out, nil
}

func readTankStatsCSV(r io.Reader) ([]models.TankStat, error) {
	cr := csv.NewReader(r)
	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	idx := make(map[string]int, len(header))
	for i, h := range header {
		idx[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, want := range tankStatCSVHeader {
		if _, ok := idx[want]; !ok {
			return nil, fmt.Errorf("csv missing column %q", want)
		}
	}

	var out []models.TankStat
	for {
		rec, err := cr.Read()
		if err != nil {
			break
		}
		fields := make([]string, len(tankStatCSVHeader))
		for i, want := range tankStatCSVHeader {
			fields[i] = rec[idx[want]]
		}
		row, err := tankStatFromFields(fields)
		if err != nil {
			return nil, fmt.Errorf("malformed csv row %v: %w", rec, err)
		}
		out = append(out, row)
	}
	return out, nil
}

func tankStatFromFields(f []string) (models.TankStat, error) {
	accountID, err := strconv.ParseInt(f[0], 10, 64)
	if err != nil {
		return models.TankStat{}, err
	}
	tankID, err := strconv.ParseInt(f[1], 10, 64)
	if err != nil {
		return models.TankStat{}, err
	}
	lbt, err := strconv.ParseInt(f[2], 10, 64)
	if err != nil {
		return models.TankStat{}, err
	}
	battles, err := strconv.ParseInt(f[5], 10, 64)
	if err != nil {
		return models.TankStat{}, err
	}
	wins, err := strconv.ParseInt(f[6], 10, 64)
	if err != nil {
		return models.TankStat{}, err
	}
	losses, err := strconv.ParseInt(f[7], 10, 64)
	if err != nil {
		return models.TankStat{}, err
	}
	damage, err := strconv.ParseInt(f[8], 10, 64)
	if err != nil {
		return models.TankStat{}, err
	}
	frags, err := strconv.ParseInt(f[9], 10, 64)
	if err != nil {
		return models.TankStat{}, err
	}
	spotted, err := strconv.ParseInt(f[10], 10, 64)
	if err != nil {
		return models.TankStat{}, err
	}
	winRate, err := strconv.ParseFloat(f[11], 64)
	if err != nil {
		return models.TankStat{}, err
	}
	return models.TankStat{
		AccountID: accountID, TankID: tankID, LastBattleTime: lbt,
		Release: f[3], Region: models.Region(f[4]),
		Battles: battles, Wins: wins, Losses: losses,
		DamageDealt: damage, Frags: frags, SpottedEnemies: spotted, WinRate: winRate,
	}, nil
}
