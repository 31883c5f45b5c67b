package exportfmt

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/Jylpah/blitzstats/internal/models"
)

var achievementCSVHeader = []string{"account_id", "updated", "release", "region", "medals"}

// encodeMedals renders a medal count map as a deterministic
// "name=count,name=count" string so the txt/csv forms round-trip and diff
// cleanly; keys are sorted for reproducibility.
func encodeMedals(medals map[string]int) string {
	if len(medals) == 0 {
		return ""
	}
	names := make([]string, 0, len(medals))
	for k := range medals {
		names = append(names, k)
	}
	sort.Strings(names)
	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, fmt.Sprintf("%s=%d", name, medals[name]))
	}
	return strings.Join(parts, ",")
}

func decodeMedals(s string) (map[string]int, error) {
	if s == "" {
		return nil, nil
	}
	medals := make(map[string]int)
	for _, pair := range strings.Split(s, ",") {
		kv := strings.SplitN(pair, "=", 2)
		if len(kv) != 2 {
			return nil, fmt.Errorf("malformed medal entry %q", pair)
		}
		n, err := strconv.Atoi(kv[1])
		if err != nil {
			return nil, fmt.Errorf("malformed medal count %q: %w", pair, err)
		}
		medals[kv[0]] = n
	}
	return medals, nil
}

// WriteAchievements is WriteTankStats's PlayerAchievement analogue.
func WriteAchievements(w io.Writer, format Format, rows []models.PlayerAchievement) error {
	switch format {
	case FormatTxt:
		for _, r := range rows {
			if _, err := fmt.Fprintf(w, "%d:%d:%s:%s:%s\n",
				r.AccountID, r.Updated, r.Release, r.Region, encodeMedals(r.Medals)); err != nil {
				return err
			}
		}
		return nil

	case FormatCSV:
		cw := csv.NewWriter(w)
		if err := cw.Write(achievementCSVHeader); err != nil {
			return err
		}
		for _, r := range rows {
			row := []string{
				strconv.FormatInt(r.AccountID, 10), strconv.FormatInt(r.Updated, 10),
				r.Release, string(r.Region), encodeMedals(r.Medals),
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

// ReadAchievementsFile reads rows from path, auto-detecting format by extension.
func ReadAchievementsFile(path string) ([]models.PlayerAchievement, error) {
	format, err := DetectFormat(path)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadAchievements(f, format)
}

// ReadAchievements is WriteAchievements's inverse.
func ReadAchievements(r io.Reader, format Format) ([]models.PlayerAchievement, error) {
	switch format {
	case FormatTxt:
		return readAchievementsTxt(r)
	case FormatCSV:
		return readAchievementsCSV(r)
	case FormatJSON:
		var rows []models.PlayerAchievement
		if err := json.NewDecoder(r).Decode(&rows); err != nil {
			return nil, fmt.Errorf("decode json achievements: %w", err)
		}
		return rows, nil
	default:
		return nil, fmt.Errorf("exportfmt: unsupported format %q", format)
	}
}

func readAchievementsTxt(r io.Reader) ([]models.PlayerAchievement, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	var out []models.PlayerAchievement
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		parts := strings.SplitN(line, ":", 5)
		if len(parts) != 5 {
			return nil, fmt.Errorf("malformed achievement line %q: want 5 colon-delimited fields, got %d", line, len(parts))
		}
		row, err := achievementFromFields(parts)
		if err != nil {
			return nil, fmt.Errorf("malformed achievement line %q: %w", line, err)
		}
		out = append(out, row)
	}
	return out, nil
}

func readAchievementsCSV(r io.Reader) ([]models.PlayerAchievement, error) {
	cr := csv.NewReader(r)
	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	idx := make(map[string]int, len(header))
	for i, h := range header {
		idx[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, want := range achievementCSVHeader {
		if _, ok := idx[want]; !ok {
			return nil, fmt.Errorf("csv missing column %q", want)
		}
	}

	var out []models.PlayerAchievement
	for {
		rec, err := cr.Read()
		if err != nil {
			break
		}
		fields := make([]string, len(achievementCSVHeader))
		for i, want := range achievementCSVHeader {
			fields[i] = rec[idx[want]]
		}
		row, err := achievementFromFields(fields)
		if err != nil {
			return nil, fmt.Errorf("malformed csv row %v: %w", rec, err)
		}
		out = append(out, row)
	}
	return out, nil
}

func achievementFromFields(f []string) (models.PlayerAchievement, error) {
	accountID, err := strconv.ParseInt(f[0], 10, 64)
	if err != nil {
		return models.PlayerAchievement{}, err
	}
	updated, err := strconv.ParseInt(f[1], 10, 64)
	if err != nil {
		return models.PlayerAchievement{}, err
	}
	medals, err := decodeMedals(f[4])
	if err != nil {
		return models.PlayerAchievement{}, err
	}
	return models.PlayerAchievement{
		AccountID: accountID, Updated: updated, Release: f[2], Region: models.Region(f[3]), Medals: medals,
	}, nil
}
