package exportfmt

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/Jylpah/blitzstats/internal/models"
)

var accountCSVHeader = []string{"id", "region", "added", "last_battle_time", "disabled", "inactive"}

// accountJSON is the JSON array element shape, matching
// accountsource.jsonAccount's import-side convention on the id/region
// pair while adding the extra fields accountsource.ParseFile ignores on
// import but an export should still carry.
type accountJSON struct {
	ID             int64  `json:"id"`
	Region         string `json:"region,omitempty"`
	Added          int64  `json:"added,omitempty"`
	LastBattleTime int64  `json:"last_battle_time,omitempty"`
	Disabled       bool   `json:"disabled,omitempty"`
	Inactive       bool   `json:"inactive,omitempty"`
}

// WriteAccounts writes accounts to w in format, mirroring
// accountsource.ParseFile's three formats (one id per line, csv with an
// "id" column, or a json array) on the export side.
func WriteAccounts(w io.Writer, format Format, rows []models.Account) error {
	switch format {
	case FormatTxt:
		for _, a := range rows {
			if _, err := fmt.Fprintf(w, "%d\n", a.ID); err != nil {
				return err
			}
		}
		return nil

	case FormatCSV:
		cw := csv.NewWriter(w)
		if err := cw.Write(accountCSVHeader); err != nil {
			return err
		}
		for _, a := range rows {
			row := []string{
				strconv.FormatInt(a.ID, 10), string(a.Region),
				strconv.FormatInt(a.Added, 10), strconv.FormatInt(a.LastBattleTime, 10),
				strconv.FormatBool(a.Disabled), strconv.FormatBool(a.Inactive),
			}
			if err := cw.Write(row); err != nil {
				return err
			}
		}
		cw.Flush()
		return cw.Error()

	case FormatJSON:
		out := make([]accountJSON, 0, len(rows))
		for _, a := range rows {
			out = append(out, accountJSON{
				ID: a.ID, Region: string(a.Region), Added: a.Added,
				LastBattleTime: a.LastBattleTime, Disabled: a.Disabled, Inactive: a.Inactive,
			})
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(out)

	default:
		return fmt.Errorf("exportfmt: unsupported format %q", format)
	}
}
