package accountsource

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/Jylpah/blitzstats/internal/backend"
	"github.com/Jylpah/blitzstats/internal/counter"
	"github.com/Jylpah/blitzstats/internal/logging"
	"github.com/Jylpah/blitzstats/internal/models"
	"github.com/Jylpah/blitzstats/internal/queue"
)

// Options configures Compose's source precedence: Accounts (explicit ids)
// wins over File, which wins over a Backend query.
type Options struct {
	Accounts []int64
	File     string
	Backend  backend.Backend
	Filters  backend.AccountFilters
}

// Compose produces an account stream into dst following the precedence
// explicit list > file > backend query. It registers exactly one producer
// on dst and calls Finish when the source is exhausted, matching
// create_accountQ's add_producer/finish contract.
func Compose(ctx context.Context, dst *queue.Queue[models.Account], opts Options) (*counter.EventCounter, error) {
	stats := counter.New("accountsource")
	dst.AddProducer()
	defer dst.Finish()

	put := func(a models.Account) {
		if err := dst.Put(ctx, a); err != nil {
			stats.Log("errors", 1)
			return
		}
		stats.Log("read", 1)
	}

	switch {
	case len(opts.Accounts) > 0:
		for _, id := range opts.Accounts {
			a, err := models.NewAccount(id, time.Now().Unix())
			if err != nil {
				logging.Warn().Int64("account_id", id).Err(err).Msg("unmappable account id, skipping")
				stats.Log("errors", 1)
				continue
			}
			put(a)
		}
		return stats, nil

	case opts.File != "":
		accounts, err := ParseFile(opts.File)
		if err != nil {
			return stats, fmt.Errorf("accountsource: parse file %q: %w", opts.File, err)
		}
		for _, a := range accounts {
			put(a)
		}
		return stats, nil

	default:
		if opts.Backend == nil {
			return stats, fmt.Errorf("accountsource: no explicit accounts, no file, and no backend given")
		}
		ch, err := opts.Backend.AccountsGet(ctx, opts.Filters)
		if err != nil {
			return stats, fmt.Errorf("accountsource: backend query: %w", err)
		}
		for res := range ch {
			if res.Err != nil {
				stats.Log("errors", 1)
				continue
			}
			put(res.Value)
		}
		return stats, nil
	}
}

// ParseFile reads account ids (and, where the format carries it, region)
// from path, auto-detecting the format by extension: .txt is one id per
// line, .csv is a header row, .json is an array.
func ParseFile(path string) ([]models.Account, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".txt":
		return parseTxt(path)
	case ".csv":
		return parseCSV(path)
	case ".json":
		return parseJSON(path)
	default:
		return nil, fmt.Errorf("unsupported account file extension %q (want .txt, .csv, or .json)", filepath.Ext(path))
	}
}

func parseTxt(path string) ([]models.Account, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var out []models.Account
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		id, err := strconv.ParseInt(line, 10, 64)
		if err != nil {
			logging.Warn().Str("line", line).Msg("skipping unparseable account id")
			continue
		}
		a, err := models.NewAccount(id, time.Now().Unix())
		if err != nil {
			logging.Warn().Int64("account_id", id).Err(err).Msg("unmappable account id, skipping")
			continue
		}
		out = append(out, a)
	}
	return out, nil
}

func parseCSV(path string) ([]models.Account, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	idCol := -1
	for i, h := range header {
		if strings.EqualFold(strings.TrimSpace(h), "id") {
			idCol = i
			break
		}
	}
	if idCol < 0 {
		return nil, fmt.Errorf("csv file %q has no \"id\" column", path)
	}

	var out []models.Account
	for {
		row, err := r.Read()
		if err != nil {
			break
		}
		id, err := strconv.ParseInt(strings.TrimSpace(row[idCol]), 10, 64)
		if err != nil {
			logging.Warn().Strs("row", row).Msg("skipping unparseable account id")
			continue
		}
		a, err := models.NewAccount(id, time.Now().Unix())
		if err != nil {
			logging.Warn().Int64("account_id", id).Err(err).Msg("unmappable account id, skipping")
			continue
		}
		out = append(out, a)
	}
	return out, nil
}

// jsonAccount is the shape accepted inside a JSON export array; plain
// numbers are also accepted (an array of bare account ids).
type jsonAccount struct {
	ID     int64  `json:"id"`
	Region string `json:"region,omitempty"`
}

func parseJSON(path string) ([]models.Account, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var ids []int64
	if err := json.Unmarshal(data, &ids); err == nil {
		out := make([]models.Account, 0, len(ids))
		for _, id := range ids {
			a, err := models.NewAccount(id, time.Now().Unix())
			if err != nil {
				logging.Warn().Int64("account_id", id).Err(err).Msg("unmappable account id, skipping")
				continue
			}
			out = append(out, a)
		}
		return out, nil
	}

	var objs []jsonAccount
	if err := json.Unmarshal(data, &objs); err != nil {
		return nil, fmt.Errorf("decode json account list: %w", err)
	}
	out := make([]models.Account, 0, len(objs))
	for _, o := range objs {
		a, err := models.NewAccount(o.ID, time.Now().Unix())
		if err != nil {
			logging.Warn().Int64("account_id", o.ID).Err(err).Msg("unmappable account id, skipping")
			continue
		}
		if o.Region != "" {
			a.Region = models.Region(o.Region)
		}
		out = append(out, a)
	}
	return out, nil
}
