package upstream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/Jylpah/blitzstats/internal/models"
)

// wgEnvelope is the common {status, data, error} shape the Wargaming API
// wraps every response in.
type wgEnvelope struct {
	Status string          `json:"status"`
	Data   json.RawMessage `json:"data"`
	Error  *struct {
		Message string `json:"message"`
		Code    int    `json:"code"`
	} `json:"error"`
}

type wgTankStatRow struct {
	TankID int64 `json:"tank_id"`
	All    struct {
		Battles        int64   `json:"battles"`
		Wins           int64   `json:"wins"`
		Losses         int64   `json:"losses"`
		DamageDealt    int64   `json:"damage_dealt"`
		Frags          int64   `json:"frags"`
		SpottedEnemies int64   `json:"spotted"`
		WinRate        float64 `json:"win_rate"`
	} `json:"all"`
	LastBattleTime int64 `json:"last_battle_time"`
}

type wgAchievementsRow struct {
	Achievements map[string]int `json:"achievements"`
	MaxSeries    map[string]int `json:"max_series"`
	UpdatedAt    int64          `json:"updated_at"`
}

// GetTankStats fetches every tank-stat row for accountID. A nil slice with
// a nil error means the upstream responded but has no rows for this
// account (the spec's "None"); a non-nil error means the request could not
// be completed even after retries.
func (c *Client) GetTankStats(ctx context.Context, accountID int64, region models.Region) ([]models.TankStat, error) {
	req, err := c.wgRequest(ctx, region, "/tanks/stats/", accountID)
	if err != nil {
		return nil, err
	}
	body, err := c.do(ctx, c.wg, req)
	if err != nil {
		var nf *ErrNotFound
		if errors.As(err, &nf) {
			return nil, nil
		}
		return nil, err
	}

	var env wgEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("decode tank stats envelope: %w", err)
	}
	if env.Status != "ok" {
		msg := "unknown"
		if env.Error != nil {
			msg = env.Error.Message
		}
		return nil, fmt.Errorf("wg api error: %s", msg)
	}

	var byAccount map[string][]wgTankStatRow
	if err := json.Unmarshal(env.Data, &byAccount); err != nil {
		return nil, fmt.Errorf("decode tank stats data: %w", err)
	}
	rows := byAccount[fmt.Sprintf("%d", accountID)]
	if len(rows) == 0 {
		return nil, nil
	}

	out := make([]models.TankStat, 0, len(rows))
	for _, r := range rows {
		out = append(out, models.TankStat{
			AccountID:      accountID,
			TankID:         r.TankID,
			LastBattleTime: r.LastBattleTime,
			Region:         region,
			Battles:        r.All.Battles,
			Wins:           r.All.Wins,
			Losses:         r.All.Losses,
			DamageDealt:    r.All.DamageDealt,
			Frags:          r.All.Frags,
			SpottedEnemies: r.All.SpottedEnemies,
			WinRate:        r.All.WinRate,
		})
	}
	return out, nil
}

// GetPlayerAchievements fetches the achievement-counter snapshot for
// accountID. Same "nil, nil means no data" contract as GetTankStats.
func (c *Client) GetPlayerAchievements(ctx context.Context, accountID int64, region models.Region) (*models.PlayerAchievement, error) {
	req, err := c.wgRequest(ctx, region, "/account/achievements/", accountID)
	if err != nil {
		return nil, err
	}
	body, err := c.do(ctx, c.wg, req)
	if err != nil {
		var nf *ErrNotFound
		if errors.As(err, &nf) {
			return nil, nil
		}
		return nil, err
	}

	var env wgEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("decode achievements envelope: %w", err)
	}
	if env.Status != "ok" {
		msg := "unknown"
		if env.Error != nil {
			msg = env.Error.Message
		}
		return nil, fmt.Errorf("wg api error: %s", msg)
	}

	var byAccount map[string]wgAchievementsRow
	if err := json.Unmarshal(env.Data, &byAccount); err != nil {
		return nil, fmt.Errorf("decode achievements data: %w", err)
	}
	row, ok := byAccount[fmt.Sprintf("%d", accountID)]
	if !ok {
		return nil, nil
	}

	return &models.PlayerAchievement{
		AccountID: accountID,
		Updated:   row.UpdatedAt,
		Region:    region,
		Medals:    row.Achievements,
	}, nil
}

func (c *Client) wgRequest(ctx context.Context, region models.Region, path string, accountID int64) (*http.Request, error) {
	base := fmt.Sprintf(c.cfg.WGBaseURL, region)
	u, err := url.Parse(base + path)
	if err != nil {
		return nil, fmt.Errorf("build wg url: %w", err)
	}
	q := u.Query()
	q.Set("application_id", c.cfg.WGAppID)
	q.Set("account_id", fmt.Sprintf("%d", accountID))
	u.RawQuery = q.Encode()

	return http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
}
