package upstream

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/Jylpah/blitzstats/internal/models"
)

type wgTankopediaRow struct {
	Name      string `json:"name"`
	Nation    string `json:"nation"`
	Tier      int    `json:"tier"`
	Type      string `json:"type"`
	IsPremium bool   `json:"is_premium"`
}

// GetTankopediaPage fetches one page of the vehicle encyclopedia for
// region, returning the decoded rows and the total page count WG
// reports so the caller knows when to stop paging.
func (c *Client) GetTankopediaPage(ctx context.Context, region models.Region, page int) ([]models.Tank, int, error) {
	base := fmt.Sprintf(c.cfg.WGBaseURL, region)
	u, err := url.Parse(base + "/encyclopedia/vehicles/")
	if err != nil {
		return nil, 0, fmt.Errorf("build tankopedia url: %w", err)
	}
	q := u.Query()
	q.Set("application_id", c.cfg.WGAppID)
	q.Set("page_no", strconv.Itoa(page))
	q.Set("fields", "name,nation,tier,type,is_premium")
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, 0, err
	}
	body, err := c.do(ctx, c.wg, req)
	if err != nil {
		return nil, 0, err
	}

	var env struct {
		Status string `json:"status"`
		Meta   struct {
			PageTotal int `json:"page_total"`
		} `json:"meta"`
		Data  map[string]wgTankopediaRow `json:"data"`
		Error *struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, 0, fmt.Errorf("decode tankopedia envelope: %w", err)
	}
	if env.Status != "ok" {
		msg := "unknown"
		if env.Error != nil {
			msg = env.Error.Message
		}
		return nil, 0, fmt.Errorf("wg api error: %s", msg)
	}

	tanks := make([]models.Tank, 0, len(env.Data))
	for idStr, row := range env.Data {
		id, err := strconv.ParseInt(idStr, 10, 64)
		if err != nil {
			continue
		}
		tanks = append(tanks, models.Tank{
			TankID: id, Name: row.Name, Nation: row.Nation,
			Tier: row.Tier, Type: row.Type, IsPremium: row.IsPremium,
		})
	}
	return tanks, env.Meta.PageTotal, nil
}
