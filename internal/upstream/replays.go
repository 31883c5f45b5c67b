package upstream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"regexp"

	"github.com/Jylpah/blitzstats/internal/models"
)

// replayIDPattern matches WoTInspector's replay download links, e.g.
// "/en/download/1a2b3c4d5e6f7890".
var replayIDPattern = regexp.MustCompile(`/download/([0-9a-fA-F]{8,})`)

// GetReplayListingPage fetches one page of the replay listing as raw HTML.
func (c *Client) GetReplayListingPage(ctx context.Context, page int) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		fmt.Sprintf("%s/en/?page=%d", c.cfg.WoTInspectorBaseURL, page), nil)
	if err != nil {
		return "", err
	}
	if c.cfg.WoTInspectorAuthToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.WoTInspectorAuthToken)
	}
	body, err := c.do(ctx, c.wiv, req)
	if err != nil {
		return "", err
	}
	return string(body), nil
}

// ParseReplayIDs extracts the set of replay ids referenced in a listing
// page. Pure function, not rate limited.
func ParseReplayIDs(html string) map[string]struct{} {
	matches := replayIDPattern.FindAllStringSubmatch(html, -1)
	ids := make(map[string]struct{}, len(matches))
	for _, m := range matches {
		ids[m[1]] = struct{}{}
	}
	return ids
}

// GetReplayJSON fetches and decodes one replay. found=false with a nil
// error means the upstream had nothing for this id (404, or retries
// exhausted on a transient failure) — the spec's "None".
func (c *Client) GetReplayJSON(ctx context.Context, replayID string) (replay models.Replay, found bool, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		fmt.Sprintf("%s/api/replay/%s", c.cfg.WoTInspectorBaseURL, replayID), nil)
	if err != nil {
		return models.Replay{}, false, err
	}

	body, err := c.do(ctx, c.wiv, req)
	if err != nil {
		var nf *ErrNotFound
		if errors.As(err, &nf) {
			return models.Replay{}, false, nil
		}
		var transient *ErrUpstreamTransient
		if errors.As(err, &transient) {
			return models.Replay{}, false, nil
		}
		return models.Replay{}, false, err
	}

	var raw map[string]any
	if err := json.Unmarshal(body, &raw); err != nil {
		return models.Replay{}, false, fmt.Errorf("decode replay %s: %w", replayID, err)
	}
	var data models.ReplayData
	if err := json.Unmarshal(body, &data); err != nil {
		return models.Replay{}, false, fmt.Errorf("decode replay %s summary: %w", replayID, err)
	}

	return models.Replay{ID: replayID, Data: data, Raw: raw}, true, nil
}
