package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/Jylpah/blitzstats/internal/backend"
	"github.com/Jylpah/blitzstats/internal/exportfmt"
	"github.com/Jylpah/blitzstats/internal/models"
)

// resolveFormat picks the export format: an explicit --format flag wins,
// otherwise it falls back to the output file's extension.
func resolveFormat(file, explicit string) (exportfmt.Format, error) {
	if explicit != "" {
		return exportfmt.ParseFormat(explicit)
	}
	return exportfmt.DetectFormat(file)
}

// parseRegions splits a comma-separated --region value into
// models.Region values, rejecting names models.Region.Valid doesn't recognize.
// An empty string means "no region filter" (nil, not an error).
func parseRegions(s string) ([]models.Region, error) {
	if s == "" {
		return nil, nil
	}
	var out []models.Region
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		r := models.Region(part)
		if !r.Valid() {
			return nil, fmt.Errorf("unknown region %q", part)
		}
		out = append(out, r)
	}
	return out, nil
}

// parseSample implements `--sample S`: S in (0,1) is a fraction, S >= 1
// an absolute row count. An empty string disables sampling.
func parseSample(s string) (backend.Sample, error) {
	if s == "" {
		return backend.Sample{}, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return backend.Sample{}, fmt.Errorf("--sample: %w", err)
	}
	if v < 0 {
		return backend.Sample{}, fmt.Errorf("--sample: must be >= 0, got %v", v)
	}
	return backend.Sample{Value: v}, nil
}

// parseDistributed implements `--distributed I:N`. An empty string
// disables sharding.
func parseDistributed(s string) (backend.Distributed, error) {
	if s == "" {
		return backend.Distributed{}, nil
	}
	i, n, ok := strings.Cut(s, ":")
	if !ok {
		return backend.Distributed{}, fmt.Errorf("--distributed: want I:N, got %q", s)
	}
	iv, err := strconv.Atoi(i)
	if err != nil {
		return backend.Distributed{}, fmt.Errorf("--distributed: bad I: %w", err)
	}
	nv, err := strconv.Atoi(n)
	if err != nil {
		return backend.Distributed{}, fmt.Errorf("--distributed: bad N: %w", err)
	}
	if nv <= 0 || iv < 0 || iv >= nv {
		return backend.Distributed{}, fmt.Errorf("--distributed: want 0 <= I < N, got %d:%d", iv, nv)
	}
	return backend.Distributed{I: iv, N: nv}, nil
}

// parseAccountIDs splits a comma-separated list of explicit account ids,
// used by the accounts/tank-stats/player-achievements nouns' --accounts
// flag.
func parseAccountIDs(s string) ([]int64, error) {
	if s == "" {
		return nil, nil
	}
	var out []int64
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("--accounts: bad id %q: %w", part, err)
		}
		out = append(out, id)
	}
	return out, nil
}

// parseTankIDs splits a comma-separated list of tank ids, used by the
// tank-stats noun's --tanks flag.
func parseTankIDs(s string) ([]int64, error) {
	return parseAccountIDs(s)
}
