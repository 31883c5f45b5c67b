package models

import (
	"fmt"
	"strconv"
	"strings"
)

// Release is a named, timestamped version of the upstream game. Releases
// form a strictly ordered, non-overlapping sequence by LaunchTime.
type Release struct {
	Release    string `json:"release" bson:"_id"`
	LaunchTime int64  `json:"launch_time" bson:"launch_time"`
	CutoffTime int64  `json:"cutoff_time" bson:"cutoff_time"`
}

// ParseReleaseVersion splits a dotted "X.Y" release string into its two
// numeric components for ordering comparisons independent of LaunchTime
// (used by `releases edit` to sanity-check a manually entered sequence).
func ParseReleaseVersion(release string) (major, minor int, err error) {
	parts := strings.SplitN(release, ".", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("release %q is not in X.Y form", release)
	}
	major, err = strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, fmt.Errorf("release %q: bad major version: %w", release, err)
	}
	minor, err = strconv.Atoi(parts[1])
	if err != nil {
		return 0, 0, fmt.Errorf("release %q: bad minor version: %w", release, err)
	}
	return major, minor, nil
}

// Contains reports whether timestamp t belongs to this release's window,
// i.e. LaunchTime < t <= CutoffTime.
func (r Release) Contains(t int64) bool {
	return r.LaunchTime < t && t <= r.CutoffTime
}
