package survey

import (
	"strings"
	"time"
)

const (
	statusRecentDays      = 7
	statusNeedsUpdateDays = 30
)

var naiveLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04",
	"2006-01-02",
}

// ComputeStatus derives the freshness of a survey timestamp relative to now.
// Naive timestamps are read in loc. Ages past the needs-update threshold stay
// in needs-update; there is no separate stale bucket.
func ComputeStatus(lastSurveyed string, now time.Time, loc *time.Location) Status {
	ts, ok := parseSurveyTime(lastSurveyed, loc)
	if !ok {
		return StatusNoData
	}
	ageDays := now.Sub(ts).Hours() / 24
	switch {
	case ageDays <= statusRecentDays:
		return StatusRecent
	case ageDays <= statusNeedsUpdateDays:
		return StatusNeedsUpdate
	default:
		return StatusNeedsUpdate
	}
}

func parseSurveyTime(value string, loc *time.Location) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, false
	}
	if ts, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return ts, true
	}
	if loc == nil {
		loc = time.Local
	}
	for _, layout := range naiveLayouts {
		if ts, err := time.ParseInLocation(layout, value, loc); err == nil {
			return ts, true
		}
	}
	return time.Time{}, false
}
