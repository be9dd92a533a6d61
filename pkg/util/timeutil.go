package util

import "time"

// SurveyTimeLayout renders run timestamps as second precision UTC ISO-8601.
const SurveyTimeLayout = "2006-01-02T15:04:05Z"

// NowUTC exposes time.Now for deterministic testing.
func NowUTC() time.Time {
	return time.Now().UTC()
}

// FormatSurveyTime truncates ts to the second and renders it in UTC.
func FormatSurveyTime(ts time.Time) string {
	return ts.UTC().Truncate(time.Second).Format(SurveyTimeLayout)
}
