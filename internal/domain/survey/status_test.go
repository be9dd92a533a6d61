package survey

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestComputeStatusThresholds(t *testing.T) {
	now := time.Date(2024, 7, 31, 12, 0, 0, 0, time.UTC)
	day := 24 * time.Hour
	iso := func(d time.Duration) string { return now.Add(-d).Format(time.RFC3339Nano) }

	tests := []struct {
		name  string
		value string
		want  Status
	}{
		{name: "age zero", value: iso(0), want: StatusRecent},
		{name: "exactly seven days", value: iso(7 * day), want: StatusRecent},
		{name: "just past seven days", value: iso(7*day + 9*time.Second), want: StatusNeedsUpdate},
		{name: "thirty days", value: iso(30 * day), want: StatusNeedsUpdate},
		{name: "four hundred days", value: iso(400 * day), want: StatusNeedsUpdate},
		{name: "future timestamp", value: iso(-time.Hour), want: StatusRecent},
		{name: "empty", value: "", want: StatusNoData},
		{name: "whitespace", value: "   ", want: StatusNoData},
		{name: "garbage", value: "last tuesday", want: StatusNoData},
		{name: "zulu survey time", value: "2024-07-31T12:00:00Z", want: StatusRecent},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, tt.want, ComputeStatus(tt.value, now, time.UTC))
		})
	}
}

func TestComputeStatusNaiveUsesLocation(t *testing.T) {
	loc := time.FixedZone("UTC+8", 8*60*60)
	now := time.Date(2024, 7, 31, 0, 0, 0, 0, time.UTC)

	// Read in UTC+8 this wall clock is 2024-07-23T20:00Z, more than seven days old.
	require.Equal(t, StatusNeedsUpdate, ComputeStatus("2024-07-24T04:00:00", now, loc))
	require.Equal(t, StatusRecent, ComputeStatus("2024-07-24T04:00:00", now, time.UTC))
	require.Equal(t, StatusRecent, ComputeStatus("2024-07-30", now, loc))
}

func TestParseSurveyTimeLayouts(t *testing.T) {
	for _, value := range []string{
		"2024-07-01T10:00:00Z",
		"2024-07-01T10:00:00.123+02:00",
		"2024-07-01T10:00:00",
		"2024-07-01 10:00:00.5",
		"2024-07-01T10:00",
		"2024-07-01",
	} {
		_, ok := parseSurveyTime(value, time.UTC)
		require.True(t, ok, value)
	}
}
