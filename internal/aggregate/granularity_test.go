// FilePath: internal/aggregate/granularity_test.go
package aggregate_test

import (
	"testing"
	"time"

	"github.com/itsatony/telemhub/internal/aggregate"
	"github.com/itsatony/telemhub/internal/errors"
	"github.com/stretchr/testify/require"
)

func TestParse_ClosedSet(t *testing.T) {
	for _, token := range []string{"1d", "1m", "3m", "6m", "1y"} {
		g, err := aggregate.Parse(token)
		require.NoError(t, err)
		require.Equal(t, aggregate.Granularity(token), g)
	}
}

func TestParse_UnknownTokenFails(t *testing.T) {
	for _, token := range []string{"2w", "1w", "", "day", "1D"} {
		_, err := aggregate.Parse(token)
		require.Error(t, err, "token %q must not parse", token)
		require.True(t, errors.IsInvalidGranularity(err))
	}
}

func TestLookbackWindows(t *testing.T) {
	cases := map[aggregate.Granularity]time.Duration{
		aggregate.GranularityDay:      24 * time.Hour,
		aggregate.GranularityMonth:    30 * 24 * time.Hour,
		aggregate.GranularityQuarter:  90 * 24 * time.Hour,
		aggregate.GranularityHalfYear: 180 * 24 * time.Hour,
		aggregate.GranularityYear:     365 * 24 * time.Hour,
	}
	for g, want := range cases {
		require.Equal(t, want, g.Lookback(), "lookback for %s", g)
	}
}

func TestBucketStart_HourAlignment(t *testing.T) {
	loc := time.UTC
	ts := time.Date(2026, 8, 27, 12, 7, 33, 400, loc)
	require.Equal(t,
		time.Date(2026, 8, 27, 12, 0, 0, 0, loc),
		aggregate.GranularityDay.BucketStart(ts, loc))
}

func TestBucketStart_DayAlignment(t *testing.T) {
	loc := time.UTC
	ts := time.Date(2026, 8, 27, 23, 59, 59, 0, loc)
	want := time.Date(2026, 8, 27, 0, 0, 0, 0, loc)
	require.Equal(t, want, aggregate.GranularityMonth.BucketStart(ts, loc))
	require.Equal(t, want, aggregate.GranularityQuarter.BucketStart(ts, loc))
}

func TestBucketStart_WeekStartsSunday(t *testing.T) {
	loc := time.UTC
	// 2026-08-27 is a Thursday; its week starts Sunday 2026-08-23.
	ts := time.Date(2026, 8, 27, 10, 30, 0, 0, loc)
	got := aggregate.GranularityHalfYear.BucketStart(ts, loc)
	require.Equal(t, time.Date(2026, 8, 23, 0, 0, 0, 0, loc), got)
	require.Equal(t, time.Sunday, got.Weekday())

	// A Sunday is already aligned.
	sunday := time.Date(2026, 8, 23, 15, 0, 0, 0, loc)
	require.Equal(t, time.Date(2026, 8, 23, 0, 0, 0, 0, loc),
		aggregate.GranularityHalfYear.BucketStart(sunday, loc))
}

func TestBucketStart_MonthAlignment(t *testing.T) {
	loc := time.UTC
	ts := time.Date(2026, 8, 27, 10, 30, 0, 0, loc)
	require.Equal(t,
		time.Date(2026, 8, 1, 0, 0, 0, 0, loc),
		aggregate.GranularityYear.BucketStart(ts, loc))
}
