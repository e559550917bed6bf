// FilePath: internal/aggregate/accumulator_test.go
package aggregate_test

import (
	"testing"
	"time"

	"github.com/itsatony/telemhub/internal/aggregate"
	"github.com/itsatony/telemhub/internal/models"
	"github.com/stretchr/testify/require"
)

func ptr(v float64) *float64 { return &v }

func reading(ts time.Time, temp, hum *float64) models.Reading {
	return models.Reading{DeviceID: "esp32-01", TemperatureC: temp, HumidityPct: hum, Timestamp: ts}
}

func TestAccumulator_HourlyBuckets(t *testing.T) {
	loc := time.UTC
	day := time.Date(2026, 8, 27, 0, 0, 0, 0, loc)

	acc := aggregate.NewAccumulator(aggregate.GranularityDay, loc)
	require.NoError(t, acc.Add(reading(day.Add(10*time.Hour+5*time.Minute), ptr(20), nil)))
	require.NoError(t, acc.Add(reading(day.Add(10*time.Hour+40*time.Minute), ptr(22), nil)))
	require.NoError(t, acc.Add(reading(day.Add(11*time.Hour+2*time.Minute), ptr(24), nil)))

	buckets := acc.Buckets()
	require.Len(t, buckets, 2)

	require.Equal(t, day.Add(10*time.Hour), buckets[0].BucketStart)
	require.Equal(t, 2, buckets[0].SampleCount)
	require.NotNil(t, buckets[0].AvgTemperatureC)
	require.InDelta(t, 21.0, *buckets[0].AvgTemperatureC, 1e-9)

	require.Equal(t, day.Add(11*time.Hour), buckets[1].BucketStart)
	require.Equal(t, 1, buckets[1].SampleCount)
	require.InDelta(t, 24.0, *buckets[1].AvgTemperatureC, 1e-9)
}

func TestAccumulator_SameHourSameBucket(t *testing.T) {
	loc := time.UTC
	day := time.Date(2026, 8, 27, 0, 0, 0, 0, loc)

	acc := aggregate.NewAccumulator(aggregate.GranularityDay, loc)
	require.NoError(t, acc.Add(reading(day.Add(12*time.Hour+7*time.Minute), ptr(20), nil)))
	require.NoError(t, acc.Add(reading(day.Add(12*time.Hour+54*time.Minute), ptr(22), nil)))

	buckets := acc.Buckets()
	require.Len(t, buckets, 1)
	require.Equal(t, day.Add(12*time.Hour), buckets[0].BucketStart)
}

func TestAccumulator_FieldsAccumulateIndependently(t *testing.T) {
	loc := time.UTC
	ts := time.Date(2026, 8, 27, 9, 15, 0, 0, loc)

	acc := aggregate.NewAccumulator(aggregate.GranularityDay, loc)
	require.NoError(t, acc.Add(reading(ts, ptr(20), ptr(60))))
	require.NoError(t, acc.Add(reading(ts.Add(time.Minute), nil, ptr(70))))
	require.NoError(t, acc.Add(reading(ts.Add(2*time.Minute), ptr(26), nil)))

	buckets := acc.Buckets()
	require.Len(t, buckets, 1)
	require.Equal(t, 3, buckets[0].SampleCount)
	require.InDelta(t, 23.0, *buckets[0].AvgTemperatureC, 1e-9)
	require.InDelta(t, 65.0, *buckets[0].AvgHumidityPct, 1e-9)
}

func TestAccumulator_MissingFieldYieldsNilAverage(t *testing.T) {
	loc := time.UTC
	ts := time.Date(2026, 8, 27, 9, 0, 0, 0, loc)

	acc := aggregate.NewAccumulator(aggregate.GranularityDay, loc)
	require.NoError(t, acc.Add(reading(ts, ptr(21.5), nil)))

	buckets := acc.Buckets()
	require.Len(t, buckets, 1)
	require.Nil(t, buckets[0].AvgHumidityPct)
	require.NotNil(t, buckets[0].AvgTemperatureC)
}

func TestAccumulator_NoReadingsNoBuckets(t *testing.T) {
	acc := aggregate.NewAccumulator(aggregate.GranularityDay, time.UTC)
	require.Empty(t, acc.Buckets())
}

func TestAccumulator_NeverEmitsEmptyBuckets(t *testing.T) {
	loc := time.UTC
	day := time.Date(2026, 8, 27, 0, 0, 0, 0, loc)

	// Readings three hours apart: the gap hours must not appear.
	acc := aggregate.NewAccumulator(aggregate.GranularityDay, loc)
	require.NoError(t, acc.Add(reading(day.Add(8*time.Hour), ptr(20), nil)))
	require.NoError(t, acc.Add(reading(day.Add(11*time.Hour), ptr(22), nil)))

	buckets := acc.Buckets()
	require.Len(t, buckets, 2)
	for _, bucket := range buckets {
		require.NotZero(t, bucket.SampleCount)
	}
}

func TestAccumulator_BucketsSortedAscending(t *testing.T) {
	loc := time.UTC
	day := time.Date(2026, 8, 27, 0, 0, 0, 0, loc)

	acc := aggregate.NewAccumulator(aggregate.GranularityDay, loc)
	require.NoError(t, acc.Add(reading(day.Add(14*time.Hour), ptr(20), nil)))
	require.NoError(t, acc.Add(reading(day.Add(9*time.Hour), ptr(21), nil)))
	require.NoError(t, acc.Add(reading(day.Add(11*time.Hour), ptr(22), nil)))

	buckets := acc.Buckets()
	require.Len(t, buckets, 3)
	require.True(t, buckets[0].BucketStart.Before(buckets[1].BucketStart))
	require.True(t, buckets[1].BucketStart.Before(buckets[2].BucketStart))
}
